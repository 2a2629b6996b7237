package preview

import (
	"umath/internal/document"
	"umath/internal/extract"
)

// Jump is where the cursor goes when leaving math, and what to type there.
type Jump struct {
	Position document.Position
	Insert   string
}

// JumpOut finds the end of the math at pos. It reads only the immutable
// document snapshot and the classifier, so it may run on any goroutine.
func (s *Session) JumpOut(uri string, pos document.Position) (*Jump, bool) {
	doc, ok := s.docs.Document(uri)
	if !ok {
		return nil, false
	}
	pos = doc.Clamp(pos)
	target, insert, ok := extract.JumpTarget(doc, s.classifier.Classify(doc, pos), pos)
	if !ok {
		return nil, false
	}
	return &Jump{Position: target, Insert: insert}, true
}

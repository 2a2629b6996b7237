// Package delimiter finds math delimiters around a cursor position.
//
// Candidate lists are ordered by priority: the first candidate that occurs
// anywhere in the searched text wins, regardless of where the other
// candidates occur. Lists therefore put longer tokens before their prefixes
// ("$$" before "$").
package delimiter

import "strings"

// Match is one candidate found in a text fragment.
type Match struct {
	Token string
	Index int
}

// Find returns the first candidate, in list order, that occurs in haystack.
// With fromEnd set, the last occurrence of that candidate is reported.
func Find(candidates []string, haystack string, fromEnd bool) (Match, bool) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		var i int
		if fromEnd {
			i = strings.LastIndex(haystack, c)
		} else {
			i = strings.Index(haystack, c)
		}
		if i != -1 {
			return Match{Token: c, Index: i}, true
		}
	}
	return Match{}, false
}

package document

import "errors"

var ErrNotOpen = errors.New("document not open")

package extract

import "errors"

var (
	ErrNotMath          = errors.New("position is not inside math")
	ErrBoundaryNotFound = errors.New("math delimiter not found")
	ErrBlankExpression  = errors.New("blank math expression")
)

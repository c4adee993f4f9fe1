package quant

import "errors"

// Store errors. A call that returns one of these leaves the store unchanged.
var (
	ErrUnknownQuantity = errors.New("unknown quantity")
	ErrArityMismatch   = errors.New("arity mismatch")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidMask     = errors.New("invalid mask")
	ErrReadOnly        = errors.New("read-only quantity")
)

package params

import "errors"

var (
	ErrEmptyInput      = errors.New("params: empty input")
	ErrTruncatedBuffer = errors.New("params: truncated buffer")
	ErrMalformedRoot   = errors.New("params: malformed root")
	ErrIndexOutOfRange = errors.New("params: index out of range")
	ErrReleased        = errors.New("params: store used after release")
)

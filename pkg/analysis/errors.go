package analysis

import "github.com/pkg/errors"

var (
	// ErrInvalidWindowSize is returned when a window can not produce a fit,
	// either because it holds fewer than two samples or because all of its
	// elapsed times are identical.
	ErrInvalidWindowSize = errors.New("invalid window size")

	ErrInvalidDeviation = errors.New("invalid deviation multiplier")

	ErrWindowNotFull = errors.New("window is not full")

	ErrBufferFull = errors.New("sample buffer is full")

	// ErrDegenerateBucket is returned when a bucket is finalized without
	// observing both a bid and an ask.
	ErrDegenerateBucket = errors.New("degenerate bucket")
)

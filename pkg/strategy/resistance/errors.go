package resistance

import "github.com/pkg/errors"

// ErrChannelClosed is returned when the quote channel closed under the
// strategy. It is terminal.
var ErrChannelClosed = errors.New("quote channel closed")

// ErrOrderSubmissionFailed wraps the submitter errors. The position flags
// are left untouched so the next signal can retry.
var ErrOrderSubmissionFailed = errors.New("order submission failed")

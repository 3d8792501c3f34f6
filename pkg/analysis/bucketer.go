package analysis

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/c9s/bandbot/pkg/types"
)

// DegeneratePolicy decides what happens to a bucket that closes without
// both a bid and an ask.
type DegeneratePolicy string

const (
	// DegenerateSkip drops the bucket
	DegenerateSkip DegeneratePolicy = "skip"

	// DegenerateCarry re-emits the previous mid price, a bucket with no
	// previous mid price is dropped
	DegenerateCarry DegeneratePolicy = "carry"
)

func (p DegeneratePolicy) Valid() bool {
	return p == DegenerateSkip || p == DegenerateCarry
}

// TickBucketer turns bid/ask quote updates into one mid price sample per
// wall-clock second.
//
// The best ask is the lowest ask and the best bid is the highest bid seen
// within the bucket.
type TickBucketer struct {
	buffer *SampleBuffer
	policy DegeneratePolicy

	anchor  int64
	bucket  int64
	started bool

	bestAsk, bestBid float64

	lastMid    float64
	hasLastMid bool

	trades        []types.Trade
	lastPartition Partition
}

// NewTickBucketer creates a bucketer anchored at the given time. The first
// second boundary crossed after the anchor second does not emit a sample.
func NewTickBucketer(buffer *SampleBuffer, anchor time.Time, policy DegeneratePolicy) *TickBucketer {
	if !policy.Valid() {
		policy = DegenerateSkip
	}

	b := &TickBucketer{
		buffer: buffer,
		policy: policy,
		anchor: anchor.Unix(),
		bucket: anchor.Unix(),
	}
	b.resetBest()
	return b
}

func (b *TickBucketer) resetBest() {
	b.bestAsk = math.Inf(1)
	b.bestBid = 0
	b.trades = b.trades[:0]
}

// Buffer returns the buffer the bucketer is currently filling
func (b *TickBucketer) Buffer() *SampleBuffer { return b.buffer }

func (b *TickBucketer) Anchor() time.Time { return time.Unix(b.anchor, 0) }

// Full reports whether the current window is complete
func (b *TickBucketer) Full() bool { return b.buffer.Full() }

// LastPartition returns the summary of the last finalized bucket
func (b *TickBucketer) LastPartition() Partition { return b.lastPartition }

// Best returns the best bid and ask of the bucket being accumulated
func (b *TickBucketer) Best() (bid, ask float64, ok bool) {
	ok = b.bestBid > 0 && !math.IsInf(b.bestAsk, 1)
	return b.bestBid, b.bestAsk, ok
}

// Rotate swaps in a fresh buffer and moves the anchor to the bucket being
// accumulated, so the next sample of the new window has elapsed time 0.
func (b *TickBucketer) Rotate(buffer *SampleBuffer) *SampleBuffer {
	old := b.buffer
	b.buffer = buffer
	b.anchor = b.bucket
	return old
}

// Feed folds the quote received at now into the bucketer. It returns true
// when the quote closed a bucket and a sample was appended to the buffer.
//
// ErrDegenerateBucket is returned when the closed bucket was dropped because
// it did not see both sides, ErrBufferFull when the closed bucket could not
// be stored because the window is already complete. Neither error stops the
// bucketer; the quote is always folded into the new bucket.
func (b *TickBucketer) Feed(q types.Quote, now time.Time) (appended bool, err error) {
	// a clock stepping backwards keeps folding into the current bucket
	second := now.Unix()
	if second > b.bucket {
		if !b.started {
			b.started = true
			b.bucket = second
		} else {
			appended, err = b.finalize()
			b.bucket = second
			b.resetBest()
		}
	}

	if !q.Valid() {
		return appended, err
	}

	switch q.Side {
	case types.BookSideAsk:
		if q.Price < b.bestAsk {
			b.bestAsk = q.Price
		}

	case types.BookSideBid:
		if q.Price > b.bestBid {
			b.bestBid = q.Price
		}
	}

	b.trades = append(b.trades, types.Trade{Price: q.Price, Timestamp: uint64(b.bucket)})
	return appended, err
}

func (b *TickBucketer) finalize() (bool, error) {
	b.lastPartition = NewPartition(b.trades)

	elapsed := uint64(b.bucket - b.anchor)
	mid, ok := b.mid()
	if !ok {
		if b.policy != DegenerateCarry || !b.hasLastMid {
			return false, errors.Wrapf(ErrDegenerateBucket, "bucket %d: bid = %f, ask = %f", b.bucket, b.bestBid, b.bestAsk)
		}

		mid = b.lastMid
	}

	if b.buffer.Full() {
		return false, errors.Wrapf(ErrBufferFull, "bucket %d dropped", b.bucket)
	}

	if !b.buffer.Append(elapsed, mid) {
		return false, errors.Errorf("bucket %d can not be appended at elapsed %d", b.bucket, elapsed)
	}

	b.lastMid = mid
	b.hasLastMid = true
	return true, nil
}

func (b *TickBucketer) mid() (float64, bool) {
	if b.bestBid <= 0 || math.IsInf(b.bestAsk, 1) {
		return 0, false
	}

	return (b.bestAsk + b.bestBid) / 2.0, true
}

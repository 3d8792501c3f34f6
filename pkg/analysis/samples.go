package analysis

import (
	"github.com/pkg/errors"
)

// SampleBuffer is a fixed capacity window of (elapsed, price) samples.
// Elapsed values are seconds since the anchor of the window and never go
// backwards.
type SampleBuffer struct {
	elapsed []uint64
	price   []float64
	n       int
}

func NewSampleBuffer(size int) (*SampleBuffer, error) {
	if size < 2 {
		return nil, errors.Wrapf(ErrInvalidWindowSize, "window size %d, need at least 2", size)
	}

	return &SampleBuffer{
		elapsed: make([]uint64, size),
		price:   make([]float64, size),
	}, nil
}

// NewSampleBufferFrom builds a full buffer from complete sequences, this is
// used for replaying recorded windows.
func NewSampleBufferFrom(elapsed []uint64, price []float64) (*SampleBuffer, error) {
	if len(elapsed) != len(price) {
		return nil, errors.Errorf("elapsed and price length mismatch: %d != %d", len(elapsed), len(price))
	}

	buf, err := NewSampleBuffer(len(elapsed))
	if err != nil {
		return nil, err
	}

	for i := range elapsed {
		if !buf.Append(elapsed[i], price[i]) {
			return nil, errors.Errorf("elapsed time goes backwards at index %d: %d < %d", i, elapsed[i], elapsed[i-1])
		}
	}

	return buf, nil
}

// Append adds the sample at the next index. It returns false and leaves the
// buffer untouched when the buffer is full or when elapsed would go backwards.
func (b *SampleBuffer) Append(elapsed uint64, price float64) bool {
	if b.n == len(b.elapsed) {
		return false
	}

	if b.n > 0 && elapsed < b.elapsed[b.n-1] {
		return false
	}

	b.elapsed[b.n] = elapsed
	b.price[b.n] = price
	b.n++
	return true
}

func (b *SampleBuffer) Len() int { return b.n }

func (b *SampleBuffer) Cap() int { return len(b.elapsed) }

func (b *SampleBuffer) Full() bool { return b.n == len(b.elapsed) }

func (b *SampleBuffer) Reset() { b.n = 0 }

// Last returns the most recent sample
func (b *SampleBuffer) Last() (uint64, float64, bool) {
	if b.n == 0 {
		return 0, 0, false
	}
	return b.elapsed[b.n-1], b.price[b.n-1], true
}

// Elapsed returns a copy of the valid elapsed times
func (b *SampleBuffer) Elapsed() []uint64 {
	out := make([]uint64, b.n)
	copy(out, b.elapsed[:b.n])
	return out
}

// Prices returns a copy of the valid prices
func (b *SampleBuffer) Prices() []float64 {
	out := make([]float64, b.n)
	copy(out, b.price[:b.n])
	return out
}

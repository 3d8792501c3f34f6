package util

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

func NewValidLimiter(r rate.Limit, b int) (*rate.Limiter, error) {
	if b <= 0 || r <= 0 {
		return nil, errors.Errorf("bad rate limit config, insufficient tokens (rate=%f, b=%d)", r, b)
	}
	return rate.NewLimiter(r, b), nil
}

// ParseRateLimitSyntax parses the rate limit syntax into a rate.Limiter
// sample inputs:
//
//	2+1/5s (2 initial tokens, 1 token per 5 seconds)
//	3/1m   (3 tokens per minute, burst 1)
//	10s    (1 token per 10 seconds)
func ParseRateLimitSyntax(desc string) (*rate.Limiter, error) {
	burst := 1
	tokens := 1.0
	durStr := strings.TrimSpace(desc)

	if head, tail, ok := strings.Cut(durStr, "/"); ok {
		durStr = tail

		if b, n, hasBurst := strings.Cut(head, "+"); hasBurst {
			v, err := strconv.Atoi(b)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid burst in rate limit %q", desc)
			}
			burst = v
			head = n
		}

		v, err := strconv.ParseFloat(head, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid token count in rate limit %q", desc)
		}
		tokens = v
	}

	duration, err := time.ParseDuration(durStr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid rate limit syntax %q, expecting b+n/duration", desc)
	}

	if tokens <= 0 {
		return nil, errors.Errorf("invalid token count in rate limit %q", desc)
	}

	return NewValidLimiter(rate.Every(time.Duration(float64(duration)/tokens)), burst)
}

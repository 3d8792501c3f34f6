package backoff

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

var MaxRetries uint64 = 101

// RetryGeneral retries op with exponential backoff until it succeeds, the
// retry budget runs out or the context is canceled.
func RetryGeneral(ctx context.Context, op backoff.Operation) (err error) {
	err = backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(),
			MaxRetries),
		ctx))
	return err
}

// RetryForever keeps retrying op with exponential backoff capped at
// maxInterval. Only a permanent error or context cancellation stops it.
func RetryForever(ctx context.Context, maxInterval time.Duration, logger logrus.FieldLogger, op backoff.Operation) error {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = 0

	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		logger.WithError(err).Warnf("retrying in %s", next)
	})
}

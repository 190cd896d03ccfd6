package common

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ternarybob/arbor"
)

// Retry classes shared by the database client, the storage client and the
// queue loop: connects get ten attempts from a 200ms base, queries and
// storage calls three from 500ms, the queue loop five from 500ms.
const (
	ConnectRetryBase  = 200 * time.Millisecond
	ConnectRetryTries = 10
	QueryRetryBase    = 500 * time.Millisecond
	QueryRetryTries   = 3
	QueueRetryBase    = 500 * time.Millisecond
	QueueRetryTries   = 5
)

// Retry runs op with exponential backoff doubling from base, giving up after
// tries attempts in total. Wrap an error in backoff.Permanent to fail fast.
func Retry(logger arbor.ILogger, operation string, base time.Duration, tries uint64, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = base
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0 // Attempt count is the only bound

	notify := func(err error, wait time.Duration) {
		logger.Warn().Err(err).Str("operation", operation).Str("backoff", wait.String()).Msg("Operation failed, retrying")
	}

	return backoff.RetryNotify(op, backoff.WithMaxRetries(policy, tries-1), notify)
}

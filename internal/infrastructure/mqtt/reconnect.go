package mqtt

import (
	"context"
	"fmt"
	"time"
)

// Reconnect blocks until the session is re-established or the reconnect
// budget runs out.
//
// Attempts are spaced by exponential backoff, starting at the configured
// initial delay and doubling up to the configured maximum. The whole
// operation is bounded by the configured reconnect timeout; exhausting it
// returns ErrReconnectTimeout, which the supervising loop treats as fatal.
//
// On success the client is Connected and all tracked subscriptions have been
// re-issued (clean sessions mean the broker forgot them).
//
// Parameters:
//   - ctx: cancellation aborts the wait between attempts and returns ctx.Err()
//
// Returns:
//   - error: nil on success, ctx.Err() on cancellation, ErrReconnectTimeout
//     when the budget is exhausted
func (c *Client) Reconnect(ctx context.Context) error {
	timeout := time.Duration(c.cfg.Reconnect.Timeout) * time.Second
	deadline := time.Now().Add(timeout)
	delay := time.Duration(c.cfg.Reconnect.InitialDelay) * time.Second
	maxDelay := time.Duration(c.cfg.Reconnect.MaxDelay) * time.Second

	attempts := 0
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.setState(Disconnected)
			return fmt.Errorf("%w: gave up after %d attempts in %v", ErrReconnectTimeout, attempts, timeout)
		}

		attempts++
		c.setState(Connecting)

		wait := defaultConnectTimeout
		if remaining < wait {
			wait = remaining
		}

		token := c.client.Connect()
		if token.WaitTimeout(wait) && token.Error() == nil {
			c.handleConnected()
			return nil
		}

		// The wait can expire in a near-tie with a connect that actually
		// completed; trust the transport before counting a failure.
		if c.client.IsConnected() {
			c.handleConnected()
			return nil
		}
		c.setState(Disconnected)

		if logger := c.getLogger(); logger != nil {
			logger.Warn("reconnect attempt failed",
				"attempt", attempts,
				"error", token.Error(),
				"next_delay", delay.String(),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

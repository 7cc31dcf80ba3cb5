package authsdk

import (
	"context"
	"sync"
	"time"
)

// renewCoordinator serialises renewal. However many requests hit a 401
// at once, exactly one renewal round trip happens; everyone else
// parks on a channel and shares the leader's outcome.
type renewCoordinator struct {
	timeout time.Duration
	renew   func(ctx context.Context) error
	current func() string

	mu       sync.Mutex
	renewing bool
	dead     bool
	waiters  []chan error
}

// await returns once a renewal attempt has completed. The first caller
// to arrive becomes the leader and performs the round trip; callers
// arriving while it is in flight join as waiters. A waiter whose own
// context expires gives up alone without affecting the attempt. stale
// is the access token whose rejection brought the caller here.
//
// Once an attempt fails the coordinator latches: further callers fail
// fast with ErrReauthRequired instead of retrying the round trip, until
// a fresh login resets it.
func (c *renewCoordinator) await(ctx context.Context, stale string) error {
	c.mu.Lock()
	if c.dead {
		c.mu.Unlock()
		return ErrReauthRequired
	}
	if c.renewing {
		ch := make(chan error, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	// A caller arriving after an attempt already finished sees its
	// result in the session: a token other than the one that failed
	// means the renewal it wanted has happened.
	if cur := c.current(); cur != "" && cur != stale {
		c.mu.Unlock()
		return nil
	}
	c.renewing = true
	c.mu.Unlock()

	// The leader renews on a detached context so that one caller's
	// cancellation cannot fail the attempt for everyone parked on it.
	timeout := c.timeout
	if timeout <= 0 {
		timeout = defaultRenewTimeout
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	err := c.renew(rctx)

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.renewing = false
	c.dead = err != nil
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- err
	}
	return err
}

// reset clears the failure latch. Called after a successful login.
func (c *renewCoordinator) reset() {
	c.mu.Lock()
	c.dead = false
	c.mu.Unlock()
}

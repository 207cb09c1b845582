package streak

import (
	"context"
	"sync"
	"time"

	"github.com/wardana28/Nofapers-Tracker/internal/logging"
)

// Session re-derives one user's snapshot on a periodic tick and fans it out to
// subscribers. All recomputation runs on the session goroutine, so writes to
// the user's document stay single-writer for the session's lifetime. Slow
// subscribers miss ticks instead of blocking the loop.
type Session struct {
	svc    *service
	userID string
	locale string

	mu     sync.Mutex
	subs   map[chan Snapshot]struct{}
	done   chan struct{}
	closed bool
}

// OpenSession starts the 1 Hz re-derivation loop for the user. The loop stops
// when ctx is cancelled or Close is called.
func (s *service) OpenSession(ctx context.Context, userID, locale string) *Session {
	sess := &Session{
		svc:    s,
		userID: userID,
		locale: locale,
		subs:   make(map[chan Snapshot]struct{}),
		done:   make(chan struct{}),
	}
	go sess.run(ctx)
	return sess
}

// Subscribe registers a snapshot listener. The channel is closed when the
// session ends.
func (sess *Session) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		close(ch)
		return ch
	}
	sess.subs[ch] = struct{}{}
	return ch
}

// Close stops the tick loop and closes all subscriber channels. Idempotent.
func (sess *Session) Close() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	sess.closed = true
	close(sess.done)
}

func (sess *Session) run(ctx context.Context) {
	ticker := time.NewTicker(sess.svc.tick)
	defer ticker.Stop()
	defer sess.closeSubs()

	// Publish an initial snapshot so subscribers don't wait a full tick.
	sess.publish(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.done:
			return
		case <-ticker.C:
			sess.publish(ctx)
		}
	}
}

func (sess *Session) publish(ctx context.Context) {
	snap, err := sess.svc.Snapshot(ctx, sess.userID, sess.locale)
	if err != nil {
		if sess.svc.logger != nil {
			logging.WithUserID(sess.svc.logger, sess.userID).Error("session snapshot failed", "error", err)
		}
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	for ch := range sess.subs {
		select {
		case ch <- *snap:
		default:
			// Drop the tick for a full subscriber buffer.
		}
	}
}

func (sess *Session) closeSubs() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.closed = true
	for ch := range sess.subs {
		close(ch)
		delete(sess.subs, ch)
	}
}

package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler removes transient messages after a delay. Pending deletions
// are dropped when the root context is cancelled.
type Scheduler struct {
	ctx    context.Context
	sender Sender
	log    *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewScheduler(ctx context.Context, sender Sender, log *slog.Logger) *Scheduler {
	return &Scheduler{ctx: ctx, sender: sender, log: log}
}

// DeleteAfter deletes the message once d has elapsed
func (s *Scheduler) DeleteAfter(chatID int64, messageID int, d time.Duration) {
	s.mu.Lock()
	if s.closed || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(s.ctx, sendTimeout)
		defer cancel()

		if err := s.sender.Delete(ctx, chatID, messageID); err != nil {
			// already deleted by the user, or too old to delete
			s.log.Debug("delete temp message", "chat_id", chatID, "message_id", messageID, "error", err)
		}
	}()
}

// Wait blocks until every scheduled deletion has run or been dropped.
// Deletions scheduled after Wait has been called are ignored.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
}

package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type memEntry struct {
	cart    Cart
	touched time.Time
}

// MemSessions keeps carts in process memory and forgets sessions idle
// for longer than ttl.
type MemSessions struct {
	mu  sync.RWMutex
	m   map[string]memEntry
	ttl time.Duration
	now func() time.Time
}

func NewMemSessions(ttl time.Duration) *MemSessions {
	return &MemSessions{
		m:   make(map[string]memEntry),
		ttl: ttl,
		now: time.Now,
	}
}

func (s *MemSessions) Ping(context.Context) error { return nil }

func (s *MemSessions) Load(_ context.Context, sessionID string) (Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.m[sessionID]
	if !ok || s.expired(e, s.now()) {
		return Cart{}, nil
	}
	return e.cart.Clone(), nil
}

func (s *MemSessions) Save(_ context.Context, sessionID string, c Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[sessionID] = memEntry{cart: c.Clone(), touched: s.now()}
	return nil
}

func (s *MemSessions) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, sessionID)
	return nil
}

func (s *MemSessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// Sweep drops expired sessions and reports how many were removed.
func (s *MemSessions) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, e := range s.m {
		if s.expired(e, now) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

// RunSweeper sweeps every interval until ctx is done.
func (s *MemSessions) RunSweeper(ctx context.Context, every time.Duration, log *zap.Logger) error {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				log.Debug("expired cart sessions swept", zap.Int("count", n))
			}
		}
	}
}

func (s *MemSessions) expired(e memEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.touched) > s.ttl
}

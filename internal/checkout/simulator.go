package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"CacaoStore/internal/cart"
)

const (
	DefaultDelay = 2 * time.Second

	outcomeSuccess   = "success"
	outcomeCancelled = "cancelled"
	outcomeRejected  = "rejected"
)

// Carts is the slice of the cart service checkout needs.
type Carts interface {
	Get(ctx context.Context, sessionID string) (cart.Cart, error)
	Clear(ctx context.Context, sessionID string) (cart.Cart, error)
}

type Metrics struct {
	Checkouts *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Checkouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cacao",
				Name:      "checkouts_total",
				Help:      "Simulated checkouts by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.Checkouts)
	return m
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(outcome).Inc()
}

// Simulator stands in for a payment flow: after a fixed delay every
// submission succeeds and the session cart is emptied.
type Simulator struct {
	Delay   time.Duration
	Carts   Carts
	Store   Store
	Log     *zap.Logger
	Metrics *Metrics

	mu       sync.Mutex
	inflight map[string]struct{}
	now      func() time.Time
}

func NewSimulator(delay time.Duration, carts Carts, store Store, log *zap.Logger, m *Metrics) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		Delay:    delay,
		Carts:    carts,
		Store:    store,
		Log:      log,
		Metrics:  m,
		inflight: make(map[string]struct{}),
		now:      time.Now,
	}
}

// Status reports whether a submission for the session is being processed.
func (s *Simulator) Status(sessionID string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inflight[sessionID]; ok {
		return StatusProcessing
	}
	return StatusDetails
}

// Submit runs one checkout. Cancelling ctx during the processing delay
// aborts it and leaves the cart as it was.
func (s *Simulator) Submit(ctx context.Context, sessionID string, d Details) (Receipt, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		s.Metrics.observe(outcomeRejected)
		return Receipt{}, err
	}

	if !s.begin(sessionID) {
		s.Metrics.observe(outcomeRejected)
		return Receipt{}, ErrInProgress
	}
	defer s.end(sessionID)

	c, err := s.Carts.Get(ctx, sessionID)
	if err != nil {
		return Receipt{}, fmt.Errorf("load cart: %w", err)
	}
	if c.Empty() {
		s.Metrics.observe(outcomeRejected)
		return Receipt{}, ErrEmptyCart
	}

	s.Log.Info("checkout processing",
		zap.String("session_id", sessionID),
		zap.Int("count", c.Count()),
		zap.String("total", c.Total().StringFixed(2)),
	)

	if err := s.wait(ctx); err != nil {
		s.Metrics.observe(outcomeCancelled)
		return Receipt{}, err
	}

	// Past the delay the checkout always completes, even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	r := Receipt{
		ID:        "o_" + uuid.NewString(),
		SessionID: sessionID,
		Email:     d.Email,
		Items:     c.Items,
		Total:     c.Total(),
		Count:     c.Count(),
		Status:    StatusSuccess,
		CreatedAt: s.now().UTC(),
	}

	if err := s.Store.Create(ctx, r); err != nil {
		return Receipt{}, fmt.Errorf("store receipt: %w", err)
	}
	if _, err := s.Carts.Clear(ctx, sessionID); err != nil {
		return Receipt{}, fmt.Errorf("clear cart: %w", err)
	}

	s.Metrics.observe(outcomeSuccess)
	s.Log.Info("checkout succeeded", zap.String("session_id", sessionID), zap.String("receipt_id", r.ID))
	return r, nil
}

func (s *Simulator) begin(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.inflight[sessionID]; busy {
		return false
	}
	s.inflight[sessionID] = struct{}{}
	return true
}

func (s *Simulator) end(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, sessionID)
}

func (s *Simulator) wait(ctx context.Context) error {
	if s.Delay <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(s.Delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

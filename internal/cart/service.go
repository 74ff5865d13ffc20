package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"CacaoStore/internal/catalog"
)

const (
	opAdd    = "add"
	opRemove = "remove"
	opUpdate = "update_quantity"
	opClear  = "clear"
)

type Metrics struct {
	Operations *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cacao",
				Name:      "cart_operations_total",
				Help:      "Cart mutations by kind",
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(m.Operations)
	return m
}

func (m *Metrics) observe(op string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op).Inc()
}

// Service applies cart operations to session carts. Mutations of the same
// session are serialized so each load-modify-save is atomic.
type Service struct {
	Catalog  *catalog.Catalog
	Sessions Sessions
	Metrics  *Metrics

	locks keyedMutex
}

func NewService(c *catalog.Catalog, s Sessions, m *Metrics) *Service {
	return &Service{Catalog: c, Sessions: s, Metrics: m}
}

func (s *Service) Get(ctx context.Context, sessionID string) (Cart, error) {
	return s.Sessions.Load(ctx, sessionID)
}

func (s *Service) Add(ctx context.Context, sessionID string, productID int) (Cart, error) {
	p, ok := s.Catalog.Get(productID)
	if !ok {
		return Cart{}, fmt.Errorf("%w: %d", ErrUnknownProduct, productID)
	}
	return s.update(ctx, sessionID, opAdd, func(c *Cart) { c.Add(p) })
}

func (s *Service) Remove(ctx context.Context, sessionID string, productID int) (Cart, error) {
	return s.update(ctx, sessionID, opRemove, func(c *Cart) { c.Remove(productID) })
}

func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, productID, delta int) (Cart, error) {
	return s.update(ctx, sessionID, opUpdate, func(c *Cart) { c.UpdateQuantity(productID, delta) })
}

func (s *Service) Clear(ctx context.Context, sessionID string) (Cart, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return Cart{}, err
	}
	s.Metrics.observe(opClear)
	return Cart{}, nil
}

func (s *Service) update(ctx context.Context, sessionID, op string, fn func(*Cart)) (Cart, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	c, err := s.Sessions.Load(ctx, sessionID)
	if err != nil {
		return Cart{}, err
	}

	fn(&c)

	if err := s.Sessions.Save(ctx, sessionID, c); err != nil {
		return Cart{}, err
	}
	s.Metrics.observe(op)
	return c, nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

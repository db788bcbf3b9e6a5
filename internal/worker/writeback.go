package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wellnexa/cart-service/internal/domain"
)

// Saver persists a cart. Satisfied by repository.CartStore.
type Saver interface {
	Save(ctx context.Context, cart *domain.Cart) error
}

// Config tunes the write-back pool.
type Config struct {
	// MinWorkers is the number of permanent workers.
	MinWorkers int
	// MaxWorkers caps the pool when backlog builds up.
	MaxWorkers int
	// IdleTimeout is how long an extra worker waits for work before retiring.
	IdleTimeout time.Duration
	// WriteTimeout bounds a single persistence attempt.
	WriteTimeout time.Duration
}

// DefaultConfig mirrors the historical pool sizing: 4 permanent workers,
// up to 10 under load, 60-second idle retirement.
func DefaultConfig() Config {
	return Config{
		MinWorkers:   4,
		MaxWorkers:   10,
		IdleTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

var (
	writebackBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cart_writeback_backlog",
		Help: "Number of cart write-backs waiting for a worker",
	})

	writebackFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_writeback_failures_total",
		Help: "Total number of cart write-backs that failed and were dropped",
	})
)

// Scheduler executes cart persistence off the request path. Schedule enqueues
// a write and returns immediately; a bounded pool of workers drains an
// unbounded in-memory backlog. A failed write is logged and dropped: callers
// never observe write-back errors, and nothing is retried. This is
// fire-and-forget durability, not at-least-once delivery.
type Scheduler struct {
	saver  Saver
	logger *slog.Logger
	cfg    Config

	submit   chan *domain.Cart
	dispatch chan *domain.Cart
	retired  chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewScheduler creates and starts a write-back scheduler.
func NewScheduler(saver Saver, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.MinWorkers < 1 {
		cfg.MinWorkers = 1
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = cfg.MinWorkers
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}

	s := &Scheduler{
		saver:    saver,
		logger:   logger,
		cfg:      cfg,
		submit:   make(chan *domain.Cart),
		dispatch: make(chan *domain.Cart),
		retired:  make(chan struct{}, cfg.MaxWorkers),
	}

	for i := 0; i < cfg.MinWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	s.wg.Add(1)
	go s.run()

	return s
}

// Schedule enqueues a durable upsert of the given cart and returns
// immediately. The scheduler takes ownership of the pointer; callers must not
// mutate the cart concurrently with a pending write. Must not be called after
// Close.
func (s *Scheduler) Schedule(cart *domain.Cart) {
	s.submit <- cart
}

// Close stops accepting new work, drains the backlog, and waits for all
// in-flight writes to finish. Safe to call more than once.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.submit)
	})
	s.wg.Wait()
}

// run owns the backlog. It feeds queued carts to workers and grows the pool
// toward MaxWorkers while work is waiting.
func (s *Scheduler) run() {
	defer s.wg.Done()

	var backlog []*domain.Cart
	extras := 0

	for {
		var out chan *domain.Cart
		var head *domain.Cart
		if len(backlog) > 0 {
			out = s.dispatch
			head = backlog[0]
		}

		select {
		case cart, ok := <-s.submit:
			if !ok {
				// Drain what is queued, then release the workers.
				for _, c := range backlog {
					s.dispatch <- c
				}
				writebackBacklog.Set(0)
				close(s.dispatch)
				return
			}
			backlog = append(backlog, cart)
			writebackBacklog.Set(float64(len(backlog)))

			if len(backlog) > 1 && s.cfg.MinWorkers+extras < s.cfg.MaxWorkers {
				extras++
				s.wg.Add(1)
				go s.extraWorker()
			}

		case out <- head:
			backlog = backlog[1:]
			writebackBacklog.Set(float64(len(backlog)))

		case <-s.retired:
			extras--
		}
	}
}

// worker is a permanent pool member.
func (s *Scheduler) worker() {
	defer s.wg.Done()
	for cart := range s.dispatch {
		s.write(cart)
	}
}

// extraWorker handles backlog spikes and retires after IdleTimeout without work.
func (s *Scheduler) extraWorker() {
	defer s.wg.Done()

	idle := time.NewTimer(s.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case cart, ok := <-s.dispatch:
			if !ok {
				return
			}
			s.write(cart)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.cfg.IdleTimeout)
		case <-idle.C:
			// Buffered channel; the send cannot block even during shutdown.
			s.retired <- struct{}{}
			return
		}
	}
}

func (s *Scheduler) write(cart *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.saver.Save(ctx, cart); err != nil {
		writebackFailures.Inc()
		s.logger.Error("cart write-back failed",
			slog.String("cart_id", cart.ID),
			slog.String("user_id", cart.UserID),
			slog.String("error", err.Error()),
		)
	}
}

package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reconciler освобождает слоты, занятые без живой записи
type Reconciler interface {
	ReconcileReservations(ctx context.Context, grace time.Duration) ([]uuid.UUID, error)
}

// Sweeper периодически запускает сверку бронирований
type Sweeper struct {
	reconciler Reconciler
	interval   time.Duration
	grace      time.Duration
	logger     *zap.Logger
	stopChan   chan struct{}
	stopOnce   sync.Once
	started    bool
	done       chan struct{}
}

// NewSweeper создаёт новый планировщик сверки
func NewSweeper(reconciler Reconciler, interval, grace time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		reconciler: reconciler,
		interval:   interval,
		grace:      grace,
		logger:     logger,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start запускает фоновую сверку
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting reservation sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("grace", s.grace),
	)

	s.started = true
	go s.run(ctx)
}

// Stop останавливает сверку и ждёт завершения текущего прохода
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping reservation sweeper")
		close(s.stopChan)
	})
	if s.started {
		<-s.done
	}
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stopChan:
			s.logger.Info("Reservation sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reservation sweeper cancelled")
			return
		}
	}
}

// Sweep выполняет один проход сверки
func (s *Sweeper) Sweep(ctx context.Context) int {
	released, err := s.reconciler.ReconcileReservations(ctx, s.grace)
	if err != nil {
		s.logger.Error("Failed to reconcile reservations", zap.Error(err))
		return 0
	}

	if len(released) > 0 {
		s.logger.Info("Reservation sweep completed", zap.Int("released", len(released)))
	}
	return len(released)
}

package server

import (
	"context"
	"errors"
	"time"

	"doodleit/internal/game"
	"doodleit/internal/logging"
)

// pendingAdvance is the deferred turn change for one room, bound to the
// turn generation it was scheduled for.
type pendingAdvance struct {
	generation uint64
	timer      *time.Timer
}

// scheduleAdvance arms the deferred advance for room. Repeat calls for the same
// generation keep the existing timer.
func (s *Server) scheduleAdvance(room string, generation uint64) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if existing, ok := s.timers[room]; ok {
		if existing.generation == generation {
			return
		}
		existing.timer.Stop()
	}
	s.timers[room] = &pendingAdvance{
		generation: generation,
		timer: time.AfterFunc(s.cfg.AdvanceDelay, func() {
			s.autoAdvanceTurn(room, generation)
		}),
	}
}

func (s *Server) cancelAdvance(room string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if pending, ok := s.timers[room]; ok {
		pending.timer.Stop()
		delete(s.timers, room)
	}
}

func (s *Server) pendingAdvances() int {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	return len(s.timers)
}

func (s *Server) autoAdvanceTurn(room string, generation uint64) {
	s.timersMu.Lock()
	if pending, ok := s.timers[room]; ok && pending.generation == generation {
		delete(s.timers, room)
	}
	s.timersMu.Unlock()

	logger := s.logger.With("room", room, "generation", generation)
	ctx := logging.WithLogger(context.Background(), logger)
	if s.cfg.EventTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.EventTimeout)
		defer cancel()
	}
	outcome, err := s.engine.AdvanceTurnFrom(ctx, room, generation)
	if errors.Is(err, game.ErrStaleTurn) {
		logger.Debugw("deferred advance is stale")
		return
	}
	if err != nil {
		logger.Errorw("auto-advance turn failed", "error", err)
		return
	}
	logger.Infow("turn auto-advanced", "game_over", outcome.GameOver)
	s.broadcastTurn(ctx, room, outcome)
}

func (s *Server) stopTimers() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for room, pending := range s.timers {
		pending.timer.Stop()
		delete(s.timers, room)
	}
}

// RunSweeper evicts idle rooms every SweepInterval until ctx is cancelled.
func (s *Server) RunSweeper(ctx context.Context) error {
	if s.cfg.SweepInterval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Server) sweep(ctx context.Context) []string {
	evicted, err := s.engine.Evict(ctx, game.EvictionPolicy{
		IdleTTL:     s.cfg.RoomIdleTTL,
		FinishedTTL: s.cfg.FinishedRoomTTL,
		OnEvict: func(room string) {
			s.cancelAdvance(room)
			s.hub.DropGroup(room)
		},
	})
	if err != nil {
		s.logger.Errorw("evict rooms", "error", err)
	}
	for _, room := range evicted {
		s.logger.Infow("room evicted", "room", room)
	}
	return evicted
}

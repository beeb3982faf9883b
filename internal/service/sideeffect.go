package service

import (
	"context"

	"github.com/rs/zerolog"
)

// SideEffects runs best-effort hooks (notifications, audit writes)
// triggered by lifecycle mutations. A hook failure is logged and
// discarded; it never reaches the caller and never rolls back the
// mutation that triggered it. The failure-isolation contract lives
// here once instead of at every call site.
type SideEffects struct {
	logger      zerolog.Logger
	synchronous bool
}

// NewSideEffects constructs a runner. With synchronous=false hooks run
// on their own goroutine and the triggering call returns without
// waiting for them.
func NewSideEffects(logger zerolog.Logger, synchronous bool) *SideEffects {
	return &SideEffects{
		logger:      logger.With().Str("component", "side_effects").Logger(),
		synchronous: synchronous,
	}
}

// Run executes fn, isolating any error or panic.
func (s *SideEffects) Run(ctx context.Context, name string, fn func(context.Context) error) {
	if s.synchronous {
		s.execute(ctx, name, fn)
		return
	}

	// The hook must survive the request that spawned it.
	detached := context.WithoutCancel(ctx)
	go s.execute(detached, name, fn)
}

func (s *SideEffects) execute(ctx context.Context, name string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("hook", name).Msg("side effect panicked")
		}
	}()

	if err := fn(ctx); err != nil {
		s.logger.Warn().Err(err).Str("hook", name).Msg("side effect failed")
	}
}

package turnsync

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Server processes a turn once every empire has submitted, or when the turn timeout elapses.
type Server struct {
	receiver    *Receiver
	processor   *Processor
	turnTimeout time.Duration // zero waits for every empire
	log         zerolog.Logger
}

func NewServer(receiver *Receiver, processor *Processor, turnTimeout time.Duration, log zerolog.Logger) (*Server, error) {
	if receiver == nil || processor == nil {
		return nil, eris.New("receiver and processor are required")
	}
	if processor.receiver != receiver {
		return nil, eris.New("processor is bound to another receiver")
	}
	if turnTimeout < 0 {
		return nil, eris.New("turn timeout cannot be negative")
	}
	return &Server{receiver: receiver, processor: processor, turnTimeout: turnTimeout, log: log}, nil
}

// Run blocks until ctx is canceled or a turn fails to process.
func (s *Server) Run(ctx context.Context) error {
	if err := s.receiver.Start(); err != nil {
		return err
	}
	defer func() {
		if err := s.receiver.Stop(); err != nil {
			s.log.Warn().Err(err).Msg("failed to stop receiver")
		}
	}()

	for {
		if !s.wait(ctx) {
			s.log.Info().Int("turn", s.receiver.Turn()).Msg("turn server stopped")
			return nil
		}

		if _, err := s.processor.ProcessTurn(ctx); err != nil {
			return eris.Wrap(err, "failed to process turn")
		}
	}
}

// wait returns false when ctx is canceled before the turn is ready.
func (s *Server) wait(ctx context.Context) bool {
	var timeout <-chan time.Time
	if s.turnTimeout > 0 {
		timer := time.NewTimer(s.turnTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		return false
	case <-s.receiver.AllSubmitted():
	case <-timeout:
		s.log.Info().
			Int("turn", s.receiver.Turn()).
			Interface("submitted", s.receiver.Submitted()).
			Msg("turn timed out")
	}
	return true
}

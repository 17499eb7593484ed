package event

import (
	"context"
	"log"
	"time"
)

type Publisher interface {
	PublishContentChanged(ctx context.Context, c Change) error
}

// Service fans content mutations out to the message bus. Publishing is
// best-effort: the mutation has already happened when Notify is called.
type Service struct {
	publisher Publisher
	timeout   time.Duration
	logger    *log.Logger
}

// NewService accepts a nil publisher, in which case changes are only logged.
func NewService(publisher Publisher, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		publisher: publisher,
		timeout:   5 * time.Second,
		logger:    logger,
	}
}

func (s *Service) Notify(ctx context.Context, c Change) {
	if s.publisher == nil {
		s.logger.Printf("events: %s %s (no publisher configured)", c.RoutingKey(), c.ID)
		return
	}

	// detached from the request so a closed client does not drop the event
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.publisher.PublishContentChanged(pubCtx, c); err != nil {
		s.logger.Printf("events: failed publishing %s %s: %v", c.RoutingKey(), c.ID, err)
		return
	}

	s.logger.Printf("events: published %s %s to message bus", c.RoutingKey(), c.ID)
}

package cms

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// schedulerActor is recorded as published_by for automatic publications.
const schedulerActor = "scheduler"

// Scheduler polls for drafts whose scheduled publication time has passed
// and publishes them. Re-entrancy is handled in the store: a concurrent
// publish of the same version loses the row lock race and reads a non-draft
// status, which the sweep logs and skips.
type Scheduler struct {
	service  *Service
	interval time.Duration
	done     chan struct{}
	log      zerolog.Logger
}

func NewScheduler(service *Service, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		service:  service,
		interval: interval,
		done:     make(chan struct{}),
		log:      log,
	}
}

// Run polls until Stop is called. Intended to run in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick performs one sweep: publish every draft whose scheduled time is due.
// Failures are isolated per version so one bad draft cannot starve the rest.
func (s *Scheduler) Tick(ctx context.Context) {
	due, err := s.service.store.ListDueScheduled(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("scheduler sweep failed")
		return
	}

	for _, version := range due {
		published, err := s.service.Publish(ctx, version.ID, schedulerActor)
		if err != nil {
			var domainErr *DomainError
			if errors.As(err, &domainErr) && domainErr.Code == CodeInvalidState {
				s.log.Debug().Str("version_id", version.ID).Msg("scheduled version already published elsewhere")
				continue
			}
			s.log.Error().Err(err).Str("version_id", version.ID).Msg("scheduled publish failed")
			continue
		}
		s.log.Info().
			Str("version_id", published.ID).
			Int64("sequence_number", published.SequenceNumber).
			Time("scheduled_for", derefTime(version.ScheduledPublishAt)).
			Msg("scheduled version published")
	}
}

// Stop terminates the polling loop.
func (s *Scheduler) Stop() {
	close(s.done)
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/StackLine-App/pokerbase/internal/app/domain/session"
	"github.com/StackLine-App/pokerbase/internal/app/metrics"
	"github.com/StackLine-App/pokerbase/internal/app/services/analytics"
	"github.com/StackLine-App/pokerbase/internal/app/storage"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

// ErrNotOwner is returned when a caller tries to mutate another user's session.
var ErrNotOwner = errors.New("session does not belong to requester")

// Service records poker sessions and serves the analytics dashboard queries.
type Service struct {
	store      storage.SessionStore
	log        *logger.Logger
	now        func() time.Time
	onRecorded func(context.Context, session.Session)
}

// New constructs a session service.
func New(store storage.SessionStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("sessions")
	}
	return &Service{store: store, log: log, now: time.Now}
}

// OnRecorded registers a hook invoked after a completed session lands, used
// to advance challenge progress.
func (s *Service) OnRecorded(fn func(context.Context, session.Session)) {
	s.onRecorded = fn
}

// CreateInput carries the fields of a completed session.
type CreateInput struct {
	UserID    string
	GameType  session.GameType
	Stakes    string
	Location  string
	BuyIn     float64
	Cashout   float64
	StartedAt time.Time
	EndedAt   time.Time
	Notes     string
}

// Create records a completed session. Profit is derived, never accepted.
func (s *Service) Create(ctx context.Context, in CreateInput) (session.Session, error) {
	rec := session.Session{
		UserID:    strings.TrimSpace(in.UserID),
		GameType:  in.GameType,
		Stakes:    strings.TrimSpace(in.Stakes),
		Location:  strings.TrimSpace(in.Location),
		BuyIn:     in.BuyIn,
		Cashout:   in.Cashout,
		StartedAt: in.StartedAt,
		EndedAt:   in.EndedAt,
		Notes:     strings.TrimSpace(in.Notes),
	}
	if err := validate(rec); err != nil {
		return session.Session{}, err
	}
	if rec.EndedAt.Before(rec.StartedAt) {
		return session.Session{}, fmt.Errorf("ended_at precedes started_at")
	}
	rec.Profit = rec.Cashout - rec.BuyIn

	rec, err := s.store.CreateSession(ctx, rec)
	if err != nil {
		return session.Session{}, err
	}

	metrics.RecordSession(string(rec.GameType))
	s.log.WithField("user_id", rec.UserID).
		WithField("session_id", rec.ID).
		WithField("profit", rec.Profit).
		Info("session recorded")
	if s.onRecorded != nil {
		s.onRecorded(ctx, rec)
	}
	return rec, nil
}

// StartLive opens an in-progress session. Live sessions carry no result and
// are excluded from analytics until ended.
func (s *Service) StartLive(ctx context.Context, in CreateInput) (session.Session, error) {
	rec := session.Session{
		UserID:    strings.TrimSpace(in.UserID),
		GameType:  in.GameType,
		Stakes:    strings.TrimSpace(in.Stakes),
		Location:  strings.TrimSpace(in.Location),
		BuyIn:     in.BuyIn,
		StartedAt: in.StartedAt,
		Live:      true,
		Notes:     strings.TrimSpace(in.Notes),
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = s.now()
	}
	if err := validate(rec); err != nil {
		return session.Session{}, err
	}

	rec, err := s.store.CreateSession(ctx, rec)
	if err != nil {
		return session.Session{}, err
	}

	s.log.WithField("user_id", rec.UserID).
		WithField("session_id", rec.ID).
		Info("live session started")
	return rec, nil
}

// EndLive closes the requester's live session with its cashout.
func (s *Service) EndLive(ctx context.Context, id, requesterID string, cashout float64, endedAt time.Time) (session.Session, error) {
	rec, err := s.store.GetSession(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	if rec.UserID != requesterID {
		return session.Session{}, fmt.Errorf("session %s: %w", id, ErrNotOwner)
	}
	if !rec.Live {
		return session.Session{}, fmt.Errorf("session %s is not live", id)
	}
	if endedAt.IsZero() {
		endedAt = s.now()
	}
	if endedAt.Before(rec.StartedAt) {
		return session.Session{}, fmt.Errorf("ended_at precedes started_at")
	}

	rec.Live = false
	rec.Cashout = cashout
	rec.Profit = cashout - rec.BuyIn
	rec.EndedAt = endedAt

	rec, err = s.store.UpdateSession(ctx, rec)
	if err != nil {
		return session.Session{}, err
	}

	metrics.RecordSession(string(rec.GameType))
	s.log.WithField("session_id", rec.ID).
		WithField("profit", rec.Profit).
		Info("live session ended")
	if s.onRecorded != nil {
		s.onRecorded(ctx, rec)
	}
	return rec, nil
}

// Get returns one of the requester's sessions. Another user's session is
// indistinguishable from a missing one.
func (s *Service) Get(ctx context.Context, id, requesterID string) (session.Session, error) {
	rec, err := s.store.GetSession(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	if rec.UserID != requesterID {
		return session.Session{}, fmt.Errorf("session %s not found", id)
	}
	return rec, nil
}

// List returns a user's sessions ordered by start time.
func (s *Service) List(ctx context.Context, userID string) ([]session.Session, error) {
	return s.store.ListSessions(ctx, userID)
}

// Update replaces the editable fields of a completed session and rederives
// the profit.
func (s *Service) Update(ctx context.Context, id string, in CreateInput) (session.Session, error) {
	rec, err := s.store.GetSession(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	if rec.UserID != strings.TrimSpace(in.UserID) {
		return session.Session{}, fmt.Errorf("session %s: %w", id, ErrNotOwner)
	}
	if rec.Live {
		return session.Session{}, fmt.Errorf("live session %s must be ended before editing", id)
	}

	rec.GameType = in.GameType
	rec.Stakes = strings.TrimSpace(in.Stakes)
	rec.Location = strings.TrimSpace(in.Location)
	rec.BuyIn = in.BuyIn
	rec.Cashout = in.Cashout
	rec.StartedAt = in.StartedAt
	rec.EndedAt = in.EndedAt
	rec.Notes = strings.TrimSpace(in.Notes)
	if err := validate(rec); err != nil {
		return session.Session{}, err
	}
	if rec.EndedAt.Before(rec.StartedAt) {
		return session.Session{}, fmt.Errorf("ended_at precedes started_at")
	}
	rec.Profit = rec.Cashout - rec.BuyIn

	rec, err = s.store.UpdateSession(ctx, rec)
	if err != nil {
		return session.Session{}, err
	}
	s.log.WithField("session_id", rec.ID).Info("session updated")
	return rec, nil
}

// Delete removes one of the requester's sessions.
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	rec, err := s.store.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if rec.UserID != requesterID {
		return fmt.Errorf("session %s: %w", id, ErrNotOwner)
	}
	if err := s.store.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.log.WithField("session_id", id).Info("session deleted")
	return nil
}

// Dashboard is the aggregate view behind the analytics screen.
type Dashboard struct {
	Range   analytics.TimeRange
	Summary analytics.Summary
	Series  []analytics.BucketPoint
	Persona analytics.Persona
}

// Dashboard loads a user's sessions and computes the analytics view for the
// given range and filter.
func (s *Service) Dashboard(ctx context.Context, userID string, r analytics.TimeRange, f analytics.Filter) (Dashboard, error) {
	all, err := s.store.ListSessions(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	selected := analytics.Select(all, r, f, s.now())
	return Dashboard{
		Range:   r,
		Summary: analytics.Summarize(selected),
		Series:  analytics.ProfitSeries(selected, r),
		Persona: analytics.Classify(selected),
	}, nil
}

func validate(rec session.Session) error {
	if rec.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	switch rec.GameType {
	case session.GameCash, session.GameTournament:
	default:
		return fmt.Errorf("unknown game type %q", rec.GameType)
	}
	if rec.BuyIn < 0 {
		return fmt.Errorf("buy-in cannot be negative")
	}
	if rec.StartedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	return nil
}

// Package chat orchestrates one conversation turn: routing the message,
// running the recommendation engine or the answerer, and keeping the
// session's follow-up state current.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/se-wein/kumrec-go/internal/answer"
	"github.com/se-wein/kumrec-go/internal/dialog"
	"github.com/se-wein/kumrec-go/internal/engine"
	apperrors "github.com/se-wein/kumrec-go/internal/errors"
	"github.com/se-wein/kumrec-go/internal/logger"
	"github.com/se-wein/kumrec-go/internal/metrics"
	"github.com/se-wein/kumrec-go/internal/profile"
	"github.com/se-wein/kumrec-go/internal/storage"
)

// ProfileStore loads stored user profiles for recommendation turns.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*profile.Profile, error)
}

var _ ProfileStore = (*storage.DB)(nil)

// Service runs conversation turns against the engine and answerer.
type Service struct {
	engine   *engine.Engine
	answerer *answer.Answerer
	sessions *dialog.Manager
	profiles ProfileStore
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewService wires a chat service. profiles and m may be nil; turns then run
// with an empty profile and without metrics.
func NewService(eng *engine.Engine, ans *answer.Answerer, sessions *dialog.Manager, profiles ProfileStore, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		engine:   eng,
		answerer: ans,
		sessions: sessions,
		profiles: profiles,
		metrics:  m,
		log:      log.WithModule("chat"),
	}
}

// Turn is the outcome of one handled message.
type Turn struct {
	Intent  dialog.Intent
	Message string
}

// HandleTurn routes the question, executes the routed intent and updates the
// session. Reference failures and unknown programs come back as user-facing
// replies; the error return is reserved for collaborator failures.
func (s *Service) HandleTurn(ctx context.Context, sessionID, userID, question string) (*Turn, error) {
	start := time.Now()
	sess := s.sessions.Get(sessionID)
	d := dialog.Route(question, sess)

	turn, err := s.execute(ctx, d, sess, userID)
	s.observe(d.Intent, time.Since(start), err)
	if err != nil {
		s.log.WithSession(sessionID).WithError(err).Error("chat turn failed")
		return nil, err
	}
	return turn, nil
}

func (s *Service) execute(ctx context.Context, d dialog.Decision, sess *dialog.Session, userID string) (*Turn, error) {
	if d.Err != nil {
		if errors.Is(d.Err, apperrors.ErrUnresolvedReference) {
			return &Turn{Intent: d.Intent, Message: MsgUnresolvedReference}, nil
		}
		return nil, d.Err
	}

	if d.Intent == dialog.IntentQuestion {
		return s.question(ctx, d, sess)
	}
	return s.recommend(ctx, d, sess, userID)
}

func (s *Service) question(ctx context.Context, d dialog.Decision, sess *dialog.Session) (*Turn, error) {
	reply, prog, err := s.answerer.Answer(ctx, d.Query, d.Ref.ID, sess.Last().ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnknownProgram) {
			return &Turn{Intent: d.Intent, Message: MsgUnresolvedReference}, nil
		}
		return nil, err
	}
	sess.SetLast(dialog.Ref{ID: prog.ID, Title: prog.Title})
	return &Turn{Intent: d.Intent, Message: reply}, nil
}

func (s *Service) recommend(ctx context.Context, d dialog.Decision, sess *dialog.Session, userID string) (*Turn, error) {
	res, err := s.engine.Recommend(ctx, d.Query, s.loadProfile(ctx, userID))
	if err != nil {
		return nil, err
	}

	refs := make([]dialog.Ref, 0, len(res.Items))
	for _, item := range res.Items {
		refs = append(refs, dialog.Ref{ID: item.Program.ID, Title: item.Program.Title})
	}
	sess.SetResults(refs)
	if len(refs) > 0 {
		sess.SetLast(refs[0])
	}
	return &Turn{Intent: d.Intent, Message: renderRecommendation(d.Query, res)}, nil
}

// loadProfile falls back to an empty profile when the user is unknown or the
// store is unavailable; a recommendation then runs without interest or
// timetable constraints.
func (s *Service) loadProfile(ctx context.Context, userID string) *profile.Profile {
	if s.profiles == nil || userID == "" {
		return &profile.Profile{UserID: userID}
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			s.log.WithError(err).WithField("user_id", userID).Warn("profile load failed")
		}
		return &profile.Profile{UserID: userID}
	}
	return p
}

func (s *Service) observe(intent dialog.Intent, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.ChatRequestsTotal.WithLabelValues(intent.String(), status).Inc()
	s.metrics.ChatDurationSeconds.WithLabelValues(intent.String()).Observe(elapsed.Seconds())
}

// Package session owns one applicant profile and everything derived from it.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spigell/visa-assessor/internal/ai"
	"github.com/spigell/visa-assessor/internal/assessment"
	"github.com/spigell/visa-assessor/internal/logger"
	"go.uber.org/zap"
)

// MatchState tracks the occupation verification request.
type MatchState string

const (
	StateIdle     MatchState = "idle"
	StatePending  MatchState = "pending"
	StateResolved MatchState = "resolved"
	StateDegraded MatchState = "degraded"
)

var (
	ErrVerificationPending = errors.New("occupation verification already in progress")
	ErrEmptyJobTitle       = ai.ErrEmptyJobTitle

	// ErrStaleVerdict is returned when the profile changed while the matcher was running.
	ErrStaleVerdict = errors.New("verdict discarded: job title or qualification changed during verification")
)

// View is an immutable snapshot of the profile and its derived results.
type View struct {
	Profile           assessment.Profile     `json:"profile"`
	Score             assessment.Score       `json:"score"`
	Eligibility       assessment.Eligibility `json:"eligibility"`
	MeetsRequirements bool                   `json:"meetsRequirements"`
	Verdict           *ai.Verdict            `json:"verdict,omitempty"`
	MatchState        MatchState             `json:"matchState"`
	PointsGap         int                    `json:"pointsGap"`
}

type Session struct {
	mu      sync.Mutex
	matcher ai.OccupationMatcher
	logger  *zap.Logger
	newID   func() string

	profile    assessment.Profile
	verdict    *ai.Verdict
	state      MatchState
	generation uint64
}

// New starts a session with the default profile.
func New(matcher ai.OccupationMatcher, logger *zap.Logger) *Session {
	if matcher == nil {
		matcher = ai.Unconfigured("no occupation matcher")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		matcher: matcher,
		logger:  logger,
		newID:   uuid.NewString,
		profile: assessment.DefaultProfile(),
		state:   StateIdle,
	}
}

// Update applies changes in order and returns the recomputed view. A change
// to the job title or qualification invalidates the stored verdict.
func (s *Session) Update(changes ...assessment.Change) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.profile
	for _, change := range changes {
		if change != nil {
			change(&s.profile)
		}
	}

	if before.JobTitle != s.profile.JobTitle || before.Qualification != s.profile.Qualification {
		s.invalidateLocked()
	}

	return s.viewLocked()
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.viewLocked()
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == StatePending
}

// Verify runs the occupation matcher for the current title. At most one
// verification runs at a time; the lock is not held while the matcher runs.
func (s *Session) Verify(ctx context.Context) (View, error) {
	s.mu.Lock()
	if s.state == StatePending {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, ErrVerificationPending
	}

	req := ai.MatchRequest{
		JobTitle:      s.profile.JobTitle,
		Qualification: s.profile.Qualification,
		RequestID:     s.newID(),
	}
	if strings.TrimSpace(req.JobTitle) == "" {
		view := s.viewLocked()
		s.mu.Unlock()
		return view, ErrEmptyJobTitle
	}

	s.state = StatePending
	generation := s.generation
	s.mu.Unlock()

	log := s.logger.With(zap.String(logger.FieldRequestID, req.RequestID))
	log.Debug("occupation verification started",
		zap.String("job_title", req.JobTitle),
		zap.String("qualification", string(req.Qualification)),
	)

	verdict := s.matcher.Match(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		s.state = StateIdle
		log.Info("stale verdict discarded", logger.VerdictFields(verdict)...)
		return s.viewLocked(), ErrStaleVerdict
	}

	s.verdict = &verdict
	s.state = StateResolved
	if verdict.Degraded() {
		s.state = StateDegraded
		log.Warn("occupation verification degraded", logger.VerdictFields(verdict)...)
	} else {
		log.Info("occupation verification finished", logger.VerdictFields(verdict)...)
	}

	return s.viewLocked(), nil
}

func (s *Session) invalidateLocked() {
	s.generation++
	s.verdict = nil
	if s.state != StatePending {
		s.state = StateIdle
	}
}

// viewLocked derives the list flag from the verdict and recomputes scores.
func (s *Session) viewLocked() View {
	s.profile.OnCriticalSkillsList = s.verdict != nil && s.verdict.Qualifies()

	score := assessment.ComputeScore(s.profile)
	eligibility := assessment.Evaluate(s.profile, score.ListIndependent)

	view := View{
		Profile:           s.profile,
		Score:             score,
		Eligibility:       eligibility,
		MeetsRequirements: eligibility.MeetsRequirements(),
		MatchState:        s.state,
		PointsGap:         assessment.PointsGap(score.ListIndependent),
	}
	if s.verdict != nil {
		verdict := *s.verdict
		view.Verdict = &verdict
	}

	return view
}

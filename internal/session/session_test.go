package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/spigell/visa-assessor/internal/ai"
	"github.com/spigell/visa-assessor/internal/ai/offline"
	"github.com/spigell/visa-assessor/internal/assessment"
	"github.com/spigell/visa-assessor/internal/occupations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type blockingMatcher struct {
	started chan ai.MatchRequest
	release chan ai.Verdict
	calls   atomic.Int32
}

func newBlockingMatcher() *blockingMatcher {
	return &blockingMatcher{
		started: make(chan ai.MatchRequest, 1),
		release: make(chan ai.Verdict),
	}
}

func (b *blockingMatcher) Match(_ context.Context, req ai.MatchRequest) ai.Verdict {
	b.calls.Add(1)
	b.started <- req
	return <-b.release
}

type failingGenerator struct{}

func (failingGenerator) GenerateContent(context.Context, string) (string, error) {
	return "", errors.New("dial tcp 127.0.0.1:443: connection refused")
}

func (failingGenerator) Model() string { return "failing" }

type verifyResult struct {
	view View
	err  error
}

func offlineSession(t *testing.T) *Session {
	t.Helper()

	list, err := occupations.Default()
	require.NoError(t, err)
	return New(offline.NewMatcher(list, nil), zap.NewNop())
}

func fullVerdict() ai.Verdict {
	return ai.Verdict{
		Strength:                  ai.StrengthFull,
		OccupationName:            "Software Developer",
		ReferenceCode:             "2021-251201",
		MinimumLevel:              7,
		Confidence:                0.9,
		QualificationMeetsMinimum: true,
		Explanation:               "match",
	}
}

func TestNewSessionDefaults(t *testing.T) {
	s := New(nil, nil)
	view := s.View()

	assert.Equal(t, assessment.DefaultProfile(), view.Profile)
	assert.Equal(t, StateIdle, view.MatchState)
	assert.Nil(t, view.Verdict)
	assert.Equal(t, 30, view.Score.ListIndependent)
	assert.Equal(t, 70, view.PointsGap)
	assert.False(t, view.MeetsRequirements)
	assert.False(t, s.Busy())
}

func TestUpdateRecomputesInOrder(t *testing.T) {
	s := New(nil, nil)

	view := s.Update(
		assessment.WithQualification(assessment.QualificationNQF9),
		assessment.WithQualification(assessment.QualificationNQF10),
		assessment.WithSalary(assessment.SalaryAbove976k),
		assessment.WithJobOffer(true),
		nil,
	)

	assert.Equal(t, assessment.QualificationNQF10, view.Profile.Qualification)
	assert.Equal(t, 100, view.Score.ListIndependent)
	assert.True(t, view.Eligibility.General)
	assert.True(t, view.MeetsRequirements)
	assert.Zero(t, view.PointsGap)
}

func TestVerifyFullMatchPlacesOnList(t *testing.T) {
	s := offlineSession(t)
	s.Update(
		assessment.WithJobTitle("Software Developer"),
		assessment.WithQualification(assessment.QualificationNQF7),
		assessment.WithJobOffer(true),
	)

	view, err := s.Verify(context.Background())
	require.NoError(t, err)

	require.NotNil(t, view.Verdict)
	assert.Equal(t, StateResolved, view.MatchState)
	assert.True(t, view.Profile.OnCriticalSkillsList)
	assert.Equal(t, view.Score.ListIndependent+assessment.CriticalSkillsListBonus, view.Score.Total)
	assert.True(t, view.Eligibility.CriticalSkills)
	assert.Equal(t, []assessment.Category{assessment.CategoryCriticalSkills}, view.Eligibility.Categories())
}

func TestVerifyBelowMinimumKeepsFlagFalse(t *testing.T) {
	s := offlineSession(t)
	s.Update(
		assessment.WithJobTitle("Software Developer"),
		assessment.WithQualification(assessment.QualificationNQF6),
		assessment.WithJobOffer(true),
	)

	view, err := s.Verify(context.Background())
	require.NoError(t, err)

	require.NotNil(t, view.Verdict)
	assert.Equal(t, ai.StrengthFull, view.Verdict.Strength)
	assert.False(t, view.Verdict.QualificationMeetsMinimum)
	assert.False(t, view.Profile.OnCriticalSkillsList)
	assert.Equal(t, view.Score.ListIndependent, view.Score.Total)
	assert.False(t, view.Eligibility.CriticalSkills)
}

func TestVerifyNetworkFailureDegrades(t *testing.T) {
	list, err := occupations.Default()
	require.NoError(t, err)

	s := New(ai.NewLLMMatcher(failingGenerator{}, list, zap.NewNop(), 0), zap.NewNop())
	s.Update(assessment.WithJobTitle("Software Developer"))

	view, err := s.Verify(context.Background())
	require.NoError(t, err)

	require.NotNil(t, view.Verdict)
	assert.Equal(t, StateDegraded, view.MatchState)
	assert.Equal(t, ai.StrengthNone, view.Verdict.Strength)
	assert.Zero(t, view.Verdict.Confidence)
	assert.NotEmpty(t, view.Verdict.Explanation)
	assert.Equal(t, ai.FailureNetwork, view.Verdict.Failure)
	assert.False(t, view.Profile.OnCriticalSkillsList)
}

func TestVerifyEmptyTitleSkipsMatcher(t *testing.T) {
	matcher := newBlockingMatcher()
	s := New(matcher, zap.NewNop())
	s.Update(assessment.WithJobTitle("   "))

	view, err := s.Verify(context.Background())
	assert.ErrorIs(t, err, ErrEmptyJobTitle)
	assert.Equal(t, StateIdle, view.MatchState)
	assert.Zero(t, matcher.calls.Load())
}

func TestTitleChangeInvalidatesVerdict(t *testing.T) {
	s := offlineSession(t)
	s.Update(
		assessment.WithJobTitle("Software Developer"),
		assessment.WithQualification(assessment.QualificationNQF8),
	)

	view, err := s.Verify(context.Background())
	require.NoError(t, err)
	require.True(t, view.Profile.OnCriticalSkillsList)

	view = s.Update(assessment.WithSalary(assessment.SalaryAbove976k))
	assert.True(t, view.Profile.OnCriticalSkillsList, "unrelated change keeps the verdict")
	assert.NotNil(t, view.Verdict)

	view = s.Update(assessment.WithJobTitle("Chef"))
	assert.Nil(t, view.Verdict)
	assert.False(t, view.Profile.OnCriticalSkillsList)
	assert.Equal(t, StateIdle, view.MatchState)
	assert.Equal(t, view.Score.ListIndependent, view.Score.Total)
}

func TestQualificationChangeInvalidatesVerdict(t *testing.T) {
	s := offlineSession(t)
	s.Update(
		assessment.WithJobTitle("Software Developer"),
		assessment.WithQualification(assessment.QualificationNQF8),
	)

	_, err := s.Verify(context.Background())
	require.NoError(t, err)

	view := s.Update(assessment.WithQualification(assessment.QualificationNQF6))
	assert.Nil(t, view.Verdict)
	assert.False(t, view.Profile.OnCriticalSkillsList)
}

func TestVerifyRejectsConcurrentCalls(t *testing.T) {
	matcher := newBlockingMatcher()
	s := New(matcher, zap.NewNop())
	s.Update(assessment.WithJobTitle("Software Developer"))

	done := make(chan verifyResult, 1)
	go func() {
		view, err := s.Verify(context.Background())
		done <- verifyResult{view: view, err: err}
	}()

	<-matcher.started
	assert.True(t, s.Busy())
	assert.Equal(t, StatePending, s.View().MatchState)

	_, err := s.Verify(context.Background())
	assert.ErrorIs(t, err, ErrVerificationPending)

	matcher.release <- fullVerdict()
	result := <-done

	require.NoError(t, result.err)
	assert.False(t, s.Busy())
	assert.Equal(t, StateResolved, result.view.MatchState)
	assert.Equal(t, int32(1), matcher.calls.Load())
}

func TestVerifyDiscardsStaleVerdict(t *testing.T) {
	matcher := newBlockingMatcher()
	s := New(matcher, zap.NewNop())
	s.Update(assessment.WithJobTitle("Software Developer"))

	done := make(chan verifyResult, 1)
	go func() {
		view, err := s.Verify(context.Background())
		done <- verifyResult{view: view, err: err}
	}()

	req := <-matcher.started
	assert.Equal(t, "Software Developer", req.JobTitle)

	view := s.Update(assessment.WithJobTitle("Chef"))
	assert.Equal(t, StatePending, view.MatchState, "request is still in flight")

	matcher.release <- fullVerdict()
	result := <-done

	assert.ErrorIs(t, result.err, ErrStaleVerdict)
	assert.Nil(t, result.view.Verdict)
	assert.False(t, result.view.Profile.OnCriticalSkillsList)
	assert.Equal(t, StateIdle, result.view.MatchState)
	assert.False(t, s.Busy())
}

func TestVerifyAssignsRequestID(t *testing.T) {
	matcher := newBlockingMatcher()
	s := New(matcher, zap.NewNop())
	s.newID = func() string { return "req-42" }
	s.Update(assessment.WithJobTitle("Actuary"))

	go func() {
		req := <-matcher.started
		assert.Equal(t, "req-42", req.RequestID)
		matcher.release <- ai.Verdict{Strength: ai.StrengthNone, Explanation: "no match"}
	}()

	view, err := s.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateResolved, view.MatchState)
}

func TestScenarioMinimalProfileWithListMatch(t *testing.T) {
	matcher := newBlockingMatcher()
	s := New(matcher, zap.NewNop())
	s.Update(
		assessment.WithJobTitle("Software Developer"),
		assessment.WithQualification(assessment.QualificationOther),
		assessment.WithSalary(assessment.SalaryBelow650k),
		assessment.WithExperience(assessment.ExperienceUnder5),
		assessment.WithJobOffer(true),
	)

	go func() {
		<-matcher.started
		matcher.release <- fullVerdict()
	}()

	view, err := s.Verify(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, view.Score.ListIndependent)
	assert.Equal(t, 100, view.Score.Total)
	assert.True(t, view.Eligibility.CriticalSkills)
	assert.False(t, view.Eligibility.General)
}

func TestViewIsACopy(t *testing.T) {
	s := offlineSession(t)
	s.Update(assessment.WithJobTitle("Actuary"), assessment.WithQualification(assessment.QualificationNQF9))

	view, err := s.Verify(context.Background())
	require.NoError(t, err)
	require.NotNil(t, view.Verdict)

	view.Verdict.Strength = ai.StrengthNone
	view.Profile.JobTitle = "changed"

	again := s.View()
	assert.Equal(t, ai.StrengthFull, again.Verdict.Strength)
	assert.Equal(t, "Actuary", again.Profile.JobTitle)
}

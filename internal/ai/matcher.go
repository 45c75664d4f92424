package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/visa-assessor/internal/assessment"
)

// Strength is how well a job title matched the critical skills list.
type Strength string

const (
	StrengthFull    Strength = "full"
	StrengthPartial Strength = "partial"
	StrengthNone    Strength = "none"
)

// Failure classifies why a verdict was degraded. Empty means the call succeeded.
type Failure string

const (
	FailureNone          Failure = ""
	FailureConfiguration Failure = "configuration"
	FailureNetwork       Failure = "network"
	FailureMalformed     Failure = "malformed"
	FailureInput         Failure = "input"
)

var (
	ErrNotConfigured     = errors.New("occupation matcher is not configured")
	ErrTransport         = errors.New("matching service request failed")
	ErrMalformedResponse = errors.New("matching service returned a malformed response")
	ErrEmptyJobTitle     = errors.New("job title is empty")
)

// MatchRequest carries the applicant attributes the matcher needs.
type MatchRequest struct {
	JobTitle      string
	Qualification assessment.Qualification
	// RequestID correlates log entries of one verification.
	RequestID string
}

// Verdict is the immutable result of one matching round trip.
type Verdict struct {
	Strength                  Strength `json:"matchStrength"`
	OccupationName            string   `json:"occupationName,omitempty"`
	ReferenceCode             string   `json:"referenceCode,omitempty"`
	MinimumLevel              int      `json:"minimumLevel,omitempty"`
	Confidence                float64  `json:"confidence"`
	QualificationMeetsMinimum bool     `json:"qualificationMeetsMinimum"`
	Explanation               string   `json:"explanation"`
	Failure                   Failure  `json:"failure,omitempty"`
	Raw                       string   `json:"-"`
}

// Qualifies reports whether the verdict places the applicant on the list.
func (v Verdict) Qualifies() bool {
	return v.Strength == StrengthFull && v.QualificationMeetsMinimum
}

func (v Verdict) Degraded() bool {
	return v.Failure != FailureNone
}

// OccupationMatcher matches a free-text job title against the critical skills list.
// Match never fails: errors are reported as degraded verdicts.
type OccupationMatcher interface {
	Match(ctx context.Context, req MatchRequest) Verdict
}

// Generator is a provider client that turns a prompt into raw model text.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Classify maps an error onto a failure category.
func Classify(err error) Failure {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrEmptyJobTitle):
		return FailureInput
	case errors.Is(err, ErrNotConfigured):
		return FailureConfiguration
	case errors.Is(err, ErrMalformedResponse):
		return FailureMalformed
	default:
		return FailureNetwork
	}
}

// DegradedVerdict converts err into a none verdict with zero confidence.
func DegradedVerdict(err error) Verdict {
	failure := Classify(err)
	if failure == FailureNone {
		failure = FailureNetwork
		err = ErrTransport
	}

	return Verdict{
		Strength:    StrengthNone,
		Confidence:  0,
		Explanation: fmt.Sprintf("Matching failed (%s error): %v", failure, err),
		Failure:     failure,
	}
}

// EmptyTitleVerdict is returned without contacting any delegate.
func EmptyTitleVerdict() Verdict {
	return DegradedVerdict(ErrEmptyJobTitle)
}

type unconfigured struct {
	reason string
}

// Unconfigured returns a matcher that always yields a configuration failure.
func Unconfigured(reason string) OccupationMatcher {
	return unconfigured{reason: strings.TrimSpace(reason)}
}

func (u unconfigured) Match(_ context.Context, req MatchRequest) Verdict {
	if strings.TrimSpace(req.JobTitle) == "" {
		return EmptyTitleVerdict()
	}
	if u.reason == "" {
		return DegradedVerdict(ErrNotConfigured)
	}
	return DegradedVerdict(fmt.Errorf("%w: %s", ErrNotConfigured, u.reason))
}

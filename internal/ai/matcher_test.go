package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spigell/visa-assessor/internal/assessment"
	"github.com/spigell/visa-assessor/internal/occupations"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func testList(t *testing.T) *occupations.List {
	t.Helper()

	list, err := occupations.New("test", []occupations.Entry{
		{Code: "2021-251201", Name: "Software Developer", MinLevel: 7},
		{Code: "2021-211101", Name: "Physicist", MinLevel: 9},
	})
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	return list
}

func respond(matchType, occupation, code string, valid bool) string {
	return fmt.Sprintf(`{"matchType": %q, "officialOccupation": %q, "ofoCode": %q, "confidence": 0.92, "reason": "Direct title match.", "isNQFValid": %t}`,
		matchType, occupation, code, valid)
}

func TestMatchFullAtMinimum(t *testing.T) {
	stub := &stubGenerator{response: respond("FULL", "Software Developer", "2021-251201", true)}
	matcher := NewLLMMatcher(stub, testList(t), zap.NewNop(), 0)

	verdict := matcher.Match(context.Background(), MatchRequest{JobTitle: "Software Developer", Qualification: assessment.QualificationNQF7})

	if verdict.Strength != StrengthFull {
		t.Fatalf("expected full match, got %q", verdict.Strength)
	}
	if !verdict.QualificationMeetsMinimum || !verdict.Qualifies() {
		t.Fatalf("expected qualification to meet minimum: %+v", verdict)
	}
	if verdict.ReferenceCode != "2021-251201" || verdict.MinimumLevel != 7 {
		t.Fatalf("unexpected occupation fields: %+v", verdict)
	}
	if verdict.Confidence != 0.92 {
		t.Fatalf("expected confidence 0.92, got %v", verdict.Confidence)
	}
	if verdict.Degraded() {
		t.Fatalf("expected a successful verdict, got failure %q", verdict.Failure)
	}
	if verdict.Raw == "" {
		t.Fatalf("expected raw response to be kept")
	}
}

func TestMatchFullBelowMinimumDoesNotQualify(t *testing.T) {
	// The delegate claims the level is valid; the list says otherwise.
	stub := &stubGenerator{response: respond("FULL", "Physicist", "2021-211101", true)}
	matcher := NewLLMMatcher(stub, testList(t), zap.NewNop(), 0)

	verdict := matcher.Match(context.Background(), MatchRequest{JobTitle: "Physicist", Qualification: assessment.QualificationNQF8})

	if verdict.Strength != StrengthFull {
		t.Fatalf("expected full match, got %q", verdict.Strength)
	}
	if verdict.QualificationMeetsMinimum {
		t.Fatalf("expected qualification below minimum")
	}
	if verdict.Qualifies() {
		t.Fatalf("verdict must not place the applicant on the list")
	}
}

func TestMatchStrengthFollowsListNotDelegateLabel(t *testing.T) {
	for _, label := range []string{"FULL", "PARTIAL", "partial"} {
		t.Run(label, func(t *testing.T) {
			// isNQFValid is wrong on purpose: NQF 10 meets the Physicist minimum of 9.
			stub := &stubGenerator{response: respond(label, "Physicist", "2021-211101", false)}
			matcher := NewLLMMatcher(stub, testList(t), zap.NewNop(), 0)

			verdict := matcher.Match(context.Background(), MatchRequest{JobTitle: "Physicist", Qualification: assessment.QualificationNQF10})

			if verdict.Strength != StrengthFull || !verdict.QualificationMeetsMinimum || !verdict.Qualifies() {
				t.Fatalf("expected list entry to decide a qualifying full match, got %+v", verdict)
			}
			if verdict.MinimumLevel != 9 {
				t.Fatalf("expected minimum level 9, got %d", verdict.MinimumLevel)
			}
		})
	}
}

func TestMatchPartialLabelBelowMinimumDoesNotQualify(t *testing.T) {
	// The delegate claims the level is valid; NQF 7 is below the minimum of 9.
	stub := &stubGenerator{response: respond("PARTIAL", "Physicist", "2021-211101", true)}
	matcher := NewLLMMatcher(stub, testList(t), zap.NewNop(), 0)

	verdict := matcher.Match(context.Background(), MatchRequest{JobTitle: "Physicist", Qualification: assessment.QualificationNQF7})

	if verdict.Strength != StrengthFull || verdict.QualificationMeetsMinimum || verdict.Qualifies() {
		t.Fatalf("expected a full match below the minimum level, got %+v", verdict)
	}
}

func TestMatchNone(t *testing.T) {
	stub := &stubGenerator{response: `{"matchType": "NONE", "officialOccupation": "", "ofoCode": null, "confidence": "0.1", "reason": "", "isNQFValid": "false"}`}
	matcher := NewLLMMatcher(stub, testList(t), zap.NewNop(), 0)

	verdict := matcher.Match(context.Background(), MatchRequest{JobTitle: "Astronaut", Qualification: assessment.QualificationNQF9})

	if verdict.Strength != StrengthNone || verdict.Degraded() {
		t.Fatalf("unexpected none verdict: %+v", verdict)
	}
	if verdict.Confidence != 0.1 {
		t.Fatalf("expected string confidence to be coerced, got %v", verdict.Confidence)
	}
	if verdict.Explanation == "" {
		t.Fatalf("expected fallback explanation")
	}
}

func TestMatchHandlesWrappedJSON(t *testing.T) {
	raw := "Here is the result:\n```json\n" + respond("FULL", "Software Developer", "2021-251201", true) + "\n```\nLet me know {if} you need more."
	stub := &stubGenerator{response: raw}
	matcher := NewLLMMatcher(stub, testList(t), zap.NewNop(), 0)

	verdict := matcher.Match(context.Background(), MatchRequest{JobTitle: "Software Developer", Qualification: assessment.QualificationNQF9})

	if !verdict.Qualifies() {
		t.Fatalf("expected wrapped JSON to be parsed: %+v", verdict)
	}
}

func TestMatchDegradesOnFailures(t *testing.T) {
	cases := []struct {
		name     string
		stub     *stubGenerator
		expected Failure
	}{
		{
			name:     "network",
			stub:     &stubGenerator{err: errors.New("dial tcp: connection refused")},
			expected: FailureNetwork,
		},
		{
			name:     "wrapped transport",
			stub:     &stubGenerator{err: fmt.Errorf("%w: timeout", ErrTransport)},
			expected: FailureNetwork,
		},
		{
			name:     "configuration",
			stub:     &stubGenerator{err: fmt.Errorf("%w: api key rejected", ErrNotConfigured)},
			expected: FailureConfiguration,
		},
		{
			name:     "no json",
			stub:     &stubGenerator{response: "I cannot help with that."},
			expected: FailureMalformed,
		},
		{
			name:     "schema violation",
			stub:     &stubGenerator{response: `{"matchType": "FULL", "officialOccupation": "Software Developer", "ofoCode": "2021-251201"}`},
			expected: FailureMalformed,
		},
		{
			name:     "bad match type",
			stub:     &stubGenerator{response: respond("MAYBE", "Software Developer", "2021-251201", true)},
			expected: FailureMalformed,
		},
		{
			name:     "unknown code",
			stub:     &stubGenerator{response: respond("FULL", "Software Developer", "2021-999999", true)},
			expected: FailureMalformed,
		},
		{
			name:     "missing code",
			stub:     &stubGenerator{response: respond("FULL", "Software Developer", "", true)},
			expected: FailureMalformed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			matcher := NewLLMMatcher(tc.stub, testList(t), zap.NewNop(), 0)

			verdict := matcher.Match(context.Background(), MatchRequest{JobTitle: "Software Developer", Qualification: assessment.QualificationNQF10})

			if verdict.Strength != StrengthNone {
				t.Fatalf("expected none, got %q", verdict.Strength)
			}
			if verdict.Confidence != 0 {
				t.Fatalf("expected zero confidence, got %v", verdict.Confidence)
			}
			if verdict.Failure != tc.expected {
				t.Fatalf("expected failure %q, got %q", tc.expected, verdict.Failure)
			}
			if !strings.Contains(verdict.Explanation, string(tc.expected)) {
				t.Fatalf("expected explanation to name the failure: %q", verdict.Explanation)
			}
			if verdict.Qualifies() {
				t.Fatalf("degraded verdict must not qualify")
			}
		})
	}
}

func TestMatchEmptyTitleSkipsGenerator(t *testing.T) {
	stub := &stubGenerator{response: respond("FULL", "Software Developer", "2021-251201", true)}
	matcher := NewLLMMatcher(stub, testList(t), zap.NewNop(), 0)

	verdict := matcher.Match(context.Background(), MatchRequest{JobTitle: "   ", Qualification: assessment.QualificationNQF10})

	if stub.calls != 0 {
		t.Fatalf("expected generator not to be called, got %d calls", stub.calls)
	}
	if verdict.Failure != FailureInput || verdict.Strength != StrengthNone {
		t.Fatalf("unexpected verdict for empty title: %+v", verdict)
	}
}

func TestMatchWithoutGenerator(t *testing.T) {
	matcher := NewLLMMatcher(nil, testList(t), nil, 0)

	verdict := matcher.Match(context.Background(), MatchRequest{JobTitle: "Physicist"})
	if verdict.Failure != FailureConfiguration {
		t.Fatalf("expected configuration failure, got %q", verdict.Failure)
	}
}

func TestMatchPromptContents(t *testing.T) {
	stub := &stubGenerator{response: respond("NONE", "", "", false)}
	matcher := NewLLMMatcher(stub, testList(t), zap.NewNop(), 0)

	matcher.Match(context.Background(), MatchRequest{JobTitle: "  Senior \"Go\"\n Developer ", Qualification: assessment.QualificationNQF8})

	prompt := stub.lastPrompt
	for _, want := range []string{
		`Job title: "Senior 'Go' Developer"`,
		assessment.QualificationNQF8.Description(),
		"numeric NQF level: 8",
		"- 2021-251201: Software Developer (Min NQF 7)",
		"- 2021-211101: Physicist (Min NQF 9)",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}

	if strings.Contains(prompt, "{{") {
		t.Fatalf("prompt has unreplaced placeholders:\n%s", prompt)
	}
}

func TestMatchLogsDegradedVerdict(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	stub := &stubGenerator{err: errors.New("boom")}
	matcher := NewLLMMatcher(stub, testList(t), zap.New(core), 10)

	matcher.Match(context.Background(), MatchRequest{JobTitle: "Physicist", RequestID: "req-1"})

	warnings := observed.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}

	fields := warnings[0].ContextMap()
	if fields["request_id"] != "req-1" || fields["failure"] != "network" {
		t.Fatalf("unexpected warning fields: %+v", fields)
	}

	requests := observed.FilterMessage("generate content request").All()
	if len(requests) != 1 {
		t.Fatalf("expected request debug entry, got %d", len(requests))
	}
	preview, _ := requests[0].ContextMap()["prompt_preview"].(string)
	if !strings.HasSuffix(preview, "...") {
		t.Fatalf("expected truncated preview, got %q", preview)
	}
}

func TestUnconfigured(t *testing.T) {
	matcher := Unconfigured("GEMINI_API_KEY is not set")

	verdict := matcher.Match(context.Background(), MatchRequest{JobTitle: "Physicist"})
	if verdict.Failure != FailureConfiguration {
		t.Fatalf("expected configuration failure, got %q", verdict.Failure)
	}
	if !strings.Contains(verdict.Explanation, "GEMINI_API_KEY") {
		t.Fatalf("expected reason in explanation: %q", verdict.Explanation)
	}

	empty := matcher.Match(context.Background(), MatchRequest{})
	if empty.Failure != FailureInput {
		t.Fatalf("expected input failure for empty title, got %q", empty.Failure)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Failure
	}{
		{err: nil, want: FailureNone},
		{err: ErrEmptyJobTitle, want: FailureInput},
		{err: ErrNotConfigured, want: FailureConfiguration},
		{err: fmt.Errorf("x: %w", ErrNotConfigured), want: FailureConfiguration},
		{err: ErrMalformedResponse, want: FailureMalformed},
		{err: ErrTransport, want: FailureNetwork},
		{err: context.DeadlineExceeded, want: FailureNetwork},
	}

	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestDegradedVerdictFromNilError(t *testing.T) {
	verdict := DegradedVerdict(nil)
	if verdict.Failure != FailureNetwork || verdict.Explanation == "" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

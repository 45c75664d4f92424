package ai

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spigell/visa-assessor/internal/assessment"
	"github.com/spigell/visa-assessor/internal/occupations"
	"github.com/spigell/visa-assessor/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// LLMMatcher delegates matching to a language model and checks the answer
// against the reference list.
type LLMMatcher struct {
	generator Generator
	list      *occupations.List
	logger    *zap.Logger
	maxLogLen int
}

func NewLLMMatcher(generator Generator, list *occupations.List, logger *zap.Logger, maxLogLength int) *LLMMatcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LLMMatcher{
		generator: generator,
		list:      list,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (m *LLMMatcher) Match(ctx context.Context, req MatchRequest) Verdict {
	title := strings.TrimSpace(req.JobTitle)
	if title == "" {
		return EmptyTitleVerdict()
	}

	if m.generator == nil || m.list == nil {
		return m.degrade(req, fmt.Errorf("%w: no generator or occupation list", ErrNotConfigured), "")
	}

	prompt := buildPrompt(title, req.Qualification, m.list)

	m.logger.Debug("generate content request",
		zap.String("request_id", req.RequestID),
		zap.String("job_title", title),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, m.maxLogLen)),
	)

	raw, err := m.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return m.degrade(req, err, "")
	}

	m.logger.Debug("generate content response",
		zap.String("request_id", req.RequestID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
	)

	resp, err := parseResponse(raw)
	if err != nil {
		return m.degrade(req, err, raw)
	}

	verdict, err := m.resolve(resp, req)
	if err != nil {
		return m.degrade(req, err, raw)
	}

	verdict.Raw = raw
	return verdict
}

// resolve checks the delegate answer against the list. Once the code resolves,
// full and partial both mean the title matched; the minimum level comparison
// comes from the list entry alone.
func (m *LLMMatcher) resolve(resp *delegateResponse, req MatchRequest) (Verdict, error) {
	if resp.MatchType == StrengthNone {
		return Verdict{
			Strength:    StrengthNone,
			Confidence:  resp.Confidence,
			Explanation: explanationOr(resp.Reason, "No matching occupation on the critical skills list."),
		}, nil
	}

	code := strings.TrimSpace(resp.OfoCode)
	if code == "" {
		return Verdict{}, fmt.Errorf("%w: %s match without a reference code", ErrMalformedResponse, resp.MatchType)
	}

	entry, ok := m.list.Lookup(code)
	if !ok {
		return Verdict{}, fmt.Errorf("%w: reference code %q is not on the list", ErrMalformedResponse, code)
	}

	verdict := VerdictFor(entry, req.Qualification, resp.Confidence, resp.Reason)
	if resp.MatchType != verdict.Strength || resp.IsNQFValid != verdict.QualificationMeetsMinimum {
		m.logger.Debug("delegate qualification check overridden",
			zap.String("request_id", req.RequestID),
			zap.String("reference_code", entry.Code),
			zap.String("delegate_strength", string(resp.MatchType)),
			zap.String("local_strength", string(verdict.Strength)),
			zap.Bool("delegate", resp.IsNQFValid),
			zap.Bool("local", verdict.QualificationMeetsMinimum),
		)
	}

	return verdict, nil
}

func (m *LLMMatcher) degrade(req MatchRequest, err error, raw string) Verdict {
	verdict := DegradedVerdict(err)
	verdict.Raw = raw

	m.logger.Warn("occupation match degraded",
		zap.String("request_id", req.RequestID),
		zap.String("failure", string(verdict.Failure)),
		zap.Error(err),
	)

	return verdict
}

// VerdictFor builds the verdict for a title matched to entry. A title below the
// entry's minimum level is still a full match that does not meet the minimum.
func VerdictFor(entry occupations.Entry, q assessment.Qualification, confidence float64, reason string) Verdict {
	meets := entry.Accepts(q.Level())

	fallback := fmt.Sprintf("Matched %s (%s); minimum NQF level %d, applicant level %d.", entry.Name, entry.Code, entry.MinLevel, q.Level())

	return Verdict{
		Strength:                  StrengthFull,
		OccupationName:            entry.Name,
		ReferenceCode:             entry.Code,
		MinimumLevel:              entry.MinLevel,
		Confidence:                confidence,
		QualificationMeetsMinimum: meets,
		Explanation:               explanationOr(reason, fallback),
	}
}

func explanationOr(reason, fallback string) string {
	if reason = strings.TrimSpace(reason); reason != "" {
		return reason
	}
	return fallback
}

func buildPrompt(title string, q assessment.Qualification, list *occupations.List) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job title: {{JOB_TITLE}}\nQualification: {{QUALIFICATION}} ({{NQF_LEVEL}})\n\n{{OCCUPATIONS}}\n\nJSON Response:"
	}

	replacer := strings.NewReplacer(
		"{{JOB_TITLE}}", sanitizeTitle(title),
		"{{QUALIFICATION}}", q.Description(),
		"{{NQF_LEVEL}}", strconv.Itoa(q.Level()),
		"{{OCCUPATIONS}}", list.Summary(),
	)
	return replacer.Replace(template)
}

const maxTitleRunes = 120

// sanitizeTitle keeps the title on one line, without quotes, and bounded.
func sanitizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	title = strings.NewReplacer(`"`, "'", "{", "(", "}", ")").Replace(title)
	if utf8.RuneCountInString(title) > maxTitleRunes {
		title = string([]rune(title)[:maxTitleRunes])
	}
	return title
}

// Package offline provides a deterministic matcher that never leaves the process.
// It only recognises titles that name a listed occupation exactly.
package offline

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/visa-assessor/internal/ai"
	"github.com/spigell/visa-assessor/internal/occupations"
	"go.uber.org/zap"
)

// Seniority words are dropped before comparing titles.
var seniorityPrefixes = []string{"senior", "junior", "lead", "principal", "chief", "graduate", "trainee"}

type Matcher struct {
	list   *occupations.List
	logger *zap.Logger
}

func NewMatcher(list *occupations.List, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{list: list, logger: logger}
}

func (m *Matcher) Match(_ context.Context, req ai.MatchRequest) ai.Verdict {
	title := strings.TrimSpace(req.JobTitle)
	if title == "" {
		return ai.EmptyTitleVerdict()
	}
	if m.list == nil {
		return ai.DegradedVerdict(fmt.Errorf("%w: occupation list is not loaded", ai.ErrNotConfigured))
	}

	found := m.list.FindByName(title)
	if len(found) == 0 {
		if stripped := stripSeniority(title); stripped != "" {
			found = m.list.FindByName(stripped)
		}
	}

	m.logger.Debug("offline occupation lookup",
		zap.String("request_id", req.RequestID),
		zap.String("job_title", title),
		zap.Int("candidates", len(found)),
	)

	switch len(found) {
	case 0:
		return ai.Verdict{
			Strength:    ai.StrengthNone,
			Explanation: fmt.Sprintf("%q does not name an occupation on the critical skills list.", title),
		}
	case 1:
		entry := found[0]
		return ai.VerdictFor(entry, req.Qualification, 1, "")
	default:
		return ai.Verdict{
			Strength:    ai.StrengthNone,
			Explanation: fmt.Sprintf("%q matches %d occupations on the critical skills list.", title, len(found)),
		}
	}
}

func stripSeniority(title string) string {
	words := strings.Fields(occupations.Normalize(title))
	for len(words) > 1 && isSeniority(words[0]) {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

func isSeniority(word string) bool {
	for _, prefix := range seniorityPrefixes {
		if word == prefix {
			return true
		}
	}
	return false
}

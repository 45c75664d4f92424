package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/visa-assessor/internal/ai"
	"github.com/spigell/visa-assessor/internal/ai/anthropic"
	"github.com/spigell/visa-assessor/internal/ai/gemini"
	"github.com/spigell/visa-assessor/internal/ai/offline"
	"github.com/spigell/visa-assessor/internal/ai/openai"
	"github.com/spigell/visa-assessor/internal/logger"
	"github.com/spigell/visa-assessor/internal/occupations"
	"github.com/spigell/visa-assessor/internal/secrets"
	"github.com/spigell/visa-assessor/internal/utils"

	"go.uber.org/zap"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOffline   = "offline"
)

// newOccupationMatcher never fails: a provider that cannot be set up yields a
// matcher whose every verdict is a configuration failure, so scoring still works.
func newOccupationMatcher(ctx context.Context, cfg *AIConfig, list *occupations.List, log *zap.Logger) ai.OccupationMatcher {
	if cfg == nil {
		cfg = &AIConfig{}
	}

	provider := strings.ToLower(utils.FirstNonEmpty(cfg.Provider, ProviderGemini))

	if provider == ProviderOffline {
		log.Info("using offline occupation matcher", zap.String(logger.FieldProvider, provider))
		return offline.NewMatcher(list, log)
	}

	generator, err := newGenerator(ctx, provider, cfg)
	if err != nil {
		log.Warn("occupation verification is unavailable",
			zap.String(logger.FieldProvider, provider),
			zap.Error(err),
		)
		return ai.Unconfigured(err.Error())
	}

	matcherLogger := logger.WithCommonFields(log, provider, generator.Model())

	return ai.NewLLMMatcher(generator, list, matcherLogger, cfg.MaxLogLength)
}

func newGenerator(ctx context.Context, provider string, cfg *AIConfig) (ai.Generator, error) {
	var (
		pc  *ProviderConfig
		env string
	)

	switch provider {
	case ProviderGemini:
		pc, env = cfg.Gemini, "GEMINI_API_KEY"
	case ProviderAnthropic:
		pc, env = cfg.Anthropic, "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		pc, env = cfg.OpenAI, "OPENAI_API_KEY"
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", provider)
	}

	if pc == nil {
		pc = &ProviderConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  provider + " api key",
		Value: pc.APIKey,
		Env:   env,
		File:  pc.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	switch provider {
	case ProviderAnthropic:
		return anthropic.NewGenerator(apiKey, pc.Model)
	case ProviderOpenAI:
		return openai.NewGenerator(apiKey, pc.Model)
	default:
		return gemini.NewGenerator(ctx, apiKey, pc.Model)
	}
}

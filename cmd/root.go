package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/visa-assessor/internal/report"
)

const (
	app = "visa-assessor"
)

type Config struct {
	AI              *AIConfig   `mapstructure:"ai"`
	OccupationsFile string      `mapstructure:"occupations-file"`
	Fees            report.Fees `mapstructure:"fees"`
}

type AIConfig struct {
	Provider     string          `mapstructure:"provider"`
	MaxLogLength int             `mapstructure:"max-log-length"`
	Gemini       *ProviderConfig `mapstructure:"gemini"`
	Anthropic    *ProviderConfig `mapstructure:"anthropic"`
	OpenAI       *ProviderConfig `mapstructure:"openai"`
}

type ProviderConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "visa-assessor scores a South African work visa profile and checks the critical skills list",
	}
)

// Execute executes the root command. Ctrl+C cancels a running verification.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	envBindings := map[string]string{
		"ai.provider":               "VISA_ASSESSOR_AI_PROVIDER",
		"ai.gemini.api-key-file":    "GEMINI_API_KEY_FILE",
		"ai.anthropic.api-key-file": "ANTHROPIC_API_KEY_FILE",
		"ai.openai.api-key-file":    "OPENAI_API_KEY_FILE",
		"occupations-file":          "VISA_ASSESSOR_OCCUPATIONS_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is visa-assessor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	fees := report.DefaultFees()

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("fees.general.facilitation", fees.General.Facilitation)
	v.SetDefault("fees.general.disbursement", fees.General.Disbursement)
	v.SetDefault("fees.general.disbursement-estimated", fees.General.DisbursementEstimated)
	v.SetDefault("fees.critical.facilitation", fees.Critical.Facilitation)
	v.SetDefault("fees.critical.disbursement", fees.Critical.Disbursement)
	v.SetDefault("fees.critical.disbursement-estimated", fees.Critical.DisbursementEstimated)
}

func initConfig() {
	// A missing .env is fine; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Everything has defaults, so only an explicit or unparseable config is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}

	return config, nil
}

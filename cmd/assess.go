package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spigell/visa-assessor/internal/assessment"
	"github.com/spigell/visa-assessor/internal/logger"
	"github.com/spigell/visa-assessor/internal/occupations"
	"github.com/spigell/visa-assessor/internal/report"
	"github.com/spigell/visa-assessor/internal/session"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes          = "Yes"
	PromptNo           = "No"
	PromptVerify       = "Verify job title against the critical skills list"
	PromptEditProfile  = "Edit profile"
	PromptShowReport   = "Show report"
	PromptSaveReport   = "Save report to file"
	PromptExit         = "Exit"
	outputText         = "text"
	outputJSON         = "json"
	autoReportFileName = "auto"
)

var errExit = errors.New("exit requested")

var actionPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptVerify, PromptEditProfile, PromptShowReport, PromptSaveReport, PromptExit},
}

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score a profile, verify the occupation and print the assessment report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return assess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().String("name", "", "applicant full name")
	assessCmd.Flags().String("job-title", "", "job title to verify against the critical skills list")
	assessCmd.Flags().String("nqf", string(assessment.QualificationNQF7), "highest qualification: 6..10 or other")
	assessCmd.Flags().String("salary", string(assessment.SalaryBelow650k), "annual salary band: below_650, 650_976 or above_976")
	assessCmd.Flags().String("experience", string(assessment.ExperienceUnder5), "years of experience: 0-5, 5-10 or 10+")
	assessCmd.Flags().Bool("trusted-employer", false, "employer is a trusted employer")
	assessCmd.Flags().Bool("language-proficient", false, "proficient in an official language")
	assessCmd.Flags().Bool("job-offer", false, "holds a job offer in South Africa")
	assessCmd.Flags().Bool("saqa", false, "SAQA evaluation already submitted")
	assessCmd.Flags().Bool("verify", true, "verify the job title before building the report")
	assessCmd.Flags().BoolP("interactive", "i", false, "fill in the profile with prompts")
	assessCmd.Flags().StringP("output", "o", outputText, "report format: text or json")
	assessCmd.Flags().String("report-file", "", "write the report to this file instead of stdout ('auto' picks a name); in interactive mode the save action writes here")

	viper.BindPFlag("output", assessCmd.Flags().Lookup("output"))
}

func assess(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting the visa-assessor", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	format := strings.ToLower(viper.GetString("output"))
	if format != outputText && format != outputJSON {
		return fmt.Errorf("unsupported output format: %s", format)
	}

	changes, err := profileFromFlags(cmd)
	if err != nil {
		return err
	}

	list, err := occupations.Load(config.OccupationsFile)
	if err != nil {
		logger.Fatal("loading the critical skills list", zap.Error(err), zap.String("file", config.OccupationsFile))
	}
	logger.Debug("critical skills list loaded", zap.Int("count", list.Len()), zap.String("source", list.Source()))

	matcher := newOccupationMatcher(ctx, config.AI, list, logger)
	sess := session.New(matcher, logger)
	sess.Update(changes...)

	reportFile, _ := cmd.Flags().GetString("report-file")

	interactive, _ := cmd.Flags().GetBool("interactive")
	if interactive {
		return interact(ctx, sess, config, format, savePath(reportFile), logger)
	}

	if verify, _ := cmd.Flags().GetBool("verify"); verify {
		verifyOccupation(ctx, sess, logger)
	}

	return writeReport(sess.View(), config.Fees, format, reportFile, logger)
}

func profileFromFlags(cmd *cobra.Command) ([]assessment.Change, error) {
	flags := cmd.Flags()

	name, _ := flags.GetString("name")
	title, _ := flags.GetString("job-title")
	nqf, _ := flags.GetString("nqf")
	salary, _ := flags.GetString("salary")
	experience, _ := flags.GetString("experience")
	trusted, _ := flags.GetBool("trusted-employer")
	language, _ := flags.GetBool("language-proficient")
	offer, _ := flags.GetBool("job-offer")
	saqa, _ := flags.GetBool("saqa")

	q, err := assessment.ParseQualification(nqf)
	if err != nil {
		return nil, err
	}
	s, err := assessment.ParseSalary(salary)
	if err != nil {
		return nil, err
	}
	e, err := assessment.ParseExperience(experience)
	if err != nil {
		return nil, err
	}

	return []assessment.Change{
		assessment.WithFullName(name),
		assessment.WithJobTitle(title),
		assessment.WithQualification(q),
		assessment.WithSalary(s),
		assessment.WithExperience(e),
		assessment.WithTrustedEmployer(trusted),
		assessment.WithLanguageProficient(language),
		assessment.WithJobOffer(offer),
		assessment.WithSAQASubmission(saqa),
	}, nil
}

// verifyOccupation runs one verification. Every failure is already folded into
// the session view, so errors are only logged.
func verifyOccupation(ctx context.Context, sess *session.Session, logger *zap.Logger) {
	view, err := sess.Verify(ctx)
	switch {
	case errors.Is(err, session.ErrEmptyJobTitle):
		logger.Warn("skipping occupation verification", zap.String("reason", "job title is empty"))
	case err != nil:
		logger.Warn("occupation verification did not finish", zap.Error(err))
	default:
		logger.Info("assessment updated",
			zap.String("match_state", string(view.MatchState)),
			zap.Bool("on_critical_skills_list", view.Profile.OnCriticalSkillsList),
			zap.Int("total_score", view.Score.Total),
		)
	}
}

// interact drives the prompt loop. Saving writes to reportFile.
func interact(ctx context.Context, sess *session.Session, config *Config, format, reportFile string, logger *zap.Logger) error {
	if err := editProfile(sess); err != nil {
		return err
	}

	for {
		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		if err := handleAction(ctx, action, sess, config, format, reportFile, logger); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

func handleAction(ctx context.Context, action string, sess *session.Session, config *Config, format, reportFile string, logger *zap.Logger) error {
	switch action {
	case PromptVerify:
		verifyOccupation(ctx, sess, logger)
		return nil
	case PromptEditProfile:
		return editProfile(sess)
	case PromptShowReport:
		return writeReport(sess.View(), config.Fees, format, "", logger)
	case PromptSaveReport:
		return writeReport(sess.View(), config.Fees, format, reportFile, logger)
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// editProfile asks for every field, offering the current values as defaults.
func editProfile(sess *session.Session) error {
	current := sess.View().Profile

	name, err := (&promptui.Prompt{Label: "Full name", Default: current.FullName, AllowEdit: true}).Run()
	if err != nil {
		return err
	}
	title, err := (&promptui.Prompt{Label: "Job title", Default: current.JobTitle, AllowEdit: true}).Run()
	if err != nil {
		return err
	}

	qualifications := assessment.Qualifications()
	q, err := selectOne("Highest qualification", qualifications, current.Qualification, assessment.Qualification.Description)
	if err != nil {
		return err
	}
	s, err := selectOne("Annual salary", assessment.SalaryRanges(), current.Salary, assessment.SalaryRange.Label)
	if err != nil {
		return err
	}
	e, err := selectOne("Years of experience", assessment.Experiences(), current.Experience, assessment.Experience.Label)
	if err != nil {
		return err
	}

	trusted, err := confirm("Trusted employer?", current.TrustedEmployer)
	if err != nil {
		return err
	}
	language, err := confirm("Proficient in an official language?", current.LanguageProficient)
	if err != nil {
		return err
	}
	offer, err := confirm("Job offer in South Africa?", current.JobOffer)
	if err != nil {
		return err
	}
	saqa, err := confirm("SAQA evaluation submitted?", current.SAQASubmission)
	if err != nil {
		return err
	}

	sess.Update(
		assessment.WithFullName(strings.TrimSpace(name)),
		assessment.WithJobTitle(strings.TrimSpace(title)),
		assessment.WithQualification(q),
		assessment.WithSalary(s),
		assessment.WithExperience(e),
		assessment.WithTrustedEmployer(trusted),
		assessment.WithLanguageProficient(language),
		assessment.WithJobOffer(offer),
		assessment.WithSAQASubmission(saqa),
	)

	return nil
}

func selectOne[T comparable](label string, items []T, current T, describe func(T) string) (T, error) {
	labels := make([]string, 0, len(items))
	cursor := 0
	for i, item := range items {
		labels = append(labels, describe(item))
		if item == current {
			cursor = i
		}
	}

	idx, _, err := (&promptui.Select{Label: label, Items: labels, CursorPos: cursor}).Run()
	if err != nil {
		var zero T
		return zero, err
	}
	return items[idx], nil
}

func confirm(label string, current bool) (bool, error) {
	cursor := 1
	if current {
		cursor = 0
	}

	_, answer, err := (&promptui.Select{Label: label, Items: []string{PromptYes, PromptNo}, CursorPos: cursor}).Run()
	if err != nil {
		return false, err
	}
	return answer == PromptYes, nil
}

// savePath is where the interactive "save" action writes. Stdout makes no
// sense there, so an unset or "-" report file falls back to an automatic name.
func savePath(reportFile string) string {
	if reportFile == "" || reportFile == "-" {
		return autoReportFileName
	}
	return reportFile
}

func writeReport(view session.View, fees report.Fees, format, path string, logger *zap.Logger) error {
	r := report.Build(view, fees, time.Now())

	if path == "" || path == "-" {
		return renderReport(os.Stdout, r, format)
	}

	if path == autoReportFileName {
		path = report.FileName(view.Profile.FullName, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	if err := renderReport(f, r, format); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}

	logger.Info("report saved", zap.String("filename", path), zap.String("reference", r.Reference))
	return nil
}

func renderReport(w io.Writer, r report.Report, format string) error {
	if format == outputJSON {
		return report.WriteJSON(w, r)
	}
	return report.WriteText(w, r)
}

// redacted copies the config with inline api keys masked for debug output.
func redacted(config *Config) *Config {
	if config == nil {
		return nil
	}

	c := *config
	if config.AI != nil {
		ai := *config.AI
		ai.Gemini = redactProvider(ai.Gemini)
		ai.Anthropic = redactProvider(ai.Anthropic)
		ai.OpenAI = redactProvider(ai.OpenAI)
		c.AI = &ai
	}
	return &c
}

func redactProvider(pc *ProviderConfig) *ProviderConfig {
	if pc == nil {
		return nil
	}
	p := *pc
	if p.APIKey != "" {
		p.APIKey = "***"
	}
	return &p
}

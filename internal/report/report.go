// Package report turns a session view into an assessment report.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/visa-assessor/internal/ai"
	"github.com/spigell/visa-assessor/internal/assessment"
	"github.com/spigell/visa-assessor/internal/session"
)

const (
	OutcomeQualified   = "POTENTIALLY QUALIFIED"
	OutcomeUnqualified = "UNQUALIFIED AT THIS STAGE"

	Disclaimer = "Disclaimer: Preliminary assessment based on current regulations. Final adjudication remains with the Department of Home Affairs."
)

var newReference = uuid.NewString

type Report struct {
	Reference  string    `json:"reference"`
	Date       time.Time `json:"date"`
	Applicant  string    `json:"applicant"`
	Greeting   string    `json:"greeting"`
	Qualified  bool      `json:"potentiallyQualified"`
	Outcome    string    `json:"outcome"`
	JobOffer   bool      `json:"jobOffer"`
	SAQA       bool      `json:"saqaSubmission"`
	Disclaimer string    `json:"disclaimer"`

	Breakdown       []assessment.LineItem `json:"breakdown"`
	ListIndependent int                   `json:"listIndependentScore"`
	Total           int                   `json:"totalScore"`
	MinimumPoints   int                   `json:"minimumPoints"`

	Match   *Match   `json:"match,omitempty"`
	Options []Option `json:"options,omitempty"`
	Notes   []string `json:"notes,omitempty"`
}

// Match summarises the occupation verification.
type Match struct {
	Strength      ai.Strength `json:"strength"`
	Occupation    string      `json:"occupation,omitempty"`
	ReferenceCode string      `json:"referenceCode,omitempty"`
	MinimumLevel  int         `json:"minimumLevel,omitempty"`
	MeetsMinimum  bool        `json:"qualificationMeetsMinimum"`
	Insight       string      `json:"insight"`
	Failed        bool        `json:"failed"`
}

// Option is one visa category the applicant potentially qualifies for.
type Option struct {
	Category  assessment.Category `json:"category"`
	Title     string              `json:"title"`
	Summary   string              `json:"summary"`
	Documents []string            `json:"documents"`
	Pros      string              `json:"pros"`
	Cons      string              `json:"cons"`
	Fee       Fee                 `json:"fee"`
}

// Build assembles the report. Categories are listed critical skills first.
func Build(view session.View, fees Fees, now time.Time) Report {
	applicant := strings.TrimSpace(view.Profile.FullName)
	if applicant == "" {
		applicant = "Valued Client"
	}
	greeting := view.Profile.FirstName()
	if greeting == "" {
		greeting = applicant
	}

	r := Report{
		Reference:       newReference(),
		Date:            now,
		Applicant:       applicant,
		Greeting:        greeting,
		Qualified:       view.MeetsRequirements,
		Outcome:         OutcomeUnqualified,
		JobOffer:        view.Profile.JobOffer,
		SAQA:            view.Profile.SAQASubmission,
		Disclaimer:      Disclaimer,
		Breakdown:       view.Score.Breakdown,
		ListIndependent: view.Score.ListIndependent,
		Total:           view.Score.Total,
		MinimumPoints:   assessment.MinimumPoints,
	}
	if r.Qualified {
		r.Outcome = OutcomeQualified
	}

	if v := view.Verdict; v != nil {
		r.Match = &Match{
			Strength:      v.Strength,
			Occupation:    v.OccupationName,
			ReferenceCode: v.ReferenceCode,
			MinimumLevel:  v.MinimumLevel,
			MeetsMinimum:  v.QualificationMeetsMinimum,
			Insight:       v.Explanation,
			Failed:        v.Degraded(),
		}
	}

	for _, category := range view.Eligibility.Categories() {
		r.Options = append(r.Options, option(category, fees.For(category)))
	}

	if !r.Qualified {
		r.Notes = notes(view)
	}

	return r
}

func option(category assessment.Category, fee Fee) Option {
	if category == assessment.CategoryCriticalSkills {
		return Option{
			Category: category,
			Title:    category.Title(),
			Summary:  "You potentially qualify for a Critical Skills Work Visa based on your occupation match and job offer.",
			Documents: []string{
				"A certified copy of your passport title page and current visa",
				"Company support letter",
				"Updated Curriculum Vitae and employment contract",
				"SAQA Certificate of Evaluation",
				"Proof of registration with the relevant professional body",
			},
			Pros: "Immediate eligibility for a Permanent Residence application upon visa issuance.",
			Cons: "Mandatory professional body registration and SAQA verification required.",
			Fee:  fee,
		}
	}

	return Option{
		Category: category,
		Title:    category.Title(),
		Summary:  "You potentially qualify for a General Work Visa based on the points-based system.",
		Documents: []string{
			"A certified copy of your passport title page and current visa",
			"A letter issued by the company in support of the application",
			"An updated Curriculum Vitae",
			"A copy of the signed employment contract",
		},
		Pros: "Does not require professional body registration.",
		Cons: "5-year wait period for Permanent Residence eligibility.",
		Fee:  fee,
	}
}

// notes explain what is missing when no category is met.
func notes(view session.View) []string {
	var out []string

	if !view.Profile.JobOffer {
		out = append(out, "A verified job offer is required for both visa categories.")
	}

	if view.PointsGap > 0 {
		out = append(out, fmt.Sprintf("The General Work Visa needs %d more points (currently %d of %d).",
			view.PointsGap, view.Score.ListIndependent, assessment.MinimumPoints))
	}

	v := view.Verdict
	switch {
	case v == nil:
		out = append(out, "The job title has not been verified against the critical skills list.")
	case v.Degraded():
		out = append(out, "Occupation verification did not complete: "+v.Explanation)
	case v.Strength == ai.StrengthNone:
		out = append(out, "The job title did not match an occupation on the critical skills list.")
	case !v.QualificationMeetsMinimum:
		out = append(out, fmt.Sprintf("%s requires at least NQF level %d; your qualification is %s.",
			v.OccupationName, v.MinimumLevel, view.Profile.Qualification.Label()))
	}

	return out
}

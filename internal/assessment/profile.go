package assessment

import "strings"

// Profile holds the applicant attributes scored by the rubric.
//
// OnCriticalSkillsList is derived from the last occupation verdict and is
// overwritten by the session on every recompute; changes never set it.
type Profile struct {
	FullName           string        `json:"fullName"`
	JobTitle           string        `json:"jobTitle"`
	Qualification      Qualification `json:"qualification"`
	Salary             SalaryRange   `json:"salary"`
	Experience         Experience    `json:"experience"`
	TrustedEmployer    bool          `json:"trustedEmployer"`
	LanguageProficient bool          `json:"languageProficient"`
	JobOffer           bool          `json:"jobOffer"`
	SAQASubmission     bool          `json:"saqaSubmission"`

	OnCriticalSkillsList bool `json:"onCriticalSkillsList"`
}

// DefaultProfile returns the profile a new session starts with.
func DefaultProfile() Profile {
	return Profile{
		Qualification: QualificationNQF7,
		Salary:        SalaryBelow650k,
		Experience:    ExperienceUnder5,
	}
}

// FirstName returns the first word of the full name, used in report greetings.
func (p Profile) FirstName() string {
	fields := strings.Fields(p.FullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Change mutates a single profile field.
type Change func(*Profile)

func WithFullName(name string) Change {
	return func(p *Profile) { p.FullName = name }
}

func WithJobTitle(title string) Change {
	return func(p *Profile) { p.JobTitle = title }
}

func WithQualification(q Qualification) Change {
	return func(p *Profile) { p.Qualification = q }
}

func WithSalary(s SalaryRange) Change {
	return func(p *Profile) { p.Salary = s }
}

func WithExperience(e Experience) Change {
	return func(p *Profile) { p.Experience = e }
}

func WithTrustedEmployer(v bool) Change {
	return func(p *Profile) { p.TrustedEmployer = v }
}

func WithLanguageProficient(v bool) Change {
	return func(p *Profile) { p.LanguageProficient = v }
}

func WithJobOffer(v bool) Change {
	return func(p *Profile) { p.JobOffer = v }
}

func WithSAQASubmission(v bool) Change {
	return func(p *Profile) { p.SAQASubmission = v }
}

package assessment

import (
	"fmt"
	"strings"
)

// Qualification is an NQF tier. The numeric tiers 6..10 plus "other" are the
// canonical scheme; "other" covers everything below NQF 6.
type Qualification string

const (
	QualificationOther Qualification = "other"
	QualificationNQF6  Qualification = "6"
	QualificationNQF7  Qualification = "7"
	QualificationNQF8  Qualification = "8"
	QualificationNQF9  Qualification = "9"
	QualificationNQF10 Qualification = "10"
)

type SalaryRange string

const (
	SalaryBelow650k       SalaryRange = "below_650"
	SalaryBetween650k976k SalaryRange = "650_976"
	SalaryAbove976k       SalaryRange = "above_976"
)

type Experience string

const (
	ExperienceUnder5 Experience = "0-5"
	Experience5To10  Experience = "5-10"
	ExperienceOver10 Experience = "10+"
)

const (
	// MinimumPoints is the general work visa threshold on the list-independent score.
	MinimumPoints = 100

	CriticalSkillsListBonus  = 100
	TrustedEmployerBonus     = 30
	LanguageProficiencyBonus = 10
)

type qualificationInfo struct {
	points      int
	level       int
	label       string
	description string
}

//nolint:gochecknoglobals // rubric table
var qualificationRubric = map[Qualification]qualificationInfo{
	QualificationNQF10: {points: 50, level: 10, label: "NQF Level 10", description: "NQF Level 10 (Doctoral Degree)"},
	QualificationNQF9:  {points: 50, level: 9, label: "NQF Level 9", description: "NQF Level 9 (Master's Degree)"},
	QualificationNQF8:  {points: 30, level: 8, label: "NQF Level 8", description: "NQF Level 8 (Honours Degree / Post Grad Diploma)"},
	QualificationNQF7:  {points: 30, level: 7, label: "NQF Level 7", description: "NQF Level 7 (Bachelor's Degree / Advanced Diploma)"},
	QualificationNQF6:  {points: 0, level: 6, label: "NQF Level 6", description: "NQF Level 6 (Diploma / National Higher Certificate)"},
	QualificationOther: {points: 0, level: 0, label: "Other / Below NQF 6", description: "Below NQF Level 6"},
}

type tierInfo struct {
	points int
	label  string
}

//nolint:gochecknoglobals // rubric table
var salaryRubric = map[SalaryRange]tierInfo{
	SalaryAbove976k:       {points: 50, label: "Above R976k"},
	SalaryBetween650k976k: {points: 20, label: "R650k - R976k"},
	SalaryBelow650k:       {points: 0, label: "Below R650,976"},
}

//nolint:gochecknoglobals // rubric table
var experienceRubric = map[Experience]tierInfo{
	ExperienceOver10: {points: 30, label: "10+ Years"},
	Experience5To10:  {points: 20, label: "5 - 10 Years"},
	ExperienceUnder5: {points: 0, label: "0 - 5 Years"},
}

// Qualifications lists the tiers in ascending order.
func Qualifications() []Qualification {
	return []Qualification{
		QualificationOther,
		QualificationNQF6,
		QualificationNQF7,
		QualificationNQF8,
		QualificationNQF9,
		QualificationNQF10,
	}
}

func SalaryRanges() []SalaryRange {
	return []SalaryRange{SalaryBelow650k, SalaryBetween650k976k, SalaryAbove976k}
}

func Experiences() []Experience {
	return []Experience{ExperienceUnder5, Experience5To10, ExperienceOver10}
}

// Points returns the rubric value; unknown tiers score zero.
func (q Qualification) Points() int { return qualificationRubric[q].points }

// Level returns the numeric NQF level, 0 for "other" and unknown values.
func (q Qualification) Level() int { return qualificationRubric[q].level }

func (q Qualification) Label() string {
	if info, ok := qualificationRubric[q]; ok {
		return info.label
	}
	return string(q)
}

// Description is the wording used when describing the tier to a matcher.
func (q Qualification) Description() string {
	if info, ok := qualificationRubric[q]; ok {
		return info.description
	}
	return qualificationRubric[QualificationOther].description
}

func (s SalaryRange) Points() int { return salaryRubric[s].points }

func (s SalaryRange) Label() string {
	if info, ok := salaryRubric[s]; ok {
		return info.label
	}
	return string(s)
}

func (e Experience) Points() int { return experienceRubric[e].points }

func (e Experience) Label() string {
	if info, ok := experienceRubric[e]; ok {
		return info.label
	}
	return string(e)
}

// ParseQualification accepts the wire value ("7", "other"), an "nqf" prefixed
// form ("NQF7") or "below".
func ParseQualification(s string) (Qualification, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "nqf")
	v = strings.TrimSpace(strings.TrimPrefix(v, "-"))
	if v == "below" || v == "none" {
		v = string(QualificationOther)
	}
	q := Qualification(v)
	if _, ok := qualificationRubric[q]; !ok {
		return "", fmt.Errorf("unknown qualification %q", s)
	}
	return q, nil
}

func ParseSalary(s string) (SalaryRange, error) {
	v := SalaryRange(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := salaryRubric[v]; !ok {
		return "", fmt.Errorf("unknown salary range %q", s)
	}
	return v, nil
}

func ParseExperience(s string) (Experience, error) {
	v := Experience(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := experienceRubric[v]; !ok {
		return "", fmt.Errorf("unknown experience range %q", s)
	}
	return v, nil
}

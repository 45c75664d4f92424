package assessment

// Category is a visa category the applicant may potentially qualify for.
type Category string

const (
	CategoryCriticalSkills Category = "critical_skills_work_visa"
	CategoryGeneral        Category = "general_work_visa"
)

func (c Category) Title() string {
	switch c {
	case CategoryCriticalSkills:
		return "Critical Skills Work Visa"
	case CategoryGeneral:
		return "General Work Visa"
	default:
		return string(c)
	}
}

// Eligibility holds the two independent category flags.
type Eligibility struct {
	CriticalSkills bool `json:"criticalSkillsVisaEligible"`
	General        bool `json:"generalWorkVisaEligible"`
}

// Evaluate decides category membership. A verified job offer gates both
// categories; the general category uses the list-independent score only.
func Evaluate(p Profile, listIndependent int) Eligibility {
	return Eligibility{
		CriticalSkills: p.OnCriticalSkillsList && p.JobOffer,
		General:        listIndependent >= MinimumPoints && p.JobOffer,
	}
}

func (e Eligibility) MeetsRequirements() bool {
	return e.CriticalSkills || e.General
}

// Categories returns the qualifying categories, critical skills first.
func (e Eligibility) Categories() []Category {
	categories := make([]Category, 0, 2)
	if e.CriticalSkills {
		categories = append(categories, CategoryCriticalSkills)
	}
	if e.General {
		categories = append(categories, CategoryGeneral)
	}
	return categories
}

// PointsGap is how many list-independent points are missing for the general category.
func PointsGap(listIndependent int) int {
	if listIndependent >= MinimumPoints {
		return 0
	}
	return MinimumPoints - listIndependent
}

package assessment

// Score is the output of the points engine.
type Score struct {
	// ListIndependent never includes the critical skills list bonus.
	ListIndependent int        `json:"listIndependentScore"`
	Total           int        `json:"totalScore"`
	Breakdown       []LineItem `json:"breakdown"`
}

// LineItem is one scored row of the breakdown.
type LineItem struct {
	Factor string `json:"factor"`
	Value  string `json:"value"`
	Points int    `json:"points"`
}

// ComputeScore applies the rubric to the profile. It is total: unknown tiers
// contribute zero points.
func ComputeScore(p Profile) Score {
	items := []LineItem{
		{Factor: "Qualification", Value: p.Qualification.Label(), Points: p.Qualification.Points()},
		{Factor: "Salary", Value: p.Salary.Label(), Points: p.Salary.Points()},
		{Factor: "Experience", Value: p.Experience.Label(), Points: p.Experience.Points()},
	}
	if p.TrustedEmployer {
		items = append(items, LineItem{Factor: "Offer from Trusted Employer", Value: "Yes", Points: TrustedEmployerBonus})
	}
	if p.LanguageProficient {
		items = append(items, LineItem{Factor: "Language Proficiency", Value: "Yes", Points: LanguageProficiencyBonus})
	}

	listIndependent := 0
	for _, item := range items {
		listIndependent += item.Points
	}

	total := listIndependent
	if p.OnCriticalSkillsList {
		total += CriticalSkillsListBonus
		items = append(items, LineItem{Factor: "Critical Skills List", Value: "Yes", Points: CriticalSkillsListBonus})
	}

	return Score{
		ListIndependent: listIndependent,
		Total:           total,
		Breakdown:       items,
	}
}

package objects

import "time"

// CaseloadReport is the aggregate view assembled from cached students,
// interactions and categories. It is cached like any other entity and
// invalidated whenever one of its inputs changes.
type CaseloadReport struct {
	GeneratedAt            time.Time      `json:"generatedAt"`
	TotalStudents          int            `json:"totalStudents"`
	TotalInteractions      int            `json:"totalInteractions"`
	StudentsByGrade        map[string]int `json:"studentsByGrade"`
	InteractionsByCategory map[string]int `json:"interactionsByCategory"`
	Periods                []PeriodCount  `json:"periods,omitempty"`
}

// PeriodCount is the interaction volume of one calendar period.
type PeriodCount struct {
	Label        string    `json:"label"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Interactions int       `json:"interactions"`
}

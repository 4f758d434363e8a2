package biz

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/pkg/xtime"
)

type ReportServiceParams struct {
	fx.In

	Engine       *Engine
	Students     *StudentService
	Interactions *InteractionService
	Categories   *CategoryService
}

// ReportService assembles the caseload summary from the cached entity lists
// and caches the result like any other read. It registers no mutation rules:
// reports are derived, never written.
type ReportService struct {
	engine       *Engine
	students     *StudentService
	interactions *InteractionService
	categories   *CategoryService

	// location anchors the calendar buckets. Defaults to the local zone.
	location *time.Location
}

func NewReportService(params ReportServiceParams) *ReportService {
	return &ReportService{
		engine:       params.Engine,
		students:     params.Students,
		interactions: params.Interactions,
		categories:   params.Categories,
		location:     time.Local,
	}
}

// CaseloadSummary returns the cached summary, computing it when a student,
// interaction or category mutation has invalidated it.
func (svc *ReportService) CaseloadSummary(ctx context.Context) (*objects.CaseloadReport, error) {
	value, err := svc.engine.Fetcher.Fetch(ctx, CaseloadReportKey(), func(ctx context.Context) (any, error) {
		return svc.build(ctx)
	})
	if err != nil {
		return nil, err
	}

	report, ok := value.(*objects.CaseloadReport)
	if !ok || report == nil {
		return nil, backend.Programming("cache key %q holds %T, want %T", CaseloadReportKey().String(), value, report)
	}

	return report, nil
}

func (svc *ReportService) build(ctx context.Context) (*objects.CaseloadReport, error) {
	students, err := svc.students.ListStudents(ctx, StudentFilter{})
	if err != nil {
		return nil, err
	}

	interactions, err := svc.interactions.ListInteractions(ctx, InteractionFilter{})
	if err != nil {
		return nil, err
	}

	categories, err := svc.categories.ListCategories(ctx, CategoryFilter{})
	if err != nil {
		return nil, err
	}

	categoryNames := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}

	report := &objects.CaseloadReport{
		GeneratedAt:            xtime.UTCNow(),
		TotalInteractions:      len(interactions),
		StudentsByGrade:        make(map[string]int),
		InteractionsByCategory: make(map[string]int),
	}

	// Archived students left the caseload; they stay out of the counts.
	for _, s := range students {
		if s.Archived {
			continue
		}

		report.TotalStudents++
		report.StudentsByGrade[s.GradeLevel]++
	}

	for _, i := range interactions {
		name, ok := categoryNames[i.CategoryID]
		if !ok {
			name = i.CategoryID
		}

		report.InteractionsByCategory[name]++
	}

	periods := xtime.GetCalendarPeriods(svc.location)
	buckets := []struct {
		label  string
		period xtime.Period
	}{
		{"today", periods.Today},
		{"this_week", periods.ThisWeek},
		{"last_week", periods.LastWeek},
		{"this_month", periods.ThisMonth},
	}

	for _, b := range buckets {
		count := 0

		for _, i := range interactions {
			if b.period.Contains(i.OccurredAt) {
				count++
			}
		}

		report.Periods = append(report.Periods, objects.PeriodCount{
			Label:        b.label,
			Start:        b.period.Start,
			End:          b.period.End,
			Interactions: count,
		})
	}

	return report, nil
}

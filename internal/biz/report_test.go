package biz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/pkg/xjson"
	"github.com/counselhub/counselhub/internal/pkg/xtime"
)

func TestReportServiceCaseloadSummary(t *testing.T) {
	svcs := newTestServices(t)
	ctx := t.Context()

	periods := xtime.GetCalendarPeriods(time.UTC)

	students := []*objects.Student{
		{ID: "s_1", FirstName: "Ann", LastName: "Lee", GradeLevel: "9", Version: 1},
		{ID: "s_2", FirstName: "Bob", LastName: "May", GradeLevel: "9", Version: 1},
		{ID: "s_3", FirstName: "Cal", LastName: "Oda", GradeLevel: "10", Archived: true, Version: 1},
	}

	interactions := []*objects.Interaction{
		{ID: "i_1", StudentID: "s_1", CategoryID: "c_1", OccurredAt: periods.Today.Start.Add(time.Hour), Version: 1},
		{ID: "i_2", StudentID: "s_2", CategoryID: "c_1", OccurredAt: periods.Today.Start.Add(2 * time.Hour), Version: 1},
		{ID: "i_3", StudentID: "s_1", CategoryID: "c_2", OccurredAt: periods.LastWeek.Start.Add(time.Hour), Version: 1},
		{ID: "i_4", StudentID: "s_2", CategoryID: "c_gone", OccurredAt: periods.Today.Start.Add(3 * time.Hour), Version: 1},
	}

	categories := []*objects.Category{
		{ID: "c_1", Name: "Academic", Version: 1},
		{ID: "c_2", Name: "Attendance", Version: 1},
	}

	svcs.data.EXPECT().
		List(gomock.Any(), objects.EntityStudents, map[string]string(nil)).
		Return(rawRows(students[0], students[1], students[2]), nil)
	svcs.data.EXPECT().
		List(gomock.Any(), objects.EntityInteractions, map[string]string(nil)).
		Return(rawRows(interactions[0], interactions[1], interactions[2], interactions[3]), nil)
	svcs.data.EXPECT().
		List(gomock.Any(), objects.EntityCategories, map[string]string(nil)).
		Return(rawRows(categories[0], categories[1]), nil)

	report, err := svcs.reports.CaseloadSummary(ctx)
	require.NoError(t, err)

	require.Equal(t, 2, report.TotalStudents, "archived students leave the caseload")
	require.Equal(t, 4, report.TotalInteractions)
	require.Equal(t, map[string]int{"9": 2}, report.StudentsByGrade)

	// A category the backend no longer knows falls back to its id.
	require.Equal(t, map[string]int{"Academic": 2, "Attendance": 1, "c_gone": 1}, report.InteractionsByCategory)

	counts := make(map[string]int, len(report.Periods))
	for _, p := range report.Periods {
		counts[p.Label] = p.Interactions
	}

	require.Len(t, report.Periods, 4)
	require.Equal(t, 3, counts["today"])
	require.Equal(t, 3, counts["this_week"])
	require.Equal(t, 1, counts["last_week"])
	require.GreaterOrEqual(t, counts["this_month"], 3)
}

func TestReportServiceStaleSummaryServedWhileRecomputing(t *testing.T) {
	svcs := newTestServices(t)
	ctx := t.Context()

	periods := xtime.GetCalendarPeriods(time.UTC)
	occurred := periods.Today.Start.Add(time.Hour)

	ann := &objects.Student{ID: "s_1", FirstName: "Ann", LastName: "Lee", GradeLevel: "9", Version: 1}
	c1 := &objects.Category{ID: "c_1", Name: "Academic", Version: 1}
	i1 := &objects.Interaction{ID: "i_1", StudentID: "s_1", CategoryID: "c_1", OccurredAt: occurred, Version: 1}
	i2 := &objects.Interaction{ID: "i_2", StudentID: "s_1", CategoryID: "c_1", OccurredAt: occurred.Add(time.Hour), Version: 1}

	// Students and categories are untouched by an interaction write, so one
	// remote list each is all the engine may spend.
	svcs.data.EXPECT().
		List(gomock.Any(), objects.EntityStudents, map[string]string(nil)).
		Return(rawRows(ann), nil).
		Times(1)
	svcs.data.EXPECT().
		List(gomock.Any(), objects.EntityCategories, map[string]string(nil)).
		Return(rawRows(c1), nil).
		Times(1)
	svcs.data.EXPECT().
		List(gomock.Any(), objects.EntityInteractions, map[string]string(nil)).
		Return(rawRows(i1), nil).
		Times(1)
	svcs.data.EXPECT().
		List(gomock.Any(), objects.EntityInteractions, map[string]string(nil)).
		Return(rawRows(i1, i2), nil).
		AnyTimes()

	first, err := svcs.reports.CaseloadSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalInteractions)

	second, err := svcs.reports.CaseloadSummary(ctx)
	require.NoError(t, err)
	require.Same(t, first, second, "fresh summary is a cache hit")

	svcs.data.EXPECT().
		Create(gomock.Any(), objects.EntityInteractions, gomock.Any()).
		Return(xjson.MustMarshal(i2), nil)

	_, err = svcs.interactions.CreateInteraction(ctx, CreateInteractionInput{
		StudentID:  "s_1",
		CategoryID: "c_1",
		OccurredAt: occurred.Add(time.Hour),
	})
	require.NoError(t, err)

	// The write made the summary stale: it is still served while the engine
	// recomputes in the background.
	third, err := svcs.reports.CaseloadSummary(ctx)
	require.NoError(t, err)
	require.Same(t, first, third)

	require.Eventually(t, func() bool {
		entry := svcs.engine.Store.Get(CaseloadReportKey())
		report, ok := entry.Value.(*objects.CaseloadReport)

		return ok && entry.Status == cache.StatusFresh && report.TotalInteractions == 2
	}, 2*time.Second, 5*time.Millisecond, "summary never recomputed")

	// Wait out the interaction list refresh too so no load outlives the test.
	require.Eventually(t, func() bool {
		entry := svcs.engine.Store.Get(cache.ListKey(objects.EntityInteractions, nil))
		return entry.Status == cache.StatusFresh
	}, 2*time.Second, 5*time.Millisecond)
}

package biz

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/counselhub/counselhub/internal/backend/mock"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/pkg/xjson"
)

type testServices struct {
	engine       *Engine
	data         *mock.MockDataBackend
	students     *StudentService
	contacts     *ContactService
	interactions *InteractionService
	categories   *CategoryService
	reports      *ReportService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	ctrl := gomock.NewController(t)
	data := mock.NewMockDataBackend(ctrl)

	store := cache.NewStore()
	graph := mutation.NewGraph()

	engine := NewEngine(EngineParams{
		Store:    store,
		Fetcher:  cache.NewFetcher(cache.FetcherOptions{Store: store}),
		Executor: mutation.NewExecutor(mutation.ExecutorOptions{Store: store, Graph: graph}),
		Graph:    graph,
		Data:     data,
	})

	svcs := &testServices{
		engine:       engine,
		data:         data,
		students:     NewStudentService(StudentServiceParams{Engine: engine}),
		contacts:     NewContactService(ContactServiceParams{Engine: engine}),
		interactions: NewInteractionService(InteractionServiceParams{Engine: engine}),
		categories:   NewCategoryService(CategoryServiceParams{Engine: engine}),
	}

	svcs.reports = NewReportService(ReportServiceParams{
		Engine:       engine,
		Students:     svcs.students,
		Interactions: svcs.interactions,
		Categories:   svcs.categories,
	})
	svcs.reports.location = time.UTC

	return svcs
}

func rawRows(rows ...any) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, xjson.MustMarshal(r))
	}

	return out
}

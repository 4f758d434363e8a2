// Package biz holds the entity services: the thin layer that turns reads
// into cache fetches and writes into optimistic mutations. Every service
// shares one engine; the per-entity differences are the key layout, the
// invalidation rules each service registers at construction, and the typed
// codec.
package biz

import (
	"go.uber.org/fx"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/objects"
)

// Engine bundles the cache store, read-through fetcher, mutation executor
// and invalidation graph shared by every entity service. Exactly one Engine
// exists per client session.
type Engine struct {
	Store    *cache.Store
	Fetcher  *cache.Fetcher
	Executor *mutation.Executor
	Graph    *mutation.Graph
	Data     backend.DataBackend
}

type EngineParams struct {
	fx.In

	Store    *cache.Store
	Fetcher  *cache.Fetcher
	Executor *mutation.Executor
	Graph    *mutation.Graph
	Data     backend.DataBackend
}

func NewEngine(params EngineParams) *Engine {
	if params.Store == nil {
		panic("biz.Engine: Store is required")
	}

	if params.Fetcher == nil {
		panic("biz.Engine: Fetcher is required")
	}

	if params.Executor == nil {
		panic("biz.Engine: Executor is required")
	}

	if params.Graph == nil {
		panic("biz.Engine: Graph is required")
	}

	if params.Data == nil {
		panic("biz.Engine: Data backend is required")
	}

	return &Engine{
		Store:    params.Store,
		Fetcher:  params.Fetcher,
		Executor: params.Executor,
		Graph:    params.Graph,
		Data:     params.Data,
	}
}

// CaseloadReportKey addresses the cached caseload summary. Student,
// interaction and category mutations list it among their dynamic
// invalidation keys so the report is recomputed after any input changes.
func CaseloadReportKey() cache.Key {
	return cache.RecordKey(objects.EntityReports, "caseload")
}

package biz

import (
	"context"

	"go.uber.org/fx"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/objects"
)

type CategoryServiceParams struct {
	fx.In

	Engine *Engine
}

type CategoryService struct {
	engine *Engine
	ops    *entityOps[objects.Category]
}

func NewCategoryService(params CategoryServiceParams) *CategoryService {
	svc := &CategoryService{
		engine: params.Engine,
		ops: newEntityOps(params.Engine, objects.EntityCategories, func(c *objects.Category) string {
			return c.ID
		}),
	}

	svc.registerRules(params.Engine.Graph)

	return svc
}

// Category names label the report's interaction breakdown, so every category
// write fans out to the report key. Renaming or archiving a category also
// makes its interaction slice stale.
func (svc *CategoryService) registerRules(graph *mutation.Graph) {
	rule := mutation.Rule{
		Patterns: []mutation.Pattern{{Entity: objects.EntityCategories, Filter: mutation.AnyFilter}},
		Keys: func(instance any) []cache.Key {
			keys := []cache.Key{CaseloadReportKey()}

			category, ok := instance.(*objects.Category)
			if !ok || category == nil {
				return keys
			}

			return append(keys, cache.ListKey(objects.EntityInteractions, map[string]string{filterCategoryID: category.ID}))
		},
	}

	graph.Register(objects.EntityCategories, objects.OpCreate, rule)
	graph.Register(objects.EntityCategories, objects.OpUpdate, rule)
	graph.Register(objects.EntityCategories, objects.OpDelete, rule)
}

// CategoryFilter narrows the list to active categories.
type CategoryFilter struct {
	Archived *bool
}

func (f CategoryFilter) toMap() map[string]string {
	if f.Archived == nil {
		return nil
	}

	if *f.Archived {
		return map[string]string{filterArchived: "true"}
	}

	return map[string]string{filterArchived: "false"}
}

func (svc *CategoryService) GetCategory(ctx context.Context, id string) (*objects.Category, error) {
	return svc.ops.get(ctx, id)
}

func (svc *CategoryService) ListCategories(ctx context.Context, filter CategoryFilter) ([]*objects.Category, error) {
	return svc.ops.list(ctx, filter.toMap())
}

type CreateCategoryInput struct {
	Name  string
	Color string
}

func (svc *CategoryService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*objects.Category, error) {
	if input.Name == "" {
		return nil, backend.ValidationFailure("category name is required")
	}

	placeholder := &objects.Category{
		ID:    placeholderID(),
		Name:  input.Name,
		Color: input.Color,
	}

	return svc.ops.create(ctx, placeholder, placeholder, svc.listKeys())
}

type UpdateCategoryInput struct {
	Name     *string
	Color    *string
	Archived *bool
}

func (svc *CategoryService) UpdateCategory(ctx context.Context, id string, input UpdateCategoryInput) (*objects.Category, error) {
	current, err := svc.ops.get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current

	if input.Name != nil {
		next.Name = *input.Name
	}

	if input.Color != nil {
		next.Color = *input.Color
	}

	if input.Archived != nil {
		next.Archived = *input.Archived
	}

	if next.Name == "" {
		return nil, backend.ValidationFailure("category name is required")
	}

	return svc.ops.update(ctx, id, &next, &next, svc.listKeys(), nil)
}

func (svc *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	current, err := svc.ops.get(ctx, id)
	if err != nil {
		return err
	}

	return svc.ops.delete(ctx, id, current, svc.listKeys())
}

func (svc *CategoryService) listKeys() []cache.Key {
	return []cache.Key{
		svc.ops.listKey(nil),
		svc.ops.listKey(map[string]string{filterArchived: "false"}),
		svc.ops.listKey(map[string]string{filterArchived: "true"}),
	}
}

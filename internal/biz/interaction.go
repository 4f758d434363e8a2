package biz

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/objects"
)

type InteractionServiceParams struct {
	fx.In

	Engine *Engine
}

type InteractionService struct {
	engine *Engine
	ops    *entityOps[objects.Interaction]
}

func NewInteractionService(params InteractionServiceParams) *InteractionService {
	svc := &InteractionService{
		engine: params.Engine,
		ops: newEntityOps(params.Engine, objects.EntityInteractions, func(i *objects.Interaction) string {
			return i.ID
		}),
	}

	svc.registerRules(params.Engine.Graph)

	return svc
}

// registerRules declares what an interaction mutation makes stale. The
// static pattern covers only the unfiltered log: filtered lists are keyed by
// foreign references, so they go stale per instance. Deleting I1 for student
// S1 must leave S2's list untouched.
func (svc *InteractionService) registerRules(graph *mutation.Graph) {
	rule := mutation.Rule{
		Patterns: []mutation.Pattern{{Entity: objects.EntityInteractions}},
		Keys:     interactionInstanceKeys,
	}

	graph.Register(objects.EntityInteractions, objects.OpCreate, rule)
	graph.Register(objects.EntityInteractions, objects.OpUpdate, rule)
	graph.Register(objects.EntityInteractions, objects.OpDelete, rule)
}

// interactionInstanceKeys derives the filtered lists an interaction touches.
// Updates pass a change pair so the lists the row moved out of go stale too.
func interactionInstanceKeys(instance any) []cache.Key {
	keys := []cache.Key{CaseloadReportKey()}

	switch v := instance.(type) {
	case *objects.Interaction:
		keys = append(keys, interactionRefListKeys(v)...)
	case *change[objects.Interaction]:
		keys = append(keys, interactionRefListKeys(v.Old)...)
		keys = append(keys, interactionRefListKeys(v.New)...)
	}

	return lo.Uniq(keys)
}

func interactionRefListKeys(i *objects.Interaction) []cache.Key {
	if i == nil {
		return nil
	}

	keys := []cache.Key{
		cache.ListKey(objects.EntityInteractions, map[string]string{filterStudentID: i.StudentID}),
	}

	if i.ContactID != "" {
		keys = append(keys, cache.ListKey(objects.EntityInteractions, map[string]string{filterContactID: i.ContactID}))
	}

	if i.CategoryID != "" {
		keys = append(keys, cache.ListKey(objects.EntityInteractions, map[string]string{filterCategoryID: i.CategoryID}))
	}

	return keys
}

// InteractionFilter selects interactions by one foreign reference. Combined
// filters are deliberately unsupported: the invalidation graph tracks lists
// per single reference.
type InteractionFilter struct {
	StudentID  string
	ContactID  string
	CategoryID string
}

func (f InteractionFilter) toMap() map[string]string {
	m := make(map[string]string, 1)

	if f.StudentID != "" {
		m[filterStudentID] = f.StudentID
	}

	if f.ContactID != "" {
		m[filterContactID] = f.ContactID
	}

	if f.CategoryID != "" {
		m[filterCategoryID] = f.CategoryID
	}

	if len(m) == 0 {
		return nil
	}

	return m
}

func (f InteractionFilter) validate() error {
	set := 0

	for _, v := range []string{f.StudentID, f.ContactID, f.CategoryID} {
		if v != "" {
			set++
		}
	}

	if set > 1 {
		return backend.ValidationFailure("interaction lists filter by at most one reference")
	}

	return nil
}

func (svc *InteractionService) GetInteraction(ctx context.Context, id string) (*objects.Interaction, error) {
	return svc.ops.get(ctx, id)
}

func (svc *InteractionService) ListInteractions(ctx context.Context, filter InteractionFilter) ([]*objects.Interaction, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	return svc.ops.list(ctx, filter.toMap())
}

type CreateInteractionInput struct {
	StudentID       string
	ContactID       string
	CategoryID      string
	OccurredAt      time.Time
	DurationMinutes int
	Summary         string
}

// CreateInteraction logs an interaction. The unfiltered log and the lists of
// the referenced student, contact and category show a placeholder row until
// the backend confirms.
func (svc *InteractionService) CreateInteraction(ctx context.Context, input CreateInteractionInput) (*objects.Interaction, error) {
	if input.StudentID == "" {
		return nil, backend.ValidationFailure("interaction requires a student")
	}

	if input.CategoryID == "" {
		return nil, backend.ValidationFailure("interaction requires a category")
	}

	if input.OccurredAt.IsZero() {
		return nil, backend.ValidationFailure("interaction requires an occurred-at time")
	}

	placeholder := &objects.Interaction{
		ID:              placeholderID(),
		StudentID:       input.StudentID,
		ContactID:       input.ContactID,
		CategoryID:      input.CategoryID,
		OccurredAt:      input.OccurredAt,
		DurationMinutes: input.DurationMinutes,
		Summary:         input.Summary,
	}

	return svc.ops.create(ctx, placeholder, placeholder, svc.listKeysFor(placeholder))
}

type UpdateInteractionInput struct {
	StudentID       *string
	ContactID       *string
	CategoryID      *string
	OccurredAt      *time.Time
	DurationMinutes *int
	Summary         *string
}

// UpdateInteraction applies the set fields of input on top of the current
// row. Moving the interaction to another student, contact or category drops
// it from the lists it left and invalidates both sides.
func (svc *InteractionService) UpdateInteraction(ctx context.Context, id string, input UpdateInteractionInput) (*objects.Interaction, error) {
	current, err := svc.ops.get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current

	if input.StudentID != nil {
		next.StudentID = *input.StudentID
	}

	if input.ContactID != nil {
		next.ContactID = *input.ContactID
	}

	if input.CategoryID != nil {
		next.CategoryID = *input.CategoryID
	}

	if input.OccurredAt != nil {
		next.OccurredAt = *input.OccurredAt
	}

	if input.DurationMinutes != nil {
		next.DurationMinutes = *input.DurationMinutes
	}

	if input.Summary != nil {
		next.Summary = *input.Summary
	}

	if next.StudentID == "" {
		return nil, backend.ValidationFailure("interaction requires a student")
	}

	if next.CategoryID == "" {
		return nil, backend.ValidationFailure("interaction requires a category")
	}

	lists := svc.listKeysFor(&next)
	removals, _ := lo.Difference(interactionRefListKeys(current), interactionRefListKeys(&next))

	instance := &change[objects.Interaction]{Old: current, New: &next}

	return svc.ops.update(ctx, id, &next, instance, lists, removals)
}

// DeleteInteraction removes one logged interaction. Lists of other students
// stay untouched and fresh.
func (svc *InteractionService) DeleteInteraction(ctx context.Context, id string) error {
	current, err := svc.ops.get(ctx, id)
	if err != nil {
		return err
	}

	return svc.ops.delete(ctx, id, current, svc.listKeysFor(current))
}

func (svc *InteractionService) listKeysFor(i *objects.Interaction) []cache.Key {
	return append([]cache.Key{svc.ops.listKey(nil)}, interactionRefListKeys(i)...)
}

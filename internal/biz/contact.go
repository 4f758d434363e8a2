package biz

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/fx"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/objects"
)

type ContactServiceParams struct {
	fx.In

	Engine *Engine
}

type ContactService struct {
	engine *Engine
	ops    *entityOps[objects.Contact]
}

func NewContactService(params ContactServiceParams) *ContactService {
	svc := &ContactService{
		engine: params.Engine,
		ops: newEntityOps(params.Engine, objects.EntityContacts, func(c *objects.Contact) string {
			return c.ID
		}),
	}

	svc.registerRules(params.Engine.Graph)

	return svc
}

// Contacts never feed the caseload report, so the rules stop at the contact
// lists themselves.
func (svc *ContactService) registerRules(graph *mutation.Graph) {
	rule := mutation.Rule{
		Patterns: []mutation.Pattern{{Entity: objects.EntityContacts}},
		Keys:     contactInstanceKeys,
	}

	graph.Register(objects.EntityContacts, objects.OpCreate, rule)
	graph.Register(objects.EntityContacts, objects.OpUpdate, rule)
	graph.Register(objects.EntityContacts, objects.OpDelete, rule)
}

func contactInstanceKeys(instance any) []cache.Key {
	var keys []cache.Key

	byStudent := func(c *objects.Contact) {
		if c != nil && c.StudentID != "" {
			keys = append(keys, cache.ListKey(objects.EntityContacts, map[string]string{filterStudentID: c.StudentID}))
		}
	}

	switch v := instance.(type) {
	case *objects.Contact:
		byStudent(v)
	case *change[objects.Contact]:
		byStudent(v.Old)
		byStudent(v.New)
	}

	return lo.Uniq(keys)
}

// ContactFilter selects the contacts linked to one student. The zero value
// lists every contact.
type ContactFilter struct {
	StudentID string
}

func (f ContactFilter) toMap() map[string]string {
	if f.StudentID == "" {
		return nil
	}

	return map[string]string{filterStudentID: f.StudentID}
}

func (svc *ContactService) GetContact(ctx context.Context, id string) (*objects.Contact, error) {
	return svc.ops.get(ctx, id)
}

func (svc *ContactService) ListContacts(ctx context.Context, filter ContactFilter) ([]*objects.Contact, error) {
	return svc.ops.list(ctx, filter.toMap())
}

type CreateContactInput struct {
	StudentID string
	Name      string
	Role      string
	Email     string
	Phone     string
}

func (svc *ContactService) CreateContact(ctx context.Context, input CreateContactInput) (*objects.Contact, error) {
	if input.StudentID == "" {
		return nil, backend.ValidationFailure("contact requires a student")
	}

	if input.Name == "" {
		return nil, backend.ValidationFailure("contact name is required")
	}

	placeholder := &objects.Contact{
		ID:        placeholderID(),
		StudentID: input.StudentID,
		Name:      input.Name,
		Role:      input.Role,
		Email:     input.Email,
		Phone:     input.Phone,
	}

	return svc.ops.create(ctx, placeholder, placeholder, svc.listKeysFor(placeholder))
}

type UpdateContactInput struct {
	StudentID *string
	Name      *string
	Role      *string
	Email     *string
	Phone     *string
}

func (svc *ContactService) UpdateContact(ctx context.Context, id string, input UpdateContactInput) (*objects.Contact, error) {
	current, err := svc.ops.get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current

	if input.StudentID != nil {
		next.StudentID = *input.StudentID
	}

	if input.Name != nil {
		next.Name = *input.Name
	}

	if input.Role != nil {
		next.Role = *input.Role
	}

	if input.Email != nil {
		next.Email = *input.Email
	}

	if input.Phone != nil {
		next.Phone = *input.Phone
	}

	if next.StudentID == "" {
		return nil, backend.ValidationFailure("contact requires a student")
	}

	if next.Name == "" {
		return nil, backend.ValidationFailure("contact name is required")
	}

	var removals []cache.Key
	if next.StudentID != current.StudentID {
		removals = append(removals, svc.ops.listKey(map[string]string{filterStudentID: current.StudentID}))
	}

	instance := &change[objects.Contact]{Old: current, New: &next}

	return svc.ops.update(ctx, id, &next, instance, svc.listKeysFor(&next), removals)
}

func (svc *ContactService) DeleteContact(ctx context.Context, id string) error {
	current, err := svc.ops.get(ctx, id)
	if err != nil {
		return err
	}

	return svc.ops.delete(ctx, id, current, svc.listKeysFor(current))
}

func (svc *ContactService) listKeysFor(c *objects.Contact) []cache.Key {
	keys := []cache.Key{svc.ops.listKey(nil)}

	if c.StudentID != "" {
		keys = append(keys, svc.ops.listKey(map[string]string{filterStudentID: c.StudentID}))
	}

	return keys
}

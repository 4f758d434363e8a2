package biz

import (
	"context"
	"strconv"

	"go.uber.org/fx"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/mutation"
	"github.com/counselhub/counselhub/internal/objects"
)

// Canonical filter field names shared by list keys and invalidation rules.
const (
	filterStudentID  = "studentID"
	filterContactID  = "contactID"
	filterCategoryID = "categoryID"
	filterGradeLevel = "gradeLevel"
	filterArchived   = "archived"
)

type StudentServiceParams struct {
	fx.In

	Engine *Engine
}

type StudentService struct {
	engine *Engine
	ops    *entityOps[objects.Student]
}

func NewStudentService(params StudentServiceParams) *StudentService {
	svc := &StudentService{
		engine: params.Engine,
		ops: newEntityOps(params.Engine, objects.EntityStudents, func(s *objects.Student) string {
			return s.ID
		}),
	}

	svc.registerRules(params.Engine.Graph)

	return svc
}

// registerRules declares what a student mutation makes stale. Every student
// list is fair game for any write since filters select on mutable fields;
// deleting a student additionally takes its dependent interaction and
// contact lists down with it.
func (svc *StudentService) registerRules(graph *mutation.Graph) {
	reportOnly := func(any) []cache.Key {
		return []cache.Key{CaseloadReportKey()}
	}

	graph.Register(objects.EntityStudents, objects.OpCreate, mutation.Rule{
		Patterns: []mutation.Pattern{{Entity: objects.EntityStudents, Filter: mutation.AnyFilter}},
		Keys:     reportOnly,
	})

	graph.Register(objects.EntityStudents, objects.OpUpdate, mutation.Rule{
		Patterns: []mutation.Pattern{{Entity: objects.EntityStudents, Filter: mutation.AnyFilter}},
		Keys:     reportOnly,
	})

	graph.Register(objects.EntityStudents, objects.OpDelete, mutation.Rule{
		Patterns: []mutation.Pattern{
			{Entity: objects.EntityStudents, Filter: mutation.AnyFilter},
			{Entity: objects.EntityInteractions},
			{Entity: objects.EntityContacts},
		},
		Keys: func(instance any) []cache.Key {
			keys := []cache.Key{CaseloadReportKey()}

			student, ok := instance.(*objects.Student)
			if !ok || student == nil {
				return keys
			}

			return append(keys,
				cache.ListKey(objects.EntityInteractions, map[string]string{filterStudentID: student.ID}),
				cache.ListKey(objects.EntityContacts, map[string]string{filterStudentID: student.ID}),
			)
		},
	})
}

// StudentFilter selects students by attribute. The zero value lists the
// whole caseload.
type StudentFilter struct {
	GradeLevel string
	Archived   *bool
}

func (f StudentFilter) toMap() map[string]string {
	m := make(map[string]string, 2)

	if f.GradeLevel != "" {
		m[filterGradeLevel] = f.GradeLevel
	}

	if f.Archived != nil {
		m[filterArchived] = strconv.FormatBool(*f.Archived)
	}

	if len(m) == 0 {
		return nil
	}

	return m
}

func (svc *StudentService) GetStudent(ctx context.Context, id string) (*objects.Student, error) {
	return svc.ops.get(ctx, id)
}

func (svc *StudentService) ListStudents(ctx context.Context, filter StudentFilter) ([]*objects.Student, error) {
	return svc.ops.list(ctx, filter.toMap())
}

type CreateStudentInput struct {
	FirstName  string
	LastName   string
	GradeLevel string
	Notes      string
}

// CreateStudent adds a student to the caseload. Cached student lists show a
// placeholder row until the backend confirms.
func (svc *StudentService) CreateStudent(ctx context.Context, input CreateStudentInput) (*objects.Student, error) {
	if input.FirstName == "" && input.LastName == "" {
		return nil, backend.ValidationFailure("student name is required")
	}

	if input.GradeLevel == "" {
		return nil, backend.ValidationFailure("grade level is required")
	}

	placeholder := &objects.Student{
		ID:         placeholderID(),
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		GradeLevel: input.GradeLevel,
		Notes:      input.Notes,
	}

	return svc.ops.create(ctx, placeholder, placeholder, svc.listKeysFor(placeholder))
}

type UpdateStudentInput struct {
	FirstName  *string
	LastName   *string
	GradeLevel *string
	Notes      *string
	Archived   *bool
}

// UpdateStudent applies the set fields of input on top of the current row.
func (svc *StudentService) UpdateStudent(ctx context.Context, id string, input UpdateStudentInput) (*objects.Student, error) {
	current, err := svc.ops.get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current

	if input.FirstName != nil {
		next.FirstName = *input.FirstName
	}

	if input.LastName != nil {
		next.LastName = *input.LastName
	}

	if input.GradeLevel != nil {
		next.GradeLevel = *input.GradeLevel
	}

	if input.Notes != nil {
		next.Notes = *input.Notes
	}

	if input.Archived != nil {
		next.Archived = *input.Archived
	}

	if next.FirstName == "" && next.LastName == "" {
		return nil, backend.ValidationFailure("student name is required")
	}

	var removals []cache.Key
	if next.GradeLevel != current.GradeLevel {
		removals = append(removals, svc.gradeListKey(current.GradeLevel))
	}

	return svc.ops.update(ctx, id, &next, &next, svc.listKeysFor(&next), removals)
}

// DeleteStudent removes a student and everything cached under it.
func (svc *StudentService) DeleteStudent(ctx context.Context, id string) error {
	current, err := svc.ops.get(ctx, id)
	if err != nil {
		return err
	}

	return svc.ops.delete(ctx, id, current, svc.listKeysFor(current))
}

// listKeysFor names the student lists worth patching optimistically: the
// unfiltered caseload and the grade slice the row belongs to. Other filtered
// lists catch up through invalidation.
func (svc *StudentService) listKeysFor(student *objects.Student) []cache.Key {
	return []cache.Key{
		svc.ops.listKey(nil),
		svc.gradeListKey(student.GradeLevel),
	}
}

func (svc *StudentService) gradeListKey(gradeLevel string) cache.Key {
	return svc.ops.listKey(map[string]string{filterGradeLevel: gradeLevel})
}

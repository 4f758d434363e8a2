package mutation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/objects"
)

func TestPatternMatches(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		key     cache.Key
		want    bool
	}{
		{
			name:    "exact filter",
			pattern: Pattern{Entity: objects.EntityInteractions, Filter: "studentId=S1"},
			key:     cache.ListKey(objects.EntityInteractions, map[string]string{"studentId": "S1"}),
			want:    true,
		},
		{
			name:    "different filter",
			pattern: Pattern{Entity: objects.EntityInteractions, Filter: "studentId=S1"},
			key:     cache.ListKey(objects.EntityInteractions, map[string]string{"studentId": "S2"}),
			want:    false,
		},
		{
			name:    "unfiltered list",
			pattern: Pattern{Entity: objects.EntityStudents},
			key:     cache.ListKey(objects.EntityStudents, nil),
			want:    true,
		},
		{
			name:    "unfiltered pattern ignores filtered list",
			pattern: Pattern{Entity: objects.EntityStudents},
			key:     cache.ListKey(objects.EntityStudents, map[string]string{"gradeLevel": "9"}),
			want:    false,
		},
		{
			name:    "any filter matches filtered list",
			pattern: Pattern{Entity: objects.EntityStudents, Filter: AnyFilter},
			key:     cache.ListKey(objects.EntityStudents, map[string]string{"gradeLevel": "9"}),
			want:    true,
		},
		{
			name:    "any filter matches unfiltered list",
			pattern: Pattern{Entity: objects.EntityStudents, Filter: AnyFilter},
			key:     cache.ListKey(objects.EntityStudents, nil),
			want:    true,
		},
		{
			name:    "record keys never match",
			pattern: Pattern{Entity: objects.EntityStudents, Filter: AnyFilter},
			key:     cache.RecordKey(objects.EntityStudents, "S1"),
			want:    false,
		},
		{
			name:    "entity mismatch",
			pattern: Pattern{Entity: objects.EntityStudents, Filter: AnyFilter},
			key:     cache.ListKey(objects.EntityContacts, nil),
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.pattern.Matches(tt.key))
		})
	}
}

func TestGraphRegisterAndLookup(t *testing.T) {
	g := NewGraph()

	g.Register(objects.EntityStudents, objects.OpCreate, Rule{
		Patterns: []Pattern{{Entity: objects.EntityStudents, Filter: AnyFilter}},
	})
	g.Register(objects.EntityStudents, objects.OpUpdate, Rule{
		Patterns: []Pattern{{Entity: objects.EntityStudents, Filter: AnyFilter}},
	})

	require.Equal(t, 2, g.Len())

	rule, ok := g.Rule(objects.EntityStudents, objects.OpCreate)
	require.True(t, ok)
	require.Len(t, rule.Patterns, 1)

	_, ok = g.Rule(objects.EntityStudents, objects.OpDelete)
	require.False(t, ok)

	_, ok = g.Rule(objects.EntityContacts, objects.OpCreate)
	require.False(t, ok)
}

func TestGraphDuplicateRegistrationPanics(t *testing.T) {
	g := NewGraph()

	g.Register(objects.EntityInteractions, objects.OpDelete, Rule{})

	require.Panics(t, func() {
		g.Register(objects.EntityInteractions, objects.OpDelete, Rule{})
	})
}

func TestRuleInstanceKeys(t *testing.T) {
	rule := Rule{
		Keys: func(instance any) []cache.Key {
			interaction := instance.(*objects.Interaction)
			return []cache.Key{
				cache.ListKey(objects.EntityInteractions, map[string]string{"studentId": interaction.StudentID}),
			}
		},
	}

	keys := rule.InstanceKeys(&objects.Interaction{ID: "I1", StudentID: "S1"})
	require.Equal(t, []cache.Key{
		cache.ListKey(objects.EntityInteractions, map[string]string{"studentId": "S1"}),
	}, keys)

	// The derived keys follow the instance's foreign references, so another
	// student's list is never produced.
	require.NotContains(t, keys, cache.ListKey(objects.EntityInteractions, map[string]string{"studentId": "S2"}))
}

func TestRuleInstanceKeysNilSafe(t *testing.T) {
	require.Nil(t, Rule{}.InstanceKeys(&objects.Interaction{}))
}

func TestRuleMatchFunc(t *testing.T) {
	rule := Rule{
		Patterns: []Pattern{
			{Entity: objects.EntityInteractions},
			{Entity: objects.EntityReports, Filter: AnyFilter},
		},
	}

	match := rule.MatchFunc()

	require.True(t, match(cache.ListKey(objects.EntityInteractions, nil)))
	require.True(t, match(cache.ListKey(objects.EntityReports, map[string]string{"period": "2026-W34"})))
	require.False(t, match(cache.ListKey(objects.EntityInteractions, map[string]string{"studentId": "S1"})))
	require.False(t, match(cache.RecordKey(objects.EntityInteractions, "I1")))
	require.False(t, match(cache.ListKey(objects.EntityStudents, nil)))
}

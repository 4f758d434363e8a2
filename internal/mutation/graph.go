package mutation

import (
	"fmt"

	"github.com/counselhub/counselhub/internal/cache"
	"github.com/counselhub/counselhub/internal/objects"
)

// AnyFilter makes a Pattern match every list key of its entity regardless of
// filter.
const AnyFilter = "*"

// Pattern statically describes list keys to invalidate. Record keys are
// always per-instance and therefore belong in a rule's dynamic Keys func.
type Pattern struct {
	Entity objects.Entity

	// Filter is a canonical filter string to match exactly, "" for the
	// unfiltered list, or AnyFilter for every list of the entity.
	Filter string
}

// Matches reports whether the pattern covers key.
func (p Pattern) Matches(key cache.Key) bool {
	if key.Entity != p.Entity || !key.IsList() {
		return false
	}

	return p.Filter == AnyFilter || key.Filter == p.Filter
}

// Rule is the invalidation declaration for one (entity, op) pair.
type Rule struct {
	// Patterns are matched against every cached key.
	Patterns []Pattern

	// Keys derives per-instance keys from the mutated entity's foreign
	// references, e.g. the interactions-by-student list for the student an
	// interaction belongs to. Pure; must not read the store. May be nil.
	Keys func(instance any) []cache.Key
}

type ruleKey struct {
	entity objects.Entity
	op     objects.Op
}

// Graph is the static invalidation table: (entity, op) resolved in O(1) to
// the keys that must go stale after a successful mutation. Rules are
// registered once at startup and read-only afterwards.
type Graph struct {
	rules map[ruleKey]Rule
}

func NewGraph() *Graph {
	return &Graph{rules: make(map[ruleKey]Rule)}
}

// Register declares the rule for (entity, op). Registering the same pair
// twice is a wiring bug and panics; registration happens only at startup.
func (g *Graph) Register(entity objects.Entity, op objects.Op, rule Rule) {
	key := ruleKey{entity: entity, op: op}

	if _, ok := g.rules[key]; ok {
		panic(fmt.Sprintf("mutation.Graph: rule for (%s, %s) already registered", entity, op))
	}

	g.rules[key] = rule
}

// Rule returns the declaration for (entity, op).
func (g *Graph) Rule(entity objects.Entity, op objects.Op) (Rule, bool) {
	rule, ok := g.rules[ruleKey{entity: entity, op: op}]
	return rule, ok
}

// Len returns the number of registered rules.
func (g *Graph) Len() int {
	return len(g.rules)
}

// HasRulesFor reports whether any rule is registered for the entity. The
// scheduler uses it to refuse background jobs that would touch the
// foreground mutation key space.
func (g *Graph) HasRulesFor(entity objects.Entity) bool {
	for key := range g.rules {
		if key.entity == entity {
			return true
		}
	}

	return false
}

// InstanceKeys resolves the dynamic keys for a mutated instance. Nil-safe.
func (r Rule) InstanceKeys(instance any) []cache.Key {
	if r.Keys == nil {
		return nil
	}

	return r.Keys(instance)
}

// MatchFunc returns a predicate over cache keys covering every static
// pattern of the rule, for use with Store.InvalidateMatching.
func (r Rule) MatchFunc() func(cache.Key) bool {
	return func(key cache.Key) bool {
		for _, p := range r.Patterns {
			if p.Matches(key) {
				return true
			}
		}

		return false
	}
}

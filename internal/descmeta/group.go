package descmeta

import (
	"encoding/json"
	"slices"
)

// Group is an ordered, repeatable collection of nested entries. Entries
// are held by value and have no identity outside of the group: destroying
// an entry removes it entirely, and destroying the group destroys every entry.
type Group[T any] struct {
	entries []T
}

// NewGroup constructs a group containing the entries provided, in order.
func NewGroup[T any](entries ...T) Group[T] {
	return Group[T]{entries: slices.Clone(entries)}
}

// Entries returns a copy of the entries in this group. Mutating the
// returned slice does not change the group.
func (g *Group[T]) Entries() []T { return slices.Clone(g.entries) }

func (g *Group[T]) Len() int      { return len(g.entries) }
func (g *Group[T]) At(i int) T    { return g.entries[i] }
func (g *Group[T]) IsEmpty() bool { return len(g.entries) == 0 }

// Build attaches new entries to the end of the group.
func (g *Group[T]) Build(entries ...T) {
	g.entries = append(g.entries, entries...)
}

// DestroyAll removes every entry from the group, returning
// the number of entries destroyed.
func (g *Group[T]) DestroyAll() int {
	n := len(g.entries)
	g.entries = nil
	return n
}

// DestroyWhere removes every entry for which the predicate returns
// true, preserving the order of the survivors. The number of entries
// destroyed is returned.
func (g *Group[T]) DestroyWhere(predicate func(T) bool) int {
	before := len(g.entries)
	g.entries = slices.DeleteFunc(g.entries, predicate)
	return before - len(g.entries)
}

// Each calls fn with a pointer to every entry, allowing
// in-place mutation of nested structures.
func (g *Group[T]) Each(fn func(*T)) {
	for i := range g.entries {
		fn(&g.entries[i])
	}
}

// Replace destroys all existing entries before attaching those provided.
func (g *Group[T]) Replace(entries []T) {
	g.DestroyAll()
	g.Build(entries...)
}

func (g Group[T]) MarshalJSON() ([]byte, error) {
	if g.entries == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(g.entries)
}

func (g *Group[T]) UnmarshalJSON(data []byte) error {
	var entries []T
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	g.entries = entries
	return nil
}

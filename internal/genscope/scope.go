// Package genscope implements the persistent lexical scope the generator
// threads through block generation. Each block clones the enclosing
// scope in O(1) via structural sharing instead of a deep copy, backed
// by github.com/benbjohnson/immutable's persistent map.
package genscope

import (
	"fmt"

	"github.com/benbjohnson/immutable"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/types"
)

// Entry is one named, typed binding visible in a scope.
type Entry struct {
	Ref  ast.Ref
	Name string
	Type types.Type
	// Mutable is true for `var` bindings and function parameters passed
	// by pointer/reference; false for `let`/`const`.
	Mutable bool
}

// Scope is an immutable symbol index keyed by a type's canonical string
// (types.Type.String()). Cloning a Scope to enter a nested block is a
// cheap pointer copy; writes return a new Scope leaving the parent intact,
// so a generator can freely backtrack across sibling blocks.
type Scope struct {
	byType *immutable.Map[string, []Entry]
	// mutables and references track, across the whole scope chain, every
	// var binding and every `&expr`/pointer-or-reference-typed binding
	// generated so far, for passes that ask "what can be assigned to"
	// or "what holds a pointer/reference view" across the whole chain.
	mutables   []Entry
	references []Entry
	nameSeq    *int
}

// New creates an empty root scope.
func New() *Scope {
	seq := 0
	return &Scope{
		byType:  immutable.NewMap[string, []Entry](nil),
		nameSeq: &seq,
	}
}

// Clone returns a scope equivalent to s. Because byType is persistent,
// this is O(1); mutations made through the clone's Bind do not affect s.
func (s *Scope) Clone() *Scope {
	cp := *s
	return &cp
}

// FreshName returns a new identifier of the form var_N, unique among
// every scope descended from the same root. The counter is shared (via
// pointer) across those clones, so names never collide even across
// sibling branches explored during backtracking; a separate root (from
// New) starts its own counter at 0.
func (s *Scope) FreshName() string {
	n := *s.nameSeq
	*s.nameSeq = n + 1
	return fmt.Sprintf("var_%d", n)
}

// Bind returns a new Scope with e visible under its type key, leaving s
// unmodified.
func (s *Scope) Bind(e Entry) *Scope {
	key := e.Type.String()
	existing, _ := s.byType.Get(key)
	updated := append(append([]Entry{}, existing...), e)
	next := *s
	next.byType = s.byType.Set(key, updated)
	if e.Mutable {
		next.mutables = append(append([]Entry{}, s.mutables...), e)
	}
	if isReferenceLike(e.Type) {
		next.references = append(append([]Entry{}, s.references...), e)
	}
	return &next
}

func isReferenceLike(t types.Type) bool {
	switch t.(type) {
	case *types.Pointer, *types.Reference:
		return true
	default:
		return false
	}
}

// ByType returns every visible entry whose type has the given canonical
// string. Type-level selection constraints (host-shareability, uniform
// compatibility) apply when a type is *chosen*, through
// TypeSelector.Select's SelectionFilter; by the time a binding of that
// type is looked up here it is already known to be eligible, so ByType
// takes no filter of its own.
func (s *Scope) ByType(typeKey string) []Entry {
	entries, _ := s.byType.Get(typeKey)
	return entries
}

// Mutables returns every var binding visible anywhere in the scope chain
// this Scope descends from.
func (s *Scope) Mutables() []Entry { return s.mutables }

// References returns every pointer/reference-typed binding visible in
// the scope chain this Scope descends from.
func (s *Scope) References() []Entry { return s.references }

package genscope

import (
	"fmt"
	"math/rand"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/types"
)

// Context is the module-wide generation state that outlives any single
// Scope: the struct registry (so a later function can reference an
// earlier-generated struct) and a pool of free function names. Unlike
// Scope it is not persistent — there is exactly one Context per
// generator run, mutated in place as declarations are emitted.
type Context struct {
	Structs   []*types.Struct
	fnNameSeq int
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{}
}

// RegisterStruct adds st to the registry so later TypeSelector weighting
// can pick it as a candidate field/parameter/return type.
func (c *Context) RegisterStruct(st *types.Struct) {
	c.Structs = append(c.Structs, st)
}

// FreshFunctionName returns a new, module-unique function name.
func (c *Context) FreshFunctionName() string {
	n := c.fnNameSeq
	c.fnNameSeq++
	return fmt.Sprintf("fn_%d", n)
}

// SelectionFilter constrains which candidate types TypeSelector.Select
// may draw, for contexts where WGSL's type rules disallow
// otherwise-valid types (storage and uniform bindings).
type SelectionFilter int

const (
	// Any accepts every candidate type.
	Any SelectionFilter = iota
	// HostShareable accepts only types storable in a storage buffer
	// (types.Type.IsHostShareable(); excludes bool).
	HostShareable
	// Uniform accepts only types a `var<uniform>` may carry: host-
	// shareable and additionally free of runtime-sized arrays and
	// atomics (types.Type.IsUniformBufferCompatible()).
	Uniform
)

func (f SelectionFilter) accepts(t types.Type) bool {
	switch f {
	case HostShareable:
		return t.IsHostShareable()
	case Uniform:
		return t.IsUniformBufferCompatible()
	default:
		return true
	}
}

// Weight pairs a candidate type with its relative selection probability.
type Weight struct {
	Type   types.Type
	Weight float64
}

// TypeSelector draws a random type from a weighted candidate set, biased
// toward scalars and vectors, the bulk of WGSL arithmetic.
type TypeSelector struct {
	scalars []Weight
	vectors []Weight
	structs []Weight
}

// NewTypeSelector builds the default candidate table: every concrete
// scalar type, vec2/3/4 of each, plus every struct registered so far.
func NewTypeSelector(ctx *Context) *TypeSelector {
	ts := &TypeSelector{}
	for _, s := range []*types.Scalar{types.Bool, types.I32, types.U32, types.F32} {
		ts.scalars = append(ts.scalars, Weight{Type: s, Weight: 4})
	}
	for _, s := range []*types.Scalar{types.I32, types.U32, types.F32} {
		for _, width := range []int{2, 3, 4} {
			ts.vectors = append(ts.vectors, Weight{Type: &types.Vector{Width: width, Element: s}, Weight: 1})
		}
	}
	for _, st := range ctx.Structs {
		ts.structs = append(ts.structs, Weight{Type: st, Weight: 1})
	}
	return ts
}

// Select draws one type from the candidate table matching filter, using
// rng for determinism. Returns nil if no candidate satisfies filter.
func (ts *TypeSelector) Select(rng *rand.Rand, filter SelectionFilter) types.Type {
	var pool []Weight
	pool = append(pool, ts.scalars...)
	pool = append(pool, ts.vectors...)
	pool = append(pool, ts.structs...)

	var candidates []Weight
	var total float64
	for _, w := range pool {
		if !filter.accepts(w.Type) {
			continue
		}
		candidates = append(candidates, w)
		total += w.Weight
	}
	if len(candidates) == 0 {
		return nil
	}

	pick := rng.Float64() * total
	for _, w := range candidates {
		if pick < w.Weight {
			return w.Type
		}
		pick -= w.Weight
	}
	return candidates[len(candidates)-1].Type
}


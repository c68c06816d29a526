// Package pipeline builds the Pipeline-description JSON the `reflect`
// subcommand prints: one entry per @group/@binding storage or uniform
// buffer that has a fixed size, with the byte size internal/reflect's layout computer derives
// and, where the declaration's initializer folds to a literal value,
// the concrete init bytes a harness would need to pre-populate the
// buffer with.
package pipeline

import (
	"encoding/binary"
	"fmt"
	"math"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/ast"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/concretize"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/reflect"
)

// Kind is the resource category the host pipeline must bind.
type Kind string

const (
	KindStorageBuffer Kind = "StorageBuffer"
	KindUniformBuffer Kind = "UniformBuffer"
)

// Resource describes one @group/@binding buffer resource.
type Resource struct {
	Kind    Kind   `json:"kind"`
	Group   uint32 `json:"group"`
	Binding uint32 `json:"binding"`
	Size    uint32 `json:"size"`
	Init    []byte `json:"init,omitempty"`
}

// Description is the stable JSON shape the reflect subcommand prints:
// { "resources": [ { "kind", "group", "binding", "size", "init"? } ] }.
type Description struct {
	Resources []Resource `json:"resources"`
}

// InvalidPipelineError reports a module whose buffer bindings cannot be
// turned into a pipeline description a host could bind.
type InvalidPipelineError struct {
	Reason string
}

func (e *InvalidPipelineError) Error() string {
	return fmt.Sprintf("invalid pipeline: %s", e.Reason)
}

// Build derives a Description from a parsed module. Every var decl in
// the storage or uniform address space must carry both @group and
// @binding, or the module cannot be bound and Build rejects it;
// handle-space bindings (textures, samplers) have no host-addressable
// size and are omitted, matching internal/reflect's own Layout == nil
// treatment of them.
func Build(module *ast.Module) (Description, error) {
	lc := reflect.NewLayoutComputer(module)
	desc := Description{Resources: []Resource{}}

	for _, decl := range module.Declarations {
		v, ok := decl.(*ast.VarDecl)
		if !ok {
			continue
		}
		if v.AddressSpace != ast.AddressSpaceStorage && v.AddressSpace != ast.AddressSpaceUniform {
			continue
		}
		group, binding, ok := groupBinding(v.Attributes)
		if !ok {
			name := ""
			if int(v.Name.InnerIndex) < len(module.Symbols) {
				name = module.Symbols[v.Name.InnerIndex].OriginalName
			}
			return Description{}, &InvalidPipelineError{
				Reason: fmt.Sprintf("buffer %q lacks @group/@binding attributes", name),
			}
		}
		layout := lc.ComputeTypeLayout(v.Type)
		if layout.Size <= 0 {
			// Runtime-sized storage arrays have no fixed size to report;
			// the pipeline description omits what it cannot size.
			continue
		}

		kind := KindStorageBuffer
		if v.AddressSpace == ast.AddressSpaceUniform {
			kind = KindUniformBuffer
		}

		res := Resource{
			Kind:    kind,
			Group:   uint32(group),
			Binding: uint32(binding),
			Size:    uint32(layout.Size),
		}
		if v.Initializer != nil {
			res.Init = initBytes(v.Initializer, layout.Size)
		}
		desc.Resources = append(desc.Resources, res)
	}

	return desc, nil
}

func groupBinding(attrs []ast.Attribute) (int, int, bool) {
	group, binding := -1, -1
	for _, a := range attrs {
		if len(a.Args) == 0 {
			continue
		}
		lit, ok := a.Args[0].(*ast.LiteralExpr)
		if !ok {
			continue
		}
		n := parseAttrInt(lit.Value)
		switch a.Name {
		case "group":
			group = n
		case "binding":
			binding = n
		}
	}
	if group < 0 || binding < 0 {
		return 0, 0, false
	}
	return group, binding, true
}

func parseAttrInt(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// initBytes folds expr to a concrete value and serializes it little-
// endian, padded with zero bytes to the resource's full size. It
// returns nil (no init emitted) rather than a partially-wrong buffer
// when the initializer does not fold to a literal.
func initBytes(expr ast.Expr, size int) []byte {
	v, ok := concretize.Eval(expr)
	if !ok {
		return nil
	}
	out := make([]byte, 0, size)
	out = appendValueBytes(out, v)
	if len(out) > size {
		out = out[:size]
	}
	for len(out) < size {
		out = append(out, 0)
	}
	return out
}

func appendValueBytes(out []byte, v concretize.Value) []byte {
	if v.IsVector() {
		for _, elem := range v.Elems {
			out = appendValueBytes(out, elem)
		}
		return out
	}
	var buf [4]byte
	switch v.Kind {
	case concretize.KindBool:
		if v.B {
			buf[0] = 1
		}
		return append(out, buf[0])
	case concretize.KindI32:
		binary.LittleEndian.PutUint32(buf[:], uint32(v.I))
	case concretize.KindU32:
		binary.LittleEndian.PutUint32(buf[:], v.U)
	case concretize.KindF32:
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v.F))
	}
	return append(out, buf[:]...)
}

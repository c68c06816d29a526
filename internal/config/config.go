// Package config handles loading fuzzgen run options from a TOML file.
//
// Options can be specified in a file named fuzzgen.toml or .fuzzgenrc.toml.
// The file is searched for in the current directory and parent directories.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ErrUnsupportedOption is returned when a config file sets an option that is
// declared but not implemented. module_scope_constants is reserved for a
// future generator mode; accepting it silently would make a fuzz run look
// configured when it was not.
var ErrUnsupportedOption = errors.New("config: unsupported option")

// Options controls the generator and reconditioner.
type Options struct {
	// FnMinStmts and FnMaxStmts bound the number of statements generated
	// per function body.
	FnMinStmts int
	FnMaxStmts int

	// MinStructMembers and MaxStructMembers bound struct field count.
	MinStructMembers int
	MaxStructMembers int

	// MaxExpressionDepth bounds expression tree nesting.
	MaxExpressionDepth int
	// MaxBlockDepth bounds nested block (if/loop/switch) depth.
	MaxBlockDepth int

	// Recondition runs the reconditioner pass over generator output
	// before it is written out.
	Recondition bool
	// LoopLimit is the iteration ceiling injected by the loop-limiters
	// feature; zero disables loop limiting.
	LoopLimit int

	// ConciseStageAttrs emits `@compute @workgroup_size(1)` on one line
	// instead of one attribute per line.
	ConciseStageAttrs bool

	// ModuleScopeConstants is reserved; always rejected by Validate.
	ModuleScopeConstants bool
}

// DefaultOptions returns the options a bare `fuzzgen generate` run uses.
func DefaultOptions() Options {
	return Options{
		FnMinStmts:         1,
		FnMaxStmts:         12,
		MinStructMembers:   1,
		MaxStructMembers:   6,
		MaxExpressionDepth: 8,
		MaxBlockDepth:      4,
		Recondition:        false,
		LoopLimit:          0,
		ConciseStageAttrs:  false,
	}
}

// Validate rejects option combinations this module declares but does not
// support.
func Validate(o Options) error {
	if o.ModuleScopeConstants {
		return ErrUnsupportedOption
	}
	return nil
}

// File mirrors Options but with every field optional, so a TOML document
// can set only the knobs it cares about; unset fields fall back to
// DefaultOptions() in ToOptions.
type File struct {
	FnMinStmts           *int  `toml:"fn_min_stmts"`
	FnMaxStmts           *int  `toml:"fn_max_stmts"`
	MinStructMembers     *int  `toml:"min_struct_members"`
	MaxStructMembers     *int  `toml:"max_struct_members"`
	MaxExpressionDepth   *int  `toml:"max_expression_depth"`
	MaxBlockDepth        *int  `toml:"max_block_depth"`
	Recondition          *bool `toml:"recondition"`
	LoopLimit            *int  `toml:"loop_limit"`
	ConciseStageAttrs    *bool `toml:"concise_stage_attrs"`
	ModuleScopeConstants *bool `toml:"module_scope_constants"`
}

// FileNames are searched for, in order of preference.
var FileNames = []string{
	"fuzzgen.toml",
	".fuzzgenrc.toml",
}

// Load searches for a config file starting from startDir and walking up to
// parent directories. Returns a nil *File if none is found.
func Load(startDir string) (*File, string, error) {
	dir := startDir
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				f, err := LoadFile(path)
				return f, path, err
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads a File from a specific path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ToOptions overlays f on top of DefaultOptions, leaving unset fields at
// their default.
func (f *File) ToOptions() Options {
	opts := DefaultOptions()
	if f == nil {
		return opts
	}
	if f.FnMinStmts != nil {
		opts.FnMinStmts = *f.FnMinStmts
	}
	if f.FnMaxStmts != nil {
		opts.FnMaxStmts = *f.FnMaxStmts
	}
	if f.MinStructMembers != nil {
		opts.MinStructMembers = *f.MinStructMembers
	}
	if f.MaxStructMembers != nil {
		opts.MaxStructMembers = *f.MaxStructMembers
	}
	if f.MaxExpressionDepth != nil {
		opts.MaxExpressionDepth = *f.MaxExpressionDepth
	}
	if f.MaxBlockDepth != nil {
		opts.MaxBlockDepth = *f.MaxBlockDepth
	}
	if f.Recondition != nil {
		opts.Recondition = *f.Recondition
	}
	if f.LoopLimit != nil {
		opts.LoopLimit = *f.LoopLimit
	}
	if f.ConciseStageAttrs != nil {
		opts.ConciseStageAttrs = *f.ConciseStageAttrs
	}
	if f.ModuleScopeConstants != nil {
		opts.ModuleScopeConstants = *f.ModuleScopeConstants
	}
	return opts
}

// CLIOverrides carries flags explicitly set on the command line; nil
// pointers mean "not specified" and fall through to the file/default.
type CLIOverrides struct {
	Recondition       *bool
	LoopLimit         *int
	ConciseStageAttrs *bool
}

// Merge combines a loaded file with CLI overrides, CLI taking precedence.
func (f *File) Merge(cli CLIOverrides) Options {
	opts := f.ToOptions()
	if cli.Recondition != nil {
		opts.Recondition = *cli.Recondition
	}
	if cli.LoopLimit != nil {
		opts.LoopLimit = *cli.LoopLimit
	}
	if cli.ConciseStageAttrs != nil {
		opts.ConciseStageAttrs = *cli.ConciseStageAttrs
	}
	return opts
}

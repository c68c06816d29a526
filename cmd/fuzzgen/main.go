// Command fuzzgen generates random, well-typed WGSL compute shaders and
// recondition rewrites them to replace undefined-behavior-prone
// operations with guarded safe-wrapper calls.
//
// Usage:
//
//	fuzzgen generate [--seed N] [--options file] [-o file]
//	fuzzgen recondition [--enable loop-limiters] [-o file] <input.wgsl>
//	fuzzgen fmt [-o file] <input.wgsl>
//	fuzzgen reflect [-o file] <input.wgsl>
//	fuzzgen exec <server-addr> <metadata> [shader.wgsl]
//	fuzzgen serve --dawn <harness-bin> [--wgpu <harness-bin>]
//
// Every subcommand reads its one input path, or stdin when it is "-" or
// omitted, and writes its one output path, or stdout when -o is "-" or
// omitted. Exit code 0 means success, 1 means the input was rejected
// (parse errors, an aliasing hazard, or a buffer `reflect` cannot
// describe), 2 means an internal error.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"codeberg.org/saruga/wgsl-fuzzgen/internal/config"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/gen"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/parser"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/pipeline"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/recondition"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/reflect"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/rpcserver"
	"codeberg.org/saruga/wgsl-fuzzgen/internal/writer"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// exitCode distinguishes a rejected input from an internal failure so
// main can set os.Exit accordingly without every subcommand reaching
// for os.Exit itself.
type exitCode struct {
	code int
	err  error
}

func (e *exitCode) Error() string { return e.err.Error() }

func rejected(err error) error { return &exitCode{code: 1, err: err} }
func internal(err error) error { return &exitCode{code: 2, err: err} }

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		code := 2
		if ec, ok := err.(*exitCode); ok {
			code = ec.code
		}
		log.Error().Err(err).Msg("fuzzgen failed")
		os.Exit(code)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fuzzgen",
		Short:         "Generate and recondition random WGSL compute shaders",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newGenerateCmd(),
		newReconditionCmd(),
		newFmtCmd(),
		newReflectCmd(),
		newExecCmd(),
		newServeCmd(),
	)
	return root
}

// loadOptions resolves run options the same way every subcommand does:
// an optional --options TOML file overlaid with defaults, then any
// CLI overrides the caller already parsed.
func loadOptions(optionsPath string, cli config.CLIOverrides) (config.Options, error) {
	var file *config.File
	if optionsPath != "" {
		f, err := config.LoadFile(optionsPath)
		if err != nil {
			return config.Options{}, internal(fmt.Errorf("loading options file %s: %w", optionsPath, err))
		}
		file = f
	} else {
		f, _, err := config.Load(".")
		if err != nil {
			return config.Options{}, internal(fmt.Errorf("loading config: %w", err))
		}
		file = f
	}
	opts := file.Merge(cli)
	if err := config.Validate(opts); err != nil {
		return config.Options{}, internal(err)
	}
	return opts, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newGenerateCmd() *cobra.Command {
	var (
		seed        int64
		optionsPath string
		output      string
		recond      bool
		loopLimit   int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random, well-typed WGSL module",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := config.CLIOverrides{}
			if cmd.Flags().Changed("enable-recondition") {
				cli.Recondition = &recond
			}
			if cmd.Flags().Changed("loop-limit") {
				cli.LoopLimit = &loopLimit
			}
			opts, err := loadOptions(optionsPath, cli)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("seed") {
				seed = int64(os.Getpid())
			}
			log.Info().Int64("seed", seed).Msg("generating module")

			module, err := gen.Generate(uint64(seed), opts)
			if err != nil {
				return internal(fmt.Errorf("generating module: %w", err))
			}

			loopCount := 0
			if opts.Recondition {
				result, err := recondition.Recondition(module, opts)
				if err != nil {
					if err == recondition.ErrAliasingRejected {
						return rejected(err)
					}
					return internal(fmt.Errorf("reconditioning generated module: %w", err))
				}
				module = result.Module
				loopCount = result.LoopCount
			}

			w := writer.New(module.Symbols)
			w.ConciseStageAttrs = opts.ConciseStageAttrs
			out := w.Print(module)
			if loopCount > 0 {
				log.Info().Int("loop_counters", loopCount).Msg("loop limiters injected")
			}
			return writeOutput(output, []byte(out))
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "PRNG seed (default: process id)")
	cmd.Flags().StringVar(&optionsPath, "options", "", "Path to a fuzzgen.toml options file")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, or - for stdout")
	cmd.Flags().BoolVar(&recond, "enable-recondition", false, "Recondition the generated module before printing")
	cmd.Flags().IntVar(&loopLimit, "loop-limit", 0, "Loop-limiter iteration ceiling (0 disables)")
	return cmd
}

func newReconditionCmd() *cobra.Command {
	var (
		output      string
		optionsPath string
		enable      []string
		loopLimit   int
	)
	cmd := &cobra.Command{
		Use:   "recondition [input.wgsl]",
		Short: "Rewrite undefined-behavior-prone operations into safe wrapper calls",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			source, err := readInput(input)
			if err != nil {
				return internal(fmt.Errorf("reading input: %w", err))
			}

			p := parser.New(string(source))
			module, errs := p.Parse()
			if len(errs) > 0 {
				for _, e := range errs {
					log.Error().Str("message", e.Message).Msg("parse error")
				}
				return rejected(fmt.Errorf("parsing input: %d error(s)", len(errs)))
			}

			cli := config.CLIOverrides{}
			for _, feature := range enable {
				if feature == "loop-limiters" {
					if loopLimit <= 0 {
						loopLimit = 1
					}
					cli.LoopLimit = &loopLimit
				}
			}
			opts, err := loadOptions(optionsPath, cli)
			if err != nil {
				return err
			}

			result, err := recondition.Recondition(module, opts)
			if err != nil {
				if err == recondition.ErrAliasingRejected {
					return rejected(err)
				}
				return internal(fmt.Errorf("reconditioning input: %w", err))
			}
			if result.LoopCount > 0 {
				log.Info().Int("loop_counters", result.LoopCount).Msg("loop limiters injected")
			}

			w := writer.New(result.Module.Symbols)
			w.ConciseStageAttrs = opts.ConciseStageAttrs
			return writeOutput(output, []byte(w.Print(result.Module)))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, or - for stdout")
	cmd.Flags().StringVar(&optionsPath, "options", "", "Path to a fuzzgen.toml options file")
	cmd.Flags().StringSliceVar(&enable, "enable", nil, "Enable an optional feature (repeatable); supported: loop-limiters")
	cmd.Flags().IntVar(&loopLimit, "loop-limit", 0, "Loop-limiter iteration ceiling used by --enable loop-limiters")
	return cmd
}

func newFmtCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "fmt [input.wgsl]",
		Short: "Parse and pretty-print a WGSL module unchanged",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			source, err := readInput(input)
			if err != nil {
				return internal(fmt.Errorf("reading input: %w", err))
			}

			p := parser.New(string(source))
			module, errs := p.Parse()
			if len(errs) > 0 {
				for _, e := range errs {
					log.Error().Str("message", e.Message).Msg("parse error")
				}
				return rejected(fmt.Errorf("parsing input: %d error(s)", len(errs)))
			}

			w := writer.New(module.Symbols)
			return writeOutput(output, []byte(w.Print(module)))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, or - for stdout")
	return cmd
}

func newReflectCmd() *cobra.Command {
	var output string
	var full bool
	cmd := &cobra.Command{
		Use:   "reflect [input.wgsl]",
		Short: "Emit the storage/uniform buffer pipeline description as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			source, err := readInput(input)
			if err != nil {
				return internal(fmt.Errorf("reading input: %w", err))
			}

			p := parser.New(string(source))
			module, errs := p.Parse()
			if len(errs) > 0 {
				for _, e := range errs {
					log.Error().Str("message", e.Message).Msg("parse error")
				}
				return rejected(fmt.Errorf("parsing input: %d error(s)", len(errs)))
			}

			var data []byte
			if full {
				data, err = json.MarshalIndent(reflect.ReflectModule(module), "", "  ")
			} else {
				desc, berr := pipeline.Build(module)
				if berr != nil {
					return rejected(berr)
				}
				data, err = json.MarshalIndent(desc, "", "  ")
			}
			if err != nil {
				return internal(fmt.Errorf("marshaling reflection output: %w", err))
			}
			data = append(data, '\n')
			return writeOutput(output, data)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, or - for stdout")
	cmd.Flags().BoolVar(&full, "full", false, "Emit the full binding/struct/entry-point reflection instead of the pipeline description")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		addr        string
		concurrency int
		workDir     string
		dawnCmd     string
		wgpuCmd     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the harness RPC server, executing submitted shaders through a backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			var configs []rpcserver.Config
			if dawnCmd != "" {
				configs = append(configs, rpcserver.Config{Backend: rpcserver.BackendDawn, Command: dawnCmd})
			}
			if wgpuCmd != "" {
				configs = append(configs, rpcserver.Config{Backend: rpcserver.BackendWGPU, Command: wgpuCmd})
			}
			if len(configs) == 0 {
				return internal(fmt.Errorf("no backend configured; pass --dawn and/or --wgpu"))
			}

			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return internal(fmt.Errorf("listen on %s: %w", addr, err))
			}
			log.Info().Str("addr", listener.Addr().String()).Int("concurrency", concurrency).Msg("harness server listening")

			srv := rpcserver.New(listener, configs, concurrency, workDir, log)
			if err := srv.Serve(cmd.Context()); err != nil {
				return internal(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8123", "Address to listen on")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Maximum concurrent harness child processes")
	cmd.Flags().StringVar(&workDir, "work-dir", os.TempDir(), "Base directory for per-request scratch files")
	cmd.Flags().StringVar(&dawnCmd, "dawn", "", "Harness executable for the dawn backend")
	cmd.Flags().StringVar(&wgpuCmd, "wgpu", "", "Harness executable for the wgpu backend")
	return cmd
}

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <server-addr> <metadata> [shader.wgsl]",
		Short: "Submit a shader to a running harness RPC server",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, metadata := args[0], args[1]
			shaderPath := ""
			if len(args) > 2 {
				shaderPath = args[2]
			}
			if _, _, err := net.SplitHostPort(addr); err != nil {
				return internal(fmt.Errorf("invalid server address %q: %w", addr, err))
			}

			shader, err := readInput(shaderPath)
			if err != nil {
				return internal(fmt.Errorf("reading shader: %w", err))
			}

			reply, err := rpcserver.Exec(addr, metadata, shader)
			if err != nil {
				return internal(fmt.Errorf("exec against %s: %w", addr, err))
			}
			fmt.Println(reply)
			return nil
		},
	}
	return cmd
}


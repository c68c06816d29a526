// Package rpcserver implements the harness RPC server:
// a binary, length-prefixed protocol where a client writes a metadata
// string line, a shader-byte-length line, and the shader bytes, and the
// server replies with one ASCII line carrying the child harness
// process's exit code. A bounded worker pool runs at most one harness
// child process per accepted connection at a time.
package rpcserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/JekaMas/workerpool"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Backend names a native shader backend the harness can run against.
type Backend string

const (
	BackendDawn Backend = "dawn"
	BackendWGPU Backend = "wgpu"
)

// listCommand is the bare line that triggers a list of configured
// backend names instead of a shader run.
const listCommand = "LIST"

// Config configures one harness backend: the executable the server
// spawns to actually run a shader, given a metadata file and a shader
// file path as its two arguments.
type Config struct {
	Backend Backend
	Command string
	Args    []string
}

// Server accepts harness RPC connections and runs each shader through
// the configured backend's child process.
type Server struct {
	listener net.Listener
	pool     *workerpool.WorkerPool
	log      zerolog.Logger
	backends map[Backend]Config
	workDir  string
	timeout  time.Duration
}

// New creates a Server listening on listener, dispatching to the given
// backend configs, and running at most concurrency harness child
// processes at once. workDir is the base directory each request's
// scratch shader file is written under, named by its request id.
func New(listener net.Listener, configs []Config, concurrency int, workDir string, log zerolog.Logger) *Server {
	backends := make(map[Backend]Config, len(configs))
	for _, c := range configs {
		backends[c.Backend] = c
	}
	return &Server{
		listener: listener,
		pool:     workerpool.New(concurrency),
		log:      log,
		backends: backends,
		workDir:  workDir,
		timeout:  30 * time.Second,
	}
}

// Serve accepts connections until the listener is closed or ctx is
// cancelled, submitting each to the worker pool so no more than
// concurrency requests run a child process simultaneously.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.pool.StopWait()
				return nil
			default:
				return fmt.Errorf("rpcserver: accept: %w", err)
			}
		}
		id := uuid.New()
		s.pool.Submit(ctx, func() error {
			if err := s.handle(ctx, id, conn); err != nil {
				s.log.Error().Str("request_id", id.String()).Err(err).Msg("harness request failed")
			}
			return nil
		}, 0)
	}
}

// Close stops accepting new connections and waits for in-flight
// requests to finish.
func (s *Server) Close() error {
	s.pool.StopWait()
	return s.listener.Close()
}

func (s *Server) handle(ctx context.Context, id uuid.UUID, conn net.Conn) error {
	defer conn.Close()
	logger := s.log.With().Str("request_id", id.String()).Logger()
	reader := bufio.NewReader(conn)

	metadata, err := readLine(reader)
	if err != nil {
		return fmt.Errorf("read metadata line: %w", err)
	}

	if strings.TrimSpace(metadata) == listCommand {
		logger.Info().Msg("list request")
		_, err := fmt.Fprintln(conn, s.backendList())
		return err
	}

	lengthLine, err := readLine(reader)
	if err != nil {
		return fmt.Errorf("read shader length line: %w", err)
	}
	length, err := strconv.Atoi(strings.TrimSpace(lengthLine))
	if err != nil || length < 0 {
		return fmt.Errorf("invalid shader length %q: %w", lengthLine, err)
	}

	shader := make([]byte, length)
	if _, err := io.ReadFull(reader, shader); err != nil {
		return fmt.Errorf("read shader bytes: %w", err)
	}

	logger.Info().Str("metadata", metadata).Int("shader_bytes", length).Msg("running harness")
	code, err := s.run(ctx, id, Backend(strings.TrimSpace(metadata)), shader)
	if err != nil {
		logger.Error().Err(err).Msg("harness run failed")
		code = 2
	}

	_, werr := fmt.Fprintln(conn, code)
	return werr
}

func (s *Server) backendList() string {
	names := make([]string, 0, len(s.backends))
	for b := range s.backends {
		names = append(names, string(b))
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// run writes shader to a scratch file under a per-request directory and
// runs the matching backend's child process against it, returning the
// child's exit code.
func (s *Server) run(ctx context.Context, id uuid.UUID, backend Backend, shader []byte) (int, error) {
	cfg, ok := s.backends[backend]
	if !ok {
		return 0, fmt.Errorf("unconfigured backend %q", backend)
	}

	dir := filepath.Join(s.workDir, id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	shaderPath := filepath.Join(dir, "shader.wgsl")
	if err := os.WriteFile(shaderPath, shader, 0o644); err != nil {
		return 0, fmt.Errorf("write shader file: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := append(append([]string{}, cfg.Args...), shaderPath)
	cmd := exec.CommandContext(runCtx, cfg.Command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 0, err
	}
	return 0, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Exec dials addr and runs the client half of the harness RPC protocol:
// it writes metadata, then the shader's length, then the shader bytes,
// and returns the single ASCII exit-code line the server sends back.
// This backs the `exec <server-addr> <metadata> [shader.wgsl]` CLI
// subcommand, which passes its metadata argument through as given.
func Exec(addr, metadata string, shader []byte) (string, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, metadata); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if _, err := fmt.Fprintln(conn, len(shader)); err != nil {
		return "", fmt.Errorf("write shader length: %w", err)
	}
	if _, err := conn.Write(shader); err != nil {
		return "", fmt.Errorf("write shader bytes: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return "", fmt.Errorf("read reply: %w", err)
	}
	return strings.TrimRight(reply, "\r\n"), nil
}

package layer2kml

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Converter defines the behaviour required by the export stage.
type Converter interface {
	Convert(ctx context.Context, req Request) error
}

// Request describes one definition-to-KMZ conversion.
type Request struct {
	DefinitionPath string
	OutputPath     string
}

// Params carries the render parameters forwarded to the toolkit.
type Params struct {
	Format       string
	DataSource   string
	Extent       string
	ImageSize    int
	DPI          int
	AltitudeMode string
	Composite    bool
	Simplify     float64
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps the external layer2kml CLI.
type Client struct {
	binary  string
	params  Params
	timeout time.Duration
	exec    Executor
}

// New constructs a toolkit client.
func New(binary string, params Params, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("converter binary required")
	}
	client := &Client{
		binary:  binary,
		params:  params,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Convert executes the toolkit for a single definition and verifies that the
// expected artifact was written.
func (c *Client) Convert(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.DefinitionPath) == "" {
		return errors.New("definition path required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("output path required")
	}

	convertCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		convertCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.exec.Run(convertCtx, c.binary, c.buildArgs(req), nil); err != nil {
		return fmt.Errorf("convert %s: %w", req.DefinitionPath, err)
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("toolkit produced no output for %s", req.DefinitionPath)
		}
		return fmt.Errorf("inspect output: %w", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(req.OutputPath)
		return fmt.Errorf("toolkit produced an empty package for %s", req.DefinitionPath)
	}
	return nil
}

func (c *Client) buildArgs(req Request) []string {
	p := c.params
	args := []string{"--layer", req.DefinitionPath, "--output", req.OutputPath}
	if format := strings.TrimSpace(p.Format); format != "" {
		args = append(args, "--format", format)
	}
	if ds := strings.TrimSpace(p.DataSource); ds != "" {
		args = append(args, "--datasource", ds)
	}
	if extent := strings.TrimSpace(p.Extent); extent != "" {
		args = append(args, "--extent", extent)
	}
	if p.ImageSize > 0 {
		args = append(args, "--image-size", strconv.Itoa(p.ImageSize))
	}
	if p.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(p.DPI))
	}
	if mode := strings.TrimSpace(p.AltitudeMode); mode != "" {
		args = append(args, "--altitude-mode", mode)
	}
	if !p.Composite {
		args = append(args, "--no-composite")
	}
	if p.Simplify > 0 {
		args = append(args, "--simplify", strconv.FormatFloat(p.Simplify, 'f', -1, 64))
	}
	return args
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	// Retain the tail of stderr so conversion failures carry toolkit detail.
	var tail []string
	var tailMu sync.Mutex

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	forwardOut := func(line string) {
		if onStdout != nil {
			onStdout(line)
		}
	}
	forwardErr := func(line string) {
		tailMu.Lock()
		tail = append(tail, line)
		if len(tail) > 5 {
			tail = tail[len(tail)-5:]
		}
		tailMu.Unlock()
	}

	wg.Add(2)
	go scan(stdout, forwardOut)
	go scan(stderr, forwardErr)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		tailMu.Lock()
		detail := strings.Join(tail, "; ")
		tailMu.Unlock()
		if detail != "" {
			return fmt.Errorf("wait command: %w (%s)", err, detail)
		}
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

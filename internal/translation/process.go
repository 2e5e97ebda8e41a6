package translation

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

const DefaultLocalBinary = "translateLocally"

// Runner executes the local translation engine.
type Runner interface {
	// ListModels returns the combined output of the model listing command.
	ListModels(ctx context.Context) (string, error)
	// Run translates text with one model.
	Run(ctx context.Context, modelID, text string) (string, error)
}

// ExecRunner spawns the engine binary once per call.
type ExecRunner struct {
	path   string
	logger zerolog.Logger
}

// NewExecRunner resolves binary on PATH. A missing binary is an error.
func NewExecRunner(binary string, logger zerolog.Logger) (*ExecRunner, error) {
	name := strings.TrimSpace(binary)
	if name == "" {
		name = DefaultLocalBinary
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s is not installed or not in PATH: %w", name, err)
	}
	return &ExecRunner{path: path, logger: logger}, nil
}

func (r *ExecRunner) Path() string {
	return r.path
}

func (r *ExecRunner) ListModels(ctx context.Context) (string, error) {
	output, err := exec.CommandContext(ctx, r.path, "-l").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("list models: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// Run writes text and a newline to the child's stdin and closes it before
// draining stdout line by line until end of stream.
func (r *ExecRunner) Run(ctx context.Context, modelID, text string) (string, error) {
	cmd := exec.CommandContext(ctx, r.path, "-m", modelID)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("open stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("open stdout: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start %s: %w", r.path, err)
	}
	r.logger.Debug().Str("model", modelID).Int("pid", cmd.Process.Pid).Msg("local engine started")

	_, writeErr := io.WriteString(stdin, text+"\n")
	closeErr := stdin.Close()
	if writeErr != nil || closeErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		if writeErr == nil {
			writeErr = closeErr
		}
		return "", fmt.Errorf("write input: %w", writeErr)
	}

	output, readErr := collectLines(ctx, stdout)
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if readErr != nil {
		return "", fmt.Errorf("read output: %w", readErr)
	}
	if waitErr != nil {
		return "", fmt.Errorf("model %s: %w: %s", modelID, waitErr, strings.TrimSpace(stderr.String()))
	}

	r.logger.Debug().Str("model", modelID).Int("exit_code", cmd.ProcessState.ExitCode()).Msg("local engine finished")
	return output, nil
}

type lineEvent struct {
	line string
	err  error
	eof  bool
}

// collectLines awaits the next line or end of stream from a reader goroutine,
// skipping noise, and joins what remains.
func collectLines(ctx context.Context, stream io.Reader) (string, error) {
	events := make(chan lineEvent)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		scanner := bufio.NewScanner(stream)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case events <- lineEvent{line: scanner.Text()}:
			case <-stop:
				return
			}
		}
		select {
		case events <- lineEvent{err: scanner.Err(), eof: true}:
		case <-stop:
		}
	}()

	lines := make([]string, 0, 4)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case event := <-events:
			if event.eof {
				if event.err != nil {
					return "", event.err
				}
				return strings.TrimSpace(strings.Join(lines, "\n")), nil
			}
			if isNoise(event.line) {
				continue
			}
			lines = append(lines, event.line)
		}
	}
}

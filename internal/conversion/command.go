package conversion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/common"
)

// stderrExcerptLimit bounds the stderr tail carried into error messages
const stderrExcerptLimit = 4096

// ConversionError reports a converter subprocess that exited non-zero
type ConversionError struct {
	Converter string
	ExitCode  int
	Stderr    string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s failed to execute (exit code: %d): %s", e.Converter, e.ExitCode, e.Stderr)
}

// driver is the shared subprocess skeleton of the external converters:
// argv = [executable] ++ shlex(stepArgs) ++ shlex(configArgs) ++ fixed,
// cwd = workspace, input on stdin, output from stdout
type driver struct {
	name       string
	executable string
	configArgs []string
	timeout    time.Duration
	logger     arbor.ILogger
}

func newDriver(name string, config common.ExternalConfig, logger arbor.ILogger) (*driver, error) {
	configArgs, err := shellwords.Parse(config.Args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s args %q: %w", name, config.Args, err)
	}
	executable := config.Executable
	if executable == "" {
		executable = name
	}
	return &driver{
		name:       name,
		executable: executable,
		configArgs: configArgs,
		timeout:    config.CommandTimeout(),
		logger:     logger,
	}, nil
}

// argv assembles the full argument vector for one invocation
func (d *driver) argv(stepArgs string, fixed ...string) ([]string, error) {
	templateArgs, err := shellwords.Parse(stepArgs)
	if err != nil {
		return nil, fmt.Errorf("failed to parse step args %q: %w", stepArgs, err)
	}
	argv := make([]string, 0, 1+len(templateArgs)+len(d.configArgs)+len(fixed))
	argv = append(argv, d.executable)
	argv = append(argv, templateArgs...)
	argv = append(argv, d.configArgs...)
	argv = append(argv, fixed...)
	return argv, nil
}

// run spawns the converter in workdir, feeding input to stdin and
// collecting stdout. The child dies with the context, so a job timeout
// never leaves a converter behind for the next job to trip over.
func (d *driver) run(ctx context.Context, workdir string, argv []string, input []byte) ([]byte, error) {
	runCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = workdir
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.logger.Debug().
		Str("converter", d.name).
		Str("command", strings.Join(argv, " ")).
		Msg("Running converter")

	err := cmd.Run()
	if err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("%s interrupted: %w", d.name, runCtx.Err())
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("failed to run %s: %w", d.name, err)
		}
		return nil, &ConversionError{
			Converter: d.name,
			ExitCode:  exitCode,
			Stderr:    stderrExcerpt(stderr.Bytes()),
		}
	}
	return stdout.Bytes(), nil
}

// stderrExcerpt decodes stderr lossily and keeps the tail, which is where
// converters put the actual failure reason
func stderrExcerpt(raw []byte) string {
	text := strings.ToValidUTF8(string(raw), "�")
	text = strings.TrimSpace(text)
	if len(text) > stderrExcerptLimit {
		text = text[len(text)-stderrExcerptLimit:]
	}
	return text
}

package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sevigo/code-lens/internal/core"
)

const maxStderrBytes = 64 << 10

// fileModeScript runs the model with the prompt file's contents as a single
// argument. Paths and names are passed positionally so nothing is interpolated
// into the script text.
const fileModeScript = `exec "$0" run "$1" "$(cat "$2")"`

var errOutputLimit = errors.New("output limit exceeded")

// OllamaExec runs `ollama run <model>` as a subprocess.
type OllamaExec struct {
	command   string
	model     string
	viaFile   bool
	maxOutput int64
	tempDir   string
	runner    CommandRunner
	logger    *slog.Logger
}

// OllamaExecOption customizes an OllamaExec provider.
type OllamaExecOption func(*OllamaExec)

// WithPromptFile hands the prompt over through a temporary file instead of
// stdin. The file lives in dir (os.TempDir when empty) and is removed before
// Review returns.
func WithPromptFile(dir string) OllamaExecOption {
	return func(o *OllamaExec) {
		o.viaFile = true
		o.tempDir = dir
	}
}

// WithRunner replaces the process runner.
func WithRunner(r CommandRunner) OllamaExecOption {
	return func(o *OllamaExec) { o.runner = r }
}

// NewOllamaExec creates a provider that invokes command with model. Output
// beyond maxOutput bytes fails the attempt.
func NewOllamaExec(command, model string, maxOutput int64, logger *slog.Logger, opts ...OllamaExecOption) *OllamaExec {
	o := &OllamaExec{
		command:   command,
		model:     model,
		maxOutput: maxOutput,
		runner:    ExecRunner{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *OllamaExec) Name() string { return "ollama-exec" }

func (o *OllamaExec) Tier() core.Tier { return core.TierLocal }

func (o *OllamaExec) Review(ctx context.Context, prompt core.Prompt) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	name, args, stdin, cleanup, err := o.invocation(prompt.User)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrLocalInvocation, err)
	}
	defer cleanup()

	stdout := newCappedBuffer(o.maxOutput, cancel)
	stderr := newCappedBuffer(maxStderrBytes, nil)

	o.logger.Debug("executing local model", "command", o.command, "model", o.model, "via_file", o.viaFile)
	runErr := o.runner.Run(ctx, name, args, stdin, stdout, stderr)

	switch {
	case stdout.overflowed:
		return "", fmt.Errorf("%w: %s produced more than %d bytes: %w", core.ErrLocalInvocation, o.command, o.maxOutput, errOutputLimit)
	case runErr != nil && ctx.Err() != nil:
		return "", fmt.Errorf("%w: %s run %s did not finish: %w", core.ErrLocalInvocation, o.command, o.model, context.Cause(ctx))
	case runErr != nil:
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return "", fmt.Errorf("%w: %w: %s", core.ErrLocalInvocation, runErr, detail)
		}
		return "", fmt.Errorf("%w: %w", core.ErrLocalInvocation, runErr)
	}

	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: %s run %s returned no output", core.ErrLocalInvocation, o.command, o.model)
	}
	return out, nil
}

// invocation returns the command line for one attempt. cleanup is never nil
// and must run on every exit path.
func (o *OllamaExec) invocation(input string) (string, []string, io.Reader, func(), error) {
	if !o.viaFile {
		return o.command, []string{"run", o.model}, strings.NewReader(input), func() {}, nil
	}

	path, cleanup, err := writePromptFile(o.tempDir, input)
	if err != nil {
		return "", nil, nil, func() {}, err
	}
	return "sh", []string{"-c", fileModeScript, o.command, o.model, path}, nil, cleanup, nil
}

func writePromptFile(dir, content string) (string, func(), error) {
	f, err := os.CreateTemp(dir, "code_to_review_*.txt")
	if err != nil {
		return "", nil, fmt.Errorf("creating prompt file: %w", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing prompt file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing prompt file: %w", err)
	}
	return path, cleanup, nil
}

// cappedBuffer keeps at most limit bytes. Once the limit is crossed it records
// the overflow, calls onOverflow and silently drops the rest so the writer
// never blocks the child process.
type cappedBuffer struct {
	buf        bytes.Buffer
	limit      int64
	overflowed bool
	onOverflow func()
}

func newCappedBuffer(limit int64, onOverflow func()) *cappedBuffer {
	return &cappedBuffer{limit: limit, onOverflow: onOverflow}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.overflowed {
		return len(p), nil
	}
	room := b.limit - int64(b.buf.Len())
	if int64(len(p)) > room {
		b.buf.Write(p[:room])
		b.overflowed = true
		if b.onOverflow != nil {
			b.onOverflow()
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}

package llm

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// CommandRunner runs an external command. It exists so the local invocation
// path can be tested without spawning processes.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// ExecRunner runs commands with os/exec. The process is killed when ctx is
// done; output pipes are force-closed waitDelay later.
type ExecRunner struct {
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = 2 * time.Second
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command failed: %s: %w", name, err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/sevigo/code-lens/internal/client"
	"github.com/sevigo/code-lens/internal/config"
	"github.com/sevigo/code-lens/internal/core"
	"github.com/sevigo/code-lens/internal/wire"
)

var (
	reviewLanguage string
	reviewRaw      bool
	verbose        bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [file|-]",
	Short: "Review a source file",
	Long: `Review a source file and print the result as rendered markdown.

Without --server the review runs in-process, trying the configured remote
provider first and the local Ollama model after it. With --server the code is
sent to a running Code-Lens server instead.

Examples:
  lens-cli review main.go
  cat app.py | lens-cli review --language python
  lens-cli review --server http://localhost:3000 src/index.ts`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().StringVarP(&reviewLanguage, "language", "l", "", "Language label (inferred from the file extension when empty)")
	reviewCmd.Flags().BoolVar(&reviewRaw, "raw", false, "Print the review as plain markdown")
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	rootCmd.AddCommand(reviewCmd)
}

type reviewFunc func(ctx context.Context, code, language string) (string, error)

// stepTimer tracks timing for verbose output
type stepTimer struct {
	out        io.Writer
	stepNum    int
	totalSteps int
	start      time.Time
	verbose    bool
}

func newStepTimer(out io.Writer, totalSteps int, verbose bool) *stepTimer {
	return &stepTimer{out: out, totalSteps: totalSteps, verbose: verbose}
}

func (t *stepTimer) step(name string) {
	t.stepNum++
	t.start = time.Now()
	if t.verbose {
		titleColor.Fprintf(t.out, "\n🔧 Step %d/%d: %s...\n", t.stepNum, t.totalSteps, name)
	}
}

func (t *stepTimer) done(details ...string) {
	if t.verbose {
		elapsed := time.Since(t.start).Round(time.Millisecond)
		successColor.Fprintf(t.out, "   ✓ Done (%s)\n", elapsed)
		for _, d := range details {
			dimColor.Fprintf(t.out, "   └── %s\n", d)
		}
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	name := "-"
	if len(args) == 1 {
		name = args[0]
	}

	timer := newStepTimer(cmd.ErrOrStderr(), 2, verbose)

	timer.step("Reading source")
	code, err := readSource(cmd.InOrStdin(), name)
	if err != nil {
		return err
	}
	language := reviewLanguage
	if language == "" {
		language = core.LanguageForFile(name)
	}
	timer.done(fmt.Sprintf("%d bytes, language %q", len(code), language))

	review, cleanup, err := newReviewFunc(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	timer.step("Generating review")
	text, err := review(ctx, code, language)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			return errors.New("code is required: the input is empty")
		}
		return fmt.Errorf("failed to review code: %w", err)
	}
	timer.done()

	return printReview(cmd.OutOrStdout(), text, reviewRaw)
}

// newReviewFunc returns a function that reviews through the server when one is
// configured and in-process otherwise.
func newReviewFunc(ctx context.Context) (reviewFunc, func(), error) {
	if server := remoteServer(); server != "" {
		c := client.New(server, nil)
		return c.Review, func() {}, nil
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	// stdout carries the review.
	if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}

	reviewer, cleanup, err := wire.InitializeReviewer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize reviewer: %w", err)
	}
	return reviewer.SubmitReview, cleanup, nil
}

func readSource(stdin io.Reader, name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

func printReview(out io.Writer, text string, raw bool) error {
	if !raw {
		rendered, err := renderMarkdown(text)
		if err == nil {
			text = rendered
		}
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(out, text)
	return err
}

func renderMarkdown(text string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", err
	}
	return r.Render(text)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/code-lens/internal/config"
)

const doctorProbeTimeout = 3 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Checks that the configured review providers are usable",
	Long: `Checks the local setup: the configuration, the ollama command, the Ollama
HTTP endpoint and its models, and whether a remote API key is configured.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			errorColor.Fprintf(cmd.OutOrStdout(), "✗ configuration: %v\n", err)
			return err
		}

		d := &doctor{
			cfg:      cfg,
			http:     &http.Client{Timeout: doctorProbeTimeout},
			lookPath: exec.LookPath,
		}
		results := d.run(cmd.Context())
		return report(cmd.OutOrStdout(), results)
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(doctorCmd)
}

type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
)

type checkResult struct {
	Name   string
	Status checkStatus
	Detail string
}

type doctor struct {
	cfg      *config.Config
	http     *http.Client
	lookPath func(string) (string, error)
}

func (d *doctor) run(ctx context.Context) []checkResult {
	results := []checkResult{d.checkRemote()}

	mode := d.cfg.Local.Mode
	if mode == config.LocalModeExec || mode == config.LocalModeAuto {
		results = append(results, d.checkCommand())
	}
	// The endpoint is probed in every mode; `ollama run` talks to it as well.
	results = append(results, d.checkEndpoint(ctx))
	return results
}

func (d *doctor) checkRemote() checkResult {
	if !d.cfg.Remote.HasRemote() {
		return checkResult{Name: "remote provider", Status: checkWarn, Detail: "no API key set, reviews use the local model only"}
	}
	var names []string
	if d.cfg.Remote.OpenAIAPIKey != "" {
		names = append(names, "openai ("+d.cfg.Remote.OpenAIModel+")")
	}
	if d.cfg.Remote.GeminiAPIKey != "" {
		names = append(names, "gemini ("+d.cfg.Remote.GeminiModel+")")
	}
	return checkResult{Name: "remote provider", Status: checkOK, Detail: strings.Join(names, ", ")}
}

func (d *doctor) checkCommand() checkResult {
	path, err := d.lookPath(d.cfg.Local.Command)
	if err != nil {
		return checkResult{Name: "ollama command", Status: checkFail, Detail: fmt.Sprintf("%q not found on PATH", d.cfg.Local.Command)}
	}
	return checkResult{Name: "ollama command", Status: checkOK, Detail: path}
}

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (d *doctor) checkEndpoint(ctx context.Context) checkResult {
	const name = "ollama endpoint"
	url := strings.TrimRight(d.cfg.Local.URL, "/") + "/api/tags"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return checkResult{Name: name, Status: checkFail, Detail: err.Error()}
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return checkResult{Name: name, Status: checkFail, Detail: fmt.Sprintf("%s unreachable: %v", d.cfg.Local.URL, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return checkResult{Name: name, Status: checkFail, Detail: fmt.Sprintf("%s answered %d", url, resp.StatusCode)}
	}

	var tags ollamaTags
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&tags); err != nil {
		return checkResult{Name: name, Status: checkWarn, Detail: fmt.Sprintf("could not list models: %v", err)}
	}
	for _, m := range tags.Models {
		if m.Name == d.cfg.Local.Model || strings.HasPrefix(m.Name, d.cfg.Local.Model+":") {
			return checkResult{Name: name, Status: checkOK, Detail: fmt.Sprintf("%s serves %s", d.cfg.Local.URL, m.Name)}
		}
	}
	return checkResult{
		Name:   name,
		Status: checkWarn,
		Detail: fmt.Sprintf("model %q not pulled, run: ollama pull %s", d.cfg.Local.Model, d.cfg.Local.Model),
	}
}

func report(out io.Writer, results []checkResult) error {
	titleColor.Fprintln(out, "Code-Lens doctor")
	failed := 0
	for _, r := range results {
		switch r.Status {
		case checkOK:
			successColor.Fprint(out, "✓ ")
		case checkWarn:
			warnColor.Fprint(out, "! ")
		case checkFail:
			failed++
			errorColor.Fprint(out, "✗ ")
		}
		boldColor.Fprint(out, r.Name)
		dimColor.Fprintf(out, ": %s\n", r.Detail)
	}
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sevigo/code-lens/internal/client"
	"github.com/sevigo/code-lens/internal/config"
	"github.com/sevigo/code-lens/internal/core"
	"github.com/sevigo/code-lens/internal/wire"
)

var outputJSON bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Shows the review provider chain in the order it is tried",
	RunE: func(cmd *cobra.Command, _ []string) error {
		infos, err := listProviders(cmd.Context())
		if err != nil {
			return err
		}
		return printProviders(cmd.OutOrStdout(), infos, outputJSON)
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	providersCmd.Flags().BoolVar(&outputJSON, "json", false, "Output the chain as JSON")
	rootCmd.AddCommand(providersCmd)
}

func listProviders(ctx context.Context) ([]client.ProviderInfo, error) {
	if server := remoteServer(); server != "" {
		return client.New(server, nil).Providers(ctx)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Logging.Output = "discard"

	reviewer, cleanup, err := wire.InitializeReviewer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize reviewer: %w", err)
	}
	defer cleanup()

	return toProviderInfos(reviewer.Providers()), nil
}

func toProviderInfos(in []core.ProviderInfo) []client.ProviderInfo {
	out := make([]client.ProviderInfo, 0, len(in))
	for _, p := range in {
		out = append(out, client.ProviderInfo{Name: p.Name, Tier: string(p.Tier), Timeout: p.Timeout.String()})
	}
	return out
}

func printProviders(out io.Writer, infos []client.ProviderInfo, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tPROVIDER\tTIER\tTIMEOUT")
	for i, p := range infos {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, p.Name, p.Tier, p.Timeout)
	}
	return w.Flush()
}

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sevigo/code-lens/internal/client"
	"github.com/sevigo/code-lens/internal/config"
	"github.com/sevigo/code-lens/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	themeFlag := flag.String("theme", "", "UI theme (cyan, matrix, amber, dracula)")
	listThemes := flag.Bool("list-themes", false, "List all available themes")
	serverFlag := flag.String("server", "", "Code-Lens server URL (default http://localhost:SERVER_PORT)")
	markdownFlag := flag.String("markdown", markdownDark, "Review panel style (dark, light)")
	flag.Parse()

	if *listThemes {
		fmt.Println("Available themes:")
		for _, theme := range ListThemes() {
			fmt.Printf("  - %s\n", theme)
		}
		return nil
	}

	selectedTheme := *themeFlag
	if selectedTheme == "" {
		selectedTheme = os.Getenv("CODE_LENS_THEME")
	}
	if selectedTheme == "" {
		selectedTheme = string(ThemeCyan)
	}
	theme := ThemeName(selectedTheme)
	if _, ok := palettes[theme]; !ok {
		return fmt.Errorf("invalid theme '%s', use --list-themes to see available options", theme)
	}
	if *markdownFlag != markdownDark && *markdownFlag != markdownLight {
		return fmt.Errorf("invalid markdown style '%s', use dark or light", *markdownFlag)
	}

	server := *serverFlag
	if server == "" {
		server = os.Getenv("LENS_SERVER")
	}
	if server == "" {
		server = "http://localhost:" + cfg.Server.Port
	}

	// The alternate screen owns the terminal.
	if cfg.Logging.Output == "stdout" || cfg.Logging.Output == "stderr" {
		cfg.Logging.Output = "discard"
	}
	w, closeLog, err := logger.OpenWriter(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger.NewLogger(cfg.Logging, w))

	slog.Info("Code-Lens terminal starting up", "server", server)
	p := tea.NewProgram(newModel(client.New(server, nil), server, theme, *markdownFlag), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("error running program", "error", err)
		return fmt.Errorf("error running program: %w", err)
	}
	slog.Info("Code-Lens terminal shut down successfully")
	return nil
}

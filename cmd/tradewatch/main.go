package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zephyr-g16/tradewatch/internal/api"
	"github.com/zephyr-g16/tradewatch/internal/persist"
	"github.com/zephyr-g16/tradewatch/internal/series"
	"github.com/zephyr-g16/tradewatch/internal/tui"
	"github.com/zephyr-g16/tradewatch/internal/watch"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	var configPath string
	var apiURL string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/tradewatch/config.yml)")
	flag.StringVar(&apiURL, "api-url", "", "override trading API base URL")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("tradewatch - Trading Dashboard Client\n")
		fmt.Printf("  Version: %s\n", version)
		fmt.Printf("  Commit:  %s\n", commit)
		fmt.Printf("  Built:   %s\n", buildTime)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if apiURL != "" {
		cfg.APIURL = apiURL
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	state, err := persist.Open(cfg.StateFile, nil)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.APIURL)
	store := series.NewStore(cfg.MaxPoints)
	render := tui.NewTeaRenderer()

	ctrl := watch.NewController(
		watch.TickerScheduler{}, client, store, state, render, cfg.PollInterval, render.Logf)

	login := tui.NewLoginModel(client, state)
	dashboard := tui.NewDashboardModel(client, ctrl, state)
	start := tui.NewStartModel(client, ctrl)
	app := tui.NewApp(login, dashboard, start)

	// a remembered login skips straight to the dashboard
	if state.RestoreOwner() != "" {
		app.SetActive(dashboard.ID())
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	render.Bind(p.Send)
	defer ctrl.Teardown()

	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("the dashboard requires a real terminal")
		}
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}

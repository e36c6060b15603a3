package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"evolve/config"
	appmodel "evolve/model"
	"evolve/query"
	"evolve/storage"
	"evolve/ui"
)

const Version = "v0.1.0"

var datasetFlag string

var rootCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Chat with your datasets from the terminal",
	Long: `evolve opens a conversational session over a named dataset.

Questions are answered by the analysis service configured in
~/.config/evolve/config.toml (or EVOLVE_QUERY_ENDPOINT). Charts and
diagrams in replies are drawn inline.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat view",
	RunE:  runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&datasetFlag, "dataset", "d", "", "dataset id (defaults to chat.default_dataset)")
	rootCmd.AddCommand(chatCmd, askCmd, datasetsCmd, configCmd)
}

func main() {
	// A missing .env is normal
	_ = godotenv.Load()

	err := rootCmd.Execute()
	config.SyncDebugLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// environment is what every command needs: configuration, the dataset
// catalog and the query client.
type environment struct {
	cfg     *config.Config
	catalog *storage.Catalog
	client  *query.Client
}

func setup() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	catalog, err := storage.NewCatalog(cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset catalog: %w", err)
	}

	client, err := query.NewClient(cfg.QueryEndpoint, cfg.ContextSuffix, cfg.QueryTimeout)
	if err != nil {
		catalog.Close()
		return nil, err
	}

	return &environment{cfg: cfg, catalog: catalog, client: client}, nil
}

func (e *environment) Close() {
	if err := e.catalog.Close(); err != nil && config.DebugLog != nil {
		config.DebugLog.Warnf("failed to close catalog: %v", err)
	}
}

func showErrorModal(title, message string) error {
	p := tea.NewProgram(
		ui.NewErrorModal(title, message),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

func runChat(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return showErrorModal("Configuration Error", err.Error())
	}
	defer env.Close()

	dataModel := appmodel.NewModel(env.cfg, env.catalog, env.client, datasetFlag, Version)
	appView, err := ui.NewAppView(dataModel)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		appView,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	// The chat may end through a signal rather than Alt+Q
	if av, ok := finalModel.(ui.AppView); ok {
		av.Close()
	} else {
		appView.Close()
	}
	if err != nil {
		return fmt.Errorf("error running evolve: %w", err)
	}
	return nil
}

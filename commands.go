package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"evolve/config"
	appmodel "evolve/model"
	"evolve/render"
	"evolve/storage"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "Manage the dataset catalog",
}

var datasetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available datasets",
	Args:  cobra.NoArgs,
	RunE:  runDatasetsList,
}

var datasetsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a custom dataset",
	Args:  cobra.NoArgs,
	RunE:  runDatasetsAdd,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented config.toml if none exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateDefaultConfig(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigFilePath())
		return nil
	},
}

var (
	addID          string
	addName        string
	addDisplayName string
	addDescription string
	addRecords     int
)

func init() {
	datasetsAddCmd.Flags().StringVar(&addID, "id", "", "dataset id (default custom-<unix time>)")
	datasetsAddCmd.Flags().StringVar(&addName, "name", "", "short dataset name")
	datasetsAddCmd.Flags().StringVar(&addDisplayName, "display-name", "", "name shown in the chat title")
	datasetsAddCmd.Flags().StringVar(&addDescription, "description", "", "one line description")
	datasetsAddCmd.Flags().IntVar(&addRecords, "records", 0, "record count")
	_ = datasetsAddCmd.MarkFlagRequired("name")

	datasetsCmd.AddCommand(datasetsListCmd, datasetsAddCmd)
	configCmd.AddCommand(configInitCmd)
}

func runDatasetsList(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()

	datasets, err := env.catalog.List()
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRECORDS\tUPDATED\tDESCRIPTION")
	for _, ds := range datasets {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			ds.ID, ds.Title(), ds.RecordCount, ds.LastUpdated.Format("2006-01-02"), ds.Description)
	}
	return w.Flush()
}

func runDatasetsAdd(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()

	ds, err := env.catalog.Add(storage.Dataset{
		ID:          addID,
		Name:        addName,
		DisplayName: addDisplayName,
		Description: addDescription,
		RecordCount: addRecords,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added dataset %s (%s)\n", ds.ID, ds.Title())
	return nil
}

// runAsk resolves one question without the interactive view and prints
// the transcript entries it produced.
func runAsk(cmd *cobra.Command, args []string) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.Close()

	dataModel := appmodel.NewModel(env.cfg, env.catalog, env.client, datasetFlag, Version)
	loaded, _ := dataModel.LoadDataset()().(appmodel.DatasetLoadedMsg)
	if loaded.Err != nil {
		if errors.Is(loaded.Err, storage.ErrDatasetNotFound) && len(loaded.Suggestions) > 0 {
			return fmt.Errorf("%w (did you mean %s?)", loaded.Err, strings.Join(loaded.Suggestions, ", "))
		}
		return loaded.Err
	}

	controller := dataModel.StartChat(loaded.Dataset)
	defer dataModel.EndChat()

	reply, err := controller.Ask(strings.Join(args, " "))
	if err != nil {
		return err
	}

	dispatcher, err := render.NewDispatcher(env.cfg.RenderMarkdown)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	// Diagrams render synchronously here; there is no event loop to deliver them
	for _, msg := range collectDiagrams(dispatcher.Sync(reply.Messages, 80)) {
		dispatcher.HandleDiagramRendered(msg)
	}

	out := cmd.OutOrStdout()
	for _, msg := range reply.Messages {
		fmt.Fprintln(out, dispatcher.View(msg, 80))
		fmt.Fprintln(out)
	}
	return nil
}

// collectDiagrams runs cmd and any batch it expands into, keeping the
// diagram results.
func collectDiagrams(cmd tea.Cmd) []render.DiagramRenderedMsg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case render.DiagramRenderedMsg:
		return []render.DiagramRenderedMsg{msg}
	case tea.BatchMsg:
		var out []render.DiagramRenderedMsg
		for _, c := range msg {
			out = append(out, collectDiagrams(c)...)
		}
		return out
	}
	return nil
}

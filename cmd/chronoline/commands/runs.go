package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chronoline/chronoline/pkg/cli"
	"github.com/chronoline/chronoline/pkg/scoreboard"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage accumulation runs",
	Long: `Manage accumulation runs recorded by eval --run.

Examples:
  chronoline runs list
  chronoline runs show 3f1c...
  chronoline runs delete 3f1c...`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accumulation runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run's documents and global rate",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run and its entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func openScoreboard() (*scoreboard.Store, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return scoreboard.Open(scoreboard.Options{Dir: cfg.ScoreboardDir})
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openScoreboard()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs")
		return nil
	}

	s := cli.NewStyles(cli.DefaultTheme)
	tbl := cli.Table{Headers: []string{"id", "metric", "documents", "started", "updated"}}
	for _, r := range runs {
		tbl.Add(r.ID, r.Metric,
			strconv.Itoa(r.Documents),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(cmd.OutOrStdout(), s.Table(tbl))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openScoreboard()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Resume(args[0])
	if err != nil {
		return err
	}
	m, err := metricForRun(run.Metric)
	if err != nil {
		return err
	}
	if _, err := store.Fold(run.ID, m); err != nil {
		return err
	}

	renderReport(cmd.OutOrStdout(), m.ComponentNames(), buildReport(m, run.ID))
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	store, err := openScoreboard()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
	return nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eduardojeem/benchline/internal/triage/application/commands"
	"github.com/eduardojeem/benchline/internal/triage/application/queries"
	"github.com/eduardojeem/benchline/internal/triage/application/services"
)

// App holds the wired application handlers the commands depend on.
type App struct {
	Queue         *queries.GetQueueHandler
	ConfigReplace *commands.ReplaceConfigHandler
	ConfigStore   *services.ConfigStore
}

var app *App

// SetApp installs the application container before Execute runs.
func SetApp(a *App) {
	app = a
}

// GetApp returns the installed application container, or nil.
func GetApp() *App {
	return app
}

var rootCmd = &cobra.Command{
	Use:   "benchline",
	Short: "Benchline - repair shop bench queue",
	Long: `Benchline keeps a repair shop's bench queue in priority order.

It scores every pending work ticket from tunable weighted factors and
conditional business rules, and republishes the ordering whenever
tickets or the configuration change.`,
	SilenceUsage: true,
}

// AddCommand registers a subcommand on the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

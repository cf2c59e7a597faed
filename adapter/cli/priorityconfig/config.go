package priorityconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eduardojeem/benchline/adapter/cli"
	"github.com/eduardojeem/benchline/internal/triage/application/commands"
	"github.com/eduardojeem/benchline/internal/triage/domain/priority"
)

// Cmd is the config command group.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the priority configuration",
}

var (
	configFile string
	configJSON bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active priority configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ConfigStore == nil {
			return errors.New("config store not configured")
		}

		cfg := app.ConfigStore.Get()
		document, err := priority.EncodeDocument(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(document))
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the active priority configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		out := cmd.OutOrStdout()
		if app == nil || app.ConfigReplace == nil {
			return errors.New("config store not configured")
		}

		candidate, err := readDocument(configFile)
		if err != nil {
			return err
		}

		accepted, err := app.ConfigReplace.Handle(cmd.Context(), commands.ReplaceConfigCommand{
			Candidate: candidate,
		})
		if err != nil {
			var verr *priority.ValidationError
			if errors.As(err, &verr) {
				return printValidationError(cmd, verr)
			}
			return err
		}

		if configJSON {
			return json.NewEncoder(out).Encode(map[string]any{
				"version": accepted.Version,
				"rules":   len(accepted.Rules),
				"updated": true,
			})
		}
		fmt.Fprintf(out, "Priority config replaced (version %d, %d rules).\n",
			accepted.Version, len(accepted.Rules))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a candidate configuration without activating it",
	RunE: func(cmd *cobra.Command, args []string) error {
		candidate, err := readDocument(configFile)
		if err != nil {
			return err
		}

		if verr := priority.Validate(candidate); verr != nil {
			return printValidationError(cmd, verr)
		}

		if configJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"valid": true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
		return nil
	},
}

func readDocument(path string) (priority.Config, error) {
	if path == "" {
		return priority.Config{}, errors.New("missing --file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return priority.Config{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return priority.DecodeDocument(data)
}

func printValidationError(cmd *cobra.Command, verr *priority.ValidationError) error {
	out := cmd.OutOrStdout()
	if configJSON {
		_ = json.NewEncoder(out).Encode(verr)
	} else {
		fmt.Fprintln(out, "Configuration rejected:")
		for _, f := range verr.Fields {
			fmt.Fprintf(out, "  %s: %s\n", f.Field, f.Message)
		}
	}
	return errors.New("configuration rejected")
}

func init() {
	setCmd.Flags().StringVar(&configFile, "file", "", "path to a JSON configuration document")
	_ = setCmd.MarkFlagRequired("file")
	validateCmd.Flags().StringVar(&configFile, "file", "", "path to a JSON configuration document")
	_ = validateCmd.MarkFlagRequired("file")

	showCmd.Flags().BoolVar(&configJSON, "json", false, "output as JSON")
	setCmd.Flags().BoolVar(&configJSON, "json", false, "output as JSON")
	validateCmd.Flags().BoolVar(&configJSON, "json", false, "output as JSON")

	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(validateCmd)
}

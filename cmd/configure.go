package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/creepy/internal/config"
)

// newConfigureCmd creates the 'configure' subcommand, which prints a sample
// config file to stdout.
func newConfigureCmd() *cobra.Command {
	var defaults, full bool
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Prints a sample configuration",
		Long: `Prints a configuration file to stdout. --default prints an empty
configuration; --full prints a complete example with every crawl key set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case full:
				return printConfig(cmd, config.Full(), config.SelectorExamples)
			case defaults:
				return printConfig(cmd, config.Default(), "")
			default:
				return cmd.Help()
			}
		},
	}
	cmd.Flags().BoolVar(&defaults, "default", false, "generate a default configuration")
	cmd.Flags().BoolVar(&full, "full", false, "generate a full example configuration")
	cmd.MarkFlagsMutuallyExclusive("default", "full")
	return cmd
}

func printConfig(cmd *cobra.Command, cfg config.Config, header string) error {
	data, err := cfg.MarshalTOML()
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprint(out, header); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

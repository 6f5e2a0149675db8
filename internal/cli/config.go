package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/standsynth/internal/model"
)

// NewConfigCommand creates the "config" cobra command, which prints the
// effective configuration after file, environment and flag overrides.
func NewConfigCommand() *cobra.Command {
	flags := &synthFlags{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration after applying the --config file,
the .env file, STANDSYNTH_* environment variables and flags.

Examples:
  standsynth config
  standsynth config --config standsynth.yaml --sampler poisson
  standsynth config --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd, flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if IsJSONOutput() {
				return printJSON(out, cfg)
			}
			data, err := cfg.Marshal()
			if err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "cannot encode configuration", err)
			}
			_, err = out.Write(data)
			return err
		},
	}

	flags.bind(cmd)
	return cmd
}

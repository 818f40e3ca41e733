package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/ddlayout/pkg/buildinfo"
	"github.com/matzehuels/ddlayout/pkg/config"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   appName,
		Short: "ddlayout lays out and animates decision diagrams",
		Long: `ddlayout computes layered layouts of decision diagrams and animates the
transitions between them as groups are expanded, merged or edited.

Diagrams are read from TOML, YAML or JSON documents listing levels, nodes and
tagged edges.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				config.LoadDotEnv(envFile)
			} else {
				config.LoadDotEnv()
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with DDLAYOUT_* overrides (default .env)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

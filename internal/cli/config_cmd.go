package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/config"
)

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or generate a11yhub configuration",
}

var configSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print a sample a11yhub.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), config.GenerateSampleConfig())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after files, env, and flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(effectiveConfig(cfg))
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configCmd.AddCommand(configSampleCmd)
	configCmd.AddCommand(configShowCmd)
}

// effectiveConfig maps the config onto its file keys
func effectiveConfig(c *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"storage_dir":   c.StorageDir,
		"format":        c.Format,
		"last_runs":     c.LastRuns,
		"verbose":       c.Verbose,
		"debug":         c.Debug,
		"template_file": c.TemplateFile,
		"id_prefix":     c.IDPrefix,
		"workers":       c.Workers,
		"project":       c.Project,
		"auditor":       c.Auditor,
		"wcag_target":   c.WCAGTarget,
		"scope":         c.Scope,
		"metrics_file":  c.MetricsFile,
	}
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaz8081/validate-marketplace/internal/config"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v3"
)

// --- Pure helper functions (tested independently) ---

// formatPaths reports where configuration is read from for root and whether
// each location exists. usedFile is the file viper actually read, if any.
func formatPaths(root, usedFile, cacheDir string) string {
	var b strings.Builder

	configPath := usedFile
	status := "[found]"
	if configPath == "" {
		configPath = filepath.Join(root, config.FileName)
		status = "[not found]"
	}
	fmt.Fprintf(&b, "Config file:    %s  %s\n", configPath, status)
	fmt.Fprintf(&b, "Repository:     %s\n", root)

	cacheStatus := "[not found]"
	if _, err := os.Stat(cacheDir); err == nil {
		cacheStatus = "[found]"
	}
	fmt.Fprintf(&b, "Cache dir:      %s  %s\n", cacheDir, cacheStatus)
	fmt.Fprintf(&b, "Env prefix:     %s_\n", config.EnvPrefix)

	return b.String()
}

// renderConfigYAML marshals the effective configuration for display.
func renderConfigYAML(c *config.Config) string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# error marshaling config: %v\n", err)
	}
	return string(data)
}

// --- Cobra commands ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
	Long: `Show the configuration validate-marketplace resolved from defaults,
the optional ` + config.FileName + ` file, ` + config.EnvPrefix + `_* environment
variables and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), renderConfigYAML(current.Config))
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show where configuration is read from",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), formatPaths(current.Root, settings.ConfigFileUsed(), current.Config.CacheDir))
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathsCmd)
	rootCmd.AddCommand(configCmd)
}

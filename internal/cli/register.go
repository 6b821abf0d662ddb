package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/chaz8081/validate-marketplace/internal/engine"
	"github.com/chaz8081/validate-marketplace/internal/manifest"
	"github.com/spf13/cobra"
)

var registerAll bool

var registerCmd = &cobra.Command{
	Use:   "register [entries...]",
	Short: "Add unregistered skills and agents to plugin.json",
	Long: `Add skills and agents that exist on disk but are missing from
plugin.json. Entries use the manifest form, e.g. ./skills/my-skill or
./agents/my-agent. With no entries an interactive picker is shown; --all
registers everything without asking.

Agents are only registered in array mode. In directory mode every file in
the agents directory is already included.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadPlugin(current)
		if err != nil {
			return err
		}
		inv, err := engine.Scan(current.Root, current.Config.Layout(), m)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		candidates := unregistered(inv)
		if len(candidates) == 0 {
			fmt.Fprintln(out, "All skills and agents are already registered.")
			return nil
		}

		selected := args
		switch {
		case registerAll:
			selected = entriesOf(candidates)
		case len(selected) == 0 && isInteractiveTTY():
			selected, err = pickEntries(candidates)
			if err != nil {
				return err
			}
		case len(selected) == 0:
			return errors.New("no entries given: pass entries, use --all, or run in a terminal")
		}
		if len(selected) == 0 {
			fmt.Fprintln(out, "Nothing selected.")
			return nil
		}

		added, err := registerEntries(current.PluginPath(manifest.PluginFilename), inv, selected)
		for _, e := range added {
			fmt.Fprintf(out, "Registered %s in plugin.json\n", e)
		}
		return err
	},
}

func init() {
	registerCmd.Flags().BoolVar(&registerAll, "all", false, "register every unregistered skill and agent")
	rootCmd.AddCommand(registerCmd)
}

// unregistered returns the artifacts plugin.json does not list. Directory-mode
// agents are always registered, so only skills can show up for them.
func unregistered(inv *engine.Inventory) []engine.Artifact {
	var out []engine.Artifact
	for _, a := range inv.Skills {
		if !a.Registered {
			out = append(out, a)
		}
	}
	for _, a := range inv.Agents {
		if !a.Registered {
			out = append(out, a)
		}
	}
	return out
}

func entriesOf(artifacts []engine.Artifact) []string {
	out := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, a.Entry)
	}
	return out
}

// pickEntries asks which artifacts to register. Swapped out in tests.
var pickEntries = func(candidates []engine.Artifact) ([]string, error) {
	var options []huh.Option[string]
	for _, a := range candidates {
		label := a.Entry
		if a.Name != "" {
			label = a.Name + " (" + a.Entry + ")"
		}
		options = append(options, huh.NewOption(label, a.Entry))
	}

	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select entries to register").
				Description("Use space to toggle, enter to confirm").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}
	return selected, nil
}

// registerEntries writes the selected entries into the plugin.json at
// pluginPath, sorting each into skills or agents by what inv found on disk.
// Entries that are neither are rejected before anything is written.
func registerEntries(pluginPath string, inv *engine.Inventory, selected []string) ([]string, error) {
	skills := make(map[string]bool, len(inv.Skills))
	for _, a := range inv.Skills {
		skills[manifest.NormalizeEntry(a.Entry)] = true
	}
	agents := make(map[string]bool, len(inv.Agents))
	for _, a := range inv.Agents {
		agents[manifest.NormalizeEntry(a.Entry)] = true
	}

	var skillEntries, agentEntries, unknown []string
	for _, e := range selected {
		norm := manifest.NormalizeEntry(strings.TrimSuffix(e, ".md"))
		switch {
		case skills[norm]:
			skillEntries = append(skillEntries, norm)
		case agents[norm]:
			agentEntries = append(agentEntries, norm)
		default:
			unknown = append(unknown, e)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("not a skill or agent on disk: %s", strings.Join(unknown, ", "))
	}

	var added []string
	if len(skillEntries) > 0 {
		a, err := manifest.RegisterSkills(pluginPath, skillEntries)
		if err != nil {
			return nil, err
		}
		added = append(added, a...)
	}
	if len(agentEntries) > 0 {
		if inv.Mode == manifest.AgentsDirectory {
			return added, fmt.Errorf("register agents: %w", manifest.ErrDirectoryMode)
		}
		a, err := manifest.RegisterAgents(pluginPath, agentEntries)
		if err != nil {
			return added, err
		}
		added = append(added, a...)
	}
	return added, nil
}

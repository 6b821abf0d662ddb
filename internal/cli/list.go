package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/chaz8081/validate-marketplace/internal/engine"
	"github.com/chaz8081/validate-marketplace/internal/manifest"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills and agents found on disk",
	Long: `List every skill directory and agent file in the repository, with its
display name and whether plugin.json registers it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadPlugin(current)
		if err != nil {
			return err
		}
		inv, err := engine.Scan(current.Root, current.Config.Layout(), m)
		if err != nil {
			return err
		}
		if listJSON {
			out, err := formatInventoryJSON(inv)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
		writeInventory(cmd.OutOrStdout(), inv)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the inventory as JSON")
	rootCmd.AddCommand(listCmd)
}

func writeInventory(w io.Writer, inv *engine.Inventory) {
	fmt.Fprintln(w, "Skills:")
	if len(inv.Skills) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, a := range inv.Skills {
		writeArtifact(w, a)
	}

	fmt.Fprintln(w)
	if inv.Mode == manifest.AgentsDirectory {
		fmt.Fprintf(w, "Agents (directory mode: %s):\n", inv.AgentsDir)
	} else {
		fmt.Fprintln(w, "Agents:")
	}
	if len(inv.Agents) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, a := range inv.Agents {
		writeArtifact(w, a)
	}
}

func writeArtifact(w io.Writer, a engine.Artifact) {
	mark := "registered"
	if !a.Registered {
		mark = "unregistered"
	}
	name := a.Name
	if name == "" {
		name = "-"
	}
	fmt.Fprintf(w, "  %-40s %-30s %s\n", a.Entry, name, mark)
}

type artifactJSON struct {
	Entry      string `json:"entry"`
	Name       string `json:"name,omitempty"`
	Registered bool   `json:"registered"`
}

type inventoryJSON struct {
	Skills    []artifactJSON `json:"skills"`
	Agents    []artifactJSON `json:"agents"`
	Mode      string         `json:"agents_mode"`
	AgentsDir string         `json:"agents_dir,omitempty"`
}

func formatInventoryJSON(inv *engine.Inventory) (string, error) {
	result := inventoryJSON{
		Skills:    toArtifactJSON(inv.Skills),
		Agents:    toArtifactJSON(inv.Agents),
		Mode:      inv.Mode.String(),
		AgentsDir: inv.AgentsDir,
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal inventory: %w", err)
	}
	return string(data), nil
}

func toArtifactJSON(in []engine.Artifact) []artifactJSON {
	out := make([]artifactJSON, 0, len(in))
	for _, a := range in {
		out = append(out, artifactJSON{Entry: a.Entry, Name: a.Name, Registered: a.Registered})
	}
	return out
}

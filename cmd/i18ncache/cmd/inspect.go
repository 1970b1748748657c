package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Shopify/i18n/pkg/cache"
	"github.com/Shopify/i18n/pkg/index"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(14)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 2)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00FF00")).
		Bold(true)

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <cache-file>",
	Short: "Print header and size statistics of a cache file",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		snap, header, err := cache.ReadFile(args[0])
		if err != nil {
			printError("read cache", err)
			return err
		}

		ix, err := index.FromSnapshot(snap)
		if err != nil {
			printError("restore index", err)
			return err
		}
		stats := ix.Stats()

		row := func(label string, v any) string {
			return labelStyle.Render(label) + fmt.Sprint(v)
		}
		body := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("i18n cache"),
			row("version", header.Version),
			row("fingerprint", header.Fingerprint),
			row("locales", stats.Locales),
			row("schema keys", stats.SchemaKeys),
			row("interior keys", stats.InteriorKeys),
			row("arena bytes", stats.ArenaBytes),
			row("objects", stats.ObjectCount),
			row("rule slots", len(snap.ProcPositions)),
		)
		fmt.Println(boxStyle.Render(body))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

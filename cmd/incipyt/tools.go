// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/incipyt/incipyt/internal/config"
	"github.com/incipyt/incipyt/internal/tools"
)

// categoryFlags names the init flag selecting each category.
var categoryFlags = map[tools.Category]string{
	tools.CategoryProject: "always enabled",
	tools.CategoryVCS:     "--vcs",
	tools.CategoryEnv:     "--env",
	tools.CategoryBuild:   "--build",
	tools.CategoryLicense: "--license",
	tools.CategoryCheck:   "--check",
	tools.CategoryCI:      "--ci",
}

// newToolsCommand creates the `incipyt tools` command.
func newToolsCommand(app *App) *cobra.Command {
	var plain bool

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		Long: `List the tools incipyt can enable, grouped by category.

Tools marked as defaults are used when init gets no tool flag.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}

			md := toolsMarkdown(app.Registry, cfg)
			if plain {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			out, err := glamour.Render(md, app.glamourStyle())
			if err != nil {
				return fmt.Errorf("render tools: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	toolsCmd.Flags().BoolVar(&plain, "plain", false, "print raw Markdown")
	return toolsCmd
}

// toolsMarkdown lists every registration under a heading per category.
func toolsMarkdown(reg *tools.Registry, cfg *config.Config) string {
	defaults := make(map[string]bool)
	if cfg != nil {
		for _, name := range cfg.Defaults.Tools {
			defaults[strings.ToLower(name)] = true
		}
	}

	var sb strings.Builder
	sb.WriteString("# Tools\n")

	var current tools.Category
	for _, r := range reg.Registrations() {
		if r.Category != current {
			current = r.Category
			fmt.Fprintf(&sb, "\n## %s\n\n", current)
			if flag, ok := categoryFlags[current]; ok {
				if current.Single() && current != tools.CategoryProject {
					fmt.Fprintf(&sb, "_%s, one tool_\n\n", flag)
				} else {
					fmt.Fprintf(&sb, "_%s_\n\n", flag)
				}
			}
		}
		fmt.Fprintf(&sb, "- **%s**: %s", r.Name, r.Description)
		if defaults[r.Name] {
			sb.WriteString(" _(default)_")
		}
		sb.WriteString("\n")
	}

	if cfg != nil && cfg.Defaults.License != "" {
		fmt.Fprintf(&sb, "\nLicenses: %s (default %s)\n", strings.Join(tools.Licenses(), ", "), cfg.Defaults.License)
	}
	return sb.String()
}

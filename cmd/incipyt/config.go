// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/incipyt/incipyt/internal/config"
	"github.com/incipyt/incipyt/internal/issue"
	"github.com/incipyt/incipyt/internal/tools"
	"github.com/incipyt/incipyt/internal/tui"
)

// settableKeys lists the keys `config set` accepts, besides vars.<NAME>.
var settableKeys = []string{
	"python.command", "python.requires",
	"defaults.tools", "defaults.license", "defaults.cli",
	"author.name", "author.email",
	"ui.color_scheme", "ui.theme", "ui.verbose", "ui.no_input",
}

// newConfigCommand creates the `incipyt config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage incipyt configuration",
		Long: `Manage incipyt configuration.

Configuration is read from the first existing file of:
  - the --config flag
  - the user file: ~/.config/incipyt/config.cue on Linux,
    ~/Library/Application Support/incipyt/config.cue on macOS,
    %APPDATA%\incipyt\config.cue on Windows
  - ./incipyt.cue

INCIPYT_* environment variables override file values, for example
INCIPYT_PYTHON_COMMAND or INCIPYT_UI_VERBOSE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd, app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(cmd, app)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, force)
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the user configuration file.

Keys: ` + strings.Join(settableKeys, ", ") + `, vars.<NAME>.
defaults.tools takes a comma separated list.`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return append(slices.Clone(settableKeys), "vars."), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd, app, args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "validate [FILE]",
		Short: "Validate a configuration file against the schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd, app, args)
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	w := cmd.OutOrStdout()

	cfg, err := app.loadConfig(cmd.Context())
	if err != nil {
		return app.fail(cmd, err)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	none := SubtitleStyle.Render("(not set)")
	show := func(v string) string {
		if v == "" {
			return none
		}
		return valueStyle.Render(v)
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	source, _ := app.Config.Source(app.loadOptions())
	if source == "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), source)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("python"))
	fmt.Fprintf(w, "  command: %s\n", show(cfg.Python.Command))
	fmt.Fprintf(w, "  requires: %s\n", show(cfg.Python.Requires))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("defaults"))
	fmt.Fprintf(w, "  tools: %s\n", show(strings.Join(cfg.Defaults.Tools, ", ")))
	fmt.Fprintf(w, "  license: %s\n", show(cfg.Defaults.License))
	fmt.Fprintf(w, "  cli: %s\n", valueStyle.Render(strconv.FormatBool(cfg.Defaults.CLI)))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("author"))
	fmt.Fprintf(w, "  name: %s\n", show(cfg.Author.Name))
	fmt.Fprintf(w, "  email: %s\n", show(cfg.Author.Email))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("vars"))
	if len(cfg.Vars) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		names := make([]string, 0, len(cfg.Vars))
		for name := range cfg.Vars {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, valueStyle.Render(strconv.Quote(cfg.Vars[name])))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ignore"))
	if len(cfg.Ignore) == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		for _, p := range cfg.Ignore {
			fmt.Fprintf(w, "  - %s\n", valueStyle.Render(p))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Fprintf(w, "  theme: %s\n", show(cfg.UI.Theme))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))
	fmt.Fprintf(w, "  no_input: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.NoInput)))

	return nil
}

func showConfigPath(cmd *cobra.Command, app *App) error {
	w := cmd.OutOrStdout()

	cfgDir, err := config.ConfigDir()
	if err != nil {
		return app.fail(cmd, err)
	}
	cfgFile, err := config.ConfigFilePath()
	if err != nil {
		return app.fail(cmd, err)
	}

	fmt.Fprintf(w, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(w, "Config file: %s\n", cfgFile)
	fmt.Fprintf(w, "Project file: ./%s\n", config.LocalConfigFile)

	source, err := app.Config.Source(app.loadOptions())
	if err != nil {
		return app.fail(cmd, err)
	}
	if source == "" {
		source = "(defaults)"
	}
	fmt.Fprintf(w, "In use: %s\n", source)
	return nil
}

func initConfig(cmd *cobra.Command, force bool) error {
	w := cmd.OutOrStdout()

	if force {
		if err := config.Save(config.DefaultConfig()); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		path, err := config.ConfigFilePath()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s Wrote default configuration to %s\n", SuccessStyle.Render("✓"), path)
		return nil
	}

	path, existed, err := createDefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if existed {
		fmt.Fprintf(w, "%s Configuration already exists at %s (use --force to replace it)\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(w, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

// createDefaultConfig reports whether the file was already there.
func createDefaultConfig() (string, bool, error) {
	path, err := config.ConfigFilePath()
	if err != nil {
		return "", false, err
	}
	existed := fileExistsCheck(path)
	if _, err := config.CreateDefaultConfig(); err != nil {
		return "", false, err
	}
	return path, existed, nil
}

func setConfigValue(cmd *cobra.Command, app *App, key, value string) error {
	cfg, err := app.loadConfig(cmd.Context())
	if err != nil {
		return app.fail(cmd, err)
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		return app.fail(cmd, err)
	}
	if valid, errs := cfg.IsValid(); !valid {
		return app.fail(cmd, errs[0])
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}

// applyConfigValue sets key on cfg, validating values the schema constrains.
func applyConfigValue(cfg *config.Config, key, value string) error {
	if name, ok := strings.CutPrefix(key, "vars."); ok {
		if cfg.Vars == nil {
			cfg.Vars = map[string]string{}
		}
		cfg.Vars[name] = value
		return nil
	}

	switch key {
	case "python.command":
		cfg.Python.Command = value
	case "python.requires":
		cfg.Python.Requires = value
	case "defaults.tools":
		names := splitList(value)
		reg := tools.DefaultRegistry()
		for _, name := range names {
			if r, ok := reg.Lookup(name); !ok || r.Category == tools.CategoryProject {
				return &tools.UnknownToolError{Name: name, Known: registeredNames(reg)}
			}
		}
		cfg.Defaults.Tools = names
	case "defaults.license":
		id, err := tools.CanonicalLicense(value)
		if err != nil {
			return err
		}
		cfg.Defaults.License = id
	case "defaults.cli":
		cfg.Defaults.CLI = parseBool(value)
	case "author.name":
		cfg.Author.Name = value
	case "author.email":
		cfg.Author.Email = value
	case "ui.color_scheme":
		cfg.UI.ColorScheme = config.ColorScheme(value)
	case "ui.theme":
		if valid, errs := tui.Theme(value).IsValid(); !valid {
			return errs[0]
		}
		cfg.UI.Theme = value
	case "ui.verbose":
		cfg.UI.Verbose = parseBool(value)
	case "ui.no_input":
		cfg.UI.NoInput = parseBool(value)
	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %s, vars.<NAME>", key, strings.Join(settableKeys, ", "))
	}
	return nil
}

func validateConfig(cmd *cobra.Command, app *App, args []string) error {
	w := cmd.OutOrStdout()

	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		source, err := app.Config.Source(app.loadOptions())
		if err != nil {
			return app.fail(cmd, err)
		}
		path = source
	}

	if path == "" {
		fmt.Fprintf(w, "%s No configuration file found, defaults are in use\n", SubtitleStyle.Render("·"))
		return nil
	}

	if _, err := config.ValidateFile(path); err != nil {
		return app.fail(cmd, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Fix the fields listed above, or start over with 'incipyt config init --force'").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError())
	}

	fmt.Fprintf(w, "%s %s is valid\n", SuccessStyle.Render("✓"), path)
	return nil
}

func splitList(value string) []string {
	var items []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, strings.ToLower(item))
		}
	}
	return items
}

func registeredNames(reg *tools.Registry) []string {
	var names []string
	for _, r := range reg.Registrations() {
		if r.Category != tools.CategoryProject {
			names = append(names, r.Name)
		}
	}
	return names
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

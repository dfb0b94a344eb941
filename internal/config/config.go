// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/incipyt/incipyt/internal/issue"
	"github.com/incipyt/incipyt/pkg/cueutil"

	"github.com/spf13/viper"
	"golang.org/x/exp/maps"
)

const (
	// AppName is the application name.
	AppName = "incipyt"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFile is looked up in the working directory when the user
	// config file does not exist.
	LocalConfigFile = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides (INCIPYT_PYTHON_COMMAND, ...).
	EnvPrefix = "INCIPYT"

	schemaDefinition = "#Config"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the incipyt configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the path of the user config file.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions performs option-driven config loading. It returns the
// config and the path of the file it was read from, empty when only defaults
// and environment overrides apply.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolveConfigPath(opts)
	if err != nil {
		return nil, "", err
	}

	var vars map[string]string
	if path != "" {
		vars, err = loadCUEIntoViper(v, path)
		if err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'incipyt config validate " + path + "' for details").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Vars = vars
	if cfg.Vars == nil {
		cfg.Vars = map[string]string{}
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check INCIPYT_* environment overrides").
			WithSuggestion("Use 'incipyt config show' to inspect the effective configuration").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, path, nil
}

// resolveConfigPath picks the file to load: the explicit path when given
// (which must exist), then the user config file, then ./incipyt.cue.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'incipyt config init' to create a default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if p := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}
	if fileExists(LocalConfigFile) {
		return LocalConfigFile, nil
	}
	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("python.command", d.Python.Command)
	v.SetDefault("python.requires", d.Python.Requires)
	v.SetDefault("defaults.tools", d.Defaults.Tools)
	v.SetDefault("defaults.license", d.Defaults.License)
	v.SetDefault("defaults.cli", d.Defaults.CLI)
	v.SetDefault("author.name", d.Author.Name)
	v.SetDefault("author.email", d.Author.Email)
	v.SetDefault("ignore", d.Ignore)
	v.SetDefault("ui.color_scheme", d.UI.ColorScheme)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.no_input", d.UI.NoInput)
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// Viper. The vars section is returned separately because Viper folds map keys
// to lower case and template variables are case-sensitive.
func loadCUEIntoViper(v *viper.Viper, path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap([]byte(configSchema), data, schemaDefinition,
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return nil, err
	}

	vars := map[string]string{}
	if raw, ok := configMap["vars"].(map[string]any); ok {
		for k, val := range raw {
			vars[k] = fmt.Sprint(val)
		}
	}
	delete(configMap, "vars")

	if err := v.MergeConfigMap(configMap); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	return vars, nil
}

// ValidateFile checks a config file against the schema without merging it.
func ValidateFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	res, err := cueutil.ParseAndDecode[Config]([]byte(configSchema), data, schemaDefinition,
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig creates a default config file if it doesn't exist and
// returns its path.
func CreateDefaultConfig() (string, error) {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	return cfgPath, writeConfig(cfgPath, DefaultConfig())
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return err
	}
	return writeConfig(cfgPath, cfg)
}

func writeConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// incipyt configuration file\n")
	sb.WriteString("// Run 'incipyt config validate' after editing.\n\n")

	sb.WriteString("python: {\n")
	fmt.Fprintf(&sb, "\tcommand:  %s\n", strconv.Quote(cfg.Python.Command))
	fmt.Fprintf(&sb, "\trequires: %s\n", strconv.Quote(cfg.Python.Requires))
	sb.WriteString("}\n")

	sb.WriteString("\ndefaults: {\n")
	fmt.Fprintf(&sb, "\ttools: %s\n", cueList(cfg.Defaults.Tools))
	if cfg.Defaults.License != "" {
		fmt.Fprintf(&sb, "\tlicense: %s\n", strconv.Quote(cfg.Defaults.License))
	}
	fmt.Fprintf(&sb, "\tcli: %v\n", cfg.Defaults.CLI)
	sb.WriteString("}\n")

	if cfg.Author.Name != "" || cfg.Author.Email != "" {
		sb.WriteString("\nauthor: {\n")
		if cfg.Author.Name != "" {
			fmt.Fprintf(&sb, "\tname:  %s\n", strconv.Quote(cfg.Author.Name))
		}
		if cfg.Author.Email != "" {
			fmt.Fprintf(&sb, "\temail: %s\n", strconv.Quote(cfg.Author.Email))
		}
		sb.WriteString("}\n")
	}

	if len(cfg.Vars) > 0 {
		sb.WriteString("\nvars: {\n")
		keys := maps.Keys(cfg.Vars)
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "\t%s: %s\n", k, strconv.Quote(cfg.Vars[k]))
		}
		sb.WriteString("}\n")
	}

	if len(cfg.Ignore) > 0 {
		fmt.Fprintf(&sb, "\nignore: %s\n", cueList(cfg.Ignore))
	}

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %s\n", strconv.Quote(string(cfg.UI.ColorScheme)))
	if cfg.UI.Theme != "" {
		fmt.Fprintf(&sb, "\ttheme: %s\n", strconv.Quote(cfg.UI.Theme))
	}
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tno_input: %v\n", cfg.UI.NoInput)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = strconv.Quote(it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

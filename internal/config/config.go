// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/invowk/actx/internal/issue"
	"github.com/invowk/actx/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "actx"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "actx"
	// ConfigFileExt is the preferred config file extension.
	ConfigFileExt = "cue"
	// TOMLFileExt is the alternative config file extension.
	TOMLFileExt = "toml"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the actx configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
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
	default: // Linux and others
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

// candidates lists the config files looked for in dir, in preference order.
func candidates(dir string) []string {
	return []string{
		filepath.Join(dir, ConfigFileName+"."+ConfigFileExt),
		filepath.Join(dir, ConfigFileName+"."+TOMLFileExt),
	}
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
//
// Lookup order: the explicit file, the config directory, then the working
// directory. Without any file the defaults are returned.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("locations", defaults.Locations)
	v.SetDefault("log_level", string(defaults.LogLevel))

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'actx config init' to create a configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, err
		}
		for _, path := range append(candidates(cfgDir), candidates(".")...) {
			if fileExists(path) {
				resolvedPath = path
				break
			}
		}
	}

	if resolvedPath != "" {
		if err := loadIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE or TOML syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if resolvedPath != "" {
		abs, err := filepath.Abs(resolvedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		cfg.Source = abs
	}

	// Reference syntax is checked here rather than in CUE so that the error
	// names the same prefixes actx.ParseSpec accepts.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(cfg.Source).
			WithSuggestion("Sources are directories: 'actions' or 'path:actions'").
			WithSuggestion("Filters accept 'regexp:<expr>', 'glob:<pattern>' or a module path").
			WithIssue(issue.ConfigurationInvalidId).
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadIntoViper validates the file at path against the #Config schema and
// merges it into v. TOML files are decoded first and then unified with the
// same schema as CUE files.
func loadIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	var configMap map[string]any
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case TOMLFileExt:
		unified, err := compileTOML(data, path)
		if err != nil {
			return err
		}
		if err := unified.Decode(&configMap); err != nil {
			return cueutil.WrapError(err, path)
		}
	default:
		res, err := cueutil.ParseAndDecode[map[string]any]([]byte(configSchema), data, "#Config", cueutil.WithFilename(path))
		if err != nil {
			return err
		}
		configMap = *res.Value
	}

	// Merge into Viper (preserves defaults)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// compileTOML decodes TOML data and unifies it with #Config.
func compileTOML(data []byte, path string) (cue.Value, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cue.Value{}, fmt.Errorf("%s: %w", path, err)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}
	userValue := ctx.Encode(raw)
	if userValue.Err() != nil {
		return cue.Value{}, cueutil.WrapError(userValue.Err(), path)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cue.Value{}, cueutil.WrapError(err, path)
	}
	return unified, nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// DefaultConfigPath returns the path `actx config init` writes to.
func DefaultConfigPath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// CreateDefaultConfig writes the default configuration to path unless a file
// already exists there. It reports whether a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := Save(DefaultConfig(), path); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes cfg as CUE to path, creating parent directories.
func Save(cfg *Config, path string) error {
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

	sb.WriteString("// actx configuration file\n")
	sb.WriteString("// Later locations override earlier ones for the same domain.action.\n\n")

	if len(cfg.Locations) == 0 {
		sb.WriteString("locations: [\n")
		sb.WriteString("\t// {source: \"actions\"},\n")
		sb.WriteString("\t// {source: \"other-actions\", filter: \"glob:domain1/**\"},\n")
		sb.WriteString("]\n")
	} else {
		sb.WriteString("locations: [\n")
		for _, loc := range cfg.Locations {
			if loc.Filter != "" {
				fmt.Fprintf(&sb, "\t{source: %q, filter: %q},\n", loc.Source, loc.Filter)
			} else {
				fmt.Fprintf(&sb, "\t{source: %q},\n", loc.Source)
			}
		}
		sb.WriteString("]\n")
	}

	if cfg.BaseDir != "" {
		fmt.Fprintf(&sb, "base_dir: %q\n", cfg.BaseDir)
	}
	if cfg.FileFilter != "" {
		fmt.Fprintf(&sb, "file_filter: %q\n", cfg.FileFilter)
	}
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)

	return sb.String()
}

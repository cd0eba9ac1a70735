package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/bkyoung/doc-reviewer/internal/rules"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	// ConfigFile forces a specific file; discovery is skipped when set.
	ConfigFile  string
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "dr"
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = locateConfigFile(name, opts.ConfigPaths)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "DR"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand environment variables in config values
	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.Corpus.Root = expandEnvString(cfg.Corpus.Root)
	cfg.Corpus.Index = expandEnvString(cfg.Corpus.Index)
	cfg.Corpus.Include = expandEnvStringSlice(cfg.Corpus.Include)
	cfg.Corpus.Exclude = expandEnvStringSlice(cfg.Corpus.Exclude)
	cfg.Corpus.IgnoreFile = expandEnvString(cfg.Corpus.IgnoreFile)

	// Expand rule options
	for name, rule := range cfg.Rules {
		rule.Guides = expandEnvString(rule.Guides)
		rule.Exempt = expandEnvStringSlice(rule.Exempt)
		cfg.Rules[name] = rule
	}

	// Expand output config
	cfg.Output.Directory = expandEnvString(cfg.Output.Directory)

	// Expand store config
	cfg.Store.Path = ExpandHome(expandEnvString(cfg.Store.Path))

	// Expand git config
	cfg.Git.Base = expandEnvString(cfg.Git.Base)

	// Expand watch config
	cfg.Watch.LogFile = ExpandHome(expandEnvString(cfg.Watch.LogFile))

	// Expand logging config
	cfg.Logging.Level = expandEnvString(cfg.Logging.Level)
	cfg.Logging.Format = expandEnvString(cfg.Logging.Format)

	return cfg
}

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	// Replace ${VAR} syntax
	re := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	// Replace $VAR syntax (without braces)
	re = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	return s
}

// expandEnvStringSlice expands environment variables in a slice of strings.
func expandEnvStringSlice(slice []string) []string {
	if len(slice) == 0 {
		return slice
	}
	result := make([]string, len(slice))
	for i, s := range slice {
		result[i] = expandEnvString(s)
	}
	return result
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "dr"))
	}
	extensions := []string{"yaml", "yml", "json", "toml"}
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		for _, ext := range extensions {
			candidate := filepath.Join(dir, name+"."+ext)
			info, err := os.Stat(candidate)
			if err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	// Corpus defaults
	v.SetDefault("corpus.root", ".")
	v.SetDefault("corpus.index", "README.md")
	v.SetDefault("corpus.include", []string{"**/*.md"})
	v.SetDefault("corpus.exclude", []string{})
	v.SetDefault("corpus.respect_gitignore", true)
	v.SetDefault("corpus.ignore_file", ".drignore")
	v.SetDefault("corpus.max_file_bytes", 1<<20)

	// Rule defaults: every known rule is on unless configured off
	for _, id := range rules.KnownIDs() {
		v.SetDefault("rules."+id+".enabled", true)
	}
	v.SetDefault("rules.orphaned-guides.exempt", []string{"CHANGELOG.md", "CONTRIBUTING.md"})
	v.SetDefault("rules.duplicate-content.similarity", 0.90)
	v.SetDefault("rules.template-structure.guides", "*-best-practices.md")
	v.SetDefault("rules.template-structure.ordered", false)

	// Lint defaults
	v.SetDefault("lint.fail_on", "error")
	v.SetDefault("lint.workers", 0)
	v.SetDefault("lint.baseline", true)

	// Output defaults
	v.SetDefault("output.directory", "reports")
	v.SetDefault("output.markdown.enabled", true)
	v.SetDefault("output.json.enabled", true)
	v.SetDefault("output.sarif.enabled", false)
	v.SetDefault("output.render", "auto")

	// Store defaults
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	// Git defaults
	v.SetDefault("git.base", "origin/main")

	// Watch defaults
	v.SetDefault("watch.debounce", "500ms")
	v.SetDefault("watch.log_file", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "human")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./history.db"
	}
	return filepath.Join(home, ".config", "dr", "history.db")
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/spotlight/internal/model"
	"github.com/ppiankov/spotlight/internal/ui"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

// flagKeys maps command flags to configuration keys. Bindings are made for
// the command being run, so commands can share flag names.
var flagKeys = map[string]string{
	"verbose":         "output.verbose",
	"output":          "output.format",
	"color":           "output.color",
	"no-footer":       "output.include_footer",
	"max-input-bytes": "highlight.max_input_bytes",
	"llm-provider":    "llm.provider",
	"llm-model":       "llm.model",
	"llm-base-url":    "llm.base_url",
	"max-tokens":      "llm.max_tokens",
	"system":          "llm.system",
	"http-timeout":    "http.timeout",
	"ua":              "http.user_agent",
	"max-bytes":       "http.max_body_bytes",
	"insecure":        "http.insecure_tls",
	"http-proxy":      "http.http_proxy",
	"https-proxy":     "http.https_proxy",
	"no-proxy":        "http.no_proxy",
	"concurrency":     "concurrency.workers",
	"rps":             "rate_limiting.requests_per_second",
}

// invertedFlags are boolean flags whose configuration value is the negation
var invertedFlags = map[string]bool{
	"no-footer": true,
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "spotlight",
	Short: "Spotlight - highlight business, competitor, industry and product mentions",
	Long: `Spotlight finds where a business, its competitors, its industry and its
products are mentioned in a text, such as an AI assistant's answer or a web page.

Matching is case-insensitive, tolerant of Unicode normalization differences,
and ignores Hebrew niqqud, so "שָׁלוֹם" is found when looking for "שלום".

Every character of the text ends up in exactly one span, annotated or plain.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: bindFlags,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Spotlight.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "spotlight v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.spotlight/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

// configDir returns ~/.spotlight
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return filepath.Join(home, ".spotlight"), nil
}

// initConfig reads in config file and ENV variables
func initConfig() {
	registerDefaults(model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match SPOTLIGHT_*, e.g. SPOTLIGHT_LLM_PROVIDER
	viper.SetEnvPrefix("SPOTLIGHT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config file %s: %v\n", cfgFile, err)
	}
}

// registerDefaults makes every configuration key known to viper, so
// environment variables apply to keys absent from the config file
func registerDefaults(cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	setDefaults("", tree)

	// Not serialized to YAML
	viper.SetDefault("llm.api_key", "")
}

func setDefaults(prefix string, tree map[string]any) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			setDefaults(key, sub)
			continue
		}
		viper.SetDefault(key, v)
	}
}

// bindFlags binds the running command's flags to their configuration keys
func bindFlags(cmd *cobra.Command, _ []string) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if invertedFlags[f.Name] {
			if f.Changed {
				viper.Set(key, f.Value.String() != "true")
			}
			return
		}
		bindErr = viper.BindPFlag(key, f)
	})
	return bindErr
}

// loadConfig returns the effective configuration:
// flags > SPOTLIGHT_* environment > config file > defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// newLogger returns the stderr progress logger for cfg
func newLogger(cfg *model.Config) *ui.Logger {
	return ui.NewLogger(os.Stderr, cfg.Output.Verbose)
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes viper with the configuration file and environment
// variables. If configFile is empty, standard locations are searched for
// skillgate.yaml/.yml; requiring an explicit YAML extension keeps viper
// from matching the binary itself.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file in any standard location. Set name/type without
		// search paths so ReadInConfig returns ConfigFileNotFoundError,
		// which callers handle by running on defaults.
		viper.SetConfigName("skillgate")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: SKILLGATE_STATE_BACKEND etc.
	viper.SetEnvPrefix("SKILLGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for a skillgate config file
// with an explicit YAML extension.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".skillgate"),
		"/etc/skillgate",
	}
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "skillgate"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds nested config keys for environment variable
// overrides, e.g. SKILLGATE_AUDIT_OUTPUT overrides audit.output.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("rules_file")
	_ = viper.BindEnv("log_level")
	_ = viper.BindEnv("fail_mode")
	_ = viper.BindEnv("state.backend")
	_ = viper.BindEnv("state.dir")
	_ = viper.BindEnv("state.path")
	_ = viper.BindEnv("audit.output")
}

// LoadConfig reads the configuration file, applies environment overrides
// and defaults, and validates the result. A missing config file is not an
// error; the engine runs on defaults plus environment.
func LoadConfig() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the loaded configuration file, or an
// empty string when running on defaults.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

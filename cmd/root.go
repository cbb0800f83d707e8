package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/spigell/crewmatch/internal/preferences"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "crewmatch"
)

type Config struct {
	OffersFile  string                   `mapstructure:"offers-file"`
	ExcludeFile string                   `mapstructure:"exclude-file"`
	Backend     *BackendConfig           `mapstructure:"backend"`
	Preferences *preferences.Preferences `mapstructure:"-"`
	Filters     *FiltersConfig           `mapstructure:"filters"`
	AI          *AIConfig                `mapstructure:"ai"`
	Output      *OutputConfig            `mapstructure:"output"`
}

type BackendConfig struct {
	URL              string `mapstructure:"url"`
	APIKeyFile       string `mapstructure:"api-key-file"`
	UserAgent        string `mapstructure:"user-agent"`
	OffersTable      string `mapstructure:"offers-table"`
	PreferencesTable string `mapstructure:"preferences-table"`
	UserID           string `mapstructure:"user-id"`
	MaxRetries       int    `mapstructure:"max-retries"`
}

type FiltersConfig struct {
	MinScore    int  `mapstructure:"min-score"`
	StrictTerms bool `mapstructure:"strict-terms"`
}

type AIConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Provider        string        `mapstructure:"provider"`
	MinimumFitScore float64       `mapstructure:"minimum-fit-score"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type OutputConfig struct {
	Limit int `mapstructure:"limit"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "crewmatch ranks yacht crew job offers against saved matching preferences",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("backend.api-key-file", "CREWMATCH_BACKEND_KEY_FILE"); err != nil {
		log.Fatalf("binding CREWMATCH_BACKEND_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("backend.offers-table", "offers")
	viper.SetDefault("backend.preferences-table", "preferences")
	viper.SetDefault("backend.max-retries", 3)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("output.limit", 20)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is crewmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The version command works without any configuration.
	if versionCmd.CalledAs() != "" {
		return
	}

	// Secret file locations may be kept in a local .env file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// Without an explicit --config everything can come from flags, env and defaults.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	return configFrom(viper.GetViper())
}

func configFrom(v *viper.Viper) (*Config, error) {
	var config *Config
	err := v.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	// decoded apart so camelCase keys are understood like in backend rows
	if v.IsSet("preferences") {
		config.Preferences, err = preferences.Decode(v.Get("preferences"))
		if err != nil {
			return config, err
		}
	}
	if config.Backend == nil {
		config.Backend = &BackendConfig{}
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}
	if config.Output == nil {
		config.Output = &OutputConfig{}
	}

	return config, nil
}

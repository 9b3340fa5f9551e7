package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vuvur/cli/internal/api"
	"github.com/vuvur/cli/pkg/config"
	"github.com/vuvur/cli/pkg/gallery"
	"github.com/vuvur/cli/pkg/secrets"
)

var (
	cfgStore *config.Store
	logger   zerolog.Logger
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "vuvur",
	Short: "Browse a remote vuvur media gallery from the terminal",
	Long: `vuvur is a client for the vuvur media gallery server.

It keeps a local list of known server endpoints, lets you switch between
them, and browses the remote gallery with search, sort and group filters.
While the server is still indexing its library, gallery commands wait and
report scan progress instead of failing.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
	PersistentPostRun: closeApp,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func initApp(cmd *cobra.Command, args []string) error {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	configDir, err := appConfigDir()
	if err != nil {
		return err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.SetEnvPrefix("VUVUR")
	viper.AutomaticEnv()
	viper.SetDefault("db_path", filepath.Join(configDir, "vuvur.db"))
	viper.SetDefault("endpoint", "")
	viper.SetDefault("timeout", "30s")
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfgStore, err = config.Open(viper.GetString("db_path"))
	if err != nil {
		return err
	}
	return nil
}

func closeApp(cmd *cobra.Command, args []string) {
	if cfgStore != nil {
		if err := cfgStore.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close config store")
		}
	}
}

func appConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config dir: %w", err)
	}
	dir := filepath.Join(base, "vuvur")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}
	return dir, nil
}

// activeEndpoint resolves the endpoint to talk to: the store's active entry,
// falling back to the config file / environment.
func activeEndpoint() (string, error) {
	endpoint, err := cfgStore.ActiveEndpoint()
	if err != nil {
		return "", err
	}
	if endpoint == "" {
		endpoint = viper.GetString("endpoint")
	}
	if endpoint == "" {
		return "", fmt.Errorf("no endpoint configured, run 'vuvur endpoint add <url>' first")
	}
	return endpoint, nil
}

// newAPIClient builds a client for the active endpoint, attaching a stored
// token when one exists.
func newAPIClient() (*api.Client, error) {
	endpoint, err := activeEndpoint()
	if err != nil {
		return nil, err
	}
	return buildClient(endpoint), nil
}

func buildClient(endpoint string) *api.Client {
	token, err := secrets.GetEndpointToken(endpoint)
	if err != nil {
		logger.Warn().Err(err).Msg("keyring lookup failed, continuing without token")
	}
	return api.NewClient(api.Params{
		BaseURL: endpoint,
		Token:   token,
		Timeout: viper.GetDuration("timeout"),
		Logger:  logger,
	})
}

// newGalleryController wires a controller to the active endpoint and the
// persisted zoom level.
func newGalleryController() (*gallery.Controller, error) {
	endpoint, err := activeEndpoint()
	if err != nil {
		return nil, err
	}
	zoom, err := cfgStore.ZoomLevel()
	if err != nil {
		return nil, err
	}
	factory := func(endpoint string) gallery.Gateway {
		return buildClient(endpoint)
	}
	return gallery.NewController(endpoint, zoom, factory, gallery.WithLogger(logger)), nil
}

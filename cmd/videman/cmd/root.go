package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mkrastev/videman/internal/constants"
	"github.com/mkrastev/videman/pkg/core/pipeline"
	"github.com/mkrastev/videman/pkg/core/settings"
	"github.com/mkrastev/videman/pkg/library"
)

var (
	cfgFile  string
	logLevel string

	// RootCmd is the base command. Exported for use in tests.
	RootCmd = &cobra.Command{
		Use:     constants.AppName,
		Version: constants.Version,
		Short:   "Organize a local video collection",
		Long: `videman fingerprints video files, identifies them against a remote
catalog, enriches them with metadata and subtitles, and materializes
the results under a templated library path.

Every command takes a folder and works off the sidecar files in it,
so commands can be chained: scan, then identify, then rename.`,
	}
)

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.videman/config.yaml or ./config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"log level (debug, info, warn, error)")
}

// initConfig reads the config file and VIDEMAN_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(filepath.Join(home, ".videman"))
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("VIDEMAN")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n",
				viper.ConfigFileUsed(), err)
		}
	}
}

// buildLogger maps the --log-level flag onto a logrus logger.
func buildLogger() *log.Logger {
	logger := log.New()
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("unknown log level %q, using warn", logLevel)
		level = log.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}

// buildSettings layers every configured value over the defaults. Only
// keys the option table knows are picked up from viper.
func buildSettings() *settings.Settings {
	overrides := make(map[string]string)
	for _, key := range settings.Defaults().Keys() {
		if viper.IsSet(key) {
			overrides[key] = viper.GetString(key)
		}
	}
	return settings.New(overrides)
}

// newLibrary builds the library façade all subcommands run against.
func newLibrary() (*library.Library, error) {
	return library.New(buildSettings(), buildLogger())
}

// finishBatch interprets the error of a batch operation. Individual
// failures are tolerated as long as at least one item went through;
// the summary already counts them. A fully failed batch or a
// structural error aborts the command, saving whatever state the
// successful items produced.
func finishBatch(lib *library.Library, err error) error {
	if err == nil {
		return nil
	}
	var batchErr *pipeline.BatchError
	if errors.As(err, &batchErr) && !batchErr.AllFailed(len(lib.Records)) {
		return nil
	}
	saveQuietly(lib)
	return err
}

// saveQuietly persists the sidecars on an error path, where the
// original error matters more than a failed save.
func saveQuietly(lib *library.Library) {
	if err := lib.Save(); err != nil {
		buildLogger().Warnf("could not save sidecar files: %v", err)
	}
}

// loadLibrary builds a library and fills it from the sidecars under
// folder.
func loadLibrary(folder string) (*library.Library, error) {
	lib, err := newLibrary()
	if err != nil {
		return nil, err
	}
	if err := lib.Load(folder); err != nil {
		return nil, err
	}
	if len(lib.Records) == 0 {
		return nil, fmt.Errorf("no sidecar files under %s, run \"videman scan\" first", folder)
	}
	return lib, nil
}

// Package cmd implements the boostd command line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/realme-mt6781-dev/android-hardware-mediatek/internal/profile"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "boostd",
	Short: "Adaptive performance boost daemon",
	Long: `boostd arbitrates per-thread scheduler utilization clamps for
performance boost sessions. Each session runs a PID controller over its
reported work durations; the arbiter folds the resulting clamp votes
into per-thread uclamp.min values.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		fmt.Sprintf("config file (default %s)", profile.ConfigFile()))
}

// initConfig wires viper: explicit file, else the default location,
// with BOOSTD_* environment overrides on top.
func initConfig() {
	profile.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(profile.ConfigDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BOOSTD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Warning: could not read config:", err)
		}
	}
}

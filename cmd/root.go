// Package cmd provides the root command and CLI setup for movemut.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	m "movemut.dev/pkg/movemut/internal/model"
)

// outputDirFlag is a root-level flag shared by commands that write result
// artifacts.
var outputDirFlag string

// verboseFlag raises the log level to debug.
var verboseFlag bool

// toolchainFlag selects the Move CLI binary driven by the pipeline.
var toolchainFlag string

// addressFlags are user-supplied named-address overrides ("name=0x...").
var addressFlags []string

const rootLongDescription = `Movemut measures the adequacy of a Move package's unit-test suite by
injecting externally generated mutants into a sandboxed copy of the package
and checking that the tests detect each fault.

A session always runs the untouched package first (the baseline); mutants are
only evaluated when the baseline passes.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "movemut",
		Short: "Move mutation testing tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func init() {
	configureRootFlags(rootCmd)
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(
		&outputDirFlag, outputFlagName, "o",
		viper.GetString(outputConfigKey),
		"directory for result artifacts",
	)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputConfigKey)

	cmd.PersistentFlags().StringVar(
		&toolchainFlag, toolchainFlagName,
		viper.GetString(toolchainConfigKey),
		"Move CLI binary to drive",
	)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(toolchainFlagName), toolchainConfigKey)

	cmd.PersistentFlags().StringArrayVar(&addressFlags, addressFlagName, nil, "named address override NAME=0x... (can be repeated)")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "log at debug level")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// parseAddressOverrides turns repeated NAME=ADDR flags into an ordered map.
func parseAddressOverrides(pairs []string) (m.NamedAddressMap, error) {
	addrs := m.NewNamedAddressMap()

	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return m.NamedAddressMap{}, fmt.Errorf("invalid address override %q, expected NAME=0x...", pair)
		}

		addr, err := m.ParseAddress(value)
		if err != nil {
			return m.NamedAddressMap{}, fmt.Errorf("address override %s: %w", name, err)
		}

		addrs.Set(name, addr)
	}

	return addrs, nil
}

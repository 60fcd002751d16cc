package cmd

import (
	"fmt"
	"os"
	"stakeregistry/domain/config"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "stakeregistry",
	Short: "Voter stake registry",
	Long: `Keeps the deposits, lockups, vote weights and rewards of the voters of
each registrar, and runs the periodic reward accrual.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	config.ReadConfig(configFile)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "config file")
}

func printYaml(value interface{}) error {
	text, err := marshalYaml(value)
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

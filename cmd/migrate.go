package cmd

import (
	"fmt"
	"stakeregistry/interface/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates the database tables",
	Run: func(cmd *cobra.Command, args []string) {
		defaultDependencyInject()

		if _, err := dbPool.Exec(repository.Schema); err != nil {
			logger.Fatal("🔴 migration failed", zap.Error(err))
		}
		fmt.Println("🟢 schema is up to date.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stops the reward accrual scheduler",
	Long: `Stops the reward accrual scheduler, which is started previously by 'start' command.
The running scheduler picks the request up at its next tick.`,
	Run: func(cmd *cobra.Command, args []string) {
		defaultDependencyInject()

		if err := memoInteractor.RequestStop(); err != nil {
			logger.Fatal("🔴 unable to request stop", zap.Error(err))
		}
		fmt.Println("stop requested.")

		memo, err := memoInteractor.GetSchedulerMemo()
		if err != nil {
			logger.Fatal("🔴 unable to read the scheduler memo", zap.Error(err))
		}
		if memo.LastAccrualTs > 0 {
			fmt.Printf("last accrual at %v over %v registrar(s).\n", timestamp(memo.LastAccrualTs), memo.AccruedRegistrars)
		}
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

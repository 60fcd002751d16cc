package cmd

import (
	"github.com/spf13/cobra"
)

var eventsAfter int64
var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events [registrar authority]",
	Short: "Lists the event journal",
	Long: `Lists the event journal, either of one voter or of everyone after
the given event id. The journal tells which transfers are due.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args) == 2 {
			return nil
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		if len(args) == 2 {
			events, err := eventInteractor.ListByVoter(args[0], args[1])
			if err != nil {
				return err
			}
			return printYaml(newEventViews(events))
		}

		events, err := eventInteractor.ListAfter(eventsAfter, eventsLimit)
		if err != nil {
			return err
		}
		return printYaml(newEventViews(events))
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().Int64Var(&eventsAfter, "after", 0, "list events with an id above this one")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 100, "maximum number of events")
}

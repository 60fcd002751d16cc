package cmd

import (
	"fmt"
	"stakeregistry/domain"
	"stakeregistry/domain/util"

	"github.com/spf13/cobra"
)

type voterFlags struct {
	mint         string
	index        int
	target       int
	amount       string
	lockup       uint64
	lockupUnit   string
	claimPartial bool
}

var voterOptions voterFlags

func printVoter(voter *domain.Voter) error {
	info, err := voterInteractor.Info(voter.Registrar, voter.Authority)
	if err != nil {
		return err
	}
	return printYaml(newVoterView(info))
}

var voterCmd = &cobra.Command{
	Use:   "voter",
	Short: "Manages the voters of a registrar",
}

var voterCreateCmd = &cobra.Command{
	Use:   "create <registrar> <authority>",
	Short: "Opens an empty voter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		voter, err := voterInteractor.Create(args[0], args[1])
		if err != nil {
			return err
		}
		return printVoter(voter)
	},
}

var voterPrimaryDepositCmd = &cobra.Command{
	Use:   "primary-deposit <registrar> <authority>",
	Short: "Locks the primary deposit in slot 0",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		voter, err := voterInteractor.PrimaryDeposit(args[0], args[1], voterOptions.mint)
		if err != nil {
			return err
		}
		return printVoter(voter)
	},
}

var voterPrimaryReleaseCmd = &cobra.Command{
	Use:   "primary-release <registrar> <authority>",
	Short: "Moves an expired primary deposit into a vesting slot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		voter, err := voterInteractor.PrimaryRelease(args[0], args[1], voterOptions.target)
		if err != nil {
			return err
		}
		return printVoter(voter)
	},
}

var voterDepositCmd = &cobra.Command{
	Use:   "deposit <registrar> <authority>",
	Short: "Adds tokens to an ordinary constant slot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(voterOptions.amount)
		if err != nil {
			return err
		}
		duration, err := parseDuration(voterOptions.lockup, voterOptions.lockupUnit)
		if err != nil {
			return err
		}

		defaultDependencyInject()

		voter, err := voterInteractor.OrdinaryDeposit(args[0], args[1], voterOptions.mint,
			voterOptions.index, amount, duration)
		if err != nil {
			return err
		}
		return printVoter(voter)
	},
}

var voterReleaseCmd = &cobra.Command{
	Use:   "release <registrar> <authority>",
	Short: "Moves tokens of an ordinary slot into a vesting slot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(voterOptions.amount)
		if err != nil {
			return err
		}

		defaultDependencyInject()

		voter, err := voterInteractor.OrdinaryRelease(args[0], args[1],
			voterOptions.index, voterOptions.target, amount)
		if err != nil {
			return err
		}
		return printVoter(voter)
	},
}

var voterWithdrawCmd = &cobra.Command{
	Use:   "withdraw <registrar> <authority>",
	Short: "Takes unlocked tokens out of a slot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(voterOptions.amount)
		if err != nil {
			return err
		}

		defaultDependencyInject()

		voter, err := voterInteractor.Withdraw(args[0], args[1], voterOptions.index, amount)
		if err != nil {
			return err
		}
		fmt.Printf("🟢 %v withdrawn.\n", token(amount))
		return printVoter(voter)
	},
}

var voterClaimCmd = &cobra.Command{
	Use:   "claim <registrar> <authority>",
	Short: "Claims the accrued reward",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var amount *uint64
		if voterOptions.claimPartial {
			parsed, err := parseAmount(voterOptions.amount)
			if err != nil {
				return err
			}
			amount = &parsed
		}

		defaultDependencyInject()

		claimed, err := voterInteractor.ClaimReward(args[0], args[1], amount)
		if err != nil {
			return err
		}
		fmt.Printf("🟢 %v claimed.\n", token(claimed))
		return nil
	},
}

var voterWeightCmd = &cobra.Command{
	Use:   "weight <registrar> <authority>",
	Short: "Prints the current vote weight",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		weight, err := voterInteractor.CurrentVotingWeight(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(util.NativeString(weight))
		return nil
	},
}

var voterInfoCmd = &cobra.Command{
	Use:   "info <registrar> <authority>",
	Short: "Shows the deposits, vote weight and reward of a voter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		info, err := voterInteractor.Info(args[0], args[1])
		if err != nil {
			return err
		}
		return printYaml(newVoterView(info))
	},
}

var voterCloseCmd = &cobra.Command{
	Use:   "close <registrar> <authority>",
	Short: "Removes an empty voter",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		if err := voterInteractor.Close(args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("🟢 voter closed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(voterCmd)

	voterPrimaryDepositCmd.Flags().StringVar(&voterOptions.mint, "mint", "", "governing token mint, checked when given")
	voterDepositCmd.Flags().StringVar(&voterOptions.mint, "mint", "", "governing token mint, checked when given")

	for _, c := range []*cobra.Command{voterDepositCmd, voterReleaseCmd, voterWithdrawCmd} {
		c.Flags().IntVar(&voterOptions.index, "index", 1, "deposit entry index")
		c.Flags().StringVar(&voterOptions.amount, "amount", "", "token amount")
		_ = c.MarkFlagRequired("amount")
	}
	for _, c := range []*cobra.Command{voterPrimaryReleaseCmd, voterReleaseCmd} {
		c.Flags().IntVar(&voterOptions.target, "target", 1, "deposit entry index that receives the vesting tokens")
	}
	voterDepositCmd.Flags().Uint64Var(&voterOptions.lockup, "lockup", 30, "lockup duration")
	voterDepositCmd.Flags().StringVar(&voterOptions.lockupUnit, "lockup-unit", "day", "unit of --lockup, day or month")

	voterClaimCmd.Flags().StringVar(&voterOptions.amount, "amount", "", "token amount, the whole reward when omitted")
	voterClaimCmd.PreRun = func(cmd *cobra.Command, args []string) {
		voterOptions.claimPartial = cmd.Flags().Changed("amount")
	}

	voterCmd.AddCommand(
		voterCreateCmd,
		voterPrimaryDepositCmd,
		voterPrimaryReleaseCmd,
		voterDepositCmd,
		voterReleaseCmd,
		voterWithdrawCmd,
		voterClaimCmd,
		voterWeightCmd,
		voterInfoCmd,
		voterCloseCmd,
	)
}

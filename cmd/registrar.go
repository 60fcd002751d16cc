package cmd

import (
	"fmt"
	"stakeregistry/domain"
	"stakeregistry/domain/config"
	"stakeregistry/domain/util"
	"stakeregistry/usecase"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type registrarFlags struct {
	realm          string
	realmAuthority string
	mint           string

	baselineFactor string
	maxExtraFactor string
	saturation     time.Duration

	minLockupPeriods     uint64
	minLockupUnit        string
	primaryLockupPeriods uint64
	primaryLockupUnit    string
	primaryAmount        string

	supply string
}

var registrarOptions registrarFlags

func addSupplyFlag(flags *pflag.FlagSet) {
	flags.StringVar(&registrarOptions.supply, "supply", "0", "governing token supply the maximum vote weight must fit")
}

func addVotingFlags(flags *pflag.FlagSet) {
	flags.StringVar(&registrarOptions.baselineFactor, "baseline-factor", "1", "vote weight of each deposited token")
	flags.StringVar(&registrarOptions.maxExtraFactor, "max-extra-factor", "0", "extra vote weight of each token locked up to saturation")
	flags.DurationVar(&registrarOptions.saturation, "saturation", 365*24*time.Hour, "lockup time that earns the full extra weight")
}

func addDepositFlags(flags *pflag.FlagSet) {
	flags.Uint64Var(&registrarOptions.minLockupPeriods, "min-lockup", 30, "minimum lockup of ordinary deposits")
	flags.StringVar(&registrarOptions.minLockupUnit, "min-lockup-unit", "day", "unit of --min-lockup, day or month")
	flags.Uint64Var(&registrarOptions.primaryLockupPeriods, "primary-lockup", 12, "lockup of the primary deposit")
	flags.StringVar(&registrarOptions.primaryLockupUnit, "primary-lockup-unit", "month", "unit of --primary-lockup, day or month")
	flags.StringVar(&registrarOptions.primaryAmount, "primary-amount", "0", "token amount of the primary deposit")
}

func parseAmount(s string) (uint64, error) {
	return util.ParseTokenAmount(s, config.GetTokenDecimals())
}

func parseDuration(periods uint64, unit string) (domain.LockupTimeDuration, error) {
	parsed, err := domain.ParseLockupTimeUnit(unit)
	if err != nil {
		return domain.LockupTimeDuration{}, err
	}
	return domain.LockupTimeDuration{Periods: periods, Unit: parsed}, nil
}

func (o registrarFlags) votingConfig() (domain.VotingConfig, error) {
	var cfg domain.VotingConfig
	var err error
	if cfg.BaselineVoteWeightScaledFactor, err = util.ParseTokenAmount(o.baselineFactor, factorDecimals); err != nil {
		return cfg, err
	}
	if cfg.MaxExtraLockupVoteWeightScaledFactor, err = util.ParseTokenAmount(o.maxExtraFactor, factorDecimals); err != nil {
		return cfg, err
	}
	if o.saturation < 0 {
		return cfg, fmt.Errorf("negative saturation '%v'", o.saturation)
	}
	cfg.LockupSaturationSecs = uint64(o.saturation / time.Second)
	return cfg, nil
}

func (o registrarFlags) depositConfig() (domain.DepositConfig, error) {
	var cfg domain.DepositConfig
	var err error
	if cfg.OrdinaryDepositMinLockupDuration, err = parseDuration(o.minLockupPeriods, o.minLockupUnit); err != nil {
		return cfg, err
	}
	if cfg.PrimaryDepositLockupDuration, err = parseDuration(o.primaryLockupPeriods, o.primaryLockupUnit); err != nil {
		return cfg, err
	}
	cfg.PrimaryDepositAmount, err = parseAmount(o.primaryAmount)
	return cfg, err
}

var registrarCmd = &cobra.Command{
	Use:   "registrar",
	Short: "Manages registrars",
}

var registrarCreateCmd = &cobra.Command{
	Use:   "create <address>",
	Short: "Creates a registrar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		votingConfig, err := registrarOptions.votingConfig()
		if err != nil {
			return err
		}
		depositConfig, err := registrarOptions.depositConfig()
		if err != nil {
			return err
		}
		supply, err := parseAmount(registrarOptions.supply)
		if err != nil {
			return err
		}

		registrar, err := registrarInteractor.Create(usecase.CreateRegistrarArgs{
			Address:            args[0],
			Realm:              registrarOptions.realm,
			RealmAuthority:     registrarOptions.realmAuthority,
			GoverningTokenMint: registrarOptions.mint,
			VotingConfig:       votingConfig,
			DepositConfig:      depositConfig,
		}, supply)
		if err != nil {
			return err
		}
		return printYaml(newRegistrarView(registrar))
	},
}

var registrarShowCmd = &cobra.Command{
	Use:   "show <address>",
	Short: "Shows a registrar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		registrar, err := registrarInteractor.Find(args[0])
		if err != nil {
			return err
		}
		return printYaml(newRegistrarView(registrar))
	},
}

var registrarVotingCmd = &cobra.Command{
	Use:   "voting-config <address>",
	Short: "Replaces the voting configuration of a registrar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		votingConfig, err := registrarOptions.votingConfig()
		if err != nil {
			return err
		}
		supply, err := parseAmount(registrarOptions.supply)
		if err != nil {
			return err
		}
		registrar, err := registrarInteractor.UpdateVotingConfig(args[0], votingConfig, supply)
		if err != nil {
			return err
		}
		return printYaml(newRegistrarView(registrar))
	},
}

var registrarDepositCmd = &cobra.Command{
	Use:   "deposit-config <address>",
	Short: "Replaces the deposit configuration of a registrar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		depositConfig, err := registrarOptions.depositConfig()
		if err != nil {
			return err
		}
		registrar, err := registrarInteractor.UpdateDepositConfig(args[0], depositConfig)
		if err != nil {
			return err
		}
		return printYaml(newRegistrarView(registrar))
	},
}

var registrarTimeOffsetCmd = &cobra.Command{
	Use:   "time-offset <address> <seconds>",
	Short: "Shifts the clock of a registrar, for testing",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return err
		}

		defaultDependencyInject()

		registrar, err := registrarInteractor.SetTimeOffset(args[0], offset)
		if err != nil {
			return err
		}
		return printYaml(newRegistrarView(registrar))
	},
}

var registrarAccrueCmd = &cobra.Command{
	Use:   "accrue [address]",
	Short: "Accrues rewards of one registrar, or of all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		if len(args) == 0 {
			accrued, err := registrarInteractor.AccrueAll()
			fmt.Printf("%v registrar(s) accrued.\n", accrued)
			return err
		}

		registrar, err := registrarInteractor.Accrue(args[0])
		if err != nil {
			return err
		}
		return printYaml(newRegistrarView(registrar))
	},
}

var registrarMaxWeightCmd = &cobra.Command{
	Use:   "max-weight <address>",
	Short: "Prints the maximum vote weight of a token supply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		supply, err := parseAmount(registrarOptions.supply)
		if err != nil {
			return err
		}
		weight, err := registrarInteractor.MaxVoteWeight(args[0], supply)
		if err != nil {
			return err
		}
		fmt.Println(util.NativeString(weight))
		return nil
	},
}

var registrarVotersCmd = &cobra.Command{
	Use:   "voters <address>",
	Short: "Lists the voters of a registrar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultDependencyInject()

		voters, err := voterInteractor.FindByRegistrar(args[0])
		if err != nil {
			return err
		}
		for i, voter := range voters {
			deposited, err := voter.AmountDepositedNative()
			if err != nil {
				return err
			}
			fmt.Printf("#%03d - %v [ %v ]\n", i+1, voter.Authority, token(deposited))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registrarCmd)

	flags := registrarCreateCmd.Flags()
	flags.StringVar(&registrarOptions.realm, "realm", "", "realm address")
	flags.StringVar(&registrarOptions.realmAuthority, "realm-authority", "", "realm authority address")
	flags.StringVar(&registrarOptions.mint, "mint", "", "governing token mint address")
	addVotingFlags(flags)
	addDepositFlags(flags)
	addSupplyFlag(flags)
	for _, name := range []string{"realm", "realm-authority", "mint", "primary-amount"} {
		_ = registrarCreateCmd.MarkFlagRequired(name)
	}

	addVotingFlags(registrarVotingCmd.Flags())
	addSupplyFlag(registrarVotingCmd.Flags())
	addDepositFlags(registrarDepositCmd.Flags())
	addSupplyFlag(registrarMaxWeightCmd.Flags())

	registrarCmd.AddCommand(
		registrarCreateCmd,
		registrarShowCmd,
		registrarVotingCmd,
		registrarDepositCmd,
		registrarTimeOffsetCmd,
		registrarAccrueCmd,
		registrarMaxWeightCmd,
		registrarVotersCmd,
	)
}

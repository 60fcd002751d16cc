package cmd

import (
	"bytes"
	"stakeregistry/domain"
	"stakeregistry/domain/config"
	"stakeregistry/domain/util"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// factorDecimals turns a scaled voting factor into a decimal number.
const factorDecimals = 9

func marshalYaml(value interface{}) (string, error) {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)
	if err := encoder.Encode(value); err != nil {
		return "", err
	}
	if err := encoder.Close(); err != nil {
		return "", err
	}
	return buffer.String(), nil
}

func token(native uint64) string {
	return util.TokenString(native, config.GetTokenDecimals())
}

func factor(scaled uint64) string {
	return strings.TrimSuffix(util.TokenString(scaled, factorDecimals), " Token") + "x"
}

func timestamp(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

type votingConfigView struct {
	BaselineFactor  string `yaml:"baseline_factor"`
	MaxExtraFactor  string `yaml:"max_extra_factor"`
	SaturationSecs  uint64 `yaml:"saturation_secs"`
	SaturationHuman string `yaml:"saturation"`
}

type registrarView struct {
	Address            string               `yaml:"address"`
	Realm              string               `yaml:"realm"`
	RealmAuthority     string               `yaml:"realm_authority"`
	GoverningTokenMint string               `yaml:"governing_token_mint"`
	VotingConfig       votingConfigView     `yaml:"voting_config"`
	DepositConfig      domain.DepositConfig `yaml:"deposit_config"`
	RewardPerSecond    domain.FixedPoint    `yaml:"reward_amount_per_second"`
	RewardRotatedAt    string               `yaml:"reward_rate_rotated_at"`
	RewardAccruedAt    string               `yaml:"reward_accrued_at"`
	RewardIndex        domain.FixedPoint    `yaml:"reward_index"`
	IssuedReward       string               `yaml:"issued_reward"`
	PermanentlyLocked  string               `yaml:"permanently_locked"`
	TimeOffset         string               `yaml:"time_offset,omitempty"`
	Revision           int64                `yaml:"revision"`
}

func newRegistrarView(r *domain.Registrar) registrarView {
	view := registrarView{
		Address:            r.Address,
		Realm:              r.Realm,
		RealmAuthority:     r.RealmAuthority,
		GoverningTokenMint: r.GoverningTokenMint,
		VotingConfig: votingConfigView{
			BaselineFactor:  factor(r.VotingConfig.BaselineVoteWeightScaledFactor),
			MaxExtraFactor:  factor(r.VotingConfig.MaxExtraLockupVoteWeightScaledFactor),
			SaturationSecs:  r.VotingConfig.LockupSaturationSecs,
			SaturationHuman: (time.Duration(r.VotingConfig.LockupSaturationSecs) * time.Second).String(),
		},
		DepositConfig:     r.DepositConfig,
		RewardPerSecond:   r.CurrentRewardAmountPerSecond,
		RewardRotatedAt:   timestamp(r.LastRewardAmountPerSecondRotatedTs),
		RewardAccruedAt:   timestamp(r.RewardAccrualTs),
		RewardIndex:       r.RewardIndex,
		IssuedReward:      token(r.IssuedRewardAmount),
		PermanentlyLocked: token(r.PermanentlyLockedAmount),
		Revision:          r.Revision,
	}
	if r.TimeOffset != 0 {
		view.TimeOffset = (time.Duration(r.TimeOffset) * time.Second).String()
	}
	return view
}

type depositEntryView struct {
	Index          int           `yaml:"index"`
	Lockup         domain.Lockup `yaml:"lockup"`
	LockupEnd      string        `yaml:"lockup_end,omitempty"`
	Locked         string        `yaml:"locked"`
	Unlocked       string        `yaml:"unlocked"`
	VotingPower    uint64        `yaml:"voting_power"`
	VotingBaseline uint64        `yaml:"voting_power_baseline"`
	VestingRate    string        `yaml:"vesting_rate,omitempty"`
	NextVesting    string        `yaml:"next_vesting,omitempty"`
}

type voterView struct {
	Authority      string             `yaml:"authority"`
	Registrar      string             `yaml:"registrar"`
	At             string             `yaml:"at"`
	VotingPower    uint64             `yaml:"voting_power"`
	VotingBaseline uint64             `yaml:"voting_power_baseline"`
	Reward         string             `yaml:"reward"`
	DepositEntries []depositEntryView `yaml:"deposit_entries"`
}

func newVoterView(info *domain.VoterInfo) voterView {
	view := voterView{
		Authority:      info.Authority,
		Registrar:      info.Registrar,
		At:             timestamp(info.Timestamp),
		VotingPower:    info.VotingPower,
		VotingBaseline: info.VotingPowerBaseline,
		Reward:         token(info.RewardAmount),
		DepositEntries: make([]depositEntryView, 0, len(info.DepositEntries)),
	}
	for _, d := range info.DepositEntries {
		entry := depositEntryView{
			Index:          d.Index,
			Lockup:         d.Lockup,
			Locked:         token(d.AmountLocked),
			Unlocked:       token(d.AmountUnlocked),
			VotingPower:    d.VotingPower,
			VotingBaseline: d.VotingPowerBaseline,
		}
		if d.Lockup.IsVesting() {
			entry.LockupEnd = timestamp(d.Lockup.EndTs())
		}
		if d.Vesting != nil {
			entry.VestingRate = token(d.Vesting.Rate)
			entry.NextVesting = timestamp(int64(d.Vesting.NextTimestamp))
		}
		view.DepositEntries = append(view.DepositEntries, entry)
	}
	return view
}

type eventView struct {
	Id        int64  `yaml:"id"`
	Type      string `yaml:"type"`
	Voter     string `yaml:"voter"`
	Amount    string `yaml:"amount"`
	Index     *int   `yaml:"index,omitempty"`
	Target    *int   `yaml:"target,omitempty"`
	Lockup    string `yaml:"lockup,omitempty"`
	Timestamp string `yaml:"timestamp"`
}

func newEventViews(events []domain.Event) []eventView {
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		view := eventView{
			Id:        e.Id,
			Type:      e.Type,
			Voter:     e.Voter,
			Amount:    token(e.Amount),
			Index:     e.Info.DepositEntryIndex,
			Target:    e.Info.TargetDepositEntryIndex,
			Timestamp: timestamp(e.Timestamp),
		}
		if e.Info.Lockup != nil {
			view.Lockup = e.Info.Lockup.Kind.Type.String() + " " + e.Info.Lockup.Kind.Duration.String()
		}
		views = append(views, view)
	}
	return views
}

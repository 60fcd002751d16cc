package domain

import "time"

const (
	EventPrimaryDeposit         = "primary_deposit"
	EventPrimaryReleaseDeposit  = "primary_release_deposit"
	EventOrdinaryDeposit        = "ordinary_deposit"
	EventOrdinaryReleaseDeposit = "ordinary_release_deposit"
	EventWithdraw               = "withdraw"
	EventClaimReward            = "claim_reward"
)

// Event records one value movement for whoever executes the transfers.
type Event struct {
	Id        int64     `json:"id"`
	Type      string    `json:"type"`
	Registrar string    `json:"registrar"`
	Voter     string    `json:"voter"`
	Amount    uint64    `json:"amount"`
	Info      EventInfo `json:"info"`
	Timestamp int64     `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

type EventInfo struct {
	DepositEntryIndex       *int    `json:"deposit_entry_index,omitempty"`
	TargetDepositEntryIndex *int    `json:"target_deposit_entry_index,omitempty"`
	Lockup                  *Lockup `json:"lockup,omitempty"`
}

func NewEvent(eventType string, voter *Voter, amount uint64, now int64) Event {
	return Event{
		Type:      eventType,
		Registrar: voter.Registrar,
		Voter:     voter.Authority,
		Amount:    amount,
		Timestamp: now,
	}
}

func (e Event) WithIndex(index int) Event {
	e.Info.DepositEntryIndex = &index
	return e
}

func (e Event) WithTarget(index int) Event {
	e.Info.TargetDepositEntryIndex = &index
	return e
}

func (e Event) WithLockup(lockup Lockup) Event {
	e.Info.Lockup = &lockup
	return e
}

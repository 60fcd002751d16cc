package domain

import (
	"encoding/json"
	"time"
)

// Memorable is a value kept in the memos table as JSON.
type Memorable interface {
	ToJson() (string, error)
	FromJson(jstr string) error
}

type Memo struct {
	Key       string    `json:"key"`
	Memo      string    `json:"memo"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SchedulerMemo is shared between the running scheduler and the stop command.
type SchedulerMemo struct {
	StopRequested     bool  `json:"stop_requested"`
	LastAccrualTs     int64 `json:"last_accrual_ts"`
	AccruedRegistrars int   `json:"accrued_registrars"`
}

func (obj *SchedulerMemo) ToJson() (string, error) {
	jstr, err := json.Marshal(obj)
	return string(jstr), err
}

func (obj *SchedulerMemo) FromJson(jstr string) error {
	return json.Unmarshal([]byte(jstr), obj)
}

// MemoFields is a partial memo. Merging it replaces only the named fields of
// the stored memo.
type MemoFields map[string]interface{}

func (obj MemoFields) ToJson() (string, error) {
	jstr, err := json.Marshal(obj)
	return string(jstr), err
}

func (obj *MemoFields) FromJson(jstr string) error {
	return json.Unmarshal([]byte(jstr), obj)
}

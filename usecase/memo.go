package usecase

import (
	"stakeregistry/domain"
)

const (
	SchedulerMemoKey = "scheduler"
)

type MemoInteractor struct {
	memoRepository MemoRepository
}

func NewMemoInteractor(memoRepository MemoRepository) *MemoInteractor {
	interactor := &MemoInteractor{
		memoRepository: memoRepository,
	}
	return interactor
}

func (interactor *MemoInteractor) GetSchedulerMemo() (domain.SchedulerMemo, error) {
	var schedulerMemo domain.SchedulerMemo
	memo, err := interactor.memoRepository.Find(SchedulerMemoKey)
	if err != nil || memo == nil {
		return schedulerMemo, err
	}

	err = schedulerMemo.FromJson(memo.Memo)
	return schedulerMemo, err
}

// updateSchedulerMemo writes only fields, so the stop flag and the accrual
// record never overwrite each other.
func (interactor *MemoInteractor) updateSchedulerMemo(fields domain.MemoFields) error {
	_, err := interactor.memoRepository.Merge(SchedulerMemoKey, &fields)
	return err
}

// RequestStop asks a running scheduler to stop at its next tick.
func (interactor *MemoInteractor) RequestStop() error {
	return interactor.updateSchedulerMemo(domain.MemoFields{"stop_requested": true})
}

func (interactor *MemoInteractor) ClearStop() error {
	return interactor.updateSchedulerMemo(domain.MemoFields{"stop_requested": false})
}

func (interactor *MemoInteractor) IsStopRequested() (bool, error) {
	memo, err := interactor.GetSchedulerMemo()
	return memo.StopRequested, err
}

func (interactor *MemoInteractor) RecordAccrual(timestamp int64, accrued int) error {
	return interactor.updateSchedulerMemo(domain.MemoFields{
		"last_accrual_ts":    timestamp,
		"accrued_registrars": accrued,
	})
}

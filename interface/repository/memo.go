package repository

import (
	"stakeregistry/domain"

	"github.com/behrang/sqlbatch"
)

const (
	sqlMemoMerge = `
	insert into memos (
			key, memo, update_time
		)
		values (
			$1, $2::jsonb, now()
		)
	on conflict (key) do
		update set
			memo = memos.memo || excluded.memo,
			update_time = excluded.update_time
`

	sqlMemoFind = `
	select
		key, memo, update_time
	from memos
	where key = $1
`
)

type MemoRepository struct {
	batchHandler BatchHandler
}

func NewMemoRepository(db BatchHandler) *MemoRepository {
	return &MemoRepository{batchHandler: db}
}

func readMemo(scan func(...interface{}) error) (interface{}, error) {
	r := domain.Memo{}
	var jstr []byte
	err := scan(
		&r.Key, &jstr, &r.UpdatedAt,
	)
	if err != nil {
		return &r, err
	}
	r.Memo = string(jstr)
	return &r, nil
}

// Merge writes the top level fields of memo over the memo stored under key in
// a single statement, so concurrent merges of other fields are kept. It
// returns the stored row.
func (repo *MemoRepository) Merge(key string, memo domain.Memorable) (*domain.Memo, error) {
	jstr, err := memo.ToJson()
	if err != nil {
		return nil, err
	}
	results, err := repo.batchHandler.Batch(&BatchOptionNormal, []sqlbatch.Command{
		{
			Query: sqlMemoMerge,
			Args: []interface{}{
				key, jstr,
			},
			Affect: 1,
		},
		{
			Query:   sqlMemoFind,
			Args:    []interface{}{key},
			ReadOne: readMemo,
		},
	})
	if err != nil || len(results) < 2 {
		return nil, err
	}

	result, _ := results[1].(*domain.Memo)
	return result, nil
}

func (repo *MemoRepository) Find(key string) (*domain.Memo, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   sqlMemoFind,
			Args:    []interface{}{key},
			ReadOne: readMemo,
		},
	})
	if err != nil || len(results) == 0 {
		return nil, ignoreNoRows(err)
	}
	result, _ := results[0].(*domain.Memo)
	if result == nil || result.Key == "" {
		return nil, nil
	}
	return result, nil
}

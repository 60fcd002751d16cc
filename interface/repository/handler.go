package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/behrang/sqlbatch"
)

var (
	BatchOptionNormal = sql.TxOptions{
		ReadOnly:  false,
		Isolation: sql.LevelReadCommitted,
	}

	BatchOptionNormalReadOnly = sql.TxOptions{
		ReadOnly:  true,
		Isolation: sql.LevelReadCommitted,
	}

	BatchOptionSerializable = sql.TxOptions{
		ReadOnly:  false,
		Isolation: sql.LevelSerializable,
	}
)

var (
	// ErrorStaleRevision means another writer committed the record first.
	ErrorStaleRevision = fmt.Errorf("record was changed by another writer")
)

// BatchHandler is a database handler that executes a batch of SQL commands.
type BatchHandler interface {
	Batch(opts *sql.TxOptions, commands []sqlbatch.Command) ([]interface{}, error)
}

// amount passes a native amount to a numeric column. The sql package refuses
// uint64 values above the int64 range.
func amount(value uint64) string {
	return strconv.FormatUint(value, 10)
}

// ignoreNoRows turns a missing row into a nil result without error.
func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

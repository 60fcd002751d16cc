package dbhandler

import (
	"context"
	"errors"

	"database/sql"

	"github.com/behrang/sqlbatch"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const serializationFailure = "40001"

// DBHandler contains a connection to database.
// MaxRetry bounds the retries of serialization failures, zero means no bound.
type DBHandler struct {
	DB       *sql.DB
	Log      *zap.Logger
	MaxRetry int
}

// Batch creates a transaction and executes the batch of commands in that transaction.
// If a retryable error is received, the batch is retried.
func (handler DBHandler) Batch(opts *sql.TxOptions, commands []sqlbatch.Command) ([]interface{}, error) {

	for attempt := 1; ; attempt++ {
		results, err := handler.tryBatch(opts, commands)
		if IsRetryable(err) && (handler.MaxRetry == 0 || attempt <= handler.MaxRetry) {
			handler.logger().Warn("🟡 Retryable Postgres error, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		return results, err
	}
}

func (handler DBHandler) tryBatch(opts *sql.TxOptions, commands []sqlbatch.Command) (results []interface{}, err error) {

	results = make([]interface{}, len(commands))

	tx, err := handler.DB.BeginTx(context.Background(), opts)
	if err != nil {
		return
	}
	defer tx.Rollback()

	results, err = sqlbatch.Batch(tx, commands)

	if err == nil {
		err = tx.Commit()
	}

	return
}

func (handler DBHandler) logger() *zap.Logger {
	if handler.Log == nil {
		return zap.NewNop()
	}
	return handler.Log
}

// IsRetryable reports a Postgres serialization failure.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == serializationFailure
}

package repository

import (
	"encoding/json"
	"stakeregistry/domain"

	"github.com/behrang/sqlbatch"
)

const (
	sqlEventInsert = `
	insert into events (
			type, registrar, voter, amount, info, timestamp, create_time
		)
		values (
			$1, $2, $3, $4, $5::jsonb, $6, now()
		)
`

	sqlEventFindByVoter = `
	select
		id, type, registrar, voter, amount, info, timestamp, create_time
	from events
	where registrar = $1 and voter = $2
	order by id
`

	sqlEventFindAfter = `
	select
		id, type, registrar, voter, amount, info, timestamp, create_time
	from events
	where id > $1
	order by id
	limit $2
`
)

type EventRepository struct {
	batchHandler BatchHandler
}

func NewEventRepository(db BatchHandler) *EventRepository {
	return &EventRepository{batchHandler: db}
}

func readAllEvents(all interface{}, scan func(...interface{}) error) (interface{}, error) {
	r := domain.Event{}
	var infoJson []byte
	err := scan(
		&r.Id, &r.Type, &r.Registrar, &r.Voter, &r.Amount, &infoJson, &r.Timestamp, &r.CreatedAt,
	)
	if err == nil {
		err = json.Unmarshal(infoJson, &r.Info)
	}

	list := all.([]domain.Event)
	list = append(list, r)
	return list, err
}

func eventInsertCommand(event domain.Event) (sqlbatch.Command, error) {
	infoJson, err := json.Marshal(event.Info)
	if err != nil {
		return sqlbatch.Command{}, err
	}
	return sqlbatch.Command{
		Query: sqlEventInsert,
		Args: []interface{}{
			event.Type, event.Registrar, event.Voter, amount(event.Amount), infoJson, event.Timestamp,
		},
		Affect: 1,
	}, nil
}

func (repo *EventRepository) findAll(query string, args ...interface{}) ([]domain.Event, error) {
	results, err := repo.batchHandler.Batch(&BatchOptionNormalReadOnly, []sqlbatch.Command{
		{
			Query:   query,
			Args:    args,
			Init:    make([]domain.Event, 0),
			ReadAll: readAllEvents,
		},
	})
	if err != nil || len(results) == 0 {
		return nil, err
	}
	result, _ := results[0].([]domain.Event)
	return result, nil
}

func (repo *EventRepository) FindByVoter(registrar string, voter string) ([]domain.Event, error) {
	return repo.findAll(sqlEventFindByVoter, registrar, voter)
}

// FindAfter pages through the journal in id order.
func (repo *EventRepository) FindAfter(id int64, limit int) ([]domain.Event, error) {
	return repo.findAll(sqlEventFindAfter, id, limit)
}

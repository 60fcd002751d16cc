package usecase

import (
	"stakeregistry/domain"
)

const maxEventPage = 1000

type EventInteractor struct {
	eventRepository EventRepository
	settings        Settings
}

func NewEventInteractor(eventRepository EventRepository, settings Settings) *EventInteractor {
	interactor := &EventInteractor{
		eventRepository: eventRepository,
		settings:        settings,
	}
	return interactor
}

func (interactor *EventInteractor) ListByVoter(registrarAddress string, authority string) ([]domain.Event, error) {
	registrarAddress, err := NormalizeAddress(registrarAddress, interactor.settings.TestNet)
	if err != nil {
		return nil, err
	}
	authority, err = NormalizeAddress(authority, interactor.settings.TestNet)
	if err != nil {
		return nil, err
	}
	return interactor.eventRepository.FindByVoter(registrarAddress, authority)
}

// ListAfter returns up to limit journal events with an id above id.
func (interactor *EventInteractor) ListAfter(id int64, limit int) ([]domain.Event, error) {
	if limit <= 0 || limit > maxEventPage {
		limit = maxEventPage
	}
	return interactor.eventRepository.FindAfter(id, limit)
}

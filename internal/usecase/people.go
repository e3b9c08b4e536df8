package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"toggl-float-bridge/internal/ports"
)

// PersonPicker lists Float people and persists the user's selection, which
// every person-scoped operation reads from the settings afterwards.
type PersonPicker struct {
	float    ports.FloatClient
	settings ports.SettingsStore
	sink     ports.LogSink
	log      *slog.Logger
}

func NewPersonPicker(float ports.FloatClient, settings ports.SettingsStore, sink ports.LogSink, log *slog.Logger) *PersonPicker {
	return &PersonPicker{float: float, settings: settings, sink: sink, log: log}
}

// List writes all Float people to the sink, one "id name" line each.
func (p *PersonPicker) List(ctx context.Context) error {
	people, err := p.float.ListPeople(ctx)
	if err != nil {
		return fmt.Errorf("fetching Float people: %w", err)
	}
	for _, person := range people {
		p.sink.Log(fmt.Sprintf("%d  %s", person.ID, person.Name))
	}
	return nil
}

// Select persists the given person id after verifying it exists.
func (p *PersonPicker) Select(ctx context.Context, id int64) error {
	people, err := p.float.ListPeople(ctx)
	if err != nil {
		return fmt.Errorf("fetching Float people: %w", err)
	}
	for _, person := range people {
		if person.ID == id {
			if err := p.settings.SetFloatPersonID(id); err != nil {
				return fmt.Errorf("persisting person id: %w", err)
			}
			p.sink.Log(fmt.Sprintf("Tracking time as %s.", person.Name))
			return nil
		}
	}
	p.sink.Error(fmt.Sprintf("No Float person with id %d.", id))
	return nil
}

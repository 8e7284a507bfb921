// Package store defines the persistence contract. Each of a profile's
// records (metadata+messages, events, personas, insights) is an
// independently keyed JSON document, so partial updates never rewrite
// sibling records. Driver adapters implement the small Records interface;
// the typed repositories here layer the JSON codec on top.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confidant-ai/confidant/internal/model"
)

// Record kinds. One (profileID, kind) pair addresses one document.
const (
	KindProfile         = "profile"
	KindEvents          = "events"
	KindUserPersona     = "persona_user"
	KindOpponentPersona = "persona_opponent"
	KindInsights        = "insights"
)

// ErrRecordNotFound is returned by Records.Get for an absent key. Adapters
// return it directly; the typed layer translates it to model.ErrNotFound or
// an empty default depending on the record kind.
var ErrRecordNotFound = fmt.Errorf("record not found")

// Records is the raw keyed persistence collaborator.
type Records interface {
	Get(ctx context.Context, profileID, kind string) ([]byte, error)
	Put(ctx context.Context, profileID, kind string, body []byte) error
	// List returns the bodies of every record of one kind.
	List(ctx context.Context, kind string) ([][]byte, error)
	HealthPing(ctx context.Context) error
	Close() error
}

// Store exposes typed persistence operations required by services.
type Store interface {
	Profiles() Profiles
	Events() Events
	Personas() Personas
	Insights() Insights
	HealthPing(ctx context.Context) error
	Close() error
}

type Profiles interface {
	// Get returns the profile without its events record attached.
	Get(ctx context.Context, profileID string) (*model.Profile, error)
	// Put writes the profile record (metadata, messages, processed sources).
	// The Events field is never persisted here.
	Put(ctx context.Context, p *model.Profile) error
	List(ctx context.Context) ([]*model.Profile, error)
}

type Events interface {
	// List returns the profile's events, empty when none were ever written.
	List(ctx context.Context, profileID string) ([]model.Event, error)
	Put(ctx context.Context, profileID string, events []model.Event) error
}

type Personas interface {
	GetUser(ctx context.Context, profileID string) (*model.UserPersona, error)
	PutUser(ctx context.Context, p *model.UserPersona) error
	GetOpponent(ctx context.Context, profileID string) (*model.OpponentPersona, error)
	PutOpponent(ctx context.Context, p *model.OpponentPersona) error
}

type Insights interface {
	List(ctx context.Context, profileID string) ([]model.ContextualInsight, error)
	Put(ctx context.Context, profileID string, insights []model.ContextualInsight) error
}

// New wraps a Records adapter in the typed Store.
func New(r Records) Store { return &recordStore{r: r} }

type recordStore struct{ r Records }

func (s *recordStore) Profiles() Profiles                      { return profiles{s.r} }
func (s *recordStore) Events() Events                          { return events{s.r} }
func (s *recordStore) Personas() Personas                      { return personas{s.r} }
func (s *recordStore) Insights() Insights                      { return insights{s.r} }
func (s *recordStore) HealthPing(ctx context.Context) error    { return s.r.HealthPing(ctx) }
func (s *recordStore) Close() error                            { return s.r.Close() }

// --- Profiles ---

type profiles struct{ r Records }

func (p profiles) Get(ctx context.Context, profileID string) (*model.Profile, error) {
	body, err := p.r.Get(ctx, profileID, KindProfile)
	if err == ErrRecordNotFound {
		return nil, fmt.Errorf("profile %s: %w", profileID, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var out model.Profile
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", profileID, err)
	}
	out.Events = nil
	return &out, nil
}

func (p profiles) Put(ctx context.Context, prof *model.Profile) error {
	cp := *prof
	cp.Events = nil
	body, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	return p.r.Put(ctx, prof.ProfileID, KindProfile, body)
}

func (p profiles) List(ctx context.Context) ([]*model.Profile, error) {
	bodies, err := p.r.List(ctx, KindProfile)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Profile, 0, len(bodies))
	for _, body := range bodies {
		var prof model.Profile
		if err := json.Unmarshal(body, &prof); err != nil {
			return nil, fmt.Errorf("decode profile record: %w", err)
		}
		prof.Events = nil
		out = append(out, &prof)
	}
	return out, nil
}

// --- Events ---

type events struct{ r Records }

func (e events) List(ctx context.Context, profileID string) ([]model.Event, error) {
	body, err := e.r.Get(ctx, profileID, KindEvents)
	if err == ErrRecordNotFound {
		return []model.Event{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []model.Event
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode events %s: %w", profileID, err)
	}
	return out, nil
}

func (e events) Put(ctx context.Context, profileID string, evts []model.Event) error {
	body, err := json.Marshal(evts)
	if err != nil {
		return err
	}
	return e.r.Put(ctx, profileID, KindEvents, body)
}

// --- Personas ---

type personas struct{ r Records }

func (p personas) GetUser(ctx context.Context, profileID string) (*model.UserPersona, error) {
	body, err := p.r.Get(ctx, profileID, KindUserPersona)
	if err == ErrRecordNotFound {
		return nil, fmt.Errorf("user persona %s: %w", profileID, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var out model.UserPersona
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode user persona %s: %w", profileID, err)
	}
	return &out, nil
}

func (p personas) PutUser(ctx context.Context, persona *model.UserPersona) error {
	body, err := json.Marshal(persona)
	if err != nil {
		return err
	}
	return p.r.Put(ctx, persona.ProfileID, KindUserPersona, body)
}

func (p personas) GetOpponent(ctx context.Context, profileID string) (*model.OpponentPersona, error) {
	body, err := p.r.Get(ctx, profileID, KindOpponentPersona)
	if err == ErrRecordNotFound {
		return nil, fmt.Errorf("opponent persona %s: %w", profileID, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var out model.OpponentPersona
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode opponent persona %s: %w", profileID, err)
	}
	if out.BasicInfo == nil {
		out.BasicInfo = map[string]string{}
	}
	return &out, nil
}

func (p personas) PutOpponent(ctx context.Context, persona *model.OpponentPersona) error {
	body, err := json.Marshal(persona)
	if err != nil {
		return err
	}
	return p.r.Put(ctx, persona.ProfileID, KindOpponentPersona, body)
}

// --- Insights ---

type insights struct{ r Records }

func (i insights) List(ctx context.Context, profileID string) ([]model.ContextualInsight, error) {
	body, err := i.r.Get(ctx, profileID, KindInsights)
	if err == ErrRecordNotFound {
		return []model.ContextualInsight{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []model.ContextualInsight
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode insights %s: %w", profileID, err)
	}
	return out, nil
}

func (i insights) Put(ctx context.Context, profileID string, list []model.ContextualInsight) error {
	body, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return i.r.Put(ctx, profileID, KindInsights, body)
}

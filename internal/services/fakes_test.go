package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/confidant-ai/confidant/internal/model"
	"github.com/confidant-ai/confidant/internal/store"
	"github.com/confidant-ai/confidant/internal/timex"
)

// --- Fakes ---

// memRecords is an in-memory Records adapter. failPut, when set, makes every
// Put of that kind fail, for exercising commit-failure paths.
type memRecords struct {
	mu      sync.Mutex
	data    map[string][]byte // key: profileID+"/"+kind
	failPut map[string]error  // kind -> error
}

func newMemRecords() *memRecords {
	return &memRecords{data: make(map[string][]byte), failPut: make(map[string]error)}
}

func (m *memRecords) Get(_ context.Context, profileID, kind string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.data[profileID+"/"+kind]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return body, nil
}

func (m *memRecords) Put(_ context.Context, profileID, kind string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failPut[kind]; err != nil {
		return err
	}
	m.data[profileID+"/"+kind] = append([]byte(nil), body...)
	return nil
}

func (m *memRecords) List(_ context.Context, kind string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]byte
	for k, v := range m.data {
		if strings.HasSuffix(k, "/"+kind) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memRecords) HealthPing(context.Context) error { return nil }
func (m *memRecords) Close() error                     { return nil }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// --- Shared environment ---

var cst = time.FixedZone("UTC+8", 8*3600)

type testEnv struct {
	records *memRecords
	store   store.Store
	locks   *ProfileLocks
	norm    *timex.Normalizer
}

// newTestEnv pins "now" so day bucketing in tests is deterministic.
func newTestEnv(now time.Time) *testEnv {
	rec := newMemRecords()
	return &testEnv{
		records: rec,
		store:   store.New(rec),
		locks:   NewProfileLocks(),
		norm:    timex.NewNormalizer(fixedClock{t: now}, cst),
	}
}

func (e *testEnv) seedProfile(t *testing.T, p *model.Profile) {
	t.Helper()
	if err := e.store.Profiles().Put(context.Background(), p); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func nopLog() zerolog.Logger { return zerolog.Nop() }

func msgAt(ts time.Time, sender model.Sender, text string) model.Message {
	return model.Message{
		MessageID:   model.NewMessageID(),
		Timestamp:   ts.UTC(),
		Sender:      sender,
		ContentType: model.ContentText,
		Text:        text,
	}
}

func evtAt(ts time.Time, summary string) model.Event {
	return model.Event{EventID: model.NewEventID(), Timestamp: ts.UTC(), Summary: summary}
}

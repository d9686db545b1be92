package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayloop/internal/domain/shared/events"
)

type testEvent struct {
	ID string `json:"id"`
	At time.Time
}

func (e testEvent) EventName() string     { return "booking.created" }
func (e testEvent) AggregateID() string   { return e.ID }
func (e testEvent) OccurredAt() time.Time { return e.At }

type collectingOutbox struct {
	records []EventRecord
	fail    error
}

func (o *collectingOutbox) Add(ctx context.Context, record EventRecord) error {
	if o.fail != nil {
		return o.fail
	}
	o.records = append(o.records, record)
	return nil
}

func TestJSONEventEncoder(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	encoder := JSONEventEncoder{IDGenerator: func() string { return "rec-1" }}

	rec, err := encoder.Encode(testEvent{ID: "bkg-1", At: at})
	require.NoError(t, err)

	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "booking.created", rec.Name)
	assert.Equal(t, "bkg-1", rec.Aggregate)
	assert.Equal(t, at, rec.OccurredAt)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Payload, &decoded))
	assert.Equal(t, "bkg-1", decoded["id"])
}

func TestRecordDomainEvents(t *testing.T) {
	box := &collectingOutbox{}
	evs := []events.DomainEvent{
		testEvent{ID: "bkg-1", At: time.Now()},
		testEvent{ID: "bkg-2", At: time.Now()},
	}

	require.NoError(t, RecordDomainEvents(context.Background(), box, nil, evs))
	require.Len(t, box.records, 2)
	assert.NotEmpty(t, box.records[0].ID)
	assert.NotEqual(t, box.records[0].ID, box.records[1].ID)
}

func TestRecordDomainEventsNilOutbox(t *testing.T) {
	evs := []events.DomainEvent{testEvent{ID: "bkg-1", At: time.Now()}}
	assert.NoError(t, RecordDomainEvents(context.Background(), nil, nil, evs))
	assert.NoError(t, RecordDomainEvents(context.Background(), &collectingOutbox{}, nil, nil))
}

func TestRecordDomainEventsPropagatesAddFailure(t *testing.T) {
	box := &collectingOutbox{fail: assert.AnError}
	evs := []events.DomainEvent{testEvent{ID: "bkg-1", At: time.Now()}}
	assert.ErrorIs(t, RecordDomainEvents(context.Background(), box, nil, evs), assert.AnError)
}

package events

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONSinkWithWriter(&buf)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sink.Emit(New("inst-1", TypePurchase, at, map[string]any{
		"recipient": "alice",
		"first_id":  int64(1),
		"amount":    int64(2),
	}))
	sink.Emit(New("inst-1", TypePaused, at, nil))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var ev Event
	require.NoError(t, json.Unmarshal(lines[0], &ev))
	assert.Equal(t, TypePurchase, ev.Type)
	assert.Equal(t, "inst-1", ev.InstanceID)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, "alice", ev.Fields["recipient"])
}

func TestMemorySinkOfType(t *testing.T) {
	sink := NewMemorySink()
	now := time.Now()

	sink.Emit(New("i", TypePurchase, now, nil))
	sink.Emit(New("i", TypeAirdrop, now, nil))
	sink.Emit(New("i", TypePurchase, now, nil))

	assert.Len(t, sink.Events(), 3)
	assert.Len(t, sink.OfType(TypePurchase), 2)
	assert.Len(t, sink.OfType(TypeResumed), 0)
}

func TestFanout(t *testing.T) {
	a, b := NewMemorySink(), NewMemorySink()
	f := Fanout{a, b}

	f.Emit(New("i", TypeResumed, time.Now(), nil))
	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPublisher struct {
	mu    sync.Mutex
	topic string
	batch [][]AggregatedLogEntry
}

func (p *memPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batch = append(p.batch, payload.([]AggregatedLogEntry))
	return nil
}

func (p *memPublisher) entries() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range p.batch {
		out = append(out, b...)
	}
	return out
}

func TestJSONOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: "info", Format: "json", Writer: &buf})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("forecast request", String("product", "85123A"), Int("horizon", 4), Bool("ok", true))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "forecast request", rec["message"])
	assert.Equal(t, "85123A", rec["product"])
	assert.EqualValues(t, 4, rec["horizon"])
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: "debug", Format: "json", Writer: &buf})
	require.NoError(t, err)

	l.With(String("component", "ingest")).Debug("source loaded", Duration("duration_ms", 1500*time.Millisecond), Error(nil))

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "ingest", rec["component"])
	assert.EqualValues(t, 1500, rec["duration_ms"])
	assert.Contains(t, rec["caller"], "logger_test.go")
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestCollectorAggregatesErrors(t *testing.T) {
	pub := &memPublisher{}
	l, err := New(&Config{Level: "error", Format: "json", Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "demandcast.logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("load failed", String("source", "a.csv"), Error(errors.New("boom")))
	}
	l.Error("load failed", String("source", "b.csv"))
	l.Warn("not collected")
	l.RemoveCollector()

	got := pub.entries()
	require.Len(t, got, 2)
	counts := map[string]int{}
	for _, e := range got {
		counts[e.Fields["source"].(string)] = e.Count
		assert.Equal(t, "error", e.Level)
	}
	assert.Equal(t, map[string]int{"a.csv": 3, "b.csv": 1}, counts)
	assert.Equal(t, "demandcast.logs", pub.topic)
}

func TestChildLoggersShareCollector(t *testing.T) {
	pub := &memPublisher{}
	l, err := New(&Config{Level: "error", Format: "json", Writer: &bytes.Buffer{}})
	require.NoError(t, err)

	before := l.With(String("component", "ingest"))
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Topic: "t", Publisher: pub})
	after := l.With(String("component", "forecast"))

	before.Error("source failed", String("source", "a.csv"))
	after.Error("fit failed", String("backend", "ets"))
	l.RemoveCollector()

	got := pub.entries()
	require.Len(t, got, 2)
	msgs := []string{got[0].Message, got[1].Message}
	assert.ElementsMatch(t, []string{"source failed", "fit failed"}, msgs)

	assert.NotPanics(t, func() { after.Error("after removal") })
	assert.Len(t, pub.entries(), 2)
}

func TestCollectorFlushesOnThreshold(t *testing.T) {
	pub := &memPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Topic: "t", Publisher: pub})
	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batch, 1)
	assert.Len(t, pub.batch[0], 2)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error("ignored", Error(errors.New("x"))) })
}

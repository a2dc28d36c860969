package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"DemandCast/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topic string
	key   []byte
	value interface{}
	err   error
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return f.err
}

func (f *fakeProducer) Close() error { return nil }

func TestKafkaEventPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaEventPublisher(fp, "demandcast.forecasts")
	ev := models.ForecastEvent{ProductCode: "85123A", Backend: models.BackendAutoOrderAR, Status: models.StatusOK, Timestamp: time.Now()}

	require.NoError(t, p.PublishForecast(context.Background(), ev))
	assert.Equal(t, "demandcast.forecasts", fp.topic)
	assert.Equal(t, []byte("85123A"), fp.key)
	assert.Equal(t, ev, fp.value)
	assert.NoError(t, p.Close())

	fp.err = errors.New("down")
	assert.ErrorIs(t, p.PublishForecast(context.Background(), ev), fp.err)
}

func TestNoopEventPublisher(t *testing.T) {
	var p NoopEventPublisher
	assert.NoError(t, p.PublishForecast(context.Background(), models.ForecastEvent{}))
	assert.NoError(t, p.Close())
}

package events

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_NoBrokersIsNoop(t *testing.T) {
	t.Parallel()

	p := NewPublisher(nil)
	_, ok := p.(Noop)
	require.True(t, ok)
	assert.NoError(t, p.PublishEvent(context.Background(), TopicUserEvents, "k", map[string]any{"type": "x"}))
	assert.NoError(t, p.Close())
}

func TestNewPublisher_WithBrokers(t *testing.T) {
	t.Parallel()

	p := NewPublisher([]string{"localhost:9092"})
	prod, ok := p.(*Producer)
	require.True(t, ok)
	assert.Equal(t, "localhost:9092", prod.writer.Addr.String())
	assert.False(t, prod.writer.Async)
	assert.Equal(t, flushInterval, prod.writer.BatchTimeout)
	assert.Less(t, prod.writer.BatchTimeout, 100*time.Millisecond)
	assert.NoError(t, prod.Close())
}

func TestProducer_PublishEvent_Unmarshalable(t *testing.T) {
	t.Parallel()

	p := NewProducer([]string{"localhost:1"})
	defer p.Close()

	err := p.PublishEvent(context.Background(), TopicUserEvents, "k", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json.Marshal")
}

func TestProducer_PublishEvent_Integration(t *testing.T) {
	broker := os.Getenv("CMS_TEST_KAFKA")
	if broker == "" {
		t.Skip("CMS_TEST_KAFKA is required for tests")
	}

	topic := "cms_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	conn, err := kafka.DialLeader(ctx, "tcp", broker, topic, 0)
	require.NoError(t, err)
	_ = conn.Close()

	p := NewProducer([]string{broker})
	defer p.Close()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
		MaxWait:   time.Second,
	})
	defer r.Close()

	require.NoError(t, p.PublishEvent(ctx, topic, "42", map[string]any{"type": "field_created", "identifier": "title"}))

	m, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", string(m.Key))

	var event map[string]any
	require.NoError(t, json.Unmarshal(m.Value, &event))
	assert.Equal(t, "field_created", event["type"])
	assert.Equal(t, "title", event["identifier"])
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerPublishMarshalsJSON(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "pippydesk.analysis", "snappy")

	err := p.Publish(context.Background(), []byte("SPY"), map[string]string{"kind": "plan"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("SPY"), w.msgs[0].Key)

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "plan", got["kind"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducerPublishWrapsWriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, "t", "gzip")

	err := p.Publish(context.Background(), nil, "raw")
	assert.ErrorContains(t, err, "write to t")
	assert.Equal(t, []byte("raw"), w.msgs[0].Value)
}

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	_, err := NewProducer(WithTopic("t"))
	assert.Error(t, err)
	_, err = NewProducer(WithBrokers([]string{"localhost:9092"}))
	assert.Error(t, err)
}

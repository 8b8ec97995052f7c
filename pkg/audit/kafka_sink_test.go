package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewKafkaSink_RequiresBrokersAndTopic(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	_, err := NewKafkaSink(KafkaSinkConfig{Topic: "gateway-audit"}, log)
	assert.Error(t, err)

	_, err = NewKafkaSink(KafkaSinkConfig{Brokers: []string{"kafka-0:9092"}}, log)
	assert.Error(t, err)
}

func TestKafkaSink_CloseIsIdempotentAndStopsWrites(t *testing.T) {
	sink, err := NewKafkaSink(KafkaSinkConfig{
		Brokers: []string{"kafka-0:9092"},
		Topic:   "gateway-audit",
	}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Equal(t, "kafka", sink.Name())

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	err = sink.Write(context.Background(), &Event{ID: "1", Cluster: "prod-cluster"})
	assert.Error(t, err)
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/forest-carbon/internal/carbon"
	"github.com/sells-group/forest-carbon/internal/config"
	"github.com/sells-group/forest-carbon/internal/model"
)

type fakeProducer struct {
	msgs       []*kafka.Message
	produceErr error
	deliverErr error
	noReport   bool
	flushed    bool
	closed     bool
}

func (f *fakeProducer) Produce(msg *kafka.Message, ch chan kafka.Event) error {
	if f.produceErr != nil {
		return f.produceErr
	}
	f.msgs = append(f.msgs, msg)
	if !f.noReport {
		reply := *msg
		reply.TopicPartition.Error = f.deliverErr
		ch <- &reply
	}
	return nil
}

func (f *fakeProducer) Flush(int) int { f.flushed = true; return 0 }

func (f *fakeProducer) Close() { f.closed = true }

func completedRun() *model.Run {
	return &model.Run{
		ID:     "run-1",
		Source: model.SourceAPI,
		Status: model.RunStatusComplete,
		Result: &model.Result{
			Tier: carbon.TierGold,
			CarbonData: &carbon.Report{
				TotalArea:          1000,
				TotalCarbon:        2072.8,
				TotalCO2Equivalent: 7607.17,
			},
		},
	}
}

func TestCompleted(t *testing.T) {
	e := Completed(completedRun())
	assert.Equal(t, RunCompleted, e.Type)
	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, model.SourceAPI, e.Source)
	assert.Equal(t, carbon.TierGold, e.Tier)
	assert.Equal(t, 2072.8, e.TotalCarbon)
	assert.Equal(t, 7607.17, e.TotalCO2)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.OccurredAt.IsZero())
}

func TestFailed(t *testing.T) {
	e := Failed(&model.Run{ID: "run-2", Source: model.SourceCLI}, "insufficient data")
	assert.Equal(t, RunFailed, e.Type)
	assert.Equal(t, "insufficient data", e.Error)
	assert.Empty(t, e.Tier)
}

func TestNew_EmptyServersIsNop(t *testing.T) {
	p, err := New(config.KafkaConfig{Topic: "carbon-runs"})
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	require.NoError(t, p.Publish(context.Background(), Event{}))
	p.Close()
}

func TestKafkaPublisher_Publish(t *testing.T) {
	fp := &fakeProducer{}
	k := &KafkaPublisher{producer: fp, topic: "carbon-runs"}

	require.NoError(t, k.Publish(context.Background(), Completed(completedRun())))
	require.Len(t, fp.msgs, 1)

	msg := fp.msgs[0]
	assert.Equal(t, "carbon-runs", *msg.TopicPartition.Topic)
	assert.Equal(t, []byte("run-1"), msg.Key)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte(RunCompleted), msg.Headers[0].Value)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, RunCompleted, got.Type)
	assert.Equal(t, carbon.TierGold, got.Tier)
}

func TestKafkaPublisher_ProduceError(t *testing.T) {
	k := &KafkaPublisher{producer: &fakeProducer{produceErr: errors.New("queue full")}, topic: "t"}
	err := k.Publish(context.Background(), Event{Type: RunFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}

func TestKafkaPublisher_DeliveryError(t *testing.T) {
	k := &KafkaPublisher{producer: &fakeProducer{deliverErr: errors.New("broker down")}, topic: "t"}
	err := k.Publish(context.Background(), Event{Type: RunCompleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestKafkaPublisher_ContextDone(t *testing.T) {
	k := &KafkaPublisher{producer: &fakeProducer{noReport: true}, topic: "t"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := k.Publish(ctx, Event{Type: RunCompleted})
	require.ErrorIs(t, err, context.Canceled)
}

func TestKafkaPublisher_Close(t *testing.T) {
	fp := &fakeProducer{}
	(&KafkaPublisher{producer: fp, topic: "t"}).Close()
	assert.True(t, fp.flushed)
	assert.True(t, fp.closed)
}

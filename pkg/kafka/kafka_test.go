package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

type handlerFunc struct {
	topic string
	fn    func(context.Context, []byte) error
}

func (h handlerFunc) Topic() string { return h.topic }
func (h handlerFunc) Handle(ctx context.Context, data []byte) error { return h.fn(ctx, data) }

func TestProducerEncodesAndRecords(t *testing.T) {
	w := &fakeWriter{}
	p, err := NewProducer(WithWriter(w), WithProducerMetrics(NewMetrics(prometheus.NewRegistry())))
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "events", []byte("k"), map[string]int{"n": 1}))
	require.NoError(t, p.PublishMessage(context.Background(), "logs", "raw"))
	require.NoError(t, p.PublishBatch(context.Background(), "events", []Message{
		{Key: []byte("a"), Value: []byte("x"), Headers: map[string]string{TraceHeader: "abc"}},
	}))

	require.Len(t, w.msgs, 3)
	assert.Equal(t, "events", w.msgs[0].Topic)
	assert.JSONEq(t, `{"n":1}`, string(w.msgs[0].Value))
	assert.Equal(t, "raw", string(w.msgs[1].Value))
	assert.Equal(t, "abc", ExtractTraceID(w.msgs[2]))
}

func TestProducerWrapsWriteError(t *testing.T) {
	p, err := NewProducer(WithWriter(&fakeWriter{err: errors.New("no leader")}))
	require.NoError(t, err)
	err = p.Publish(context.Background(), "events", nil, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events")
}

func TestProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func newTestConsumer(t *testing.T, retries int) (*Consumer, *fakeReader, *fakeWriter) {
	t.Helper()
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerDLQ("events.dlq"),
		WithConsumerRetry(retries, time.Millisecond, 2*time.Millisecond),
		WithConsumerMetrics(NewMetrics(prometheus.NewRegistry())),
	)
	require.NoError(t, err)
	r, dlq := &fakeReader{}, &fakeWriter{}
	c.dlq = dlq
	c.newReader = func(string) messageReader { return r }
	return c, r, dlq
}

func TestConsumerRetriesThenCommits(t *testing.T) {
	c, r, dlq := newTestConsumer(t, 3)
	calls := 0
	c.RegisterHandler(handlerFunc{topic: "events", fn: func(context.Context, []byte) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}})
	c.readers["events"] = r

	c.process(kafka.Message{Topic: "events", Value: []byte(`{}`), Offset: 7})

	assert.Equal(t, 3, calls)
	assert.Empty(t, dlq.msgs)
	require.Len(t, r.committed, 1)
	assert.Equal(t, int64(7), r.committed[0].Offset)
}

func TestConsumerSendsPoisonMessageToDLQ(t *testing.T) {
	c, r, dlq := newTestConsumer(t, 1)
	calls := 0
	c.RegisterHandler(handlerFunc{topic: "events", fn: func(context.Context, []byte) error {
		calls++
		return errors.New("bad payload")
	}})
	c.readers["events"] = r

	c.process(kafka.Message{Topic: "events", Value: []byte(`nope`)})

	assert.Equal(t, 2, calls, "first attempt plus one retry")
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "events.dlq", dlq.msgs[0].Topic)
	assert.Equal(t, "nope", string(dlq.msgs[0].Value))
	assert.Len(t, r.committed, 1)
}

func TestConsumerHookRejectionSkipsRetries(t *testing.T) {
	c, r, dlq := newTestConsumer(t, 5)
	calls := 0
	c.RegisterHandler(handlerFunc{topic: "events", fn: func(context.Context, []byte) error {
		calls++
		return nil
	}})
	c.WithConsumerHook(HookFuncs{Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
		if !json.Valid(data) {
			return ctx, km, data, &HookError{Code: "ERR_VALIDATION"}
		}
		return ctx, km, data, nil
	}})
	c.readers["events"] = r

	c.process(kafka.Message{Topic: "events", Value: []byte(`{`)})

	assert.Zero(t, calls)
	assert.Len(t, dlq.msgs, 1)
}

func TestConsumerStartStop(t *testing.T) {
	c, _, _ := newTestConsumer(t, 0)
	require.Error(t, c.Start(), "no handlers")

	c.RegisterHandler(handlerFunc{topic: "events", fn: func(context.Context, []byte) error { return nil }})
	require.NoError(t, c.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))
	require.NoError(t, c.Stop(ctx), "second stop is a no-op")
}

func TestHookChainThreadsContextAndRecoversPanics(t *testing.T) {
	var order []string
	chain := NewHookChain(
		TraceHook(),
		HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before:"+TraceIDFrom(ctx))
				return ctx, km, append(data, '!'), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) { order = append(order, "after:2") },
		},
		nil,
		HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { order = append(order, "after:3") }},
	)

	km := kafka.Message{Headers: []kafka.Header{{Key: TraceHeader, Value: []byte("evt-1")}}}
	ctx, _, data, err := chain.BeforeHandle(context.Background(), "events", km, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "x!", string(data))
	assert.Equal(t, "evt-1", TraceIDFrom(ctx))
	_, ok := ctx.Value(CtxStartTime).(time.Time)
	assert.True(t, ok)

	chain.AfterHandle(ctx, "events", km, data, nil)
	assert.Equal(t, []string{"before:evt-1", "after:3", "after:2"}, order)

	panicky := NewHookChain(HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
		panic("boom")
	}})
	_, _, _, err = panicky.BeforeHandle(context.Background(), "events", km, nil)
	var he *HookError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "ERR_PANIC", he.Code)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 200*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
}

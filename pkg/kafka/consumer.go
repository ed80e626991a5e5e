package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	applogger "PerfectRatio/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// messageReader is the subset of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads registered topics and fans messages out to a worker pool.
// Messages of one partition are handled one at a time; failed messages are
// retried with backoff and then sent to the DLQ when one is configured.
type Consumer struct {
	cfg       *ConsumerConfig
	log       *applogger.Logger
	readers   map[string]messageReader
	handlers  map[string]MessageHandler
	newReader func(topic string) messageReader
	stopChan  chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	msgChan   chan kafka.Message
	dlq       Writer
	lockMu    sync.Mutex
	partLocks map[string]map[int]*sync.Mutex
	hook      ConsumerHook
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "perfectratio",
		WorkerCount: 1,
		BufferSize:  64,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	l := cfg.Logger
	if l == nil {
		l = applogger.Nop()
	}

	c := &Consumer{
		cfg:       cfg,
		log:       l,
		readers:   make(map[string]messageReader),
		handlers:  make(map[string]MessageHandler),
		stopChan:  make(chan struct{}),
		msgChan:   make(chan kafka.Message, cfg.BufferSize),
		partLocks: make(map[string]map[int]*sync.Mutex),
		hook:      NoopHook{},
	}
	c.newReader = func(topic string) messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			Topic:    topic,
			GroupID:  cfg.GroupID,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
		})
	}

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}, AllowAutoTopicCreation: true}
	}

	return c, nil
}

// RegisterHandler registers a message handler for its topic. A second handler
// for the same topic is ignored.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start starts one reader per registered topic and the worker pool.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}

	for topic := range c.handlers {
		c.readers[topic] = c.newReader(topic)
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.messageWorker()
	}

	for topic, reader := range c.readers {
		c.wg.Add(1)
		go c.consumeMessages(topic, reader)
	}

	c.log.Info("kafka consumer started",
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.Int("topics", len(c.readers)),
		applogger.String("group", c.cfg.GroupID),
	)
	return nil
}

// Stop stops the consumer and waits for in-flight messages until ctx is done.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		// fetches are cancelled through stopChan; in-flight handlers finish and commit
		close(c.stopChan)
		stopErr = c.waitForWg(ctx)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.log.Warn("kafka reader close failed", applogger.String("topic", topic), applogger.Error(err))
			}
		}

		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Warn("kafka dlq writer close failed", applogger.Error(err))
			}
		}
		if stopErr == nil {
			c.log.Info("kafka consumer stopped")
		}
	})

	return stopErr
}

func (c *Consumer) waitForWg(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (c *Consumer) consumeMessages(topic string, reader messageReader) {
	defer c.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			select {
			case <-c.stopChan:
				return
			default:
			}
			if !errors.Is(err, context.Canceled) {
				c.log.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
				time.Sleep(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, 1))
			}
			continue
		}

		// blocking send applies backpressure to the reader
		select {
		case c.msgChan <- msg:
			c.cfg.Metrics.setQueueDepth(topic, len(c.msgChan))
		case <-c.stopChan:
			return
		}
	}
}

func (c *Consumer) messageWorker() {
	defer c.wg.Done()

	for {
		select {
		case msg := <-c.msgChan:
			c.process(msg)
		case <-c.stopChan:
			return
		}
	}
}

// process handles one message with retries, DLQ and commit.
func (c *Consumer) process(km kafka.Message) {
	handler, ok := c.handlers[km.Topic]
	if !ok {
		return
	}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("kafka handler panic", applogger.String("topic", km.Topic), applogger.Any("panic", r))
		}
	}()

	pl := c.partitionLock(km.Topic, km.Partition)
	pl.Lock()
	defer pl.Unlock()

	err := c.handleWithRetry(handler, km)
	result := "ok"
	if err != nil {
		c.hook.OnError(context.Background(), km.Topic, km, km.Value, err)
		c.log.Error("kafka message failed",
			applogger.String("topic", km.Topic),
			applogger.Int("partition", km.Partition),
			applogger.Int64("offset", km.Offset),
			applogger.Error(err),
		)
		result = "dropped"
		if c.dlq != nil {
			if dlqErr := c.dlq.WriteMessages(context.Background(), kafka.Message{
				Topic:   c.cfg.DLQTopic,
				Key:     km.Key,
				Value:   km.Value,
				Time:    time.Now(),
				Headers: append(km.Headers, kafka.Header{Key: "source_topic", Value: []byte(km.Topic)}),
			}); dlqErr != nil {
				c.log.Error("kafka dlq write failed", applogger.String("dlq", c.cfg.DLQTopic), applogger.Error(dlqErr))
			} else {
				result = "dlq"
			}
		}
	}

	// commit on success or after DLQ so a poison message cannot block the partition
	if err == nil || result == "dlq" {
		if reader := c.readers[km.Topic]; reader != nil {
			_ = c.commitWithRetry(reader, km, 3)
		}
	}
	c.cfg.Metrics.observeHandled(km.Topic, result, time.Since(start))
}

func (c *Consumer) handleWithRetry(handler MessageHandler, km kafka.Message) error {
	var err error
	for attempt := 1; ; attempt++ {
		hctx, hmsg, hdata, berr := c.hook.BeforeHandle(context.Background(), km.Topic, km, km.Value)
		if berr != nil {
			// hooks reject messages deterministically; retrying will not help
			return berr
		}

		err = handler.Handle(hctx, hdata)
		c.hook.AfterHandle(hctx, km.Topic, hmsg, hdata, err)
		if err == nil || attempt > c.cfg.RetryMax {
			return err
		}

		c.hook.OnError(hctx, km.Topic, hmsg, hdata, err)
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.stopChan:
			return err
		}
	}
}

// commitWithRetry commits a single message offset with bounded retries.
func (c *Consumer) commitWithRetry(reader messageReader, km kafka.Message, max int) error {
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka commit failed", applogger.String("topic", km.Topic), applogger.Int("attempts", max), applogger.Error(err))
	return err
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()

	m, ok := c.partLocks[topic]
	if !ok {
		m = make(map[int]*sync.Mutex)
		c.partLocks[topic] = m
	}
	l, ok := m[partition]
	if !ok {
		l = &sync.Mutex{}
		m[partition] = l
	}
	return l
}

// backoffWithJitter returns min*2^(attempt-1) capped at max, minus up to 50% jitter.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	exp := max
	if attempt < 32 {
		if d := min << uint(attempt-1); d > 0 && d < max {
			exp = d
		}
	}
	half := int64(exp) / 2
	if half <= 0 {
		return exp
	}
	return exp - time.Duration(rand.Int63n(half))
}

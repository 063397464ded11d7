package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/config"
)

// Producer is the async sarama producer carrying account lifecycle events.
// Delivery is fire-and-forget from the caller's point of view: failed
// deliveries are logged by the drain goroutine, never surfaced to the
// directory operation that emitted the event.
type Producer struct {
	inner   sarama.AsyncProducer
	logger  *zap.Logger
	prefix  string
	drained chan struct{}
}

// NewProducer connects to the configured brokers.
func NewProducer(cfg config.KafkaSettings, logger *zap.Logger) (*Producer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sc := sarama.NewConfig()
	sc.Version = sarama.V3_5_0_0
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Compression = sarama.CompressionSnappy
	sc.Producer.Flush.Frequency = 250 * time.Millisecond
	sc.Producer.Flush.Messages = 64
	sc.Producer.Retry.Max = 5
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true

	inner, err := sarama.NewAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("connect kafka brokers %v: %w", cfg.Brokers, err)
	}

	p := &Producer{
		inner:   inner,
		logger:  logger,
		prefix:  cfg.TopicPrefix,
		drained: make(chan struct{}),
	}
	go p.drainErrors()

	logger.Info("kafka producer ready",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic_prefix", cfg.TopicPrefix),
	)
	return p, nil
}

// drainErrors logs delivery failures until the producer closes its error
// channel.
func (p *Producer) drainErrors() {
	defer close(p.drained)
	for perr := range p.inner.Errors() {
		p.logger.Error("event delivery failed",
			zap.String("topic", perr.Msg.Topic),
			zap.Error(perr.Err),
		)
	}
}

// Input accepts messages for asynchronous delivery.
func (p *Producer) Input() chan<- *sarama.ProducerMessage {
	return p.inner.Input()
}

// TopicName prefixes an event type with the configured topic prefix.
func (p *Producer) TopicName(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

// Close flushes pending messages and waits for the error drain to finish.
func (p *Producer) Close() error {
	p.logger.Info("closing kafka producer")
	err := p.inner.Close()
	<-p.drained
	if err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer queues messages in memory and writes them from one goroutine, so
// Publish never blocks a request. A full queue drops the message.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     *zap.Logger
	onFail  func(eventType string)
}

// NewProducer writes to any topic; the topic is chosen per message.
func NewProducer(brokers []string, buf int, log *zap.Logger, onFail func(eventType string)) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}, buf, log, onFail)
}

func newProducer(w messageWriter, buf int, log *zap.Logger, onFail func(string)) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	if onFail == nil {
		onFail = func(string) {}
	}
	if buf <= 0 {
		buf = 256
	}
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
		onFail:  onFail,
	}
}

// Start runs the writer loop until ctx is done, then flushes what is queued.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case m := <-p.inbox:
						p.write(m)
					default:
						if err := p.w.Close(); err != nil {
							p.log.Warn("kafka_writer_close_failed", zap.Error(err))
						}
						return
					}
				}
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		et := eventType(m)
		p.log.Error("kafka_publish_failed",
			zap.String("topic", m.Topic),
			zap.ByteString("key", m.Key),
			zap.String("event", et),
			zap.Error(err))
		p.onFail(et)
	}
}

func (p *Producer) Publish(topic string, key, value []byte, eventType string) {
	m := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(eventType)},
			{Key: HeaderEventVersion, Value: []byte("1")},
		},
	}
	select {
	case p.inbox <- m:
	default:
		p.log.Warn("kafka_inbox_full", zap.String("topic", topic), zap.String("event", eventType))
		p.onFail(eventType)
	}
}

// Tunggu sampai goroutine selesai flush.
func (p *Producer) WaitClosed() { <-p.closeCh }

package producer

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=producer.go -destination=mock/mock_writer.go -package=mock_producer

// Writer kafka.Writer 的最小介面, 測試時以 mock 取代
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 同步寫入固定 topic
type Producer interface {
	// Produce 會 block 到所有訊息都寫入
	Produce(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	RequiredAcks int
	RetryLimit   int
	RetryDelay   time.Duration
	RetryFactor  int
}

func DefaultConfig() *Config {
	return &Config{
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1, // 等待所有副本確認
		RetryLimit:   3,
		RetryDelay:   200 * time.Millisecond,
		RetryFactor:  2,
	}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 || c.Topic == "" {
		return ErrInvalidateParameter
	}
	if c.RetryLimit < 0 || c.RetryFactor < 1 {
		return ErrInvalidateParameter
	}
	return nil
}

// NewKafkaWriter 依照 config 建立 kafka.Writer
// 重試由 KafkaProducer 自己處理, writer 只嘗試一次
func NewKafkaWriter(cfg *Config, logger *zerolog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // 相同 key 寫入同一個 partition
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:  1,
		Async:        false,

		// 重連機制設置
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &net.Dialer{
					Timeout:   10 * time.Second, // 連接超時
					KeepAlive: 30 * time.Second, // TCP keepalive
				}
				return dialer.DialContext(ctx, network, address)
			},
		},

		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Msgf("kafka producer error: "+msg, args...)
		}),
	}
}

type KafkaProducer struct {
	writer Writer
	cfg    Config
	closed atomic.Bool
	logger *zerolog.Logger
}

func NewKafkaProducer(w Writer, cfg Config, logger *zerolog.Logger) (*KafkaProducer, error) {
	if w == nil {
		return nil, ErrInvalidateParameter
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &KafkaProducer{
		writer: w,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Produce 同步發送, 臨時錯誤依照 RetryDelay * RetryFactor^n 重試
func (p *KafkaProducer) Produce(ctx context.Context, msgs ...kafka.Message) error {
	if p.closed.Load() {
		return NewProducerError("Produce", p.cfg.Topic, ErrProducerClosed)
	}
	if len(msgs) == 0 {
		return nil
	}

	delay := p.cfg.RetryDelay
	var err error
	for attempt := 0; attempt <= p.cfg.RetryLimit; attempt++ {
		if attempt > 0 {
			p.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("topic", p.cfg.Topic).
				Msg("retry produce messages")
			select {
			case <-ctx.Done():
				return NewProducerError("Produce", p.cfg.Topic, ctx.Err())
			case <-time.After(delay):
			}
			delay *= time.Duration(p.cfg.RetryFactor)
		}

		// 檢查外部 context 是否已經取消
		if ctx.Err() != nil {
			return NewProducerError("Produce", p.cfg.Topic, ctx.Err())
		}

		err = p.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			return nil
		}
		if !IsTemporaryError(err) {
			break
		}
	}

	return NewProducerError("Produce", p.cfg.Topic, err)
}

func (p *KafkaProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

var _ Producer = (*KafkaProducer)(nil)

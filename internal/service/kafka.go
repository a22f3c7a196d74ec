package service

import (
	"context"
	"time"

	"robot-telemetry/internal/config"
	"robot-telemetry/internal/model"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonFast = jsoniter.ConfigFastest

const publishTimeout = 5 * time.Second

// KafkaProducer pushes every generated sample onto a firehose topic for
// downstream aggregators. Writes are best-effort: failures are logged
// and the generation loop keeps its schedule.
type KafkaProducer struct {
	writer *kafka.Writer
	logger *zap.SugaredLogger
}

// NewKafkaProducer returns nil when no broker is configured; the
// scheduler treats a nil producer as "firehose disabled".
func NewKafkaProducer(cfg *config.Config, logger *zap.SugaredLogger) *KafkaProducer {
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
		Transport: &kafka.Transport{
			TLS: cfg.CreateKafkaTLSConfig(),
		},
	}

	logger.Infow("Kafka firehose enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return &KafkaProducer{writer: writer, logger: logger}
}

// Publish writes one sample keyed by robot ID.
func (p *KafkaProducer) Publish(ctx context.Context, robotID string, sample model.TelemetrySample) {
	payload, err := jsonFast.Marshal(sample)
	if err != nil {
		p.logger.Errorw("failed to marshal telemetry for Kafka", "error", err)
		return
	}

	wctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(wctx, kafka.Message{
		Key:   []byte(robotID),
		Value: payload,
	})
	if err != nil {
		p.logger.Errorw("failed to publish telemetry to Kafka", "error", err)
	}
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

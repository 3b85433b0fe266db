package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ds124wfegd/elastix-api/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Producer publishes one event per finished run.
type Producer interface {
	Publish(ctx context.Context, event entity.RunEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer connects to brokers and makes sure topic exists. When disabled
// or unreachable it returns a producer that only logs.
func NewProducer(enabled bool, brokers, topic string) Producer {
	if !enabled {
		logrus.Info("Kafka publishing disabled, run events are only logged")
		return &mockProducer{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers)
	if err != nil {
		logrus.Warnf("Kafka connection failed: %v", err)
		logrus.Warn("Using mock producer instead")
		return &mockProducer{}
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.Infof("Could not create topic (might already exist): %v", err)
	}

	logrus.Infof("Connected to Kafka at %s, topic %s", brokers, topic)
	return &kafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		topic: topic,
	}
}

func (p *kafkaProducer) Publish(ctx context.Context, event entity.RunEvent) error {
	return p.write(ctx, []byte(event.RunID), event)
}

func (p *kafkaProducer) write(ctx context.Context, key []byte, message interface{}) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: messageBytes,
		Time:  time.Now(),
	})
	if err != nil {
		logrus.Errorf("Failed to write message to Kafka: %v", err)
		return err
	}

	logrus.Debugf("Message successfully sent to topic: %s", p.topic)
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// mockProducer is used when Kafka is not available
type mockProducer struct{}

func (m *mockProducer) Publish(ctx context.Context, event entity.RunEvent) error {
	logrus.WithFields(logrus.Fields{
		"run_id": event.RunID,
		"kind":   event.Kind,
		"status": event.Status,
	}).Debug("run event")
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}

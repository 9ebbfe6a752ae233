package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"projukti-support-backend/internal/env"
	"projukti-support-backend/internal/service/ticket"

	"github.com/IBM/sarama"
)

// KafkaPublisher emits ticket lifecycle events so downstream consumers
// (notification senders, reporting) can react without polling the API.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisherFromEnv() (*KafkaPublisher, error) {
	brokers := strings.Split(env.MustGet(env.KafkaBrokers), ",")
	topic := env.GetOrDefault(env.KafkaTicketTopic, "support.ticket.submitted")

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return &KafkaPublisher{producer: producer, topic: topic}, nil
}

func (p *KafkaPublisher) TicketSubmitted(_ context.Context, ev ticket.SubmittedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal submitted event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.TicketID),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send submitted event: %w", err)
	}

	log.Printf("events: ticket %s submitted event stored at partition %d offset %d", ev.TicketID, partition, offset)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

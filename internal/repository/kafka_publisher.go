package repository

import (
	"context"
	"time"

	"AirSight/internal/domain/models"
	"AirSight/internal/domain/repository"
	"AirSight/pkg/kafka"
)

// readingEvent is the wire shape of one sampled reading on the firehose
// topic.
type readingEvent struct {
	StationID      string                       `json:"station_id"`
	Station        string                       `json:"station"`
	Timestamp      time.Time                    `json:"timestamp"`
	AQI            int                          `json:"aqi"`
	Concentrations map[models.Pollutant]float64 `json:"concentrations,omitempty"`
	Lat            float64                      `json:"lat,omitempty"`
	Lon            float64                      `json:"lon,omitempty"`
}

// KafkaPublisher emits sampled readings to the firehose topic, keyed by
// station so per-station ordering is preserved across partitions. Implements
// repository.Publisher.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishReading(ctx context.Context, r models.Reading) error {
	event := readingEvent{
		StationID:      r.StationID,
		Station:        r.Station,
		Timestamp:      r.Timestamp,
		AQI:            r.AQI,
		Concentrations: r.Concentrations,
		Lat:            r.Lat,
		Lon:            r.Lon,
	}
	return p.producer.Publish(ctx, p.topic, []byte(r.StationID), event)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher discards readings. Used when the firehose is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishReading(context.Context, models.Reading) error { return nil }
func (NopPublisher) Close() error                                         { return nil }

var (
	_ repository.Publisher = (*KafkaPublisher)(nil)
	_ repository.Publisher = NopPublisher{}
)

package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"AirSight/internal/domain/models"
	insightrepo "AirSight/internal/repository"
)

type captivePublisher struct {
	mu       sync.Mutex
	readings []models.Reading
	err      error
}

func (p *captivePublisher) PublishReading(_ context.Context, r models.Reading) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.readings = append(p.readings, r)
	return nil
}

func (p *captivePublisher) Close() error { return nil }

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *countingMetrics) RecordFetch(string, string)          {}
func (m *countingMetrics) RecordLastAQI(string, float64)       {}
func (m *countingMetrics) RecordLatency(string, time.Duration) {}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = make(map[string]int)
	}
	m.errors[kind]++
}

func TestSamplerSweepFeedsHistoryAndFirehose(t *testing.T) {
	source := &stubSource{readings: map[string]models.Reading{
		"delhi": delhiReading(275),
	}}
	history := insightrepo.NewMemoryHistory(10, 0)
	publisher := &captivePublisher{}

	s := NewSampler(source, history, publisher, &countingMetrics{},
		[]string{"delhi"}, time.Hour, quietLogger(t))
	s.sweep()

	if got := history.Len("delhi"); got != 1 {
		t.Fatalf("history len = %d, want 1", got)
	}
	if len(publisher.readings) != 1 || publisher.readings[0].AQI != 275 {
		t.Fatalf("published %v, want one reading with AQI 275", publisher.readings)
	}
}

func TestSamplerAlignsTimestampsToGrid(t *testing.T) {
	jittered := delhiReading(275)
	jittered.Timestamp = time.Date(2026, 6, 1, 12, 3, 41, 0, time.UTC)
	source := &stubSource{readings: map[string]models.Reading{"delhi": jittered}}
	history := insightrepo.NewMemoryHistory(10, 0)
	publisher := &captivePublisher{}

	s := NewSampler(source, history, publisher, &countingMetrics{},
		[]string{"delhi"}, time.Hour, quietLogger(t))
	s.sweep()

	want := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	recent := history.Recent("delhi", 1)
	if len(recent) != 1 || !recent[0].Timestamp.Equal(want) {
		t.Fatalf("history timestamp = %v, want %v", recent, want)
	}
	if len(publisher.readings) != 1 || !publisher.readings[0].Timestamp.Equal(want) {
		t.Fatalf("published timestamp = %v, want %v", publisher.readings, want)
	}
}

func TestSamplerSweepSkipsFailedStations(t *testing.T) {
	source := &stubSource{
		readings: map[string]models.Reading{"delhi": delhiReading(275)},
		err:      map[string]error{"noida": &models.TransientError{Attempts: 3, Err: errors.New("down")}},
	}
	history := insightrepo.NewMemoryHistory(10, 0)
	metrics := &countingMetrics{}

	s := NewSampler(source, history, &captivePublisher{}, metrics,
		[]string{"noida", "delhi"}, time.Hour, quietLogger(t))
	s.sweep()

	if got := history.Len("delhi"); got != 1 {
		t.Fatalf("healthy station not sampled, history len = %d", got)
	}
	if got := history.Len("noida"); got != 0 {
		t.Fatalf("failed station recorded history, len = %d", got)
	}
	if metrics.errors["sample_fetch"] != 1 {
		t.Fatalf("sample_fetch errors = %d, want 1", metrics.errors["sample_fetch"])
	}
}

func TestSamplerPublishFailureDoesNotDropHistory(t *testing.T) {
	source := &stubSource{readings: map[string]models.Reading{"delhi": delhiReading(275)}}
	history := insightrepo.NewMemoryHistory(10, 0)
	metrics := &countingMetrics{}
	publisher := &captivePublisher{err: errors.New("broker down")}

	s := NewSampler(source, history, publisher, metrics,
		[]string{"delhi"}, time.Hour, quietLogger(t))
	s.sweep()

	if got := history.Len("delhi"); got != 1 {
		t.Fatalf("history len = %d, want 1 despite publish failure", got)
	}
	if metrics.errors["sample_publish"] != 1 {
		t.Fatalf("sample_publish errors = %d, want 1", metrics.errors["sample_publish"])
	}
}

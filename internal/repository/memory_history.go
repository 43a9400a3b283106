package repository

import (
	"strings"
	"sync"
	"time"

	"AirSight/internal/domain/models"
	"AirSight/internal/domain/repository"
)

// MemoryHistory is a bounded in-memory window of recent readings per station,
// fed by the sampler and consumed by the forecaster. Oldest entries fall off
// when the per-station cap or the age limit is exceeded. Implements
// repository.HistoryStore.
type MemoryHistory struct {
	mu        sync.RWMutex
	maxPoints int
	maxAge    time.Duration
	byStation map[string][]models.Reading
}

func NewMemoryHistory(maxPoints int, maxAge time.Duration) *MemoryHistory {
	if maxPoints <= 0 {
		maxPoints = 168
	}
	return &MemoryHistory{
		maxPoints: maxPoints,
		maxAge:    maxAge,
		byStation: make(map[string][]models.Reading),
	}
}

// Append adds r to the station's window. Readings older than the window's
// newest entry are ignored so retried samples cannot reorder the series;
// a reading with the same timestamp as the newest replaces it.
func (h *MemoryHistory) Append(stationQuery string, r models.Reading) {
	key := normalize(stationQuery)

	h.mu.Lock()
	defer h.mu.Unlock()

	window := h.byStation[key]
	if n := len(window); n > 0 {
		last := window[n-1].Timestamp
		if r.Timestamp.Before(last) {
			return
		}
		if r.Timestamp.Equal(last) {
			window[n-1] = r
			return
		}
	}
	window = append(window, r)
	window = h.evict(window, r.Timestamp)
	h.byStation[key] = window
}

// Recent returns up to n of the newest readings for the station, oldest
// first. n <= 0 returns the whole window. The result is a copy.
func (h *MemoryHistory) Recent(stationQuery string, n int) []models.Reading {
	key := normalize(stationQuery)

	h.mu.RLock()
	defer h.mu.RUnlock()

	window := h.byStation[key]
	if n <= 0 || n > len(window) {
		n = len(window)
	}
	out := make([]models.Reading, n)
	copy(out, window[len(window)-n:])
	return out
}

func (h *MemoryHistory) Len(stationQuery string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byStation[normalize(stationQuery)])
}

func (h *MemoryHistory) evict(window []models.Reading, now time.Time) []models.Reading {
	if h.maxAge > 0 {
		cutoff := now.Add(-h.maxAge)
		i := 0
		for i < len(window) && window[i].Timestamp.Before(cutoff) {
			i++
		}
		window = window[i:]
	}
	if len(window) > h.maxPoints {
		window = window[len(window)-h.maxPoints:]
	}
	return window
}

func normalize(stationQuery string) string {
	return strings.ToLower(strings.TrimSpace(stationQuery))
}

var _ repository.HistoryStore = (*MemoryHistory)(nil)

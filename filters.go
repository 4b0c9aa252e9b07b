package main

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Filter is the reporting period picked on the dashboard.
// Week is 0 when the whole month is selected.
type Filter struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Week  int        `json:"week"`
}

// FilterStore shares the selected Filter between views.
// Subscribers are pushed every change; a subscriber that falls behind only sees the latest value.
type FilterStore struct {
	mu          sync.Mutex
	value       Filter
	subscribers map[int]chan Filter
	nextId      int
}

func NewFilterStore(initial Filter) *FilterStore {
	return &FilterStore{value: initial, subscribers: make(map[int]chan Filter)}
}

func (s *FilterStore) Get() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *FilterStore) Set(filter Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filter == s.value {
		return
	}
	s.value = filter
	for _, ch := range s.subscribers {
		// replace any value the subscriber has not read yet
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- filter:
		default:
		}
	}
}

// Reset returns the store to the zero Filter. Called on logout.
func (s *FilterStore) Reset() {
	s.Set(Filter{})
}

// Subscribe returns a channel of future changes and a func that closes it.
func (s *FilterStore) Subscribe() (<-chan Filter, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextId
	s.nextId++
	ch := make(chan Filter, 1)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
}

// CurrentPeriod builds the filter for the month containing t.
func CurrentPeriod(t time.Time) Filter {
	return Filter{Year: t.Year(), Month: t.Month()}
}

const filterKey = "filter"

func (f Filter) IsZero() bool {
	return f == Filter{}
}

// WeekOfMonth numbers the weeks of a month from 1, each starting on day 1, 8, 15, 22 or 29.
func WeekOfMonth(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// Contains reports whether t falls inside the period. The zero Filter contains everything.
func (f Filter) Contains(t time.Time) bool {
	if f.IsZero() {
		return true
	}
	if t.Year() != f.Year || t.Month() != f.Month {
		return false
	}
	return f.Week == 0 || WeekOfMonth(t) == f.Week
}

// ParseFilter reads a "2006-01" month and an optional week of it (0 for the whole month).
func ParseFilter(month string, week int) (Filter, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return Filter{}, errors.Errorf("invalid month %q, expected YYYY-MM", month)
	}
	filter := CurrentPeriod(t)
	return filter.WithWeek(week)
}

func (f Filter) WithWeek(week int) (Filter, error) {
	if week < 0 || week > 5 {
		return Filter{}, errors.Errorf("invalid week %d, expected 1-5", week)
	}
	f.Week = week
	return f, nil
}

// LoadFilter returns the filter saved in the session cache, or the month of now when none is.
func LoadFilter(cache *SessionCache, now time.Time) Filter {
	var filter Filter
	found, err := cache.Load(filterKey, &filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load saved filter")
	}
	if !found || filter.IsZero() {
		return CurrentPeriod(now)
	}
	return filter
}

// PersistFilters saves every change of store into cache until the returned func is called.
// That func blocks until the last change has been written.
func PersistFilters(store *FilterStore, cache *SessionCache) func() {
	updates, cancel := store.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for filter := range updates {
			var err error
			if filter.IsZero() {
				err = cache.Invalidate(filterKey)
			} else {
				err = cache.Store(filterKey, filter)
			}
			if err != nil {
				log.Error().Err(err).Msg("Failed to save filter")
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

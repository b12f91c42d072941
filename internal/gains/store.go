// Package gains persists the PID gain sets of the motion controller.
package gains

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/relabs-tech/line_follower/internal/motion"
	"github.com/relabs-tech/line_follower/internal/pid"
)

// Magic marks a valid record.
const Magic uint32 = 0x5AA5

// MaxChannels is the number of gain slots in a record. Only the first two
// are used by the controller; the rest are reserved.
const MaxChannels = 4

// ErrBadMagic means a record was read but failed validation.
var ErrBadMagic = errors.New("gains: bad magic")

// Record is the persisted layout.
type Record struct {
	Magic uint32                          `json:"magic"`
	Gains [MaxChannels]pid.Gains[float64] `json:"gains"`
}

// Defaults returns a valid record holding the built-in gains.
func Defaults() Record {
	r := Record{Magic: Magic}
	r.Gains[motion.ChannelTurn] = motion.DefaultTurnGains
	r.Gains[motion.ChannelForward] = motion.DefaultForwardGains
	return r
}

// Tuner is anything whose loops can be retuned; *motion.Controller is one.
type Tuner interface {
	TunePid(ch motion.Channel, kp, ki, kd float64)
}

// Store caches a Record in memory and persists it to a JSON file.
type Store struct {
	path string

	mu    sync.Mutex
	cache Record
}

// NewStore returns a store for path, holding the defaults until Load.
func NewStore(path string) *Store {
	return &Store{path: path, cache: Defaults()}
}

// Load reads the record from disk into the cache and returns it. It reports
// false when the file is missing or fails validation, in which case the
// defaults are cached and returned instead. A non-nil error is only returned
// for IO failures other than a missing file.
func (s *Store) Load() (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := readRecord(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, ErrBadMagic):
		s.cache = Defaults()
		return s.cache, false, nil
	case err != nil:
		s.cache = Defaults()
		return s.cache, false, err
	}
	s.cache = rec
	return rec, true, nil
}

// Save writes the cached record and reads it back to verify it.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Magic = Magic
	payload, err := json.MarshalIndent(s.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("gains: marshal: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("gains: create dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("gains: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("gains: replace %s: %w", s.path, err)
	}

	check, err := readRecord(s.path)
	if err != nil {
		return fmt.Errorf("gains: verify: %w", err)
	}
	if check != s.cache {
		return fmt.Errorf("gains: verify: read back differs from written record")
	}
	return nil
}

// Set updates one slot in the cache only.
func (s *Store) Set(ch motion.Channel, g pid.Gains[float64]) error {
	if int(ch) >= MaxChannels {
		return fmt.Errorf("gains: channel %d out of range", ch)
	}
	s.mu.Lock()
	s.cache.Gains[ch] = g
	s.mu.Unlock()
	return nil
}

// Get returns one slot from the cache; out of range slots read as zero.
func (s *Store) Get(ch motion.Channel) pid.Gains[float64] {
	if int(ch) >= MaxChannels {
		return pid.Gains[float64]{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Gains[ch]
}

// Record returns a copy of the cached record.
func (s *Store) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}

// Apply pushes the turn and forward gains into t.
func (s *Store) Apply(t Tuner) {
	for _, ch := range []motion.Channel{motion.ChannelTurn, motion.ChannelForward} {
		g := s.Get(ch)
		t.TunePid(ch, g.Kp, g.Ki, g.Kd)
	}
}

func readRecord(path string) (Record, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("gains: read %s: %w", path, err)
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("gains: decode %s: %w (%w)", path, ErrBadMagic, err)
	}
	if rec.Magic != Magic {
		return Record{}, fmt.Errorf("gains: %s: %w 0x%X", path, ErrBadMagic, rec.Magic)
	}
	return rec, nil
}

// Package breaker persists a circuit breaker over delivery failures in a
// file shared across hook invocations. After Threshold consecutive
// failures the breaker is open and delivery attempts are skipped until
// Cooldown elapses, at which point one trial attempt is permitted.
package breaker

import (
	"encoding/json"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Backland-Labs/alpine/internal/statefile"
)

const (
	// DefaultThreshold is the consecutive failure count that opens the
	// breaker.
	DefaultThreshold = 5
	// DefaultCooldown is how long delivery stays suppressed after the
	// breaker opens.
	DefaultCooldown = 30 * time.Second
)

// State is the persisted breaker record.
type State struct {
	FailureCount int       `json:"failure_count"`
	LastFailure  time.Time `json:"last_failure,omitzero"`
}

// Store reads and writes breaker state at a fixed path. Every method is
// best-effort: a missing, unreadable, or corrupt file is treated as
// closed/healthy and overwritten by the next write. Losing an occasional
// increment under true cross-process concurrency is acceptable; leaving
// the file unparseable is not, so writes go through an atomic replace
// under an advisory lock.
type Store struct {
	path      string
	threshold int
	cooldown  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// Config configures a Store. Zero Threshold/Cooldown take the defaults.
type Config struct {
	Path      string
	Threshold int
	Cooldown  time.Duration
	Logger    *zap.Logger
}

// NewStore creates a breaker store over the file at cfg.Path.
func NewStore(cfg Config) *Store {
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = DefaultCooldown
	}
	return &Store{
		path:      cfg.Path,
		threshold: threshold,
		cooldown:  cooldown,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// ShouldAttempt reports whether delivery may be attempted this
// invocation: false only while the failure count has reached the
// threshold and the cooldown since the last failure has not elapsed.
// Once the cooldown elapses the breaker is half-open and one trial
// attempt per invocation is permitted.
func (s *Store) ShouldAttempt() bool {
	st := s.load()
	if st.FailureCount < s.threshold {
		return true
	}
	return s.now().Sub(st.LastFailure) >= s.cooldown
}

// RecordSuccess resets the failure count. A file that is already clean
// is left untouched.
func (s *Store) RecordSuccess() {
	lock, err := statefile.Acquire(s.path)
	if err != nil {
		s.logger.Warn("breaker lock unavailable, skipping success record", zap.Error(err))
		return
	}
	defer lock.Release()

	st := s.load()
	if st.FailureCount == 0 {
		return
	}
	s.save(State{})
}

// RecordFailure increments the failure count and stamps the failure
// time.
func (s *Store) RecordFailure() {
	lock, err := statefile.Acquire(s.path)
	if err != nil {
		s.logger.Warn("breaker lock unavailable, skipping failure record", zap.Error(err))
		return
	}
	defer lock.Release()

	st := s.load()
	st.FailureCount++
	st.LastFailure = s.now()
	s.save(st)

	if st.FailureCount == s.threshold {
		s.logger.Warn("circuit breaker opened",
			zap.Int("failure_count", st.FailureCount),
			zap.Duration("cooldown", s.cooldown),
		)
	}
}

// load reads the persisted state, failing open to a zero (healthy)
// state on any error.
func (s *Store) load() State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return State{}
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("breaker state unparseable, treating as healthy", zap.Error(err))
		return State{}
	}
	return st
}

func (s *Store) save(st State) {
	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Error("marshal breaker state", zap.Error(err))
		return
	}
	if err := statefile.Replace(s.path, data); err != nil {
		s.logger.Warn("persist breaker state", zap.Error(err))
	}
}

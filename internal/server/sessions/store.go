package sessions

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/lockerkeeper/internal/common"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/lockers"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/models"
)

// Options control how new sessions are built and when idle ones go away.
type Options struct {
	LockerCount int
	Seed        []lockers.SeedEntry

	// IdleTimeout evicts sessions not seen for this long. Zero keeps them
	// for the life of the process.
	IdleTimeout time.Duration

	// LoginEvery and LoginBurst size the per-session login token bucket.
	LoginEvery time.Duration
	LoginBurst int

	// MaxSessions caps live sessions; Create fails beyond it. Zero means
	// no cap.
	MaxSessions int
}

// DefaultOptions matches the stock deployment: 200 empty lockers, one hour
// idle timeout, five login attempts then one every twelve seconds, and at
// most common.DefaultMaxSessions live sessions.
func DefaultOptions() Options {
	return Options{
		LockerCount: common.DefaultLockerCount,
		Seed:        lockers.SeedEmpty,
		IdleTimeout: time.Hour,
		LoginEvery:  12 * time.Second,
		LoginBurst:  5,
		MaxSessions: common.DefaultMaxSessions,
	}
}

// Store keeps sessions in memory, keyed by a random UUID.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     Options
	now      func() time.Time
}

func NewStore(opts Options) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
		now:      time.Now,
	}
}

// Create starts a session with a freshly seeded table. Expired sessions are
// swept first; if the store is still full, Create returns
// common.ErrSessionLimit.
func (st *Store) Create() (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	csrf, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("generate csrf token: %w", err)
	}

	limit := rate.Inf
	if st.opts.LoginEvery > 0 {
		limit = rate.Every(st.opts.LoginEvery)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)
	if st.opts.MaxSessions > 0 && len(st.sessions) >= st.opts.MaxSessions {
		return nil, fmt.Errorf("%d live sessions: %w", len(st.sessions), common.ErrSessionLimit)
	}

	s := &Session{
		id:        id.String(),
		csrfToken: csrf,
		Table:     lockers.NewTable(st.opts.LockerCount, st.opts.Seed),
		Auth:      models.NewAuthState(),
		limiter:   rate.NewLimiter(limit, st.opts.LoginBurst),
		lastSeen:  now,
	}
	st.sessions[s.id] = s

	return s, nil
}

// Get returns a live session and marks it as seen. An expired session is
// removed and reported as missing.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}

	now := st.now()
	if st.expired(s, now) {
		delete(st.sessions, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// Len counts stored sessions, including expired ones not yet swept.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops every expired session and reports how many went.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweepLocked(st.now())
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return st.opts.IdleTimeout > 0 && now.Sub(s.lastSeen) > st.opts.IdleTimeout
}

func (st *Store) sweepLocked(now time.Time) int {
	n := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

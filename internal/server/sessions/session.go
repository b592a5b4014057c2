package sessions

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/lockerkeeper/internal/common"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/lockers"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/models"
)

// Session is one visitor's private state: a locker table seeded at creation,
// the login state and the messages waiting for the next page.
//
// Fields are guarded by the session mutex; use Do for anything that reads
// or writes them.
type Session struct {
	mu sync.Mutex

	id        string
	csrfToken string

	Table *lockers.Table
	Auth  models.AuthState

	limiter *rate.Limiter
	flashes []models.Flash

	// guarded by the Store mutex
	lastSeen time.Time
}

// Snapshot is a copy of what a page needs to render. It stays valid after
// the session lock is released.
type Snapshot struct {
	Free      []models.Locker
	Occupied  []models.Locker
	All       []models.Locker
	Stats     models.TableStats
	Auth      models.AuthState
	Flashes   []models.Flash
	CSRFToken string
}

func (s *Session) ID() string { return s.id }

// CSRFToken is fixed for the life of the session.
func (s *Session) CSRFToken() string { return s.csrfToken }

// Do runs fn with the session locked.
func (s *Session) Do(fn func(s *Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// AddFlash queues a message for the next render. Call inside Do.
func (s *Session) AddFlash(level models.FlashLevel, msg string) {
	s.flashes = append(s.flashes, models.Flash{Level: level, Message: msg})
}

// AllowLogin consumes one login attempt from the session's budget and
// returns common.ErrTooManyAttempts when it is spent. Call inside Do.
func (s *Session) AllowLogin() error {
	if !s.limiter.Allow() {
		return common.ErrTooManyAttempts
	}
	return nil
}

// TakeSnapshot copies the render state and drains the queued flashes, so
// each message is shown once. Call inside Do.
func (s *Session) TakeSnapshot() Snapshot {
	snap := Snapshot{
		Free:      s.Table.Free(),
		Occupied:  s.Table.Occupied(),
		All:       s.Table.All(),
		Stats:     s.Table.Stats(),
		Auth:      s.Auth,
		Flashes:   s.flashes,
		CSRFToken: s.csrfToken,
	}
	s.flashes = nil
	return snap
}

package auth

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/lockerkeeper/internal/common"
	"github.com/dmitrijs2005/lockerkeeper/internal/logging"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/models"
)

// Gate is what the web layer needs from authentication. It only moves a
// session's AuthState between none, failed and succeeded; how credentials
// are checked stays behind it.
type Gate interface {
	Login(ctx context.Context, st *models.AuthState, username, password string) error
	Logout(ctx context.Context, st *models.AuthState)
}

// Authenticator checks credentials against a fixed set of principals, each
// a username with a bcrypt hash.
type Authenticator struct {
	principals map[string]string
	logger     logging.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

var _ Gate = (*Authenticator)(nil)

// NewAuthenticator copies principals (username -> bcrypt hash).
func NewAuthenticator(principals map[string]string, l logging.Logger) *Authenticator {
	p := make(map[string]string, len(principals))
	for user, hash := range principals {
		p[user] = hash
	}
	return &Authenticator{principals: p, logger: l.With("module", "auth")}
}

// Login verifies the credentials and records the outcome in st. A session
// that is already logged in is left as it is. Wrong or unknown credentials
// set AuthFailed and return common.ErrorUnauthorized.
func (a *Authenticator) Login(ctx context.Context, st *models.AuthState, username, password string) error {
	if st.Status == models.AuthSucceeded {
		return nil
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	hash, known := a.principals[username]
	if !known {
		// compare anyway so unknown users cost the same as wrong passwords
		_ = bcrypt.CompareHashAndPassword(a.dummy(), pw)
	}

	if !known || !CheckPassword(hash, pw) {
		st.Status = models.AuthFailed
		st.Identity = ""
		st.LoginVisible = true
		a.logger.Warn(ctx, "login failed", "username", username)
		return common.ErrorUnauthorized
	}

	st.Status = models.AuthSucceeded
	st.Identity = username
	st.LoginVisible = false
	a.logger.Info(ctx, "login succeeded", "username", username)
	return nil
}

// Logout resets st to the not-logged-in state.
func (a *Authenticator) Logout(ctx context.Context, st *models.AuthState) {
	if st.Status == models.AuthSucceeded {
		a.logger.Info(ctx, "logout", "username", st.Identity)
	}
	*st = models.NewAuthState()
}

func (a *Authenticator) dummy() []byte {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = bcrypt.GenerateFromPassword(common.GenerateRandByteArray(16), bcrypt.DefaultCost)
	})
	return a.dummyHash
}

package models

// AuthStatus is the login state of a visitor session.
type AuthStatus int

const (
	// AuthNone means no login has been attempted since the session started
	// or since the last logout.
	AuthNone AuthStatus = iota
	AuthFailed
	AuthSucceeded
)

func (s AuthStatus) String() string {
	switch s {
	case AuthFailed:
		return "failed"
	case AuthSucceeded:
		return "succeeded"
	}
	return "none"
}

// AuthState is the per-session authentication record. Identity is set only
// while Status is AuthSucceeded. LoginVisible tells the page whether to show
// the credential form.
type AuthState struct {
	Status       AuthStatus
	Identity     string
	LoginVisible bool
}

// NewAuthState returns the state of a session that has not logged in.
func NewAuthState() AuthState {
	return AuthState{Status: AuthNone, LoginVisible: true}
}

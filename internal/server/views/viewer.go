package views

import (
	"github.com/dmitrijs2005/lockerkeeper/internal/server/models"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/sessions"
)

// RegisterForm is the locker registration form. When Candidates is empty
// the form is replaced by the Unavailable notice.
type RegisterForm struct {
	Action      string
	Candidates  []string
	Unavailable string
}

// ViewerPage is the public page: the free lockers and a registration form.
type ViewerPage struct {
	Flashes     []models.Flash
	Stats       models.TableStats
	FreeLockers []string
	// NoFree is set instead of FreeLockers when every locker is taken.
	NoFree    string
	Register  RegisterForm
	CSRFToken string
}

// BuildViewer derives the public page from a session snapshot.
func BuildViewer(snap sessions.Snapshot) ViewerPage {
	free := lockerNumbers(snap.Free)

	page := ViewerPage{
		Flashes:     snap.Flashes,
		Stats:       snap.Stats,
		FreeLockers: free,
		Register:    buildRegisterForm("/register", free),
		CSRFToken:   snap.CSRFToken,
	}
	if len(free) == 0 {
		page.NoFree = MsgNoFreeLockers
	}
	return page
}

func buildRegisterForm(action string, free []string) RegisterForm {
	f := RegisterForm{Action: action, Candidates: free}
	if len(free) == 0 {
		f.Unavailable = MsgNoRegisterTargets
	}
	return f
}

func lockerNumbers(ls []models.Locker) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.No)
	}
	return out
}

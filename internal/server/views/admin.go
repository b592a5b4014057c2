package views

import (
	"net/url"

	"github.com/dmitrijs2005/lockerkeeper/internal/server/models"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/sessions"
)

// GateMode tells the admin page which of its three faces to show.
type GateMode string

const (
	GateLogin  GateMode = "login"
	GateDenied GateMode = "denied"
	GatePanel  GateMode = "panel"
)

type AdminPage struct {
	Flashes []models.Flash
	Mode    GateMode
	// Notice is the gate message: login prompt, failed login or not-admin
	// warning. Nil on the panel.
	Notice    *models.Flash
	ShowLogin bool
	// ShowLogout is set for any logged-in identity, admin or not.
	ShowLogout bool
	Panel      *AdminPanel
	CSRFToken  string
}

type AdminPanel struct {
	Welcome  string
	Stats    models.TableStats
	Register RegisterForm
	Release  ReleaseForm
	Rows     []AdminRow
}

// ReleaseForm is the dropdown form listing occupied lockers.
type ReleaseForm struct {
	Action      string
	Candidates  []string
	Unavailable string
}

// AdminRow is one line of the full listing. ReleaseAction is empty for a
// free locker, which has no delete button.
type AdminRow struct {
	No            string
	StudentID     string
	StudentName   string
	Deletable     bool
	ReleaseAction string
}

// IsAdmin reports whether st is a successful login of the administrator.
func IsAdmin(st models.AuthState, adminUser string) bool {
	return st.Status == models.AuthSucceeded && st.Identity == adminUser
}

// BuildAdmin derives the admin page from a session snapshot. The panel is
// only built for the configured administrator identity.
func BuildAdmin(snap sessions.Snapshot, adminUser string) AdminPage {
	page := AdminPage{
		Flashes:   snap.Flashes,
		CSRFToken: snap.CSRFToken,
	}

	switch {
	case IsAdmin(snap.Auth, adminUser):
		page.Mode = GatePanel
		page.ShowLogout = true
		page.Panel = buildPanel(snap)
	case snap.Auth.Status == models.AuthSucceeded:
		page.Mode = GateDenied
		page.ShowLogout = true
		page.Notice = &models.Flash{Level: models.FlashWarning, Message: MsgNotAdmin}
	case snap.Auth.Status == models.AuthFailed:
		page.Mode = GateLogin
		page.ShowLogin = snap.Auth.LoginVisible
		page.Notice = &models.Flash{Level: models.FlashError, Message: MsgLoginFailed}
	default:
		page.Mode = GateLogin
		page.ShowLogin = snap.Auth.LoginVisible
		page.Notice = &models.Flash{Level: models.FlashInfo, Message: MsgLoginPrompt}
	}

	return page
}

func buildPanel(snap sessions.Snapshot) *AdminPanel {
	occupied := lockerNumbers(snap.Occupied)

	p := &AdminPanel{
		Welcome:  MsgWelcome(snap.Auth.Identity),
		Stats:    snap.Stats,
		Register: buildRegisterForm("/admin/register", lockerNumbers(snap.Free)),
		Release:  ReleaseForm{Action: "/admin/release", Candidates: occupied},
		Rows:     make([]AdminRow, 0, len(snap.All)),
	}
	if len(occupied) == 0 {
		p.Release.Unavailable = MsgNoOccupied
	}

	for _, l := range snap.All {
		row := AdminRow{No: l.No, StudentID: Placeholder, StudentName: Placeholder}
		if !l.Free() {
			row.StudentID = l.Assignment.StudentID
			row.StudentName = l.Assignment.StudentName
			row.Deletable = true
			row.ReleaseAction = RowReleasePath(l.No)
		}
		p.Rows = append(p.Rows, row)
	}

	return p
}

// RowReleasePath is the target of a listing row's delete button.
func RowReleasePath(no string) string {
	return "/admin/lockers/" + url.PathEscape(no) + "/release"
}

package web

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lockerkeeper/internal/common"
	"github.com/dmitrijs2005/lockerkeeper/internal/logging"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/auth"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/models"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/sessions"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/views"
)

// Options are the handler settings taken from the server config.
type Options struct {
	AdminUser    string
	CookieName   string
	CookieKey    []byte
	CookieExpiry time.Duration
	CookieSecure bool
}

type Handler struct {
	store     *sessions.Store
	gate      auth.Gate
	metrics   *metrics.Metrics
	logger    logging.Logger
	templates *template.Template
	opts      Options
}

func NewHandler(store *sessions.Store, gate auth.Gate, m *metrics.Metrics, l logging.Logger, opts Options) (*Handler, error) {
	if len(opts.CookieKey) == 0 {
		return nil, errors.New("web: empty cookie key")
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &Handler{
		store:     store,
		gate:      gate,
		metrics:   m,
		logger:    l.With("module", "web"),
		templates: t,
		opts:      opts,
	}, nil
}

// Routes builds the request router. Only matched page and form routes run
// inside the session middleware, so /health, /metrics and unknown paths
// never create a session.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", h.withSession(h.viewerPage))
	mux.Handle("POST /register", h.withSession(h.withCSRF(h.viewerRegister)))

	mux.Handle("GET /admin", h.withSession(h.adminPage))
	mux.Handle("POST /admin/login", h.withSession(h.withCSRF(h.login)))
	mux.Handle("POST /admin/logout", h.withSession(h.withCSRF(h.logout)))
	mux.Handle("POST /admin/register", h.withSession(h.withCSRF(h.withAdmin(h.adminRegister))))
	mux.Handle("POST /admin/release", h.withSession(h.withCSRF(h.withAdmin(h.releaseSelected))))
	mux.Handle("POST /admin/lockers/{no}/release", h.withSession(h.withCSRF(h.withAdmin(h.releaseRow))))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", h.metrics.Handler())

	return h.withLogging(mux)
}

func (h *Handler) viewerPage(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r)
	h.render(w, r, "viewer", views.BuildViewer(snap))
}

func (h *Handler) adminPage(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r)
	h.render(w, r, "admin", views.BuildAdmin(snap, h.opts.AdminUser))
}

func (h *Handler) viewerRegister(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, metrics.ViewViewer, "/")
}

func (h *Handler) adminRegister(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, metrics.ViewAdmin, "/admin")
}

func (h *Handler) releaseSelected(w http.ResponseWriter, r *http.Request) {
	h.release(w, r, r.PostFormValue("locker_no"), metrics.EntryDropdown)
}

func (h *Handler) releaseRow(w http.ResponseWriter, r *http.Request) {
	h.release(w, r, r.PathValue("no"), metrics.EntryRow)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, view, back string) {
	ctx := r.Context()
	no := r.PostFormValue("locker_no")
	studentID := r.PostFormValue("student_id")
	studentName := r.PostFormValue("student_name")

	sessionFrom(ctx).Do(func(s *sessions.Session) {
		err := s.Table.Register(no, studentID, studentName)

		switch {
		case err == nil:
			s.AddFlash(models.FlashSuccess, views.MsgRegistered(no, studentName))
			h.metrics.Registered(view)
			h.logger.Info(ctx, "locker registered", "locker_no", no, "view", view)
		case errors.Is(err, common.ErrorValidation):
			s.AddFlash(models.FlashError, views.MsgMissingFields)
			h.metrics.ValidationFailed()
		case errors.Is(err, common.ErrLockerOccupied):
			s.AddFlash(models.FlashWarning, views.MsgAlreadyTaken)
			h.logger.Info(ctx, "register on occupied locker refused", "locker_no", no)
		case errors.Is(err, common.ErrorNotFound):
			s.AddFlash(models.FlashError, views.MsgUnknownLocker)
		default:
			h.logger.Error(ctx, "register failed", "locker_no", no, "error", err)
			s.AddFlash(models.FlashError, fmt.Sprintf("Registration failed: %v", err))
		}
	})

	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request, no, entrypoint string) {
	ctx := r.Context()

	sessionFrom(ctx).Do(func(s *sessions.Session) {
		err := s.Table.Release(no)

		switch {
		case err == nil:
			s.AddFlash(models.FlashSuccess, views.MsgReleased(no))
			h.metrics.Released(entrypoint)
			h.logger.Info(ctx, "locker released", "locker_no", no, "entrypoint", entrypoint)
		case errors.Is(err, common.ErrLockerFree):
			s.AddFlash(models.FlashInfo, views.MsgAlreadyFree)
		case errors.Is(err, common.ErrorNotFound):
			s.AddFlash(models.FlashError, views.MsgUnknownLocker)
		default:
			h.logger.Error(ctx, "release failed", "locker_no", no, "error", err)
			s.AddFlash(models.FlashError, fmt.Sprintf("Removal failed: %v", err))
		}
	})

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	sessionFrom(ctx).Do(func(s *sessions.Session) {
		if s.Auth.Status == models.AuthSucceeded {
			return
		}
		if err := s.AllowLogin(); errors.Is(err, common.ErrTooManyAttempts) {
			s.AddFlash(models.FlashError, views.MsgTooManyAttempts)
			h.metrics.Login(metrics.LoginThrottled)
			h.logger.Warn(ctx, "login throttled", "username", username)
			return
		}

		if err := h.gate.Login(ctx, &s.Auth, username, password); err != nil {
			h.metrics.Login(metrics.LoginFailed)
			return
		}
		h.metrics.Login(metrics.LoginSucceeded)
	})

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionFrom(ctx).Do(func(s *sessions.Session) {
		h.gate.Logout(ctx, &s.Auth)
	})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *Handler) snapshot(r *http.Request) sessions.Snapshot {
	var snap sessions.Snapshot
	sessionFrom(r.Context()).Do(func(s *sessions.Session) {
		snap = s.TakeSnapshot()
	})
	return snap
}

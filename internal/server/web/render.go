package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/lockerkeeper/internal/server/views"
)

//go:embed templates/*.html
var templateFS embed.FS

type registerArgs struct {
	Form      views.RegisterForm
	CSRFToken string
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("pages").Funcs(template.FuncMap{
		"registerArgs": func(f views.RegisterForm, csrf string) registerArgs {
			return registerArgs{Form: f, CSRFToken: csrf}
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// render executes the named page into a buffer first so that a template
// error turns into a clean 500 instead of half a page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, page any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, page); err != nil {
		h.logger.Error(r.Context(), "render failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Package handler contains the HTTP handlers of the game.
//
// Handlers only do HTTP: read the session user from the context, parse the
// form, call one service method, then redirect or render a page. They depend
// on small interfaces (see services.go), so tests drive them with fakes and
// never touch a database.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/sakif/taskquest/internal/model"
	"github.com/sakif/taskquest/internal/service"
)

// Page templates. Each is parsed together with base.html, which defines the
// layout and pulls in the page's {{define "content"}} block.
const (
	pageMenu      = "menu.html"
	pageDashboard = "index.html"
	pageRanking   = "ranking.html"
	pageMusic     = "config_musica.html"
)

// Renderer holds the parsed page templates. Parsing happens once at startup;
// executing a parsed template is cheap and safe for concurrent use.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses base.html with every page template found in dir.
func NewRenderer(dir string) (*Renderer, error) {
	funcs := template.FuncMap{
		"progress": levelProgress,
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{pageMenu, pageDashboard, pageRanking, pageMusic} {
		tmpl, err := template.New("base.html").Funcs(funcs).ParseFiles(
			filepath.Join(dir, "base.html"),
			filepath.Join(dir, page),
		)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render executes page into a buffer first, so a template error becomes a
// clean 500 instead of a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("handler: unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("handler: rendering %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// pageData is what every template receives. Page-specific fields stay zero
// on pages that do not use them.
type pageData struct {
	Title         string
	User          *model.User // nil for anonymous visitors
	Flash         string
	Error         string
	GitHubEnabled bool
	Today         string

	Dashboard *service.Dashboard
	Global    []model.RankedUser
	Friends   []model.RankedUser
	FriendIDs map[string]bool
}

// levelProgress is the share of the current level's XP bar that is filled,
// 0-100.
func levelProgress(u *model.User) int {
	if u == nil || u.Level < 1 {
		return 0
	}
	// XP is cumulative: level L starts at (L-1)*50 and ends at L*50.
	floor := (u.Level - 1) * model.XPPerLevel
	pct := (u.XP - floor) * 100 / model.XPPerLevel
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

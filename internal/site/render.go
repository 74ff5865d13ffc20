package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"path"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:embed templates/layout.gohtml templates/pages/*.gohtml
var templateFS embed.FS

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"stars": stars,
	"delay": func(i int, step float64) string { return fmt.Sprintf("%.2fs", float64(i)*step) },
	"path":  func(p Page) string { return p.Path() },
	"inc":   func(i int) int { return i + 1 },
}

// stars renders a 0-5 rating as five filled/empty flags, rounding down.
func stars(rating float64) []bool {
	filled := int(math.Floor(rating))
	out := make([]bool, 5)
	for i := range out {
		out[i] = i < filled
	}
	return out
}

// parseTemplates pairs the layout with each page, keyed by page file name.
func parseTemplates() (map[string]*template.Template, error) {
	files, err := fs.Glob(templateFS, "templates/pages/*.gohtml")
	if err != nil {
		return nil, err
	}

	out := make(map[string]*template.Template, len(files))
	for _, f := range files {
		t, err := template.New("layout.gohtml").Funcs(funcs).ParseFS(templateFS, "templates/layout.gohtml", f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		out[strings.TrimSuffix(path.Base(f), ".gohtml")] = t
	}
	return out, nil
}

// View is the state every page receives. Nothing is read from globals.
type View struct {
	Page      Page
	Title     string
	Nav       []NavLink
	Footer    []NavLink
	CartCount int
	Data      any
}

func (s *Server) render(w http.ResponseWriter, status int, name string, v View) {
	t, ok := s.templates[name]
	if !ok {
		s.Log.Error("unknown template", zap.String("template", name))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	v.Nav, v.Footer = navLinks, footerLinks
	if v.Title == "" {
		v.Title = v.Page.Title()
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		s.Log.Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

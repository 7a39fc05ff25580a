package handler

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
)

// Renderer manages template parsing and rendering with isolated template sets.
// Each page gets the layout plus the shared fragments; fragments can also be
// rendered on their own for partial responses.
type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

// NewRenderer parses the layout, the fragment partials, and every page
// template under templatesDir.
func NewRenderer(templatesDir string) (*Renderer, error) {
	baseTmpl, err := template.New("base").Funcs(TemplateFuncs()).ParseFiles(filepath.Join(templatesDir, "layout.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	fragments, err := template.New("fragments").Funcs(TemplateFuncs()).ParseGlob(filepath.Join(templatesDir, "fragments", "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragments: %w", err)
	}

	pageFiles, err := filepath.Glob(filepath.Join(templatesDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob templates: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, page := range pageFiles {
		if filepath.Base(page) == "layout.html" {
			continue
		}

		pageTmpl, err := baseTmpl.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone template for %s: %w", page, err)
		}

		pageTmpl, err = pageTmpl.ParseGlob(filepath.Join(templatesDir, "fragments", "*.html"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse fragments for %s: %w", page, err)
		}

		pageTmpl, err = pageTmpl.ParseFiles(page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
		}

		pageName := filepath.Base(page)
		pageName = pageName[:len(pageName)-len(filepath.Ext(pageName))]
		pages[pageName] = pageTmpl
	}

	return &Renderer{
		pages:     pages,
		fragments: fragments,
	}, nil
}

// Render renders a full page through the layout.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// RenderFragment renders a named fragment without the layout.
func (r *Renderer) RenderFragment(w io.Writer, name string, data any) error {
	return r.fragments.ExecuteTemplate(w, name, data)
}

// RenderHTTP renders a page to an http.ResponseWriter with error handling.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, name string, data any) {
	if err := r.Render(w, name, data); err != nil {
		slog.Default().Error("render failed", "template", name, "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

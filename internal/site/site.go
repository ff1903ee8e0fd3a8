// Package site serves pastes as pages of line tables and exports them as
// standalone HTML with a highlight selection applied.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ziadkadry99/pastemark/internal/filetable"
	"github.com/ziadkadry99/pastemark/internal/paste"
)

// PasteSource looks up stored pastes.
type PasteSource interface {
	Get(ctx context.Context, id string) (*paste.Paste, error)
}

// Site renders pastes. Built documents are cached per paste id and never
// modified; callers that highlight rows work on a Clone.
type Site struct {
	pastes   PasteSource
	renderer *filetable.Renderer
	cache    *lru.Cache[string, *entry]
	page     *template.Template
	css      []byte
	now      func() time.Time
}

type entry struct {
	paste *paste.Paste
	doc   *filetable.Document
}

// New creates a site backed by pastes. cacheSize bounds the number of
// rendered pastes kept in memory.
func New(pastes PasteSource, renderer *filetable.Renderer, cacheSize int) (*Site, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, *entry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating render cache: %w", err)
	}
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	var css bytes.Buffer
	if err := renderer.WriteCSS(&css); err != nil {
		return nil, fmt.Errorf("writing highlight css: %w", err)
	}
	return &Site{
		pastes:   pastes,
		renderer: renderer,
		cache:    cache,
		page:     tmpl,
		css:      css.Bytes(),
		now:      time.Now,
	}, nil
}

// Document returns the rendered tables of a paste. The result is shared
// and must not be modified.
func (s *Site) Document(ctx context.Context, id string) (*filetable.Document, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.doc, nil
}

func (s *Site) load(ctx context.Context, id string) (*entry, error) {
	if e, ok := s.cache.Get(id); ok {
		if !e.paste.Expired(s.now()) {
			return e, nil
		}
		s.cache.Remove(id)
		return nil, paste.ErrNotFound
	}
	p, err := s.pastes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Build(p.Sources())
	if err != nil {
		return nil, fmt.Errorf("rendering paste %s: %w", id, err)
	}
	e := &entry{paste: p, doc: doc}
	s.cache.Add(id, e)
	return e, nil
}

// Forget drops a paste from the render cache.
func (s *Site) Forget(id string) {
	s.cache.Remove(id)
}

// RegisterRoutes mounts the show page and static assets.
func (s *Site) RegisterRoutes(r chi.Router) {
	r.Get("/p/{id}", s.showHandler)
	r.Get("/static/pastemark.css", staticHandler("text/css; charset=utf-8", []byte(cssContent)))
	r.Get("/static/pastemark.js", staticHandler("text/javascript; charset=utf-8", []byte(jsContent)))
	r.Get("/static/chroma.css", staticHandler("text/css; charset=utf-8", s.css))
}

func (s *Site) showHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	e, err := s.load(r.Context(), id)
	if errors.Is(err, paste.ErrNotFound) {
		http.Error(w, "paste not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("site: show %s: %v", id, err)
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.render(&buf, e.paste, e.doc, true); err != nil {
		log.Printf("site: show %s: %v", id, err)
		http.Error(w, "rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func staticHandler(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(body)
	}
}

// Export writes p as a self-contained page with the rows named by fragment
// highlighted. Out-of-range references in fragment are ignored.
func (s *Site) Export(w io.Writer, p *paste.Paste, fragment string) error {
	doc, err := s.renderer.Build(p.Sources())
	if err != nil {
		return fmt.Errorf("rendering paste %s: %w", p.ID, err)
	}
	doc.Open(fragment)
	return s.render(w, p, doc, false)
}

// pageData holds the data passed to the page template.
type pageData struct {
	Title     string
	PasteID   string
	Live      bool
	InlineCSS template.CSS
	Files     []fileView
}

type fileView struct {
	*filetable.Table
	Number int
	RawURL string
}

func (s *Site) render(w io.Writer, p *paste.Paste, doc *filetable.Document, live bool) error {
	data := pageData{
		Title:   "View paste " + p.ID,
		PasteID: p.ID,
		Live:    live,
	}
	if !live {
		data.InlineCSS = template.CSS(cssContent + "\n" + string(s.css))
	}
	for i, t := range doc.Tables {
		fv := fileView{Table: t, Number: i + 1}
		if live && i < len(p.Files) && p.Files[i].ID != "" {
			fv.RawURL = "/raw/" + p.Files[i].ID
		}
		data.Files = append(data.Files, fv)
	}
	return s.page.Execute(w, data)
}

package paste

import (
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/pastemark/internal/filetable"
)

// ErrNotFound is returned when a paste or file does not exist.
var ErrNotFound = errors.New("paste: not found")

// Source records how a paste was submitted.
type Source string

const (
	SourceWeb Source = "web"
	SourceAPI Source = "api"
	SourceCLI Source = "cli"
)

// Paste is a set of files shared under one id.
type Paste struct {
	ID        string     `json:"id"`
	Source    Source     `json:"source"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Files     []File     `json:"files"`

	// Expiry is how long the paste lives after Create; zero keeps it
	// forever.
	Expiry time.Duration `json:"-"`
	// RemovalToken is set by Create and never stored or read back.
	RemovalToken string `json:"-"`
}

// Expired reports whether the paste is past its expiry at now.
func (p *Paste) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// File is one file of a paste. Position is its zero-based table index on
// the show page, which is what line highlight links refer to.
type File struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Filename string `json:"filename"`
	Lexer    string `json:"lexer"`
	Content  string `json:"content"`
}

// Sources returns the files in page order for rendering.
func (p *Paste) Sources() []filetable.Source {
	out := make([]filetable.Source, len(p.Files))
	for i, f := range p.Files {
		out[i] = filetable.Source{Name: f.Filename, Lexer: f.Lexer, Content: f.Content}
	}
	return out
}

// Limits bounds what a paste may contain.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
}

// Validate checks a paste before it is stored.
func (p *Paste) Validate(l Limits) error {
	if len(p.Files) == 0 {
		return fmt.Errorf("paste has no files")
	}
	if l.MaxFiles > 0 && len(p.Files) > l.MaxFiles {
		return fmt.Errorf("paste has %d files, limit is %d", len(p.Files), l.MaxFiles)
	}
	for i, f := range p.Files {
		if f.Content == "" {
			return fmt.Errorf("file %d is empty", i+1)
		}
		if l.MaxFileSize > 0 && int64(len(f.Content)) > l.MaxFileSize {
			return fmt.Errorf("file %d exceeds size limit (%d kB)", i+1, l.MaxFileSize/1024)
		}
		if !filetable.KnownLexer(f.Lexer) {
			return fmt.Errorf("file %d: unknown lexer %q", i+1, f.Lexer)
		}
	}
	if p.Expiry < 0 {
		return fmt.Errorf("expiry must not be negative")
	}
	switch p.Source {
	case "", SourceWeb, SourceAPI, SourceCLI:
	default:
		return fmt.Errorf("invalid source %q", p.Source)
	}
	return nil
}

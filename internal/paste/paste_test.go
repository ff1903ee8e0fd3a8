package paste

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/pastemark/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d, Limits{MaxFiles: 4, MaxFileSize: 1024})
}

// --- Store tests ---

func TestCreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := &Paste{Files: []File{
		{Filename: "main.go", Lexer: "go", Content: "package main\n"},
		{Filename: "notes.txt", Content: "a\nb\n"},
	}}
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected paste ID to be set")
	}

	got, err := store.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Source != SourceWeb {
		t.Errorf("source = %q, want %q", got.Source, SourceWeb)
	}
	if len(got.Files) != 2 {
		t.Fatalf("files = %d, want 2", len(got.Files))
	}
	if got.Files[0].Filename != "main.go" || got.Files[1].Position != 1 {
		t.Errorf("files out of order: %+v", got.Files)
	}
	if got.Files[1].Lexer != "autodetect" {
		t.Errorf("default lexer = %q, want autodetect", got.Files[1].Lexer)
	}

	sources := got.Sources()
	if len(sources) != 2 || sources[0].Content != "package main\n" {
		t.Errorf("Sources() = %+v", sources)
	}
}

func TestGetMissing(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetFile(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetFile error = %v, want ErrNotFound", err)
	}
}

func TestCreateValidation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		p    *Paste
	}{
		{"no files", &Paste{}},
		{"empty file", &Paste{Files: []File{{Content: ""}}}},
		{"too large", &Paste{Files: []File{{Content: strings.Repeat("x", 2048)}}}},
		{"too many files", &Paste{Files: []File{{Content: "1"}, {Content: "2"}, {Content: "3"}, {Content: "4"}, {Content: "5"}}}},
		{"unknown lexer", &Paste{Files: []File{{Content: "x", Lexer: "klingon-script"}}}},
		{"bad source", &Paste{Source: "fax", Files: []File{{Content: "x"}}}},
	}
	for _, tt := range tests {
		if err := store.Create(ctx, tt.p); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestListAndRemove(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := &Paste{Files: []File{{Content: "a"}}}
	b := &Paste{Source: SourceCLI, Files: []File{{Content: "b"}, {Content: "c"}}}
	store.Create(ctx, a)
	store.Create(ctx, b)

	list, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d pastes, want 2", len(list))
	}
	counts := map[string]int{}
	for _, s := range list {
		counts[s.ID] = s.FileCount
	}
	if counts[a.ID] != 1 || counts[b.ID] != 2 {
		t.Errorf("file counts = %v", counts)
	}

	if a.RemovalToken == "" || a.RemovalToken == b.RemovalToken {
		t.Fatalf("removal tokens = %q, %q", a.RemovalToken, b.RemovalToken)
	}
	if _, err := store.Remove(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove by public id error = %v, want ErrNotFound", err)
	}
	id, err := store.Remove(ctx, a.RemovalToken)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if id != a.ID {
		t.Errorf("Remove id = %q, want %q", id, a.ID)
	}
	if _, err := store.Remove(ctx, a.RemovalToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetFile(ctx, a.Files[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("file of removed paste still present: %v", err)
	}
	if _, err := store.Get(ctx, b.ID); err != nil {
		t.Errorf("other paste gone: %v", err)
	}
}

func TestRemovalTokenIsNotStored(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := &Paste{Files: []File{{Content: "x"}}}
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	var n int
	if err := store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pastes WHERE removal_hash = ?`, p.RemovalToken).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 0 {
		t.Error("removal token stored in plain text")
	}
	got, err := store.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RemovalToken != "" {
		t.Errorf("Get returned removal token %q", got.RemovalToken)
	}
}

// clock lets tests move the store's notion of now.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestExpiredPastesAreHidden(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.now = c.now

	short := &Paste{Expiry: time.Hour, Files: []File{{Content: "short"}}}
	long := &Paste{Expiry: 7 * 24 * time.Hour, Files: []File{{Content: "long"}}}
	forever := &Paste{Files: []File{{Content: "forever"}}}
	for _, p := range []*Paste{short, long, forever} {
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if short.ExpiresAt == nil || !short.ExpiresAt.Equal(c.t.Add(time.Hour)) {
		t.Fatalf("ExpiresAt = %v", short.ExpiresAt)
	}
	if forever.ExpiresAt != nil {
		t.Errorf("paste without expiry got ExpiresAt %v", forever.ExpiresAt)
	}

	got, err := store.Get(ctx, short.ID)
	if err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(*short.ExpiresAt) {
		t.Errorf("stored ExpiresAt = %v, want %v", got.ExpiresAt, short.ExpiresAt)
	}

	c.t = c.t.Add(time.Hour)
	if _, err := store.Get(ctx, short.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get expired error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetFile(ctx, short.Files[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetFile expired error = %v, want ErrNotFound", err)
	}
	list, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("List = %d pastes, want 2", len(list))
	}
	for _, s := range list {
		if s.ID == short.ID {
			t.Error("List includes expired paste")
		}
	}
}

func TestReap(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.now = c.now

	a := &Paste{Expiry: time.Hour, Files: []File{{Content: "a"}, {Content: "b"}}}
	b := &Paste{Expiry: 24 * time.Hour, Files: []File{{Content: "c"}}}
	for _, p := range []*Paste{a, b} {
		if err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	ids, err := store.Reap(ctx)
	if err != nil {
		t.Fatalf("Reap: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Reap before expiry = %v", ids)
	}

	c.t = c.t.Add(2 * time.Hour)
	ids, err = store.Reap(ctx)
	if err != nil {
		t.Fatalf("Reap: %v", err)
	}
	if len(ids) != 1 || ids[0] != a.ID {
		t.Fatalf("Reap = %v, want [%s]", ids, a.ID)
	}
	var files int
	store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM paste_files WHERE paste_id = ?`, a.ID).Scan(&files)
	if files != 0 {
		t.Errorf("%d files of reaped paste remain", files)
	}
	if _, err := store.Remove(ctx, a.RemovalToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove after reap error = %v, want ErrNotFound", err)
	}

	c.t = c.t.Add(24 * time.Hour)
	ids, _ = store.Reap(ctx)
	if len(ids) != 1 || ids[0] != b.ID {
		t.Errorf("second Reap = %v, want [%s]", ids, b.ID)
	}
}

func TestRunReaper(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.now = c.now

	p := &Paste{Expiry: time.Hour, Files: []File{{Content: "x"}}}
	if err := store.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	c.t = c.t.Add(2 * time.Hour)

	reaped := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		store.RunReaper(ctx, 10*time.Millisecond, func(id string) { reaped <- id })
		close(done)
	}()

	select {
	case id := <-reaped:
		if id != p.ID {
			t.Errorf("reaped %q, want %q", id, p.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reaper did not run")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reaper did not stop after cancel")
	}
}

func TestParseExpiry(t *testing.T) {
	tests := []struct {
		name    string
		want    time.Duration
		wantErr bool
	}{
		{"", 7 * 24 * time.Hour, false},
		{"1hour", time.Hour, false},
		{"1day", 24 * time.Hour, false},
		{"1month", 30 * 24 * time.Hour, false},
		{"never", 0, true},
		{"1DAY", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseExpiry(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseExpiry(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseExpiry(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	names := ExpiryNames()
	if len(names) != len(Expiries) || names[0] != "1hour" || names[len(names)-1] != "1month" {
		t.Errorf("ExpiryNames() = %v", names)
	}
}

// --- HTTP handler tests ---

func setupRouter(store *Store, onDelete func(string)) *chi.Mux {
	r := chi.NewRouter()
	RegisterRoutes(r, store, onDelete)
	return r
}

func TestCreateHandler(t *testing.T) {
	store := setupTestStore(t)
	r := setupRouter(store, nil)

	body := `{"expiry":"1day","files":[{"filename":"a.py","lexer":"python","content":"print(1)\n"}]}`
	req := httptest.NewRequest("POST", "/api/pastes", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var resp createResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.URL != "/p/"+resp.ID {
		t.Errorf("url = %q for id %q", resp.URL, resp.ID)
	}
	if resp.Removal == "" || resp.RemovalURL != "/api/remove/"+resp.Removal {
		t.Errorf("removal = %q, removal_url = %q", resp.Removal, resp.RemovalURL)
	}
	if resp.ExpiresAt == nil {
		t.Fatal("expected expires_at in response")
	}

	p, err := store.Get(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Source != SourceAPI {
		t.Errorf("source = %q, want api", p.Source)
	}
	if d := p.ExpiresAt.Sub(p.CreatedAt); d < 24*time.Hour-time.Second || d > 24*time.Hour {
		t.Errorf("expiry window = %v, want 24h", d)
	}

	req = httptest.NewRequest("GET", "/api/pastes/"+resp.ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if strings.Contains(w.Body.String(), resp.Removal) {
		t.Error("GET exposes the removal token")
	}
}

func TestCreateHandlerDefaultExpiry(t *testing.T) {
	store := setupTestStore(t)
	r := setupRouter(store, nil)

	body := `{"files":[{"content":"x"}]}`
	req := httptest.NewRequest("POST", "/api/pastes", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp createResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	p, err := store.Get(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d := p.ExpiresAt.Sub(p.CreatedAt); d < 7*24*time.Hour-time.Second || d > 7*24*time.Hour {
		t.Errorf("default expiry window = %v, want one week", d)
	}
}

func TestCreateHandlerBodyLimit(t *testing.T) {
	store := setupTestStore(t)
	r := setupRouter(store, nil)

	huge := strings.Repeat("x", int(maxBodySize(store.Limits()))+1)
	body := `{"files":[{"content":"` + huge + `"}]}`
	req := httptest.NewRequest("POST", "/api/pastes", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}

	list, _ := store.List(context.Background(), 0)
	if len(list) != 0 {
		t.Errorf("oversized request stored %d pastes", len(list))
	}
}

func TestMaxBodySize(t *testing.T) {
	tests := []struct {
		limits Limits
		want   int64
	}{
		{Limits{MaxFiles: 4, MaxFileSize: 1024}, 4*1024*2 + bodySlack},
		{Limits{MaxFiles: 1, MaxFileSize: 10}, 20 + bodySlack},
		{Limits{}, 64 * (256 << 10) * 2 + bodySlack},
	}
	for _, tt := range tests {
		if got := maxBodySize(tt.limits); got != tt.want {
			t.Errorf("maxBodySize(%+v) = %d, want %d", tt.limits, got, tt.want)
		}
	}
}

func TestExpiryHandler(t *testing.T) {
	store := setupTestStore(t)
	r := setupRouter(store, nil)

	req := httptest.NewRequest("GET", "/api/expiry", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["1day"] != "24h0m0s" || got["1week"] != "168h0m0s" || len(got) != len(Expiries) {
		t.Errorf("expiry listing = %v", got)
	}
}

func TestCreateHandlerRejectsBadInput(t *testing.T) {
	store := setupTestStore(t)
	r := setupRouter(store, nil)

	for _, body := range []string{`not json`, `{"files":[]}`, `{"expiry":"forever","files":[{"content":"x"}]}`} {
		req := httptest.NewRequest("POST", "/api/pastes", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestGetHandlerNotFound(t *testing.T) {
	store := setupTestStore(t)
	r := setupRouter(store, nil)

	req := httptest.NewRequest("GET", "/api/pastes/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRawAndRemoveHandlers(t *testing.T) {
	store := setupTestStore(t)
	var deleted []string
	r := setupRouter(store, func(id string) { deleted = append(deleted, id) })

	p := &Paste{Files: []File{{Filename: "a.txt", Content: "hello\n"}}}
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := httptest.NewRequest("GET", "/raw/"+p.Files[0].ID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "hello\n" {
		t.Errorf("raw = %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}

	req = httptest.NewRequest("DELETE", "/api/remove/"+p.RemovalToken, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("remove status = %d, want 204", w.Code)
	}
	if len(deleted) != 1 || deleted[0] != p.ID {
		t.Errorf("onDelete calls = %v", deleted)
	}

	req = httptest.NewRequest("GET", "/raw/"+p.Files[0].ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("raw after remove = %d, want 404", w.Code)
	}
}

func TestRemoveRequiresToken(t *testing.T) {
	store := setupTestStore(t)
	var deleted []string
	r := setupRouter(store, func(id string) { deleted = append(deleted, id) })

	p := &Paste{Files: []File{{Content: "keep me\n"}}}
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"paste path", "/api/pastes/" + p.ID},
		{"public id as token", "/api/remove/" + p.ID},
		{"file id as token", "/api/remove/" + p.Files[0].ID},
		{"unknown token", "/api/remove/0123456789abcdef0123456789abcdef"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("DELETE", tt.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code == http.StatusNoContent || w.Code < 400 {
			t.Errorf("%s: status = %d, want rejection", tt.name, w.Code)
		}
	}

	if len(deleted) != 0 {
		t.Errorf("onDelete calls = %v, want none", deleted)
	}
	if _, err := store.Get(context.Background(), p.ID); err != nil {
		t.Errorf("paste removed without its token: %v", err)
	}
}

func TestExpiredPasteHandlers(t *testing.T) {
	store := setupTestStore(t)
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store.now = c.now
	r := setupRouter(store, nil)

	p := &Paste{Expiry: time.Hour, Files: []File{{Content: "soon gone\n"}}}
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	c.t = c.t.Add(time.Hour + time.Second)

	for _, path := range []string{"/api/pastes/" + p.ID, "/raw/" + p.Files[0].ID} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", path, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/api/pastes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if strings.Contains(w.Body.String(), p.ID) {
		t.Error("listing includes expired paste")
	}
}

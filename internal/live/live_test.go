package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/pastemark/internal/filetable"
	"github.com/ziadkadry99/pastemark/internal/highlight"
	"github.com/ziadkadry99/pastemark/internal/paste"
)

type fakeDocs struct {
	docs map[string]*filetable.Document
}

func (f fakeDocs) Document(ctx context.Context, id string) (*filetable.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, paste.ErrNotFound
	}
	return d, nil
}

func table(n int) *filetable.Table {
	rows := make([]filetable.Row, n)
	for i := range rows {
		rows[i] = filetable.Row{Index: i}
	}
	return &filetable.Table{Rows: rows}
}

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	docs := fakeDocs{docs: map[string]*filetable.Document{
		"p1": filetable.NewDocument([]*filetable.Table{table(5), table(3)}),
	}}
	r := chi.NewRouter()
	New(docs).RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/highlight/" + id
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req request) response {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp
}

func TestUnknownPaste(t *testing.T) {
	server := setupServer(t)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/highlight/missing"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 response, got %v", resp)
	}
}

func TestLoadHighlightsAndScrolls(t *testing.T) {
	server := setupServer(t)
	conn := dial(t, server, "p1")

	resp := roundTrip(t, conn, request{Type: "load", Fragment: "1L2-L3"})
	if resp.Type != "effects" {
		t.Fatalf("type = %q, want effects", resp.Type)
	}
	if resp.SessionID == "" {
		t.Error("expected a session id")
	}
	want := []highlight.Effect{
		highlight.Toggle(0, 1),
		highlight.Toggle(0, 2),
		highlight.ScrollTo(0, 1),
	}
	if len(resp.Effects) != len(want) {
		t.Fatalf("effects = %v, want %v", resp.Effects, want)
	}
	for i := range want {
		if resp.Effects[i] != want[i] {
			t.Errorf("effect %d = %v, want %v", i, resp.Effects[i], want[i])
		}
	}
	if resp.Address != "1L2-L3" {
		t.Errorf("address = %q", resp.Address)
	}
}

func TestClickThenHashChange(t *testing.T) {
	server := setupServer(t)
	conn := dial(t, server, "p1")

	roundTrip(t, conn, request{Type: "load"})

	resp := roundTrip(t, conn, request{
		Type:   "click",
		File:   1,
		Target: highlight.Target{Classes: []string{"linenos"}, ChildLineNumber: "2"},
	})
	if len(resp.Effects) != 1 || resp.Effects[0] != highlight.WriteAddress("2L2-L2") {
		t.Fatalf("click effects = %v", resp.Effects)
	}

	// The browser reports the resulting navigation; no scroll follows a
	// change the page made itself.
	resp = roundTrip(t, conn, request{Type: "hashchange", Old: "", New: "2L2-L2"})
	if len(resp.Effects) != 1 || resp.Effects[0] != highlight.Toggle(1, 1) {
		t.Errorf("hashchange effects = %v", resp.Effects)
	}
	if resp.Address != "2L2-L2" {
		t.Errorf("address = %q", resp.Address)
	}
}

func TestClickOffLineIsIgnored(t *testing.T) {
	server := setupServer(t)
	conn := dial(t, server, "p1")

	resp := roundTrip(t, conn, request{
		Type:   "click",
		Target: highlight.Target{Classes: []string{"code"}},
	})
	if resp.Type != "effects" || len(resp.Effects) != 0 {
		t.Errorf("response = %+v, want no effects", resp)
	}
}

func TestInvalidMessages(t *testing.T) {
	server := setupServer(t)
	conn := dial(t, server, "p1")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp response
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != "error" {
		t.Errorf("type = %q, want error", resp.Type)
	}

	resp = roundTrip(t, conn, request{Type: "scroll"})
	if resp.Type != "error" || !strings.Contains(resp.Message, "unknown message type") {
		t.Errorf("response = %+v", resp)
	}
}

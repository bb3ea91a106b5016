package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"ragdash/internal/apiclient"
	"ragdash/internal/auth"
	"ragdash/internal/model"
)

// fakeBackend is an in-memory RAG server speaking the backend's JSON routes.
type fakeBackend struct {
	t *testing.T

	mu        sync.Mutex
	docs      []map[string]any
	rooms     []map[string]any
	messages  map[string][]map[string]any
	calls     []string
	fail      map[string]int
	echoSort  bool
	answer    map[string]any
	queryGate chan struct{}
	queried   chan struct{}
	nextID    int

	srv *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		t:        t,
		messages: map[string][]map[string]any{},
		fail:     map[string]int{},
		answer:   map[string]any{"results": "ok", "sources": []any{}},
		nextID:   100,
	}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) client() *apiclient.Client {
	return apiclient.New(apiclient.Options{BaseURL: b.srv.URL}, auth.NewMemoryStore("test-token"))
}

func (b *fakeBackend) failOn(call string, status int) {
	b.mu.Lock()
	b.fail[call] = status
	b.mu.Unlock()
}

func (b *fakeBackend) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) countCalls(prefix string) int {
	n := 0
	for _, c := range b.callLog() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func reply(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func replyError(w http.ResponseWriter, status int, msg string) {
	reply(w, status, map[string]any{"error": msg})
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	call := r.Method + " " + r.URL.Path

	b.mu.Lock()
	b.calls = append(b.calls, call)
	status, failing := b.fail[call]
	b.mu.Unlock()
	if failing {
		replyError(w, status, "backend says no")
		return
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/doc/list/":
		b.listDocs(w, r)
	case r.Method == http.MethodPost && path == "/doc/embeddings":
		b.upload(w, r)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/doc/delete-asset/"):
		b.deleteDoc(w, strings.TrimPrefix(path, "/doc/delete-asset/"))
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/doc/document/"):
		b.getDoc(w, strings.TrimPrefix(path, "/doc/document/"))
	case r.Method == http.MethodPost && path == "/doc/query-docs":
		b.query(w, r)
	case r.Method == http.MethodGet && path == "/chat/rooms/":
		b.mu.Lock()
		rooms := append([]map[string]any{}, b.rooms...)
		b.mu.Unlock()
		reply(w, 200, rooms)
	case r.Method == http.MethodPost && path == "/chat/room/":
		b.createRoom(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/messages/"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/chat/room/"), "/messages/")
		b.mu.Lock()
		msgs := append([]map[string]any{}, b.messages[id]...)
		b.mu.Unlock()
		reply(w, 200, msgs)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/chat/room/"):
		b.deleteRoom(w, strings.TrimSuffix(strings.TrimPrefix(path, "/chat/room/"), "/"))
	default:
		replyError(w, 404, "no route")
	}
}

func (b *fakeBackend) listDocs(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data := map[string]any{
		"documents":  b.docs,
		"total":      len(b.docs),
		"page":       1,
		"totalPages": 1,
		"hasMore":    false,
	}
	if b.echoSort {
		data["sort"] = r.URL.Query().Get("sort")
		data["order"] = r.URL.Query().Get("order")
	}
	reply(w, 200, data)
}

func (b *fakeBackend) upload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		replyError(w, 400, "missing file")
		return
	}
	defer f.Close()
	content, _ := io.ReadAll(f)
	if strings.Contains(hdr.Filename, "reject") {
		replyError(w, 422, "could not embed "+hdr.Filename)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	doc := map[string]any{
		"id":          strconv.Itoa(b.nextID),
		"fileName":    hdr.Filename,
		"totalChunks": len(content)/10 + 1,
		"fileSize":    len(content),
	}
	b.docs = append(b.docs, doc)
	reply(w, 200, doc)
}

func (b *fakeBackend) deleteDoc(w http.ResponseWriter, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, d := range b.docs {
		if d["id"] == id {
			b.docs = append(b.docs[:i], b.docs[i+1:]...)
			reply(w, 200, map[string]any{"message": "deleted"})
			return
		}
	}
	replyError(w, 404, "document not found")
}

func (b *fakeBackend) getDoc(w http.ResponseWriter, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.docs {
		if d["id"] == id {
			detail := map[string]any{}
			for k, v := range d {
				detail[k] = v
			}
			detail["chunkContent"] = []map[string]any{{"id": 1, "content": "first chunk", "relevance": 0.4}}
			reply(w, 200, detail)
			return
		}
	}
	replyError(w, 404, "document not found")
}

func (b *fakeBackend) query(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	gate, queried, answer := b.queryGate, b.queried, b.answer
	b.mu.Unlock()

	if queried != nil {
		queried <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	reply(w, 200, answer)
}

func (b *fakeBackend) createRoom(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		replyError(w, 400, "bad body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	room := map[string]any{
		"id":         strconv.Itoa(b.nextID),
		"name":       body["name"],
		"provider":   body["provider"],
		"contexts":   body["contexts"],
		"created_at": "2026-10-16T10:00:00Z",
	}
	b.rooms = append(b.rooms, room)
	reply(w, 201, room)
}

func (b *fakeBackend) deleteRoom(w http.ResponseWriter, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, room := range b.rooms {
		if room["id"] == id {
			b.rooms = append(b.rooms[:i], b.rooms[i+1:]...)
			delete(b.messages, id)
			reply(w, 200, map[string]any{})
			return
		}
	}
	replyError(w, 404, "room not found")
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []model.Notification
}

func (n *recordingNotifier) Notify(level model.Level, message string) {
	n.mu.Lock()
	n.items = append(n.items, model.Notification{Level: level, Message: message})
	n.mu.Unlock()
}

func (n *recordingNotifier) count(level model.Level) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, it := range n.items {
		if it.Level == level {
			c++
		}
	}
	return c
}

type memoryTranscripts struct {
	mu   sync.Mutex
	data map[string][]model.ChatMessage
}

func newMemoryTranscripts() *memoryTranscripts {
	return &memoryTranscripts{data: map[string][]model.ChatMessage{}}
}

func (m *memoryTranscripts) Get(_ context.Context, id string) ([]model.ChatMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs, ok := m.data[id]
	return msgs, ok, nil
}

func (m *memoryTranscripts) Set(_ context.Context, id string, msgs []model.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = append([]model.ChatMessage(nil), msgs...)
	return nil
}

func (m *memoryTranscripts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type recordingActivity struct {
	mu     sync.Mutex
	events []model.ActivityEvent
}

func (r *recordingActivity) Record(_ context.Context, e model.ActivityEvent) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *recordingActivity) all() []model.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ActivityEvent(nil), r.events...)
}

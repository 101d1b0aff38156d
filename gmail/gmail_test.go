package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/bassamadnan/maildoc/body"
	"github.com/bassamadnan/maildoc/opt"
)

func TestQuery(t *testing.T) {
	tests := []struct {
		name        string
		q           Query
		wantString  string
		wantDisplay string
		wantLimit   int64
	}{
		{name: "empty", q: Query{}, wantString: "", wantDisplay: "All mail", wantLimit: 10},
		{
			name:        "all fields",
			q:           Query{From: "ops@example.com", Label: "Vendors", Subject: "Test Email with Event", Body: "maintenance", MaxResults: 25},
			wantString:  `from:"ops@example.com" label:"Vendors" subject:"Test Email with Event" maintenance`,
			wantDisplay: `from:"ops@example.com" label:"Vendors" subject:"Test Email with Event" maintenance`,
			wantLimit:   25,
		},
		{name: "body only", q: Query{Body: "  window ", MaxResults: 900}, wantString: "window", wantDisplay: "window", wantLimit: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
			if got := tt.q.Display(); got != tt.wantDisplay {
				t.Errorf("Display() = %q, want %q", got, tt.wantDisplay)
			}
			if got := tt.q.Limit(); got != tt.wantLimit {
				t.Errorf("Limit() = %d, want %d", got, tt.wantLimit)
			}
		})
	}
}

func TestFromAPI(t *testing.T) {
	data := base64.URLEncoding.EncodeToString([]byte("hello"))
	msg := &gmail.Message{
		Id:           "m1",
		ThreadId:     "t1",
		InternalDate: 1714557600000,
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Window"},
				{Name: "From", Value: "Ops <ops@example.com>"},
				{Name: "Date", Value: "Wed, 1 May 2024 10:00:00 -0400 (EDT)"},
			},
			Body: &gmail.MessagePartBody{},
			Parts: []*gmail.MessagePart{
				{PartId: "0", MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: data}},
				{PartId: "1", MimeType: "application/pdf", Body: &gmail.MessagePartBody{AttachmentId: "att"}},
			},
		},
	}

	m := FromAPI(msg)
	if m.Subject() != opt.Some("Window") {
		t.Errorf("Subject() = %v", m.Subject())
	}
	if m.From != "Ops <ops@example.com>" {
		t.Errorf("From = %q", m.From)
	}
	if want := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC); !m.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", m.Date, want)
	}
	if len(m.Root.Parts) != 2 || m.Root.Parts[0].Data != data || m.Root.Parts[1].HasPayload() {
		t.Errorf("Root parts = %+v", m.Root.Parts)
	}
	if m.Root.Parts[0].ID != "0" {
		t.Errorf("part id = %q, want 0", m.Root.Parts[0].ID)
	}
}

func TestSubjectDefault(t *testing.T) {
	var m Message
	if m.Subject().IsPresent() {
		t.Error("Subject() should be missing without headers")
	}
	if got := m.SubjectOrDefault(); got != NoSubject {
		t.Errorf("SubjectOrDefault() = %q", got)
	}

	m.Headers = append(m.Headers, body.Header{Name: "Subject", Value: ""})
	if got := m.SubjectOrDefault(); got != "" {
		t.Errorf("empty Subject header should stay empty, got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	tests := []string{
		"Wed, 01 May 2024 10:00:00 -0400",
		"Wed, 1 May 2024 10:00:00 -0400 (EDT)",
		"1 May 2024 10:00:00 -0400",
		"Wed, 1 May 2024 10:00:00 -0400 (Eastern Daylight Time)",
		"Wed, 1 May 2024 16:00:00 +0200 (GMT+02:00)",
	}
	want := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	for _, value := range tests {
		if got := parseDate(value); !got.Equal(want) {
			t.Errorf("parseDate(%q) = %v, want %v", value, got, want)
		}
	}
	if got := parseDate("not a date"); !got.IsZero() {
		t.Errorf("parseDate(garbage) = %v, want zero", got)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestSearch(t *testing.T) {
	var (
		mu       sync.Mutex
		gotQuery string
		gotMax   string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotQuery = r.URL.Query().Get("q")
		gotMax = r.URL.Query().Get("maxResults")
		mu.Unlock()
		writeJSON(t, w, gmail.ListMessagesResponse{
			Messages:           []*gmail.Message{{Id: "a"}, {Id: "b"}, {Id: "c"}},
			ResultSizeEstimate: 3,
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/gmail/v1/users/me/messages/")
		if f := r.URL.Query().Get("format"); f != "full" {
			t.Errorf("format = %q, want full", f)
		}
		writeJSON(t, w, gmail.Message{
			Id: id,
			Payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Headers:  []*gmail.MessagePartHeader{{Name: "Subject", Value: "subject " + id}},
				Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("body " + id))},
			},
		})
	})

	c := newTestClient(t, mux)
	c.SetFetchLimit(2)
	res, err := c.Search(context.Background(), Query{From: "ops@example.com", MaxResults: 3})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotQuery != `from:"ops@example.com"` || gotMax != "3" {
		t.Errorf("list called with q=%q maxResults=%q", gotQuery, gotMax)
	}
	if res.ResultSizeEstimate != 3 || len(res.Messages) != 3 {
		t.Fatalf("result = %+v", res)
	}
	for i, id := range []string{"a", "b", "c"} {
		if res.Messages[i].ID != id || res.Messages[i].SubjectOrDefault() != "subject "+id {
			t.Errorf("message %d = %+v, want id %s", i, res.Messages[i], id)
		}
	}
}

func TestSearchNoResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("q") {
			t.Errorf("empty query should not send q, got %q", r.URL.Query().Get("q"))
		}
		writeJSON(t, w, gmail.ListMessagesResponse{ResultSizeEstimate: 0})
	})

	res, err := newTestClient(t, mux).Search(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Query != "All mail" || len(res.Messages) != 0 {
		t.Errorf("result = %+v, want empty All mail result", res)
	}
}

func TestSearchTransportError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401,"message":"unauthorized"}}`, http.StatusUnauthorized)
	})
	if _, err := newTestClient(t, mux).Search(context.Background(), Query{}); err == nil {
		t.Fatal("Search() should fail on a transport error")
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestManagerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("filters file not created: %v", err)
	}
	if f := m.GetFilters(); len(f.IgnoreSenders) != 0 || len(f.IgnoreKeywordsInBody) != 0 {
		t.Errorf("new manager has rules: %+v", f)
	}
}

func TestManagerPersistsRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	for _, step := range []func() error{
		func() error { return m.AddIgnoreSender("noreply@example.com") },
		func() error { return m.AddIgnoreSender("noreply@example.com") },
		func() error { return m.AddIgnoreSender("  ") },
		func() error { return m.AddIgnoreKeywordInSubject("newsletter") },
		func() error { return m.AddIgnoreKeywordInBody("unsubscribe") },
		func() error { return m.AddIgnoreKeywordInBody("promo") },
		func() error { return m.RemoveIgnoreKeywordInBody("promo") },
	} {
		if err := step(); err != nil {
			t.Fatalf("update error = %v", err)
		}
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() reload error = %v", err)
	}
	want := Filters{
		IgnoreSenders:           []string{"noreply@example.com"},
		IgnoreKeywordsInSubject: []string{"newsletter"},
		IgnoreKeywordsInBody:    []string{"unsubscribe"},
	}
	if got := reloaded.GetFilters(); !reflect.DeepEqual(got, want) {
		t.Errorf("reloaded filters = %+v, want %+v", got, want)
	}
}

func TestManagerMatch(t *testing.T) {
	m, err := NewManager("")
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	_ = m.AddIgnoreSender("NoReply@")
	_ = m.AddIgnoreKeywordInSubject("digest")
	_ = m.AddIgnoreKeywordInBody("unsubscribe")

	tests := []struct {
		name                  string
		sender, subject, body string
		wantRule              string
		wantMatch             bool
	}{
		{name: "sender", sender: "Bot <noreply@example.com>", wantRule: "sender:NoReply@", wantMatch: true},
		{name: "subject", subject: "Weekly Digest", wantRule: "subject:digest", wantMatch: true},
		{name: "body", body: "Click to UNSUBSCRIBE", wantRule: "body:unsubscribe", wantMatch: true},
		{name: "none", sender: "ops@example.com", subject: "Maintenance", body: "Summary: \"x\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := m.Match(tt.sender, tt.subject, tt.body)
			if ok != tt.wantMatch || rule != tt.wantRule {
				t.Errorf("Match() = %q, %v; want %q, %v", rule, ok, tt.wantRule, tt.wantMatch)
			}
		})
	}
}

func TestManagerRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(path); err == nil {
		t.Fatal("NewManager() should fail on malformed JSON")
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
)

// Filters defines the rules for skipping retrieved messages.
type Filters struct {
	IgnoreSenders           []string `json:"ignoreSenders"`
	IgnoreKeywordsInSubject []string `json:"ignoreKeywordsInSubject"`
	IgnoreKeywordsInBody    []string `json:"ignoreKeywordsInBody"`
}

// Manager handles loading, saving, and accessing filter rules. A Manager
// without a file path keeps its rules in memory only.
type Manager struct {
	filePath string
	filters  *Filters
	mu       sync.RWMutex
}

// NewManager loads filter rules from filePath, creating the file with empty
// rules when it does not exist.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{
		filePath: filePath,
		filters:  emptyFilters(),
	}
	if filePath == "" {
		return m, nil
	}
	if err := m.LoadFilters(); err != nil {
		return nil, err
	}
	return m, nil
}

func emptyFilters() *Filters {
	return &Filters{
		IgnoreSenders:           []string{},
		IgnoreKeywordsInSubject: []string{},
		IgnoreKeywordsInBody:    []string{},
	}
}

// LoadFilters loads filter rules from the JSON file.
func (m *Manager) LoadFilters() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.filters = emptyFilters()
			return m.saveFilters()
		}
		return fmt.Errorf("reading filters %s: %w", m.filePath, err)
	}

	filters := emptyFilters()
	if err := json.Unmarshal(data, filters); err != nil {
		return fmt.Errorf("parsing filters %s: %w", m.filePath, err)
	}
	m.filters = filters
	return nil
}

// saveFilters writes the rules back; callers hold the lock.
func (m *Manager) saveFilters() error {
	if m.filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(m.filters, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.filePath, data, 0644)
}

// GetFilters returns a copy of the current filters.
func (m *Manager) GetFilters() Filters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Filters{
		IgnoreSenders:           slices.Clone(m.filters.IgnoreSenders),
		IgnoreKeywordsInSubject: slices.Clone(m.filters.IgnoreKeywordsInSubject),
		IgnoreKeywordsInBody:    slices.Clone(m.filters.IgnoreKeywordsInBody),
	}
}

func (m *Manager) AddIgnoreSender(sender string) error {
	return m.add(func(f *Filters) *[]string { return &f.IgnoreSenders }, sender)
}

func (m *Manager) AddIgnoreKeywordInSubject(keyword string) error {
	return m.add(func(f *Filters) *[]string { return &f.IgnoreKeywordsInSubject }, keyword)
}

func (m *Manager) AddIgnoreKeywordInBody(keyword string) error {
	return m.add(func(f *Filters) *[]string { return &f.IgnoreKeywordsInBody }, keyword)
}

func (m *Manager) RemoveIgnoreSender(sender string) error {
	return m.remove(func(f *Filters) *[]string { return &f.IgnoreSenders }, sender)
}

func (m *Manager) RemoveIgnoreKeywordInSubject(keyword string) error {
	return m.remove(func(f *Filters) *[]string { return &f.IgnoreKeywordsInSubject }, keyword)
}

func (m *Manager) RemoveIgnoreKeywordInBody(keyword string) error {
	return m.remove(func(f *Filters) *[]string { return &f.IgnoreKeywordsInBody }, keyword)
}

func (m *Manager) add(field func(*Filters) *[]string, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := field(m.filters)
	if slices.Contains(*list, value) {
		return nil
	}
	*list = append(*list, value)
	return m.saveFilters()
}

func (m *Manager) remove(field func(*Filters) *[]string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := field(m.filters)
	i := slices.Index(*list, value)
	if i < 0 {
		return nil
	}
	*list = slices.Delete(*list, i, i+1)
	return m.saveFilters()
}

// Match reports whether a message should be skipped and which rule matched.
// Comparisons are case-insensitive substring matches.
func (m *Manager) Match(sender, subject, body string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.filters.IgnoreSenders {
		if containsFold(sender, s) {
			return "sender:" + s, true
		}
	}
	for _, k := range m.filters.IgnoreKeywordsInSubject {
		if containsFold(subject, k) {
			return "subject:" + k, true
		}
	}
	for _, k := range m.filters.IgnoreKeywordsInBody {
		if containsFold(body, k) {
			return "body:" + k, true
		}
	}
	return "", false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

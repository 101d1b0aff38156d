// Package auth owns the Google OAuth session shared by the mail and
// calendar clients.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
)

// Scopes requested for the session: read mail, read and write calendar events.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	calendar.CalendarReadonlyScope,
	calendar.CalendarEventsScope,
}

// Session holds the OAuth configuration and token storage for one run.
// It is safe to share between the clients it authorizes.
type Session struct {
	config *oauth2.Config
	store  TokenStore
	logger *slog.Logger

	in  io.Reader
	out io.Writer
}

// NewSession reads the installed-app client secret from credentialsFile.
func NewSession(credentialsFile string, store TokenStore, logger *slog.Logger) (*Session, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	return NewSessionFromConfig(cfg, store, logger), nil
}

func NewSessionFromConfig(cfg *oauth2.Config, store TokenStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		config: cfg,
		store:  store,
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// WithPrompt sets where the authorization flow prints the consent URL and
// reads the authorization code.
func (s *Session) WithPrompt(in io.Reader, out io.Writer) *Session {
	s.in = in
	s.out = out
	return s
}

// HTTPClient returns a client that authorizes requests with the session token.
func (s *Session) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := s.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

// TokenSource loads the stored token, running the console authorization
// flow when none is stored. Refreshed tokens are written back to the store.
func (s *Session) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := s.store.Load()
	switch {
	case errors.Is(err, ErrNoToken):
		tok, err = s.tokenFromWeb(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.store.Save(tok); err != nil {
			return nil, err
		}
		s.logger.Info("stored new oauth token")
	case err != nil:
		return nil, err
	}

	return &persistingSource{
		base:   s.config.TokenSource(ctx, tok),
		store:  s.store,
		last:   tok,
		logger: s.logger,
	}, nil
}

func (s *Session) tokenFromWeb(ctx context.Context) (*oauth2.Token, error) {
	authURL := s.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(s.out, "Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Fscan(s.in, &authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := s.config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// persistingSource saves every token that differs from the last one seen.
type persistingSource struct {
	base   oauth2.TokenSource
	store  TokenStore
	logger *slog.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last != nil && p.last.AccessToken == tok.AccessToken {
		return tok, nil
	}
	p.last = tok
	if err := p.store.Save(tok); err != nil {
		// The refreshed token is still usable for this run.
		p.logger.Warn("could not persist refreshed token", "err", err)
	} else {
		p.logger.Debug("persisted refreshed oauth token")
	}
	return tok, nil
}

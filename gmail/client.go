// Package gmail retrieves messages from a Gmail account.
package gmail

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	user              = "me"
	defaultFetchLimit = 8
)

// SearchResult is the outcome of one search. Messages keep the order the
// API listed them in.
type SearchResult struct {
	Query              string
	MaxResults         int64
	ResultSizeEstimate int64
	Messages           []Message
}

type Client struct {
	srv        *gmail.Service
	logger     *slog.Logger
	fetchLimit int
}

// NewClient builds a client; pass option.WithHTTPClient with an authorized
// client from the auth session.
func NewClient(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{srv: srv, logger: logger, fetchLimit: defaultFetchLimit}, nil
}

// SetFetchLimit bounds the number of concurrent message downloads.
func (c *Client) SetFetchLimit(n int) {
	if n > 0 {
		c.fetchLimit = n
	}
}

// Search lists the messages matching q and downloads each in full. A search
// without matches returns an empty result and no error.
func (c *Client) Search(ctx context.Context, q Query) (SearchResult, error) {
	res := SearchResult{Query: q.Display(), MaxResults: q.Limit()}

	call := c.srv.Users.Messages.List(user).MaxResults(q.Limit()).Context(ctx)
	if s := q.String(); s != "" {
		call = call.Q(s)
	}
	list, err := call.Do()
	if err != nil {
		return SearchResult{}, fmt.Errorf("listing messages for %q: %w", res.Query, err)
	}
	res.ResultSizeEstimate = list.ResultSizeEstimate
	if len(list.Messages) == 0 || list.ResultSizeEstimate <= 0 {
		c.logger.Info("no messages found", "query", res.Query)
		return res, nil
	}
	c.logger.Info("listed messages", "query", res.Query, "count", len(list.Messages), "estimate", list.ResultSizeEstimate)

	messages := make([]Message, len(list.Messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fetchLimit)
	for i, ref := range list.Messages {
		g.Go(func() error {
			full, err := c.srv.Users.Messages.Get(user, ref.Id).Format("full").Context(gctx).Do()
			if err != nil {
				return fmt.Errorf("unable to retrieve full message %s: %w", ref.Id, err)
			}
			messages[i] = FromAPI(full)
			c.logger.Debug("fetched message", "id", ref.Id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SearchResult{}, err
	}
	res.Messages = messages
	return res, nil
}

// Package pipeline runs retrieved messages through decoding, filtering and
// event extraction, then hands the results to the document and calendar
// sinks.
package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bassamadnan/maildoc/body"
	"github.com/bassamadnan/maildoc/event"
	"github.com/bassamadnan/maildoc/gmail"
	"github.com/bassamadnan/maildoc/opt"
)

// Result is everything derived from one message.
type Result struct {
	Index   int
	Message gmail.Message
	Subject string
	Text    opt.String
	// Err is set when the body could not be decoded; Text is then missing.
	Err error
	// Filtered names the ignore rule that matched, empty when kept.
	Filtered string
	Fields   event.FieldSet
	Record   event.Record
}

func (r Result) Undecodable() bool {
	return r.Err != nil
}

func (r Result) Kept() bool {
	return r.Filtered == ""
}

// HasEvent reports whether any event field was found.
func (r Result) HasEvent() bool {
	return !r.Fields.Empty()
}

// Filter decides whether a message is skipped.
type Filter interface {
	Match(sender, subject, body string) (rule string, ignored bool)
}

// Processor decodes and extracts messages independently of each other.
type Processor struct {
	workers int
	filter  Filter
	logger  *slog.Logger
}

// NewProcessor returns a processor running up to workers messages at once.
// filter may be nil.
func NewProcessor(workers int, filter Filter, logger *slog.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{workers: workers, filter: filter, logger: logger}
}

// Process returns one result per message, in input order. Decode failures
// are recorded on the result; only cancellation of ctx returns an error.
func (p *Processor) Process(ctx context.Context, msgs []gmail.Message) ([]Result, error) {
	results := make([]Result, len(msgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, msg := range msgs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processOne(i, msg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Processor) processOne(i int, msg gmail.Message) Result {
	r := Result{
		Index:   i,
		Message: msg,
		Subject: msg.SubjectOrDefault(),
	}

	text, err := body.Decode(msg.Root)
	if err != nil {
		p.logger.Warn("undecodable message body", "id", msg.ID, "subject", r.Subject, "err", err)
		r.Err = err
		r.Text = opt.None()
	} else {
		r.Text = text
	}

	if p.filter != nil {
		if rule, ignored := p.filter.Match(msg.From, msg.Subject().OrElse(""), r.Text.OrElse("")); ignored {
			p.logger.Info("message filtered", "id", msg.ID, "subject", r.Subject, "rule", rule)
			r.Filtered = rule
			return r
		}
	}

	r.Fields = event.ExtractText(r.Text)
	r.Record = event.Build(r.Fields)
	return r
}

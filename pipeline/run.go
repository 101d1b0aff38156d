package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bassamadnan/maildoc/calendar"
	"github.com/bassamadnan/maildoc/document"
	"github.com/bassamadnan/maildoc/event"
	"github.com/bassamadnan/maildoc/gmail"
)

// Searcher retrieves messages.
type Searcher interface {
	Search(ctx context.Context, q gmail.Query) (gmail.SearchResult, error)
}

// DocumentWriter archives message texts.
type DocumentWriter interface {
	ValidateDir() error
	Write(entries []document.Entry) (string, error)
}

// EventInserter creates calendar events.
type EventInserter interface {
	Insert(ctx context.Context, rec event.Record) (calendar.Created, error)
}

// Printer shows progress to the user.
type Printer interface {
	Results(res gmail.SearchResult, results []Result)
	EventCreated(r Result, created calendar.Created)
	EventSkipped(r Result, reason string)
	Summary(s Summary)
}

// Summary counts what a run did. EventsCreated only counts complete
// records that were inserted.
type Summary struct {
	Retrieved        int
	Decoded          int
	NoText           int
	Undecodable      int
	Filtered         int
	EventsFound      int
	EventsIncomplete int
	EventsInvalid    int
	EventsCreated    int
	DocumentPath     string
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"retrieved", s.Retrieved,
		"decoded", s.Decoded,
		"noText", s.NoText,
		"undecodable", s.Undecodable,
		"filtered", s.Filtered,
		"eventsFound", s.EventsFound,
		"eventsIncomplete", s.EventsIncomplete,
		"eventsInvalid", s.EventsInvalid,
		"eventsCreated", s.EventsCreated,
	}
	if s.DocumentPath != "" {
		attrs = append(attrs, "document", s.DocumentPath)
	}
	return attrs
}

// Runner wires one search to the sinks. Nil Documents, Events or Printer
// disable that step.
type Runner struct {
	Searcher     Searcher
	Processor    *Processor
	Documents    DocumentWriter
	Events       EventInserter
	Printer      Printer
	StrictEvents bool
	Logger       *slog.Logger
}

// Run searches, processes, prints, archives and creates events, in that
// order. Search, document and calendar failures abort the run.
func (r *Runner) Run(ctx context.Context, q gmail.Query) (Summary, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var summary Summary

	if r.Documents != nil {
		if err := r.Documents.ValidateDir(); err != nil {
			return summary, err
		}
	}

	res, err := r.Searcher.Search(ctx, q)
	if err != nil {
		return summary, fmt.Errorf("search: %w", err)
	}
	results, err := r.Processor.Process(ctx, res.Messages)
	if err != nil {
		return summary, err
	}
	tally(&summary, results)

	if r.Printer != nil {
		r.Printer.Results(res, results)
	}

	if entries := Entries(results); r.Documents != nil && len(entries) > 0 {
		path, err := r.Documents.Write(entries)
		if err != nil {
			return summary, fmt.Errorf("document: %w", err)
		}
		summary.DocumentPath = path
	}

	if r.Events != nil {
		if err := r.createEvents(ctx, results, &summary, logger); err != nil {
			return summary, err
		}
	}

	logger.Info("run finished", summary.LogAttrs()...)
	if r.Printer != nil {
		r.Printer.Summary(summary)
	}
	return summary, nil
}

func (r *Runner) createEvents(ctx context.Context, results []Result, summary *Summary, logger *slog.Logger) error {
	for _, res := range results {
		if !res.Kept() || !res.HasEvent() {
			continue
		}
		if !res.Record.Complete() {
			reason := fmt.Sprintf("incomplete event, missing %v", res.Record.Missing())
			logger.Warn("skipping event", "id", res.Message.ID, "subject", res.Subject, "reason", reason)
			if r.Printer != nil {
				r.Printer.EventSkipped(res, reason)
			}
			continue
		}
		if r.StrictEvents {
			if err := res.Record.Validate(); err != nil {
				logger.Warn("skipping event", "id", res.Message.ID, "subject", res.Subject, "err", err)
				summary.EventsInvalid++
				if r.Printer != nil {
					r.Printer.EventSkipped(res, err.Error())
				}
				continue
			}
		}

		created, err := r.Events.Insert(ctx, res.Record)
		if err != nil {
			if errors.Is(err, calendar.ErrIncompleteRecord) {
				continue
			}
			return fmt.Errorf("creating event for message %s: %w", res.Message.ID, err)
		}
		summary.EventsCreated++
		if r.Printer != nil {
			r.Printer.EventCreated(res, created)
		}
	}
	return nil
}

func tally(s *Summary, results []Result) {
	s.Retrieved = len(results)
	for _, r := range results {
		switch {
		case r.Undecodable():
			s.Undecodable++
		case !r.Text.IsPresent():
			s.NoText++
		default:
			s.Decoded++
		}
		if !r.Kept() {
			s.Filtered++
			continue
		}
		if r.HasEvent() {
			s.EventsFound++
			if !r.Record.Complete() {
				s.EventsIncomplete++
			}
		}
	}
}

// Entries lists the kept results for the document, in retrieval order.
func Entries(results []Result) []document.Entry {
	entries := make([]document.Entry, 0, len(results))
	for _, r := range results {
		if !r.Kept() {
			continue
		}
		entries = append(entries, document.Entry{
			Subject:     r.Subject,
			Text:        r.Text,
			Undecodable: r.Undecodable(),
		})
	}
	return entries
}

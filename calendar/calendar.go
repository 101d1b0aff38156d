// Package calendar inserts event records into Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/bassamadnan/maildoc/event"
)

// DefaultCalendarID is the account's primary calendar.
const DefaultCalendarID = "primary"

// ErrIncompleteRecord is returned for records missing start or end fields.
var ErrIncompleteRecord = errors.New("incomplete event record")

// Created identifies an inserted event.
type Created struct {
	ID       string
	HTMLLink string
}

type Sink struct {
	srv        *calendar.Service
	calendarID string
	logger     *slog.Logger
}

// NewSink builds a sink writing to calendarID; an empty id means the
// primary calendar.
func NewSink(ctx context.Context, calendarID string, logger *slog.Logger, opts ...option.ClientOption) (*Sink, error) {
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{srv: srv, calendarID: calendarID, logger: logger}, nil
}

// Insert creates the event. Incomplete records are refused without calling
// the API.
func (s *Sink) Insert(ctx context.Context, rec event.Record) (Created, error) {
	if missing := rec.Missing(); len(missing) > 0 {
		return Created{}, fmt.Errorf("%w: missing %v", ErrIncompleteRecord, missing)
	}

	ev, err := s.srv.Events.Insert(s.calendarID, toAPI(rec)).Context(ctx).Do()
	if err != nil {
		return Created{}, fmt.Errorf("inserting event into %s: %w", s.calendarID, err)
	}
	s.logger.Info("event created", "id", ev.Id, "link", ev.HtmlLink)
	return Created{ID: ev.Id, HTMLLink: ev.HtmlLink}, nil
}

func toAPI(rec event.Record) *calendar.Event {
	ev := &calendar.Event{
		Summary:     rec.Summary.OrElse(""),
		Description: rec.Description.OrElse(""),
		Location:    rec.Location,
		Start:       toAPITime(rec.Start),
		End:         toAPITime(rec.End),
		Recurrence:  rec.Recurrence,
		Attendees:   []*calendar.EventAttendee{},
		Reminders: &calendar.EventReminders{
			UseDefault:      rec.Reminders.UseDefault,
			Overrides:       []*calendar.EventReminder{},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	for _, email := range rec.Attendees {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}
	for _, o := range rec.Reminders.Overrides {
		ev.Reminders.Overrides = append(ev.Reminders.Overrides, &calendar.EventReminder{Method: o.Method, Minutes: o.Minutes})
	}
	// An explicitly empty summary is sent as such rather than dropped.
	if rec.Summary.IsPresent() {
		ev.ForceSendFields = append(ev.ForceSendFields, "Summary")
	}
	return ev
}

func toAPITime(t event.Time) *calendar.EventDateTime {
	return &calendar.EventDateTime{
		DateTime: t.DateTime.OrElse(""),
		TimeZone: t.TimeZone.OrElse(""),
	}
}

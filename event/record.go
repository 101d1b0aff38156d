package event

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/bassamadnan/maildoc/opt"
)

// Time is one end of an event.
type Time struct {
	DateTime opt.String
	TimeZone opt.String
}

// Reminders mirrors the calendar reminder settings; records always use the
// calendar's defaults.
type Reminders struct {
	UseDefault bool
	Overrides  []Reminder
}

type Reminder struct {
	Method  string
	Minutes int64
}

// Record is an event ready to be handed to a calendar sink.
type Record struct {
	Summary     opt.String
	Description opt.String
	Location    string
	Start       Time
	End         Time
	Recurrence  []string
	Attendees   []string
	Reminders   Reminders
}

// Build assembles a record from extracted fields. Start and end are taken
// as found; nothing is inferred for missing values.
func Build(fields FieldSet) Record {
	return Record{
		Summary:     fields.Get(Summary),
		Description: fields.Get(Description),
		Start: Time{
			DateTime: fields.Get(StartDateTime),
			TimeZone: fields.Get(StartTimeZone),
		},
		End: Time{
			DateTime: fields.Get(EndDateTime),
			TimeZone: fields.Get(EndTimeZone),
		},
		Recurrence: []string{},
		Attendees:  []string{},
		Reminders: Reminders{
			UseDefault: true,
			Overrides:  []Reminder{},
		},
	}
}

// Missing lists the start and end fields a calendar insert needs but the
// record lacks.
func (r Record) Missing() []Field {
	var missing []Field
	check := func(f Field, v opt.String) {
		if !v.IsPresent() {
			missing = append(missing, f)
		}
	}
	check(StartDateTime, r.Start.DateTime)
	check(StartTimeZone, r.Start.TimeZone)
	check(EndDateTime, r.End.DateTime)
	check(EndTimeZone, r.End.TimeZone)
	return missing
}

// Complete reports whether the record has both ends fully specified.
func (r Record) Complete() bool {
	return len(r.Missing()) == 0
}

var ErrInvalidRecord = errors.New("invalid event record")

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Validate checks a complete record more strictly than the calendar sink
// does: time zones must be IANA names, date-times must parse, and the start
// must not come after the end.
func (r Record) Validate() error {
	if missing := r.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrInvalidRecord, missing)
	}
	start, err := r.Start.resolve()
	if err != nil {
		return fmt.Errorf("%w: start: %w", ErrInvalidRecord, err)
	}
	end, err := r.End.resolve()
	if err != nil {
		return fmt.Errorf("%w: end: %w", ErrInvalidRecord, err)
	}
	if start.After(end) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRecord,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func (t Time) resolve() (time.Time, error) {
	zone, _ := t.TimeZone.Get()
	if zone == "" {
		return time.Time{}, errors.New("empty time zone")
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("time zone %q: %w", zone, err)
	}
	value, _ := t.DateTime.Get()
	for _, layout := range dateTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("date time %q: unrecognized format", value)
}

// Package event pulls labeled calendar fields out of message text and
// assembles them into records for the calendar sink.
package event

import (
	"regexp"

	"github.com/bassamadnan/maildoc/body"
	"github.com/bassamadnan/maildoc/opt"
)

// Field identifies one of the labeled values an event message can carry.
type Field int

const (
	Summary Field = iota
	Description
	StartDateTime
	StartTimeZone
	EndDateTime
	EndTimeZone

	numFields
)

var labels = [numFields]string{
	Summary:       "Summary",
	Description:   "Description",
	StartDateTime: "Start date time",
	StartTimeZone: "Start time zone",
	EndDateTime:   "End date time",
	EndTimeZone:   "End time zone",
}

var names = [numFields]string{
	Summary:       "summary",
	Description:   "description",
	StartDateTime: "startDateTime",
	StartTimeZone: "startTimeZone",
	EndDateTime:   "endDateTime",
	EndTimeZone:   "endTimeZone",
}

var patterns [numFields]*regexp.Regexp

func init() {
	for f, label := range labels {
		patterns[f] = regexp.MustCompile(regexp.QuoteMeta(label) + `:\s*"(.*?)"`)
	}
}

// Fields lists every field in record order.
func Fields() []Field {
	fs := make([]Field, numFields)
	for i := range fs {
		fs[i] = Field(i)
	}
	return fs
}

// Label is the text that introduces the field in a message, without the colon.
func (f Field) Label() string {
	return labels[f]
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return "unknown"
	}
	return names[f]
}

// FieldSet holds one optional value per Field.
type FieldSet struct {
	values [numFields]opt.String
}

// Get returns the value extracted for f.
func (s FieldSet) Get(f Field) opt.String {
	return s.values[f]
}

// Set stores v for f.
func (s *FieldSet) Set(f Field, v string) {
	s.values[f] = opt.Some(v)
}

// Empty reports whether no field was found.
func (s FieldSet) Empty() bool {
	for _, v := range s.values {
		if v.IsPresent() {
			return false
		}
	}
	return true
}

// Extract finds the labeled fields in the first part of text. Every field
// is matched independently; a label that does not occur leaves its field
// missing. Later parts are ignored because they repeat or quote the first.
func Extract(text string) FieldSet {
	first := body.First(text)
	var set FieldSet
	for f, re := range patterns {
		if m := re.FindStringSubmatch(first); m != nil {
			set.Set(Field(f), m[1])
		}
	}
	return set
}

// ExtractText is Extract for text that may be missing; missing text yields
// a set with every field missing.
func ExtractText(text opt.String) FieldSet {
	s, ok := text.Get()
	if !ok {
		return FieldSet{}
	}
	return Extract(s)
}

package gmail

import (
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/gmail/v1"

	"github.com/bassamadnan/maildoc/body"
	"github.com/bassamadnan/maildoc/opt"
)

// NoSubject is shown for messages without a Subject header.
const NoSubject = "No Subject"

// Message is a retrieved message with its content tree.
type Message struct {
	ID           string
	ThreadID     string
	InternalDate int64 // ms since epoch, used for ordering
	Date         time.Time
	From         string
	Snippet      string
	Headers      []body.Header
	Root         body.Part
}

// Subject returns the Subject header, missing when the message has none.
func (m Message) Subject() opt.String {
	for _, h := range m.Headers {
		if h.Name == "Subject" {
			return opt.Some(h.Value)
		}
	}
	return opt.None()
}

func (m Message) SubjectOrDefault() string {
	return m.Subject().OrElse(NoSubject)
}

// FromAPI converts a message fetched with format "full".
func FromAPI(msg *gmail.Message) Message {
	m := Message{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		InternalDate: msg.InternalDate,
		Snippet:      msg.Snippet,
	}
	if msg.Payload == nil {
		return m
	}
	m.Root = partFromAPI(msg.Payload)
	m.Headers = m.Root.Headers
	for _, h := range m.Headers {
		switch h.Name {
		case "From":
			m.From = h.Value
		case "Date":
			m.Date = parseDate(h.Value)
		}
	}
	return m
}

func partFromAPI(p *gmail.MessagePart) body.Part {
	part := body.Part{
		ID:       p.PartId,
		MimeType: p.MimeType,
	}
	for _, h := range p.Headers {
		part.Headers = append(part.Headers, body.Header{Name: h.Name, Value: h.Value})
	}
	if p.Body != nil {
		part.Data = p.Body.Data
	}
	for _, child := range p.Parts {
		if child == nil {
			continue
		}
		part.Parts = append(part.Parts, partFromAPI(child))
	}
	return part
}

var dateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC822,
}

// parseDate understands the Date header variants seen in practice. A
// trailing zone comment is dropped before a second attempt. The zero time
// is returned when none apply.
func parseDate(value string) time.Time {
	candidates := []string{value}
	if openParen := strings.LastIndex(value, " ("); openParen != -1 {
		if closeParen := strings.LastIndex(value, ")"); closeParen > openParen {
			candidates = append(candidates, strings.TrimSpace(value[:openParen]+value[closeParen+1:]))
		}
	}
	for _, v := range candidates {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	slog.Warn("could not parse date header", "value", value)
	return time.Time{}
}

package body

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
)

// ErrUndecodable marks a payload that is not valid base64url or whose bytes
// cannot be read as text in the declared charset.
var ErrUndecodable = errors.New("undecodable payload")

// Header is a single name/value pair attached to a part.
type Header struct {
	Name  string
	Value string
}

// Part is one node of a message's content tree. Data holds the base64url
// encoded payload; an empty Data means the part carries no inline payload.
type Part struct {
	ID       string
	MimeType string
	Headers  []Header
	Data     string
	Parts    []Part
}

// HasPayload reports whether the part carries inline data.
func (p Part) HasPayload() bool {
	return p.Data != ""
}

// Header returns the first header with the given name, compared case-insensitively.
func (p Part) Header(name string) (string, bool) {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

func (p Part) mediaType() string {
	mt := strings.ToLower(strings.TrimSpace(p.MimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func (p Part) charset() string {
	ct, ok := p.Header("Content-Type")
	if !ok {
		return ""
	}
	_, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

// text decodes the base64url payload and converts it to a UTF-8 string.
func (p Part) text() (string, error) {
	if !p.HasPayload() {
		return "", nil
	}
	// Gmail emits base64url with padding, other producers strip it.
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(p.Data, "="))
	if err != nil {
		return "", p.undecodable(err)
	}

	switch cs := p.charset(); cs {
	case "", "utf-8", "utf8", "us-ascii":
		if !utf8.Valid(raw) {
			return "", p.undecodable(errors.New("invalid utf-8 byte sequence"))
		}
		return string(raw), nil
	default:
		r, err := charset.Reader(cs, bytes.NewReader(raw))
		if err != nil {
			// Labels like unknown-8bit are common; UTF-8 content still reads.
			if utf8.Valid(raw) {
				return string(raw), nil
			}
			return "", p.undecodable(err)
		}
		converted, err := io.ReadAll(r)
		if err != nil {
			return "", p.undecodable(err)
		}
		return string(converted), nil
	}
}

func (p Part) undecodable(err error) error {
	if p.ID != "" {
		return fmt.Errorf("part %s (%s): %w: %w", p.ID, p.MimeType, ErrUndecodable, err)
	}
	return fmt.Errorf("part %s: %w: %w", p.MimeType, ErrUndecodable, err)
}

// isHTML reports whether the media type belongs to the HTML family,
// including vendor variants such as text/x-amp-html.
func isHTML(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/") && strings.HasSuffix(mediaType, "html")
}

func isText(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/")
}

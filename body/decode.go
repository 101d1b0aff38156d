// Package body turns a message content tree into the plain text a reader
// would see.
package body

import (
	"github.com/bassamadnan/maildoc/opt"
)

// Decode returns the normalized visible text of a message rooted at root.
//
// A root with children yields the per-part texts joined with Separator, in
// document order; children without a payload are skipped. A single-part
// root yields text only for text/plain and text/html, and a missing value
// for every other type. Errors wrap ErrUndecodable.
func Decode(root Part) (opt.String, error) {
	if len(root.Parts) > 0 {
		texts, err := decodeChildren(root.Parts, nil)
		if err != nil {
			return opt.None(), err
		}
		return opt.Some(Join(texts)), nil
	}

	switch root.mediaType() {
	case "text/plain":
		text, err := root.text()
		if err != nil {
			return opt.None(), err
		}
		return opt.Some(Normalize(text)), nil
	case "text/html":
		text, err := root.visibleHTML()
		if err != nil {
			return opt.None(), err
		}
		return opt.Some(Normalize(text)), nil
	default:
		return opt.None(), nil
	}
}

func decodeChildren(parts []Part, texts []string) ([]string, error) {
	for _, part := range parts {
		if !part.HasPayload() {
			// Nested multipart containers carry their content in children;
			// attachments referenced by id carry nothing inline.
			if len(part.Parts) > 0 {
				var err error
				if texts, err = decodeChildren(part.Parts, texts); err != nil {
					return nil, err
				}
			}
			continue
		}

		mt := part.mediaType()
		var (
			text string
			err  error
		)
		switch {
		case isHTML(mt):
			text, err = part.visibleHTML()
		case isText(mt):
			text, err = part.text()
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		texts = append(texts, Normalize(text))
	}
	return texts, nil
}

func (p Part) visibleHTML() (string, error) {
	src, err := p.text()
	if err != nil {
		return "", err
	}
	text, err := HTMLToText(src)
	if err != nil {
		return "", p.undecodable(err)
	}
	return text, nil
}

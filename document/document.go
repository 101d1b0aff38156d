// Package document archives message texts to a Word document.
package document

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fumiama/go-docx"

	"github.com/bassamadnan/maildoc/opt"
)

const (
	DefaultPrefix = "3rdPartyMaintenance"
	NoVisibleText = "No visible text found."
	Undecodable   = "Message body could not be decoded."

	headingStyle = "Heading2"
	headingSize  = "26" // half-points
)

var ErrInvalidDirectory = errors.New("invalid directory")

var encode = Encode

// Entry is one archived message.
type Entry struct {
	Subject     string
	Text        opt.String
	Undecodable bool
}

// Writer produces one dated .docx file per run in Dir.
type Writer struct {
	Dir    string
	Prefix string
	Now    func() time.Time
	logger *slog.Logger
}

func NewWriter(dir, prefix string, logger *slog.Logger) *Writer {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{Dir: dir, Prefix: prefix, Now: time.Now, logger: logger}
}

// ValidateDir checks that Dir exists and is a directory.
func (w *Writer) ValidateDir() error {
	if w.Dir == "" {
		return fmt.Errorf("%w: no directory configured", ErrInvalidDirectory)
	}
	info, err := os.Stat(w.Dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDirectory, w.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidDirectory, w.Dir)
	}
	return nil
}

// Path is the file the next Write produces, e.g. 3rdPartyMaintenance_05-01-24.docx.
func (w *Writer) Path() string {
	name := w.Prefix + "_" + w.Now().Format("01-02-06") + ".docx"
	return filepath.Join(w.Dir, name)
}

// Write stores entries in order, one page each, and returns the file path.
func (w *Writer) Write(entries []Entry) (string, error) {
	if err := w.ValidateDir(); err != nil {
		return "", err
	}
	path := w.Path()
	w.logger.Info("writing document", "path", path, "entries", len(entries))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating document: %w", err)
	}
	if err := encode(f, entries); err != nil {
		f.Close()
		if rmErr := os.Remove(path); rmErr != nil {
			w.logger.Warn("removing partial document", "path", path, "err", rmErr)
		}
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing document: %w", err)
	}
	w.logger.Info("document saved", "path", path)
	return path, nil
}

// Encode writes entries as a Word document: a bold level-2 heading with the
// subject, the body text and a page break per entry.
func Encode(out io.Writer, entries []Entry) error {
	doc := docx.New().WithDefaultTheme()
	for _, e := range entries {
		doc.AddParagraph().Style(headingStyle).AddText(e.Subject).Bold().Size(headingSize)
		doc.AddParagraph().AddText(entryText(e))
		doc.AddParagraph().AddPageBreaks()
	}
	if _, err := doc.WriteTo(out); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}

func entryText(e Entry) string {
	if e.Undecodable {
		return Undecodable
	}
	text, ok := e.Text.Get()
	if !ok || text == "" {
		return NoVisibleText
	}
	return text
}

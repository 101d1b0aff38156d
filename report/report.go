// Package report prints run results to the console.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bassamadnan/maildoc/calendar"
	"github.com/bassamadnan/maildoc/document"
	"github.com/bassamadnan/maildoc/gmail"
	"github.com/bassamadnan/maildoc/pipeline"
)

const ruleWidth = 80

// Printer writes a styled, line-oriented report. Colors are dropped when
// out is not a terminal.
type Printer struct {
	out io.Writer

	rule     lipgloss.Style
	key      lipgloss.Style
	subject  lipgloss.Style
	muted    lipgloss.Style
	warn     lipgloss.Style
	success  lipgloss.Style
	ordinal  lipgloss.Style
	filtered lipgloss.Style
}

func NewPrinter(out io.Writer) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:      out,
		rule:     r.NewStyle().Foreground(lipgloss.Color("240")),
		key:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		subject:  r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "244"}),
		warn:     r.NewStyle().Foreground(lipgloss.Color("196")),
		success:  r.NewStyle().Foreground(lipgloss.Color("28")),
		ordinal:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		filtered: r.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
	}
}

func (p *Printer) line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) hr() {
	p.line("%s", p.rule.Render(strings.Repeat("-", ruleWidth)))
}

// Results prints the query header followed by every message.
func (p *Printer) Results(res gmail.SearchResult, results []pipeline.Result) {
	p.hr()
	p.line("%s %s", p.key.Render("Query:"), res.Query)
	p.line("%s %d", p.key.Render("Result size estimate:"), res.ResultSizeEstimate)
	p.line("%s %d", p.key.Render("Max results to show:"), res.MaxResults)
	p.line("")

	if len(results) == 0 {
		p.line("No emails found")
		p.hr()
		return
	}

	for i, r := range results {
		p.line("")
		p.line("%s %s", p.ordinal.Render(fmt.Sprintf("%d)", i+1)), p.rule.Render(strings.Repeat("- ", ruleWidth/2-2)))
		p.line("")
		p.line("%s  %s", p.key.Render("SUBJECT:"), p.subject.Render(r.Subject))
		if !r.Kept() {
			p.line("%s", p.filtered.Render("Filtered by rule "+r.Filtered))
			continue
		}
		p.body(r)
	}
	p.hr()
}

func (p *Printer) body(r pipeline.Result) {
	if r.Undecodable() {
		p.line("%s", p.warn.Render(document.Undecodable))
		return
	}
	text, ok := r.Text.Get()
	if !ok || text == "" {
		p.line("%s", p.muted.Render(document.NoVisibleText))
		return
	}
	p.line("")
	p.line("%s", p.key.Render("BODY:"))
	p.line("")
	p.line("%s", text)
}

func (p *Printer) EventCreated(r pipeline.Result, created calendar.Created) {
	p.line("%s %s", p.success.Render("Event created:"), created.HTMLLink)
}

func (p *Printer) EventSkipped(r pipeline.Result, reason string) {
	p.line("%s %s (%s)", p.warn.Render("Event skipped:"), r.Subject, reason)
}

// Summary prints the document path and the number of events created.
func (p *Printer) Summary(s pipeline.Summary) {
	p.line("")
	if s.DocumentPath != "" {
		p.line("%s %s", p.key.Render("Document saved:"), s.DocumentPath)
	}
	p.line("%s %d", p.key.Render("Events created:"), s.EventsCreated)
	if s.Undecodable > 0 || s.Filtered > 0 {
		p.line("%s", p.muted.Render(fmt.Sprintf("%d undecodable, %d filtered of %d retrieved",
			s.Undecodable, s.Filtered, s.Retrieved)))
	}
}

// Package tui browses processed messages in the terminal.
package tui

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/bassamadnan/maildoc/config"
	"github.com/bassamadnan/maildoc/pipeline"
)

type App struct {
	*tview.Application
	rootPages     *tview.Pages
	dashboardFlex *tview.Flex
	listView      *MessageListView
	previewPane   *PreviewPane
	focusedView   *FocusedView
	statusBar     *tview.TextView

	filters *config.Manager
	query   string
	results <-chan pipeline.Result
	logger  *slog.Logger
}

// NewApp builds the browser. Results arrive on results until it is closed;
// filters may be nil, which disables ignoring senders.
func NewApp(filters *config.Manager, query string, results <-chan pipeline.Result, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Application: tview.NewApplication(),
		filters:     filters,
		query:       query,
		results:     results,
		logger:      logger,
	}

	a.listView = NewMessageListView(a)
	a.previewPane = NewPreviewPane()
	a.focusedView = NewFocusedView()

	a.dashboardFlex = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(a.listView.List, 0, 1, true).
		AddItem(a.previewPane, 0, 3, false)
	a.dashboardFlex.SetBackgroundColor(tcell.ColorDefault)

	a.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.statusBar.SetBackgroundColor(tcell.ColorDefault)
	a.setStatus(fmt.Sprintf("[::d]Searching %s ...", tview.Escape(query)))

	mainLayout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.dashboardFlex, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)
	mainLayout.SetBackgroundColor(tcell.ColorDefault)

	a.rootPages = tview.NewPages().
		AddPage(PageDashboard, mainLayout, true, true).
		AddPage(PageFocusedEmail, a.focusedView, true, false)

	a.Application.SetRoot(a.rootPages, true).EnableMouse(true)
	a.setGlobalKeybindings()
	a.previewPane.SetWelcomeMessage()
	return a
}

func (a *App) Run() error {
	go a.receive()
	a.Application.SetFocus(a.listView.List)
	return a.Application.Run()
}

// Fail reports a retrieval error in the status bar.
func (a *App) Fail(err error) {
	a.QueueUpdateDraw(func() {
		a.setStatus(fmt.Sprintf("[red]Error: %s[-] | [::b]Q[::-]:Quit", tview.Escape(err.Error())))
	})
}

func (a *App) setGlobalKeybindings() {
	a.Application.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.rootPages.GetFrontPage()
		if event.Key() == tcell.KeyCtrlC || event.Rune() == 'q' || event.Rune() == 'Q' {
			a.Stop()
			return nil
		}
		switch currentPage {
		case PageFocusedEmail:
			if event.Key() == tcell.KeyEscape {
				a.ShowDashboardView()
				return nil
			}
		case PageDashboard:
			if event.Rune() == 'i' {
				a.ignoreSelectedSender()
				return nil
			}
		}
		return event
	})
}

func (a *App) receive() {
	for r := range a.results {
		a.QueueUpdateDraw(func() {
			a.listView.AddResult(r)
			a.setStandardStatusMessage()
		})
	}
	a.logger.Debug("result channel closed")
}

func (a *App) setStatus(text string) {
	a.statusBar.SetText(" " + text)
}

func (a *App) setStandardStatusMessage() {
	a.setStatus(fmt.Sprintf("[::d]%s | %d messages | [::b]Q/Ctrl+C[::-]:Quit [::b]Ent[::-]:Full [::b]Esc[::-]:Back [::b]i[::-]:Ignore sender",
		tview.Escape(a.query), a.listView.Len()))
}

// ignoreSelectedSender adds the sender of the highlighted message to the
// ignore list and hides its messages.
func (a *App) ignoreSelectedSender() {
	r, ok := a.listView.Selected()
	if !ok {
		return
	}
	if a.filters == nil {
		a.setStatus("[yellow]No filter file configured (--filters)[-]")
		return
	}
	sender := senderAddress(r.Message.From)
	if sender == "" {
		a.setStatus("[yellow]Message has no sender[-]")
		return
	}
	if err := a.filters.AddIgnoreSender(sender); err != nil {
		a.logger.Error("adding ignored sender", "sender", sender, "err", err)
		a.setStatus(fmt.Sprintf("[red]Could not save filter: %s[-]", tview.Escape(err.Error())))
		return
	}
	hidden := a.listView.RemoveSender(sender)
	a.logger.Info("ignoring sender", "sender", sender, "hidden", hidden)
	a.setStatus(fmt.Sprintf("[green]Ignoring %s[-] (%d hidden)", tview.Escape(sender), hidden))
}

func (a *App) UpdatePreviewPane(r pipeline.Result) {
	a.previewPane.SetResult(r)
}

func (a *App) ShowWelcomeMessageInPreview() {
	a.previewPane.SetWelcomeMessage()
}

func (a *App) ShowFocusedView(r pipeline.Result) {
	a.focusedView.SetResult(r)
	a.rootPages.SwitchToPage(PageFocusedEmail)
	a.Application.SetFocus(a.focusedView.textView)
}

func (a *App) ShowDashboardView() {
	a.rootPages.SwitchToPage(PageDashboard)
	a.Application.SetFocus(a.listView.List)
}

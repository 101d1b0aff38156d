package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/bassamadnan/maildoc/document"
	"github.com/bassamadnan/maildoc/event"
	"github.com/bassamadnan/maildoc/pipeline"
)

const (
	PageDashboard    = "dashboard"
	PageFocusedEmail = "focusedEmail"
)

type MessageListView struct {
	*tview.List
	app     *App
	results []pipeline.Result
	now     func() time.Time
}

func NewMessageListView(app *App) *MessageListView {
	list := tview.NewList().
		ShowSecondaryText(true).
		SetSecondaryTextColor(tcell.ColorDimGray)

	list.SetBackgroundColor(tcell.ColorDefault)
	list.SetSelectedStyle(tcell.StyleDefault.
		Foreground(tcell.ColorWhite).
		Background(tcell.ColorSteelBlue).
		Attributes(tcell.AttrBold))
	list.SetBorder(true).SetTitle("Messages")

	mlv := &MessageListView{List: list, app: app, now: time.Now}

	list.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		if mlv.app == nil {
			return
		}
		if index >= 0 && index < len(mlv.results) {
			mlv.app.UpdatePreviewPane(mlv.results[index])
		} else if mlv.List.GetItemCount() == 0 {
			mlv.app.ShowWelcomeMessageInPreview()
		}
	})

	list.SetSelectedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		if mlv.app != nil && index >= 0 && index < len(mlv.results) {
			mlv.app.ShowFocusedView(mlv.results[index])
		}
	})

	return mlv
}

// AddResult inserts r in retrieval order. Filtered results are not shown.
func (mlv *MessageListView) AddResult(r pipeline.Result) {
	if !r.Kept() {
		return
	}
	mlv.results = append(mlv.results, r)
	sort.SliceStable(mlv.results, func(i, j int) bool {
		return mlv.results[i].Index < mlv.results[j].Index
	})
	mlv.updateListItems()
}

// Selected returns the highlighted result.
func (mlv *MessageListView) Selected() (pipeline.Result, bool) {
	idx := mlv.List.GetCurrentItem()
	if idx < 0 || idx >= len(mlv.results) {
		return pipeline.Result{}, false
	}
	return mlv.results[idx], true
}

// RemoveSender drops every result from sender and returns how many went.
func (mlv *MessageListView) RemoveSender(sender string) int {
	kept := mlv.results[:0]
	for _, r := range mlv.results {
		if senderAddress(r.Message.From) != sender {
			kept = append(kept, r)
		}
	}
	removed := len(mlv.results) - len(kept)
	mlv.results = kept
	if removed > 0 {
		mlv.updateListItems()
	}
	return removed
}

func (mlv *MessageListView) Len() int {
	return len(mlv.results)
}

func (mlv *MessageListView) updateListItems() {
	currentSelection := mlv.List.GetCurrentItem()
	mlv.List.Clear()
	for _, r := range mlv.results {
		mainText, secondary := listItemText(r, mlv.now())
		mlv.List.AddItem(mainText, secondary, 0, nil)
	}

	if mlv.List.GetItemCount() > 0 {
		if currentSelection < 0 || currentSelection >= mlv.List.GetItemCount() {
			currentSelection = 0
		}
		mlv.List.SetCurrentItem(currentSelection)
		if mlv.app != nil {
			mlv.app.UpdatePreviewPane(mlv.results[currentSelection])
		}
	} else if mlv.app != nil {
		mlv.app.ShowWelcomeMessageInPreview()
	}
}

func listItemText(r pipeline.Result, now time.Time) (string, string) {
	mark := ""
	switch {
	case r.Undecodable():
		mark = "[red]! [-]"
	case r.HasEvent() && r.Record.Complete():
		mark = "[green]* [-]"
	case r.HasEvent():
		mark = "[yellow]* [-]"
	}
	mainText := mark + "[white]" + tview.Escape(truncate(r.Subject, 25))
	secondary := fmt.Sprintf("[::d]%s · %s\n%s",
		tview.Escape(truncate(senderName(r.Message.From), 15)),
		formatListDate(r.Message.Date, now),
		strings.Repeat("─", 20))
	return mainText, secondary
}

type PreviewPane struct {
	*tview.TextView
	isWelcome bool
}

func NewPreviewPane() *PreviewPane {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	tv.SetBackgroundColor(tcell.ColorDefault)
	tv.SetBorder(true).SetTitle("Preview")
	return &PreviewPane{TextView: tv, isWelcome: true}
}

func (pp *PreviewPane) SetResult(r pipeline.Result) {
	pp.isWelcome = false
	pp.SetText(resultText(r, 60)).ScrollToBeginning().SetTextAlign(tview.AlignLeft)
	pp.SetTitle(fmt.Sprintf("Preview: %s", tview.Escape(truncate(r.Subject, 40))))
}

func (pp *PreviewPane) SetWelcomeMessage() {
	pp.isWelcome = true
	pp.SetText("\n[lightblue::b]maildoc[-::-]\n\nNo message selected or list is empty.\n\n" +
		"[::d]Navigate messages with ↑ ↓ keys.\nPress Enter to open in full view.\n" +
		"Press i to ignore the sender.\nPress Q or Ctrl+C to quit.[::-]").
		ScrollToBeginning()
	pp.SetTitle("Home")
}

func (pp *PreviewPane) IsShowingWelcome() bool {
	return pp.isWelcome
}

type FocusedView struct {
	*tview.Frame
	textView *tview.TextView
}

func NewFocusedView() *FocusedView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	textView.SetBackgroundColor(tcell.ColorDefault)

	frame := tview.NewFrame(textView).
		AddText("", true, tview.AlignCenter, tcell.ColorYellow).
		AddText("Press Esc to go back", false, tview.AlignCenter, tcell.ColorDimGray)
	frame.SetBorder(true).SetBackgroundColor(tcell.ColorDefault)

	return &FocusedView{Frame: frame, textView: textView}
}

func (fv *FocusedView) SetResult(r pipeline.Result) {
	fv.textView.SetText(resultText(r, 70)).ScrollToBeginning()
	fv.Frame.Clear().
		AddText(fmt.Sprintf("Subject: %s", tview.Escape(truncate(r.Subject, 60))), true, tview.AlignCenter, tcell.ColorYellow).
		AddText("Press Esc to go back", false, tview.AlignCenter, tcell.ColorDimGray).
		SetPrimitive(fv.textView)
}

// resultText renders headers, extracted event fields and the normalized
// body as tview markup.
func resultText(r pipeline.Result, ruleWidth int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[::b]From:[::-] %s\n", tview.Escape(r.Message.From))
	dateStr := "N/A"
	if !r.Message.Date.IsZero() {
		dateStr = r.Message.Date.Local().Format(time.RFC1123)
	}
	fmt.Fprintf(&b, "[::b]Date:[::-] %s\n", dateStr)
	fmt.Fprintf(&b, "[::b]Subject:[::-] %s\n", tview.Escape(r.Subject))
	if r.Message.Snippet != "" {
		fmt.Fprintf(&b, "[::b]Snippet:[::-] [::d]%s[::-]\n", tview.Escape(r.Message.Snippet))
	}
	b.WriteString("\n")

	if r.HasEvent() {
		status := "[green]complete[-]"
		if !r.Record.Complete() {
			status = "[yellow]incomplete[-]"
		}
		fmt.Fprintf(&b, "[::b]Event[::-] (%s)\n", status)
		for _, f := range event.Fields() {
			v, ok := r.Fields.Get(f).Get()
			if !ok {
				fmt.Fprintf(&b, "  %s: [::d]<missing>[::-]\n", f.Label())
				continue
			}
			fmt.Fprintf(&b, "  %s: %s\n", f.Label(), tview.Escape(v))
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat("─", ruleWidth) + "\n\n")
	text, ok := r.Text.Get()
	switch {
	case r.Undecodable():
		b.WriteString("[red]" + document.Undecodable + "[-]")
	case !ok || text == "":
		b.WriteString("[::d]" + document.NoVisibleText + "[::-]")
	default:
		b.WriteString(tview.Escape(text))
	}
	return b.String()
}

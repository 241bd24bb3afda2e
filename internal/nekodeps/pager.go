package nekodeps

import (
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/term"
)

// logMarkers are the substrings that make a log line a diagnostic; the
// pager colours them and 'n' jumps between them.
var logMarkers = []struct {
	text  string
	color string
}{
	{"error", "red"},
	{"Error", "red"},
	{"FAILED", "red"},
	{"warning", "yellow"},
	{"Warning", "yellow"},
}

// markLine escapes a line for tview and colours it when it carries a
// diagnostic marker. The bool reports whether it did.
func markLine(line string) (string, bool) {
	escaped := tview.Escape(line)
	for _, m := range logMarkers {
		if strings.Contains(line, m.text) {
			return "[" + m.color + "]" + escaped + "[-]", true
		}
	}
	return escaped, false
}

// RunPager shows lines in a scrollable view when stdout is a terminal and
// the text does not fit on screen; otherwise it prints them.
func RunPager(title string, lines []string) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		printLines(lines)
		return nil
	}
	// two rows for the border
	if _, height, err := term.GetSize(fd); err == nil && len(lines) <= height-2 {
		printLines(lines)
		return nil
	}

	var marked []int
	var b strings.Builder
	for i, line := range lines {
		text, hit := markLine(line)
		if hit {
			marked = append(marked, i)
		}
		fmt.Fprintf(&b, "[gray]%5d[-] %s\n", i+1, text)
	}

	app := tview.NewApplication()
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false).
		SetText(b.String())
	textView.SetBorder(true).SetTitle(fmt.Sprintf(" %s (%d lines, %d flagged) ", title, len(lines), len(marked)))

	footer := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]↑/↓ PgUp/PgDn Home/End scroll, 'n' next error/warning, 'q' or Esc quit[-]")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(textView, 0, 1, true).
		AddItem(footer, 1, 0, false)

	next := 0
	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc, tcell.KeyCtrlQ:
			app.Stop()
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q':
				app.Stop()
				return nil
			case 'n':
				if len(marked) > 0 {
					textView.ScrollTo(marked[next%len(marked)], 0)
					next++
				}
				return nil
			}
		}
		return event
	})

	if err := app.SetRoot(flex, true).SetFocus(textView).Run(); err != nil {
		return fmt.Errorf("pager execution failed: %w", err)
	}
	return nil
}

func printLines(lines []string) {
	for _, line := range lines {
		fmt.Println(line)
	}
}

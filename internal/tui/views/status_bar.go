package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays the profile, business name, feed state, and key hints.
type StatusBar struct {
	*tview.TextView
	profile  string
	business string
	feed     string
	hints    string
	flash    string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetBusiness updates the business name display.
func (sb *StatusBar) SetBusiness(name string) {
	sb.business = name
	sb.render()
}

// SetFeedState updates the push feed connectivity display.
func (sb *StatusBar) SetFeedState(state string) {
	sb.feed = state
	sb.render()
}

// SetHints updates the keybinding hints for the front page.
func (sb *StatusBar) SetHints(hints []string) {
	sb.hints = strings.Join(hints, "  ")
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	feed := sb.feed
	switch feed {
	case "live":
		feed = "[green]live[-]"
	case "reconnecting", "degraded":
		feed = "[red]" + feed + "[-]"
	}

	title := sb.profile
	if sb.business != "" {
		title = sb.business + "/" + sb.profile
	}

	clock := time.Now().Format("15:04")

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s | %s", title, feed, clock, sb.hints)
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}

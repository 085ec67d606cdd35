package views

import (
	"fmt"
	"time"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/inbox"
	"github.com/rivo/tview"
)

// Thread displays the message timeline for one conversation. Outgoing
// messages carry a delivery glyph so the operator can see sends settle.
type Thread struct {
	*tview.TextView
	messages []inbox.Message
	loading  bool
	loc      *time.Location
}

// NewThread creates a new conversation thread view.
func NewThread() *Thread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Conversation ")

	return &Thread{TextView: tv}
}

// SetLocation sets the timezone used for message timestamps.
func (th *Thread) SetLocation(loc *time.Location) {
	th.loc = loc
}

// SetCustomerName updates the title.
func (th *Thread) SetCustomerName(name string) {
	th.SetTitle(fmt.Sprintf(" %s ", sanitizeForTerminal(name)))
}

// ShowLoading blanks the view until history arrives. Stale messages from the
// previously open conversation must never flash here.
func (th *Thread) ShowLoading() {
	th.loading = true
	th.messages = nil
	th.Clear()
	_, _ = fmt.Fprint(th, "[::d]Loading messages...[-:-:-]")
}

// Loading reports whether the view is still waiting for its first batch.
func (th *Thread) Loading() bool {
	return th.loading
}

// Update refreshes the thread. Messages arrive oldest first.
func (th *Thread) Update(msgs []inbox.Message) {
	th.loading = false
	th.messages = msgs
	th.Clear()

	if len(msgs) == 0 {
		_, _ = fmt.Fprint(th, "[::d]No messages yet[-:-:-]")
		return
	}

	for _, m := range msgs {
		sender := "Customer"
		if m.Direction == inbox.DirectionOut {
			sender = "You"
		}

		ts := formatTimestamp(m.CreatedAt, th.loc)
		glyph := deliveryGlyph(m.Delivery)
		line := fmt.Sprintf("[::b]%s[-:-:-] [::d]%s[-:-:-]%s\n%s\n\n",
			sender, ts, glyph, sanitizeForTerminal(m.Content))
		_, _ = fmt.Fprint(th, line)
	}

	th.ScrollToEnd()
}

// LastFailedID returns the ID of the newest failed outgoing message, or ""
// when nothing is retryable.
func (th *Thread) LastFailedID() string {
	for i := len(th.messages) - 1; i >= 0; i-- {
		if th.messages[i].Delivery == inbox.DeliveryFailed {
			return th.messages[i].ID
		}
	}
	return ""
}

func deliveryGlyph(d inbox.DeliveryState) string {
	switch d {
	case inbox.DeliverySending:
		return " [::d]…[-:-:-]"
	case inbox.DeliverySent:
		return " [green]✓[-]"
	case inbox.DeliveryFailed:
		return " [red]✗ failed (r to retry)[-]"
	default:
		return ""
	}
}

package views

import (
	"fmt"
	"time"

	"github.com/kedar94c/whatsapp-crm-frontend/internal/inbox"
	"github.com/rivo/tview"
)

// InboxList is the conversation list view (K9s-inspired table).
type InboxList struct {
	*tview.Table
	summaries []inbox.Summary
	unread    map[string]bool
	loaded    bool
	loc       *time.Location
}

// NewInboxList creates a new inbox table.
func NewInboxList() *InboxList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Inbox ")

	return &InboxList{Table: table}
}

// SetLocation sets the timezone used for row timestamps.
func (il *InboxList) SetLocation(loc *time.Location) {
	il.loc = loc
}

// Update refreshes the list. The first call flips the view out of its
// loading state, so an empty slice after that renders as a real empty inbox.
func (il *InboxList) Update(summaries []inbox.Summary, unread map[string]bool) {
	il.summaries = summaries
	il.unread = unread
	il.loaded = true
	il.render()
}

func (il *InboxList) render() {
	il.Clear()

	il.SetCell(0, 0, tview.NewTableCell(" Customer").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	il.SetCell(0, 1, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	il.SetCell(0, 2, tview.NewTableCell(" Time").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	if !il.loaded {
		il.SetCell(1, 0, tview.NewTableCell(" Loading conversations...").SetSelectable(false))
		return
	}
	if len(il.summaries) == 0 {
		il.SetCell(1, 0, tview.NewTableCell(" No conversations").SetSelectable(false))
		return
	}

	for i, s := range il.summaries {
		row := i + 1
		name := s.DisplayName()
		if il.unread[s.CustomerID] {
			name = fmt.Sprintf("* %s", name)
		}

		il.SetCell(row, 0, tview.NewTableCell(" "+sanitizeForTerminal(name)).SetMaxWidth(30).SetExpansion(1))
		il.SetCell(row, 1, tview.NewTableCell(" "+sanitizeForTerminal(s.LastMessageText)).SetMaxWidth(40).SetExpansion(2))
		il.SetCell(row, 2, tview.NewTableCell(" "+formatTimestamp(s.LastMessageTime, il.loc)).SetMaxWidth(12))
	}
}

// SelectedCustomer returns the customer ID of the highlighted row.
func (il *InboxList) SelectedCustomer() string {
	row, _ := il.GetSelection()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(il.summaries) {
		return il.summaries[idx].CustomerID
	}
	return ""
}

// NameFor returns the display name for a customer ID, or the ID itself when
// the customer is not in the current list.
func (il *InboxList) NameFor(customerID string) string {
	for _, s := range il.summaries {
		if s.CustomerID == customerID {
			return s.DisplayName()
		}
	}
	return customerID
}

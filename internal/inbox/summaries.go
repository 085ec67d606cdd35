package inbox

import (
	"sort"
	"time"
)

// summaryList holds one Summary per customer, sorted descending by
// LastMessageTime. Ties keep insertion order.
type summaryList struct {
	items []Summary
}

// reset replaces the whole list from a bulk fetch.
func (l *summaryList) reset(items []Summary) {
	l.items = make([]Summary, len(items))
	copy(l.items, items)
	l.resort()
}

// applyPreview updates the last-message preview for one customer and
// re-sorts. Returns false when the customer is unknown; the caller decides
// whether that warrants a refetch.
func (l *summaryList) applyPreview(customerID, text string, at time.Time) bool {
	for i := range l.items {
		if l.items[i].CustomerID == customerID {
			l.items[i].LastMessageText = text
			l.items[i].LastMessageTime = at
			l.resort()
			return true
		}
	}
	return false
}

// touchRead records a local read acknowledgement so the derived unread flag
// agrees with the unread set before the backend confirms.
func (l *summaryList) touchRead(customerID string, at time.Time) {
	for i := range l.items {
		if l.items[i].CustomerID == customerID {
			l.items[i].LastReadAt = at
			return
		}
	}
}

func (l *summaryList) get(customerID string) (Summary, bool) {
	for _, s := range l.items {
		if s.CustomerID == customerID {
			return s, true
		}
	}
	return Summary{}, false
}

// list returns a copy of the sorted list.
func (l *summaryList) list() []Summary {
	out := make([]Summary, len(l.items))
	copy(out, l.items)
	return out
}

func (l *summaryList) resort() {
	sort.SliceStable(l.items, func(i, j int) bool {
		return l.items[i].LastMessageTime.After(l.items[j].LastMessageTime)
	})
}

package inbox

import "sort"

// timeline is the per-conversation message sequence, keyed by message ID and
// kept ascending by CreatedAt. Merging the same batch twice produces the same
// result as merging it once.
type timeline struct {
	items []Message
	index map[string]int // message ID -> position in items
}

func newTimeline() *timeline {
	return &timeline{index: make(map[string]int)}
}

// merge upserts a batch into the sequence. A record whose ID is already
// present overwrites the stored record; new records append. The sequence is
// then re-sorted, with ties keeping their existing order.
func (t *timeline) merge(batch []Message) {
	for _, m := range batch {
		if i, ok := t.index[m.ID]; ok {
			t.items[i] = m
		} else {
			t.index[m.ID] = len(t.items)
			t.items = append(t.items, m)
		}
	}
	t.resort()
}

// replaceID removes the entry stored under oldID and merges m under its own
// ID. A plain merge is not enough here: when a provisional message is
// confirmed its ID changes, and leaving the provisional row behind would
// duplicate the message once a push event for the confirmed ID arrives.
func (t *timeline) replaceID(oldID string, m Message) {
	if i, ok := t.index[oldID]; ok && oldID != m.ID {
		t.items = append(t.items[:i], t.items[i+1:]...)
		t.reindex()
	}
	t.merge([]Message{m})
}

// setDelivery mutates the delivery state of one entry in place.
func (t *timeline) setDelivery(id string, d DeliveryState) bool {
	i, ok := t.index[id]
	if !ok {
		return false
	}
	t.items[i].Delivery = d
	return true
}

func (t *timeline) get(id string) (Message, bool) {
	if i, ok := t.index[id]; ok {
		return t.items[i], true
	}
	return Message{}, false
}

func (t *timeline) clear() {
	t.items = nil
	t.index = make(map[string]int)
}

// list returns a copy of the ordered sequence.
func (t *timeline) list() []Message {
	out := make([]Message, len(t.items))
	copy(out, t.items)
	return out
}

func (t *timeline) resort() {
	sort.SliceStable(t.items, func(i, j int) bool {
		return t.items[i].CreatedAt.Before(t.items[j].CreatedAt)
	})
	t.reindex()
}

func (t *timeline) reindex() {
	for i, m := range t.items {
		t.index[m.ID] = i
	}
	for id := range t.index {
		if t.index[id] < len(t.items) && t.items[t.index[id]].ID == id {
			continue
		}
		delete(t.index, id)
	}
}

package vt

import "github.com/google/uuid"

// DefaultTabTitle names the tab a registry starts with.
const DefaultTabTitle = "Terminal"

// Tab is a logical terminal tab. ProcessID refers to a process owned by
// someone else; 0 means none.
type Tab struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	HasActivity bool   `json:"has_activity"`
	ProcessID   int    `json:"process_id,omitempty"`
}

// TabRegistry is an ordered list of tabs with one active tab. It is not
// safe for concurrent use; Terminal serializes access.
type TabRegistry struct {
	tabs   []Tab
	active int
}

// NewTabRegistry returns a registry holding a single active tab.
func NewTabRegistry() *TabRegistry {
	r := &TabRegistry{}
	r.Create(DefaultTabTitle)
	return r
}

// Create appends a tab and returns its index. The active tab is unchanged.
func (r *TabRegistry) Create(title string) int {
	r.tabs = append(r.tabs, Tab{ID: uuid.New().String(), Title: title})
	return len(r.tabs) - 1
}

func (r *TabRegistry) valid(index int) bool {
	return index >= 0 && index < len(r.tabs)
}

// Switch makes index active and clears its activity flag. Out of range
// indices are ignored.
func (r *TabRegistry) Switch(index int) {
	if !r.valid(index) {
		return
	}
	r.active = index
	r.tabs[index].HasActivity = false
}

// MarkActivity flags a background tab. The active tab is never flagged.
func (r *TabRegistry) MarkActivity(index int) {
	if !r.valid(index) || index == r.active {
		return
	}
	r.tabs[index].HasActivity = true
}

// Close removes the tab at index. The last remaining tab cannot be
// closed. The active index follows its tab; closing the active tab
// activates the tab that took its place, or the new last tab.
func (r *TabRegistry) Close(index int) bool {
	if !r.valid(index) || len(r.tabs) == 1 {
		return false
	}
	r.tabs = append(r.tabs[:index], r.tabs[index+1:]...)
	switch {
	case index < r.active:
		r.active--
	case index == r.active:
		if r.active >= len(r.tabs) {
			r.active = len(r.tabs) - 1
		}
		r.tabs[r.active].HasActivity = false
	}
	return true
}

// SetTitle renames the tab at index.
func (r *TabRegistry) SetTitle(index int, title string) {
	if r.valid(index) {
		r.tabs[index].Title = title
	}
}

// SetProcess records the process backing the tab at index.
func (r *TabRegistry) SetProcess(index, pid int) {
	if r.valid(index) {
		r.tabs[index].ProcessID = pid
	}
}

func (r *TabRegistry) Active() int { return r.active }
func (r *TabRegistry) Len() int { return len(r.tabs) }

// ActiveTab returns a copy of the active tab.
func (r *TabRegistry) ActiveTab() Tab {
	return r.tabs[r.active]
}

// Get returns a copy of the tab at index.
func (r *TabRegistry) Get(index int) (Tab, bool) {
	if !r.valid(index) {
		return Tab{}, false
	}
	return r.tabs[index], true
}

// Tabs returns a copy of all tabs in order.
func (r *TabRegistry) Tabs() []Tab {
	out := make([]Tab, len(r.tabs))
	copy(out, r.tabs)
	return out
}

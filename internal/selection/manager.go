// Package selection tracks bulk row selection across list pages.
package selection

import (
	"sort"
	"sync"
)

// Manager holds a selection set plus the last explicitly clicked id, used as
// the anchor for shift range selection. The current page's ids are always
// passed in by the caller, so selections survive pagination.
type Manager struct {
	mu          sync.RWMutex
	selected    map[string]struct{}
	lastClicked string
	limit       int
}

// NewManager returns an empty manager. limit caps the set size; 0 means
// unlimited.
func NewManager(limit int) *Manager {
	return &Manager{selected: make(map[string]struct{}), limit: limit}
}

// Toggle flips membership of id and makes it the range anchor.
func (m *Manager) Toggle(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.toggleLocked(id)
}

func (m *Manager) toggleLocked(id string) bool {
	m.lastClicked = id
	if _, ok := m.selected[id]; ok {
		delete(m.selected, id)
		return false
	}
	return m.addLocked(id)
}

func (m *Manager) addLocked(id string) bool {
	if _, ok := m.selected[id]; ok {
		return true
	}
	if m.limit > 0 && len(m.selected) >= m.limit {
		return false
	}
	m.selected[id] = struct{}{}
	return true
}

// RangeSelect selects the inclusive range between the anchor and id within
// pageIDs when shift is held and the anchor is on the page. Otherwise it
// behaves as Toggle.
func (m *Manager) RangeSelect(id string, pageIDs []string, shift bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !shift || m.lastClicked == "" {
		m.toggleLocked(id)
		return
	}
	from, to := indexOf(pageIDs, m.lastClicked), indexOf(pageIDs, id)
	if from < 0 || to < 0 {
		m.toggleLocked(id)
		return
	}
	if from > to {
		from, to = to, from
	}
	for _, pid := range pageIDs[from : to+1] {
		m.addLocked(pid)
	}
	m.lastClicked = id
}

// SelectAllOnPage adds every id of the page. Ids on other pages are untouched.
func (m *Manager) SelectAllOnPage(pageIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range pageIDs {
		m.addLocked(id)
	}
}

// DeselectAllOnPage removes every id of the page and nothing else.
func (m *Manager) DeselectAllOnPage(pageIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range pageIDs {
		delete(m.selected, id)
	}
}

// Clear empties the selection and forgets the anchor.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = make(map[string]struct{})
	m.lastClicked = ""
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.selected)
}

func (m *Manager) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.selected[id]
	return ok
}

// IDs returns the selected ids sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) LastClicked() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastClicked
}

// AllOnPage reports whether every id of the page is selected.
func (m *Manager) AllOnPage(pageIDs []string) bool {
	if len(pageIDs) == 0 {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range pageIDs {
		if _, ok := m.selected[id]; !ok {
			return false
		}
	}
	return true
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

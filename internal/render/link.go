package render

import (
	"context"
	"sync"
	"time"

	"kairos-gateway/internal/debounce"
)

// Suggestion is one candidate offered by a Link field's autocomplete.
type Suggestion struct {
	Value       string `json:"value"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

// LinkSearchFunc looks up records of doctype matching txt.
type LinkSearchFunc func(ctx context.Context, doctype, txt string) ([]Suggestion, error)

// Key is a navigation key understood by LinkInput.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyEnter
	KeyEscape
	KeyTab
)

// LinkState is a snapshot of a LinkInput for painting.
type LinkState struct {
	Text        string       `json:"text"`
	Value       string       `json:"value"`
	Open        bool         `json:"open"`
	Loading     bool         `json:"loading"`
	Highlighted int          `json:"highlighted"`
	Suggestions []Suggestion `json:"suggestions"`
	Error       string       `json:"error,omitempty"`
}

// LinkInput models a Link field: typing searches the linked doctype after a
// pause, the keyboard moves through suggestions, and the value only changes
// on an explicit selection or a Tab with exactly one suggestion.
type LinkInput struct {
	doctype  string
	onCommit func(value string)
	deb      *debounce.Debouncer[string, []Suggestion]

	mu          sync.Mutex
	text        string
	value       string
	open        bool
	loading     bool
	highlighted int
	suggestions []Suggestion
	err         error
}

func NewLinkInput(doctype, value string, search LinkSearchFunc, delay time.Duration, onCommit func(value string)) *LinkInput {
	l := &LinkInput{
		doctype:     doctype,
		onCommit:    onCommit,
		text:        value,
		value:       value,
		highlighted: -1,
	}
	l.deb = debounce.New(delay, func(ctx context.Context, txt string) ([]Suggestion, error) {
		return search(ctx, doctype, txt)
	}, l.applyResults)
	return l
}

// Type replaces the typed text and schedules a search.
func (l *LinkInput) Type(text string) {
	l.mu.Lock()
	l.text = text
	l.open = true
	l.loading = true
	l.highlighted = -1
	l.mu.Unlock()
	l.deb.Trigger(text)
}

// Key handles a navigation key. It reports whether a value was committed.
func (l *LinkInput) Key(k Key) bool {
	l.mu.Lock()
	switch k {
	case KeyDown:
		if l.open && len(l.suggestions) > 0 && l.highlighted < len(l.suggestions)-1 {
			l.highlighted++
		}
	case KeyUp:
		if l.open && l.highlighted > 0 {
			l.highlighted--
		}
	case KeyEnter:
		if l.open && l.highlighted >= 0 && l.highlighted < len(l.suggestions) {
			s := l.suggestions[l.highlighted]
			l.mu.Unlock()
			l.commit(s.Value)
			return true
		}
	case KeyEscape:
		l.dismissLocked()
	case KeyTab:
		if l.open && len(l.suggestions) == 1 {
			s := l.suggestions[0]
			l.mu.Unlock()
			l.commit(s.Value)
			return true
		}
		l.dismissLocked()
	}
	l.mu.Unlock()
	return false
}

// Select commits the suggestion at index i (a click).
func (l *LinkInput) Select(i int) bool {
	l.mu.Lock()
	if i < 0 || i >= len(l.suggestions) {
		l.mu.Unlock()
		return false
	}
	s := l.suggestions[i]
	l.mu.Unlock()
	l.commit(s.Value)
	return true
}

// State returns a snapshot for painting.
func (l *LinkInput) State() LinkState {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := LinkState{
		Text:        l.text,
		Value:       l.value,
		Open:        l.open,
		Loading:     l.loading,
		Highlighted: l.highlighted,
		Suggestions: append([]Suggestion(nil), l.suggestions...),
	}
	if l.err != nil {
		st.Error = l.err.Error()
	}
	return st
}

// Close cancels pending searches. Call it when the field is torn down.
func (l *LinkInput) Close() {
	l.deb.Close()
}

func (l *LinkInput) commit(value string) {
	l.deb.Cancel()
	l.mu.Lock()
	l.value = value
	l.text = value
	l.open = false
	l.loading = false
	l.highlighted = -1
	l.suggestions = nil
	l.mu.Unlock()
	if l.onCommit != nil {
		l.onCommit(value)
	}
}

// dismissLocked closes the list and restores the committed text.
func (l *LinkInput) dismissLocked() {
	l.open = false
	l.loading = false
	l.highlighted = -1
	l.text = l.value
}

func (l *LinkInput) applyResults(_ string, res []Suggestion, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	l.err = err
	if err != nil {
		l.suggestions = nil
		return
	}
	l.suggestions = res
	l.highlighted = -1
}

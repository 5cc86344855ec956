package selection

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func page(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("STU-%02d", i)
	}
	return ids
}

func TestRangeSelect_InclusiveRange(t *testing.T) {
	m := NewManager(0)
	ids := page(10)

	m.RangeSelect(ids[2], ids, false)
	m.RangeSelect(ids[7], ids, true)

	if m.Count() != 6 {
		t.Fatalf("expected 6 selected, got %d (%v)", m.Count(), m.IDs())
	}
	for i := 2; i <= 7; i++ {
		if !m.Has(ids[i]) {
			t.Fatalf("expected %s selected", ids[i])
		}
	}
	if m.Has(ids[1]) || m.Has(ids[8]) {
		t.Fatal("range must not extend past its ends")
	}
}

func TestRangeSelect_Backwards(t *testing.T) {
	m := NewManager(0)
	ids := page(10)
	m.Toggle(ids[6])
	m.RangeSelect(ids[3], ids, true)
	if m.Count() != 4 {
		t.Fatalf("expected 4, got %d", m.Count())
	}
}

func TestRangeSelect_AnchorOffPageToggles(t *testing.T) {
	m := NewManager(0)
	first := page(10)
	m.Toggle(first[1])

	second := []string{"STU-10", "STU-11", "STU-12"}
	m.RangeSelect(second[2], second, true)

	if m.Count() != 2 || !m.Has("STU-12") {
		t.Fatalf("expected plain toggle, got %v", m.IDs())
	}
	if m.LastClicked() != "STU-12" {
		t.Fatalf("expected anchor update, got %s", m.LastClicked())
	}
}

func TestToggle(t *testing.T) {
	m := NewManager(0)
	if !m.Toggle("a") || !m.Has("a") {
		t.Fatal("expected a selected")
	}
	if m.Toggle("a") || m.Has("a") {
		t.Fatal("expected a deselected")
	}
}

func TestPageOperations_KeepOtherPages(t *testing.T) {
	m := NewManager(0)
	m.Toggle("other-page")

	ids := page(5)
	m.SelectAllOnPage(ids)
	if m.Count() != 6 || !m.AllOnPage(ids) {
		t.Fatalf("expected 6 selected, got %d", m.Count())
	}
	m.DeselectAllOnPage(ids)
	if m.Count() != 1 || !m.Has("other-page") {
		t.Fatalf("expected only the out-of-page id to remain, got %v", m.IDs())
	}
}

func TestClear(t *testing.T) {
	m := NewManager(0)
	m.SelectAllOnPage(page(10))
	m.Clear()
	if m.Count() != 0 || m.LastClicked() != "" {
		t.Fatalf("expected empty selection, got %d", m.Count())
	}
	m.Clear()
	if m.Count() != 0 {
		t.Fatal("clear on empty set must stay empty")
	}
}

func TestLimit(t *testing.T) {
	m := NewManager(3)
	m.SelectAllOnPage(page(10))
	if m.Count() != 3 {
		t.Fatalf("expected cap at 3, got %d", m.Count())
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.For("sid-1", "Student").Toggle(fmt.Sprintf("STU-%d", i))
		}(i)
	}
	wg.Wait()

	if got := s.For("sid-1", "Student").Count(); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	if s.For("sid-1", "Guardian").Count() != 0 {
		t.Fatal("selections are per doctype")
	}
	s.DropSession("sid-1")
	if s.For("sid-1", "Student").Count() != 0 {
		t.Fatal("expected session selections dropped")
	}
}

func TestStore_SweepDropsIdleSessions(t *testing.T) {
	s := NewStore(0)
	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	s.For("sid-gone", "Student").Toggle("STU-1")
	clock = clock.Add(90 * time.Minute)
	s.For("sid-active", "Student").Toggle("STU-2")
	clock = clock.Add(40 * time.Minute)

	if n := s.Sweep(2 * time.Hour); n != 1 {
		t.Fatalf("expected one idle selection dropped, got %d", n)
	}
	if s.Len() != 1 {
		t.Fatalf("expected only the active session left, got %d", s.Len())
	}
	if s.For("sid-active", "Student").Count() != 1 {
		t.Fatal("active selection must survive the sweep")
	}
	if s.For("sid-gone", "Student").Count() != 0 {
		t.Fatal("swept session should start empty")
	}
}

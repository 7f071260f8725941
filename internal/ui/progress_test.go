package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"dtt/internal/driver"
)

func TestProgressTracksFiles(t *testing.T) {
	events := make(chan driver.PhaseEvent)
	m := NewProgressModel("checking", []string{"a.dtt", "b.dtt"}, events).(*progressModel)

	steps := []driver.PhaseEvent{
		{Path: "a.dtt", Name: "read", Status: driver.PhaseStart},
		{Path: "a.dtt", Name: "read", Status: driver.PhaseEnd},
		{Path: "a.dtt", Name: "check", Status: driver.PhaseStart},
		{Path: "b.dtt", Name: "file", Status: driver.FileDone},
		{Path: "unknown.dtt", Name: "read", Status: driver.PhaseStart},
	}
	for _, ev := range steps {
		m.applyEvent(ev)
	}
	if m.items[0].status != statusChecking || m.items[1].status != statusError {
		t.Fatalf("items = %+v", m.items)
	}
	if finished, failed := m.counts(); finished != 1 || failed != 1 {
		t.Fatalf("counts = %d, %d", finished, failed)
	}

	m.applyEvent(driver.PhaseEvent{Path: "a.dtt", Name: "file", Status: driver.FileDone, OK: true})
	_, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatalf("done message did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit command")
	}
	view := m.View()
	if !strings.Contains(view, "done: checking (2/2, 1 failed)") {
		t.Fatalf("view header missing:\n%s", view)
	}
	if !strings.Contains(view, "a.dtt") || !strings.Contains(view, statusError) {
		t.Fatalf("view rows missing:\n%s", view)
	}
}

func TestListenReportsClose(t *testing.T) {
	events := make(chan driver.PhaseEvent, 1)
	m := NewProgressModel("checking", []string{"a.dtt"}, events).(*progressModel)
	events <- driver.PhaseEvent{Path: "a.dtt", Name: "read", Status: driver.PhaseStart}
	close(events)
	if _, ok := m.listenForEvent()().(eventMsg); !ok {
		t.Fatalf("expected an event message")
	}
	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Fatalf("expected done after close")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefghij", 6); !strings.HasSuffix(got, "...") || len(got) > 6 {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}

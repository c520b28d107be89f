package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	pkgio "github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/layout"
)

func testResult(n int) pkgio.Result {
	res := pkgio.Result{Width: 100, Height: 100}
	for i := range n {
		res.Nodes = append(res.Nodes, pkgio.ResultNode{ID: string(rune('a' + i)), Rank: i, Width: 10, Height: 10})
	}
	res.Edges = []pkgio.ResultEdge{{
		V: "a", W: "b", Label: "ab",
		Points:        []layout.Point{{X: 0, Y: 5}, {X: 0, Y: 10}, {X: 0, Y: 15}},
		LabelPosition: &layout.Point{X: 3, Y: 10},
	}}
	return res
}

func press(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, _ = m.Update(msg)
	return m
}

func TestNodeListNavigation(t *testing.T) {
	var m tea.Model = NewNodeListModel(testResult(4))
	m = press(m, "down")
	m = press(m, "j")
	if got := m.(NodeListModel).Cursor; got != 2 {
		t.Errorf("Cursor = %d, want 2", got)
	}
	m = press(m, "G")
	if got := m.(NodeListModel).Cursor; got != 3 {
		t.Errorf("Cursor after G = %d, want 3", got)
	}
	m = press(m, "down")
	if got := m.(NodeListModel).Cursor; got != 3 {
		t.Errorf("Cursor past the end = %d, want 3", got)
	}
	m = press(m, "g")
	m = press(m, "up")
	if got := m.(NodeListModel).Cursor; got != 0 {
		t.Errorf("Cursor before the start = %d, want 0", got)
	}
}

func TestNodeListScrolls(t *testing.T) {
	var m tea.Model = NewNodeListModel(testResult(20))
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 19})
	for range 7 {
		m = press(m, "down")
	}
	nl := m.(NodeListModel)
	if nl.Height != 5 || nl.Offset != 3 {
		t.Errorf("Height, Offset = %d, %d, want 5, 3", nl.Height, nl.Offset)
	}
	if view := nl.View(); !strings.Contains(view, "[8/20]") {
		t.Errorf("view should show the position:\n%s", view)
	}
}

func TestNodeListQuit(t *testing.T) {
	_, cmd := NewNodeListModel(testResult(2)).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestNodeListDetails(t *testing.T) {
	m := NewNodeListModel(testResult(2))
	d := m.details()
	if !strings.Contains(d, "a → b") || !strings.Contains(d, "3 points") || !strings.Contains(d, `"ab"`) {
		t.Errorf("details of a = %q", d)
	}
	m.Cursor = 1
	if d := m.details(); !strings.Contains(d, "out:") || !strings.Contains(d, "none") {
		t.Errorf("details of b = %q", d)
	}
}

package keys

import (
	"reflect"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func runeEvent(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestViewBindingShadowsGlobal(t *testing.T) {
	r := NewRegistry()
	var fired string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'x', Handler: func() { fired = "global" }})
	r.AddView("thread", &Action{Key: tcell.KeyRune, Rune: 'x', Handler: func() { fired = "thread" }})

	if !r.HandleEvent("thread", runeEvent('x')) {
		t.Fatal("HandleEvent() = false, want true")
	}
	if fired != "thread" {
		t.Errorf("fired = %q, want thread", fired)
	}

	fired = ""
	if !r.HandleEvent("inbox", runeEvent('x')) {
		t.Fatal("HandleEvent() = false, want true")
	}
	if fired != "global" {
		t.Errorf("fired = %q, want global", fired)
	}
}

func TestUnmatchedEvent(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Handler: func() {}})

	if r.HandleEvent("inbox", runeEvent('z')) {
		t.Error("HandleEvent() = true for unbound rune")
	}
	if r.HandleEvent("inbox", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) {
		t.Error("HandleEvent() = true for unbound key")
	}
}

func TestNonRuneKeyMatch(t *testing.T) {
	r := NewRegistry()
	fired := false
	r.AddView("inbox", &Action{Key: tcell.KeyEnter, Handler: func() { fired = true }})

	if !r.HandleEvent("inbox", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) {
		t.Fatal("HandleEvent() = false, want true")
	}
	if !fired {
		t.Error("handler did not fire")
	}
}

func TestHintsOrderStable(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Description: "q:quit", Visible: true, Handler: func() {}})
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: '?', Description: "?:help", Visible: false, Handler: func() {}})
	r.AddView("thread", &Action{Key: tcell.KeyRune, Rune: 'r', Description: "r:retry", Visible: true, Handler: func() {}})

	want := []string{"r:retry", "q:quit"}
	for i := 0; i < 5; i++ {
		if got := r.Hints("thread"); !reflect.DeepEqual(got, want) {
			t.Fatalf("Hints() = %v, want %v", got, want)
		}
	}
}

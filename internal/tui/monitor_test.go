package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ar-nair/kinval/internal/mech"
	"github.com/ar-nair/kinval/internal/reactor"
	"github.com/ar-nair/kinval/internal/xval"
)

func testConditions(t *testing.T, n int) []*reactor.Condition {
	t.Helper()
	m := mech.Isomerization()
	conds := make([]*reactor.Condition, n)
	for i := range conds {
		c, err := reactor.NewCondition(reactor.ConstantPressure,
			map[*mech.Species]float64{m.Species[0]: 1.0},
			1000+float64(i)*100, 1e5, 1e-3)
		if err != nil {
			t.Fatalf("condition: %v", err)
		}
		conds[i] = c
	}
	return conds
}

func TestModel_ProgressUpdates(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newModel(testConditions(t, 2), []string{"kinetic", "reference"}, cancel)

	next, _ := m.Update(progressMsg(xval.Progress{ConditionIndex: 0, Backend: "kinetic"}))
	m = next.(model)
	next, _ = m.Update(progressMsg(xval.Progress{ConditionIndex: 1, Backend: "reference", Err: errors.New("boom")}))
	m = next.(model)

	if m.completed != 2 {
		t.Fatalf("completed = %d, want 2", m.completed)
	}
	if m.status[0][0] != cellOK {
		t.Errorf("status[0][kinetic] = %v, want ok", m.status[0][0])
	}
	if m.status[1][1] != cellFailed {
		t.Errorf("status[1][reference] = %v, want failed", m.status[1][1])
	}

	view := m.View()
	for _, want := range []string{"kinetic", "reference", "ok", "fail", "boom", "2/4"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_UnknownBackendIgnored(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newModel(testConditions(t, 1), []string{"kinetic"}, cancel)

	next, _ := m.Update(progressMsg(xval.Progress{ConditionIndex: 0, Backend: "nope"}))
	m = next.(model)
	if m.completed != 0 {
		t.Fatalf("completed = %d, want 0", m.completed)
	}
}

func TestModel_DoneQuits(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newModel(testConditions(t, 1), []string{"kinetic"}, cancel)

	next, cmd := m.Update(doneMsg(nil))
	m = next.(model)
	if !m.done {
		t.Fatal("done not set")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

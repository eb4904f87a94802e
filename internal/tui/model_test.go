package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/flowsilicon/keyconsole/internal/console"
	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/remote"
	"github.com/flowsilicon/keyconsole/internal/status"
)

const (
	keyA = "sk-aaaaaaaaaaaaaaaaaaaaaaaa"
	keyB = "sk-bbbbbbbbbbbbbbbbbbbbbbbb"
)

type fakeController struct {
	mu        sync.Mutex
	view      console.View
	intents   []console.Intent
	added     map[string]float64
	batches   [][]string
	threshold float64
	pruned    bool
	refreshed bool
}

func (f *fakeController) Dispatch(_ context.Context, intent console.Intent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, intent)
	return nil
}

func (f *fakeController) AddKey(_ context.Context, id string, balance float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.added == nil {
		f.added = make(map[string]float64)
	}
	f.added[id] = balance
	return nil
}

func (f *fakeController) AddKeys(_ context.Context, ids []string, _ float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, ids)
	return nil
}

func (f *fakeController) DeleteZeroBalance(context.Context) (*remote.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = true
	return &remote.DeleteResult{}, nil
}

func (f *fakeController) DeleteBelowThreshold(_ context.Context, threshold float64) (*remote.DeleteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threshold = threshold
	return &remote.DeleteResult{}, nil
}

func (f *fakeController) RefreshBalances(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = true
	return nil
}

func (f *fakeController) View() console.View {
	return f.view
}

func (f *fakeController) lastIntent() console.Intent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.intents) == 0 {
		return console.Intent{}
	}
	return f.intents[len(f.intents)-1]
}

func newTestModel(t *testing.T) (*Model, *fakeController, *clocktesting.FakePassiveClock) {
	t.Helper()
	ctrl := &fakeController{view: console.View{Sort: keys.SortState{Field: keys.SortNone, Direction: keys.Descending}}}
	clk := clocktesting.NewFakePassiveClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	m := New(context.Background(), ctrl, WithClock(clk))
	m.Update(keysMsg{records: []keys.Record{{ID: keyA, Balance: 1}, {ID: keyB, Balance: 2}}})
	return m, ctrl, clk
}

func press(m *Model, s string) tea.Cmd {
	var msg tea.KeyMsg
	switch s {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

// exec runs a command the way the bubbletea runtime would, feeding the
// resulting message back into the model
func exec(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	result, ok := msg.(resultMsg)
	require.True(t, ok, "expected a resultMsg, got %T", msg)
	m.Update(result)
}

func TestModel_CursorIntents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		kind console.IntentKind
	}{
		{key: " ", kind: console.IntentToggle},
		{key: "D", kind: console.IntentDelete},
		{key: "e", kind: console.IntentEnable},
		{key: "x", kind: console.IntentDisable},
		{key: "c", kind: console.IntentCheck},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()

			m, ctrl, _ := newTestModel(t)
			assert.Nil(t, press(m, "down"))
			exec(t, m, press(m, tt.key))

			assert.Equal(t, console.Intent{Kind: tt.kind, ID: keyB}, ctrl.lastIntent())
		})
	}
}

func TestModel_CursorFollowsKeyAcrossRenders(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	press(m, "down")
	assert.Equal(t, keyB, m.cursorID)

	m.Update(keysMsg{records: []keys.Record{{ID: keyB}, {ID: keyA}}, selected: []string{keyB}})
	assert.Equal(t, keyB, m.cursorID)

	m.Update(keysMsg{records: []keys.Record{{ID: keyA}}})
	assert.Equal(t, keyA, m.cursorID)

	m.Update(keysMsg{})
	assert.Empty(t, m.cursorID)
	assert.Nil(t, press(m, " "))
}

func TestModel_Sorting(t *testing.T) {
	t.Parallel()

	m, ctrl, _ := newTestModel(t)

	exec(t, m, press(m, "s"))
	assert.Equal(t, console.Intent{Kind: console.IntentSortBy, Field: keys.SortScore}, ctrl.lastIntent())
	assert.Equal(t, keys.SortState{Field: keys.SortScore, Direction: keys.Descending}, m.sort)

	exec(t, m, press(m, "S"))
	assert.Equal(t, console.Intent{Kind: console.IntentSortBy, Field: keys.SortScore}, ctrl.lastIntent())
	assert.Equal(t, keys.SortState{Field: keys.SortScore, Direction: keys.Ascending}, m.sort)

	exec(t, m, press(m, "s"))
	assert.Equal(t, keys.SortBalance, m.sort.Field)
}

func TestModel_ModeKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		mode keys.Mode
	}{
		{key: "1", mode: keys.ModeAll},
		{key: "2", mode: keys.ModeSingle},
		{key: "3", mode: keys.ModeSelected},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()

			m, ctrl, _ := newTestModel(t)
			exec(t, m, press(m, tt.key))
			// a nil IDs list lets the controller use the current selection
			assert.Equal(t, console.Intent{Kind: console.IntentApplyMode, Mode: tt.mode}, ctrl.lastIntent())
		})
	}
}

func TestModel_AddFlow(t *testing.T) {
	t.Parallel()

	t.Run("single key", func(t *testing.T) {
		t.Parallel()
		m, ctrl, _ := newTestModel(t)

		press(m, "a")
		assert.Equal(t, inputKeys, m.input)
		press(m, keyA)
		press(m, "enter")
		assert.Equal(t, inputBalance, m.input)
		assert.Equal(t, []string{keyA}, m.pendingKeys)

		press(m, "2.5")
		exec(t, m, press(m, "enter"))
		assert.Equal(t, inputNone, m.input)
		assert.Equal(t, map[string]float64{keyA: 2.5}, ctrl.added)
	})

	t.Run("batch", func(t *testing.T) {
		t.Parallel()
		m, ctrl, _ := newTestModel(t)

		press(m, "a")
		press(m, keyA+","+keyB)
		press(m, "enter")
		press(m, "0")
		exec(t, m, press(m, "enter"))
		assert.Equal(t, [][]string{{keyA, keyB}}, ctrl.batches)
	})

	t.Run("bad balance keeps the prompt", func(t *testing.T) {
		t.Parallel()
		m, ctrl, _ := newTestModel(t)

		press(m, "a")
		press(m, keyA)
		press(m, "enter")
		press(m, "lots")
		assert.Nil(t, press(m, "enter"))
		assert.Equal(t, inputBalance, m.input)
		assert.Empty(t, ctrl.added)
		require.Len(t, m.toasts, 1)
		assert.Equal(t, "Balance must be a number", m.toasts[0].message)
	})

	t.Run("no keys entered", func(t *testing.T) {
		t.Parallel()
		m, _, _ := newTestModel(t)

		press(m, "a")
		press(m, "short")
		assert.Nil(t, press(m, "enter"))
		assert.Equal(t, inputNone, m.input)
		require.Len(t, m.toasts, 1)
	})

	t.Run("escape cancels", func(t *testing.T) {
		t.Parallel()
		m, ctrl, _ := newTestModel(t)

		press(m, "a")
		press(m, keyA)
		press(m, "esc")
		assert.Equal(t, inputNone, m.input)
		assert.Empty(t, ctrl.added)
	})
}

func TestModel_Prune(t *testing.T) {
	t.Parallel()

	m, ctrl, _ := newTestModel(t)

	exec(t, m, press(m, "z"))
	assert.True(t, ctrl.pruned)

	press(m, "p")
	press(m, "0.25")
	exec(t, m, press(m, "enter"))
	assert.Equal(t, 0.25, ctrl.threshold)

	exec(t, m, press(m, "b"))
	assert.True(t, ctrl.refreshed)
}

func TestModel_Confirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want console.Choice
	}{
		{key: "y", want: console.ChoiceYes},
		{key: "n", want: console.ChoiceNo},
		{key: "esc", want: console.ChoiceCancel},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			t.Parallel()

			m, ctrl, _ := newTestModel(t)
			reply := make(chan console.Choice, 1)
			m.Update(confirmMsg{title: "Zero balance", message: "Add anyway?", reply: reply})
			assert.Contains(t, m.View(), "Add anyway?")

			// other keys are ignored while the dialog is open
			assert.Nil(t, press(m, "D"))
			assert.Empty(t, ctrl.intents)

			press(m, tt.key)
			assert.Equal(t, tt.want, <-reply)
			assert.Nil(t, m.confirm)
		})
	}
}

func TestModel_SecondConfirmIsCancelled(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	first := make(chan console.Choice, 1)
	second := make(chan console.Choice, 1)

	m.Update(confirmMsg{title: "one", reply: first})
	m.Update(confirmMsg{title: "two", reply: second})

	assert.Equal(t, console.ChoiceCancel, <-second)
	assert.Equal(t, "one", m.confirm.title)
}

func TestModel_ToastsExpire(t *testing.T) {
	t.Parallel()

	m, _, clk := newTestModel(t)
	m.Update(notifyMsg{message: "Key added", severity: console.SeveritySuccess, duration: 3 * time.Second})
	m.Update(notifyMsg{message: "Failed to load keys", severity: console.SeverityError, duration: 10 * time.Second})
	assert.Contains(t, m.View(), "Key added")

	clk.SetTime(clk.Now().Add(3 * time.Second))
	_, cmd := m.Update(tickMsg(clk.Now()))
	assert.NotNil(t, cmd)

	require.Len(t, m.toasts, 1)
	assert.Equal(t, "Failed to load keys", m.toasts[0].message)
	assert.NotContains(t, m.View(), "Key added")
}

func TestModel_Progress(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	m.Update(progressMsg{title: "Adding 4 keys", total: 4, active: true})
	m.Update(progressMsg{done: 4, total: 4, detail: "added 4, skipped 0 in 1s", active: true, update: true})

	require.NotNil(t, m.progress)
	assert.Equal(t, "Adding 4 keys", m.progress.title)
	view := m.View()
	assert.Contains(t, view, "4/4")
	assert.Contains(t, view, "added 4, skipped 0 in 1s")

	m.Update(progressMsg{})
	assert.Nil(t, m.progress)
}

func TestModel_ViewShowsState(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	last := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.Update(cadenceMsg(status.CadenceStatus{Name: console.CadenceKeys, Phase: status.PhaseArmed, Remaining: 12, LastUpdate: &last}))
	m.Update(statsMsg{stats: &remote.Stats{TotalKeys: 2, ActiveKeys: 2, TotalBalance: 3}})
	m.Update(ratesMsg{rates: &remote.RateStats{RPM: 7}})
	m.Update(modeMsg(keys.ModeState{Mode: keys.ModeSingle, IDs: []string{keyA}}))

	view := m.View()
	assert.Contains(t, view, "sk-aaa******")
	assert.Contains(t, view, "keys last update: 12:00:00 (12s until refresh)")
	assert.Contains(t, view, "keys 2 (active 2, disabled 0)")
	assert.Contains(t, view, "rpm 7")
	assert.Contains(t, view, "mode: single (sk-aaa******)")
	assert.NotContains(t, view, keyA)
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_CtrlCCancelsOpenQuestion(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestModel(t)
	reply := make(chan console.Choice, 1)
	m.Update(confirmMsg{title: "Zero balance", message: "Add anyway?", reply: reply})

	cmd := press(m, "ctrl+c")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, console.ChoiceCancel, <-reply)
	assert.Nil(t, m.confirm)
}

package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsilicon/keyconsole/internal/console"
	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/status"
)

var (
	_ console.Surface   = (*Bridge)(nil)
	_ console.Notifier  = (*Bridge)(nil)
	_ console.Progress  = (*Bridge)(nil)
	_ console.Confirmer = (*Bridge)(nil)
)

func TestBridge_DropsUntilAttached(t *testing.T) {
	t.Parallel()

	b := NewBridge()
	b.Notify("lost", console.SeverityInfo, time.Second)

	_, ok := b.SelectedIDs()
	assert.False(t, ok)

	choice, err := b.Confirm(context.Background(), "Zero balance", "Add anyway?")
	require.NoError(t, err)
	assert.Equal(t, console.ChoiceCancel, choice)

	// the selection is tracked even when nothing is attached
	b.RenderKeys([]keys.Record{{ID: keyA}}, []string{keyA})
	ids, ok := b.SelectedIDs()
	assert.True(t, ok)
	assert.Equal(t, []string{keyA}, ids)
}

func TestBridge_Forwards(t *testing.T) {
	t.Parallel()

	var got []tea.Msg
	b := NewBridge()
	b.Attach(func(msg tea.Msg) { got = append(got, msg) })

	b.RenderKeys([]keys.Record{{ID: keyA}}, nil)
	b.RenderCadence(status.CadenceStatus{Name: console.CadenceRates, Phase: status.PhasePaused})
	b.RenderMode(keys.ModeState{Mode: keys.ModeAll})
	b.Notify("Key added", console.SeveritySuccess, 3*time.Second)
	b.Start("Adding 2 keys", 2)
	b.Update(2, 2, "added 2")
	b.Done()

	require.Len(t, got, 7)
	assert.Equal(t, keysMsg{records: []keys.Record{{ID: keyA}}}, got[0])
	assert.Equal(t, cadenceMsg(status.CadenceStatus{Name: console.CadenceRates, Phase: status.PhasePaused}), got[1])
	assert.Equal(t, modeMsg(keys.ModeState{Mode: keys.ModeAll}), got[2])
	assert.Equal(t, notifyMsg{message: "Key added", severity: console.SeveritySuccess, duration: 3 * time.Second}, got[3])
	assert.Equal(t, progressMsg{title: "Adding 2 keys", total: 2, active: true}, got[4])
	assert.Equal(t, progressMsg{done: 2, total: 2, detail: "added 2", active: true, update: true}, got[5])
	assert.Equal(t, progressMsg{}, got[6])
}

func TestBridge_Confirm(t *testing.T) {
	t.Parallel()

	t.Run("answered", func(t *testing.T) {
		t.Parallel()
		b := NewBridge()
		b.Attach(func(msg tea.Msg) {
			confirm, ok := msg.(confirmMsg)
			require.True(t, ok)
			assert.Equal(t, "Zero balance", confirm.title)
			confirm.reply <- console.ChoiceYes
		})

		choice, err := b.Confirm(context.Background(), "Zero balance", "Add anyway?")
		require.NoError(t, err)
		assert.Equal(t, console.ChoiceYes, choice)
	})

	t.Run("context ends first", func(t *testing.T) {
		t.Parallel()
		b := NewBridge()
		b.Attach(func(tea.Msg) {})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		choice, err := b.Confirm(ctx, "Zero balance", "Add anyway?")
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, console.ChoiceCancel, choice)
	})
}

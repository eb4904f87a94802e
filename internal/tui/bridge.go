package tui

import (
	"context"
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/flowsilicon/keyconsole/internal/console"
	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/remote"
	"github.com/flowsilicon/keyconsole/internal/status"
)

// Bridge forwards controller output into a running bubbletea program. It
// implements console.Surface, console.Notifier, console.Progress and
// console.Confirmer.
type Bridge struct {
	mu       sync.Mutex
	send     func(tea.Msg)
	selected []string
	rendered bool
}

// NewBridge returns a bridge that drops everything until Attach is called
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach sets the function used to deliver messages, normally tea.Program.Send
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *Bridge) deliver(msg tea.Msg) bool {
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send == nil {
		return false
	}
	send(msg)
	return true
}

func (b *Bridge) RenderKeys(records []keys.Record, selected []string) {
	b.mu.Lock()
	b.selected = slices.Clone(selected)
	b.rendered = true
	b.mu.Unlock()

	b.deliver(keysMsg{records: records, selected: selected})
}

func (b *Bridge) RenderCadence(st status.CadenceStatus) {
	b.deliver(cadenceMsg(st))
}

func (b *Bridge) RenderStats(stats *remote.Stats) {
	b.deliver(statsMsg{stats: stats})
}

func (b *Bridge) RenderRates(rates *remote.RateStats) {
	b.deliver(ratesMsg{rates: rates})
}

func (b *Bridge) RenderMode(mode keys.ModeState) {
	b.deliver(modeMsg(mode))
}

// SelectedIDs returns the selection of the last rendered key list
func (b *Bridge) SelectedIDs() ([]string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.selected), b.rendered
}

func (b *Bridge) Notify(message string, severity console.Severity, duration time.Duration) {
	b.deliver(notifyMsg{message: message, severity: severity, duration: duration})
}

func (b *Bridge) Start(title string, total int) {
	b.deliver(progressMsg{title: title, total: total, active: true})
}

func (b *Bridge) Update(done, total int, detail string) {
	b.deliver(progressMsg{done: done, total: total, detail: detail, active: true, update: true})
}

func (b *Bridge) Done() {
	b.deliver(progressMsg{})
}

// Confirm shows a yes/no/cancel dialog and waits for the answer. Without an
// attached program, or when ctx ends first, the answer is ChoiceCancel.
func (b *Bridge) Confirm(ctx context.Context, title, message string) (console.Choice, error) {
	reply := make(chan console.Choice, 1)
	if !b.deliver(confirmMsg{title: title, message: message, reply: reply}) {
		return console.ChoiceCancel, nil
	}

	select {
	case choice := <-reply:
		return choice, nil
	case <-ctx.Done():
		return console.ChoiceCancel, ctx.Err()
	}
}

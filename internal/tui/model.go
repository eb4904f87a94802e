// Package tui is the interactive terminal surface of the key console. It
// renders what the controller reports and turns key presses into controller
// calls, each run as a tea.Cmd so the event loop never waits on the backend.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"k8s.io/utils/clock"

	"github.com/flowsilicon/keyconsole/internal/console"
	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/remote"
	"github.com/flowsilicon/keyconsole/internal/status"
)

const tickInterval = time.Second

// Controller is the part of the console controller driven by the terminal UI
type Controller interface {
	Dispatch(ctx context.Context, intent console.Intent) error
	AddKey(ctx context.Context, id string, balance float64) error
	AddKeys(ctx context.Context, ids []string, balance float64) error
	DeleteZeroBalance(ctx context.Context) (*remote.DeleteResult, error)
	DeleteBelowThreshold(ctx context.Context, threshold float64) (*remote.DeleteResult, error)
	RefreshBalances(ctx context.Context) error
	View() console.View
}

type inputKind int

const (
	inputNone inputKind = iota
	inputKeys
	inputBalance
	inputThreshold
)

type toast struct {
	message  string
	severity console.Severity
	expires  time.Time
}

type progressState struct {
	title  string
	done   int
	total  int
	detail string
}

// Option configures a Model
type Option func(*Model)

// WithClock replaces the wall clock used for toast expiry
func WithClock(clk clock.PassiveClock) Option {
	return func(m *Model) {
		m.clock = clk
	}
}

// Model is the bubbletea model of the console
type Model struct {
	ctx        context.Context
	controller Controller
	clock      clock.PassiveClock
	keys       keyMap

	records  []keys.Record
	selected []string
	cursorID string
	sort     keys.SortState
	mode     *keys.ModeState
	stats    *remote.Stats
	rates    *remote.RateStats
	cadences map[string]status.CadenceStatus

	toasts   []toast
	progress *progressState
	bar      progress.Model
	confirm  *confirmMsg

	input       inputKind
	field       textinput.Model
	pendingKeys []string

	width  int
	height int
}

// New creates the model. ctx bounds every controller call it starts.
func New(ctx context.Context, controller Controller, opts ...Option) *Model {
	field := textinput.New()
	field.CharLimit = 0

	m := &Model{
		ctx:        ctx,
		controller: controller,
		clock:      clock.RealClock{},
		keys:       defaultKeyMap(),
		cadences:   make(map[string]status.CadenceStatus),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		field:      field,
	}
	for _, opt := range opts {
		opt(m)
	}

	view := controller.View()
	m.records = view.Records
	m.selected = view.Selected
	m.sort = view.Sort
	m.mode = view.Mode
	m.stats = view.Stats
	m.rates = view.Rates
	return m
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		m.expireToasts()
		return m, tick()

	case keysMsg:
		m.records = msg.records
		m.selected = msg.selected
		m.keepCursor()
		return m, nil

	case cadenceMsg:
		m.cadences[msg.Name] = status.CadenceStatus(msg)
		return m, nil

	case statsMsg:
		m.stats = msg.stats
		return m, nil

	case ratesMsg:
		m.rates = msg.rates
		return m, nil

	case modeMsg:
		mode := keys.ModeState(msg)
		m.mode = &mode
		return m, nil

	case notifyMsg:
		m.toasts = append(m.toasts, toast{
			message:  msg.message,
			severity: msg.severity,
			expires:  m.clock.Now().Add(msg.duration),
		})
		return m, nil

	case progressMsg:
		m.applyProgress(msg)
		return m, nil

	case confirmMsg:
		if m.confirm != nil {
			// only one question at a time
			msg.reply <- console.ChoiceCancel
			return m, nil
		}
		m.confirm = &msg
		return m, nil

	case resultMsg:
		if msg.err != nil && !errors.Is(msg.err, console.ErrCancelled) {
			slog.Debug("Console action failed", "action", msg.action, "error", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		if m.confirm != nil {
			m.confirm.reply <- console.ChoiceCancel
			m.confirm = nil
		}
		return m, tea.Quit
	}
	if m.confirm != nil {
		return m, m.handleConfirmKey(msg)
	}
	if m.input != inputNone {
		return m, m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Toggle):
		return m, m.dispatchOnCursor(console.IntentToggle)
	case key.Matches(msg, m.keys.Delete):
		return m, m.dispatchOnCursor(console.IntentDelete)
	case key.Matches(msg, m.keys.Enable):
		return m, m.dispatchOnCursor(console.IntentEnable)
	case key.Matches(msg, m.keys.Disable):
		return m, m.dispatchOnCursor(console.IntentDisable)
	case key.Matches(msg, m.keys.Check):
		return m, m.dispatchOnCursor(console.IntentCheck)
	case key.Matches(msg, m.keys.Sort):
		return m, m.sortBy(nextSortField(m.sort.Field))
	case key.Matches(msg, m.keys.Reverse):
		if !m.sort.Active() {
			return m, nil
		}
		return m, m.sortBy(m.sort.Field)
	case key.Matches(msg, m.keys.ModeAll):
		return m, m.dispatch(console.Intent{Kind: console.IntentApplyMode, Mode: keys.ModeAll})
	case key.Matches(msg, m.keys.ModeSingle):
		return m, m.dispatch(console.Intent{Kind: console.IntentApplyMode, Mode: keys.ModeSingle})
	case key.Matches(msg, m.keys.ModeSet):
		return m, m.dispatch(console.Intent{Kind: console.IntentApplyMode, Mode: keys.ModeSelected})
	case key.Matches(msg, m.keys.Refresh):
		return m, m.dispatch(console.Intent{Kind: console.IntentRefresh})
	case key.Matches(msg, m.keys.PruneZero):
		return m, m.run("prune-zero", func(ctx context.Context) error {
			_, err := m.controller.DeleteZeroBalance(ctx)
			return err
		})
	case key.Matches(msg, m.keys.Balances):
		return m, m.run("refresh-balances", m.controller.RefreshBalances)
	case key.Matches(msg, m.keys.Add):
		return m, m.openInput(inputKeys, "keys: ", "paste one or more keys")
	case key.Matches(msg, m.keys.PruneBelow):
		return m, m.openInput(inputThreshold, "delete keys below: ", "0.5")
	}
	return m, nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	var choice console.Choice
	switch msg.String() {
	case "y", "Y":
		choice = console.ChoiceYes
	case "n", "N":
		choice = console.ChoiceNo
	case "esc", "c", "C":
		choice = console.ChoiceCancel
	default:
		return nil
	}
	m.confirm.reply <- choice
	m.confirm = nil
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return nil
	case tea.KeyEnter:
		return m.submitInput()
	}

	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return cmd
}

func (m *Model) openInput(kind inputKind, prompt, placeholder string) tea.Cmd {
	m.input = kind
	m.field.Reset()
	m.field.Prompt = prompt
	m.field.Placeholder = placeholder
	return m.field.Focus()
}

func (m *Model) closeInput() {
	m.input = inputNone
	m.pendingKeys = nil
	m.field.Blur()
	m.field.Reset()
}

func (m *Model) submitInput() tea.Cmd {
	value := strings.TrimSpace(m.field.Value())

	switch m.input {
	case inputKeys:
		ids := keys.ParseKeys(value)
		if len(ids) == 0 {
			m.closeInput()
			m.localToast("No keys entered", console.SeverityWarning)
			return nil
		}
		m.pendingKeys = ids
		return m.openInput(inputBalance, "balance: ", "0")

	case inputBalance:
		balance, err := strconv.ParseFloat(value, 64)
		if err != nil {
			m.localToast("Balance must be a number", console.SeverityWarning)
			return nil
		}
		ids := m.pendingKeys
		m.closeInput()
		if len(ids) == 1 {
			return m.run("add", func(ctx context.Context) error {
				return m.controller.AddKey(ctx, ids[0], balance)
			})
		}
		return m.run("add-batch", func(ctx context.Context) error {
			return m.controller.AddKeys(ctx, ids, balance)
		})

	case inputThreshold:
		threshold, err := strconv.ParseFloat(value, 64)
		if err != nil {
			m.localToast("Threshold must be a number", console.SeverityWarning)
			return nil
		}
		m.closeInput()
		return m.run("prune-below", func(ctx context.Context) error {
			_, err := m.controller.DeleteBelowThreshold(ctx, threshold)
			return err
		})
	}

	m.closeInput()
	return nil
}

// run performs fn off the event loop and reports back with a resultMsg
func (m *Model) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg{action: action, err: fn(ctx)}
	}
}

func (m *Model) dispatch(intent console.Intent) tea.Cmd {
	return m.run(string(intent.Kind), func(ctx context.Context) error {
		return m.controller.Dispatch(ctx, intent)
	})
}

// sortBy mirrors the controller's sort state so the header never has to
// query the controller from the event loop
func (m *Model) sortBy(field keys.SortField) tea.Cmd {
	m.sort = m.sort.By(field)
	return m.dispatch(console.Intent{Kind: console.IntentSortBy, Field: field})
}

func (m *Model) dispatchOnCursor(kind console.IntentKind) tea.Cmd {
	if m.cursorID == "" {
		return nil
	}
	return m.dispatch(console.Intent{Kind: kind, ID: m.cursorID})
}

func (m *Model) cursor() int {
	return slices.IndexFunc(m.records, func(r keys.Record) bool { return r.ID == m.cursorID })
}

func (m *Model) moveCursor(delta int) {
	if len(m.records) == 0 {
		return
	}
	i := max(m.cursor(), 0) + delta
	i = min(max(i, 0), len(m.records)-1)
	m.cursorID = m.records[i].ID
}

// keepCursor follows the same key across re-sorts and falls back to the top
func (m *Model) keepCursor() {
	if len(m.records) == 0 {
		m.cursorID = ""
		return
	}
	if m.cursor() < 0 {
		m.cursorID = m.records[0].ID
	}
}

func (m *Model) applyProgress(msg progressMsg) {
	switch {
	case !msg.active:
		m.progress = nil
	case !msg.update || m.progress == nil:
		m.progress = &progressState{title: msg.title, total: msg.total}
	default:
		m.progress.done = msg.done
		m.progress.total = msg.total
		m.progress.detail = msg.detail
	}
}

func (m *Model) localToast(message string, severity console.Severity) {
	m.toasts = append(m.toasts, toast{
		message:  message,
		severity: severity,
		expires:  m.clock.Now().Add(3 * time.Second),
	})
}

func (m *Model) expireToasts() {
	now := m.clock.Now()
	m.toasts = slices.DeleteFunc(m.toasts, func(t toast) bool {
		return !now.Before(t.expires)
	})
}

func nextSortField(current keys.SortField) keys.SortField {
	i := slices.Index(keys.SortFields, current)
	return keys.SortFields[(i+1)%len(keys.SortFields)]
}

func formatRate(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

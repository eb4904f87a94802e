package tui

import (
	"time"

	"github.com/flowsilicon/keyconsole/internal/console"
	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/remote"
	"github.com/flowsilicon/keyconsole/internal/status"
)

type keysMsg struct {
	records  []keys.Record
	selected []string
}

type cadenceMsg status.CadenceStatus

type statsMsg struct {
	stats *remote.Stats
}

type ratesMsg struct {
	rates *remote.RateStats
}

type modeMsg keys.ModeState

type notifyMsg struct {
	message  string
	severity console.Severity
	duration time.Duration
}

// progressMsg with active false closes the progress bar
type progressMsg struct {
	title  string
	done   int
	total  int
	detail string
	active bool
	update bool
}

type confirmMsg struct {
	title   string
	message string
	reply   chan<- console.Choice
}

// resultMsg reports the end of an action started from a key press
type resultMsg struct {
	action string
	err    error
}

type tickMsg time.Time

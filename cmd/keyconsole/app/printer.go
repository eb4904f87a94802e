package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/flowsilicon/keyconsole/internal/console"
)

var severityPrefix = map[console.Severity]string{
	console.SeverityInfo:    "info:",
	console.SeveritySuccess: "ok:",
	console.SeverityWarning: "warning:",
	console.SeverityError:   "error:",
}

// printer writes notifications and batch progress as plain lines
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) Notify(message string, severity console.Severity, _ time.Duration) {
	p.printf("%s %s\n", severityPrefix[severity], message)
}

func (p *printer) Start(title string, _ int) {
	p.printf("%s\n", title)
}

func (p *printer) Update(done, total int, detail string) {
	if detail == "" {
		p.printf("[%d/%d]\n", done, total)
		return
	}
	p.printf("[%d/%d] %s\n", done, total, detail)
}

func (*printer) Done() {}

// promptConfirmer asks on the terminal. Anything other than yes or no cancels.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *promptConfirmer) Confirm(ctx context.Context, title, message string) (console.Choice, error) {
	if err := ctx.Err(); err != nil {
		return console.ChoiceCancel, err
	}
	if _, err := fmt.Fprintf(p.out, "%s: %s [y/n/c] ", title, message); err != nil {
		return console.ChoiceCancel, fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return console.ChoiceCancel, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return console.ChoiceYes, nil
	case "n", "no":
		return console.ChoiceNo, nil
	default:
		return console.ChoiceCancel, nil
	}
}

// fixedConfirmer answers every question the same way, for --yes and --no
type fixedConfirmer console.Choice

func (f fixedConfirmer) Confirm(context.Context, string, string) (console.Choice, error) {
	return console.Choice(f), nil
}

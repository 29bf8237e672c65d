package widget

import (
	"fmt"
	"io"
	"sync"
)

// TerminalDisplay writes widget states as plain text lines.
type TerminalDisplay struct {
	out     io.Writer
	loading bool
	mu      sync.Mutex
}

func NewTerminalDisplay(out io.Writer) *TerminalDisplay {
	return &TerminalDisplay{out: out}
}

func (d *TerminalDisplay) SetLoading(loading bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if loading && !d.loading {
		fmt.Fprintln(d.out, "⏳ Loading recommendations...")
	}
	d.loading = loading
}

func (d *TerminalDisplay) Clear() {}

func (d *TerminalDisplay) Render(v View) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.out, v.Text)
}

func (d *TerminalDisplay) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

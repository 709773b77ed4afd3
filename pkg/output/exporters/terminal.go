package exporters

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/ajitpratap0/penguin/pkg/errors"
	"github.com/ajitpratap0/penguin/pkg/json"
	"github.com/ajitpratap0/penguin/pkg/output"
)

// Terminal writes each payload on its own line.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal writes to w, or stdout when w is nil.
func NewTerminal(w io.Writer) *Terminal {
	if w == nil {
		w = os.Stdout
	}
	return &Terminal{w: w}
}

// Name implements output.Exporter.
func (t *Terminal) Name() string { return NameTerminal }

// Export implements output.Exporter.
func (t *Terminal) Export(_ context.Context, _ *output.PremiseOutput, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	buf := json.GetBuffer()
	defer json.PutBuffer(buf)
	buf.Write(payload)
	if len(payload) == 0 || payload[len(payload)-1] != '\n' {
		buf.WriteByte('\n')
	}
	if _, err := t.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, errors.ErrorTypeExport, "failed to write to terminal")
	}
	return nil
}

// Package console renders notifications to a terminal for local runs.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
)

var divider = strings.Repeat("=", 40)

// Notifier prints formatted messages instead of posting them anywhere.
type Notifier struct {
	out io.Writer
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier writes to out, defaulting to stdout.
func NewNotifier(out io.Writer) *Notifier {
	if out == nil {
		out = os.Stdout
	}
	return &Notifier{out: out}
}

// Send prints the message between dividers.
func (n *Notifier) Send(ctx context.Context, message string) error {
	if _, err := fmt.Fprintf(n.out, "\n%s\n%s\n%s\n\n", divider, message, divider); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

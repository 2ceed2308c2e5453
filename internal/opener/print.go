package opener

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/chazuruo/tabflow/internal/runner"
)

// Print writes the URLs it would open to a writer. It is the dry-run opener.
type Print struct {
	mu sync.Mutex
	w  io.Writer
	n  int
}

// NewPrint returns a Print opener writing to w.
func NewPrint(w io.Writer) *Print {
	return &Print{w: w}
}

// Open writes "open <tab> <url>".
func (p *Print) Open(ctx context.Context, url string) (runner.TabID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.n++
	id := runner.TabID("tab-" + strconv.Itoa(p.n))
	if _, err := fmt.Fprintf(p.w, "open %s %s\n", id, url); err != nil {
		return "", err
	}
	return id, nil
}

// Focus writes "focus <tab>".
func (p *Print) Focus(_ context.Context, tab runner.TabID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.w, "focus %s\n", tab)
	return err
}

// Close is a no-op.
func (p *Print) Close() error { return nil }

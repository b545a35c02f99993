package snapshot

import (
	"context"
	"sync"
	"time"

	"BakeryStore/internal/repo/memory"
	"BakeryStore/pkg/logger"
)

type Saver interface {
	Save(ctx context.Context, st memory.State) error
}

// Writer saves the newest committed state in the background.
// Commits that arrive while a save is running collapse into one follow-up save.
type Writer struct {
	saver   Saver
	l       *logger.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending *memory.State
	signal  chan struct{}
}

func NewWriter(saver Saver, l *logger.Logger, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Writer{
		saver:   saver,
		l:       l,
		timeout: timeout,
		signal:  make(chan struct{}, 1),
	}
}

// Hook is registered with memory.Store.OnCommit.
func (w *Writer) Hook(st memory.State) {
	w.mu.Lock()
	w.pending = &st
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// Run saves pending states until ctx is done, then flushes the last one.
func (w *Writer) Run(ctx context.Context) error {
	w.l.Info("Snapshot writer started")
	for {
		select {
		case <-ctx.Done():
			w.flush(context.Background())
			w.l.Info("Snapshot writer stopped")
			return nil
		case <-w.signal:
			w.flush(ctx)
		}
	}
}

func (w *Writer) flush(ctx context.Context) {
	w.mu.Lock()
	st := w.pending
	w.pending = nil
	w.mu.Unlock()
	if st == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.saver.Save(ctx, *st); err != nil {
		w.l.Error("Snapshot save failed: %v", err)
		return
	}
	w.l.Debug("Snapshot saved: orders=%d products=%d events=%d", len(st.Orders), len(st.Products), len(st.Events))
}

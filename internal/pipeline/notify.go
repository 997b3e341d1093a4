package pipeline

import (
	"fmt"

	evbus "github.com/asaskevich/EventBus"
)

const topicProgress = "batch:progress"

// Progress is published synchronously before each file starts.
type Progress struct {
	CurrentFile     string  `json:"currentFile"`
	CurrentIndex    int     `json:"currentIndex"` // 0-based.
	TotalFiles      int     `json:"totalFiles"`
	ProgressPercent float64 `json:"progressPercent"` // CurrentIndex / TotalFiles * 100.
}

// ProgressFunc observes batch progress. A returned error or a panic is
// logged and never aborts the batch.
type ProgressFunc func(Progress) error

// Notifier fans progress events out to observers over an event bus. Each
// observer is isolated: one that panics or fails does not stop the others.
type Notifier struct {
	bus evbus.Bus
	log Logger
}

// NewNotifier returns a notifier with no observers.
func NewNotifier(log Logger) *Notifier {
	return &Notifier{bus: evbus.New(), log: log}
}

// Subscribe registers fn. Observers run in subscription order.
func (n *Notifier) Subscribe(fn ProgressFunc) error {
	return n.bus.Subscribe(topicProgress, n.guard(fn))
}

// Notify delivers p to every observer and returns once they have all run.
func (n *Notifier) Notify(p Progress) {
	if !n.bus.HasCallback(topicProgress) {
		return
	}
	n.bus.Publish(topicProgress, p)
}

func (n *Notifier) guard(fn ProgressFunc) func(Progress) {
	return func(p Progress) {
		defer func() {
			if r := recover(); r != nil {
				n.log.Warn("Progress observer panicked on %s: %v", p.CurrentFile, r)
			}
		}()
		if err := fn(p); err != nil {
			n.log.Warn("Progress observer failed on %s: %v", p.CurrentFile, err)
		}
	}
}

func newProgress(path string, index, total int) Progress {
	pct := 0.0
	if total > 0 {
		pct = float64(index) / float64(total) * 100
	}
	return Progress{CurrentFile: path, CurrentIndex: index, TotalFiles: total, ProgressPercent: pct}
}

// String renders p the way the CLI logs it.
func (p Progress) String() string {
	return fmt.Sprintf("[%d/%d] %.0f%% %s", p.CurrentIndex+1, p.TotalFiles, p.ProgressPercent, p.CurrentFile)
}

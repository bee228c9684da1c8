package benchmarks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// ProgressPrinter keeps one status line per task and redraws them in
// place at a fixed frequency
type ProgressPrinter struct {
	lock   *sync.Mutex
	tasks  []string
	status map[string]string

	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
	done      chan struct{}
	frequency time.Duration

	writer *uilive.Writer
}

func NewProgressPrinter(ctx context.Context, frequency time.Duration) *ProgressPrinter {
	printerCtx, cancel := context.WithCancel(ctx)
	return &ProgressPrinter{
		lock:      new(sync.Mutex),
		tasks:     make([]string, 0),
		status:    make(map[string]string),
		ctx:       printerCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
		frequency: frequency,
		writer:    uilive.New(),
	}
}

// Update sets the status of the task. Safe for concurrent use
func (p *ProgressPrinter) Update(task, status string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if _, ok := p.status[task]; !ok {
		p.tasks = append(p.tasks, task)
	}
	p.status[task] = status
}

func (p *ProgressPrinter) Start() {
	p.lock.Lock()
	if p.started {
		p.lock.Unlock()
		return
	}
	p.started = true
	p.lock.Unlock()
	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.ctx.Done():
				p.print()
				return
			case <-time.After(p.frequency):
				p.print()
			}
		}
	}()
}

// Stop prints the final statuses and waits for the printer to exit.
// Without a prior Start it only releases the context
func (p *ProgressPrinter) Stop() {
	p.cancel()
	p.lock.Lock()
	started := p.started
	p.lock.Unlock()
	if started {
		<-p.done
	}
}

func (p *ProgressPrinter) print() {
	p.lock.Lock()
	longest := 0
	for _, t := range p.tasks {
		if len(t) > longest {
			longest = len(t)
		}
	}
	var b strings.Builder
	for _, t := range p.tasks {
		fmt.Fprintf(&b, "%-*s : %s\n", longest, t, p.status[t])
	}
	p.lock.Unlock()

	if b.Len() == 0 {
		return
	}
	fmt.Fprint(p.writer, b.String())
	p.writer.Flush()
}

// Package scheduler runs one periodic sampling task per data page.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"

	"github.com/chess10kp/pagegrid/internal/metrics"
	"github.com/chess10kp/pagegrid/internal/pages"
)

const DefaultInterval = 2 * time.Second

// Notifier receives a page's complete field set after every sample.
// Implementations must not stop the same page's task from inside the call.
type Notifier interface {
	PageValuesChanged(id pages.ID, values map[string]int)
}

type Options struct {
	Clock    clockwork.Clock
	Interval time.Duration
	Sampler  Sampler
	Notifier Notifier
}

// Scheduler starts and stops per-page tasks. It implements pages.TaskStarter.
type Scheduler struct {
	clock    clockwork.Clock
	interval time.Duration
	sampler  Sampler

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	notifier Notifier
	tasks    map[pages.ID]*Task
	stopped  bool
}

func New(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Sampler == nil {
		opts.Sampler = NewRandomSampler(1, 10, time.Now().UnixNano())
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clock:    opts.Clock,
		interval: opts.Interval,
		sampler:  opts.Sampler,
		notifier: opts.Notifier,
		ctx:      ctx,
		cancel:   cancel,
		tasks:    make(map[pages.ID]*Task),
	}
}

// SetNotifier replaces the receiver of value updates.
func (s *Scheduler) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifier = n
}

func (s *Scheduler) currentNotifier() Notifier {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.notifier
}

// StartTask begins sampling p every interval.
func (s *Scheduler) StartTask(p *pages.Page) pages.Task {
	ctx, cancel := context.WithCancel(s.ctx)
	t := &Task{
		owner:   s,
		page:    p,
		cancel:  cancel,
		mailbox: make(chan map[string]int, 1),
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		cancel()
		return t
	}
	s.tasks[p.ID()] = t
	s.mu.Unlock()

	t.wg.Add(2)
	go t.sampleLoop(ctx)
	go t.deliverLoop(ctx)

	log.Debug("Scheduled page task", "id", p.ID(), "interval", s.interval)
	return t
}

// Stop stops every task and waits for them. Later StartTask calls return
// inert tasks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	tasks := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	s.cancel()
	for _, t := range tasks {
		t.Stop()
	}

	log.Info("Update scheduler stopped", "tasks", len(tasks))
}

// IsScheduled reports whether id has a running task.
func (s *Scheduler) IsScheduled(id pages.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tasks[id]
	return ok
}

// Len returns the number of running tasks.
func (s *Scheduler) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks)
}

func (s *Scheduler) forget(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.tasks[t.page.ID()]; ok && cur == t {
		delete(s.tasks, t.page.ID())
	}
}

// Task is one page's sampling job. The sample loop writes values and posts
// them to a one-slot mailbox; the deliver loop hands the newest values to
// the notifier, so a slow notifier never delays sampling.
type Task struct {
	owner   *Scheduler
	page    *pages.Page
	cancel  context.CancelFunc
	mailbox chan map[string]int
	wg      sync.WaitGroup
	once    sync.Once
}

// Stop cancels the task and returns once neither loop can fire again.
func (t *Task) Stop() {
	t.once.Do(func() {
		t.cancel()
		t.wg.Wait()
		t.owner.forget(t)
		log.Debug("Unscheduled page task", "id", t.page.ID())
	})
}

func (t *Task) sampleLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := t.owner.clock.NewTicker(t.owner.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if values, ok := t.sampleOnce(); ok {
				t.post(values)
			}
		}
	}
}

func (t *Task) sampleOnce() (values map[string]int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic while sampling, skipping cycle", "id", t.page.ID(), "panic", r)
			ok = false
		}
	}()

	values = t.page.Sample(t.owner.sampler.Sample)
	metrics.SamplesTotal.Inc()
	return values, true
}

// post replaces any undelivered values with the newest ones.
func (t *Task) post(values map[string]int) {
	select {
	case t.mailbox <- values:
		return
	default:
	}
	select {
	case <-t.mailbox:
	default:
	}
	select {
	case t.mailbox <- values:
	default:
	}
}

func (t *Task) deliverLoop(ctx context.Context) {
	defer t.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case values := <-t.mailbox:
			if ctx.Err() != nil {
				return
			}
			t.deliver(values)
		}
	}
}

func (t *Task) deliver(values map[string]int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic in value notifier", "id", t.page.ID(), "panic", r)
		}
	}()

	if n := t.owner.currentNotifier(); n != nil {
		n.PageValuesChanged(t.page.ID(), values)
	}
}

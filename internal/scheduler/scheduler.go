package scheduler

import (
	"log"
	"sync"
	"time"
)

type Task struct {
	Name    string
	Execute func() error
}

// Scheduler runs tasks one at a time on a single worker goroutine. Tasks
// submitted directly run in order; debounced tasks run after their delay
// unless a newer task with the same key replaces them first.
type Scheduler struct {
	taskQueue       chan Task
	lowPriorityLock sync.Mutex
	stopChan        chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*Handle
}

// Handle is a pending debounced task.
type Handle struct {
	s     *Scheduler
	key   string
	task  Task
	timer *time.Timer
}

// NewScheduler creates a new Scheduler with the specified queue size
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		stopChan:  make(chan struct{}),
		pending:   make(map[string]*Handle),
	}
}

// RunScheduler starts the worker loop
func (s *Scheduler) RunScheduler() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case task := <-s.taskQueue:
				s.execute(task)
			case <-s.stopChan:
				// Stop signal received, drain what is already queued and exit
				for {
					select {
					case task := <-s.taskQueue:
						log.Printf("Draining task: %s\n", task.Name)
						s.execute(task)
					default:
						return
					}
				}
			}
		}
	}()
}

func (s *Scheduler) execute(task Task) {
	if err := task.Execute(); err != nil {
		log.Printf("Task %s failed: %v", task.Name, err)
	}
}

// ScheduleHighPriorityTask queues a task to run asap. It blocks while the
// queue is full and drops the task once the scheduler is stopped.
func (s *Scheduler) ScheduleHighPriorityTask(task Task) {
	select {
	case <-s.stopChan:
		log.Printf("Scheduler stopped, dropping %s.", task.Name)
		return
	default:
	}
	select {
	case s.taskQueue <- task:
	case <-s.stopChan:
		log.Printf("Scheduler stopped, dropping %s.", task.Name)
	}
}

// trySchedule queues a task without blocking.
func (s *Scheduler) trySchedule(task Task) bool {
	select {
	case <-s.stopChan:
		return false
	default:
	}
	select {
	case s.taskQueue <- task:
		return true
	default:
		log.Printf("Skipped scheduling %s. Queue is full.", task.Name)
		return false
	}
}

// Debounce queues task after delay. A pending task with the same key is
// cancelled and replaced, so bursts of calls collapse into the last one.
// It never blocks and is safe to call from a running task.
func (s *Scheduler) Debounce(key string, delay time.Duration, task Task) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.pending[key]; ok {
		old.timer.Stop()
	}

	h := &Handle{s: s, key: key, task: task}
	h.timer = time.AfterFunc(delay, h.fire)
	s.pending[key] = h
	return h
}

func (h *Handle) fire() {
	s := h.s
	s.mu.Lock()
	current := s.pending[h.key] == h
	if current {
		delete(s.pending, h.key)
	}
	s.mu.Unlock()

	if current {
		s.trySchedule(h.task)
	}
}

// Cancel stops the task if it has not been queued yet. It reports whether
// the task was still pending.
func (h *Handle) Cancel() bool {
	s := h.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending[h.key] != h {
		return false
	}
	h.timer.Stop()
	delete(s.pending, h.key)
	return true
}

// Reschedule restarts the delay of a task, queueing it again if it already
// ran or was cancelled. Any other task pending under the same key is
// replaced.
func (h *Handle) Reschedule(delay time.Duration) *Handle {
	return h.s.Debounce(h.key, delay, h.task)
}

// Pending reports whether a debounced task is waiting under key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// SchedulePeriodicTask runs a low-priority task on startup and then at every
// interval, skipping a round when the queue is full.
func (s *Scheduler) SchedulePeriodicTask(interval time.Duration, lowTask Task) {
	ticker := time.NewTicker(interval)

	// Run the task on startup in a non-blocking manner
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.lowPriorityLock.Lock()
		defer s.lowPriorityLock.Unlock()
		s.execute(lowTask)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.lowPriorityLock.Lock()
				if s.trySchedule(lowTask) {
					log.Printf("Scheduled %s.", lowTask.Name)
				}
				s.lowPriorityLock.Unlock()
			case <-s.stopChan:
				// Stop scheduling periodic tasks
				return
			}
		}
	}()
}

// StopScheduler cancels pending debounced tasks, runs what is queued and
// waits for the worker to exit. It is safe to call more than once.
func (s *Scheduler) StopScheduler() {
	s.stopOnce.Do(func() {
		log.Println("Stopping scheduler.")

		s.mu.Lock()
		for key, h := range s.pending {
			h.timer.Stop()
			delete(s.pending, key)
		}
		s.mu.Unlock()

		close(s.stopChan)
		s.wg.Wait()
		log.Println("Scheduler stopped.")
	})
}

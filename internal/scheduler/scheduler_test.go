package scheduler_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"umath/internal/scheduler"
)

func recordTask(name string, mu *sync.Mutex, ran *[]string, done chan<- struct{}) scheduler.Task {
	return scheduler.Task{
		Name: name,
		Execute: func() error {
			mu.Lock()
			*ran = append(*ran, name)
			mu.Unlock()
			if done != nil {
				done <- struct{}{}
			}
			return nil
		},
	}
}

func waitFor(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestHighPriorityTasksRunInOrder(t *testing.T) {
	s := scheduler.NewScheduler(10)
	s.RunScheduler()

	var mu sync.Mutex
	var ran []string
	done := make(chan struct{}, 3)
	for _, name := range []string{"a", "b", "c"} {
		s.ScheduleHighPriorityTask(recordTask(name, &mu, &ran, done))
	}
	for i := 0; i < 3; i++ {
		waitFor(t, done)
	}
	s.StopScheduler()

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 3 || ran[0] != "a" || ran[1] != "b" || ran[2] != "c" {
		t.Errorf("ran = %v, want [a b c]", ran)
	}
}

func TestDebounceCollapsesBursts(t *testing.T) {
	s := scheduler.NewScheduler(10)
	s.RunScheduler()
	defer s.StopScheduler()

	var mu sync.Mutex
	var ran []string
	done := make(chan struct{}, 5)
	for _, name := range []string{"1", "2", "3", "4", "5"} {
		s.Debounce("preview", 30*time.Millisecond, recordTask(name, &mu, &ran, done))
	}
	waitFor(t, done)
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != "5" {
		t.Errorf("ran = %v, want only the last task", ran)
	}
}

func TestDebounceKeysAreIndependent(t *testing.T) {
	s := scheduler.NewScheduler(10)
	s.RunScheduler()
	defer s.StopScheduler()

	var mu sync.Mutex
	var ran []string
	done := make(chan struct{}, 2)
	s.Debounce("preview", 10*time.Millisecond, recordTask("preview", &mu, &ran, done))
	s.Debounce("relocate", 10*time.Millisecond, recordTask("relocate", &mu, &ran, done))
	waitFor(t, done)
	waitFor(t, done)

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 2 {
		t.Errorf("ran = %v, want both keys", ran)
	}
}

func TestCancel(t *testing.T) {
	s := scheduler.NewScheduler(10)
	s.RunScheduler()
	defer s.StopScheduler()

	var runs atomic.Int32
	h := s.Debounce("preview", 20*time.Millisecond, scheduler.Task{
		Name:    "preview",
		Execute: func() error { runs.Add(1); return nil },
	})
	if !s.Pending("preview") {
		t.Fatal("task should be pending")
	}
	if !h.Cancel() {
		t.Fatal("Cancel() = false for a pending task")
	}
	if h.Cancel() {
		t.Error("second Cancel() = true")
	}
	if s.Pending("preview") {
		t.Error("task still pending after Cancel()")
	}

	time.Sleep(60 * time.Millisecond)
	if n := runs.Load(); n != 0 {
		t.Errorf("cancelled task ran %d times", n)
	}
}

func TestReplacedHandleCannotCancelNewer(t *testing.T) {
	s := scheduler.NewScheduler(10)
	s.RunScheduler()
	defer s.StopScheduler()

	done := make(chan struct{}, 1)
	old := s.Debounce("preview", time.Hour, scheduler.Task{Name: "old", Execute: func() error { return nil }})
	s.Debounce("preview", 10*time.Millisecond, scheduler.Task{
		Name:    "new",
		Execute: func() error { done <- struct{}{}; return nil },
	})
	if old.Cancel() {
		t.Error("replaced handle cancelled the newer task")
	}
	waitFor(t, done)
}

func TestReschedule(t *testing.T) {
	s := scheduler.NewScheduler(10)
	s.RunScheduler()
	defer s.StopScheduler()

	done := make(chan struct{}, 2)
	h := s.Debounce("retry", time.Millisecond, scheduler.Task{
		Name:    "retry",
		Execute: func() error { done <- struct{}{}; return nil },
	})
	waitFor(t, done)

	h.Reschedule(time.Millisecond)
	waitFor(t, done)
}

func TestDebounceFromRunningTask(t *testing.T) {
	s := scheduler.NewScheduler(1)
	s.RunScheduler()
	defer s.StopScheduler()

	done := make(chan struct{}, 1)
	second := scheduler.Task{Name: "second", Execute: func() error { done <- struct{}{}; return nil }}
	s.ScheduleHighPriorityTask(scheduler.Task{
		Name: "first",
		Execute: func() error {
			s.Debounce("preview", 0, second)
			return errors.New("render failed")
		},
	})
	waitFor(t, done)
}

func TestPeriodicTask(t *testing.T) {
	s := scheduler.NewScheduler(10)
	s.RunScheduler()

	var runs atomic.Int32
	s.SchedulePeriodicTask(10*time.Millisecond, scheduler.Task{
		Name:    "prune",
		Execute: func() error { runs.Add(1); return nil },
	})
	time.Sleep(100 * time.Millisecond)
	s.StopScheduler()

	if n := runs.Load(); n < 2 {
		t.Errorf("periodic task ran %d times, want at least 2", n)
	}
}

func TestStopDropsLateTasks(t *testing.T) {
	s := scheduler.NewScheduler(10)
	s.RunScheduler()
	s.StopScheduler()
	s.StopScheduler()

	var runs atomic.Int32
	s.ScheduleHighPriorityTask(scheduler.Task{Name: "late", Execute: func() error { runs.Add(1); return nil }})
	s.Debounce("preview", 0, scheduler.Task{Name: "late", Execute: func() error { runs.Add(1); return nil }})
	time.Sleep(20 * time.Millisecond)
	if n := runs.Load(); n != 0 {
		t.Errorf("tasks ran after stop: %d", n)
	}
}

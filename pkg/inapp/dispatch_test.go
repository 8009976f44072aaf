package inapp_test

import (
	"sync"
	"testing"

	"github.com/mihaimyh/goinapp/pkg/inapp"
)

func TestDispatcher_RunsTasksInOrder(t *testing.T) {
	d := inapp.NewDispatcher()
	defer d.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		d.Dispatch(func() { got = append(got, i) })
	}
	d.Sync()

	if len(got) != 100 {
		t.Fatalf("expected 100 tasks to run, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task order broken at index %d: got %d", i, v)
		}
	}
}

func TestDispatcher_DispatchFromTask(t *testing.T) {
	d := inapp.NewDispatcher()
	defer d.Close()

	ran := false
	d.Dispatch(func() {
		d.Dispatch(func() { ran = true })
	})
	d.Sync()
	d.Sync()

	if !ran {
		t.Fatal("nested dispatch did not run")
	}
}

func TestDispatcher_SerializesConcurrentDispatchers(t *testing.T) {
	d := inapp.NewDispatcher()
	defer d.Close()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.Dispatch(func() { counter++ })
			}
		}()
	}
	wg.Wait()
	d.Sync()

	if counter != 1000 {
		t.Fatalf("expected 1000 increments, got %d", counter)
	}
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	d := inapp.NewDispatcher()

	ran := 0
	for i := 0; i < 50; i++ {
		d.Dispatch(func() { ran++ })
	}
	d.Close()

	if ran != 50 {
		t.Fatalf("expected queued tasks to drain on close, ran %d of 50", ran)
	}
}

func TestDispatcher_DispatchAfterCloseIsDropped(t *testing.T) {
	d := inapp.NewDispatcher()
	d.Close()

	d.Dispatch(func() { t.Error("task ran after close") })
	d.Sync()
}

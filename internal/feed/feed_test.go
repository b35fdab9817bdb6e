package feed

import (
	"sync"
	"testing"
)

func TestPublishInvokesSubscribersInOrder(t *testing.T) {
	f := New[int]()
	var got []int
	f.Subscribe(func(e int) { got = append(got, e*10) })
	f.Subscribe(func(e int) { got = append(got, e*100) })

	f.Publish(1)
	f.Publish(2)

	want := []int{10, 100, 20, 200}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPublishAbsorbsPanickingSubscriber(t *testing.T) {
	f := New[string]()
	var secondRan bool
	f.Subscribe(func(string) { panic("boom") })
	f.Subscribe(func(string) { secondRan = true })

	f.Publish("event")

	if !secondRan {
		t.Fatal("expected second subscriber to run despite the first panicking")
	}
}

func TestConcurrentPublishIsSerialized(t *testing.T) {
	f := New[int]()
	var mu sync.Mutex
	count := 0
	f.Subscribe(func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			f.Publish(v)
		}(i)
	}
	wg.Wait()

	if count != 50 {
		t.Fatalf("count = %d, want 50", count)
	}
}

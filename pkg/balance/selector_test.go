package balance

import (
	"errors"
	"sync"
	"testing"

	"relayhq/courier/pkg/vhost"
)

func testHost(backends ...string) *vhost.VirtualHost {
	return &vhost.VirtualHost{
		Hostname: "app.test",
		Backends: backends,
		Policy:   vhost.PolicyRoundRobin,
	}
}

func TestSelector_SequentialRotation(t *testing.T) {
	s := NewSelector()
	vh := testHost("A", "B", "C")

	want := []string{"A", "B", "C", "A", "B", "C", "A"}
	for i, expected := range want {
		got, err := s.Next(vh)
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		if got != expected {
			t.Errorf("selection %d = %q, want %q", i, got, expected)
		}
	}
}

func TestSelector_SingleBackend(t *testing.T) {
	s := NewSelector()
	vh := testHost("only:80")

	for i := 0; i < 5; i++ {
		got, err := s.Next(vh)
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		if got != "only:80" {
			t.Errorf("selection %d = %q, want only:80", i, got)
		}
	}
}

func TestSelector_NoBackends(t *testing.T) {
	s := NewSelector()
	vh := testHost()

	if _, err := s.Next(vh); !errors.Is(err, ErrNoBackends) {
		t.Errorf("Next() error = %v, want ErrNoBackends", err)
	}
}

func TestSelector_IndependentCursors(t *testing.T) {
	s := NewSelector()
	a := &vhost.VirtualHost{Hostname: "a.test", Backends: []string{"A1", "A2"}}
	b := &vhost.VirtualHost{Hostname: "b.test", Backends: []string{"B1", "B2"}}

	got1, _ := s.Next(a)
	got2, _ := s.Next(b)
	got3, _ := s.Next(a)

	if got1 != "A1" || got2 != "B1" || got3 != "A2" {
		t.Errorf("got %q %q %q, cursors must be independent per host", got1, got2, got3)
	}
}

func TestSelector_ConcurrentFairness(t *testing.T) {
	s := NewSelector()
	vh := testHost("A", "B", "C")

	const (
		workers       = 30
		perWorker     = 30
		total         = workers * perWorker
		perBackend    = total / 3
	)

	var mu sync.Mutex
	counts := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				backend, err := s.Next(vh)
				if err != nil {
					t.Errorf("Next() error: %v", err)
					return
				}
				mu.Lock()
				counts[backend]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sum := 0
	for _, backend := range []string{"A", "B", "C"} {
		n := counts[backend]
		sum += n
		if n < perBackend-1 || n > perBackend+1 {
			t.Errorf("backend %s picked %d times, want within 1 of %d", backend, n, perBackend)
		}
	}
	if sum != total {
		t.Errorf("total selections = %d, want %d", sum, total)
	}
}

func TestSelector_SkipsDownBackends(t *testing.T) {
	s := NewSelector()
	vh := testHost("A", "B", "C")

	s.MarkDown("app.test", "B")

	want := []string{"A", "C", "A", "B"} // B returns after MarkUp
	got := make([]string, 0, len(want))
	for i := 0; i < 2; i++ {
		backend, err := s.Next(vh)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, backend)
	}
	s.MarkUp("app.test", "B")
	for i := 0; i < 2; i++ {
		backend, err := s.Next(vh)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, backend)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("selection %d = %q, want %q (sequence %v)", i, got[i], want[i], got)
		}
	}
}

func TestSelector_AllDownFallsBackToRotation(t *testing.T) {
	s := NewSelector()
	vh := testHost("A", "B")

	s.MarkDown("app.test", "A")
	s.MarkDown("app.test", "B")

	first, err := s.Next(vh)
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	second, err := s.Next(vh)
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if first == second {
		t.Errorf("fallback rotation stalled: got %q twice", first)
	}
}

func TestSelector_Reset(t *testing.T) {
	s := NewSelector()
	vh := testHost("A", "B")

	s.Next(vh)
	s.Reset()

	if got, _ := s.Next(vh); got != "A" {
		t.Errorf("Next() after Reset = %q, want A", got)
	}
}

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"MarketBrief/internal/session"
)

type fakeKeys struct {
	mu     sync.Mutex
	period string
}

func (f *fakeKeys) CurrentKey(category string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return category + "_" + f.period
}

func (f *fakeKeys) set(p string) {
	f.mu.Lock()
	f.period = p
	f.mu.Unlock()
}

func counting(calls *int32, v string) FetchFunc[string] {
	return func(context.Context) (string, error) {
		atomic.AddInt32(calls, 1)
		return v, nil
	}
}

func TestGetOrFetch_FetchesOncePerKey(t *testing.T) {
	keys := &fakeKeys{period: "2025-11-19_Asia"}
	s := NewStore(keys, nil)
	var calls int32

	for i := 0; i < 5; i++ {
		v, err := GetOrFetch[string](context.Background(), s, "market_data", counting(&calls, "payload"))
		if err != nil {
			t.Fatal(err)
		}
		if v != "payload" {
			t.Errorf("unexpected value %q", v)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}
	st := s.Stats()
	if st.Hits != 4 || st.Fetches != 1 || st.Entries != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestGetOrFetch_KeyChangeRefetchesAndPrunes(t *testing.T) {
	keys := &fakeKeys{period: "2025-11-19_Asia"}
	s := NewStore(keys, nil)
	var calls int32
	ctx := context.Background()

	if _, err := GetOrFetch[string](ctx, s, "news", counting(&calls, "a")); err != nil {
		t.Fatal(err)
	}
	keys.set("2025-11-19_Europe")
	v, err := GetOrFetch[string](ctx, s, "news", counting(&calls, "b"))
	if err != nil {
		t.Fatal(err)
	}
	if v != "b" || calls != 2 {
		t.Errorf("expected refetch after key change, got %q after %d calls", v, calls)
	}
	if got := s.Keys(); len(got) != 1 || got[0] != "news_2025-11-19_Europe" {
		t.Errorf("stale key not pruned: %v", got)
	}
}

func TestGetOrFetch_LateFetchDoesNotEvictNewSession(t *testing.T) {
	keys := &fakeKeys{period: "2025-11-19_Asia"}
	s := NewStore(keys, nil)
	ctx := context.Background()
	var calls int32
	release := make(chan struct{})

	slow := FetchFunc[string](func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "asia", nil
	})
	done := make(chan string)
	go func() {
		v, _ := GetOrFetch[string](ctx, s, "news", slow)
		done <- v
	}()
	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	keys.set("2025-11-19_Europe")
	if v, err := GetOrFetch[string](ctx, s, "news", counting(&calls, "europe")); err != nil || v != "europe" {
		t.Fatalf("europe fetch: got %q, %v", v, err)
	}
	close(release)
	if v := <-done; v != "asia" {
		t.Errorf("late caller should still get its own result, got %q", v)
	}

	v, err := GetOrFetch[string](ctx, s, "news", counting(&calls, "europe-again"))
	if err != nil || v != "europe" {
		t.Errorf("expected cached europe value, got %q, %v", v, err)
	}
	if calls != 2 {
		t.Errorf("expected 2 fetches, got %d", calls)
	}
	if got := s.Keys(); len(got) != 1 || got[0] != "news_2025-11-19_Europe" {
		t.Errorf("unexpected keys %v", got)
	}
}

func TestGetOrFetch_CanceledCallerDoesNotFailOthers(t *testing.T) {
	s := NewStore(&fakeKeys{period: "p"}, nil)
	var calls int32
	release := make(chan struct{})

	slow := FetchFunc[string](func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-release:
			return "ok", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error)
	go func() {
		_, err := GetOrFetch[string](first, s, "calendar", slow)
		firstErr <- err
	}()
	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	second := make(chan string)
	go func() {
		v, _ := GetOrFetch[string](context.Background(), s, "calendar", slow)
		second <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("canceled caller: expected context.Canceled, got %v", err)
	}
	close(release)
	if v := <-second; v != "ok" {
		t.Errorf("waiting caller: expected ok, got %q", v)
	}
	if calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}
	if got := s.Keys(); len(got) != 1 {
		t.Errorf("expected stored result, got %v", got)
	}
}

func TestGetOrFetch_NamesAreIndependent(t *testing.T) {
	s := NewStore(&fakeKeys{period: "p"}, nil)
	ctx := context.Background()
	var calls int32

	a, _ := GetOrFetch[string](ctx, s, "news", counting(&calls, "n"))
	b, _ := GetOrFetch[string](ctx, s, "calendar", counting(&calls, "c"))
	if a != "n" || b != "c" || calls != 2 {
		t.Errorf("got %q %q after %d calls", a, b, calls)
	}
}

func TestGetOrFetch_FailureNotStored(t *testing.T) {
	s := NewStore(&fakeKeys{period: "p"}, nil)
	ctx := context.Background()
	boom := errors.New("upstream down")
	var calls int32

	failing := FetchFunc[string](func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", boom
	})
	if _, err := GetOrFetch[string](ctx, s, "news", failing); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Fatal("failed fetch must not be stored")
	}
	v, err := GetOrFetch[string](ctx, s, "news", counting(&calls, "ok"))
	if err != nil || v != "ok" {
		t.Fatalf("retry: got %q, %v", v, err)
	}
	if calls != 2 {
		t.Errorf("expected retry to call upstream, calls=%d", calls)
	}
	if s.Stats().Errors != 1 {
		t.Errorf("expected 1 error counted, got %d", s.Stats().Errors)
	}
}

func TestGetOrFetch_ConcurrentCallersShareOneFetch(t *testing.T) {
	s := NewStore(&fakeKeys{period: "p"}, nil)
	var calls int32
	release := make(chan struct{})

	slow := FetchFunc[int](func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	})

	const n = 16
	var wg sync.WaitGroup
	results := make([]int, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = GetOrFetch[int](context.Background(), s, "market_data", slow)
		}(i)
	}
	// Give every goroutine time to reach the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected exactly one fetch, got %d", calls)
	}
	for i := range results {
		if errs[i] != nil || results[i] != 42 {
			t.Errorf("caller %d: got %d, %v", i, results[i], errs[i])
		}
	}
}

func TestGetOrFetch_TypeMismatch(t *testing.T) {
	s := NewStore(&fakeKeys{period: "p"}, nil)
	ctx := context.Background()
	var calls int32

	if _, err := GetOrFetch[string](ctx, s, "x", counting(&calls, "text")); err != nil {
		t.Fatal(err)
	}
	_, err := GetOrFetch[int](ctx, s, "x", FetchFunc[int](func(context.Context) (int, error) { return 1, nil }))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestClear(t *testing.T) {
	s := NewStore(&fakeKeys{period: "p"}, nil)
	ctx := context.Background()
	var calls int32

	_, _ = GetOrFetch[string](ctx, s, "news", counting(&calls, "a"))
	s.Clear()
	if keys := s.Keys(); len(keys) != 0 {
		t.Errorf("expected empty store after Clear, got %v", keys)
	}
	_, _ = GetOrFetch[string](ctx, s, "news", counting(&calls, "a"))
	if calls != 2 {
		t.Errorf("expected refetch after Clear, calls=%d", calls)
	}
}

func TestGetOrFetch_WithSessionClock(t *testing.T) {
	now := time.Date(2025, 11, 19, 2, 0, 0, 0, time.UTC) // 10:00 Singapore
	var mu sync.Mutex
	clock, err := session.NewClock([]session.Definition{
		{Name: "Asia", Timezone: "Asia/Singapore", Open: "09:00", Close: "16:30"},
		{Name: "US", Timezone: "America/New_York", Open: "09:30", Close: "16:00"},
	}, session.WithNow(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}))
	if err != nil {
		t.Fatal(err)
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	s := NewStore(clock, nil)
	ctx := context.Background()
	var calls int32
	fetch := counting(&calls, "snapshot")

	if _, err := GetOrFetch[string](ctx, s, session.CategoryMarketData, fetch); err != nil {
		t.Fatal(err)
	}
	advance(30 * time.Second)
	_, _ = GetOrFetch[string](ctx, s, session.CategoryMarketData, fetch)
	if calls != 1 {
		t.Fatalf("expected one fetch within the Asia session, got %d", calls)
	}
	if keys := s.Keys(); keys[0] != "market_data_2025-11-19_Asia" {
		t.Errorf("unexpected key %v", keys)
	}

	advance(24 * time.Hour)
	_, _ = GetOrFetch[string](ctx, s, session.CategoryMarketData, fetch)
	if calls != 2 {
		t.Errorf("expected a new fetch in the next session, got %d", calls)
	}
	if keys := s.Keys(); len(keys) != 1 || keys[0] != "market_data_2025-11-20_Asia" {
		t.Errorf("unexpected keys %v", keys)
	}
}

package cache

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/framesense/agent/internal/capture"
	"github.com/framesense/agent/internal/screen"
)

// fakeEnumerator returns a fixed layout, optionally failing on specific calls
// (1-based) to exercise the topology fallback paths.
type fakeEnumerator struct {
	monitors []screen.Monitor
	failOn   map[int]bool
	calls    int
}

func (f *fakeEnumerator) Monitors() ([]screen.Monitor, error) {
	f.calls++
	if f.failOn[f.calls] {
		return nil, errors.New("transient display error")
	}
	return f.monitors, nil
}

// fakeBackend counts OS reads and remembers the last placement it served.
type fakeBackend struct {
	reads     int
	lastMon   screen.Monitor
	lastLocal capture.Rect
	err       error
}

func (f *fakeBackend) ReadPixels(m screen.Monitor, local capture.Rect) (*image.RGBA, error) {
	f.reads++
	f.lastMon = m
	f.lastLocal = local
	if f.err != nil {
		return nil, f.err
	}
	return image.NewRGBA(image.Rect(0, 0, local.Width, local.Height)), nil
}

var testMonitors = []screen.Monitor{
	{ID: 0, X: 0, Y: 0, Width: 1920, Height: 1080, ScaleFactor: 1, IsPrimary: true},
	{ID: 1, X: 1920, Y: 0, Width: 1920, Height: 1080, ScaleFactor: 1},
}

// testCache builds a cache over the fakes with a controllable clock.
func testCache(t *testing.T, opts Options) (*Cache, *fakeBackend, *time.Time) {
	t.Helper()
	backend := &fakeBackend{}
	c := New(screen.NewResolver(&fakeEnumerator{monitors: testMonitors}), backend, opts)
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c, backend, &clock
}

func TestGetOrCapture_IdempotentWithinTTL(t *testing.T) {
	c, backend, _ := testCache(t, Options{})
	rect := capture.Rect{X: 100, Y: 100, Width: 200, Height: 150}

	first, err := c.GetOrCapture(rect)
	if err != nil {
		t.Fatalf("first capture: %v", err)
	}
	second, err := c.GetOrCapture(rect)
	if err != nil {
		t.Fatalf("second capture: %v", err)
	}

	if backend.reads != 1 {
		t.Fatalf("backend reads = %d, want 1", backend.reads)
	}
	if first.Payload != second.Payload {
		t.Fatal("payloads differ across a cache hit")
	}
	if first.FromCache || !second.FromCache {
		t.Fatalf("FromCache flags = %v,%v; want false,true", first.FromCache, second.FromCache)
	}
}

func TestGetOrCapture_NearbyRectsAreDistinctKeys(t *testing.T) {
	c, backend, _ := testCache(t, Options{})

	if _, err := c.GetOrCapture(capture.Rect{X: 100, Y: 100, Width: 200, Height: 150}); err != nil {
		t.Fatalf("capture: %v", err)
	}
	// One pixel off: structural equality, not geometric containment.
	if _, err := c.GetOrCapture(capture.Rect{X: 101, Y: 100, Width: 200, Height: 150}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	if backend.reads != 2 {
		t.Fatalf("backend reads = %d, want 2", backend.reads)
	}
}

func TestGetOrCapture_ExpiryTriggersOneNewRead(t *testing.T) {
	c, backend, clock := testCache(t, Options{EntryTTL: 30 * time.Second})
	rect := capture.Rect{X: 0, Y: 0, Width: 100, Height: 100}

	if _, err := c.GetOrCapture(rect); err != nil {
		t.Fatalf("capture: %v", err)
	}
	*clock = clock.Add(31 * time.Second)
	res, err := c.GetOrCapture(rect)
	if err != nil {
		t.Fatalf("capture after expiry: %v", err)
	}

	if backend.reads != 2 {
		t.Fatalf("backend reads = %d, want 2", backend.reads)
	}
	if res.FromCache {
		t.Fatal("expired entry must not be served from cache")
	}
}

func TestEviction_OldestCapturedFirst(t *testing.T) {
	// Measure the payload size of one standard capture, then rebuild with a
	// budget that holds exactly two entries.
	probe, backend, _ := testCache(t, Options{})
	rectA := capture.Rect{X: 0, Y: 0, Width: 100, Height: 100}
	if _, err := probe.GetOrCapture(rectA); err != nil {
		t.Fatalf("probe capture: %v", err)
	}
	size := probe.Stats().TotalBytes
	_ = backend

	c, backend, clock := testCache(t, Options{MaxBytes: 2 * size})
	rectB := capture.Rect{X: 200, Y: 0, Width: 100, Height: 100}
	rectC := capture.Rect{X: 400, Y: 0, Width: 100, Height: 100}

	if _, err := c.GetOrCapture(rectA); err != nil {
		t.Fatalf("capture A: %v", err)
	}
	*clock = clock.Add(time.Second)
	if _, err := c.GetOrCapture(rectB); err != nil {
		t.Fatalf("capture B: %v", err)
	}
	*clock = clock.Add(time.Second)
	if _, err := c.GetOrCapture(rectC); err != nil {
		t.Fatalf("capture C: %v", err)
	}

	stats := c.Stats()
	if stats.TotalBytes > 2*size {
		t.Fatalf("total bytes %d exceeds budget %d after eviction", stats.TotalBytes, 2*size)
	}
	if stats.Entries != 2 {
		t.Fatalf("entries = %d, want 2", stats.Entries)
	}

	// A (oldest) was evicted, B survived.
	reads := backend.reads
	if res, err := c.GetOrCapture(rectB); err != nil || !res.FromCache {
		t.Fatalf("B should still be cached (err=%v, fromCache=%v)", err, res.FromCache)
	}
	if _, err := c.GetOrCapture(rectA); err != nil {
		t.Fatalf("recapture A: %v", err)
	}
	if backend.reads != reads+1 {
		t.Fatalf("backend reads = %d, want %d (A evicted, B cached)", backend.reads, reads+1)
	}
}

func TestEviction_SingleEntryMayExceedBudget(t *testing.T) {
	c, backend, _ := testCache(t, Options{MaxBytes: 1})
	rect := capture.Rect{X: 0, Y: 0, Width: 100, Height: 100}

	if _, err := c.GetOrCapture(rect); err != nil {
		t.Fatalf("capture: %v", err)
	}
	stats := c.Stats()
	if stats.Entries != 1 || stats.TotalBytes <= 1 {
		t.Fatalf("oversized entry should be stored: %+v", stats)
	}

	// And it is still served from cache.
	if res, err := c.GetOrCapture(rect); err != nil || !res.FromCache {
		t.Fatalf("oversized entry not cached (err=%v, fromCache=%v)", err, res.FromCache)
	}
	if backend.reads != 1 {
		t.Fatalf("backend reads = %d, want 1", backend.reads)
	}
}

func TestSweepExpired(t *testing.T) {
	c, _, clock := testCache(t, Options{EntryTTL: 30 * time.Second})

	if _, err := c.GetOrCapture(capture.Rect{X: 0, Y: 0, Width: 50, Height: 50}); err != nil {
		t.Fatalf("capture: %v", err)
	}
	*clock = clock.Add(10 * time.Second)
	if _, err := c.GetOrCapture(capture.Rect{X: 100, Y: 0, Width: 50, Height: 50}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	*clock = clock.Add(25 * time.Second) // first is now 35s old, second 25s

	stats := c.Stats()
	if stats.Expired != 1 {
		t.Fatalf("expired = %d, want 1", stats.Expired)
	}
	if removed := c.SweepExpired(); removed != 1 {
		t.Fatalf("swept = %d, want 1", removed)
	}

	stats = c.Stats()
	if stats.Entries != 1 || stats.Expired != 0 {
		t.Fatalf("post-sweep stats = %+v", stats)
	}
}

func TestClear(t *testing.T) {
	c, _, _ := testCache(t, Options{})
	if _, err := c.GetOrCapture(capture.Rect{X: 0, Y: 0, Width: 50, Height: 50}); err != nil {
		t.Fatalf("capture: %v", err)
	}

	c.Clear()

	if stats := c.Stats(); stats.Entries != 0 || stats.TotalBytes != 0 {
		t.Fatalf("stats after clear = %+v", stats)
	}
}

func TestResizeScratch_CaptureStillWorks(t *testing.T) {
	c, _, _ := testCache(t, Options{})

	c.ResizeScratch(16) // far smaller than any PNG; buffer must still grow

	res, err := c.GetOrCapture(capture.Rect{X: 0, Y: 0, Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if res.Payload == "" {
		t.Fatal("empty payload after scratch resize")
	}
}

func TestGetOrCapture_SingleScreenFallback(t *testing.T) {
	backend := &fakeBackend{}
	enum := &fakeEnumerator{monitors: testMonitors, failOn: map[int]bool{2: true}}
	c := New(screen.NewResolver(enum), backend, Options{})

	// Call 1 refreshes the screen snapshot, call 2 (TotalArea) fails, call 3
	// serves the fallback. A rect that multi-screen resolution would place on
	// monitor 1 clamps against monitor 0 instead, with no translation.
	res, err := c.GetOrCapture(capture.Rect{X: 1920, Y: 0, Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("fallback capture: %v", err)
	}
	if res.MonitorID != 0 {
		t.Fatalf("monitor = %d, want 0 (fallback ignores topology)", res.MonitorID)
	}
	if backend.lastLocal != (capture.Rect{X: 1820, Y: 0, Width: 100, Height: 100}) {
		t.Fatalf("fallback local = %+v", backend.lastLocal)
	}
}

func TestGetOrCapture_NoDisplays(t *testing.T) {
	backend := &fakeBackend{}
	c := New(screen.NewResolver(&fakeEnumerator{}), backend, Options{})

	_, err := c.GetOrCapture(capture.Rect{X: 0, Y: 0, Width: 100, Height: 100})
	if !errors.Is(err, screen.ErrNoDisplays) {
		t.Fatalf("err = %v, want ErrNoDisplays", err)
	}
	if backend.reads != 0 {
		t.Fatalf("backend reads = %d, want 0", backend.reads)
	}
}

func TestGetOrCapture_BackendFailureNotCached(t *testing.T) {
	c, backend, _ := testCache(t, Options{})
	backend.err = errors.New("bitblt failed")
	rect := capture.Rect{X: 0, Y: 0, Width: 100, Height: 100}

	if _, err := c.GetOrCapture(rect); err == nil {
		t.Fatal("expected backend error")
	}
	backend.err = nil
	if _, err := c.GetOrCapture(rect); err != nil {
		t.Fatalf("retry after backend recovery: %v", err)
	}
	if backend.reads != 2 {
		t.Fatalf("backend reads = %d, want 2 (failure must not be cached)", backend.reads)
	}
}

func TestGetOrCapture_InvalidRect(t *testing.T) {
	c, _, _ := testCache(t, Options{})

	_, err := c.GetOrCapture(capture.Rect{X: 0, Y: 0, Width: 0, Height: 10})
	if !errors.Is(err, capture.ErrInvalidRect) {
		t.Fatalf("err = %v, want ErrInvalidRect", err)
	}
}

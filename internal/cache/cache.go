// Package cache stores recent screen captures keyed by their exact capture
// rectangle, bounded by a byte budget and a per-entry TTL, so repeated
// identical selections skip the OS-level screen read.
package cache

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/framesense/agent/internal/capture"
	"github.com/framesense/agent/internal/logging"
	"github.com/framesense/agent/internal/screen"
)

var log = logging.L("cache")

// Policy defaults, matching the capture path this cache was built around:
// capture content goes stale in seconds, monitor geometry in minutes.
const (
	DefaultMaxBytes     = 50 * 1024 * 1024
	DefaultEntryTTL     = 30 * time.Second
	DefaultScreenTTL    = 60 * time.Second
	DefaultScratchBytes = 1 * 1024 * 1024
)

// Options tunes cache policy. Zero values fall back to the defaults above.
type Options struct {
	MaxBytes     int
	EntryTTL     time.Duration
	ScreenTTL    time.Duration
	ScratchBytes int
}

// Result is a completed capture: the encoded payload plus where it came from.
type Result struct {
	Payload    string       `json:"imageData"`
	Rect       capture.Rect `json:"bounds"`
	MonitorID  int          `json:"monitor"`
	CapturedAt time.Time    `json:"capturedAt"`
	FromCache  bool         `json:"fromCache"`
}

// Stats is a point-in-time snapshot of cache occupancy.
type Stats struct {
	Entries    int `json:"entries"`
	TotalBytes int `json:"bytes"`
	Expired    int `json:"expired"`
}

type entry struct {
	payload    string
	capturedAt time.Time
	sizeBytes  int
	monitorID  int
}

type screenSnapshot struct {
	width       int
	height      int
	scaleFactor float64
	cachedAt    time.Time
}

// Cache is the capture entry point. A single exclusive lock serializes every
// public operation for its full duration, including the blocking OS pixel
// read and PNG encode on a miss. That means a slow OS capture stalls
// concurrent lookups; acceptable for a human-paced, single-capture-at-a-time
// workload, but do not put this cache on a hot concurrent path.
type Cache struct {
	mu         sync.Mutex
	entries    map[capture.Rect]entry
	screenInfo *screenSnapshot
	scratch    bytes.Buffer

	maxBytes  int
	entryTTL  time.Duration
	screenTTL time.Duration

	topo    *screen.Resolver
	backend capture.Backend

	now func() time.Time
}

// New creates a Cache that resolves geometry through topo and reads pixels
// through backend.
func New(topo *screen.Resolver, backend capture.Backend, opts Options) *Cache {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.EntryTTL <= 0 {
		opts.EntryTTL = DefaultEntryTTL
	}
	if opts.ScreenTTL <= 0 {
		opts.ScreenTTL = DefaultScreenTTL
	}
	if opts.ScratchBytes <= 0 {
		opts.ScratchBytes = DefaultScratchBytes
	}

	c := &Cache{
		entries:   make(map[capture.Rect]entry),
		maxBytes:  opts.MaxBytes,
		entryTTL:  opts.EntryTTL,
		screenTTL: opts.ScreenTTL,
		topo:      topo,
		backend:   backend,
		now:       time.Now,
	}
	c.scratch.Grow(opts.ScratchBytes)
	return c
}

// GetOrCapture returns the cached payload for rect if one exists and is
// fresh; otherwise it resolves rect onto a monitor, performs the OS read,
// encodes, caches, and returns the new payload. Repeated identical requests
// within the TTL return byte-identical payloads from a single OS read.
func (c *Cache) GetOrCapture(rect capture.Rect) (Result, error) {
	if !rect.Valid() {
		return Result{}, capture.ErrInvalidRect
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[rect]; ok {
		if now.Sub(e.capturedAt) < c.entryTTL {
			log.Debug("cache hit", "rect", rect.String())
			return Result{
				Payload:    e.payload,
				Rect:       rect,
				MonitorID:  e.monitorID,
				CapturedAt: e.capturedAt,
				FromCache:  true,
			}, nil
		}
		log.Debug("cache entry expired", "rect", rect.String())
		delete(c.entries, rect)
	}

	c.refreshScreenInfoLocked(now)

	placement, err := c.resolveLocked(rect)
	if err != nil {
		return Result{}, err
	}

	img, err := c.backend.ReadPixels(placement.Monitor, placement.Local)
	if err != nil {
		return Result{}, fmt.Errorf("capture backend: %w", err)
	}

	if err := capture.EncodePNG(img, &c.scratch); err != nil {
		return Result{}, err
	}
	payload := capture.DataURI(c.scratch.Bytes())

	c.insertLocked(rect, entry{
		payload:    payload,
		capturedAt: now,
		sizeBytes:  len(payload),
		monitorID:  placement.Monitor.ID,
	})

	return Result{
		Payload:    payload,
		Rect:       rect,
		MonitorID:  placement.Monitor.ID,
		CapturedAt: now,
	}, nil
}

// Clear drops all entries unconditionally.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[capture.Rect]entry)
	log.Info("cache cleared", "entries", n)
}

// Stats reports entry count, total payload bytes, and how many entries have
// already outlived the TTL but not yet been swept.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := Stats{Entries: len(c.entries)}
	for _, e := range c.entries {
		s.TotalBytes += e.sizeBytes
		if now.Sub(e.capturedAt) >= c.entryTTL {
			s.Expired++
		}
	}
	return s
}

// SweepExpired removes every entry whose age has reached the TTL and returns
// how many were removed.
func (c *Cache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for rect, e := range c.entries {
		if now.Sub(e.capturedAt) >= c.entryTTL {
			delete(c.entries, rect)
			removed++
		}
	}
	if removed > 0 {
		log.Debug("swept expired captures", "removed", removed)
	}
	return removed
}

// ResizeScratch replaces the reusable encode buffer with one reserving
// capacityBytes. Cache policy is unaffected.
func (c *Cache) ResizeScratch(capacityBytes int) {
	if capacityBytes < 0 {
		capacityBytes = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.scratch = bytes.Buffer{}
	c.scratch.Grow(capacityBytes)
	log.Debug("scratch buffer resized", "capacityBytes", capacityBytes)
}

// Run sweeps expired entries on the given interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SweepExpired()
		}
	}
}

// refreshScreenInfoLocked refreshes the cached screen-geometry snapshot when
// absent or older than the screen TTL. Geometry changes far less often than
// capture content, hence the separate, longer window. Failure here is
// advisory only: the capture path re-enumerates and produces the
// authoritative error.
func (c *Cache) refreshScreenInfoLocked(now time.Time) {
	if c.screenInfo != nil && now.Sub(c.screenInfo.cachedAt) <= c.screenTTL {
		return
	}

	monitors, err := c.topo.Monitors()
	if err != nil {
		log.Warn("screen info refresh failed", "error", err)
		return
	}

	primary := monitors[0]
	c.screenInfo = &screenSnapshot{
		width:       primary.Width,
		height:      primary.Height,
		scaleFactor: primary.ScaleFactor,
		cachedAt:    now,
	}
	log.Debug("screen info refreshed", "width", primary.Width, "height", primary.Height)
}

// resolveLocked maps rect to a monitor-local placement, falling back to a
// translation-free clamp against the first monitor when topology resolution
// fails. Only when the fallback also has no displays does the error escalate.
func (c *Cache) resolveLocked(rect capture.Rect) (capture.Placement, error) {
	area, monitors, err := c.topo.TotalArea()
	if err == nil {
		return capture.Resolve(rect, area, monitors)
	}

	log.Warn("topology resolution failed, using single-screen fallback", "error", err)
	monitors, ferr := c.topo.Monitors()
	if ferr != nil {
		return capture.Placement{}, ferr
	}
	return capture.ResolveSingle(rect, monitors[0])
}

// insertLocked adds a freshly captured entry, evicting oldest-captured
// entries first when the byte budget would be exceeded. A single entry larger
// than the whole budget is stored anyway: returning the image outranks strict
// budget adherence.
func (c *Cache) insertLocked(rect capture.Rect, e entry) {
	total := 0
	for _, existing := range c.entries {
		total += existing.sizeBytes
	}

	if need := total + e.sizeBytes - c.maxBytes; need > 0 {
		c.evictLocked(need)
	}

	c.entries[rect] = e
	log.Debug("capture cached", "rect", rect.String(), "sizeBytes", e.sizeBytes, "entries", len(c.entries))
}

// evictLocked removes entries oldest-captured-first until at least need bytes
// are freed or the cache is empty. Eviction order is capture age, not access
// recency: access times are deliberately not tracked.
func (c *Cache) evictLocked(need int) {
	type aged struct {
		rect capture.Rect
		at   time.Time
		size int
	}
	victims := make([]aged, 0, len(c.entries))
	for rect, e := range c.entries {
		victims = append(victims, aged{rect: rect, at: e.capturedAt, size: e.sizeBytes})
	}
	sort.Slice(victims, func(i, j int) bool { return victims[i].at.Before(victims[j].at) })

	freed := 0
	evicted := 0
	for _, v := range victims {
		if freed >= need {
			break
		}
		delete(c.entries, v.rect)
		freed += v.size
		evicted++
	}
	log.Debug("evicted old captures", "evicted", evicted, "freedBytes", freed)
}

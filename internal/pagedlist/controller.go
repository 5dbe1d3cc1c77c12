// Package pagedlist materializes an unbounded notification list from
// successive pages and decides when the next page may be requested.
//
// Two guards sit in front of every scroll-triggered fetch. The throttle admits
// at most one call per window and drops the rest. The single-flight gate then
// refuses to fetch while a request is outstanding or after the server has
// announced the last page. Because at most one fetch is ever in flight, pages
// are appended in request order.
package pagedlist

import (
	"context"
	"sync"
	"time"

	"notification_feed/internal/logger"
	"notification_feed/internal/metrics"
	"notification_feed/internal/models"
)

const DefaultThrottle = 2 * time.Second

// Source fetches one page. The empty cursor requests the first page.
type Source interface {
	FetchPage(ctx context.Context, cursor string) (models.Page, error)
}

// Deleter performs the remote side of dismissing a notification.
type Deleter interface {
	DeleteNotification(ctx context.Context, id int64) error
}

// Trigger is the outcome of a scroll-near-end callback.
type Trigger int

const (
	TriggerFetched Trigger = iota
	TriggerThrottled
	TriggerInFlight
	TriggerNoMore
	TriggerClosed
)

func (t Trigger) String() string {
	switch t {
	case TriggerFetched:
		return "fetched"
	case TriggerThrottled:
		return "throttled"
	case TriggerInFlight:
		return "in_flight"
	case TriggerNoMore:
		return "no_more"
	case TriggerClosed:
		return "closed"
	}
	return "unknown"
}

// State is a snapshot of the list for the rendering surface. Placeholder rows
// belong on screen while IsFetching or IsFetchingNext is set.
type State struct {
	Pages          int
	Items          int
	IsFetching     bool
	IsFetchingNext bool
	HasNext        bool
}

// Loading reports whether any fetch is outstanding.
func (s State) Loading() bool { return s.IsFetching || s.IsFetchingNext }

type Option func(*Controller)

// WithThrottle sets the scroll throttle window. Zero disables throttling.
func WithThrottle(d time.Duration) Option {
	return func(c *Controller) { c.throttleWindow = d }
}

// WithFetchTimeout bounds each page request.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Controller) { c.fetchTimeout = d }
}

// WithClock replaces time.Now for the throttle.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithLogger(log *logger.Entry) Option {
	return func(c *Controller) { c.log = log }
}

// WithChangeHandler registers fn to run after every state change. It is
// called without the controller lock held.
func WithChangeHandler(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithErrorHandler registers fn to receive *FetchError values.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Controller) { c.onError = fn }
}

// Controller owns one paged notification list. It is safe for concurrent use;
// state transitions are serialized by mu.
type Controller struct {
	src            Source
	throttle       *throttle
	throttleWindow time.Duration
	fetchTimeout   time.Duration
	now            func() time.Time
	metrics        *metrics.Metrics
	log            *logger.Entry
	onChange       func(State)
	onError        func(error)

	wg sync.WaitGroup

	mu             sync.Mutex
	pages          []models.Page
	cursors        map[string]struct{}
	ids            map[int64]struct{}
	removed        map[int64]struct{}
	view           []models.Notification
	viewValid      bool
	nextCursor     string
	hasNext        bool
	isFetching     bool
	isFetchingNext bool
	started        bool
	closed         bool
}

func New(src Source, opts ...Option) *Controller {
	c := &Controller{
		src:            src,
		throttleWindow: DefaultThrottle,
		now:            time.Now,
		log:            logger.Component("pagedlist"),
		cursors:        make(map[string]struct{}),
		ids:            make(map[int64]struct{}),
		removed:        make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.throttle = newThrottle(c.throttleWindow, c.now)
	return c
}

// Initialize requests the first page regardless of scroll position.
func (c *Controller) Initialize() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrInitialized
	}
	c.started = true
	c.isFetching = true
	// Until a page says otherwise the first page is still owed, so a failed
	// first fetch stays retryable from the scroll trigger.
	c.hasNext = true
	c.wg.Add(1)
	st := c.stateLocked()
	c.mu.Unlock()

	c.log.Debug("Fetching first page")
	c.notify(st)
	go c.fetch("")
	return nil
}

// OnScrollNearEnd is the rendering surface's end-reached callback. Calls that
// fall inside the throttle window are dropped; admitted calls fetch the next
// page only when more pages exist and nothing is in flight.
func (c *Controller) OnScrollNearEnd() Trigger {
	t, st := c.scrollNearEnd()
	c.metrics.ObserveTrigger(t.String())
	if t != TriggerFetched {
		c.log.WithField("outcome", t.String()).Debug("Scroll trigger suppressed")
		return t
	}
	c.notify(st)
	return t
}

func (c *Controller) scrollNearEnd() (Trigger, State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return TriggerClosed, State{}
	}
	if !c.throttle.allow() {
		return TriggerThrottled, State{}
	}
	if c.isFetching || c.isFetchingNext {
		return TriggerInFlight, State{}
	}
	if !c.hasNext {
		return TriggerNoMore, State{}
	}

	c.isFetchingNext = true
	cursor := c.nextCursor
	c.wg.Add(1)
	go c.fetch(cursor)
	return TriggerFetched, c.stateLocked()
}

func (c *Controller) fetch(cursor string) {
	defer c.wg.Done()

	ctx := context.Background()
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	page, err := c.src.FetchPage(ctx, cursor)
	c.metrics.ObserveFetch(err, time.Since(start))
	if err != nil {
		c.onFetchFailed(cursor, err)
		return
	}
	page.Cursor = cursor
	c.onFetchSucceeded(page)
}

func (c *Controller) onFetchSucceeded(page models.Page) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.isFetching = false
	c.isFetchingNext = false

	if _, dup := c.cursors[page.Cursor]; dup {
		st := c.stateLocked()
		c.mu.Unlock()
		c.metrics.ObserveDuplicatePage()
		c.log.WithFields(map[string]interface{}{
			"cursor":      page.Cursor,
			"next_cursor": page.Next(),
		}).Warn("Server repeated an already fetched cursor, dropping page; further scrolls will refetch it")
		c.notify(st)
		return
	}

	c.cursors[page.Cursor] = struct{}{}
	c.pages = append(c.pages, page)
	for _, n := range page.Notifications {
		c.ids[n.ID] = struct{}{}
	}
	c.hasNext = page.HasNext()
	c.nextCursor = page.Next()
	c.viewValid = false
	st := c.stateLocked()
	c.mu.Unlock()

	c.log.WithFields(map[string]interface{}{
		"cursor":   page.Cursor,
		"items":    len(page.Notifications),
		"has_next": st.HasNext,
	}).Debug("Page appended")
	c.notify(st)
}

func (c *Controller) onFetchFailed(cursor string, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.isFetching = false
	c.isFetchingNext = false
	st := c.stateLocked()
	c.mu.Unlock()

	fetchErr := &FetchError{Cursor: cursor, Err: err}
	c.log.WithError(err).WithField("cursor", cursor).Warn("Page fetch failed")
	c.notify(st)
	if c.onError != nil {
		c.onError(fetchErr)
	}
}

// Items returns the flattened view: every received page's notifications in
// arrival order, minus removed ones. The slice is shared with the controller
// and must not be modified; later changes produce a new slice.
func (c *Controller) Items() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemsLocked()
}

func (c *Controller) itemsLocked() []models.Notification {
	if c.viewValid {
		return c.view
	}
	total := 0
	for _, p := range c.pages {
		total += len(p.Notifications)
	}
	view := make([]models.Notification, 0, total)
	for _, p := range c.pages {
		for _, n := range p.Notifications {
			if _, gone := c.removed[n.ID]; gone {
				continue
			}
			view = append(view, n)
		}
	}
	c.view = view
	c.viewValid = true
	return view
}

// RemoveItem drops the notification with id from the view without refetching.
// It reports whether the view changed; absent or already removed ids are a
// no-op.
func (c *Controller) RemoveItem(id int64) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	if _, ok := c.ids[id]; !ok {
		c.mu.Unlock()
		return false
	}
	if _, gone := c.removed[id]; gone {
		c.mu.Unlock()
		return false
	}
	c.removed[id] = struct{}{}
	c.viewValid = false
	st := c.stateLocked()
	c.mu.Unlock()

	c.notify(st)
	return true
}

// Dismiss deletes the notification remotely and, on success, removes it from
// the view. On failure nothing changes and an *ActionError is returned.
func (c *Controller) Dismiss(ctx context.Context, d Deleter, id int64) error {
	if err := d.DeleteNotification(ctx, id); err != nil {
		c.log.WithError(err).WithField("id", id).Warn("Dismiss failed")
		return &ActionError{ID: id, Err: err}
	}
	c.RemoveItem(id)
	return nil
}

// Lookup returns the visible notification with id.
func (c *Controller) Lookup(id int64) (models.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.itemsLocked() {
		if n.ID == id {
			return n, true
		}
	}
	return models.Notification{}, false
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	return State{
		Pages:          len(c.pages),
		Items:          len(c.itemsLocked()),
		IsFetching:     c.isFetching,
		IsFetchingNext: c.isFetchingNext,
		HasNext:        c.hasNext,
	}
}

// Wait blocks until the outstanding fetch, if any, has completed and its
// completion has been applied.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close tears the list down. A fetch still in flight runs to completion but
// its result is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.throttle.reset()
	c.pages = nil
	c.view = nil
	c.viewValid = false
}

func (c *Controller) notify(st State) {
	if c.onChange != nil {
		c.onChange(st)
	}
}

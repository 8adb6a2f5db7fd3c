package carousel

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/clock"
)

const (
	// DefaultAutoAdvance is the idle period before the carousel advances on its own.
	DefaultAutoAdvance = 7 * time.Second
	// DefaultCooldown is how long a transition direction stays active.
	DefaultCooldown = 3 * time.Second

	meterName = "finitefield.org/storefront-web/internal/carousel"
)

// OverlapPolicy decides what happens when a rotation arrives during a cooldown.
type OverlapPolicy int

const (
	// OverlapIgnore rejects manual rotations while a transition is settling.
	OverlapIgnore OverlapPolicy = iota
	// OverlapAllow rotates anyway and restarts both timers.
	OverlapAllow
)

// ParseOverlapPolicy maps "ignore" and "allow" to a policy. Unknown values ignore.
func ParseOverlapPolicy(raw string) OverlapPolicy {
	if strings.EqualFold(strings.TrimSpace(raw), "allow") {
		return OverlapAllow
	}
	return OverlapIgnore
}

// String returns the configuration label of the policy.
func (p OverlapPolicy) String() string {
	if p == OverlapAllow {
		return "allow"
	}
	return "ignore"
}

// Image references the artwork shown for a slide.
type Image struct {
	URL     string
	AltText string
}

// Slide is one carousel item. ID is the slide's position in the source list.
type Slide struct {
	ID     int
	Title  string
	Handle string
	Image  Image
}

// State is a snapshot of the controller.
type State struct {
	// Order lists slide IDs in display order.
	Order []int
	// Thumbnails is rotated in lockstep with Order.
	Thumbnails []int
	Direction  Direction
	Locked     bool
	Revision   uint64
	Mounted    bool
}

// Ordered resolves ids against slides, skipping unknown ids.
func Ordered(ids []int, slides []Slide) []Slide {
	out := make([]Slide, 0, len(ids))
	for _, id := range ids {
		if id >= 0 && id < len(slides) {
			out = append(out, slides[id])
		}
	}
	return out
}

type trigger string

const (
	triggerManual trigger = "manual"
	triggerAuto   trigger = "auto"
)

// Option customises a Controller.
type Option func(*Controller)

// WithClock sets the timer source.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) {
		if c != nil {
			ctrl.clock = c
		}
	}
}

// WithAutoAdvance overrides the idle auto-advance delay.
func WithAutoAdvance(d time.Duration) Option {
	return func(ctrl *Controller) {
		if d > 0 {
			ctrl.autoAdvanceDelay = d
		}
	}
}

// WithCooldown overrides the transition cooldown.
func WithCooldown(d time.Duration) Option {
	return func(ctrl *Controller) {
		if d > 0 {
			ctrl.cooldownDelay = d
		}
	}
}

// WithOverlapPolicy selects how rotations during a cooldown are handled.
func WithOverlapPolicy(p OverlapPolicy) Option {
	return func(ctrl *Controller) {
		ctrl.policy = p
	}
}

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(ctrl *Controller) {
		if logger != nil {
			ctrl.logger = logger
		}
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(ctrl *Controller) {
		ctrl.meter = m
	}
}

// WithID sets the instance identifier.
func WithID(id string) Option {
	return func(ctrl *Controller) {
		ctrl.id = strings.TrimSpace(id)
	}
}

// Controller rotates a fixed set of slides and their thumbnails on manual
// request or after an idle period, clearing the transition direction after
// a cooldown.
type Controller struct {
	id               string
	clock            clock.Clock
	autoAdvanceDelay time.Duration
	cooldownDelay    time.Duration
	policy           OverlapPolicy
	logger           *zap.Logger
	meter            metric.Meter
	rotations        metric.Int64Counter

	mu          sync.Mutex
	slides      []Slide
	order       []int
	thumbnails  []int
	direction   Direction
	locked      bool
	revision    uint64
	mounted     bool
	disposed    bool
	autoAdvance *Debouncer
	cooldown    *Debouncer
	autoSeq     uint64
	coolSeq     uint64

	subMu        sync.Mutex
	subs         map[int]chan State
	nextSub      int
	lastNotified uint64
}

// New constructs an unmounted controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		clock:            clock.Real{},
		autoAdvanceDelay: DefaultAutoAdvance,
		cooldownDelay:    DefaultCooldown,
		policy:           OverlapIgnore,
		logger:           zap.NewNop(),
		subs:             make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.meter == nil {
		c.meter = otel.GetMeterProvider().Meter(meterName)
	}
	counter, err := c.meter.Int64Counter(
		"carousel.rotations",
		metric.WithDescription("Count of applied carousel rotations"),
	)
	if err != nil {
		c.logger.Warn("carousel: unable to register rotation metric", zap.Error(err))
	}
	c.rotations = counter
	c.autoAdvance = NewDebouncer(c.clock)
	c.cooldown = NewDebouncer(c.clock)
	return c
}

// ID returns the instance identifier.
func (c *Controller) ID() string { return c.id }

// Mount installs the slides and schedules the first auto-advance.
func (c *Controller) Mount(slides []Slide) error {
	c.mu.Lock()
	switch {
	case c.disposed:
		c.mu.Unlock()
		return &PreconditionError{Op: "mount", Reason: "controller was unmounted"}
	case c.mounted:
		c.mu.Unlock()
		return &PreconditionError{Op: "mount", Reason: "controller already mounted"}
	case len(slides) == 0:
		c.mu.Unlock()
		return ErrEmptyCollection
	}

	c.slides = append([]Slide(nil), slides...)
	c.order = make([]int, len(slides))
	c.thumbnails = make([]int, len(slides))
	for i := range slides {
		c.order[i] = i
		c.thumbnails[i] = i
	}
	c.mounted = true
	c.revision++
	c.scheduleAutoAdvanceLocked()
	st := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("carousel mounted", zap.String("carousel_id", c.id), zap.Int("slides", len(slides)))
	c.notify(st)
	return nil
}

// Rotate moves the carousel one step in dir.
func (c *Controller) Rotate(dir Direction) error {
	c.mu.Lock()
	st, err := c.rotateLocked(dir, triggerManual)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.recordRotation(dir, triggerManual)
	c.notify(st)
	return nil
}

// Next rotates forward.
func (c *Controller) Next() error { return c.Rotate(DirectionNext) }

// Prev rotates backward.
func (c *Controller) Prev() error { return c.Rotate(DirectionPrev) }

// Unmount cancels pending timers and closes subscriptions. It is idempotent.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if !c.mounted && c.disposed {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	c.disposed = true
	c.autoAdvance.Cancel()
	c.cooldown.Cancel()
	c.autoSeq++
	c.coolSeq++
	c.direction = DirectionNone
	c.locked = false
	c.revision++
	c.mu.Unlock()

	c.subMu.Lock()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.subMu.Unlock()

	c.logger.Debug("carousel unmounted", zap.String("carousel_id", c.id))
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Slides returns the slides in source order.
func (c *Controller) Slides() []Slide {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Slide(nil), c.slides...)
}

// Subscribe returns a channel receiving the latest state after each change.
// Slow readers only observe the most recent snapshot. The channel is closed
// on Unmount or when the returned cancel func is called.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()

	c.subMu.Lock()
	if disposed {
		c.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			if existing, ok := c.subs[id]; ok {
				close(existing)
				delete(c.subs, id)
			}
		})
	}
}

// Subscribers reports how many subscriptions are open.
func (c *Controller) Subscribers() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subs)
}

func (c *Controller) rotateLocked(dir Direction, by trigger) (State, error) {
	if !c.mounted {
		reason := "controller not mounted"
		if c.disposed {
			reason = "controller was unmounted"
		}
		return State{}, &PreconditionError{Op: "rotate", Reason: reason}
	}
	if dir != DirectionNext && dir != DirectionPrev {
		_, err := ParseDirection(string(dir))
		return State{}, err
	}
	if c.locked && c.policy == OverlapIgnore {
		if by == triggerAuto {
			c.scheduleAutoAdvanceLocked()
		}
		return State{}, ErrTransitionLocked
	}

	order, _ := Rotate(c.order, dir)
	thumbnails, _ := Rotate(c.thumbnails, dir)
	c.order = order
	c.thumbnails = thumbnails
	c.direction = dir
	c.locked = true
	c.revision++

	c.scheduleCooldownLocked()
	c.scheduleAutoAdvanceLocked()
	return c.snapshotLocked(), nil
}

func (c *Controller) scheduleCooldownLocked() {
	c.coolSeq++
	seq := c.coolSeq
	c.cooldown.Schedule(c.cooldownDelay, func() { c.endTransition(seq) })
}

func (c *Controller) scheduleAutoAdvanceLocked() {
	c.autoSeq++
	seq := c.autoSeq
	c.autoAdvance.Schedule(c.autoAdvanceDelay, func() { c.advance(seq) })
}

func (c *Controller) endTransition(seq uint64) {
	c.mu.Lock()
	if !c.mounted || seq != c.coolSeq {
		c.mu.Unlock()
		return
	}
	c.direction = DirectionNone
	c.locked = false
	c.revision++
	st := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(st)
}

func (c *Controller) advance(seq uint64) {
	c.mu.Lock()
	if !c.mounted || seq != c.autoSeq {
		c.mu.Unlock()
		return
	}
	st, err := c.rotateLocked(DirectionNext, triggerAuto)
	c.mu.Unlock()
	if err != nil {
		c.logger.Debug("carousel auto-advance skipped", zap.String("carousel_id", c.id), zap.Error(err))
		return
	}
	c.recordRotation(DirectionNext, triggerAuto)
	c.notify(st)
}

func (c *Controller) snapshotLocked() State {
	return State{
		Order:      append([]int(nil), c.order...),
		Thumbnails: append([]int(nil), c.thumbnails...),
		Direction:  c.direction,
		Locked:     c.locked,
		Revision:   c.revision,
		Mounted:    c.mounted,
	}
}

func (c *Controller) notify(st State) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if st.Revision <= c.lastNotified {
		return
	}
	c.lastNotified = st.Revision
	for _, ch := range c.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

func (c *Controller) recordRotation(dir Direction, by trigger) {
	if c.rotations == nil {
		return
	}
	c.rotations.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("direction", dir.String()),
		attribute.String("trigger", string(by)),
	))
}

// Package broadcast runs the sample-compare-fan-out loop. It owns the
// last-known host status and the set of live subscribers.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"statusd/internal/logging"
	"statusd/internal/types"
)

// Interval is the fixed cadence of the loop.
const Interval = time.Second

var errRemoved = errors.New("subscriber removed")

// Sampler produces the current host status. It must not fail: sensing
// problems degrade to an idle label and a nil temperature.
type Sampler interface {
	Sample(ctx context.Context) types.StatusSample
}

type SamplerFunc func(ctx context.Context) types.StatusSample

func (f SamplerFunc) Sample(ctx context.Context) types.StatusSample {
	return f(ctx)
}

// Subscriber is a send-capable endpoint. A non-nil error from Send means
// the subscriber is gone and it will be dropped.
type Subscriber interface {
	ID() string
	Send(ctx context.Context, update types.StatusUpdate) error
}

// Observer receives loop events, typically to export metrics.
type Observer interface {
	ObserveSample(sample types.StatusSample, changed bool)
	ObserveFanOut(delivered, failed int)
	ObserveSubscribers(count int)
}

type nopObserver struct{}

func (nopObserver) ObserveSample(types.StatusSample, bool) {}
func (nopObserver) ObserveFanOut(int, int)                 {}
func (nopObserver) ObserveSubscribers(int)                 {}

type Option func(*Broadcaster)

func WithLogger(logger logging.Logger) Option {
	return func(b *Broadcaster) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(b *Broadcaster) {
		if observer != nil {
			b.observer = observer
		}
	}
}

type Broadcaster struct {
	sampler  Sampler
	interval time.Duration
	logger   logging.Logger
	observer Observer

	mu      sync.Mutex
	last    types.StatusSample
	sampled bool
	members map[string]*member
	joinSeq uint64
}

// member serializes sends to one subscriber. removed is only flipped while
// mu is held, so once removal returns no further send can start.
type member struct {
	sub     Subscriber
	joinSeq uint64

	mu      sync.Mutex
	removed bool
}

func (m *member) deliver(ctx context.Context, update types.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.removed {
		return errRemoved
	}
	return m.sub.Send(ctx, update)
}

func (m *member) markRemoved() {
	m.mu.Lock()
	m.removed = true
	m.mu.Unlock()
}

func New(sampler Sampler, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		sampler:  sampler,
		interval: Interval,
		logger:   logging.Nop(),
		observer: nopObserver{},
		members:  make(map[string]*member),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Run dispatches once immediately and then once per interval until ctx is
// cancelled. Cancellation is not an error.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.sampler == nil {
		return errors.New("broadcast: sampler is required")
	}
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.logger.Info("broadcast_loop_started", logging.F("interval", b.interval))
	for {
		if ctx.Err() != nil {
			b.logger.Info("broadcast_loop_stopped")
			return nil
		}
		b.Tick(ctx)
		select {
		case <-ctx.Done():
			b.logger.Info("broadcast_loop_stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick samples once, updates the last-known state when something changed
// and pushes the changed fields to every current subscriber.
func (b *Broadcaster) Tick(ctx context.Context) {
	sample := b.sampler.Sample(ctx)
	if sample.Label == "" {
		sample.Label = types.IdleLabel
	}
	if ctx.Err() != nil {
		return
	}

	b.mu.Lock()
	first := !b.sampled
	b.sampled = true
	update := diff(b.last, sample, first)
	if update.Empty() {
		b.mu.Unlock()
		b.observer.ObserveSample(sample, false)
		return
	}
	b.last = types.StatusSample{Label: sample.Label, Temperature: copyTemperature(sample.Temperature)}
	targets := b.membersLocked()
	b.mu.Unlock()

	b.observer.ObserveSample(sample, true)
	b.fanOut(ctx, targets, update)
}

// diff returns the fields of next that differ from last, or every field on
// the first tick.
func diff(last, next types.StatusSample, first bool) types.StatusUpdate {
	var update types.StatusUpdate
	if first || last.Label != next.Label {
		label := next.Label
		update.Status = &label
	}
	if first || !types.TemperatureEqual(last.Temperature, next.Temperature) {
		update.HasTemperature = true
		update.Temperature = copyTemperature(next.Temperature)
	}
	return update
}

func (b *Broadcaster) fanOut(ctx context.Context, targets []*member, update types.StatusUpdate) {
	delivered, failed := 0, 0
	for _, m := range targets {
		if ctx.Err() != nil {
			break
		}
		err := m.deliver(ctx, update)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, errRemoved):
		default:
			failed++
			b.drop(m, err)
		}
	}
	b.observer.ObserveFanOut(delivered, failed)
	if len(targets) > 0 {
		b.logger.Info("broadcast_sent", append(updateFields(update),
			logging.F("delivered", delivered),
			logging.F("failed", failed),
		)...)
	}
}

// Subscribe adds sub to the set and sends it every field of the last-known
// state. Nothing is sent before the first sample. If the snapshot cannot be
// delivered the subscriber is dropped and the error returned.
func (b *Broadcaster) Subscribe(ctx context.Context, sub Subscriber) error {
	if sub == nil {
		return errors.New("broadcast: subscriber is required")
	}
	id := sub.ID()
	if id == "" {
		return errors.New("broadcast: subscriber id is required")
	}

	m := &member{sub: sub}
	// Held across the snapshot send so a concurrent fan-out queues behind it.
	m.mu.Lock()
	b.mu.Lock()
	if _, exists := b.members[id]; exists {
		b.mu.Unlock()
		m.mu.Unlock()
		return fmt.Errorf("broadcast: subscriber %s already registered", id)
	}
	b.joinSeq++
	m.joinSeq = b.joinSeq
	b.members[id] = m
	last, sampled := b.last, b.sampled
	count := len(b.members)
	b.mu.Unlock()
	b.observer.ObserveSubscribers(count)

	var err error
	if sampled {
		update := types.SnapshotUpdate(last)
		err = sub.Send(ctx, update)
		if err == nil {
			b.logger.Debug("snapshot_sent", append(updateFields(update), logging.F("subscriber", id))...)
		}
	}
	if err != nil {
		m.removed = true
	}
	m.mu.Unlock()

	b.logger.Info("subscriber_added", logging.F("subscriber", id), logging.F("subscribers", count))
	if err != nil {
		b.drop(m, err)
		return fmt.Errorf("send snapshot: %w", err)
	}
	return nil
}

// Unsubscribe removes the subscriber with id. Unknown ids are ignored. It
// waits for a send already in progress to that subscriber.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	m, ok := b.members[id]
	if ok {
		delete(b.members, id)
	}
	count := len(b.members)
	b.mu.Unlock()
	if !ok {
		return
	}
	m.markRemoved()
	b.observer.ObserveSubscribers(count)
	b.logger.Info("subscriber_removed", logging.F("subscriber", id), logging.F("reason", "unsubscribed"), logging.F("subscribers", count))
}

func (b *Broadcaster) drop(m *member, cause error) {
	id := m.sub.ID()
	b.mu.Lock()
	current, ok := b.members[id]
	if ok && current == m {
		delete(b.members, id)
	}
	count := len(b.members)
	b.mu.Unlock()
	m.markRemoved()
	if !ok || current != m {
		return
	}
	b.observer.ObserveSubscribers(count)
	b.logger.Info("subscriber_removed",
		logging.F("subscriber", id),
		logging.F("reason", "send_failed"),
		logging.F("error", cause),
		logging.F("subscribers", count),
	)
}

// Snapshot returns the last-known state and whether any sample was taken.
func (b *Broadcaster) Snapshot() (types.StatusSample, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return types.StatusSample{Label: b.last.Label, Temperature: copyTemperature(b.last.Temperature)}, b.sampled
}

func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.members)
}

// membersLocked returns the current members in join order.
func (b *Broadcaster) membersLocked() []*member {
	out := make([]*member, 0, len(b.members))
	for _, m := range b.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].joinSeq < out[j].joinSeq })
	return out
}

func updateFields(update types.StatusUpdate) []logging.Field {
	fields := make([]logging.Field, 0, 4)
	if update.Status != nil {
		fields = append(fields, logging.F("status", *update.Status))
	}
	if update.HasTemperature {
		if update.Temperature == nil {
			fields = append(fields, logging.F("cpu_temperature", nil))
		} else {
			fields = append(fields, logging.F("cpu_temperature", *update.Temperature))
		}
	}
	return fields
}

func copyTemperature(t *float64) *float64 {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

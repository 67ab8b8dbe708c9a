package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/five82/atlas/internal/storage"
)

const defaultPollInterval = 2 * time.Second

// Channel names a category of change.
type Channel string

const (
	Favorites Channel = "favorites"
	Filter    Channel = "filter"
	Theme     Channel = "theme"
)

// ChannelForKey maps a persisted key to the channel that owns it.
func ChannelForKey(key string) (Channel, bool) {
	switch key {
	case storage.KeyFavorites:
		return Favorites, true
	case storage.KeyTheme:
		return Theme, true
	case storage.KeySearchTerm, storage.KeySelectedRegion:
		return Filter, true
	default:
		return "", false
	}
}

// Detector identifies which path noticed a change.
type Detector int

const (
	DetectorPublish Detector = iota
	DetectorStorage
	DetectorStructure
	DetectorPoll
)

func (d Detector) String() string {
	switch d {
	case DetectorPublish:
		return "publish"
	case DetectorStorage:
		return "storage"
	case DetectorStructure:
		return "structure"
	case DetectorPoll:
		return "poll"
	default:
		return "unknown"
	}
}

// Event tells a subscriber that state on Channel may have changed. It carries
// no state; subscribers re-read the owning store.
type Event struct {
	Channel  Channel
	Local    bool
	Detector Detector
}

// Handler receives events.
type Handler func(Event)

// Reloader re-reads a store's persisted state and reports whether its
// in-memory snapshot changed.
type Reloader interface {
	Reload(ctx context.Context) bool
}

// ReloaderFunc adapts a function to Reloader.
type ReloaderFunc func(ctx context.Context) bool

// Reload calls fn.
func (fn ReloaderFunc) Reload(ctx context.Context) bool {
	if fn == nil {
		return false
	}
	return fn(ctx)
}

// Watcher reports profile changes made by other instances.
// *storage.Adapter implements it.
type Watcher interface {
	Watch(ctx context.Context, fn func(storage.Change)) (func(), error)
}

// Options configure a Notifier.
type Options struct {
	Watcher   Watcher       // nil disables the storage signal
	PollEvery time.Duration // zero uses 2s
	Structure bool          // enables the rendered-frame heuristic
	Logger    logrus.FieldLogger
}

// Notifier is the single fan-in/fan-out point for state changes. Local
// publishes are delivered synchronously; external detectors run while at
// least one subscriber is attached.
type Notifier struct {
	ctx       context.Context
	watcher   Watcher
	pollEvery time.Duration
	structure bool
	log       logrus.FieldLogger

	mu        sync.Mutex
	subs      map[Channel]map[uint64]Handler
	count     int
	nextID    uint64
	reloaders map[Channel]Reloader
	frame     uint64
	hasFrame  bool
	closed    bool

	life    sync.Mutex
	running bool
	stops   []func()
}

// New builds a Notifier whose detectors live no longer than ctx.
func New(ctx context.Context, opts Options) *Notifier {
	if ctx == nil {
		ctx = context.Background()
	}
	pollEvery := opts.PollEvery
	if pollEvery <= 0 {
		pollEvery = defaultPollInterval
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{
		ctx:       ctx,
		watcher:   opts.Watcher,
		pollEvery: pollEvery,
		structure: opts.Structure,
		log:       log,
		subs:      make(map[Channel]map[uint64]Handler),
		reloaders: make(map[Channel]Reloader),
	}
}

// Register sets the reloader external detectors use for ch.
func (n *Notifier) Register(ch Channel, r Reloader) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reloaders[ch] = r
}

// Subscribe delivers events on ch to h until the returned func is called.
// The first subscription starts the external detectors and the last
// unsubscribe stops them.
func (n *Notifier) Subscribe(ch Channel, h Handler) func() {
	n.mu.Lock()
	if n.closed || h == nil {
		n.mu.Unlock()
		return func() {}
	}
	n.nextID++
	id := n.nextID
	if n.subs[ch] == nil {
		n.subs[ch] = make(map[uint64]Handler)
	}
	n.subs[ch][id] = h
	n.count++
	first := n.count == 1
	n.mu.Unlock()

	if first {
		n.startDetectors()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			if _, ok := n.subs[ch][id]; !ok {
				n.mu.Unlock()
				return
			}
			delete(n.subs[ch], id)
			n.count--
			last := n.count == 0
			n.mu.Unlock()
			if last {
				n.stopDetectors()
			}
		})
	}
}

// Publish delivers a local change on ch to every subscriber before returning.
func (n *Notifier) Publish(ch Channel) {
	n.dispatch(Event{Channel: ch, Local: true, Detector: DetectorPublish})
}

// ObserveFrame feeds the structural heuristic with the currently rendered
// rows. A frame that differs from the previous one triggers a favorites
// re-check; an unchanged favorite set publishes nothing.
func (n *Notifier) ObserveFrame(frame string) {
	if !n.structure || !n.Active() {
		return
	}
	sum := xxhash.Sum64String(frame)

	n.mu.Lock()
	if n.hasFrame && n.frame == sum {
		n.mu.Unlock()
		return
	}
	baseline := !n.hasFrame
	n.frame = sum
	n.hasFrame = true
	n.mu.Unlock()

	if baseline {
		return
	}
	n.refresh(Favorites, DetectorStructure, false)
}

// Active reports whether the external detectors are running.
func (n *Notifier) Active() bool {
	n.life.Lock()
	defer n.life.Unlock()
	return n.running
}

// Close drops every subscriber and stops the detectors.
func (n *Notifier) Close() {
	n.mu.Lock()
	n.closed = true
	n.subs = make(map[Channel]map[uint64]Handler)
	n.count = 0
	n.mu.Unlock()
	n.stopDetectors()
}

func (n *Notifier) dispatch(ev Event) {
	n.mu.Lock()
	handlers := make([]Handler, 0, len(n.subs[ev.Channel]))
	for _, h := range n.subs[ev.Channel] {
		handlers = append(handlers, h)
	}
	n.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// refresh reloads the store behind ch and republishes when it changed, or
// unconditionally when always is set.
func (n *Notifier) refresh(ch Channel, detector Detector, always bool) {
	n.mu.Lock()
	r := n.reloaders[ch]
	n.mu.Unlock()

	changed := false
	if r != nil {
		changed = r.Reload(n.ctx)
	}
	if !changed && !always {
		return
	}
	n.log.WithFields(logrus.Fields{
		"channel":  string(ch),
		"detector": detector.String(),
		"changed":  changed,
	}).Debug("external change detected")
	n.dispatch(Event{Channel: ch, Local: false, Detector: detector})
}

func (n *Notifier) pollOnce() {
	n.refresh(Favorites, DetectorPoll, false)
}

func (n *Notifier) onStorageChange(change storage.Change) {
	ch, ok := ChannelForKey(change.Key)
	if !ok {
		return
	}
	n.refresh(ch, DetectorStorage, true)
}

func (n *Notifier) startDetectors() {
	n.life.Lock()
	defer n.life.Unlock()

	n.mu.Lock()
	wanted := n.count > 0 && !n.closed
	n.mu.Unlock()
	if n.running || !wanted {
		return
	}

	ctx, cancel := context.WithCancel(n.ctx)
	stops := []func(){cancel}

	if n.watcher != nil {
		stopWatch, err := n.watcher.Watch(ctx, n.onStorageChange)
		switch {
		case errors.Is(err, storage.ErrNoSignal):
			n.log.Debug("profile backend has no change signal; relying on poll")
		case err != nil:
			n.log.WithError(err).Warn("storage change watch failed; relying on poll")
		default:
			stops = append(stops, stopWatch)
		}
	}

	go func() {
		ticker := time.NewTicker(n.pollEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n.pollOnce()
			}
		}
	}()

	n.stops = stops
	n.running = true
}

func (n *Notifier) stopDetectors() {
	n.life.Lock()
	defer n.life.Unlock()

	n.mu.Lock()
	idle := n.count == 0
	if idle {
		n.hasFrame = false
	}
	n.mu.Unlock()
	if !n.running || !idle {
		return
	}
	for _, stop := range n.stops {
		stop()
	}
	n.stops = nil
	n.running = false
}

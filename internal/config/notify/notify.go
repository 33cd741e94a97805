// Package notify fans configuration change events out to subscribers.
//
// Subscribers register for every change or for a dotted path prefix such
// as "editor"; a prefix subscriber also receives changes to its children
// ("editor.tab_width") and every reload event.
package notify

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/dshills/nivconf/internal/config/toml"
)

// Kind is what happened to a setting.
type Kind uint8

const (
	// Added means the setting appeared.
	Added Kind = iota + 1
	// Modified means the setting's value changed.
	Modified
	// Removed means the setting disappeared.
	Removed
	// Reloaded means the whole configuration was replaced. Path is empty.
	Reloaded
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	case Reloaded:
		return "reloaded"
	default:
		return "unknown"
	}
}

// Change is one configuration change event.
type Change struct {
	// Path is the dotted setting path. Empty for reload events.
	Path string
	Kind Kind
	// Old is invalid for Added and Reloaded.
	Old toml.Value
	// New is invalid for Removed and Reloaded.
	New toml.Value
	// Source names what produced the change, usually a file or layer.
	Source string
}

// String formats the change for logs.
func (c Change) String() string {
	switch c.Kind {
	case Added:
		return fmt.Sprintf("%s: added %s", c.Path, format(c.New))
	case Modified:
		return fmt.Sprintf("%s: %s -> %s", c.Path, format(c.Old), format(c.New))
	case Removed:
		return fmt.Sprintf("%s: removed (was %s)", c.Path, format(c.Old))
	case Reloaded:
		return "reloaded from " + c.Source
	default:
		return c.Path + ": unknown change"
	}
}

func format(v toml.Value) string {
	s, err := toml.FormatValue(v)
	if err != nil {
		return v.GoString()
	}
	return s
}

// Observer is called for each matching change.
type Observer func(Change)

// Subscription is an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes the observer. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type entry struct {
	id     uint64
	prefix string // "" matches everything
	fn     Observer
}

// Notifier manages change subscriptions.
type Notifier struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries []entry // ordered by id
	nextID  uint64
	closed  bool

	async  bool
	buffer chan []Change
	done   chan struct{}
	wg     sync.WaitGroup
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync delivers changes from a background goroutine through a
// buffer of bufferSize batches. Publish blocks while the buffer is full.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan []Change, bufferSize)
		}
	}
}

// WithLogger sets the logger used to report observer panics.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.async {
		n.wg.Add(1)
		go n.run()
	}
	return n
}

// Subscribe registers an observer for every change.
func (n *Notifier) Subscribe(fn Observer) *Subscription {
	return n.SubscribePath("", fn)
}

// SubscribePath registers an observer for changes at prefix or below it,
// plus reload events.
func (n *Notifier) SubscribePath(prefix string, fn Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	n.entries = append(n.entries, entry{id: n.nextID, prefix: prefix, fn: fn})
	return &Subscription{id: n.nextID, notifier: n}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.entries)
}

// Notify publishes a single change.
func (n *Notifier) Notify(c Change) {
	n.Publish(c)
}

// Publish delivers changes in order. Each observer sees the batch in the
// order given; observers are called in subscription order. Publishing to
// a closed Notifier does nothing.
func (n *Notifier) Publish(changes ...Change) {
	if len(changes) == 0 {
		return
	}
	n.mu.RLock()
	closed := n.closed
	n.mu.RUnlock()
	if closed {
		return
	}

	if n.async {
		select {
		case n.buffer <- slices.Clone(changes):
		case <-n.done:
		}
		return
	}
	n.deliver(changes)
}

// Close stops async delivery after draining queued batches. It is safe
// to call Close more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = slices.DeleteFunc(n.entries, func(e entry) bool { return e.id == id })
}

func (n *Notifier) deliver(changes []Change) {
	n.mu.RLock()
	entries := slices.Clone(n.entries)
	n.mu.RUnlock()

	// Observers run outside the lock so they may subscribe or unsubscribe.
	for _, c := range changes {
		for _, e := range entries {
			if matches(e.prefix, c) {
				n.call(e.fn, c)
			}
		}
	}
}

func (n *Notifier) call(fn Observer, c Change) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("config observer panicked", "path", c.Path, "panic", r)
		}
	}()
	fn(c)
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case batch := <-n.buffer:
			n.deliver(batch)
		case <-n.done:
			for {
				select {
				case batch := <-n.buffer:
					n.deliver(batch)
				default:
					return
				}
			}
		}
	}
}

// matches reports whether a subscriber at prefix wants c.
func matches(prefix string, c Change) bool {
	if prefix == "" || c.Kind == Reloaded {
		return true
	}
	return c.Path == prefix || strings.HasPrefix(c.Path, prefix+".")
}

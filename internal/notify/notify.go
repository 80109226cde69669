// Package notify delivers history lifecycle signals to observers.
//
// The notify package implements an observer pattern that lets hosting code
// (menus, toolbars, status lines) react to each phase of an add, undo or redo
// without polling the history manager. Delivery is synchronous: Notify calls
// every matching observer on the calling goroutine, in subscription order,
// before it returns.
package notify

import (
	"sync"
)

// Signal identifies a notification emitted by the history manager.
type Signal int

const (
	// BeforeAdd fires before a new step is recorded.
	BeforeAdd Signal = iota

	// AfterAdd fires after a step submission finished, even when it failed.
	AfterAdd

	// BeforeUndo fires before the newest applied step is unapplied.
	BeforeUndo

	// AfterUndo fires after an undo finished, even when it failed.
	AfterUndo

	// BeforeRedo fires before the newest unapplied step is reapplied.
	BeforeRedo

	// AfterRedo fires after a redo finished, even when it failed.
	AfterRedo

	// CanUndoChanged fires when undo availability may have changed.
	CanUndoChanged

	// CanRedoChanged fires when redo availability may have changed.
	CanRedoChanged

	// Changed fires after any mutation of the history.
	Changed
)

// String returns the signal name.
func (s Signal) String() string {
	switch s {
	case BeforeAdd:
		return "before-add"
	case AfterAdd:
		return "after-add"
	case BeforeUndo:
		return "before-undo"
	case AfterUndo:
		return "after-undo"
	case BeforeRedo:
		return "before-redo"
	case AfterRedo:
		return "after-redo"
	case CanUndoChanged:
		return "can-undo-changed"
	case CanRedoChanged:
		return "can-redo-changed"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// IsLifecycle reports whether s is one of the before/after signals.
func (s Signal) IsLifecycle() bool {
	return s >= BeforeAdd && s <= AfterRedo
}

// Event is delivered to observers.
type Event struct {
	// Signal is the kind of notification.
	Signal Signal

	// Description is the description of the step involved, if any.
	Description string

	// CanUndo and CanRedo report availability at the time of the event.
	CanUndo bool
	CanRedo bool

	// Err is set on After* events when the operation failed.
	Err error
}

// Observer is called when a signal is emitted.
type Observer func(event Event)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
		s.notifier = nil
	}
}

type registration struct {
	id       uint64
	signal   Signal
	all      bool
	observer Observer
}

// Notifier manages signal subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Registrations in subscription order
	registrations []registration

	// Next subscription ID
	nextID uint64
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer for every signal.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.add(registration{all: true, observer: observer})
}

// SubscribeSignal registers an observer for a single signal.
func (n *Notifier) SubscribeSignal(signal Signal, observer Observer) *Subscription {
	return n.add(registration{signal: signal, observer: observer})
}

func (n *Notifier) add(reg registration) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	reg.id = n.nextID
	n.nextID++
	n.registrations = append(n.registrations, reg)

	return &Subscription{id: reg.id, notifier: n}
}

// Notify delivers an event to all matching observers.
func (n *Notifier) Notify(event Event) {
	n.mu.RLock()
	var observers []Observer
	for _, reg := range n.registrations {
		if reg.all || reg.signal == event.Signal {
			observers = append(observers, reg.observer)
		}
	}
	n.mu.RUnlock()

	// Call observers outside the lock so they may subscribe or unsubscribe
	for _, obs := range observers {
		obs(event)
	}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.registrations)
}

// unsubscribe removes a registration by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, reg := range n.registrations {
		if reg.id == id {
			n.registrations = append(n.registrations[:i], n.registrations[i+1:]...)
			return
		}
	}
}

package registration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Observer receives state machine events. Implementations must be safe for concurrent use.
type Observer interface {
	SessionStarted()
	StepCompleted(step Step)
	ValidationFailed(step Step)
	SessionCancelled()
	RecordCommitted(elapsed time.Duration)
	CommitFailed(elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) SessionStarted() {}
func (nopObserver) StepCompleted(Step) {}
func (nopObserver) ValidationFailed(Step) {}
func (nopObserver) SessionCancelled() {}
func (nopObserver) RecordCommitted(time.Duration) {}
func (nopObserver) CommitFailed(time.Duration) {}

type Option func(*Machine)

// WithClock sets the source of submission timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithStrictChoices rejects region, direction and branch values outside their option sets.
func WithStrictChoices(strict bool) Option {
	return func(m *Machine) {
		m.strictChoices = strict
	}
}

func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observer = o
		}
	}
}

// Machine drives registration conversations. Calls for the same session id are serialized;
// different ids proceed in parallel.
type Machine struct {
	store         Store
	sink          Sink
	observer      Observer
	now           func() time.Time
	strictChoices bool
	locks         keyedMutex
}

func New(store Store, sink Sink, opts ...Option) *Machine {
	m := &Machine{
		store:    store,
		sink:     sink,
		observer: nopObserver{},
		now:      time.Now,
		locks:    keyedMutex{locks: make(map[string]*refMutex)},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates or resets the session and returns the name prompt.
func (m *Machine) Start(ctx context.Context, sessionID string) (Reply, error) {
	unlock := m.locks.lock(sessionID)
	defer unlock()

	if err := m.store.Save(ctx, newSession(sessionID, m.now())); err != nil {
		return Reply{Text: MessageTemporaryFailure}, fmt.Errorf("Machine.Start: %w", err)
	}
	m.observer.SessionStarted()

	return promptFor(StepAwaitingName), nil
}

// Advance feeds one inbound message to the session's current step.
func (m *Machine) Advance(ctx context.Context, sessionID string, in Input) (Reply, error) {
	unlock := m.locks.lock(sessionID)
	defer unlock()

	session, ok, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return Reply{Text: MessageTemporaryFailure}, fmt.Errorf("Machine.Advance: %w", err)
	}
	if !ok || !session.Step.Active() {
		return Reply{Text: MessageNoActiveSession}, ErrNoActiveSession
	}

	step := session.Step
	spec := transitions[step]

	value, reprompt := spec.validate(m, in)
	if reprompt != "" {
		m.observer.ValidationFailed(step)
		reply := promptFor(step)
		reply.Text = reprompt
		return reply, &ValidationError{Step: step, Reason: reprompt}
	}

	if spec.next == StepComplete {
		return m.commit(ctx, session, value)
	}

	session.Fields[spec.field] = value
	session.Step = spec.next
	session.UpdatedAt = m.now()

	if err := m.store.Save(ctx, session); err != nil {
		return Reply{Text: MessageTemporaryFailure}, fmt.Errorf("Machine.Advance: %w", err)
	}
	m.observer.StepCompleted(step)

	return promptFor(spec.next), nil
}

// commit appends the finished record. The session is removed only after the sink accepts it,
// so a failed append can be retried with the same input.
func (m *Machine) commit(ctx context.Context, session Session, branch string) (Reply, error) {
	rec, err := newRecord(session, branch, m.now())
	if err != nil {
		return Reply{Text: MessageTemporaryFailure}, fmt.Errorf("Machine.commit: %w", err)
	}

	started := time.Now()
	if err := m.sink.Append(ctx, rec); err != nil {
		m.observer.CommitFailed(time.Since(started))

		var pe *PersistenceError
		if !errors.As(err, &pe) {
			pe = NewPersistenceError("", err)
		}

		reply := promptFor(StepAwaitingBranch)
		reply.Text = MessagePersistenceRetry
		return reply, pe
	}
	m.observer.RecordCommitted(time.Since(started))
	m.observer.StepCompleted(StepAwaitingBranch)

	if err := m.store.Delete(ctx, session.ID); err != nil {
		log.Printf("Machine.commit: cannot delete session %s: %v", session.ID, err)
	}

	return Reply{Text: MessageCompleted, Step: StepComplete, Record: &rec}, nil
}

// Cancel ends the session if one exists. It always returns the same acknowledgment.
func (m *Machine) Cancel(ctx context.Context, sessionID string) (Reply, error) {
	unlock := m.locks.lock(sessionID)
	defer unlock()

	reply := Reply{Text: MessageCancelled, Step: StepCancelled}

	_, ok, err := m.store.Load(ctx, sessionID)
	if err != nil {
		log.Printf("Machine.Cancel: cannot load session %s: %v", sessionID, err)
	}
	if !ok && err == nil {
		return reply, nil
	}

	if err := m.store.Delete(ctx, sessionID); err != nil {
		log.Printf("Machine.Cancel: cannot delete session %s: %v", sessionID, err)
		return reply, nil
	}
	if ok {
		m.observer.SessionCancelled()
	}

	return reply, nil
}

// Session returns a snapshot of the session, if any.
func (m *Machine) Session(ctx context.Context, sessionID string) (Session, bool, error) {
	session, ok, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return Session{}, false, fmt.Errorf("Machine.Session: %w", err)
	}
	return session, ok, nil
}

type refMutex struct {
	sync.Mutex
	refs int
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Package gateway fans the hub's live event stream out to external
// listeners. Fan-out is synchronous and best-effort: a subscriber that
// fails or panics is dropped so it can never block or crash delivery
// to the others.
package gateway

import (
	"fmt"
	"log/slog"
	"sync"

	"agent-hub/domain"
	"agent-hub/domain/event"
)

// EventSource is the hub-side contract the gateway binds to.
type EventSource interface {
	OnEvent(func(event.DomainEvent)) func()
}

// Filter restricts a subscription. A ChannelID filter only ever matches
// channel-scoped event kinds, so workspace_ready passes a
// workspace-only filter but is excluded once a channel is named.
type Filter struct {
	WorkspaceID domain.WorkspaceID
	ChannelID   domain.ChannelID
}

func (f Filter) Matches(evt event.DomainEvent) bool {
	if f.WorkspaceID != "" && evt.Workspace() != f.WorkspaceID {
		return false
	}
	if f.ChannelID != "" {
		scoped, ok := evt.(event.ChannelScoped)
		if !ok {
			return false
		}
		if scoped.Channel() != f.ChannelID {
			return false
		}
	}
	return true
}

type subscriber struct {
	filter Filter
	fn     func(event.DomainEvent) error
}

type Gateway struct {
	log *slog.Logger

	mu          sync.Mutex
	subscribers map[int]subscriber
	next        int
	unbind      func()
}

func New(log *slog.Logger) *Gateway {
	return &Gateway{log: log, subscribers: make(map[int]subscriber)}
}

// BindHub subscribes to the hub's event stream once. Rebinding first
// unsubscribes the previous binding so no event is delivered twice.
func (g *Gateway) BindHub(source EventSource) {
	g.mu.Lock()
	previous := g.unbind
	g.mu.Unlock()
	if previous != nil {
		previous()
	}

	unbind := source.OnEvent(func(evt event.DomainEvent) {
		g.Publish(evt)
	})
	g.mu.Lock()
	g.unbind = unbind
	g.mu.Unlock()
}

// Subscribe registers a listener for events matching the filter and
// returns its unsubscribe function. A listener returning an error is
// deregistered by the next Publish that hits it.
func (g *Gateway) Subscribe(filter Filter, fn func(event.DomainEvent) error) func() {
	g.mu.Lock()
	id := g.next
	g.next++
	g.subscribers[id] = subscriber{filter: filter, fn: fn}
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subscribers, id)
		g.mu.Unlock()
	}
}

// Publish delivers the event to every matching subscriber and returns
// the number of successful deliveries. Dropping a failed subscriber
// here is a policy decision, not incidental error handling: one broken
// listener must not degrade the stream for the rest.
func (g *Gateway) Publish(evt event.DomainEvent) int {
	g.mu.Lock()
	ids := make([]int, 0, len(g.subscribers))
	entries := make([]subscriber, 0, len(g.subscribers))
	for i := 0; i < g.next; i++ {
		if entry, ok := g.subscribers[i]; ok {
			ids = append(ids, i)
			entries = append(entries, entry)
		}
	}
	g.mu.Unlock()

	delivered := 0
	var failed []int
	for i, entry := range entries {
		if !entry.filter.Matches(evt) {
			continue
		}
		if err := deliver(entry, evt); err != nil {
			g.log.Warn("dropping subscriber after failed delivery", "id", ids[i], "error", err)
			failed = append(failed, ids[i])
			continue
		}
		delivered++
	}

	if len(failed) > 0 {
		g.mu.Lock()
		for _, id := range failed {
			delete(g.subscribers, id)
		}
		g.mu.Unlock()
	}
	return delivered
}

func deliver(entry subscriber, evt event.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return entry.fn(evt)
}

// Close unsubscribes from the hub and drops every registered listener.
func (g *Gateway) Close() {
	g.mu.Lock()
	unbind := g.unbind
	g.unbind = nil
	g.subscribers = make(map[int]subscriber)
	g.mu.Unlock()

	if unbind != nil {
		unbind()
	}
}

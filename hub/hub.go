// Package hub implements the in-process communication hub: a
// multi-tenant registry of workspaces, agents, channels and messages,
// guarded by a single mutex so that one logical writer mutates a given
// hub at a time. Every accepted mutation emits one domain event to the
// registered listeners, synchronously, after the state change commits.
package hub

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"agent-hub/domain"
	"agent-hub/domain/event"
	apperrors "agent-hub/errors"
)

type Hub struct {
	mu         sync.Mutex
	workspaces map[domain.WorkspaceID]*domain.Workspace

	listenerMu   sync.Mutex
	listeners    map[int]func(event.DomainEvent)
	nextListener int

	validate *validator.Validate
	log      *slog.Logger
}

func New(log *slog.Logger) *Hub {
	return &Hub{
		workspaces: make(map[domain.WorkspaceID]*domain.Workspace),
		listeners:  make(map[int]func(event.DomainEvent)),
		validate:   validator.New(),
		log:        log,
	}
}

// EnsureWorkspace creates the workspace if absent. Idempotent; the
// workspace_ready event is emitted only on actual creation.
func (h *Hub) EnsureWorkspace(id domain.WorkspaceID) *domain.Workspace {
	h.mu.Lock()
	workspace, created := h.ensureWorkspaceLocked(id)
	h.mu.Unlock()

	if created {
		h.emit(event.WorkspaceReady{WorkspaceID: id, At: time.Now().UTC()})
	}
	return workspace
}

func (h *Hub) ensureWorkspaceLocked(id domain.WorkspaceID) (*domain.Workspace, bool) {
	if workspace, ok := h.workspaces[id]; ok {
		return workspace, false
	}
	workspace := domain.NewWorkspace(id)
	h.workspaces[id] = workspace
	return workspace, true
}

// RegisterAgent upserts the identity in the workspace's registry,
// creating the workspace on first reference.
func (h *Hub) RegisterAgent(workspaceID domain.WorkspaceID, identity domain.Identity) error {
	if err := h.validate.Struct(identity); err != nil {
		return fmt.Errorf("invalid identity: %w", err)
	}

	h.mu.Lock()
	workspace, created := h.ensureWorkspaceLocked(workspaceID)
	workspace.Agents[identity.ID] = identity
	h.mu.Unlock()

	if created {
		h.emit(event.WorkspaceReady{WorkspaceID: workspaceID, At: time.Now().UTC()})
	}
	h.log.Debug("agent registered", "workspace", workspaceID, "agent", identity.ID)
	return nil
}

// OnEvent registers a synchronous listener and returns its unsubscribe
// function. Listeners run after the mutation commits, outside the state
// lock, in registration order.
func (h *Hub) OnEvent(fn func(event.DomainEvent)) func() {
	h.listenerMu.Lock()
	id := h.nextListener
	h.nextListener++
	h.listeners[id] = fn
	h.listenerMu.Unlock()

	return func() {
		h.listenerMu.Lock()
		delete(h.listeners, id)
		h.listenerMu.Unlock()
	}
}

func (h *Hub) emit(evt event.DomainEvent) {
	h.listenerMu.Lock()
	fns := make([]func(event.DomainEvent), 0, len(h.listeners))
	for i := 0; i < h.nextListener; i++ {
		if fn, ok := h.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	h.listenerMu.Unlock()

	for _, fn := range fns {
		fn(evt)
	}
}

func (h *Hub) workspaceLocked(id domain.WorkspaceID) (*domain.Workspace, error) {
	workspace, ok := h.workspaces[id]
	if !ok {
		return nil, fmt.Errorf("workspace %q: %w", id, apperrors.ErrNotFound)
	}
	return workspace, nil
}

func (h *Hub) channelLocked(workspaceID domain.WorkspaceID, channelID domain.ChannelID) (*domain.Workspace, *domain.Channel, error) {
	workspace, err := h.workspaceLocked(workspaceID)
	if err != nil {
		return nil, nil, err
	}
	channel, ok := workspace.Channels[channelID]
	if !ok {
		return nil, nil, fmt.Errorf("channel %q: %w", channelID, apperrors.ErrNotFound)
	}
	return workspace, channel, nil
}

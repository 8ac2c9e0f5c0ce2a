package gateway

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"agent-hub/domain"
	"agent-hub/domain/event"
	"agent-hub/hub"
)

func newTestGateway() *Gateway {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func posted(workspace domain.WorkspaceID, channel domain.ChannelID) event.MessagePosted {
	return event.MessagePosted{
		WorkspaceID: workspace, ChannelID: channel, MessageID: "m1",
		SenderID: "alice", Text: "hello", At: time.Now().UTC(),
	}
}

func TestFilter_Matches_Workspace_And_Channel(t *testing.T) {
	req := require.New(t)

	evt := posted("acme", "general")

	req.True(Filter{}.Matches(evt))
	req.True(Filter{WorkspaceID: "acme"}.Matches(evt))
	req.False(Filter{WorkspaceID: "globex"}.Matches(evt))
	req.True(Filter{WorkspaceID: "acme", ChannelID: "general"}.Matches(evt))
	req.False(Filter{WorkspaceID: "acme", ChannelID: "random"}.Matches(evt))
}

func TestFilter_Channel_Filter_Excludes_Workspace_Events(t *testing.T) {
	req := require.New(t)

	ready := event.WorkspaceReady{WorkspaceID: "acme", At: time.Now().UTC()}

	// workspace_ready is not channel scoped: it passes a workspace
	// filter but never a channel one
	req.True(Filter{WorkspaceID: "acme"}.Matches(ready))
	req.False(Filter{WorkspaceID: "acme", ChannelID: "general"}.Matches(ready))
}

func TestPublish_Delivers_To_Matching_Subscribers(t *testing.T) {
	req := require.New(t)
	g := newTestGateway()

	var acme, globex int
	g.Subscribe(Filter{WorkspaceID: "acme"}, func(event.DomainEvent) error { acme++; return nil })
	g.Subscribe(Filter{WorkspaceID: "globex"}, func(event.DomainEvent) error { globex++; return nil })

	delivered := g.Publish(posted("acme", "general"))

	req.Equal(1, delivered)
	req.Equal(1, acme)
	req.Equal(0, globex)
}

func TestPublish_Drops_Failing_Subscriber(t *testing.T) {
	req := require.New(t)
	g := newTestGateway()

	var healthy, broken int
	g.Subscribe(Filter{}, func(event.DomainEvent) error { broken++; return errors.New("boom") })
	g.Subscribe(Filter{}, func(event.DomainEvent) error { healthy++; return nil })

	// First publish drops the broken subscriber, the healthy one is untouched
	req.Equal(1, g.Publish(posted("acme", "general")))
	req.Equal(1, g.Publish(posted("acme", "general")))

	req.Equal(1, broken)
	req.Equal(2, healthy)
}

func TestPublish_Drops_Panicking_Subscriber(t *testing.T) {
	req := require.New(t)
	g := newTestGateway()

	var calls int
	g.Subscribe(Filter{}, func(event.DomainEvent) error { panic("boom") })
	g.Subscribe(Filter{}, func(event.DomainEvent) error { calls++; return nil })

	// The panic is contained and delivery continues to the others
	req.Equal(1, g.Publish(posted("acme", "general")))
	req.Equal(1, g.Publish(posted("acme", "general")))
	req.Equal(2, calls)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	req := require.New(t)
	g := newTestGateway()

	var calls int
	unsubscribe := g.Subscribe(Filter{}, func(event.DomainEvent) error { calls++; return nil })

	g.Publish(posted("acme", "general"))
	unsubscribe()
	g.Publish(posted("acme", "general"))

	req.Equal(1, calls)
}

func TestBindHub_Streams_Hub_Events(t *testing.T) {
	req := require.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := hub.New(logger)
	g := New(logger)
	g.BindHub(h)
	defer g.Close()

	var kinds []event.Kind
	g.Subscribe(Filter{}, func(e event.DomainEvent) error { kinds = append(kinds, e.Kind()); return nil })

	req.NoError(h.RegisterAgent("acme", domain.Identity{ID: "alice", Role: domain.RoleAgent}))
	_, err := h.CreateChannel(hub.CreateChannelSpec{
		WorkspaceID: "acme", Name: "general", Type: domain.ChannelGeneral, CreatedBy: "alice",
	})
	req.NoError(err)

	req.Equal([]event.Kind{event.KindWorkspaceReady, event.KindChannelCreated}, kinds)
}

func TestBindHub_Rebind_Does_Not_Duplicate(t *testing.T) {
	req := require.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := hub.New(logger)
	g := New(logger)
	g.BindHub(h)
	g.BindHub(h)
	defer g.Close()

	var calls int
	g.Subscribe(Filter{}, func(event.DomainEvent) error { calls++; return nil })

	h.EnsureWorkspace("acme")
	req.Equal(1, calls)
}

package groups

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/group"
	"github.com/StackLine-App/pokerbase/internal/app/storage/memory"
)

func TestCreateGame_OwnerIsMember(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, nil)

	g, err := svc.CreateGame(ctx, "u1", "Tuesday Game", "Garage")
	require.NoError(t, err)
	require.Equal(t, []string{"u1"}, g.MemberIDs)

	_, err = svc.CreateGame(ctx, "u1", "  ", "")
	require.Error(t, err)
}

func TestMembership(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, nil)

	g, err := svc.CreateGame(ctx, "u1", "Tuesday Game", "")
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, g.ID, "u2", "u3")
	require.Error(t, err, "only the owner invites")

	g, err = svc.AddMember(ctx, g.ID, "u1", "u2")
	require.NoError(t, err)
	require.Len(t, g.MemberIDs, 2)

	// Adding twice is a no-op.
	g, err = svc.AddMember(ctx, g.ID, "u1", "u2")
	require.NoError(t, err)
	require.Len(t, g.MemberIDs, 2)

	_, err = svc.RemoveMember(ctx, g.ID, "u2", "u1")
	require.Error(t, err, "owner cannot be removed")

	g, err = svc.RemoveMember(ctx, g.ID, "u2", "u2")
	require.NoError(t, err, "members may leave")
	require.Equal(t, []string{"u1"}, g.MemberIDs)
}

func TestSendMessage_MembersOnly(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, nil)

	g, err := svc.CreateGame(ctx, "u1", "Tuesday Game", "")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, g.ID, "intruder", "hi", "")
	require.Error(t, err)

	_, err = svc.SendMessage(ctx, g.ID, "u1", "  ", "")
	require.Error(t, err, "empty message rejected")

	m, err := svc.SendMessage(ctx, g.ID, "u1", "running it twice?", "")
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)

	msgs, err := svc.ListMessages(ctx, g.ID, "u1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	_, err = svc.ListMessages(ctx, g.ID, "intruder")
	require.Error(t, err)
}

func TestHub_BroadcastReachesSubscriber(t *testing.T) {
	hub := NewHub(nil)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe("g1", conn)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.SubscriberCount("g1") == 1 },
		time.Second, 5*time.Millisecond)

	hub.Broadcast(group.Message{GroupID: "g1", SenderID: "u1", Body: "seat open"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	var got group.Message
	require.NoError(t, client.ReadJSON(&got))
	require.Equal(t, "seat open", got.Body)

	// Messages for other groups do not leak.
	hub.Broadcast(group.Message{GroupID: "g2", Body: "wrong room"})
	require.Equal(t, 1, hub.SubscriberCount("g1"))
	require.Equal(t, 0, hub.SubscriberCount("g2"))
}

// Broadcasts come from whichever request goroutine posted the message, so
// writes to a single subscriber must be serialized by the hub.
func TestHub_ConcurrentBroadcastsKeepSubscriber(t *testing.T) {
	hub := NewHub(nil)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Subscribe("g1", conn)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	require.Eventually(t, func() bool { return hub.SubscriberCount("g1") == 1 },
		time.Second, 5*time.Millisecond)

	const (
		senders    = 8
		perSender  = 50
		totalSends = senders * perSender
	)

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				hub.Broadcast(group.Message{GroupID: "g1", SenderID: "u1", Body: "all in"})
			}
		}()
	}

	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	for i := 0; i < totalSends; i++ {
		var got group.Message
		require.NoError(t, client.ReadJSON(&got), "message %d", i)
		require.Equal(t, "all in", got.Body)
	}

	wg.Wait()
	require.Equal(t, 1, hub.SubscriberCount("g1"), "healthy subscriber must survive the burst")
}

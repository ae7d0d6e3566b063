package chat

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pulsechat/internal/app/user"
	"pulsechat/internal/pkg/errs"
)

// memTransport is an in-process Transport for driving the engine in tests.
type memTransport struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newMemTransport() *memTransport {
	return &memTransport{
		in:     make(chan []byte, 32),
		out:    make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

func (t *memTransport) ReadMessage() ([]byte, error) {
	select {
	case data := <-t.in:
		return data, nil
	case <-t.closed:
		return nil, io.EOF
	}
}

func (t *memTransport) WriteMessage(data []byte) error {
	select {
	case t.out <- data:
		return nil
	case <-t.closed:
		return io.EOF
	}
}

func (t *memTransport) WritePing() error { return nil }

func (t *memTransport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

func (t *memTransport) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

type stubSessions struct {
	tokens map[string]user.Identity
}

func (s stubSessions) Validate(token string) (user.Identity, bool) {
	identity, ok := s.tokens[token]
	return identity, ok
}

// rxEvent decodes an outbound envelope without committing to a payload type.
type rxEvent struct {
	Type    EventType       `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

type testPeer struct {
	t      *testing.T
	client *Client
	tr     *memTransport
}

func connectPeer(t *testing.T, hub *Hub) *testPeer {
	t.Helper()

	tr := newMemTransport()
	client := NewClient(hub, tr)
	go client.WritePump()
	go client.ReadPump()

	return &testPeer{t: t, client: client, tr: tr}
}

func (p *testPeer) sendEvent(eventType EventType, payload any) {
	p.t.Helper()

	data, err := json.Marshal(map[string]any{"type": eventType, "payload": payload})
	require.NoError(p.t, err)

	select {
	case p.tr.in <- data:
	case <-time.After(time.Second):
		p.t.Fatal("inbound channel blocked")
	}
}

func (p *testPeer) expect(eventType EventType) rxEvent {
	p.t.Helper()

	select {
	case data := <-p.tr.out:
		var ev rxEvent
		require.NoError(p.t, json.Unmarshal(data, &ev))
		require.Equal(p.t, eventType, ev.Type)
		return ev
	case <-time.After(2 * time.Second):
		p.t.Fatalf("timed out waiting for %s", eventType)
		return rxEvent{}
	}
}

func (p *testPeer) expectNothing() {
	p.t.Helper()

	select {
	case data := <-p.tr.out:
		p.t.Fatalf("unexpected event: %s", data)
	case <-time.After(150 * time.Millisecond):
	}
}

func (p *testPeer) disconnect() {
	p.tr.Close()
}

func decodePayload[T any](t *testing.T, ev rxEvent) T {
	t.Helper()

	var payload T
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	return payload
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	sessions := stubSessions{tokens: map[string]user.Identity{
		"tok-A": {ID: "uA", DisplayName: "Alice"},
		"tok-B": {ID: "uB", DisplayName: "Bob"},
		"tok-C": {ID: "uC", DisplayName: "Carol"},
	}}

	hub := NewHub(sessions, NewPresenceRegistry(), NewMessageLog(100, nil))
	t.Cleanup(hub.Shutdown)

	return hub
}

// joinPeer authenticates and joins, consuming the welcome and the presence
// refresh so the peer's stream starts clean.
func joinPeer(t *testing.T, hub *Hub, token string) *testPeer {
	t.Helper()

	p := connectPeer(t, hub)
	p.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: token})
	p.sendEvent(TypeJoin, nil)
	p.expect(TypeWelcome)
	p.expect(TypePresenceList)

	return p
}

func TestHub_First_Joiner_Gets_Empty_Welcome(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	// When Alice authenticates and joins an empty room
	p := connectPeer(t, hub)
	p.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: "tok-A"})
	p.sendEvent(TypeJoin, nil)

	// Then her private welcome lists no other users and no history
	welcome := decodePayload[WelcomePayload](t, p.expect(TypeWelcome))
	req.Contains(welcome.Message, "Alice")
	req.Empty(welcome.Users)
	req.Empty(welcome.History)

	// And the presence refresh now includes her
	presenceList := decodePayload[PresenceListPayload](t, p.expect(TypePresenceList))
	req.Len(presenceList.Users, 1)
	req.Equal("uA", presenceList.Users[0].UserID)

	req.True(hub.Presence().IsOnline("uA"))
}

func TestHub_Join_Is_Announced_To_Others(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	alice := joinPeer(t, hub, "tok-A")

	// When Bob joins
	bob := connectPeer(t, hub)
	bob.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: "tok-B"})
	bob.sendEvent(TypeJoin, nil)

	// Then Bob's welcome lists Alice
	welcome := decodePayload[WelcomePayload](t, bob.expect(TypeWelcome))
	req.Len(welcome.Users, 1)
	req.Equal("uA", welcome.Users[0].UserID)
	bob.expect(TypePresenceList)

	// And Alice receives the join notice followed by the refreshed list
	joined := decodePayload[PresenceEventPayload](t, alice.expect(TypeJoined))
	req.Equal("uB", joined.UserID)
	req.Equal("Bob", joined.DisplayName)

	presenceList := decodePayload[PresenceListPayload](t, alice.expect(TypePresenceList))
	req.Len(presenceList.Users, 2)
}

func TestHub_Chat_Reaches_All_Including_Sender(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	alice := joinPeer(t, hub, "tok-A")
	bob := connectPeer(t, hub)
	bob.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: "tok-B"})
	bob.sendEvent(TypeJoin, nil)
	bob.expect(TypeWelcome)
	bob.expect(TypePresenceList)
	alice.expect(TypeJoined)
	alice.expect(TypePresenceList)

	// When Alice sends a message
	alice.sendEvent(TypeChat, ChatPayload{Body: "hello"})

	// Then every active connection, the sender included, gets exactly one copy
	for _, p := range []*testPeer{alice, bob} {
		broadcast := decodePayload[ChatMessage](t, p.expect(TypeChatBroadcast))
		req.Equal("hello", broadcast.Body)
		req.Equal("uA", broadcast.SenderID)
		req.Equal("Alice", broadcast.SenderName)
		p.expectNothing()
	}

	// And the log grew by one
	req.Equal(1, hub.History().Len())
}

func TestHub_Whitespace_Body_Is_Dropped_Silently(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	alice := joinPeer(t, hub, "tok-A")

	alice.sendEvent(TypeChat, ChatPayload{Body: "   \n\t "})

	// Not an error, not broadcast, not stored
	alice.expectNothing()
	req.Equal(0, hub.History().Len())
}

func TestHub_Oversized_Body_Errors_Sender_Only(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	alice := joinPeer(t, hub, "tok-A")
	bob := connectPeer(t, hub)
	bob.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: "tok-B"})
	bob.sendEvent(TypeJoin, nil)
	bob.expect(TypeWelcome)
	bob.expect(TypePresenceList)
	alice.expect(TypeJoined)
	alice.expect(TypePresenceList)

	big := make([]byte, MaxBodyBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	alice.sendEvent(TypeChat, ChatPayload{Body: string(big)})

	errEvent := decodePayload[ErrorPayload](t, alice.expect(TypeError))
	req.Equal(errs.ErrMessageTooLong, errEvent.Code)

	bob.expectNothing()
	req.Equal(0, hub.History().Len())
}

func TestHub_Unknown_Token_Gets_AuthError_And_Close(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	alice := joinPeer(t, hub, "tok-A")

	// When a connection presents an unknown token
	intruder := connectPeer(t, hub)
	intruder.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: "tok-forged"})

	// Then it receives auth-error and its transport closes
	intruder.expect(TypeAuthError)
	req.Eventually(intruder.tr.isClosed, 2*time.Second, 10*time.Millisecond)

	// And nothing was registered or broadcast
	alice.expectNothing()
	req.Equal(1, hub.Presence().Len())
}

func TestHub_Chat_Before_Join_Is_Protocol_Error(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	alice := joinPeer(t, hub, "tok-A")

	p := connectPeer(t, hub)
	p.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: "tok-B"})
	p.sendEvent(TypeChat, ChatPayload{Body: "too eager"})

	errEvent := decodePayload[ErrorPayload](t, p.expect(TypeError))
	req.Equal(errs.ErrProtocolViolation, errEvent.Code)
	req.Eventually(p.tr.isClosed, 2*time.Second, 10*time.Millisecond)

	// Other connections are unaffected
	alice.expectNothing()
	req.Equal(0, hub.History().Len())
}

func TestHub_Last_Disconnect_Announces_Leave(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	alice := joinPeer(t, hub, "tok-A")
	bob := connectPeer(t, hub)
	bob.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: "tok-B"})
	bob.sendEvent(TypeJoin, nil)
	bob.expect(TypeWelcome)
	bob.expect(TypePresenceList)
	alice.expect(TypeJoined)
	alice.expect(TypePresenceList)

	// When Bob's only connection closes
	bob.disconnect()

	// Then Alice sees the leave notice followed by a list without Bob
	left := decodePayload[PresenceEventPayload](t, alice.expect(TypeLeft))
	req.Equal("uB", left.UserID)

	presenceList := decodePayload[PresenceListPayload](t, alice.expect(TypePresenceList))
	req.Len(presenceList.Users, 1)
	req.Equal("uA", presenceList.Users[0].UserID)

	req.Eventually(func() bool { return !hub.Presence().IsOnline("uB") }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_MultiDevice_User_Stays_Online(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	// Given Alice connected from two devices
	phone := joinPeer(t, hub, "tok-A")
	laptop := connectPeer(t, hub)
	laptop.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: "tok-A"})
	laptop.sendEvent(TypeJoin, nil)
	laptop.expect(TypeWelcome)
	laptop.expect(TypePresenceList)
	phone.expect(TypeJoined)
	phone.expect(TypePresenceList)

	// When one device disconnects, no leave notice goes out; the presence
	// refresh still does
	laptop.disconnect()
	presenceList := decodePayload[PresenceListPayload](t, phone.expect(TypePresenceList))
	req.Len(presenceList.Users, 1)
	req.True(hub.Presence().IsOnline("uA"))

	// And only the last disconnect takes the user offline
	phone.disconnect()
	req.Eventually(func() bool { return !hub.Presence().IsOnline("uA") }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Broadcast_Delivers_Exactly_Once_Per_Connection(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	alice := joinPeer(t, hub, "tok-A")

	bob := connectPeer(t, hub)
	bob.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: "tok-B"})
	bob.sendEvent(TypeJoin, nil)
	bob.expect(TypeWelcome)
	bob.expect(TypePresenceList)
	alice.expect(TypeJoined)
	alice.expect(TypePresenceList)

	carol := connectPeer(t, hub)
	carol.sendEvent(TypeAuthenticate, AuthenticatePayload{Token: "tok-C"})
	carol.sendEvent(TypeJoin, nil)
	carol.expect(TypeWelcome)
	carol.expect(TypePresenceList)
	alice.expect(TypeJoined)
	alice.expect(TypePresenceList)
	bob.expect(TypeJoined)
	bob.expect(TypePresenceList)

	bob.sendEvent(TypeChat, ChatPayload{Body: "hi all"})

	// Three active connections, three deliveries, sender included
	for _, p := range []*testPeer{alice, bob, carol} {
		broadcast := decodePayload[ChatMessage](t, p.expect(TypeChatBroadcast))
		req.Equal("hi all", broadcast.Body)
		p.expectNothing()
	}
}

func TestHub_Repeated_Disconnect_Is_Tolerated(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(t)

	alice := joinPeer(t, hub, "tok-A")

	// Transport error and explicit close can both report the same connection
	alice.disconnect()
	hub.Leave(alice.client)

	req.Eventually(func() bool { return hub.Presence().Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

package e2e_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quackextractor/wordrush/internal/api"
	"github.com/quackextractor/wordrush/internal/factory"
	"github.com/quackextractor/wordrush/internal/model"
	"github.com/quackextractor/wordrush/internal/testutil"
	"github.com/quackextractor/wordrush/internal/ws"
)

type wireEvent struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// testStack is a fully wired server running on an ephemeral port
type testStack struct {
	app    *factory.App
	server *httptest.Server
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	dict := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(dict, []byte("band\nbanter\nplan\nplanet\nmany\nmango\n"), 0o644))

	// No Datamuse endpoint is configured in e2e; definition lookups answer
	// with the unavailable placeholder
	definitions := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(definitions.Close)

	app, err := factory.New(factory.Config{
		DictionaryPath: dict,
		DatamuseURL:    definitions.URL,
		Logger:         testutil.NopLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:         testutil.NopLogger(),
		Directory:      app.Directory,
		Dispatcher:     app.Dispatcher,
		BaseURL:        "https://wordrush.example",
		AllowedOrigins: []string{"*"},
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testStack{app: app, server: server}
}

func (s *testStack) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, want model.EventType) wireEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var ev wireEvent
		require.NoError(t, conn.ReadJSON(&ev), "waiting for %s", want)
		if ev.Type == want {
			return ev
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	stack := newTestStack(t)

	resp, err := http.Get(stack.server.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFullGameOverWebsocket(t *testing.T) {
	stack := newTestStack(t)

	host := stack.dial(t)
	readUntil(t, host, model.EventLobbyUpdate)

	require.NoError(t, host.WriteJSON(ws.Intent{
		Type: ws.IntentCreateRoom, Mode: "classic", PlayerName: "alice",
	}))

	created := readUntil(t, host, model.EventRoomCreated)
	var createdPayload struct {
		RoomID string `json:"roomId"`
	}
	require.NoError(t, json.Unmarshal(created.Payload, &createdPayload))
	require.Len(t, createdPayload.RoomID, 6)

	// The room is visible over REST
	resp, err := http.Get(stack.server.URL + "/api/v1/rooms")
	require.NoError(t, err)
	var listing struct {
		Rooms []model.RoomListing `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	resp.Body.Close()
	require.Len(t, listing.Rooms, 1)
	assert.Equal(t, "alice", listing.Rooms[0].HostName)

	// And its QR join code renders
	resp, err = http.Get(stack.server.URL + "/api/v1/rooms/" + createdPayload.RoomID + "/qr")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	guest := stack.dial(t)
	require.NoError(t, guest.WriteJSON(ws.Intent{
		Type: ws.IntentJoinRoom, RoomID: createdPayload.RoomID, PlayerName: "bob",
	}))
	readUntil(t, guest, model.EventRoomUpdate)

	require.NoError(t, host.WriteJSON(ws.Intent{Type: ws.IntentStartGame}))
	started := readUntil(t, guest, model.EventGameStarted)

	var room model.Room
	require.NoError(t, json.Unmarshal(started.Payload, &room))
	require.Equal(t, model.StatusPlaying, room.Status)
	require.NotEmpty(t, room.WordPiece)

	// The host leaving mid-game hands bob a game over
	require.NoError(t, host.WriteJSON(ws.Intent{Type: ws.IntentLeaveRoom}))
	over := readUntil(t, guest, model.EventGameOver)
	require.NoError(t, json.Unmarshal(over.Payload, &room))
	assert.Equal(t, model.StatusGameOver, room.Status)
	require.Len(t, room.Players, 1)
	assert.True(t, room.Players[0].IsHost)
}

func TestDefinitionLookupOverStack(t *testing.T) {
	stack := newTestStack(t)

	conn := stack.dial(t)
	readUntil(t, conn, model.EventLobbyUpdate)

	require.NoError(t, conn.WriteJSON(ws.Intent{
		Type: ws.IntentCreateRoom, Mode: "wordmaster", PlayerName: "alice",
	}))
	readUntil(t, conn, model.EventRoomCreated)

	require.NoError(t, conn.WriteJSON(ws.Intent{Type: ws.IntentGetDefinition, Word: "banter"}))
	ev := readUntil(t, conn, model.EventDefinitionResult)

	var payload model.DefinitionResultPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, "banter", payload.Word)
	assert.NotEmpty(t, payload.Definition)
}

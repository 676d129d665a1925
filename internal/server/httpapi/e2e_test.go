package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/client"
	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/federation"
	"github.com/plume-im/plume/internal/logging"
	"github.com/plume-im/plume/internal/server/services"
	"github.com/plume-im/plume/internal/server/storage"
)

// newTestServer spins up a complete server on a loopback listener. The
// listener must exist before the services, which need its URL as their
// public address, so the handler is installed after the fact.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	var handler http.Handler
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	store := storage.NewMemoryStore()
	peers := federation.New(federation.WithRetries(0))
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	users := services.NewUserService(store, time.Hour)
	handshakes := services.NewHandshakeService(store, peers, ts.URL)
	exchanges := services.NewExchangeService(store, peers)

	handler = NewServer(users, handshakes, exchanges, logger).Router()
	return ts
}

func newLoggedInClient(t *testing.T, serverURL, username, password, name string) *client.Client {
	t.Helper()
	ctx := context.Background()

	c := client.New(serverURL)
	require.NoError(t, c.Register(ctx, username, password, name))
	require.NoError(t, c.Login(ctx, username, password))
	require.Equal(t, name, c.DisplayName())
	return c
}

// TestFederatedCorrespondence walks the whole protocol over real HTTP
// between two servers: registration, the five handshake phases, and an
// encrypted message exchange in both directions.
func TestFederatedCorrespondence(t *testing.T) {
	serverA := newTestServer(t)
	serverB := newTestServer(t)
	ctx := context.Background()

	alice := newLoggedInClient(t, serverA.URL, "alice", "pw-alice", "Alice")
	bob := newLoggedInClient(t, serverB.URL, "bob", "pw-bob", "Bob")

	code, err := alice.GenerateCode(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	// Bob received the code out of band and answers it against alice's
	// server directly.
	require.NoError(t, bob.Answer(ctx, serverA.URL, code))

	pending, err := alice.PendingFilled(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Bob", pending[0].CorrespondentName)

	require.NoError(t, alice.AcceptFilled(ctx, pending[0]))

	incoming, err := bob.PendingFullyFilled(ctx)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "Alice", incoming[0].CorrespondentName)
	// Both ends recovered the same correspondence key.
	assert.Equal(t, pending[0].CorrespondenceKey, incoming[0].CorrespondenceKey)

	require.NoError(t, bob.Accept(ctx, incoming[0].CorrespondenceInitID))

	corrA, err := alice.Correspondents(ctx)
	require.NoError(t, err)
	require.Len(t, corrA, 1)
	assert.Equal(t, "Bob", corrA[0].Name)
	assert.True(t, corrA[0].IsInitiator)
	assert.Equal(t, serverB.URL, corrA[0].ServerURL)

	corrB, err := bob.Correspondents(ctx)
	require.NoError(t, err)
	require.Len(t, corrB, 1)
	assert.Equal(t, "Alice", corrB[0].Name)
	assert.False(t, corrB[0].IsInitiator)
	assert.Equal(t, serverA.URL, corrB[0].ServerURL)

	exchangeID, err := alice.SendMessage(ctx, corrA[0].ID, "", true, "Greetings", "personal", "hello bob")
	require.NoError(t, err)
	require.NotEmpty(t, exchangeID)

	msgsB, err := bob.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgsB, 1)
	assert.Equal(t, "Greetings", msgsB[0].Title)
	assert.Equal(t, "personal", msgsB[0].Category)
	assert.Equal(t, "hello bob", msgsB[0].Body)
	assert.True(t, msgsB[0].IsImportant)

	replyID, err := bob.SendMessage(ctx, corrB[0].ID, exchangeID, false, "Re: Greetings", "personal", "hello alice")
	require.NoError(t, err)
	assert.Equal(t, exchangeID, replyID)

	msgsA, err := alice.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgsA, 2)
	// Newest first.
	assert.Equal(t, "hello alice", msgsA[0].Body)
	assert.Equal(t, "hello bob", msgsA[1].Body)
	assert.Equal(t, exchangeID, msgsA[0].ExchangeID)
}

func TestAuthGuard(t *testing.T) {
	server := newTestServer(t)

	// No token at all.
	resp, err := http.Get(server.URL + api.RouteCorrespondents)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// An unknown bearer token degrades to anonymous, not to an error.
	req, err := http.NewRequest(http.MethodGet, server.URL+api.RoutePendingFilled, nil)
	require.NoError(t, err)
	req.Header.Set(common.AccessTokenHeaderName, common.BearerPrefix+"no-such-token")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	c := client.New(server.URL)
	require.NoError(t, c.Register(ctx, "carol", "right-password", "Carol"))

	err := c.Login(ctx, "carol", "wrong-password")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	err = c.Login(ctx, "nobody", "right-password")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	c := client.New(server.URL)
	require.NoError(t, c.Register(ctx, "dave", "pw", "Dave"))

	err := c.Register(ctx, "dave", "other-pw", "Dave Again")
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestLogoutRevokesSession(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	c := newLoggedInClient(t, server.URL, "erin", "pw", "Erin")
	token := c.AccessToken()
	require.NotEmpty(t, token)

	require.NoError(t, c.Logout(ctx))

	// The revoked token no longer opens authenticated routes.
	revoked := client.New(server.URL, client.WithAccessToken(token))
	_, err := revoked.Correspondents(ctx)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestPublicKeyLookupIsUnauthenticated(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	c := newLoggedInClient(t, server.URL, "frank", "pw", "Frank")
	code, err := c.GenerateCode(ctx)
	require.NoError(t, err)

	peers := federation.New(federation.WithRetries(0))
	pk, err := peers.GetPublicKey(ctx, server.URL, code)
	require.NoError(t, err)
	assert.NotEmpty(t, pk.CorrespondenceInitID)
	assert.NotEmpty(t, pk.CorrespondenceInitPublicKey)

	_, err = peers.GetPublicKey(ctx, server.URL, "no-such-code")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

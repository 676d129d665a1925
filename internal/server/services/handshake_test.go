package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/cryptox"
	"github.com/plume-im/plume/internal/server/models"
	"github.com/plume-im/plume/internal/server/storage"
)

// localPeers routes federated pushes to in-process services by URL.
type localPeers struct {
	handshakes map[string]*HandshakeService
	exchanges  map[string]*ExchangeService
}

func (p *localPeers) FillInfos(ctx context.Context, serverURL string, req *api.FillInfosRequest) error {
	return p.handshakes[serverURL].FillInfos(ctx, req)
}

func (p *localPeers) ReceiveFilledRequestAnswer(ctx context.Context, serverURL string, req *api.FilledRequestAnswer) error {
	return p.handshakes[serverURL].ReceiveFilledRequestAnswer(ctx, req)
}

func (p *localPeers) FullyAcceptRequest(ctx context.Context, serverURL string, req *api.FullyAcceptRequest) (*api.FullyAcceptResponse, error) {
	return p.handshakes[serverURL].FullyAcceptRequest(ctx, req)
}

func (p *localPeers) ReceiveMessage(ctx context.Context, serverURL string, req *api.ReceiveMessageRequest) (*api.ReceiveMessageResponse, error) {
	return p.exchanges[serverURL].ReceiveMessage(ctx, req)
}

// failingPeers simulates an unreachable counterpart server.
type failingPeers struct{}

var errPeerDown = errors.New("peer unreachable")

func (failingPeers) FillInfos(context.Context, string, *api.FillInfosRequest) error {
	return errPeerDown
}

func (failingPeers) ReceiveFilledRequestAnswer(context.Context, string, *api.FilledRequestAnswer) error {
	return errPeerDown
}

func (failingPeers) FullyAcceptRequest(context.Context, string, *api.FullyAcceptRequest) (*api.FullyAcceptResponse, error) {
	return nil, errPeerDown
}

func (failingPeers) ReceiveMessage(context.Context, string, *api.ReceiveMessageRequest) (*api.ReceiveMessageResponse, error) {
	return nil, errPeerDown
}

type testWorld struct {
	storeA, storeB storage.Store
	hsA, hsB       *HandshakeService
	exA, exB       *ExchangeService
	alice, bob     *models.Session
}

const (
	urlA = "http://a.example"
	urlB = "http://b.example"
)

func newTestWorld() *testWorld {
	storeA := storage.NewMemoryStore()
	storeB := storage.NewMemoryStore()

	peers := &localPeers{
		handshakes: map[string]*HandshakeService{},
		exchanges:  map[string]*ExchangeService{},
	}

	hsA := NewHandshakeService(storeA, peers, urlA)
	hsB := NewHandshakeService(storeB, peers, urlB)
	exA := NewExchangeService(storeA, peers)
	exB := NewExchangeService(storeB, peers)

	peers.handshakes[urlA] = hsA
	peers.handshakes[urlB] = hsB
	peers.exchanges[urlA] = exA
	peers.exchanges[urlB] = exB

	return &testWorld{
		storeA: storeA, storeB: storeB,
		hsA: hsA, hsB: hsB,
		exA: exA, exB: exB,
		alice: &models.Session{ID: "s-a", UserID: "alice"},
		bob:   &models.Session{ID: "s-b", UserID: "bob"},
	}
}

func env(tag string) cryptox.Envelope {
	return cryptox.Envelope{Content: tag + "-ct", IV: tag + "-iv"}
}

// runHandshake drives the full five-phase exchange between alice (initiator
// on server A) and bob (target on server B), returning the init id.
func runHandshake(t *testing.T, w *testWorld) string {
	t.Helper()
	ctx := context.Background()

	codeResp, err := w.hsA.GenerateCode(ctx, w.alice, &api.GenerateCodeRequest{
		CorrespondenceInitPublicKey:  "alice-pub",
		CorrespondenceInitPrivateKey: env("alice-priv"),
	})
	require.NoError(t, err)

	pk, err := w.hsA.GetPublicKey(ctx, codeResp.CorrespondenceCode)
	require.NoError(t, err)
	assert.Equal(t, "alice-pub", pk.CorrespondenceInitPublicKey)

	err = w.hsB.CreateAnswered(ctx, w.bob, &api.CreateAnsweredRequest{
		CorrespondenceInitID:  pk.CorrespondenceInitID,
		CorrespondenceKeyMK:   env("bob-key"),
		ServerURL:             urlA,
		CorrespondenceKeyCIPK: "wrapped-key",
		DisplayNameCK:         env("bob-name"),
	})
	require.NoError(t, err)

	pending, err := w.hsA.PendingFilledRequests(ctx, w.alice)
	require.NoError(t, err)
	require.Len(t, pending.Requests, 1)
	assert.Equal(t, "wrapped-key", pending.Requests[0].CorrespondenceKeyCIPK)
	assert.Equal(t, env("alice-priv"), pending.Requests[0].CorrespondenceInitPrivateKeyMK)

	err = w.hsA.AnswerFilledRequest(ctx, w.alice, &api.AnswerFilledRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		CorrespondenceKeyMK:  env("alice-key"),
		UserDisplayNameCK:    env("alice-name"),
	})
	require.NoError(t, err)

	pendingB, err := w.hsB.PendingFullyFilledRequests(ctx, w.bob)
	require.NoError(t, err)
	require.Len(t, pendingB.Requests, 1)
	assert.Equal(t, urlA, pendingB.Requests[0].ServerURL)
	assert.Equal(t, env("alice-name"), pendingB.Requests[0].UserDisplayNameCK)

	err = w.hsB.MarkAcceptedRequest(ctx, w.bob, &api.MarkAcceptedRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
	})
	require.NoError(t, err)

	return pk.CorrespondenceInitID
}

func TestHandshake_FullExchange(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()

	initID := runHandshake(t, w)

	corrA, err := w.storeA.Correspondents().ListForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, corrA, 1)
	corrB, err := w.storeB.Correspondents().ListForUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, corrB, 1)

	// Each side holds the token the other will present.
	assert.True(t, corrA[0].IsInitiator)
	assert.False(t, corrB[0].IsInitiator)
	assert.Equal(t, corrA[0].IncomingAccessToken, corrB[0].OutgoingAccessToken)
	assert.Equal(t, corrB[0].IncomingAccessToken, corrA[0].OutgoingAccessToken)
	assert.NotEqual(t, corrA[0].IncomingAccessToken, corrB[0].IncomingAccessToken)

	// Each side kept its own wrapped correspondence key and the peer's name.
	assert.Equal(t, env("alice-key"), corrA[0].CorrespondenceKeyMK)
	assert.Equal(t, env("bob-name"), corrA[0].UserDisplayNameCK)
	assert.Equal(t, env("bob-key"), corrB[0].CorrespondenceKeyMK)
	assert.Equal(t, env("alice-name"), corrB[0].UserDisplayNameCK)
	assert.Equal(t, urlB, corrA[0].ServerURL)
	assert.Equal(t, urlA, corrB[0].ServerURL)

	// Transient records are consumed.
	_, err = w.storeA.Handshakes().FindAcceptedRelayByInitID(ctx, initID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = w.storeB.Handshakes().FindFullyFilledByInitID(ctx, initID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetPublicKey_UnknownCode(t *testing.T) {
	w := newTestWorld()

	_, err := w.hsA.GetPublicKey(context.Background(), "no-such-code")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFillInfos_UnknownInit(t *testing.T) {
	w := newTestWorld()

	err := w.hsA.FillInfos(context.Background(), &api.FillInfosRequest{
		CorrespondenceInitID: "no-such-init",
	})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFillInfos_RedeliveryIsAccepted(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()

	codeResp, err := w.hsA.GenerateCode(ctx, w.alice, &api.GenerateCodeRequest{})
	require.NoError(t, err)
	pk, err := w.hsA.GetPublicKey(ctx, codeResp.CorrespondenceCode)
	require.NoError(t, err)

	push := &api.FillInfosRequest{
		CorrespondenceInitID:  pk.CorrespondenceInitID,
		CorrespondenceKeyCIPK: "wrapped-key",
		DisplayNameCK:         env("bob-name"),
		ServerURL:             urlB,
	}
	require.NoError(t, w.hsA.FillInfos(ctx, push))

	// A counterpart that never saw our ack resends the same push; it must
	// be acknowledged, not rejected, or its local answer stays rolled back.
	err = w.hsA.FillInfos(ctx, push)
	assert.NoError(t, err)

	pending, err := w.hsA.PendingFilledRequests(ctx, w.alice)
	require.NoError(t, err)
	require.Len(t, pending.Requests, 1)
	assert.Equal(t, "wrapped-key", pending.Requests[0].CorrespondenceKeyCIPK)
}

func TestReceiveFilledRequestAnswer_RedeliveryIsAccepted(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()

	codeResp, err := w.hsA.GenerateCode(ctx, w.alice, &api.GenerateCodeRequest{})
	require.NoError(t, err)
	pk, err := w.hsA.GetPublicKey(ctx, codeResp.CorrespondenceCode)
	require.NoError(t, err)
	require.NoError(t, w.hsB.CreateAnswered(ctx, w.bob, &api.CreateAnsweredRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		ServerURL:            urlA,
	}))
	require.NoError(t, w.hsA.AnswerFilledRequest(ctx, w.alice, &api.AnswerFilledRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		UserDisplayNameCK:    env("alice-name"),
	}))

	// The answer push already landed via AnswerFilledRequest; a resend of
	// the same answer is acknowledged without duplicating the record.
	err = w.hsB.ReceiveFilledRequestAnswer(ctx, &api.FilledRequestAnswer{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		UserDisplayNameCK:    env("alice-name"),
	})
	assert.NoError(t, err)

	pendingB, err := w.hsB.PendingFullyFilledRequests(ctx, w.bob)
	require.NoError(t, err)
	require.Len(t, pendingB.Requests, 1)

	// The handshake still completes after the redelivery.
	require.NoError(t, w.hsB.MarkAcceptedRequest(ctx, w.bob, &api.MarkAcceptedRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
	}))
}

func TestCreateAnswered_DuplicateAnswerConflicts(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()

	codeResp, err := w.hsA.GenerateCode(ctx, w.alice, &api.GenerateCodeRequest{})
	require.NoError(t, err)
	pk, err := w.hsA.GetPublicKey(ctx, codeResp.CorrespondenceCode)
	require.NoError(t, err)

	answer := &api.CreateAnsweredRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		ServerURL:            urlA,
	}
	require.NoError(t, w.hsB.CreateAnswered(ctx, w.bob, answer))

	err = w.hsB.CreateAnswered(ctx, w.bob, answer)
	assert.ErrorIs(t, err, common.ErrorConflict)

	// A third party answering the same init id conflicts too.
	carol := &models.Session{ID: "s-c", UserID: "carol"}
	err = w.hsB.CreateAnswered(ctx, carol, answer)
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestCreateAnswered_PeerFailureRollsBack(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()

	codeResp, err := w.hsA.GenerateCode(ctx, w.alice, &api.GenerateCodeRequest{})
	require.NoError(t, err)
	pk, err := w.hsA.GetPublicKey(ctx, codeResp.CorrespondenceCode)
	require.NoError(t, err)

	hsDown := NewHandshakeService(w.storeB, failingPeers{}, urlB)

	err = hsDown.CreateAnswered(ctx, w.bob, &api.CreateAnsweredRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		ServerURL:            urlA,
	})
	require.ErrorIs(t, err, errPeerDown)

	// No half-written answer: the same client can retry successfully.
	_, err = w.storeB.Handshakes().FindAnsweredByInitID(ctx, pk.CorrespondenceInitID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	err = w.hsB.CreateAnswered(ctx, w.bob, &api.CreateAnsweredRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		ServerURL:            urlA,
	})
	assert.NoError(t, err)
}

func TestAnswerFilledRequest_Ownership(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()

	codeResp, err := w.hsA.GenerateCode(ctx, w.alice, &api.GenerateCodeRequest{})
	require.NoError(t, err)
	pk, err := w.hsA.GetPublicKey(ctx, codeResp.CorrespondenceCode)
	require.NoError(t, err)
	require.NoError(t, w.hsB.CreateAnswered(ctx, w.bob, &api.CreateAnsweredRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		ServerURL:            urlA,
	}))

	mallory := &models.Session{ID: "s-m", UserID: "mallory"}
	err = w.hsA.AnswerFilledRequest(ctx, mallory, &api.AnswerFilledRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
	})
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestAnswerFilledRequest_BeforeFillIsPrecondition(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()

	codeResp, err := w.hsA.GenerateCode(ctx, w.alice, &api.GenerateCodeRequest{})
	require.NoError(t, err)
	pk, err := w.hsA.GetPublicKey(ctx, codeResp.CorrespondenceCode)
	require.NoError(t, err)

	err = w.hsA.AnswerFilledRequest(ctx, w.alice, &api.AnswerFilledRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
	})
	assert.ErrorIs(t, err, common.ErrorPreconditionFailed)
}

func TestMarkAccepted_OutOfOrder(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()

	err := w.hsB.MarkAcceptedRequest(ctx, w.bob, &api.MarkAcceptedRequest{
		CorrespondenceInitID: "no-such-init",
	})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	codeResp, err := w.hsA.GenerateCode(ctx, w.alice, &api.GenerateCodeRequest{})
	require.NoError(t, err)
	pk, err := w.hsA.GetPublicKey(ctx, codeResp.CorrespondenceCode)
	require.NoError(t, err)
	require.NoError(t, w.hsB.CreateAnswered(ctx, w.bob, &api.CreateAnsweredRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		ServerURL:            urlA,
	}))

	// Answered but not yet fully filled.
	err = w.hsB.MarkAcceptedRequest(ctx, w.bob, &api.MarkAcceptedRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
	})
	assert.ErrorIs(t, err, common.ErrorPreconditionFailed)

	// Ownership check before phase check.
	err = w.hsB.MarkAcceptedRequest(ctx, w.alice, &api.MarkAcceptedRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
	})
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestMarkAccepted_PeerFailureKeepsPending(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()

	codeResp, err := w.hsA.GenerateCode(ctx, w.alice, &api.GenerateCodeRequest{})
	require.NoError(t, err)
	pk, err := w.hsA.GetPublicKey(ctx, codeResp.CorrespondenceCode)
	require.NoError(t, err)
	require.NoError(t, w.hsB.CreateAnswered(ctx, w.bob, &api.CreateAnsweredRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		ServerURL:            urlA,
	}))
	require.NoError(t, w.hsA.AnswerFilledRequest(ctx, w.alice, &api.AnswerFilledRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
	}))

	hsDown := NewHandshakeService(w.storeB, failingPeers{}, urlB)
	err = hsDown.MarkAcceptedRequest(ctx, w.bob, &api.MarkAcceptedRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
	})
	require.ErrorIs(t, err, errPeerDown)

	// The pending request survives for a retry, and no correspondent exists.
	_, err = w.storeB.Handshakes().FindFullyFilledByInitID(ctx, pk.CorrespondenceInitID)
	assert.NoError(t, err)
	corrB, err := w.storeB.Correspondents().ListForUser(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, corrB)

	// Retry through a healthy peer completes the handshake.
	err = w.hsB.MarkAcceptedRequest(ctx, w.bob, &api.MarkAcceptedRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
	})
	assert.NoError(t, err)
}

func TestFullyAccept_WalksChainBeforeMutating(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()

	_, err := w.hsA.FullyAcceptRequest(ctx, &api.FullyAcceptRequest{
		CorrespondenceInitID: "no-such-init",
		AccessToken:          "token",
	})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	codeResp, err := w.hsA.GenerateCode(ctx, w.alice, &api.GenerateCodeRequest{})
	require.NoError(t, err)
	pk, err := w.hsA.GetPublicKey(ctx, codeResp.CorrespondenceCode)
	require.NoError(t, err)

	// Init exists but nothing else: refuse to fabricate the chain.
	_, err = w.hsA.FullyAcceptRequest(ctx, &api.FullyAcceptRequest{
		CorrespondenceInitID: pk.CorrespondenceInitID,
		AccessToken:          "token",
	})
	assert.ErrorIs(t, err, common.ErrorPreconditionFailed)

	corrA, listErr := w.storeA.Correspondents().ListForUser(ctx, "alice")
	require.NoError(t, listErr)
	assert.Empty(t, corrA)
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/server/models"
	"github.com/plume-im/plume/internal/server/storage"
)

func payload(tag string) api.MessagePayload {
	return api.MessagePayload{
		TitleCK:    env(tag + "-title"),
		CategoryCK: env(tag + "-cat"),
		BodyCK:     env(tag + "-body"),
	}
}

func correspondentID(t *testing.T, store storage.Store, userID string) string {
	t.Helper()
	list, err := store.Correspondents().ListForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0].ID
}

func TestSendMessage_DeliveredBothSides(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()
	runHandshake(t, w)

	sent, err := w.exA.SendMessage(ctx, w.alice, &api.SendMessageRequest{
		CorrespondentID: correspondentID(t, w.storeA, "alice"),
		Message:         payload("hi"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, sent.ExchangeID)

	msgsA, err := w.exA.ListMessages(ctx, w.alice)
	require.NoError(t, err)
	require.Len(t, msgsA.Messages, 1)
	assert.Equal(t, sent.ExchangeID, msgsA.Messages[0].ExchangeID)
	assert.Equal(t, env("hi-body"), msgsA.Messages[0].BodyCK)
	assert.Equal(t, env("alice-key"), msgsA.Messages[0].CorrespondenceKeyMK)

	msgsB, err := w.exB.ListMessages(ctx, w.bob)
	require.NoError(t, err)
	require.Len(t, msgsB.Messages, 1)
	assert.Equal(t, sent.ExchangeID, msgsB.Messages[0].ExchangeID)
	assert.Equal(t, env("hi-body"), msgsB.Messages[0].BodyCK)
	// The receiving side sees its own wrapped correspondence key.
	assert.Equal(t, env("bob-key"), msgsB.Messages[0].CorrespondenceKeyMK)
}

func TestSendMessage_ReplyReusesExchange(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()
	runHandshake(t, w)

	sent, err := w.exA.SendMessage(ctx, w.alice, &api.SendMessageRequest{
		CorrespondentID: correspondentID(t, w.storeA, "alice"),
		Message:         payload("first"),
	})
	require.NoError(t, err)

	reply, err := w.exB.SendMessage(ctx, w.bob, &api.SendMessageRequest{
		CorrespondentID: correspondentID(t, w.storeB, "bob"),
		ExchangeID:      sent.ExchangeID,
		Message:         payload("second"),
	})
	require.NoError(t, err)
	assert.Equal(t, sent.ExchangeID, reply.ExchangeID)

	msgsA, err := w.exA.ListMessages(ctx, w.alice)
	require.NoError(t, err)
	require.Len(t, msgsA.Messages, 2)
	// Newest first.
	assert.Equal(t, env("second-body"), msgsA.Messages[0].BodyCK)
	assert.Equal(t, env("first-body"), msgsA.Messages[1].BodyCK)

	msgsB, err := w.exB.ListMessages(ctx, w.bob)
	require.NoError(t, err)
	assert.Len(t, msgsB.Messages, 2)
}

func TestSendMessage_ForeignCorrespondent(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()
	runHandshake(t, w)

	_, err := w.exA.SendMessage(ctx, &models.Session{ID: "s-m", UserID: "mallory"}, &api.SendMessageRequest{
		CorrespondentID: correspondentID(t, w.storeA, "alice"),
		Message:         payload("stolen"),
	})
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestSendMessage_PeerFailureRollsBack(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()
	runHandshake(t, w)

	exDown := NewExchangeService(w.storeA, failingPeers{})
	_, err := exDown.SendMessage(ctx, w.alice, &api.SendMessageRequest{
		CorrespondentID: correspondentID(t, w.storeA, "alice"),
		Message:         payload("lost"),
	})
	require.ErrorIs(t, err, errPeerDown)

	msgsA, err := w.exA.ListMessages(ctx, w.alice)
	require.NoError(t, err)
	assert.Empty(t, msgsA.Messages)
}

func TestReceiveMessage_BadToken(t *testing.T) {
	w := newTestWorld()
	runHandshake(t, w)

	_, err := w.exA.ReceiveMessage(context.Background(), &api.ReceiveMessageRequest{
		AccessToken: "not-a-token",
		NewExchange: true,
		Message:     payload("spoofed"),
	})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestReceiveMessage_ForeignExchange(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()
	runHandshake(t, w)

	// Bob opens a thread with alice.
	sent, err := w.exB.SendMessage(ctx, w.bob, &api.SendMessageRequest{
		CorrespondentID: correspondentID(t, w.storeB, "bob"),
		Message:         payload("opening"),
	})
	require.NoError(t, err)

	// A second correspondent of alice's must not post into bob's thread.
	other, err := w.storeA.Correspondents().Create(ctx, &models.Correspondent{
		ForUserID:           "alice",
		IncomingAccessToken: "other-incoming",
		OutgoingAccessToken: "other-outgoing",
	})
	require.NoError(t, err)

	_, err = w.exA.ReceiveMessage(ctx, &api.ReceiveMessageRequest{
		AccessToken: other.IncomingAccessToken,
		ExchangeID:  sent.ExchangeID,
		Message:     payload("hijack"),
	})
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestReceiveMessage_MissingExchangeID(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()
	runHandshake(t, w)

	corrA, err := w.storeA.Correspondents().ListForUser(ctx, "alice")
	require.NoError(t, err)

	_, err = w.exA.ReceiveMessage(ctx, &api.ReceiveMessageRequest{
		AccessToken: corrA[0].IncomingAccessToken,
		Message:     payload("dangling"),
	})
	assert.ErrorIs(t, err, common.ErrorInvalidInput)
}

func TestListCorrespondents(t *testing.T) {
	w := newTestWorld()
	ctx := context.Background()
	runHandshake(t, w)

	resp, err := w.exA.ListCorrespondents(ctx, w.alice)
	require.NoError(t, err)
	require.Len(t, resp.Correspondents, 1)
	assert.True(t, resp.Correspondents[0].IsInitiator)
	assert.Equal(t, env("bob-name"), resp.Correspondents[0].UserDisplayNameCK)
	assert.Equal(t, urlB, resp.Correspondents[0].ServerURL)

	empty, err := w.exA.ListCorrespondents(ctx, &models.Session{ID: "s-x", UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, empty.Correspondents)
}

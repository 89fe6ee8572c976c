package queue

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketgate/waitroom-server/pkg/store"
)

func TestApplyIssuesSequentialPositions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	first, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Position)
	assert.Equal(t, fmt.Sprintf("%v:1", store.TicketPrefix+queueId), first.Id)
	assert.Len(t, first.AuthCode, authCodeLength)
	assert.NotZero(t, first.IssueTime)

	second, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Position)
	assert.NotEqual(t, first.AuthCode, second.AuthCode)

	q, err := env.repo.Find(ctx, queueId)
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Head)
	assert.Equal(t, int64(2), q.Tail)
}

func TestApplyQueueNotExist(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.lifecycle.Apply(context.Background(), "q:nothing")
	assert.ErrorIs(t, err, ErrQueueNotExist)
}

func TestApplyEmitsCallbackNotification(t *testing.T) {
	env := newTestEnv(t)
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(context.Background(), queueId)
	require.NoError(t, err)

	notification := <-env.lifecycle.Notifications
	assert.Equal(t, ticket.Id, notification.TicketId)
	assert.Equal(t, ticket.AuthCode, notification.AuthCode)
	assert.Equal(t, queueId, notification.QueueId)
	assert.Equal(t, int64(1), notification.Position)
}

func TestActivateLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)
	env.sweep(t, queueId)

	auth := &TicketAuth{
		Token:    ticket.Token(),
		TicketId: ticket.Id,
		QueueId:  queueId,
		Position: ticket.Position,
		AuthCode: ticket.AuthCode,
	}

	require.NoError(t, env.lifecycle.Activate(ctx, auth))

	// Cohort membership is mutually exclusive: activation moved the
	// ticket out of ready and its token into active.
	_, inReady, err := env.store.SortedSetScore(ctx, store.ReadySetKey(queueId), ticket.Id)
	require.NoError(t, err)
	assert.False(t, inReady)
	_, inActive, err := env.store.SortedSetScore(ctx, store.ActiveSetKey(queueId), ticket.Token())
	require.NoError(t, err)
	assert.True(t, inActive)

	stored := &Ticket{}
	found, err := env.store.HashGetAllScan(ctx, ticket.Id, stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotZero(t, stored.ActivateTime)
	assert.Equal(t, int64(1), stored.CountOfUsage)
	assert.False(t, stored.Occupied)
}

func TestActivateChecksAuthBeforeState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)
	env.sweep(t, queueId)

	// Wrong code on a ready ticket reveals nothing but the mismatch.
	badAuth := &TicketAuth{
		Token:    ticket.Id + ":wrong",
		TicketId: ticket.Id,
		QueueId:  queueId,
		AuthCode: "wrong",
	}
	assert.ErrorIs(t, env.lifecycle.Activate(ctx, badAuth), ErrMismatchAuthCode)

	// Same for a ticket that does not exist at all.
	missingAuth := &TicketAuth{
		Token:    store.TicketKey(queueId, 99) + ":wrong",
		TicketId: store.TicketKey(queueId, 99),
		QueueId:  queueId,
		AuthCode: "wrong",
	}
	assert.ErrorIs(t, env.lifecycle.Activate(ctx, missingAuth), ErrMismatchAuthCode)
}

func TestActivateTwiceReportsAlreadyActivated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)
	env.sweep(t, queueId)

	auth := &TicketAuth{Token: ticket.Token(), TicketId: ticket.Id, QueueId: queueId, AuthCode: ticket.AuthCode}
	require.NoError(t, env.lifecycle.Activate(ctx, auth))
	assert.ErrorIs(t, env.lifecycle.Activate(ctx, auth), ErrTicketAlreadyActivated)
}

func TestActivateBeforeAdmission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	// Issued but never admitted by a sweep: not ready.
	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)

	auth := &TicketAuth{Token: ticket.Token(), TicketId: ticket.Id, QueueId: queueId, AuthCode: ticket.AuthCode}
	assert.ErrorIs(t, env.lifecycle.Activate(ctx, auth), ErrTicketNotReadyForActivate)
}

func TestActivateAfterWindowLapsed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)
	env.sweep(t, queueId)

	env.lapse(t, store.ReadySetKey(queueId), ticket.Id)
	result := env.sweep(t, queueId)
	assert.Equal(t, int64(0), result.Admitted)

	auth := &TicketAuth{Token: ticket.Token(), TicketId: ticket.Id, QueueId: queueId, AuthCode: ticket.AuthCode}
	assert.ErrorIs(t, env.lifecycle.Activate(ctx, auth), ErrTicketNotReadyForActivate)
}

func TestVerifyAndOccupy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)
	env.sweep(t, queueId)

	auth := &TicketAuth{Token: ticket.Token(), TicketId: ticket.Id, QueueId: queueId, AuthCode: ticket.AuthCode}
	require.NoError(t, env.lifecycle.Activate(ctx, auth))

	// Usage only ever goes up: 1 from activate, then one per verify.
	usage, err := env.lifecycle.Verify(ctx, auth)
	require.NoError(t, err)
	assert.Equal(t, int64(2), usage)
	usage, err = env.lifecycle.Verify(ctx, auth)
	require.NoError(t, err)
	assert.Equal(t, int64(3), usage)

	require.NoError(t, env.lifecycle.Occupy(ctx, auth))
	_, err = env.lifecycle.Verify(ctx, auth)
	assert.ErrorIs(t, err, ErrTicketOccupied)

	// Occupied is orthogonal to membership; the token stays active.
	_, inActive, err := env.store.SortedSetScore(ctx, store.ActiveSetKey(queueId), ticket.Token())
	require.NoError(t, err)
	assert.True(t, inActive)
}

func TestVerifyNotActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)

	auth := &TicketAuth{Token: ticket.Token(), TicketId: ticket.Id, QueueId: queueId, AuthCode: ticket.AuthCode}
	_, err = env.lifecycle.Verify(ctx, auth)
	assert.ErrorIs(t, err, ErrTicketNotActive)

	err = env.lifecycle.Occupy(ctx, auth)
	assert.ErrorIs(t, err, ErrTicketNotActive)
}

func TestVerifyLapsedSessionBeforeSweep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)
	env.sweep(t, queueId)

	auth := &TicketAuth{Token: ticket.Token(), TicketId: ticket.Id, QueueId: queueId, AuthCode: ticket.AuthCode}
	require.NoError(t, env.lifecycle.Activate(ctx, auth))

	// Session lapses but the sweep has not pruned the entry yet. The
	// lazy read and the sweep agree: not active either way.
	env.lapse(t, store.ActiveSetKey(queueId), ticket.Token())
	_, err = env.lifecycle.Verify(ctx, auth)
	assert.ErrorIs(t, err, ErrTicketNotActive)

	env.sweep(t, queueId)
	_, inActive, err := env.store.SortedSetScore(ctx, store.ActiveSetKey(queueId), ticket.Token())
	require.NoError(t, err)
	assert.False(t, inActive)
	_, err = env.lifecycle.Verify(ctx, auth)
	assert.ErrorIs(t, err, ErrTicketNotActive)
}

func TestRevoke(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)
	env.sweep(t, queueId)

	auth := &TicketAuth{Token: ticket.Token(), TicketId: ticket.Id, QueueId: queueId, AuthCode: ticket.AuthCode}
	require.NoError(t, env.lifecycle.Activate(ctx, auth))
	require.NoError(t, env.lifecycle.Revoke(ctx, auth))

	found, err := env.store.HashGetAllScan(ctx, ticket.Id, &Ticket{})
	require.NoError(t, err)
	assert.False(t, found)
	_, inActive, err := env.store.SortedSetScore(ctx, store.ActiveSetKey(queueId), ticket.Token())
	require.NoError(t, err)
	assert.False(t, inActive)

	// Every further operation on the revoked ticket is a domain error,
	// never a silent success against stale state.
	assert.ErrorIs(t, env.lifecycle.Revoke(ctx, auth), ErrMismatchAuthCode)
	assert.ErrorIs(t, env.lifecycle.Activate(ctx, auth), ErrMismatchAuthCode)
	_, err = env.lifecycle.Verify(ctx, auth)
	assert.ErrorIs(t, err, ErrTicketNotActive)
}

func TestRevokeWrongAuthCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)

	badAuth := &TicketAuth{Token: ticket.Id + ":wrong", TicketId: ticket.Id, QueueId: queueId, AuthCode: "wrong"}
	assert.ErrorIs(t, env.lifecycle.Revoke(ctx, badAuth), ErrMismatchAuthCode)

	// The record survives a failed revocation.
	found, err := env.store.HashGetAllScan(ctx, ticket.Id, &Ticket{})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestUsageStat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	queueId := env.setupQueue(t, testQueueConfig())

	ticket, err := env.lifecycle.Apply(ctx, queueId)
	require.NoError(t, err)
	env.sweep(t, queueId)

	auth := &TicketAuth{Token: ticket.Token(), TicketId: ticket.Id, QueueId: queueId, AuthCode: ticket.AuthCode}

	_, err = env.lifecycle.UsageStat(ctx, auth)
	assert.ErrorIs(t, err, ErrTicketNotActive)

	require.NoError(t, env.lifecycle.Activate(ctx, auth))
	_, err = env.lifecycle.Verify(ctx, auth)
	require.NoError(t, err)

	stat, err := env.lifecycle.UsageStat(ctx, auth)
	require.NoError(t, err)
	assert.NotZero(t, stat.ActivateTime)
	assert.Equal(t, int64(2), stat.CountOfUsage)

	// Reading stats does not count as usage.
	stat, err = env.lifecycle.UsageStat(ctx, auth)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stat.CountOfUsage)
}

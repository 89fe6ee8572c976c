package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"ticketgate/waitroom-server/pkg/infra"
	"ticketgate/waitroom-server/pkg/store"
)

// Lifecycle drives tickets through issued → ready → active → occupied
// → revoked/expired. Every transition is one atomic store procedure,
// so concurrent requests and the admission sweep interleave only at
// procedure granularity.
type Lifecycle struct {
	// Issuance notifications for the callback deliverer. Dropped when
	// the buffer is full; callbacks are best effort.
	Notifications chan *IssueNotification

	store  *store.Store
	logger *zap.SugaredLogger
}

func ProvideLifecycle(store *store.Store, loggerFactory *infra.LoggerFactory) *Lifecycle {
	return &Lifecycle{
		Notifications: make(chan *IssueNotification, 1024),
		store:         store,
		logger:        loggerFactory.Create("Lifecycle").Sugar(),
	}
}

// Apply issues the next ticket of the queue. The existence check and
// the tail increment run in the same procedure so no ticket is issued
// for a queue that is concurrently being closed.
func (l *Lifecycle) Apply(ctx context.Context, queueId string) (*Ticket, error) {
	authCode, err := gonanoid.Generate(codeAlphabet, authCodeLength)
	if err != nil {
		return nil, err
	}
	issueTime := time.Now().Unix()

	reply, err := l.runProc(ctx, store.ApplyProc, []string{queueId}, authCode, issueTime)
	if err != nil {
		return nil, err
	}
	if err := errorFor(ResultCode(reply[0])); err != nil {
		return nil, err
	}

	position := reply[1]
	ticket := &Ticket{
		Id:        store.TicketKey(queueId, position),
		AuthCode:  authCode,
		IssueTime: issueTime,
		Position:  position,
	}
	l.logger.Infof("issued ticket[%v] for queue[%v]", ticket.Id, queueId)

	select {
	case l.Notifications <- &IssueNotification{
		TicketId: ticket.Id,
		AuthCode: authCode,
		QueueId:  queueId,
		Position: position,
	}:
	default:
		l.logger.Warnf("notification buffer full, dropped callback for ticket[%v]", ticket.Id)
	}

	return ticket, nil
}

// Activate promotes a ready ticket into the active cohort. The
// procedure checks auth first, then already-active, then readiness.
func (l *Lifecycle) Activate(ctx context.Context, auth *TicketAuth) error {
	keys := []string{
		auth.TicketId,
		store.ActiveSetKey(auth.QueueId),
		store.ReadySetKey(auth.QueueId),
		auth.QueueId,
	}
	reply, err := l.runProc(ctx, store.ActivateProc, keys, auth.AuthCode, time.Now().Unix())
	if err != nil {
		return err
	}
	if err := errorFor(ResultCode(reply[0])); err != nil {
		return err
	}

	l.logger.Infof("activated ticket[%v]", auth.TicketId)
	return nil
}

// Verify authorizes one use of an active, unoccupied ticket and counts
// it. The protected resource calls this on every request.
func (l *Lifecycle) Verify(ctx context.Context, auth *TicketAuth) (int64, error) {
	keys := []string{store.ActiveSetKey(auth.QueueId), auth.TicketId}
	reply, err := l.runProc(ctx, store.VerifyProc, keys, auth.Token, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	if err := errorFor(ResultCode(reply[0])); err != nil {
		return 0, err
	}
	return reply[1], nil
}

// Occupy marks the ticket's underlying resource as consumed.
func (l *Lifecycle) Occupy(ctx context.Context, auth *TicketAuth) error {
	keys := []string{store.ActiveSetKey(auth.QueueId), auth.TicketId}
	reply, err := l.runProc(ctx, store.OccupyProc, keys, auth.Token, time.Now().Unix())
	if err != nil {
		return err
	}
	return errorFor(ResultCode(reply[0]))
}

// Revoke removes the ticket from both cohorts and deletes its record.
func (l *Lifecycle) Revoke(ctx context.Context, auth *TicketAuth) error {
	keys := []string{
		auth.TicketId,
		store.ActiveSetKey(auth.QueueId),
		store.ReadySetKey(auth.QueueId),
	}
	reply, err := l.runProc(ctx, store.RevokeProc, keys, auth.AuthCode)
	if err != nil {
		return err
	}
	if err := errorFor(ResultCode(reply[0])); err != nil {
		return err
	}

	l.logger.Infof("revoked ticket[%v]", auth.TicketId)
	return nil
}

// UsageStat reads activation time and usage count of an active ticket.
func (l *Lifecycle) UsageStat(ctx context.Context, auth *TicketAuth) (*UsageStat, error) {
	keys := []string{store.ActiveSetKey(auth.QueueId), auth.TicketId}
	result, err := l.store.RunScript(ctx, store.UsageStatProc, keys, auth.Token, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	raw, ok := result.([]interface{})
	if !ok || len(raw) != 3 {
		return nil, fmt.Errorf("malformed usage stat reply %v", result)
	}
	code, err := replyInt(raw[0])
	if err != nil {
		return nil, err
	}
	if err := errorFor(ResultCode(code)); err != nil {
		return nil, err
	}

	activateTime, err := replyInt(raw[1])
	if err != nil {
		return nil, err
	}
	countOfUsage, err := replyInt(raw[2])
	if err != nil {
		return nil, err
	}
	return &UsageStat{ActivateTime: activateTime, CountOfUsage: countOfUsage}, nil
}

func (l *Lifecycle) runProc(ctx context.Context, proc *redis.Script, keys []string, args ...interface{}) ([]int64, error) {
	result, err := l.store.RunScript(ctx, proc, keys, args...)
	if err != nil {
		return nil, err
	}
	return replyInts(result)
}

package notify

import (
	"context"
	"errors"

	"github.com/imroc/req/v3"
	"go.uber.org/zap"

	"ticketgate/waitroom-server/pkg/config"
	"ticketgate/waitroom-server/pkg/infra"
	"ticketgate/waitroom-server/pkg/queue"
)

// Notifier delivers issuance callbacks to each queue's configured
// callbackURL. Delivery is best effort and fully decoupled from the
// applying client's request: failures are logged, never surfaced.
type Notifier struct {
	lifecycle  *queue.Lifecycle
	repo       *queue.Repo
	httpClient *req.Client
	logger     *zap.SugaredLogger
}

func ProvideNotifier(lifecycle *queue.Lifecycle, repo *queue.Repo, httpClient *req.Client, loggerFactory *infra.LoggerFactory) *Notifier {
	return &Notifier{
		lifecycle:  lifecycle,
		repo:       repo,
		httpClient: httpClient,
		logger:     loggerFactory.Create("Notifier").Sugar(),
	}
}

func (n *Notifier) Run() {
	for i := 0; i < *config.CFG.CallbackWorkers; i++ {
		go n.deliveryWorker()
	}
}

func (n *Notifier) deliveryWorker() {
	for notification := range n.lifecycle.Notifications {
		n.deliver(context.Background(), notification)
	}
}

func (n *Notifier) deliver(ctx context.Context, notification *queue.IssueNotification) {
	q, err := n.repo.Find(ctx, notification.QueueId)
	if errors.Is(err, queue.ErrQueueNotExist) {
		// Queue closed between issuance and delivery, nothing to call.
		return
	}
	if err != nil {
		n.logger.Errorf("cannot resolve callback url for queue[%v] %v", notification.QueueId, err)
		return
	}
	if q.CallbackURL == "" {
		return
	}

	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(notification).
		Post(q.CallbackURL)

	if err != nil {
		n.logger.Errorf("callback to [%v] failed for ticket[%v] %v", q.CallbackURL, notification.TicketId, err)
		return
	}
	if resp.IsError() {
		n.logger.Errorf("callback to [%v] failed with status[%v] for ticket[%v]", q.CallbackURL, resp.Status, notification.TicketId)
		return
	}

	n.logger.Infof("delivered callback for ticket[%v] to [%v]", notification.TicketId, q.CallbackURL)
}

package main

import (
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ticketgate/waitroom-server/pkg/client"
	"ticketgate/waitroom-server/pkg/infra"
	"ticketgate/waitroom-server/pkg/notify"
	"ticketgate/waitroom-server/pkg/queue"
	"ticketgate/waitroom-server/pkg/store"
)

type Application struct {
	repo      *queue.Repo
	lifecycle *queue.Lifecycle
	scheduler *queue.Scheduler
	hub       *client.Hub
	notifier  *notify.Notifier

	wsUpgrader *websocket.Upgrader
	logger     *zap.SugaredLogger
}

func ProvideApplication(
	repo *queue.Repo,
	lifecycle *queue.Lifecycle,
	scheduler *queue.Scheduler,
	hub *client.Hub,
	notifier *notify.Notifier,
	loggerFactory *infra.LoggerFactory,
) *Application {
	return &Application{
		repo:       repo,
		lifecycle:  lifecycle,
		scheduler:  scheduler,
		hub:        hub,
		notifier:   notifier,
		wsUpgrader: &websocket.Upgrader{},
		logger:     loggerFactory.Create("Application").Sugar(),
	}
}

func (a *Application) Run() {
	a.hub.Run()
	a.scheduler.Run()
	a.notifier.Run()
}

// HandleWs subscribes a websocket peer to a queue's status snapshots.
func (a *Application) HandleWs(c echo.Context) error {
	queueId := store.QueueKey(c.QueryParam("qid"))

	// Reject before upgrading so a bad qid costs no connection.
	if _, err := a.repo.Status(c.Request().Context(), queueId); err != nil {
		return respondError(c, err)
	}

	conn, err := a.wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	subscriber, err := client.NewClient(queueId, conn, a.hub)
	if err != nil {
		a.logger.Errorf("cannot create subscriber for queue[%v] %v", queueId, err)
		conn.Close()
		return err
	}
	subscriber.Run()
	return nil
}

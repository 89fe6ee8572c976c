package client

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emirpasic/gods/maps/hashmap"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"go.uber.org/zap"

	"ticketgate/waitroom-server/pkg/config"
	"ticketgate/waitroom-server/pkg/infra"
	"ticketgate/waitroom-server/pkg/msg"
	"ticketgate/waitroom-server/pkg/queue"
)

// Hub fans queue status snapshots out to websocket subscribers. It is
// strictly read-only over queue state: it looks at head/tail and the
// admission-rate window, and never mutates either.
type Hub struct {
	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Key value: queueId -> *linkedhashmap.Map of clientId -> *Client.
	// Insert order preserved so broadcast order is stable.
	subscribers *hashmap.Map

	repo   *queue.Repo
	stats  *queue.Stats
	logger *zap.SugaredLogger
}

func ProvideHub(repo *queue.Repo, stats *queue.Stats, loggerFactory *infra.LoggerFactory) *Hub {
	return &Hub{
		register:    make(chan *Client, 1024),
		unregister:  make(chan *Client, 1024),
		subscribers: hashmap.New(),
		repo:        repo,
		stats:       stats,
		logger:      loggerFactory.Create("Hub").Sugar(),
	}
}

func (h *Hub) Run() {
	go h.worker()
}

// One goroutine owns the subscriber maps, so no lock is needed on
// them.
func (h *Hub) worker() {
	interval := time.Duration(*config.CFG.NotifyStatsIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.logger.Debugf("register client id[%v] queue[%v]", client.id, client.queueId)
			h.queueSubscribers(client.queueId).Put(client.id, client)

		case client := <-h.unregister:
			h.logger.Debugf("unregister client id[%v] queue[%v]", client.id, client.queueId)
			h.removeClient(client)

		case <-ticker.C:
			h.broadcastStatus()
		}
	}
}

func (h *Hub) queueSubscribers(queueId string) *linkedhashmap.Map {
	if value, ok := h.subscribers.Get(queueId); ok {
		return value.(*linkedhashmap.Map)
	}
	clients := linkedhashmap.New()
	h.subscribers.Put(queueId, clients)
	return clients
}

func (h *Hub) removeClient(client *Client) {
	value, ok := h.subscribers.Get(client.queueId)
	if !ok {
		return
	}
	clients := value.(*linkedhashmap.Map)
	clients.Remove(client.id)
	if clients.Size() == 0 {
		h.subscribers.Remove(client.queueId)
	}
	client.TryClose()
}

func (h *Hub) broadcastStatus() {
	ctx := context.Background()

	for _, key := range h.subscribers.Keys() {
		queueId := key.(string)

		status, err := h.repo.Status(ctx, queueId)
		if errors.Is(err, queue.ErrQueueNotExist) {
			h.dropQueue(queueId)
			continue
		}
		if err != nil {
			h.logger.Errorf("cannot read status of queue[%v] %v", queueId, err)
			continue
		}

		estWaitMsec := int64(-1)
		if estWait, ok := h.stats.EstimateWait(queueId, status.Tail-status.Head); ok {
			estWaitMsec = estWait.Milliseconds()
		}

		rawEvent, err := json.Marshal(&msg.QueueStatusServerEvent{
			QueueId:        status.QueueId,
			Head:           status.Head,
			Tail:           status.Tail,
			MaxActiveUsers: status.MaxActiveUsers,
			EstWaitMsec:    estWaitMsec,
		})
		if err != nil {
			h.logger.Errorf("cannot marshal QueueStatusServerEvent %v", err)
			continue
		}

		h.broadcast(queueId, &msg.WsMessage{
			EventCode: msg.QueueStatusCode,
			EventData: rawEvent,
		})
	}
}

func (h *Hub) broadcast(queueId string, wsMessage *msg.WsMessage) {
	value, ok := h.subscribers.Get(queueId)
	if !ok {
		return
	}
	clients := value.(*linkedhashmap.Map)

	for _, v := range clients.Values() {
		client := v.(*Client)
		select {
		case client.sendWsMessage <- wsMessage:
		default:
			// Send buffer full means the client is dead or stuck.
			h.logger.Warnf("client id[%v] send buffer full, dropping it", client.id)
			h.removeClient(client)
		}
	}
}

// dropQueue tells a closed queue's subscribers to go away and forgets
// them.
func (h *Hub) dropQueue(queueId string) {
	rawEvent, err := json.Marshal(&msg.QueueClosedServerEvent{QueueId: queueId})
	if err != nil {
		h.logger.Errorf("cannot marshal QueueClosedServerEvent %v", err)
		return
	}
	h.broadcast(queueId, &msg.WsMessage{
		EventCode: msg.QueueClosedCode,
		EventData: rawEvent,
	})

	value, ok := h.subscribers.Get(queueId)
	if !ok {
		return
	}
	clients := value.(*linkedhashmap.Map)
	for _, v := range clients.Values() {
		v.(*Client).TryClose()
	}
	h.subscribers.Remove(queueId)
	h.logger.Infof("dropped subscribers of closed queue[%v]", queueId)
}

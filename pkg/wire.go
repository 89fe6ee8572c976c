//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"ticketgate/waitroom-server/pkg/client"
	"ticketgate/waitroom-server/pkg/infra"
	"ticketgate/waitroom-server/pkg/notify"
	"ticketgate/waitroom-server/pkg/queue"
	"ticketgate/waitroom-server/pkg/store"
)

func Setup() (*Server, error) {
	wire.Build(wire.NewSet(
		infra.ProvideLoggerFactory,
		infra.ProvideRedisClient,
		infra.ProvideHttpClient,
		store.ProvideStore,
		queue.ProvideRepo,
		queue.ProvideStats,
		queue.ProvideLifecycle,
		queue.ProvideScheduler,
		client.ProvideHub,
		notify.ProvideNotifier,
		ProvideApplication,
		ProvideServer,
	))
	return nil, nil
}

package config

import "flag"

type Config struct {
	SweepIntervalSeconds *int
	SweepLockTTLSeconds  *int

	TicketHashGraceSeconds *int

	NotifyStatsIntervalSeconds *int
	AdmitRateWindowSize        *int

	CallbackWorkers *int

	PingIntervalSeconds *int
}

var CFG = &Config{
	SweepIntervalSeconds:       flag.Int("sweep-interval-seconds", 5, "Interval of the admission sweep that promotes waiting tickets into the ready set."),
	SweepLockTTLSeconds:        flag.Int("sweep-lock-ttl-seconds", 5, "TTL of the fleet-wide sweep lock. A crashed sweeper frees the lock after this long."),
	TicketHashGraceSeconds:     flag.Int("ticket-hash-grace-seconds", 60, "Extra seconds a ticket hash outlives its activation window plus session before redis expires it."),
	NotifyStatsIntervalSeconds: flag.Int("notify-stats-interval-seconds", 5, "Interval to broadcast queue status snapshots to websocket subscribers."),
	AdmitRateWindowSize:        flag.Int("admit-rate-window-size", 50, "The size of sliding window for estimating a queue's admission rate."),
	CallbackWorkers:            flag.Int("callback-workers", 4, "Number of workers delivering issuance callbacks to tenant URLs."),
	PingIntervalSeconds:        flag.Int("ping-interval-seconds", 30, "Send pings to websocket peer with this interval."),
}

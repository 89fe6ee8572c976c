package store

import "fmt"

// Every persisted key carries a type prefix so queue and ticket
// namespaces can never collide: a queue hash is "q:<code>", a ticket
// hash is "t:q:<code>:<position>", and the per-queue indexes prepend
// their own "set:" prefix to the full queue id.
const (
	QueuePrefix     = "q:"
	TicketPrefix    = "t:"
	ReadySetPrefix  = "set:ready:"
	ActiveSetPrefix = "set:active:"

	// Index of every open queue id. The sweep enumerates this.
	AllQueuesKey = "queues"

	// Fleet-wide sweep lease. Whoever SETNXes it owns the tick.
	SweepLockKey = "lock:sweep"
)

func QueueKey(code string) string {
	return QueuePrefix + code
}

func TicketKey(queueId string, position int64) string {
	return fmt.Sprintf("%v%v:%v", TicketPrefix, queueId, position)
}

func ReadySetKey(queueId string) string {
	return ReadySetPrefix + queueId
}

func ActiveSetKey(queueId string) string {
	return ActiveSetPrefix + queueId
}

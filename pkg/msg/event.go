package msg

type EventCode uint

const (
	QueueStatusCode EventCode = 2000
	QueueClosedCode EventCode = 2001
)

// QueueStatusServerEvent is the read-only snapshot broadcast to every
// subscriber of a queue. EstWaitMsec is -1 while no admission rate has
// been observed yet.
type QueueStatusServerEvent struct {
	QueueId        string `json:"queueId"`
	Head           int64  `json:"head"`
	Tail           int64  `json:"tail"`
	MaxActiveUsers int    `json:"maxActiveUsers"`
	EstWaitMsec    int64  `json:"estWaitMsec"`
}

type QueueClosedServerEvent struct {
	QueueId string `json:"queueId"`
}

package queue

// Queue holds a tenant's waiting room. head and tail are positions:
// tail is the most recently issued ticket, head the position up to
// which tickets have been admitted into the ready set. head never
// passes tail; only ticket issuance moves tail and only the admission
// sweep moves head.
type Queue struct {
	Id                          string `redis:"id" json:"queueId"`
	Name                        string `redis:"name" json:"name"`
	Capacity                    int    `redis:"capacity" json:"capacity"`
	MaxActiveUsers              int    `redis:"maxActiveUsers" json:"maxActiveUsers"`
	ActivationWindowSeconds     int    `redis:"activationWindowSeconds" json:"activationWindowSeconds"`
	PermissionExpirationSeconds int    `redis:"permissionExpirationSeconds" json:"permissionExpirationSeconds"`
	CallbackURL                 string `redis:"callbackURL" json:"callbackURL"`
	Head                        int64  `redis:"head" json:"head"`
	Tail                        int64  `redis:"tail" json:"tail"`
}

// Ticket is a claim on one queue position. The auth code is generated
// once at issuance and never changes; it is the bearer secret proving
// ownership, so it only ever travels back to the holder who applied.
type Ticket struct {
	Id           string `redis:"id" json:"ticketId"`
	AuthCode     string `redis:"authCode" json:"authCode"`
	IssueTime    int64  `redis:"issueTime" json:"issueTime"`
	ActivateTime int64  `redis:"activateTime" json:"activateTime"`
	Occupied     bool   `redis:"occupied" json:"occupied"`
	CountOfUsage int64  `redis:"countOfUsage" json:"countOfUsage"`
	Position     int64  `redis:"-" json:"position"`
}

// Token keys active-set membership. It embeds the auth code so knowing
// a ticket id alone is not enough to forge active status.
func (t *Ticket) Token() string {
	return t.Id + ":" + t.AuthCode
}

// QueueStatus is the read-only view the status publisher broadcasts.
type QueueStatus struct {
	QueueId        string `json:"queueId"`
	Head           int64  `json:"head"`
	Tail           int64  `json:"tail"`
	MaxActiveUsers int    `json:"maxActiveUsers"`
}

// IssueNotification is the callback payload delivered to a queue's
// configured callbackURL when a ticket is issued.
type IssueNotification struct {
	TicketId string `json:"ticketId"`
	AuthCode string `json:"authCode"`
	QueueId  string `json:"queueId"`
	Position int64  `json:"position"`
}

// UsageStat is the read-only usage view of an active ticket.
type UsageStat struct {
	ActivateTime int64 `json:"activateTime"`
	CountOfUsage int64 `json:"countOfUsage"`
}

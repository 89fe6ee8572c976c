package queue

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
)

// Ticket tokens travel over the API url-base64 encoded as
// "t:q:<queueCode>:<position>:<authCode>".
var ticketTokenPattern = regexp.MustCompile(`^t:q:[a-zA-Z0-9]+:[1-9][0-9]{0,8}:[a-zA-Z0-9]+$`)

// TicketAuth is the parsed identity a caller presents for lifecycle
// operations on an existing ticket.
type TicketAuth struct {
	Token    string
	TicketId string
	QueueId  string
	Position int64
	AuthCode string
}

// ParseTicketToken validates and splits a decoded ticket token.
func ParseTicketToken(token string) (*TicketAuth, error) {
	if !ticketTokenPattern.MatchString(token) {
		return nil, ErrIllegalTicketAuthFormat
	}

	parts := strings.Split(token, ":")
	position, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return nil, ErrIllegalTicketAuthFormat
	}

	return &TicketAuth{
		Token:    token,
		TicketId: token[:strings.LastIndex(token, ":")],
		QueueId:  "q:" + parts[2],
		Position: position,
		AuthCode: parts[4],
	}, nil
}

// DecodeTicketToken decodes the url-base64 form clients send and
// parses it.
func DecodeTicketToken(encoded string) (*TicketAuth, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return nil, ErrIllegalTicketAuthFormat
	}
	return ParseTicketToken(string(raw))
}

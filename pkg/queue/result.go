package queue

import "net/http"

// ResultCode is the stable outcome code every operation reports, both
// through the API envelope and from the atomic store procedures.
type ResultCode int

const (
	GetQueueStatusSuccess    ResultCode = 20001
	GetQueueConfigSuccess    ResultCode = 20002
	UpdateQueueConfigSuccess ResultCode = 20003
	CloseQueueSuccess        ResultCode = 20004
	GetTicketUsageSuccess    ResultCode = 20005
	TicketAuthorizedSuccess  ResultCode = 20006

	SetupQueueSuccess  ResultCode = 20100
	ApplyTicketSuccess ResultCode = 20101

	SetTicketOccupiedSuccess ResultCode = 20201
	ActivateTicketSuccess    ResultCode = 20202
	RevokeTicketSuccess      ResultCode = 20203

	GeneralValidationError    ResultCode = 40000
	IllegalTicketAuthFormat   ResultCode = 40001
	TicketAlreadyActivated    ResultCode = 40004
	MismatchAuthCode          ResultCode = 40101
	QueueNotExist             ResultCode = 40401
	UndefinedTicketState      ResultCode = 40601
	TicketOccupied            ResultCode = 40901
	MismatchQueueId           ResultCode = 40902
	TicketNotActive           ResultCode = 41201
	TicketNotReadyForActivate ResultCode = 41202

	StoreUnavailable ResultCode = 50301
)

// Error is a terminal domain failure. Retrying one can never succeed;
// only store.UnavailableError is worth retrying.
type Error struct {
	Code       ResultCode
	Message    string
	HTTPStatus int
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrQueueNotExist             = &Error{QueueNotExist, "Queue not exist.", http.StatusNotFound}
	ErrMismatchAuthCode          = &Error{MismatchAuthCode, "Mismatch ticket auth code.", http.StatusUnauthorized}
	ErrTicketAlreadyActivated    = &Error{TicketAlreadyActivated, "Ticket already activated.", http.StatusConflict}
	ErrTicketNotReadyForActivate = &Error{TicketNotReadyForActivate, "This ticket is not ready for activate.", http.StatusPreconditionFailed}
	ErrTicketNotActive           = &Error{TicketNotActive, "This ticket is not active.", http.StatusPreconditionFailed}
	ErrTicketOccupied            = &Error{TicketOccupied, "This ticket has been occupied.", http.StatusConflict}
	ErrMismatchQueueId           = &Error{MismatchQueueId, "This ticket is not belong to the queue.", http.StatusConflict}
	ErrUndefinedTicketState      = &Error{UndefinedTicketState, "New state is not acceptable because it is undefined.", http.StatusNotAcceptable}
	ErrIllegalTicketAuthFormat   = &Error{IllegalTicketAuthFormat, "Illegal ticket auth code format.", http.StatusBadRequest}
)

var errByCode = map[ResultCode]*Error{
	QueueNotExist:             ErrQueueNotExist,
	MismatchAuthCode:          ErrMismatchAuthCode,
	TicketAlreadyActivated:    ErrTicketAlreadyActivated,
	TicketNotReadyForActivate: ErrTicketNotReadyForActivate,
	TicketNotActive:           ErrTicketNotActive,
	TicketOccupied:            ErrTicketOccupied,
	MismatchQueueId:           ErrMismatchQueueId,
	UndefinedTicketState:      ErrUndefinedTicketState,
	IllegalTicketAuthFormat:   ErrIllegalTicketAuthFormat,
}

// errorFor maps a procedure's result code to its domain error, nil for
// any success code.
func errorFor(code ResultCode) error {
	if err, ok := errByCode[code]; ok {
		return err
	}
	return nil
}

func validationError(message string) *Error {
	return &Error{GeneralValidationError, message, http.StatusBadRequest}
}

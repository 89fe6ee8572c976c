package main

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"ticketgate/waitroom-server/pkg/queue"
	"ticketgate/waitroom-server/pkg/store"
)

type apiResponse struct {
	Code    queue.ResultCode `json:"code"`
	Message string           `json:"message"`
	Data    interface{}      `json:"data,omitempty"`
}

func respond(c echo.Context, status int, code queue.ResultCode, message string, data interface{}) error {
	return c.JSON(status, &apiResponse{Code: code, Message: message, Data: data})
}

func respondError(c echo.Context, err error) error {
	var domainErr *queue.Error
	if errors.As(err, &domainErr) {
		return respond(c, domainErr.HTTPStatus, domainErr.Code, domainErr.Message, nil)
	}

	var storeErr *store.UnavailableError
	if errors.As(err, &storeErr) {
		return respond(c, http.StatusServiceUnavailable, queue.StoreUnavailable, "Store unavailable, retry later.", nil)
	}

	return respond(c, http.StatusInternalServerError, 0, err.Error(), nil)
}

func (a *Application) HandleSetupQueue(c echo.Context) error {
	config := &queue.QueueConfig{}
	if err := c.Bind(config); err != nil {
		return respond(c, http.StatusBadRequest, queue.GeneralValidationError, "Invalid request parameter", nil)
	}

	setup, err := a.repo.Setup(c.Request().Context(), config)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, queue.SetupQueueSuccess, "Already set up the queue with your config!", setup)
}

func (a *Application) HandleQueueStatus(c echo.Context) error {
	queueId := store.QueueKey(c.QueryParam("qid"))
	status, err := a.repo.Status(c.Request().Context(), queueId)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, queue.GetQueueStatusSuccess, "Get the queue's runtime status.", status)
}

func (a *Application) HandleQueueConfig(c echo.Context) error {
	queueId := store.QueueKey(c.QueryParam("qid"))
	q, err := a.repo.Find(c.Request().Context(), queueId)
	if err != nil {
		return respondError(c, err)
	}

	config := &queue.QueueConfig{
		Name:                        q.Name,
		Capacity:                    q.Capacity,
		MaxActiveUsers:              q.MaxActiveUsers,
		ActivationWindowSeconds:     q.ActivationWindowSeconds,
		PermissionExpirationSeconds: q.PermissionExpirationSeconds,
		CallbackURL:                 q.CallbackURL,
	}
	return respond(c, http.StatusOK, queue.GetQueueConfigSuccess, "Get the queue's config.", config)
}

func (a *Application) HandleUpdateQueueConfig(c echo.Context) error {
	queueId := store.QueueKey(c.QueryParam("qid"))
	config := &queue.QueueConfig{}
	if err := c.Bind(config); err != nil {
		return respond(c, http.StatusBadRequest, queue.GeneralValidationError, "Invalid request parameter", nil)
	}

	if err := a.repo.UpdateConfig(c.Request().Context(), queueId, config); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, queue.UpdateQueueConfigSuccess, "Update the queue's config success!", nil)
}

func (a *Application) HandleCloseQueue(c echo.Context) error {
	queueId := store.QueueKey(c.QueryParam("qid"))
	if err := a.repo.Close(c.Request().Context(), queueId); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, queue.CloseQueueSuccess, "Already closed and removed the queue!", nil)
}

func (a *Application) HandleApplyTicket(c echo.Context) error {
	queueId := store.QueueKey(c.QueryParam("qid"))
	ticket, err := a.lifecycle.Apply(c.Request().Context(), queueId)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, queue.ApplyTicketSuccess, "Apply ticket success!", ticket)
}

// HandleVerifyTicket authorizes one use of an active ticket on behalf
// of the protected resource.
func (a *Application) HandleVerifyTicket(c echo.Context) error {
	auth, err := queue.DecodeTicketToken(c.QueryParam("ticket"))
	if err != nil {
		return respondError(c, err)
	}
	if auth.QueueId != store.QueueKey(c.QueryParam("qid")) {
		return respondError(c, queue.ErrMismatchQueueId)
	}

	if _, err := a.lifecycle.Verify(c.Request().Context(), auth); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, queue.TicketAuthorizedSuccess, "This ticket was authorized.", nil)
}

func (a *Application) HandleTicketStat(c echo.Context) error {
	auth, err := queue.DecodeTicketToken(c.QueryParam("ticket"))
	if err != nil {
		return respondError(c, err)
	}

	stat, err := a.lifecycle.UsageStat(c.Request().Context(), auth)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, queue.GetTicketUsageSuccess, "Get the ticket usage stat.", stat)
}

type ticketStateRequest struct {
	TicketToken string `json:"ticketToken"`
	State       string `json:"state"`
}

const (
	ticketStateActive   = "ACTIVE"
	ticketStateOccupied = "OCCUPIED"
	ticketStateRevoked  = "REVOKED"
)

// HandleTicketState dispatches the client-driven transitions.
func (a *Application) HandleTicketState(c echo.Context) error {
	request := &ticketStateRequest{}
	if err := c.Bind(request); err != nil {
		return respond(c, http.StatusBadRequest, queue.GeneralValidationError, "Invalid request parameter", nil)
	}

	auth, err := queue.DecodeTicketToken(request.TicketToken)
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	switch request.State {
	case ticketStateActive:
		if err := a.lifecycle.Activate(ctx, auth); err != nil {
			return respondError(c, err)
		}
		return respond(c, http.StatusAccepted, queue.ActivateTicketSuccess, "The ticket has been activated.", nil)

	case ticketStateOccupied:
		if err := a.lifecycle.Occupy(ctx, auth); err != nil {
			return respondError(c, err)
		}
		return respond(c, http.StatusAccepted, queue.SetTicketOccupiedSuccess, "The ticket has been set as occupied.", nil)

	case ticketStateRevoked:
		if err := a.lifecycle.Revoke(ctx, auth); err != nil {
			return respondError(c, err)
		}
		return respond(c, http.StatusAccepted, queue.RevokeTicketSuccess, "The ticket has been revoked.", nil)

	default:
		return respondError(c, queue.ErrUndefinedTicketState)
	}
}

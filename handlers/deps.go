package handlers

import (
	"errors"
	"net/http"

	"godrive/cluster"
	"godrive/engine"
	"godrive/transport"
	"godrive/utils"

	"github.com/gin-gonic/gin"
)

var (
	sessions      *engine.Manager
	uploadAdapter transport.Adapter
	statusPoller  *cluster.Poller
	nodeGateway   *cluster.Gateway
)

func SetDeps(m *engine.Manager, adapter transport.Adapter, poller *cluster.Poller, gateway *cluster.Gateway) {
	sessions = m
	uploadAdapter = adapter
	statusPoller = poller
	nodeGateway = gateway
}

// session returns the calling user's engine, started on first request.
func session(c *gin.Context) *engine.Engine {
	return sessions.Session(c.GetString("user_id"), c.GetString("email"), c.GetString("token"))
}

func respondErr(c *gin.Context, err error) {
	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		if appErr.Data != nil {
			utils.ErrorWithData(c, appErr.HTTPCode, appErr.Message, appErr.Data)
			return
		}
		utils.Error(c, appErr.HTTPCode, appErr.Message)
		return
	}
	utils.Error(c, http.StatusInternalServerError, err.Error())
}

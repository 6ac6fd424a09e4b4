package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/hera_engine/internal/dto"
	"github.com/SscSPs/hera_engine/internal/gateway"
	"github.com/SscSPs/hera_engine/internal/middleware"
)

// rpcHandler exposes the gateway over HTTP.
type rpcHandler struct {
	dispatcher *gateway.Dispatcher
}

func newRPCHandler(d *gateway.Dispatcher) *rpcHandler {
	return &rpcHandler{dispatcher: d}
}

// registerRPCRoutes mounts the generic RPC route and one shortcut per operation.
func registerRPCRoutes(rg *gin.RouterGroup, d *gateway.Dispatcher) {
	h := newRPCHandler(d)

	rg.POST("/rpc/:operation", h.invoke)
	for _, op := range d.Operations() {
		rg.POST("/"+op, h.invokeOperation(op))
	}
}

// invoke godoc
// @Summary Invoke an engine operation
// @Description Runs CREATE, READ, UPDATE, DELETE or UPSERT against a named operation (entities, transactions).
// @Description The actor_user_id must match the authenticated caller; when omitted it defaults to the caller.
// @Tags rpc
// @Accept  json
// @Produce  json
// @Param   operation path string true "Operation name or alias" Enums(entities, transactions, entity, transaction, txn)
// @Param   request body dto.RPCRequest true "RPC request"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.Envelope "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} dto.Envelope "Actor mismatch, cross-tenant access or missing membership"
// @Failure 404 {object} dto.Envelope "Unknown operation or record"
// @Failure 409 {object} dto.Envelope "Conflict or referential integrity"
// @Failure 422 {object} dto.Envelope "Guardrail violation"
// @Failure 500 {object} dto.Envelope "Internal error"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /rpc/{operation} [post]
func (h *rpcHandler) invoke(c *gin.Context) {
	h.run(c, c.Param("operation"))
}

// invokeOperation godoc
// @Summary Invoke the entities operation
// @Tags rpc
// @Accept  json
// @Produce  json
// @Param   request body dto.RPCRequest true "RPC request"
// @Success 200 {object} dto.Envelope
// @Failure 400 {object} dto.Envelope
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /entities [post]
// @Router /transactions [post]
func (h *rpcHandler) invokeOperation(operation string) gin.HandlerFunc {
	return func(c *gin.Context) { h.run(c, operation) }
}

func (h *rpcHandler) run(c *gin.Context, operation string) {
	logger := middleware.GetLoggerFromContext(c)

	var req dto.RPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RPC", slog.String("operation", operation), slog.String("error", err.Error()))
		respondBindError(c, err)
		return
	}

	actor, ok := resolveActor(c, req.ActorUserID)
	if !ok {
		return
	}
	req.ActorUserID = actor

	env, status := h.dispatcher.Invoke(c.Request.Context(), operation, req)
	c.JSON(status, env)
}

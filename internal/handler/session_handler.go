package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TomaX04/Voz-del-Caser-o/internal/dto"
	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
	appErrors "github.com/TomaX04/Voz-del-Caser-o/pkg/errors"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/response"
)

type sessionService interface {
	Start(ctx context.Context, req dto.StartSessionRequest) (*dto.SessionResponse, error)
	Current(ctx context.Context, claims *models.ActorClaims) *dto.SessionResponse
}

// SessionHandler manages the acting identity.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Start godoc
// @Summary Start session
// @Description Creates an identity and returns a bearer token for it. Moderator and admin roles may require a passcode.
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body dto.StartSessionRequest true "Identity"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /session [post]
func (h *SessionHandler) Start(c *gin.Context) {
	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid session payload"))
		return
	}
	session, err := h.service.Start(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, session, nil)
}

// Current godoc
// @Summary Current session
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Current(c.Request.Context(), claimsFromContext(c)), nil)
}

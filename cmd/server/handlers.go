// Package main provides the recommendation server entry point.
package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/se-wein/kumrec-go/internal/chat"
	apperrors "github.com/se-wein/kumrec-go/internal/errors"
	"github.com/se-wein/kumrec-go/internal/logger"
	"github.com/se-wein/kumrec-go/internal/profile"
	"github.com/se-wein/kumrec-go/internal/storage"
)

// sessionHeader scopes conversation state. The server mints an ID when the
// client sends none and echoes it back either way.
const sessionHeader = "X-Session-ID"

// Stable error codes for API consumers.
const (
	codeValidationError  = "VALIDATION_ERROR"
	codeRetrievalFailure = "RETRIEVAL_FAILURE"
	codeDataAccessError  = "DATA_ACCESS_ERROR"
	codeInternalError    = "INTERNAL_SERVER_ERROR"
)

// apiResponse is the envelope every endpoint returns.
type apiResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type api struct {
	chat *chat.Service
	db   *storage.DB
	log  *logger.Logger
}

type registerRequest struct {
	Interests []string            `json:"interests"`
	Busy      []profile.BusyBlock `json:"busy"`
}

// register stores or replaces the user's interests and busy timetable.
func (a *api) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeValidationError, "요청 데이터가 유효하지 않습니다.")
		return
	}

	p := &profile.Profile{
		UserID:    c.Param("user_id"),
		Interests: req.Interests,
		Busy:      req.Busy,
	}
	if err := a.db.SaveProfile(c.Request.Context(), p); err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			fail(c, http.StatusBadRequest, codeValidationError, "요청 데이터가 유효하지 않습니다.")
			return
		}
		a.log.WithError(err).WithField("user_id", p.UserID).Error("Profile save failed")
		fail(c, http.StatusInternalServerError, codeDataAccessError, "데이터 접근 중 오류가 발생했습니다.")
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: "사용자 정보가 성공적으로 저장되었습니다.",
		Data:    gin.H{"user_id": p.UserID},
	})
}

type chatRequest struct {
	ID       string `json:"id"`
	Question string `json:"question" binding:"required"`
}

// chatTurn runs one conversation turn for the session.
func (a *api) chatTurn(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeValidationError, "요청 데이터가 유효하지 않습니다.")
		return
	}

	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	c.Header(sessionHeader, sessionID)

	turn, err := a.chat.HandleTurn(c.Request.Context(), sessionID, req.ID, req.Question)
	if err != nil {
		if errors.Is(err, apperrors.ErrRetrievalFailure) {
			fail(c, http.StatusServiceUnavailable, codeRetrievalFailure, "추천 엔진 호출에 실패했습니다. 잠시 후 다시 시도해 주세요.")
			return
		}
		a.log.WithError(err).WithSession(sessionID).Error("Chat turn failed")
		fail(c, http.StatusInternalServerError, codeInternalError, "서버 내부 오류가 발생했습니다.")
		return
	}

	c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: turn.Message,
		Data: gin.H{
			"intent":     turn.Intent.String(),
			"session_id": sessionID,
		},
	})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, apiResponse{Success: false, Code: code, Message: message})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hrshiti/inplay-sub000/internal/application/streaming/usecases"
	"github.com/hrshiti/inplay-sub000/internal/shared/logger"
	"github.com/hrshiti/inplay-sub000/internal/shared/utils"
)

type getStreamURLUseCase interface {
	Execute(ctx context.Context, query usecases.GetStreamURLQuery) (*usecases.StreamURLResult, error)
}

type StreamHandler struct {
	getStreamURLUC getStreamURLUseCase
	logger         logger.Interface
}

func NewStreamHandler(getStreamURLUC getStreamURLUseCase, logger logger.Interface) *StreamHandler {
	return &StreamHandler{
		getStreamURLUC: getStreamURLUC,
		logger:         logger,
	}
}

// GetStreamURL handles GET /api/streams/:content_id?quality=.
// Anonymous callers are allowed; free content streams without a token.
func (h *StreamHandler) GetStreamURL(c *gin.Context) {
	userID, _ := currentUserID(c)
	contentID := c.Param("content_id")
	if contentID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "content id is required")
		return
	}

	result, err := h.getStreamURLUC.Execute(c.Request.Context(), usecases.GetStreamURLQuery{
		ContentID: contentID,
		UserID:    userID,
		Quality:   c.Query("quality"),
	})
	if err != nil {
		h.logger.Debugw("stream url rejected", "content_id", contentID, "user_id", userID, "error", err)
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kmankan/converse-chronicle/internal/repository"
	"github.com/kmankan/converse-chronicle/internal/service"
)

type API struct {
	recordings *service.RecordingService
	logger     *slog.Logger
}

func (api *API) registerRoutes(r *gin.RouterGroup) {
	r.POST("/recordings", api.createRecording)
	r.GET("/recordings", api.listRecordings)
	r.GET("/recordings/:id", api.getRecording)
	r.PATCH("/recordings/:id", api.updateRecording)
	r.DELETE("/recordings/:id", api.deleteRecording)
}

func (api *API) createRecording(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		api.validationError(c, "audio file is required")
		return
	}
	userID := c.PostForm("user_id")
	if userID == "" {
		api.validationError(c, "user_id is required")
		return
	}

	f, err := file.Open()
	if err != nil {
		api.handleError(c, err)
		return
	}
	defer f.Close()

	audio, err := io.ReadAll(f)
	if err != nil {
		api.handleError(c, err)
		return
	}

	rec, err := api.recordings.Create(c.Request.Context(), userID, audio)
	if err != nil {
		api.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": rec})
}

func (api *API) getRecording(c *gin.Context) {
	rec, err := api.recordings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.handleError(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

func (api *API) listRecordings(c *gin.Context) {
	userID := c.Query("user_id")
	summaries, err := api.recordings.List(c.Request.Context(), userID)
	if err != nil {
		api.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func (api *API) updateRecording(c *gin.Context) {
	var payload struct {
		Title      *string `json:"title"`
		Transcript *string `json:"transcript"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.validationError(c, "invalid JSON payload")
		return
	}
	if payload.Title == nil && payload.Transcript == nil {
		api.validationError(c, "title or transcript is required")
		return
	}

	rec, err := api.recordings.Update(c.Request.Context(), c.Param("id"), payload.Title, payload.Transcript)
	if err != nil {
		api.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

func (api *API) deleteRecording(c *gin.Context) {
	if err := api.recordings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		api.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (api *API) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, service.ErrEmptyAudio), errors.Is(err, service.ErrMissingUserID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
	default:
		api.logger.Error("request failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func (api *API) validationError(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": msg})
}

// bearerAuth checks the Authorization header against the configured token.
// An empty configured token disables the check for local development.
func bearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || provided != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not_authenticated"})
			return
		}
		c.Next()
	}
}

package api

import (
	"alcyxob/workout-log/internal/domain"
	"alcyxob/workout-log/internal/gemini"
	"alcyxob/workout-log/internal/repository"
	"alcyxob/workout-log/internal/service"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	msgParseFailed       = "Could not interpret the workout. Check the format and try again."
	msgParserUnavailable = "The workout parser is unavailable right now. Try again later."
)

// WorkoutHandler exposes the workout tracker.
type WorkoutHandler struct {
	tracker *service.WorkoutTracker
	now     func() time.Time
}

func NewWorkoutHandler(tracker *service.WorkoutTracker) *WorkoutHandler {
	return &WorkoutHandler{tracker: tracker, now: time.Now}
}

// AddExerciseRequest carries the free-text entry. Day is the caller's local
// calendar day; the server's date is used when it is empty.
type AddExerciseRequest struct {
	Input string `json:"input" binding:"required"`
	Day   string `json:"day"`
}

// AddExercise godoc
// @Summary Log an exercise from free text
// @Description Parses text like "Supino Reto 10x25 6x25" and merges it into the day's log.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param entry body AddExerciseRequest true "Workout text"
// @Success 201 {object} service.AddResult
// @Failure 400 {object} gin.H "Empty input or invalid day"
// @Failure 422 {object} gin.H "The model rejected the input"
// @Failure 502 {object} gin.H "Parse or transport failure"
// @Security BearerAuth
// @Router /workouts [post]
func (h *WorkoutHandler) AddExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	var req AddExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Input) == "" {
		abortWithError(c, http.StatusBadRequest, "Workout text is required")
		return
	}

	day := domain.DayOf(h.now())
	if req.Day != "" {
		if day, err = domain.ParseDay(req.Day); err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := h.tracker.AddExercise(c.Request.Context(), userID, day, req.Input)
	if err != nil {
		h.handleAddError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *WorkoutHandler) handleAddError(c *gin.Context, err error) {
	var rejection *gemini.RejectionError
	switch {
	case errors.As(err, &rejection):
		abortWithError(c, http.StatusUnprocessableEntity, rejection.Reason)
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, gemini.ErrMalformedResponse), errors.Is(err, gemini.ErrEmptyOutput):
		abortWithError(c, http.StatusBadGateway, msgParseFailed)
	case errors.Is(err, gemini.ErrTransport):
		abortWithError(c, http.StatusBadGateway, msgParserUnavailable)
	default:
		log.WithError(err).Error("failed to record exercise")
		abortWithError(c, http.StatusInternalServerError, "Could not save the workout")
	}
}

// GetLog returns the user's log grouped by day. refresh=true re-reads the store.
func (h *WorkoutHandler) GetLog(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	wl, err := h.tracker.Log(c.Request.Context(), userID, refresh)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("failed to load log")
		abortWithError(c, http.StatusInternalServerError, "Could not load the workout log")
		return
	}
	c.JSON(http.StatusOK, wl)
}

// DeleteSet godoc
// @Summary Delete one set
// @Description Removes the first set of the record with the given timestamp, and the record once empty.
// @Tags Workouts
// @Produce json
// @Param recordId path string true "Record ID"
// @Param timestamp query string true "Set timestamp (RFC 3339)"
// @Success 200 {object} service.PruneResult
// @Failure 400 {object} gin.H "Invalid timestamp"
// @Failure 409 {object} gin.H "Record changed concurrently"
// @Security BearerAuth
// @Router /workouts/{recordId}/sets [delete]
func (h *WorkoutHandler) DeleteSet(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	ts, err := time.Parse(time.RFC3339Nano, c.Query("timestamp"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "timestamp must be an RFC 3339 instant")
		return
	}

	res, err := h.tracker.DeleteSet(c.Request.Context(), userID, c.Param("recordId"), ts)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			abortWithError(c, http.StatusConflict, "The record was changed by another request, reload and try again")
			return
		}
		log.WithError(err).WithField("user", userID).Error("failed to delete set")
		abortWithError(c, http.StatusInternalServerError, "Could not delete the set")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *WorkoutHandler) GetExercises(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	names, err := h.tracker.Exercises(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("failed to list exercises")
		abortWithError(c, http.StatusInternalServerError, "Could not load the workout log")
		return
	}
	c.JSON(http.StatusOK, gin.H{"exercises": names})
}

// GetProgress returns one row per day for ?exercise=.
func (h *WorkoutHandler) GetProgress(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	points, err := h.tracker.Progression(c.Request.Context(), userID, c.Query("exercise"))
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		log.WithError(err).WithField("user", userID).Error("failed to compute progression")
		abortWithError(c, http.StatusInternalServerError, "Could not load the workout log")
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *WorkoutHandler) GetRecentSets(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
	}
	sets, err := h.tracker.RecentSets(c.Request.Context(), userID, limit)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("failed to list recent sets")
		abortWithError(c, http.StatusInternalServerError, "Could not load the workout log")
		return
	}
	c.JSON(http.StatusOK, sets)
}

// GetCatalog lists the known exercises per muscle group.
func GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Catalog)
}

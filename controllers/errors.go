package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservation/booking"
	"github.com/yeremiapane/restaurant-reservation/middlewares"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

var (
	ErrNoPermission = errors.New("forbidden")
	errInternal     = errors.New("internal server error")
	errBadID        = errors.New("invalid id")
)

// respondBookingError turns a booking outcome into an HTTP response. Infra
// failures are logged and reported without detail.
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.Is(err, booking.ErrPastDate):
		utils.RespondError(c, http.StatusBadRequest, errors.New("reservation time is in the past"))
	case errors.Is(err, booking.ErrSlotTaken), errors.Is(err, booking.ErrConstraintViolation):
		utils.RespondError(c, http.StatusConflict, errors.New("table is already booked for that time"))
	case errors.Is(err, booking.ErrUnauthorized):
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
	case errors.Is(err, booking.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, errors.New("not found"))
	default:
		respondInternal(c, err)
	}
}

func respondInternal(c *gin.Context, err error) {
	utils.ErrorLogger.WithError(err).WithFields(logrus.Fields{
		"path":       c.FullPath(),
		"request_id": c.GetString(middlewares.ContextRequestID),
	}).Error("request failed")
	utils.RespondError(c, http.StatusInternalServerError, errInternal)
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errBadID)
		return 0, false
	}
	return uint(id), true
}

// mustActor returns the caller set by AuthMiddleware, or writes 401.
func mustActor(c *gin.Context) (booking.Actor, bool) {
	actor, ok := middlewares.ActorFromContext(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return booking.Actor{}, false
	}
	return actor, true
}

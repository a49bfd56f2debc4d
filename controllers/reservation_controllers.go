package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservation/booking"
	"github.com/yeremiapane/restaurant-reservation/live"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

type ReservationController struct {
	Policy *booking.Policy
	Hub    *live.Hub
}

func NewReservationController(policy *booking.Policy, hub *live.Hub) *ReservationController {
	return &ReservationController{Policy: policy, Hub: hub}
}

type reservationRequest struct {
	TableID         uint      `json:"table_id"`
	ReservedAt      time.Time `json:"reserved_at"`
	CustomerName    string    `json:"customer_name"`
	CustomerContact string    `json:"customer_contact"`
}

func (r reservationRequest) toBooking() booking.Request {
	return booking.Request{
		TableID:         r.TableID,
		Start:           r.ReservedAt,
		CustomerName:    r.CustomerName,
		CustomerContact: r.CustomerContact,
	}
}

// CreateReservation books a table for the caller.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := rc.Policy.Submit(c.Request.Context(), actor, req.toBooking(), 0)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	rc.Hub.ReservationCreated(res)
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", res)
}

// UpdateReservation re-validates and saves the edited fields.
func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "reservation_id")
	if !ok {
		return
	}
	var req reservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := rc.Policy.Submit(c.Request.Context(), actor, req.toBooking(), id)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	rc.Hub.ReservationUpdated(res)
	utils.RespondJSON(c, http.StatusOK, "Reservation updated", res)
}

// DeleteReservation cancels and removes a reservation.
func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "reservation_id")
	if !ok {
		return
	}

	res, err := rc.Policy.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	rc.Hub.ReservationCancelled(res)
	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled", gin.H{"id": res.ID})
}

func (rc *ReservationController) GetReservation(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "reservation_id")
	if !ok {
		return
	}

	res, err := rc.Policy.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", res)
}

// GetQueue lists reservations in progress or still ahead, for any
// authenticated user.
func (rc *ReservationController) GetQueue(c *gin.Context) {
	queue, err := rc.Policy.Queue(c.Request.Context())
	if err != nil {
		respondBookingError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation queue", queue)
}

// GetMyReservations lists the caller's reservations; admins get all.
func (rc *ReservationController) GetMyReservations(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	list, err := rc.Policy.Personal(c.Request.Context(), actor)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "My reservations", list)
}

package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yeremiapane/restaurant-reservation/booking"
	"github.com/yeremiapane/restaurant-reservation/models"
)

const exportSheet = "Reservations"

var exportHeader = []interface{}{"ID", "Table", "Reserved at (UTC)", "Ends at (UTC)", "Customer", "Contact", "Owner ID", "Status"}

type ExportController struct {
	Policy *booking.Policy
}

func NewExportController(policy *booking.Policy) *ExportController {
	return &ExportController{Policy: policy}
}

// ExportReservations streams every reservation as an xlsx workbook.
func (ec *ExportController) ExportReservations(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	list, err := ec.Policy.Personal(c.Request.Context(), actor)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	f, err := buildWorkbook(list, ec.Policy.ServiceDuration())
	if err != nil {
		respondInternal(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("reservations-%s.xlsx", ec.Policy.Now().Format("20060102-1504"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func buildWorkbook(list []models.Reservation, d time.Duration) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}

	for i, r := range list {
		var owner interface{}
		if r.OwnerID != nil {
			owner = *r.OwnerID
		}
		row := []interface{}{
			r.ID,
			r.Table.Number,
			r.ReservedAt.UTC().Format("2006-01-02 15:04"),
			r.ReservedAt.Add(d).UTC().Format("2006-01-02 15:04"),
			r.CustomerName,
			r.CustomerContact,
			owner,
			string(r.Status),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(exportSheet, "C", "D", 20); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(exportSheet, "E", "F", 28); err != nil {
		return nil, err
	}
	return f, nil
}

package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservation/live"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/repository"
	"github.com/yeremiapane/restaurant-reservation/utils"
	"gorm.io/gorm"
)

var errTableNumberTaken = errors.New("table number already exists")

type TableController struct {
	DB  *gorm.DB
	Hub *live.Hub
}

func NewTableController(db *gorm.DB, hub *live.Hub) *TableController {
	return &TableController{DB: db, Hub: hub}
}

// CreateTable registers a new table owned by the calling admin.
func (tc *TableController) CreateTable(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req struct {
		Number      int   `json:"number" binding:"required,min=1"`
		Capacity    int   `json:"capacity" binding:"required,min=1"`
		IsAvailable *bool `json:"is_available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	owner := actor.UserID
	table := models.Table{
		Number:      req.Number,
		Capacity:    req.Capacity,
		IsAvailable: available,
		OwnerID:     &owner,
	}

	db := tc.DB.WithContext(c.Request.Context())
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&table).Error; err != nil {
			return err
		}
		// gorm skips a false value for a column with a default.
		if available {
			return nil
		}
		if err := tx.Model(&table).Update("is_available", false).Error; err != nil {
			return err
		}
		table.IsAvailable = false
		return nil
	})
	if err != nil {
		if repository.IsDuplicateKey(err) {
			utils.RespondError(c, http.StatusConflict, errTableNumberTaken)
			return
		}
		respondInternal(c, err)
		return
	}

	tc.Hub.TableCreated(table)
	utils.InfoLogger.WithField("table_id", table.ID).Infof("table %d created", table.Number)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables lists every table ordered by number.
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.WithContext(c.Request.Context()).Order("number").Find(&tables).Error; err != nil {
		respondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// UpdateTable changes capacity and/or availability.
func (tc *TableController) UpdateTable(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var body struct {
		Capacity    *int  `json:"capacity" binding:"omitempty,min=1"`
		IsAvailable *bool `json:"is_available"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	db := tc.DB.WithContext(c.Request.Context())
	var table models.Table
	if err := db.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
			return
		}
		respondInternal(c, err)
		return
	}

	updates := map[string]interface{}{}
	if body.Capacity != nil {
		updates["capacity"] = *body.Capacity
		table.Capacity = *body.Capacity
	}
	if body.IsAvailable != nil {
		updates["is_available"] = *body.IsAvailable
		table.IsAvailable = *body.IsAvailable
	}
	if len(updates) > 0 {
		if err := db.Model(&table).Updates(updates).Error; err != nil {
			respondInternal(c, err)
			return
		}
	}

	tc.Hub.TableUpdated(table)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable removes a table together with its reservations.
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}

	var table models.Table
	err := tc.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&table, tableID).Error; err != nil {
			return err
		}
		if err := tx.Where("table_id = ?", table.ID).Delete(&models.Reservation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&table).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
			return
		}
		respondInternal(c, err)
		return
	}

	tc.Hub.TableDeleted(table)
	utils.InfoLogger.WithField("table_id", table.ID).Info("table deleted")
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}

package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// -----------------------------
// Helper functions
// -----------------------------

func jsonError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

// parseDate accepts RFC3339 or "YYYY-MM-DD".
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
	}
	return t, err
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// rateError validates catalog percentages. The margin must stay below 1
// so the gross derivation (net / (1 - margin)) has headroom; the donation
// is a straight fraction of gross.
func rateError(marginPct, donationPct *float64) string {
	if marginPct != nil && (*marginPct < 0 || *marginPct >= 1) {
		return "margin_pct must be at least 0 and below 1"
	}
	if donationPct != nil && (*donationPct < 0 || *donationPct > 1) {
		return "donation_pct must be between 0 and 1"
	}
	return ""
}

// -----------------------------
// Event types
// -----------------------------

func ListEventTypes(c *gin.Context) {
	var types []EventType
	if err := DB.Order("tier asc, name asc").Find(&types).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, types)
}

type CreateEventTypeRequest struct {
	Name             string          `json:"name" binding:"required"`
	Tier             int             `json:"tier" binding:"required"`
	TargetNetMin     float64         `json:"target_net_min"`
	TargetNetMax     float64         `json:"target_net_max"`
	DonationPct      float64         `json:"donation_pct"`
	DonationCap      float64         `json:"donation_cap"`
	MonthlyQuota     *int            `json:"monthly_quota"`
	WeekendQuota     *int            `json:"weekend_quota"`
	MarginPct        *float64        `json:"margin_pct"`
	ChecklistDefault []ChecklistItem `json:"checklist_default"`
}

func CreateEventType(c *gin.Context) {
	var body CreateEventTypeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if body.Tier < 1 || body.Tier > 3 {
		jsonError(c, http.StatusBadRequest, "tier must be 1, 2 or 3")
		return
	}
	if msg := rateError(body.MarginPct, &body.DonationPct); msg != "" {
		jsonError(c, http.StatusBadRequest, msg)
		return
	}

	et := EventType{
		Name:             strings.TrimSpace(body.Name),
		Tier:             body.Tier,
		TargetNetMin:     body.TargetNetMin,
		TargetNetMax:     body.TargetNetMax,
		DonationPct:      body.DonationPct,
		DonationCap:      body.DonationCap,
		MonthlyQuota:     body.MonthlyQuota,
		WeekendQuota:     body.WeekendQuota,
		MarginPct:        body.MarginPct,
		ChecklistDefault: body.ChecklistDefault,
	}

	if err := DB.Create(&et).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not create event type: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, et)
}

type EventTypePatchRequest struct {
	Name             *string          `json:"name"`
	Tier             *int             `json:"tier"`
	TargetNetMin     *float64         `json:"target_net_min"`
	TargetNetMax     *float64         `json:"target_net_max"`
	DonationPct      *float64         `json:"donation_pct"`
	DonationCap      *float64         `json:"donation_cap"`
	MonthlyQuota     *int             `json:"monthly_quota"`
	WeekendQuota     *int             `json:"weekend_quota"`
	MarginPct        *float64         `json:"margin_pct"`
	ChecklistDefault *[]ChecklistItem `json:"checklist_default"`
}

func UpdateEventType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body EventTypePatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if msg := rateError(body.MarginPct, body.DonationPct); msg != "" {
		jsonError(c, http.StatusBadRequest, msg)
		return
	}

	var et EventType
	if err := DB.First(&et, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(c, http.StatusNotFound, "event type not found")
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}

	// Tier is frozen once bookings reference the type.
	if body.Tier != nil && *body.Tier != et.Tier {
		if *body.Tier < 1 || *body.Tier > 3 {
			jsonError(c, http.StatusBadRequest, "tier must be 1, 2 or 3")
			return
		}
		var refs int64
		if err := DB.Model(&Event{}).Where("type_id = ?", et.ID).Count(&refs).Error; err != nil {
			jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
			return
		}
		if refs > 0 {
			jsonError(c, http.StatusConflict, "tier cannot change while events reference this type")
			return
		}
		et.Tier = *body.Tier
	}

	if body.Name != nil {
		et.Name = strings.TrimSpace(*body.Name)
	}
	if body.TargetNetMin != nil {
		et.TargetNetMin = *body.TargetNetMin
	}
	if body.TargetNetMax != nil {
		et.TargetNetMax = *body.TargetNetMax
	}
	if body.DonationPct != nil {
		et.DonationPct = *body.DonationPct
	}
	if body.DonationCap != nil {
		et.DonationCap = *body.DonationCap
	}
	if body.MonthlyQuota != nil {
		et.MonthlyQuota = body.MonthlyQuota
	}
	if body.WeekendQuota != nil {
		et.WeekendQuota = body.WeekendQuota
	}
	if body.MarginPct != nil {
		et.MarginPct = body.MarginPct
	}
	if body.ChecklistDefault != nil {
		et.ChecklistDefault = *body.ChecklistDefault
	}

	if err := DB.Save(&et).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not update event type: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, et)
}

// -----------------------------
// Events / bookings
// -----------------------------

func ListEvents(c *gin.Context) {
	query := DB.Preload("Type").Order("start_at asc")

	if from := c.Query("from"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid from date (use RFC3339 or YYYY-MM-DD)")
			return
		}
		query = query.Where("start_at >= ?", t)
	}
	if to := c.Query("to"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid to date (use RFC3339 or YYYY-MM-DD)")
			return
		}
		// include whole day
		query = query.Where("start_at <= ?", t.Add(23*time.Hour+59*time.Minute+59*time.Second))
	}

	var events []Event
	if err := query.Find(&events).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, events)
}

type CreateBookingRequest struct {
	TypeID         *uint           `json:"type_id"`
	Title          string          `json:"title"`
	StartAt        string          `json:"start_at"`
	EndAt          string          `json:"end_at"`
	StaffAssigned  []uint          `json:"staff_assigned"`
	EstimatedGross *float64        `json:"estimated_gross"`
	TargetNet      *float64        `json:"target_net"`
	SupplyBudget   *float64        `json:"supply_budget"`
	EntryFee       *float64        `json:"entry_fee"`
	Notes          string          `json:"notes"`
	Checklist      []ChecklistItem `json:"checklist"`
}

// CreateBooking validates, projects financials from the type, then checks
// the daily cap and inserts inside one transaction. Locking the day's rows
// narrows the check-then-act window but does not stop phantom inserts
// under read committed, so the cap stays a soft guarantee; a day pushed
// over by racing writers surfaces as a warning, never blocks reads.
func CreateBooking(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if body.TypeID == nil || body.StartAt == "" {
		jsonError(c, http.StatusBadRequest, ErrValidation.Error()+": type_id and start_at are required")
		return
	}
	startAt, err := parseDate(body.StartAt)
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid start_at (use RFC3339 or YYYY-MM-DD)")
		return
	}

	var et EventType
	if err := DB.First(&et, *body.TypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(c, http.StatusNotFound, ErrTypeNotFound.Error())
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}

	ev := Event{
		TypeID:         body.TypeID,
		Title:          strings.TrimSpace(body.Title),
		StartAt:        startAt,
		Status:         StatusPlanned,
		StaffAssigned:  body.StaffAssigned,
		EstimatedGross: body.EstimatedGross,
		TargetNet:      body.TargetNet,
		SupplyBudget:   body.SupplyBudget,
		EntryFee:       body.EntryFee,
		Notes:          body.Notes,
		Checklist:      body.Checklist,
	}
	if body.EndAt != "" {
		endAt, err := parseDate(body.EndAt)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid end_at (use RFC3339 or YYYY-MM-DD)")
			return
		}
		ev.EndAt = &endAt
	}

	ev = ProjectBooking(ev, &et)

	err = DB.Transaction(func(tx *gorm.DB) error {
		day := StartOfDay(ev.StartAt)
		var dayEvents []Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("start_at >= ? AND start_at < ?", day, AddDays(day, 1)).
			Find(&dayEvents).Error; err != nil {
			return err
		}
		if err := CheckDailyCap(dayEvents, ev.StartAt); err != nil {
			return err
		}
		return tx.Create(&ev).Error
	})
	if err != nil {
		var capErr *CapacityError
		if errors.As(err, &capErr) {
			jsonError(c, http.StatusConflict, capErr.Error())
			return
		}
		jsonError(c, http.StatusInternalServerError, "could not create booking: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, ev)
}

type EventPatchRequest struct {
	Title         *string          `json:"title"`
	Status        *string          `json:"status"`
	EndAt         *string          `json:"end_at"`
	StaffAssigned *[]uint          `json:"staff_assigned"`
	Notes         *string          `json:"notes"`
	Checklist     *[]ChecklistItem `json:"checklist"`
}

func PatchEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body EventPatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	var ev Event
	if err := DB.First(&ev, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(c, http.StatusNotFound, "event not found")
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}

	if body.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*body.Status))
		if !validEventStatus(status) {
			jsonError(c, http.StatusBadRequest, "status must be one of: planned, confirmed, completed, canceled")
			return
		}
		ev.Status = status
	}
	if body.Title != nil {
		ev.Title = strings.TrimSpace(*body.Title)
	}
	if body.EndAt != nil {
		endAt, err := parseDate(*body.EndAt)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid end_at (use RFC3339 or YYYY-MM-DD)")
			return
		}
		ev.EndAt = &endAt
	}
	if body.StaffAssigned != nil {
		ev.StaffAssigned = *body.StaffAssigned
	}
	if body.Notes != nil {
		ev.Notes = *body.Notes
	}
	if body.Checklist != nil {
		ev.Checklist = *body.Checklist
	}

	if err := DB.Save(&ev).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not update event: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, ev)
}

// DeleteEvent is a passthrough; the scheduling core itself never deletes.
func DeleteEvent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var ev Event
	if err := DB.First(&ev, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(c, http.StatusNotFound, "event not found")
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}

	if err := DB.Delete(&Event{}, ev.ID).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "delete failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}

// -----------------------------
// Staff
// -----------------------------

func ListStaff(c *gin.Context) {
	var staff []Staff
	if err := DB.Order("display_name asc").Find(&staff).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, staff)
}

// -----------------------------
// Tasks
// -----------------------------

func ListTasks(c *gin.Context) {
	var tasks []Task
	if err := DB.Order("due_at asc").Find(&tasks).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, tasks)
}

type TaskPatchRequest struct {
	Status     *string          `json:"status"`
	AssignedTo *uint            `json:"assigned_to"` // 0 clears the assignment
	Checklist  *[]ChecklistItem `json:"checklist"`
	Metadata   *TaskMeta        `json:"metadata"`
}

func PatchTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body TaskPatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	var task Task
	if err := DB.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(c, http.StatusNotFound, "task not found")
			return
		}
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}

	if body.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*body.Status))
		if !validTaskStatus(status) {
			jsonError(c, http.StatusBadRequest, "status must be one of: open, done, skipped")
			return
		}
		task.Status = status
	}
	if body.AssignedTo != nil {
		if *body.AssignedTo == 0 {
			task.AssignedTo = nil
		} else {
			task.AssignedTo = body.AssignedTo
		}
	}
	if body.Checklist != nil {
		task.Checklist = *body.Checklist
	}
	if body.Metadata != nil {
		meta := *body.Metadata
		// keep the packed counter inside [0, boxes required]
		if meta.BoxesPacked < 0 {
			meta.BoxesPacked = 0
		}
		if meta.BoxesRequired > 0 && meta.BoxesPacked > meta.BoxesRequired {
			meta.BoxesPacked = meta.BoxesRequired
		}
		task.Metadata = meta
	}

	if err := DB.Save(&task).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "could not update task: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, task)
}

// -----------------------------
// Derived views
// -----------------------------

func loadScheduleInputs() ([]Event, []EventType, error) {
	var events []Event
	if err := DB.Find(&events).Error; err != nil {
		return nil, nil, err
	}
	var types []EventType
	if err := DB.Find(&types).Error; err != nil {
		return nil, nil, err
	}
	return events, types, nil
}

func GetWarnings(c *gin.Context) {
	events, types, err := loadScheduleInputs()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"warnings": ComputeWarnings(events, types, time.Now())})
}

func GetOpenSlots(c *gin.Context) {
	events, types, err := loadScheduleInputs()
	if err != nil {
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, FindOpenSlots(events, types, time.Now()))
}

func GetDeliveryPlans(c *gin.Context) {
	var tasks []Task
	if err := DB.Find(&tasks).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, PlanDeliveries(tasks, time.Now()))
}

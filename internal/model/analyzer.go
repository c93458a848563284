package model

import (
	"time"

	"github.com/google/uuid"
)

// Analyzer is a lab analyzer tracked for calibration.
type Analyzer struct {
	Base
	Name               string    `json:"name" db:"name"`
	SerialNumber       string    `json:"serial_number" db:"serial_number"`
	Location           string    `json:"location" db:"location"`
	CalibrationDueDate time.Time `json:"calibration_due_date" db:"calibration_due_date"`
	InCalibration      bool      `json:"in_calibration" db:"in_calibration"`
	CreatedBy          uuid.UUID `json:"created_by" db:"created_by"`
}

// CalibrationItem projects the analyzer onto the fields status derivation needs.
func (a *Analyzer) CalibrationItem() CalibratableItem {
	return CalibratableItem{
		DueDate:    a.CalibrationDueDate,
		InProgress: a.InCalibration,
	}
}

package model

import "github.com/google/uuid"

// ServiceOrder is a maintenance ticket raised against a piece of equipment.
// Number is the human-readable identifier shown to users, e.g. "OS-2024-0042".
type ServiceOrder struct {
	Base
	Number      string    `json:"number" db:"number"`
	Equipment   string    `json:"equipment" db:"equipment"`
	Status      string    `json:"status" db:"status"`
	RequestedBy uuid.UUID `json:"requested_by" db:"requested_by"`
}

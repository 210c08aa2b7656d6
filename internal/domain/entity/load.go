// internal/domain/entity/load.go
package entity

import (
	"time"
)

// ConfirmationState tells how certain the departure of a load is
type ConfirmationState string

const (
	// Confirmed loads were seen with an explicit "departed" status
	Confirmed ConfirmationState = "confirmed"
	// Unconfirmed loads were inferred departed from status or slot heuristics
	Unconfirmed ConfirmationState = "unconfirmed"
)

// DateLayout is the layout of Load.Date
const DateLayout = "2006-01-02"

// Load is one aircraft departure recorded from the manifest feed
type Load struct {
	ID                uint              `json:"id"`
	ExternalID        string            `json:"externalId"` // feed identifier - unique
	SequenceNumber    int               `json:"sequenceNumber"`
	Aircraft          string            `json:"aircraft"`
	LoadMaster        *string           `json:"loadMaster"`
	Date              string            `json:"date"`
	DepartedAt        time.Time         `json:"departedAt"`
	ConfirmationState ConfirmationState `json:"confirmationState"`
	Jumpers           []Jumper          `json:"jumpers"`
}

// IsConfirmed reports whether the departure was explicitly observed
func (l *Load) IsConfirmed() bool {
	return l.ConfirmationState == Confirmed
}

// Jumper is one participant on a load. Optional attributes are nil when the
// feed layout did not carry them.
type Jumper struct {
	Name      string  `json:"name"`
	Type      *string `json:"type"`
	GroupName *string `json:"groupName"`
	Formation *string `json:"formation"`
	Rig       *string `json:"rig"`
}

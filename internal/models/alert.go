package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertType discriminates the alert payload.
type AlertType string

const (
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
	AlertSuccess AlertType = "success"
)

// AlertID identifies a persisted alert.
type AlertID uuid.UUID

// NewAlertID returns a fresh random identity.
func NewAlertID() AlertID {
	return AlertID(uuid.New())
}

// ParseAlertID parses the textual form produced by String.
func ParseAlertID(s string) (AlertID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AlertID{}, err
	}
	return AlertID(id), nil
}

func (id AlertID) String() string {
	return uuid.UUID(id).String()
}

// AlertPayload is the type-specific part of an alert.
type AlertPayload interface {
	AlertType() AlertType
}

// WarningPayload describes a threshold breach.
type WarningPayload struct {
	SensorID  string
	Value     float64
	Threshold float64
}

func (WarningPayload) AlertType() AlertType { return AlertWarning }

// InfoPayload describes an operational event such as a completed feeding.
type InfoPayload struct {
	FeedingID string
	Amount    float64
}

func (InfoPayload) AlertType() AlertType { return AlertInfo }

// SuccessPayload reports a healthy sensor state.
type SuccessPayload struct {
	SensorID string
}

func (SuccessPayload) AlertType() AlertType { return AlertSuccess }

// Alert is a timestamped notification. Only Acknowledged may change, and only false to true.
type Alert struct {
	ID           AlertID
	Timestamp    time.Time
	Message      string
	Acknowledged bool
	Payload      AlertPayload
}

// Type returns the payload discriminator, or "" when the payload is missing.
func (a Alert) Type() AlertType {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.AlertType()
}

// AlertView is an alert prepared for display with a relative-age label.
type AlertView struct {
	Type    AlertType `json:"type"`
	Message string    `json:"message"`
	Time    string    `json:"time"`
}

package models

import "time"

// AutomationSettings is the single global automation-schedule record used by
// the weekly reminder worker. Exactly one document ever exists; it lives
// under a fixed well-known _id so concurrent first readers cannot race to
// create duplicates.
type AutomationSettings struct {
	DayOfWeek int    `bson:"day_of_week" json:"day_of_week"` // 0 = Sunday … 6 = Saturday
	Hour      int    `bson:"hour" json:"hour"`               // 0-23
	Minute    int    `bson:"minute" json:"minute"`           // 0-59
	Timezone  string `bson:"timezone" json:"timezone"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultAutomationSettings is the schedule lazily created on first read:
// Monday 09:00 UTC.
func DefaultAutomationSettings() AutomationSettings {
	return AutomationSettings{
		DayOfWeek: 1,
		Hour:      9,
		Minute:    0,
		Timezone:  "UTC",
	}
}

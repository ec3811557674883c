package domain

import "time"

// AutoSchedulingSetting is the persisted on/off flag for the background
// assignment scheduler (settings collection, document "autoScheduling").
type AutoSchedulingSetting struct {
	Enabled   bool      `bson:"enabled" json:"enabled"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WorkingHours holds the configurable session boundaries (settings
// collection, document "workingHours"). Times are "HH:MM" strings, the
// format the admin dashboard writes.
type WorkingHours struct {
	Session1Start string    `bson:"session1Start" json:"session1Start"`
	Session1End   string    `bson:"session1End" json:"session1End"`
	Session2Start string    `bson:"session2Start" json:"session2Start"`
	Session2End   string    `bson:"session2End" json:"session2End"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// DefaultWorkingHours returns the out-of-the-box session boundaries:
// session 1 spans 17:00-20:00, session 2 spans 20:00-22:00.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{
		Session1Start: "17:00",
		Session1End:   "20:00",
		Session2Start: "20:00",
		Session2End:   "22:00",
	}
}

package models

import "time"

// JobLock marks one scheduler slot (job name + slot key) as taken by an
// instance until ExpiresAt.
type JobLock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JobName   string    `gorm:"uniqueIndex:idx_job_slot;size:100;not null" json:"job_name"`
	SlotKey   string    `gorm:"uniqueIndex:idx_job_slot;size:100;not null" json:"slot_key"`
	LockedBy  string    `gorm:"size:100" json:"locked_by"`
	LockedAt  time.Time `json:"locked_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

func (JobLock) TableName() string { return "scheduler_locks" }

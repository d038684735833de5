package model

import (
	"time"

	"gorm.io/datatypes"
)

type Poll struct {
	ID           string                       `gorm:"size:36;primaryKey"`
	RoomCode     string                       `gorm:"size:16;uniqueIndex;not null"`
	Question     string                       `gorm:"type:text;not null"`
	Options      datatypes.JSONSlice[float64] `gorm:"not null"`
	CreatedBy    string                       `gorm:"size:255;not null"`
	Status       string                       `gorm:"size:16;index;not null"`
	ClosedBy     *string                      `gorm:"size:255"`
	TimerActive  bool                         `gorm:"not null"`
	TimerEndTime *time.Time
	CreatedAt    time.Time `gorm:"index;not null"`
	Votes        []Vote    `gorm:"constraint:OnDelete:CASCADE"`
}

// Vote rows are unique per (poll, name); Position keeps ledger order.
type Vote struct {
	PollID      string  `gorm:"size:36;primaryKey"`
	Name        string  `gorm:"size:255;primaryKey"`
	Value       float64 `gorm:"not null"`
	AvatarIndex *int
	AvatarLabel *string `gorm:"size:64"`
	Position    int     `gorm:"not null"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel is the check-in channel recorded alongside the boolean flags.
type Channel string

const (
	ChannelNFC Channel = "NFC"
	ChannelQR  Channel = "QR"
)

// AttendanceRecord is one check-in per user per calendar day. The
// (user_id, date) pair is unique at the storage layer.
type AttendanceRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_user_date,priority:1" json:"user_id"`
	Date      Date      `gorm:"not null;index;uniqueIndex:idx_attendance_user_date,priority:2" json:"date"`
	ViaNFC    bool      `gorm:"column:via_nfc;not null" json:"via_nfc"`
	ViaQR     bool      `gorm:"column:via_qr;not null" json:"via_qr"`
	Channel   Channel   `gorm:"type:varchar(3);not null" json:"channel"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

func (a *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

package attendance

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/database/models"
	"gorm.io/gorm"
)

// Filter narrows an already scoped attendance query. Absent keys impose no
// constraint; present keys are AND-combined.
type Filter struct {
	Date       *models.Date
	FromDate   *models.Date
	ToDate     *models.Date
	EmployeeID *uuid.UUID
	Search     string
}

// Validate rejects an inverted date range before any query runs.
func (f Filter) Validate() error {
	if f.FromDate != nil && f.ToDate != nil && f.FromDate.After(*f.ToDate) {
		return apperr.Validation("from_date must not be after to_date", map[string]string{
			"from_date": "must not be after to_date",
		})
	}
	return nil
}

// Apply adds the filter's conditions to db. EmployeeID only ever intersects
// with the scope already on db.
func (f Filter) Apply(db *gorm.DB) *gorm.DB {
	if f.Date != nil {
		db = db.Where("attendance_records.date = ?", *f.Date)
	}
	if f.FromDate != nil {
		db = db.Where("attendance_records.date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		db = db.Where("attendance_records.date <= ?", *f.ToDate)
	}
	if f.EmployeeID != nil {
		db = db.Where("attendance_records.user_id = ?", *f.EmployeeID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		named := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.User{}).
			Select("id").
			Where("LOWER(name) LIKE ? ESCAPE '\\'", pattern)
		db = db.Where(
			"(LOWER(CAST(attendance_records.id AS TEXT)) LIKE ? ESCAPE '\\' OR attendance_records.user_id IN (?))",
			pattern, named,
		)
	}
	return db
}

// Ordered sorts newest first, breaking same-day ties by creation time.
func Ordered(db *gorm.DB) *gorm.DB {
	return db.Order("attendance_records.date DESC").Order("attendance_records.created_at DESC")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

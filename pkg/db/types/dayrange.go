package dbtypes

import (
	"time"

	"gorm.io/gorm"
)

// DayRange filters a timestamp column by calendar days. Both ends are
// inclusive: To covers the whole of its day.
type DayRange struct {
	From *time.Time
	To   *time.Time
}

// Scope applies the range to column. Unset ends leave the query open on that side.
func (r DayRange) Scope(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r.From != nil {
			db = db.Where(column+" >= ?", startOfDay(*r.From))
		}
		if r.To != nil {
			db = db.Where(column+" < ?", startOfDay(*r.To).AddDate(0, 0, 1))
		}
		return db
	}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

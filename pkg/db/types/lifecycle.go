package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// LifecycleColumn is the soft-delete column shared by every table that supports it.
const LifecycleColumn = "delete_at"

// LifecycleState enumerates the soft-delete states a row can be in.
type LifecycleState string

const (
	LifecycleActive  LifecycleState = "active"
	LifecycleDeleted LifecycleState = "deleted"
)

// Lifecycle is either Active or Deleted(at). It persists as a nullable timestamp
// but callers only ever see the explicit state.
type Lifecycle struct {
	deletedAt *time.Time
}

// Active returns the lifecycle of a live row.
func Active() Lifecycle {
	return Lifecycle{}
}

// Deleted returns the lifecycle of a row soft-deleted at the given instant.
func Deleted(at time.Time) Lifecycle {
	ts := at.UTC()
	return Lifecycle{deletedAt: &ts}
}

func (l Lifecycle) State() LifecycleState {
	if l.deletedAt == nil {
		return LifecycleActive
	}
	return LifecycleDeleted
}

func (l Lifecycle) IsActive() bool {
	return l.deletedAt == nil
}

// DeletedAt returns the deletion instant and true when the row is deleted.
func (l Lifecycle) DeletedAt() (time.Time, bool) {
	if l.deletedAt == nil {
		return time.Time{}, false
	}
	return *l.deletedAt, true
}

// GormDataType keeps gorm from treating Lifecycle as an embedded struct.
func (Lifecycle) GormDataType() string {
	return "time"
}

func (l Lifecycle) Value() (driver.Value, error) {
	if l.deletedAt == nil {
		return nil, nil
	}
	return *l.deletedAt, nil
}

func (l *Lifecycle) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		l.deletedAt = nil
		return nil
	case time.Time:
		ts := v.UTC()
		l.deletedAt = &ts
		return nil
	case string:
		return l.parse(v)
	case []byte:
		return l.parse(string(v))
	default:
		return fmt.Errorf("Lifecycle: unsupported Scan type %T", src)
	}
}

var lifecycleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (l *Lifecycle) parse(raw string) error {
	if raw == "" {
		l.deletedAt = nil
		return nil
	}
	for _, layout := range lifecycleLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			l.deletedAt = &ts
			return nil
		}
	}
	return fmt.Errorf("Lifecycle: unparseable timestamp %q", raw)
}

type lifecycleJSON struct {
	State     LifecycleState `json:"state"`
	DeletedAt *time.Time     `json:"deleted_at,omitempty"`
}

func (l Lifecycle) MarshalJSON() ([]byte, error) {
	return json.Marshal(lifecycleJSON{State: l.State(), DeletedAt: l.deletedAt})
}

// ActiveOnly restricts a query to rows of table that are not soft-deleted.
func ActiveOnly(table string) func(*gorm.DB) *gorm.DB {
	column := LifecycleColumn
	if table != "" {
		column = table + "." + LifecycleColumn
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column + " IS NULL")
	}
}

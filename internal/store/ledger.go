package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var memSeq atomic.Int64

// ErrUnavailable is returned when the underlying storage cannot serve the
// operation.
var ErrUnavailable = errors.New("notification storage unavailable")

// Notification is one evaluated alert request. Rows are append-only; the id
// is assigned by SQLite and increases with insertion order, which SQLite
// serializes under concurrent writers.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"not null;index" json:"email"`
	Location  string    `gorm:"not null" json:"location"`
	Forecast  string    `gorm:"not null" json:"forecast"`
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the table name aligned with the historical schema.
func (Notification) TableName() string { return "notifications" }

// Open connects to the SQLite database at path (":memory:" works for tests)
// and migrates the notifications table.
func Open(path string) (*gorm.DB, error) {
	if path == ":memory:" {
		// Without a shared cache every pooled connection would see its own
		// empty in-memory database. The sequence number keeps separate Open
		// calls (one per test) from sharing a database.
		path = fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", memSeq.Add(1))
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Notification{}); err != nil {
		return nil, fmt.Errorf("migrate notifications: %w", err)
	}
	return db, nil
}

// Input carries the fields of a record before the ledger assigns identity.
type Input struct {
	Email    string
	Location string
	Forecast string
	Notified bool
}

// Ledger records evaluated alert requests and answers per-recipient history.
// It never updates or deletes rows.
type Ledger struct {
	db    *gorm.DB
	clock clockwork.Clock
}

func NewLedger(db *gorm.DB, clock clockwork.Clock) *Ledger {
	return &Ledger{db: db, clock: clock}
}

// Append stores one record and returns it with its assigned id.
func (l *Ledger) Append(ctx context.Context, in Input) (Notification, error) {
	n := Notification{
		Email:     in.Email,
		Location:  in.Location,
		Forecast:  in.Forecast,
		Notified:  in.Notified,
		CreatedAt: l.clock.Now().UTC(),
	}
	if err := l.db.WithContext(ctx).Create(&n).Error; err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

// FindByEmail returns every record whose email matches exactly, oldest first.
// An unknown email yields an empty slice, not an error.
func (l *Ledger) FindByEmail(ctx context.Context, email string) ([]Notification, error) {
	records := make([]Notification, 0)
	err := l.db.WithContext(ctx).
		Where("email = ?", email).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return records, nil
}

package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRepo struct {
	DB *gorm.DB
}

// Transaction runs fn with a repo bound to a single database transaction.
// Returning an error from fn rolls everything back.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func forUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// Owner identifies whose basket is addressed: a user or an anonymous session.
type Owner struct {
	UserID     uint
	SessionKey string
}

func (o Owner) IsUser() bool { return o.UserID != 0 }

func (o Owner) Valid() bool {
	return (o.UserID != 0) != (o.SessionKey != "")
}

func (o Owner) scope(db *gorm.DB) *gorm.DB {
	if o.IsUser() {
		return db.Where("user_id = ?", o.UserID)
	}
	return db.Where("session_key = ?", o.SessionKey)
}

package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	FirstName    string    `                                json:"first_name"`
	LastName     string    `                                json:"last_name"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	CreatedAt    time.Time `                                json:"created_at"`
}

type Profile struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint    `gorm:"uniqueIndex;not null"     json:"user_id"`
	MiddleName string  `                                json:"middle_name"`
	Email      *string `gorm:"uniqueIndex"              json:"email"`
	Phone      *string `gorm:"size:11;uniqueIndex"      json:"phone"`
	Avatar     string  `                                json:"avatar"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"uniqueIndex;not null" json:"-"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	JTI       string `gorm:"uniqueIndex;not null" json:"jti"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

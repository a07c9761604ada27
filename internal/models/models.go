package models

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;size:36"                json:"id"`
	Email        string    `gorm:"uniqueIndex;size:256;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                          json:"-"`
	FirstName    string    `gorm:"size:100;not null"                 json:"firstName"`
	LastName     string    `gorm:"size:100;not null"                 json:"lastName"`
	CreatedAt    time.Time `gorm:"not null"                          json:"createdAt"`
}

// RefreshToken is one issued refresh credential. Rows are never deleted:
// Used and Invalidated are terminal flags and expiry is checked on read.
type RefreshToken struct {
	ID           uint      `gorm:"primaryKey"`
	Token        string    `gorm:"uniqueIndex;size:500;not null"`
	JwtID        string    `gorm:"index;size:200;not null"`
	UserID       string    `gorm:"index;size:36;not null"`
	CreationDate time.Time `gorm:"not null"`
	ExpiryDate   time.Time `gorm:"not null"`
	Used         bool      `gorm:"not null;default:false"`
	Invalidated  bool      `gorm:"not null;default:false"`
}

// Active reports whether the token may still be exchanged at now.
func (t RefreshToken) Active(now time.Time) bool {
	return !t.Used && !t.Invalidated && t.ExpiryDate.After(now)
}

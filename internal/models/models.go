package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for persisted models
type BaseModel struct {
	ID        string    `json:"_id,omitempty" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt,omitzero" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Settings is the singleton row holding server-generated secrets
type Settings struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Generated on first start (64 hex chars)
}

// User is a Sunday-school member account. The same shape is served by the
// backend and cached by the client.
type User struct {
	BaseModel
	StudentID    string `json:"studentId" gorm:"index"`
	Email        string `json:"email" gorm:"unique;not null"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         Role   `json:"role" gorm:"type:varchar(16);not null;default:user"`

	// Personal information
	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName"`
	Sex         string `json:"sex"`
	PhoneNumber string `json:"phoneNumber"`

	Disability     bool   `json:"disability"`
	DisabilityType string `json:"disabilityType,omitempty"`

	DateOfBirth    string `json:"dateOfBirth"` // YYYY-MM-DD
	NationalID     string `json:"nationalId"`
	Occupation     string `json:"occupation,omitempty"`
	MarriageStatus string `json:"marriageStatus"`

	// Location
	Country string `json:"country"`
	Region  string `json:"region"`
	Zone    string `json:"zone,omitempty"`
	Woreda  string `json:"woreda,omitempty"`
	Church  string `json:"church"`

	// Parent/guardian
	ParentStatus      string `json:"parentStatus"`
	ParentFullName    string `json:"parentFullName"`
	ParentEmail       string `json:"parentEmail,omitempty"`
	ParentPhoneNumber string `json:"parentPhoneNumber"`

	// Account management
	Avatar    string     `json:"avatar,omitempty"`
	JoinDate  *time.Time `json:"joinDate,omitempty"`
	Status    string     `json:"status" gorm:"not null;default:active"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt,omitzero" gorm:"autoUpdateTime"`
}

// FullName joins the user's name parts, skipping an empty middle name
func (u *User) FullName() string {
	if u.MiddleName == "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName + " " + u.MiddleName + " " + u.LastName
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Clone returns a deep copy so cached users are never aliased by callers
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.JoinDate != nil {
		t := *u.JoinDate
		c.JoinDate = &t
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// Session is a server-side login session. The JWT handed to clients carries
// the session ID so that logout can revoke it.
type Session struct {
	BaseModel
	UserID    string     `json:"user_id" gorm:"index;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revoked_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Active reports whether the session can still authenticate requests
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// AutoMigrate runs database migrations for all persisted models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Settings{}, &User{}, &Session{}, &Asset{}, &Post{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

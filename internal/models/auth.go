package models

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Credentials is the transient login input. It is never persisted.
type Credentials struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

// RegisterData is a user plus the initial password
type RegisterData struct {
	StudentID string `json:"studentId"`
	Email     string `json:"email" binding:"required,email" validate:"required,email"`
	Password  string `json:"password" binding:"required,min=6" validate:"required,min=6"`
	Role      Role   `json:"role,omitempty" binding:"omitempty,oneof=admin user" validate:"omitempty,oneof=admin user"`

	FirstName   string `json:"firstName" binding:"required" validate:"required"`
	MiddleName  string `json:"middleName,omitempty"`
	LastName    string `json:"lastName" binding:"required" validate:"required"`
	Sex         string `json:"sex" binding:"required,oneof=male female" validate:"required,oneof=male female"`
	PhoneNumber string `json:"phoneNumber" binding:"required,ethphone" validate:"required,ethphone"`

	Disability     bool   `json:"disability"`
	DisabilityType string `json:"disabilityType,omitempty"`

	DateOfBirth    string `json:"dateOfBirth" binding:"required,datetime=2006-01-02" validate:"required,datetime=2006-01-02"`
	NationalID     string `json:"nationalId" binding:"required" validate:"required"`
	Occupation     string `json:"occupation,omitempty"`
	MarriageStatus string `json:"marriageStatus" binding:"required,oneof=single married divorced widowed" validate:"required,oneof=single married divorced widowed"`

	Country string `json:"country" binding:"required" validate:"required"`
	Region  string `json:"region" binding:"required" validate:"required"`
	Zone    string `json:"zone,omitempty"`
	Woreda  string `json:"woreda,omitempty"`
	Church  string `json:"church" binding:"required" validate:"required"`

	ParentStatus      string `json:"parentStatus" binding:"required,oneof=both mother father guardian" validate:"required,oneof=both mother father guardian"`
	ParentFullName    string `json:"parentFullName" binding:"required" validate:"required"`
	ParentEmail       string `json:"parentEmail,omitempty" binding:"omitempty,email" validate:"omitempty,email"`
	ParentPhoneNumber string `json:"parentPhoneNumber" binding:"required,ethphone" validate:"required,ethphone"`
}

// Validate checks the registration payload before it is sent
func (d *RegisterData) Validate() error {
	if err := Validator().Struct(d); err != nil {
		return fmt.Errorf("invalid registration data: %w", err)
	}
	return nil
}

// ToUser copies the profile fields into a User. Password and role are left
// for the caller to decide.
func (d *RegisterData) ToUser() *User {
	return &User{
		StudentID:         d.StudentID,
		Email:             strings.ToLower(strings.TrimSpace(d.Email)),
		FirstName:         d.FirstName,
		MiddleName:        d.MiddleName,
		LastName:          d.LastName,
		Sex:               d.Sex,
		PhoneNumber:       d.PhoneNumber,
		Disability:        d.Disability,
		DisabilityType:    d.DisabilityType,
		DateOfBirth:       d.DateOfBirth,
		NationalID:        d.NationalID,
		Occupation:        d.Occupation,
		MarriageStatus:    d.MarriageStatus,
		Country:           d.Country,
		Region:            d.Region,
		Zone:              d.Zone,
		Woreda:            d.Woreda,
		Church:            d.Church,
		ParentStatus:      d.ParentStatus,
		ParentFullName:    d.ParentFullName,
		ParentEmail:       d.ParentEmail,
		ParentPhoneNumber: d.ParentPhoneNumber,
		Status:            "active",
	}
}

// ChangePasswordRequest is the body of the change-password call
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,nefield=CurrentPassword"`
}

var phonePattern = regexp.MustCompile(`^(\+251|0)[1-9]\d{8}$`)

// IsValidPhone accepts Ethiopian numbers in +251 or leading-zero form.
// Whitespace is ignored.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(strings.Join(strings.Fields(phone), ""))
}

// RegisterValidations installs the custom rules on a validator instance.
// The backend calls it on gin's binding engine, the client on its own.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("ethphone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared client-side validator
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		if err := RegisterValidations(validate); err != nil {
			panic(err)
		}
	})
	return validate
}

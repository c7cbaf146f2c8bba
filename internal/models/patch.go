package models

// UserPatch is a partial user. Nil fields are left untouched and omitted on
// the wire, so a patch only carries what the caller changed.
type UserPatch struct {
	FirstName         *string `json:"firstName,omitempty"`
	MiddleName        *string `json:"middleName,omitempty"`
	LastName          *string `json:"lastName,omitempty"`
	Sex               *string `json:"sex,omitempty" binding:"omitempty,oneof=male female"`
	PhoneNumber       *string `json:"phoneNumber,omitempty" binding:"omitempty,ethphone"`
	Disability        *bool   `json:"disability,omitempty"`
	DisabilityType    *string `json:"disabilityType,omitempty"`
	DateOfBirth       *string `json:"dateOfBirth,omitempty" binding:"omitempty,datetime=2006-01-02"`
	NationalID        *string `json:"nationalId,omitempty"`
	Occupation        *string `json:"occupation,omitempty"`
	MarriageStatus    *string `json:"marriageStatus,omitempty" binding:"omitempty,oneof=single married divorced widowed"`
	Country           *string `json:"country,omitempty"`
	Region            *string `json:"region,omitempty"`
	Zone              *string `json:"zone,omitempty"`
	Woreda            *string `json:"woreda,omitempty"`
	Church            *string `json:"church,omitempty"`
	ParentStatus      *string `json:"parentStatus,omitempty" binding:"omitempty,oneof=both mother father guardian"`
	ParentFullName    *string `json:"parentFullName,omitempty"`
	ParentEmail       *string `json:"parentEmail,omitempty" binding:"omitempty,email"`
	ParentPhoneNumber *string `json:"parentPhoneNumber,omitempty" binding:"omitempty,ethphone"`
	Avatar            *string `json:"avatar,omitempty"`

	// Account fields. The backend only honours these for admins.
	Role   *Role   `json:"role,omitempty" binding:"omitempty,oneof=admin user"`
	Status *string `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`
}

// IsEmpty reports whether the patch changes nothing
func (p UserPatch) IsEmpty() bool {
	return p == UserPatch{}
}

// WithoutAccountFields drops role and status
func (p UserPatch) WithoutAccountFields() UserPatch {
	p.Role = nil
	p.Status = nil
	return p
}

// Apply copies every set field onto u
func (p UserPatch) Apply(u *User) {
	setString(&u.FirstName, p.FirstName)
	setString(&u.MiddleName, p.MiddleName)
	setString(&u.LastName, p.LastName)
	setString(&u.Sex, p.Sex)
	setString(&u.PhoneNumber, p.PhoneNumber)
	if p.Disability != nil {
		u.Disability = *p.Disability
	}
	setString(&u.DisabilityType, p.DisabilityType)
	setString(&u.DateOfBirth, p.DateOfBirth)
	setString(&u.NationalID, p.NationalID)
	setString(&u.Occupation, p.Occupation)
	setString(&u.MarriageStatus, p.MarriageStatus)
	setString(&u.Country, p.Country)
	setString(&u.Region, p.Region)
	setString(&u.Zone, p.Zone)
	setString(&u.Woreda, p.Woreda)
	setString(&u.Church, p.Church)
	setString(&u.ParentStatus, p.ParentStatus)
	setString(&u.ParentFullName, p.ParentFullName)
	setString(&u.ParentEmail, p.ParentEmail)
	setString(&u.ParentPhoneNumber, p.ParentPhoneNumber)
	setString(&u.Avatar, p.Avatar)
	if p.Role != nil {
		u.Role = *p.Role
	}
	setString(&u.Status, p.Status)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}

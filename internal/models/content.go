package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Asset is a tracked church/school asset
type Asset struct {
	ID                  string   `json:"id,omitempty" gorm:"primaryKey;type:varchar(26)"`
	Code                string   `json:"code" gorm:"unique;not null" binding:"required"`
	Name                string   `json:"name" gorm:"not null" binding:"required"`
	Description         string   `json:"description"`
	Category            string   `json:"category" binding:"required"`
	Status              string   `json:"status" gorm:"not null;default:available" binding:"omitempty,oneof=available assigned maintenance retired"`
	AssignedTo          string   `json:"assignedTo,omitempty"`
	PurchaseDate        string   `json:"purchaseDate" binding:"omitempty,datetime=2006-01-02"`
	PurchasePrice       float64  `json:"purchasePrice" binding:"gte=0"`
	Location            string   `json:"location"`
	Condition           string   `json:"condition" binding:"omitempty,oneof=excellent good fair poor"`
	LastMaintenanceDate string   `json:"lastMaintenanceDate,omitempty"`
	NextMaintenanceDate string   `json:"nextMaintenanceDate,omitempty"`
	Supplier            string   `json:"supplier"`
	WarrantyExpiry      string   `json:"warrantyExpiry,omitempty"`
	SerialNumber        string   `json:"serialNumber,omitempty"`
	Tags                []string `json:"tags" gorm:"serializer:json"`
	Images              []string `json:"images" gorm:"serializer:json"`

	CreatedAt time.Time `json:"createdAt,omitzero" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt,omitzero" gorm:"autoUpdateTime"`
}

// BeforeCreate generates a ULID for the asset
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = ulid.Make().String()
	}
	return nil
}

// AssetPatch is a partial asset update
type AssetPatch struct {
	Name                *string   `json:"name,omitempty"`
	Description         *string   `json:"description,omitempty"`
	Category            *string   `json:"category,omitempty"`
	Status              *string   `json:"status,omitempty"`
	AssignedTo          *string   `json:"assignedTo,omitempty"`
	Location            *string   `json:"location,omitempty"`
	Condition           *string   `json:"condition,omitempty"`
	LastMaintenanceDate *string   `json:"lastMaintenanceDate,omitempty"`
	NextMaintenanceDate *string   `json:"nextMaintenanceDate,omitempty"`
	Tags                *[]string `json:"tags,omitempty"`
}

// Apply copies every set field onto a
func (p AssetPatch) Apply(a *Asset) {
	setString(&a.Name, p.Name)
	setString(&a.Description, p.Description)
	setString(&a.Category, p.Category)
	setString(&a.Status, p.Status)
	setString(&a.AssignedTo, p.AssignedTo)
	setString(&a.Location, p.Location)
	setString(&a.Condition, p.Condition)
	setString(&a.LastMaintenanceDate, p.LastMaintenanceDate)
	setString(&a.NextMaintenanceDate, p.NextMaintenanceDate)
	if p.Tags != nil {
		a.Tags = append([]string(nil), (*p.Tags)...)
	}
}

// Post is an entry in the announcement feed. Likes and comments are stored
// with the post.
type Post struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	Title          string    `json:"title" gorm:"not null" binding:"required"`
	Content        string    `json:"content" gorm:"not null" binding:"required"`
	Author         string    `json:"author"`
	AuthorID       string    `json:"authorId" gorm:"index"`
	Category       string    `json:"category" binding:"omitempty,oneof=announcement lesson event general"`
	Status         string    `json:"status" binding:"omitempty,oneof=draft published archived"`
	PublishDate    string    `json:"publishDate"`
	ExpiryDate     string    `json:"expiryDate,omitempty"`
	Tags           []string  `json:"tags" gorm:"serializer:json"`
	Likes          []string  `json:"likes" gorm:"serializer:json"`
	Comments       []Comment `json:"comments" gorm:"serializer:json"`
	Shares         int       `json:"shares"`
	Image          string    `json:"image,omitempty"`
	ImagePublicID  string    `json:"imagePublicId,omitempty"`
	IsPinned       bool      `json:"isPinned"`
	TargetAudience string    `json:"targetAudience" binding:"omitempty,oneof=all students teachers parents"`
	CreatedAt      string    `json:"createdAt"`
	UpdatedAt      string    `json:"updatedAt"`
}

// BeforeCreate generates a ULID for the post
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = ulid.Make().String()
	}
	return nil
}

// LikedBy reports whether userID is among the post's likes
func (p *Post) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Comment belongs to a post and may carry threaded replies
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Author    string    `json:"author"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	Likes     []string  `json:"likes"`
	ParentID  string    `json:"parentId,omitempty"`
	Replies   []Comment `json:"replies"`
	CreatedAt string    `json:"createdAt"`
}

// CommentRequest is the body of a new comment
type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// PostPatch is a partial post update
type PostPatch struct {
	Title          *string   `json:"title,omitempty"`
	Content        *string   `json:"content,omitempty"`
	Category       *string   `json:"category,omitempty"`
	Status         *string   `json:"status,omitempty"`
	ExpiryDate     *string   `json:"expiryDate,omitempty"`
	Tags           *[]string `json:"tags,omitempty"`
	Image          *string   `json:"image,omitempty"`
	IsPinned       *bool     `json:"isPinned,omitempty"`
	TargetAudience *string   `json:"targetAudience,omitempty"`
}

// Apply copies every set field onto p
func (pp PostPatch) Apply(p *Post) {
	setString(&p.Title, pp.Title)
	setString(&p.Content, pp.Content)
	setString(&p.Category, pp.Category)
	setString(&p.Status, pp.Status)
	setString(&p.ExpiryDate, pp.ExpiryDate)
	if pp.Tags != nil {
		p.Tags = append([]string(nil), (*pp.Tags)...)
	}
	setString(&p.Image, pp.Image)
	if pp.IsPinned != nil {
		p.IsPinned = *pp.IsPinned
	}
	setString(&p.TargetAudience, pp.TargetAudience)
}

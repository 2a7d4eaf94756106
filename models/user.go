package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Principal roles. Every authenticated caller carries exactly one of these;
// handlers never branch on parallel client/lawyer profile fields.
const (
	RoleUser   = "user"
	RoleLawyer = "lawyer"
)

type User struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string     `gorm:"not null" json:"name"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `gorm:"not null;default:user;index" json:"role"` // user, lawyer
	Verified    bool       `gorm:"not null;default:false" json:"-"`
	OneTimeCode string     `json:"-"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Relationships
	LawyerProfile *LawyerProfile `gorm:"foreignKey:UserID" json:"lawyer_profile,omitempty"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// IsLawyer reports whether the principal acts as a lawyer
func (u *User) IsLawyer() bool {
	return u.Role == RoleLawyer
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsValidRole checks if the role is valid
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleLawyer
}

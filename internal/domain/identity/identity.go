package identity

import (
	"time"

	"gorm.io/datatypes"
)

// Identity is a signed-in account. The primary key is the provider's subject
// claim, so the row survives email and display-name changes.
type Identity struct {
	SubjectID    string         `gorm:"primaryKey;column:subject_id" json:"subject_id"`
	Email        string         `gorm:"not null;index:idx_identity_email" json:"email"`
	DisplayName  string         `gorm:"column:display_name" json:"display_name"`
	AvatarURL    string         `gorm:"column:avatar_url" json:"avatar_url"`
	HostedDomain string         `gorm:"column:hosted_domain" json:"hosted_domain,omitempty"`
	RawClaims    datatypes.JSON `gorm:"column:raw_claims" json:"-"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Identity) TableName() string { return "identity" }

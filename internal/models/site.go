package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SiteStage is the pipeline state of a site record
type SiteStage string

const (
	StageCreated       SiteStage = "created"
	StageGenerating    SiteStage = "generating"
	StageMaterializing SiteStage = "materializing"
	StageBuilding      SiteStage = "building"
	StageDeploying     SiteStage = "deploying"
	StageDeployed      SiteStage = "deployed"
	StageFailed        SiteStage = "failed"
)

// IsTerminal reports whether no further transition can happen.
func (s SiteStage) IsTerminal() bool {
	return s == StageDeployed || s == StageFailed
}

// Default brand colours applied when the request leaves them empty.
const (
	DefaultPrimaryColor   = "#3B82F6"
	DefaultSecondaryColor = "#1E40AF"
)

// Site is one generation request and, once deployed, its public URL.
// A nil DeployURL means the pipeline has not completed for this record.
type Site struct {
	ID      uuid.UUID `gorm:"type:text;primary_key" json:"id"`
	OwnerID uuid.UUID `gorm:"type:text;index;not null" json:"owner_id"`

	BusinessName  string `gorm:"not null" json:"business_name"`
	BusinessEmail string `json:"business_email"`
	Description   string `gorm:"type:text" json:"description"`

	ContactEmail string `json:"contact_email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`

	LogoURL        *string `json:"logo_url,omitempty"`
	PrimaryColor   string  `gorm:"not null;default:'#3B82F6'" json:"primary_color"`
	SecondaryColor string  `gorm:"not null;default:'#1E40AF'" json:"secondary_color"`

	Facebook  string `json:"facebook"`
	Twitter   string `json:"twitter"`
	Instagram string `json:"instagram"`
	LinkedIn  string `json:"linkedin"`

	SEOTitle       string `json:"seo_title"`
	SEODescription string `gorm:"type:text" json:"seo_description"`
	SEOKeywords    string `json:"seo_keywords"`

	DeployURL     *string   `json:"deploy_url,omitempty"`
	HostingSiteID string    `gorm:"index" json:"hosting_site_id,omitempty"`
	Stage         SiteStage `gorm:"not null;default:'created'" json:"stage"`
	FailureReason string    `gorm:"type:text" json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (s *Site) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Stage == "" {
		s.Stage = StageCreated
	}
	return nil
}

// IsLive reports whether the site completed deployment.
func (s *Site) IsLive() bool {
	return s.DeployURL != nil && *s.DeployURL != ""
}

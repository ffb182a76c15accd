package service

import "github.com/AthlureSolutions/sitelure/internal/models"

// CreateRequest holds the brand inputs for a new site.
type CreateRequest struct {
	BusinessName  string `json:"business_name" validate:"required,max=120"`
	BusinessEmail string `json:"business_email" validate:"omitempty,email"`
	Description   string `json:"description" validate:"max=2000"`

	ContactEmail string `json:"contact_email" validate:"required,email"`
	Phone        string `json:"phone" validate:"max=40"`
	Address      string `json:"address" validate:"max=300"`

	LogoURL        string `json:"logo_url" validate:"max=500"`
	PrimaryColor   string `json:"primary_color" validate:"omitempty,hexcolor"`
	SecondaryColor string `json:"secondary_color" validate:"omitempty,hexcolor"`

	Facebook  string `json:"facebook" validate:"omitempty,url"`
	Twitter   string `json:"twitter" validate:"omitempty,url"`
	Instagram string `json:"instagram" validate:"omitempty,url"`
	LinkedIn  string `json:"linkedin" validate:"omitempty,url"`

	SEOTitle       string `json:"seo_title" validate:"max=120"`
	SEODescription string `json:"seo_description" validate:"max=500"`
	SEOKeywords    string `json:"seo_keywords" validate:"max=500"`
}

// CreateResult is the pending record and the job that will build it.
type CreateResult struct {
	Site *models.Site `json:"site"`
	Job  *models.Job  `json:"job"`
}

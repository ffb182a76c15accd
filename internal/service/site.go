package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/AthlureSolutions/sitelure/internal/hosting"
	"github.com/AthlureSolutions/sitelure/internal/models"
	"github.com/AthlureSolutions/sitelure/internal/queue"
	"github.com/AthlureSolutions/sitelure/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

// Teardown deletes a site's hosting destination.
type Teardown interface {
	Teardown(ctx context.Context, hostingSiteID, deployURL string) error
}

// WorkspaceRemover deletes a site's workspace directory.
type WorkspaceRemover interface {
	Remove(siteID uuid.UUID) error
}

// SiteService contains the business logic for site operations.
type SiteService struct {
	store      *store.Store
	queue      queue.Queue
	hosting    Teardown
	workspaces WorkspaceRemover
	validate   *validator.Validate
	policy     *bluemonday.Policy
	logger     *slog.Logger
}

// New creates a new SiteService.
func New(st *store.Store, q queue.Queue, hosting Teardown, workspaces WorkspaceRemover, logger *slog.Logger) *SiteService {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return &SiteService{
		store:      st,
		queue:      q,
		hosting:    hosting,
		workspaces: workspaces,
		validate:   v,
		policy:     bluemonday.StrictPolicy(),
		logger:     logger,
	}
}

// Create validates and stores a pending site, then queues its generation job.
func (s *SiteService) Create(ctx context.Context, owner uuid.UUID, req CreateRequest) (*CreateResult, error) {
	s.sanitize(&req)
	if err := s.validate.Struct(req); err != nil {
		return nil, toValidationError(err)
	}

	site := siteFromRequest(req)
	site.OwnerID = owner
	if err := s.store.Create(ctx, site); err != nil {
		return nil, err
	}

	job := &models.Job{
		SiteID:  site.ID,
		OwnerID: owner,
		Type:    models.JobTypeGenerate,
		Status:  models.JobStatusPending,
		Metadata: map[string]interface{}{
			"business_name": site.BusinessName,
		},
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		if uerr := s.store.UpdateStage(context.WithoutCancel(ctx), site.ID, owner, models.StageFailed, "The site could not be queued for generation"); uerr != nil {
			s.logger.Error("Failed to mark unqueued site", "site_id", site.ID, "error", uerr)
		}
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	s.logger.Info("Site queued", "site_id", site.ID, "job_id", job.ID, "owner_id", owner)
	return &CreateResult{Site: site, Job: job}, nil
}

// List returns the owner's sites.
func (s *SiteService) List(ctx context.Context, owner uuid.UUID) ([]models.Site, error) {
	return s.store.List(ctx, owner)
}

// Get returns one of the owner's sites.
func (s *SiteService) Get(ctx context.Context, id, owner uuid.UUID) (*models.Site, error) {
	site, err := s.store.GetOne(ctx, id, owner)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return site, err
}

// Jobs returns the generation jobs of one of the owner's sites.
func (s *SiteService) Jobs(ctx context.Context, id, owner uuid.UUID) ([]models.Job, error) {
	if _, err := s.Get(ctx, id, owner); err != nil {
		return nil, err
	}
	return s.store.ListJobs(ctx, id, owner)
}

// GetJob returns one of the owner's jobs.
func (s *SiteService) GetJob(ctx context.Context, id, owner uuid.UUID) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, id, owner)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return job, err
}

// Delete removes the hosting destination, the record and the workspace, in
// that order. Only the record deletion can fail the call.
func (s *SiteService) Delete(ctx context.Context, id, owner uuid.UUID) error {
	site, err := s.Get(ctx, id, owner)
	if err != nil {
		return err
	}
	log := s.logger.With("site_id", id)

	if site.HostingSiteID != "" || site.IsLive() {
		var deployURL string
		if site.DeployURL != nil {
			deployURL = *site.DeployURL
		}
		switch err := s.hosting.Teardown(ctx, site.HostingSiteID, deployURL); {
		case err == nil:
			log.Info("Hosting destination removed")
		case errors.Is(err, hosting.ErrNotConfigured), errors.Is(err, hosting.ErrDestinationNotFound):
			log.Warn("Hosting destination not removed", "reason", err)
		default:
			log.Error("Hosting teardown failed", "error", err)
		}
	}

	if err := s.store.Delete(ctx, id, owner); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.workspaces.Remove(id); err != nil {
		log.Error("Failed to remove workspace", "error", err)
	}
	log.Info("Site deleted")
	return nil
}

// sanitize strips markup from every free-text field and trims whitespace,
// so whitespace-only values fail the required rules.
func (s *SiteService) sanitize(req *CreateRequest) {
	for _, f := range []*string{
		&req.BusinessName, &req.BusinessEmail, &req.Description,
		&req.ContactEmail, &req.Phone, &req.Address,
		&req.LogoURL, &req.PrimaryColor, &req.SecondaryColor,
		&req.Facebook, &req.Twitter, &req.Instagram, &req.LinkedIn,
		&req.SEOTitle, &req.SEODescription, &req.SEOKeywords,
	} {
		*f = strings.TrimSpace(s.plainText(*f))
	}
}

// maxSanitizePasses bounds plainText on pathological nesting such as &amp;amp;lt;.
const maxSanitizePasses = 8

// plainText strips markup and decodes entities until the value is stable, so
// escaped tags like "&lt;b&gt;" cannot come back as markup after decoding.
func (s *SiteService) plainText(v string) string {
	for range maxSanitizePasses {
		next := html.UnescapeString(s.policy.Sanitize(v))
		if next == v {
			return v
		}
		v = next
	}
	return s.policy.Sanitize(v)
}

func siteFromRequest(req CreateRequest) *models.Site {
	site := &models.Site{
		BusinessName:   req.BusinessName,
		BusinessEmail:  req.BusinessEmail,
		Description:    req.Description,
		ContactEmail:   req.ContactEmail,
		Phone:          req.Phone,
		Address:        req.Address,
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
		Facebook:       req.Facebook,
		Twitter:        req.Twitter,
		Instagram:      req.Instagram,
		LinkedIn:       req.LinkedIn,
		SEOTitle:       req.SEOTitle,
		SEODescription: req.SEODescription,
		SEOKeywords:    req.SEOKeywords,
		Stage:          models.StageCreated,
	}
	if req.LogoURL != "" {
		logo := req.LogoURL
		site.LogoURL = &logo
	}
	if site.PrimaryColor == "" {
		site.PrimaryColor = models.DefaultPrimaryColor
	}
	if site.SecondaryColor == "" {
		site.SecondaryColor = models.DefaultSecondaryColor
	}
	if site.SEOTitle == "" {
		site.SEOTitle = site.BusinessName
	}
	if site.SEODescription == "" {
		site.SEODescription = site.Description
	}
	return site
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Message: err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describe(fe)
	}
	return &ValidationError{Message: "invalid site request", Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "hexcolor":
		return "must be a hex colour such as #3B82F6"
	case "url":
		return "must be a valid URL"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

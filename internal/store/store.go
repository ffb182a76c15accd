package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/AthlureSolutions/sitelure/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no row matches the (id, owner) pair.
var ErrNotFound = errors.New("record not found")

// Store persists site records and their jobs. Every site access is scoped
// to the owning user.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an open, migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying GORM DB for advanced queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Create inserts a new site. ID and Stage are assigned by the model hook.
func (s *Store) Create(ctx context.Context, site *models.Site) error {
	if site.OwnerID == uuid.Nil {
		return errors.New("site must have an owner")
	}
	if err := s.db.WithContext(ctx).Create(site).Error; err != nil {
		return fmt.Errorf("create site: %w", err)
	}
	return nil
}

// GetOne returns the site with id owned by owner.
func (s *Store) GetOne(ctx context.Context, id, owner uuid.UUID) (*models.Site, error) {
	var site models.Site
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).First(&site).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	return &site, nil
}

// List returns the owner's sites, newest first.
func (s *Store) List(ctx context.Context, owner uuid.UUID) ([]models.Site, error) {
	var sites []models.Site
	if err := s.db.WithContext(ctx).Where("owner_id = ?", owner).Order("created_at DESC").Find(&sites).Error; err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return sites, nil
}

// UpdateStage records a pipeline transition. reason is stored as the
// failure reason and should be empty for non-failure stages.
func (s *Store) UpdateStage(ctx context.Context, id, owner uuid.UUID, stage models.SiteStage, reason string) error {
	return s.update(ctx, id, owner, map[string]interface{}{
		"stage":          stage,
		"failure_reason": reason,
	})
}

// SetHostingSite stores the provider destination id as soon as it is known.
func (s *Store) SetHostingSite(ctx context.Context, id, owner uuid.UUID, hostingSiteID string) error {
	return s.update(ctx, id, owner, map[string]interface{}{"hosting_site_id": hostingSiteID})
}

// SetDeployed writes the public URL and marks the site deployed. It is the
// only write that ever sets deploy_url.
func (s *Store) SetDeployed(ctx context.Context, id, owner uuid.UUID, hostingSiteID, deployURL string) (*models.Site, error) {
	if deployURL == "" {
		return nil, errors.New("deploy url must not be empty")
	}
	err := s.update(ctx, id, owner, map[string]interface{}{
		"deploy_url":      deployURL,
		"hosting_site_id": hostingSiteID,
		"stage":           models.StageDeployed,
		"failure_reason":  "",
	})
	if err != nil {
		return nil, err
	}
	return s.GetOne(ctx, id, owner)
}

// Delete removes the site row and its jobs. Deleting a missing row returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id, owner uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND owner_id = ?", id, owner).Delete(&models.Site{})
		if result.Error != nil {
			return fmt.Errorf("delete site: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("site_id = ? AND owner_id = ?", id, owner).Delete(&models.Job{}).Error; err != nil {
			return fmt.Errorf("delete jobs: %w", err)
		}
		return nil
	})
}

func (s *Store) update(ctx context.Context, id, owner uuid.UUID, updates map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.Site{}).
		Where("id = ? AND owner_id = ?", id, owner).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update site: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateJob inserts a pending job.
func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetJob returns the job with id owned by owner.
func (s *Store) GetJob(ctx context.Context, id, owner uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, owner).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// ListJobs returns the jobs for a site, newest first.
func (s *Store) ListJobs(ctx context.Context, siteID, owner uuid.UUID) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Where("site_id = ? AND owner_id = ?", siteID, owner).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

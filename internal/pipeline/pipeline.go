package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/content"
	"github.com/AthlureSolutions/sitelure/internal/generator"
	"github.com/AthlureSolutions/sitelure/internal/hosting"
	"github.com/AthlureSolutions/sitelure/internal/models"
	"github.com/AthlureSolutions/sitelure/internal/workspace"
	"github.com/google/uuid"
)

// SiteStore is the record store a run persists its progress to.
type SiteStore interface {
	Create(ctx context.Context, site *models.Site) error
	UpdateStage(ctx context.Context, id, owner uuid.UUID, stage models.SiteStage, reason string) error
	SetHostingSite(ctx context.Context, id, owner uuid.UUID, hostingSiteID string) error
	SetDeployed(ctx context.Context, id, owner uuid.UUID, hostingSiteID, deployURL string) (*models.Site, error)
}

// ContentGenerator produces a validated content tree.
type ContentGenerator interface {
	Generate(ctx context.Context, in generator.Input) (*content.Tree, error)
}

// Materializer prepares a build-ready workspace.
type Materializer interface {
	Prepare(ctx context.Context, siteID uuid.UUID, tree *content.Tree, assetRef string, logWriter io.Writer) (string, error)
}

// Builder turns a workspace into an artifact directory.
type Builder interface {
	Build(ctx context.Context, wsPath string, logWriter io.Writer) (string, error)
}

// Deployer publishes an artifact directory.
type Deployer interface {
	Deploy(ctx context.Context, artifactDir, business string, logWriter io.Writer) (*hosting.Result, error)
}

// Recorder receives run and stage measurements.
type Recorder interface {
	RunStarted()
	StageFinished(stage models.SiteStage, d time.Duration)
	RunFinished(outcome, failedStage models.SiteStage, kind string)
}

// Deps are the collaborators of an Orchestrator. Metrics and Logger are optional.
type Deps struct {
	Store        SiteStore
	Generator    ContentGenerator
	Materializer Materializer
	Builder      Builder
	Deployer     Deployer
	Metrics      Recorder
	Logger       *slog.Logger

	// DevMode keeps diagnostics in the failure reason stored on the record.
	DevMode bool
}

// Orchestrator runs generate, materialize, build and deploy for one site
// record at a time and keeps the record's stage current.
type Orchestrator struct {
	store        SiteStore
	generator    ContentGenerator
	materializer Materializer
	builder      Builder
	deployer     Deployer
	metrics      Recorder
	logger       *slog.Logger
	devMode      bool
}

// New creates an orchestrator.
func New(d Deps) (*Orchestrator, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("pipeline: store is required")
	case d.Generator == nil:
		return nil, errors.New("pipeline: generator is required")
	case d.Materializer == nil:
		return nil, errors.New("pipeline: materializer is required")
	case d.Builder == nil:
		return nil, errors.New("pipeline: builder is required")
	case d.Deployer == nil:
		return nil, errors.New("pipeline: deployer is required")
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Orchestrator{
		store:        d.Store,
		generator:    d.Generator,
		materializer: d.Materializer,
		builder:      d.Builder,
		deployer:     d.Deployer,
		metrics:      d.Metrics,
		logger:       d.Logger,
		devMode:      d.DevMode,
	}, nil
}

// Validate checks the fields a run cannot start without.
func Validate(site *models.Site) error {
	var missing []string
	if strings.TrimSpace(site.BusinessName) == "" {
		missing = append(missing, "business name")
	}
	if strings.TrimSpace(site.ContactEmail) == "" {
		missing = append(missing, "contact email")
	}
	if site.OwnerID == uuid.Nil {
		missing = append(missing, "owner")
	}
	if len(missing) > 0 {
		return &StageError{
			Stage: models.StageCreated,
			Kind:  KindInput,
			Err:   fmt.Errorf("%s required", strings.Join(missing, " and ")),
		}
	}
	return nil
}

// Create validates site and inserts it in the created stage. Nothing is
// written when validation fails.
func (o *Orchestrator) Create(ctx context.Context, site *models.Site) error {
	if err := Validate(site); err != nil {
		return err
	}
	site.DeployURL = nil
	site.Stage = models.StageCreated
	if err := o.store.Create(ctx, site); err != nil {
		return &StageError{Stage: models.StageCreated, Kind: KindStore, Err: err}
	}
	return nil
}

// Execute creates the record and runs the pipeline for it.
func (o *Orchestrator) Execute(ctx context.Context, site *models.Site, logWriter io.Writer) (*models.Site, error) {
	if err := o.Create(ctx, site); err != nil {
		return nil, err
	}
	return o.Run(ctx, site, logWriter)
}

// Run drives an existing record from created to deployed. On failure the
// record is left in the failed stage without a deploy URL, the workspace is
// kept for inspection and the returned error is a *StageError.
func (o *Orchestrator) Run(ctx context.Context, site *models.Site, logWriter io.Writer) (*models.Site, error) {
	if logWriter == nil {
		logWriter = io.Discard
	}
	log := o.logger.With("site_id", site.ID)
	o.metrics.RunStarted()

	deployed, err := o.run(ctx, site, logWriter, log)
	if err != nil {
		se := classify(site.Stage, err)
		o.metrics.RunFinished(models.StageFailed, se.Stage, string(se.Kind))

		reason := se.PublicMessage(o.devMode)
		// The failure is recorded even when the caller's context is gone.
		if uerr := o.store.UpdateStage(context.WithoutCancel(ctx), site.ID, site.OwnerID, models.StageFailed, reason); uerr != nil {
			log.Error("Failed to record pipeline failure", "error", uerr)
		}
		site.Stage = models.StageFailed
		site.FailureReason = reason

		fmt.Fprintf(logWriter, "Pipeline failed during %s: %v\n", se.Stage, se.Err)
		log.Error("Pipeline failed", "stage", se.Stage, "kind", se.Kind, "error", se.Err, "detail", se.Detail())
		return site, se
	}

	o.metrics.RunFinished(models.StageDeployed, "", "")
	fmt.Fprintf(logWriter, "Site is live at %s\n", *deployed.DeployURL)
	log.Info("Pipeline completed", "url", *deployed.DeployURL)
	return deployed, nil
}

func (o *Orchestrator) run(ctx context.Context, site *models.Site, w io.Writer, log *slog.Logger) (*models.Site, error) {
	if err := Validate(site); err != nil {
		return nil, err
	}
	in := InputFromSite(site)

	var tree *content.Tree
	err := o.stage(ctx, site, models.StageGenerating, w, func() error {
		t, err := o.generator.Generate(ctx, in)
		tree = t
		return err
	})
	if err != nil {
		return nil, err
	}

	var assetRef string
	if site.LogoURL != nil {
		assetRef = *site.LogoURL
	}
	var wsPath string
	err = o.stage(ctx, site, models.StageMaterializing, w, func() error {
		p, err := o.materializer.Prepare(ctx, site.ID, tree, assetRef, w)
		wsPath = p
		return err
	})
	if err != nil {
		return nil, err
	}

	var artifact string
	err = o.stage(ctx, site, models.StageBuilding, w, func() error {
		a, err := o.builder.Build(ctx, wsPath, w)
		artifact = a
		return err
	})
	if err != nil {
		return nil, err
	}

	var res *hosting.Result
	err = o.stage(ctx, site, models.StageDeploying, w, func() error {
		r, err := o.deployer.Deploy(ctx, artifact, site.BusinessName, w)
		if r != nil && r.SiteID != "" {
			// Keep the destination id even for failed uploads so deletion can find it.
			if serr := o.store.SetHostingSite(ctx, site.ID, site.OwnerID, r.SiteID); serr != nil {
				if err == nil {
					o.orphaned(ctx, r, log, serr)
					return &StageError{Stage: models.StageDeploying, Kind: KindStore, Err: serr}
				}
				log.Error("Failed to record hosting destination", "destination", r.SiteID, "error", serr)
			} else {
				site.HostingSiteID = r.SiteID
			}
		}
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}

	deployed, err := o.store.SetDeployed(ctx, site.ID, site.OwnerID, res.SiteID, res.URL)
	if err != nil {
		log.Error("Deployed site could not be recorded", "destination", res.SiteID, "url", res.URL, "error", err)
		return nil, &StageError{Stage: models.StageDeploying, Kind: KindStore, Err: err}
	}
	return deployed, nil
}

// teardowner is implemented by deployers that can remove a destination.
type teardowner interface {
	Teardown(ctx context.Context, hostingSiteID, deployURL string) error
}

// orphaned handles a live destination the record could not be linked to.
// Nothing would ever delete it, so it is torn down when the deployer allows.
func (o *Orchestrator) orphaned(ctx context.Context, r *hosting.Result, log *slog.Logger, cause error) {
	log.Error("Live destination is not linked to its record", "destination", r.SiteID, "url", r.URL, "error", cause)
	td, ok := o.deployer.(teardowner)
	if !ok {
		return
	}
	if err := td.Teardown(context.WithoutCancel(ctx), r.SiteID, r.URL); err != nil {
		log.Error("Failed to tear down unlinked destination; remove it manually", "destination", r.SiteID, "error", err)
		return
	}
	log.Info("Tore down unlinked destination", "destination", r.SiteID)
}

// stage persists the transition into stage, then runs fn and classifies its error.
func (o *Orchestrator) stage(ctx context.Context, site *models.Site, stage models.SiteStage, w io.Writer, fn func() error) error {
	if err := o.store.UpdateStage(ctx, site.ID, site.OwnerID, stage, ""); err != nil {
		return &StageError{Stage: stage, Kind: KindStore, Err: err}
	}
	site.Stage = stage
	fmt.Fprintf(w, "==> %s\n", stage)

	start := time.Now()
	err := fn()
	o.metrics.StageFinished(stage, time.Since(start))
	if err != nil {
		return classify(stage, err)
	}
	return nil
}

// InputFromSite maps a record to generator input. Upload references become
// the site-relative path the built site serves them from.
func InputFromSite(site *models.Site) generator.Input {
	in := generator.Input{
		BusinessName:   strings.TrimSpace(site.BusinessName),
		BusinessEmail:  site.BusinessEmail,
		Description:    site.Description,
		ContactEmail:   strings.TrimSpace(site.ContactEmail),
		Phone:          site.Phone,
		Address:        site.Address,
		PrimaryColor:   site.PrimaryColor,
		SecondaryColor: site.SecondaryColor,
		Facebook:       site.Facebook,
		Twitter:        site.Twitter,
		Instagram:      site.Instagram,
		LinkedIn:       site.LinkedIn,
		SEOTitle:       site.SEOTitle,
		SEODescription: site.SEODescription,
		SEOKeywords:    site.SEOKeywords,
	}
	if site.LogoURL != nil && *site.LogoURL != "" {
		in.LogoURL = workspace.PublicAssetPath(*site.LogoURL)
	}
	if in.SEOTitle == "" {
		in.SEOTitle = in.BusinessName
	}
	if in.SEODescription == "" {
		in.SEODescription = site.Description
	}
	return in
}

type nopRecorder struct{}

func (nopRecorder) RunStarted() {}

func (nopRecorder) StageFinished(models.SiteStage, time.Duration) {}

func (nopRecorder) RunFinished(models.SiteStage, models.SiteStage, string) {}

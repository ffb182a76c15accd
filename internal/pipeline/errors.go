package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AthlureSolutions/sitelure/internal/build"
	"github.com/AthlureSolutions/sitelure/internal/content"
	"github.com/AthlureSolutions/sitelure/internal/hosting"
	"github.com/AthlureSolutions/sitelure/internal/models"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindInput           Kind = "input"
	KindGeneration      Kind = "generation"
	KindValidation      Kind = "validation"
	KindMaterialization Kind = "materialization"
	KindBuild           Kind = "build"
	KindDeployment      Kind = "deployment"
	KindStore           Kind = "store"
)

var publicMessages = map[Kind]string{
	KindInput:           "The request is missing required information",
	KindGeneration:      "Website content could not be generated, please try again",
	KindValidation:      "Generated content did not have the required structure, please try again",
	KindMaterialization: "The website project could not be prepared",
	KindBuild:           "The website failed to build",
	KindDeployment:      "The website could not be published to the hosting provider",
	KindStore:           "The website record could not be saved",
}

// StageError is the single failure a run surfaces. Err keeps the
// stage-local error so callers can inspect it with errors.As.
type StageError struct {
	Stage models.SiteStage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed during %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Detail returns operator diagnostics such as captured build output or a
// provider response body. It is not safe to show to end users.
func (e *StageError) Detail() string {
	var ve *content.ValidationError
	if errors.As(e.Err, &ve) {
		lines := make([]string, 0, len(ve.Violations))
		for _, v := range ve.Violations {
			lines = append(lines, v.String())
		}
		return strings.Join(lines, "\n")
	}

	var be *build.Error
	if errors.As(e.Err, &be) {
		if be.Err != nil {
			return be.Err.Error()
		}
		return fmt.Sprintf("%s exited with code %d\n%s", be.Step, be.ExitCode, be.Stderr)
	}

	var ae *hosting.APIError
	if errors.As(e.Err, &ae) {
		return fmt.Sprintf("%s returned %d: %s", ae.Op, ae.StatusCode, ae.Body)
	}

	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// PublicMessage returns the text that may be shown to the user. Diagnostics
// are appended only in development mode. Input errors always name the field.
func (e *StageError) PublicMessage(devMode bool) string {
	msg := publicMessages[e.Kind]
	if msg == "" {
		msg = "Website generation failed"
	}
	if e.Kind == KindInput || devMode {
		if d := e.Detail(); d != "" {
			msg += ": " + d
		}
	}
	return msg
}

// KindOf returns the failure kind of err, or "" when err is not a StageError.
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func classify(stage models.SiteStage, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}

	var ve *content.ValidationError
	if errors.As(err, &ve) {
		return &StageError{Stage: stage, Kind: KindValidation, Err: err}
	}

	kind := KindStore
	switch stage {
	case models.StageGenerating:
		kind = KindGeneration
	case models.StageMaterializing:
		kind = KindMaterialization
	case models.StageBuilding:
		kind = KindBuild
	case models.StageDeploying:
		kind = KindDeployment
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

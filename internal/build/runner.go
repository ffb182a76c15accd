package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/config"
	"github.com/AthlureSolutions/sitelure/internal/utils"
	"github.com/AthlureSolutions/sitelure/internal/workspace"
)

// Build steps reported in Error.Step.
const (
	StepInstall  = "install"
	StepBuild    = "build"
	StepArtifact = "artifact"
)

// maxStderr bounds the captured output kept on an Error.
const maxStderr = 64 << 10

// Error is a failed build. Dependency installation failures are build failures.
type Error struct {
	Step     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("build %s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("build %s failed with exit code %d", e.Step, e.ExitCode)
}

func (e *Error) Unwrap() error { return e.Err }

// Runner installs dependencies and builds a prepared workspace.
type Runner struct {
	proc      ProcessRunner
	toolchain Toolchain
	cache     *Cache
	logger    *slog.Logger
}

// NewRunner creates a runner for the configured toolchain.
func NewRunner(cfg config.BuildConfig, proc ProcessRunner, logger *slog.Logger) (*Runner, error) {
	tc, err := NewToolchain(cfg.Toolchain, cfg.BinPath)
	if err != nil {
		return nil, err
	}
	if proc == nil {
		proc = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		proc:      proc,
		toolchain: tc,
		cache:     NewCache(cfg.CacheDir),
		logger:    logger,
	}, nil
}

// Build runs install (unless restored from cache) and the build command in
// wsPath and returns the artifact directory.
func (r *Runner) Build(ctx context.Context, wsPath string, logWriter io.Writer) (string, error) {
	if logWriter == nil {
		logWriter = io.Discard
	}

	manifest, err := workspace.LoadManifest(wsPath)
	if err != nil {
		return "", &Error{Step: StepInstall, ExitCode: -1, Err: err}
	}

	key := r.cache.Key(wsPath, r.toolchain, manifest.Version)
	restored, err := r.cache.Restore(key, wsPath)
	if err != nil {
		r.logger.Warn("Dependency cache restore failed", "key", key, "error", err)
	}

	if restored {
		fmt.Fprintf(logWriter, "Restored dependencies from cache (%s)\n", key)
	} else {
		name, args := r.toolchain.Install()
		if err := r.run(ctx, StepInstall, wsPath, name, args, logWriter); err != nil {
			return "", err
		}
		if err := r.cache.Store(key, wsPath); err != nil {
			r.logger.Warn("Dependency cache write failed", "key", key, "error", err)
		}
	}

	name, args := r.toolchain.Build()
	if err := r.run(ctx, StepBuild, wsPath, name, args, logWriter); err != nil {
		return "", err
	}

	artifact := filepath.Join(wsPath, filepath.FromSlash(manifest.ArtifactDir))
	info, err := os.Stat(artifact)
	if err != nil || !info.IsDir() {
		return "", &Error{
			Step:   StepArtifact,
			Stderr: fmt.Sprintf("artifact directory %q not found after build", manifest.ArtifactDir),
		}
	}

	if files, size, err := utils.DirStats(artifact); err == nil {
		fmt.Fprintf(logWriter, "Build artifact: %d files, %s\n", files, utils.FormatBytes(size))
	}
	return artifact, nil
}

func (r *Runner) run(ctx context.Context, step, dir, name string, args []string, logWriter io.Writer) error {
	fmt.Fprintf(logWriter, "Running: %s %s\n", name, strings.Join(args, " "))
	start := time.Now()

	res, err := r.proc.Run(ctx, Command{Name: name, Args: args, Dir: dir, Output: logWriter})
	if err != nil {
		return &Error{Step: step, ExitCode: -1, Stderr: truncate(res.Stderr), Err: err}
	}
	if res.ExitCode != 0 {
		r.logger.Warn("Build step failed", "step", step, "exit_code", res.ExitCode, "dir", dir)
		return &Error{Step: step, ExitCode: res.ExitCode, Stderr: truncate(res.Stderr)}
	}

	r.logger.Debug("Build step finished", "step", step, "duration", time.Since(start))
	return nil
}

// truncate keeps the tail of long output, where the failure usually is.
func truncate(s string) string {
	if len(s) <= maxStderr {
		return s
	}
	return "..." + s[len(s)-maxStderr:]
}

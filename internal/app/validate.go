package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/catalog"
	"github.com/truwl/capanno-utils/internal/infra/contentmap"
)

const metadataPattern = "{" + domain.ToolsDir + "," + domain.ScriptsDir + "," + domain.WorkflowsDir + "}/**/*" + domain.MetadataSuffix

type ValidateOptions struct {
	// Pattern limits validation to repository-relative paths matching this
	// doublestar pattern. Repository-wide checks run only without it.
	Pattern string
	// VerifyIndex requires every identifier to be in the content index.
	VerifyIndex bool
}

// ValidationFailure is one document or repository-wide check that failed.
type ValidationFailure struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

type ValidationReport struct {
	Checked  int                 `json:"checked"`
	Failures []ValidationFailure `json:"failures"`
}

// Err joins every failure, or returns nil when validation passed.
func (r ValidationReport) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, failure := range r.Failures {
		errs = append(errs, failure.Err)
	}
	return errors.Join(errs...)
}

func (r *ValidationReport) fail(path string, err error) {
	r.Failures = append(r.Failures, ValidationFailure{Path: path, Message: err.Error(), Err: err})
}

// Validate loads every metadata document in the repository and reports the
// ones that fail. Without a pattern it also checks identifier uniqueness
// across the repository and that every instance job has metadata.
func (a *Application) Validate(ctx context.Context, opts ValidateOptions) (ValidationReport, error) {
	if opts.Pattern != "" && !doublestar.ValidatePattern(opts.Pattern) {
		return ValidationReport{}, domain.E(domain.CodeInvalidArgument, "validate", fmt.Sprintf("invalid pattern %q", opts.Pattern), nil)
	}
	root := a.layout.Root()
	matches, err := doublestar.Glob(os.DirFS(root), metadataPattern, doublestar.WithFilesOnly())
	if err != nil {
		return ValidationReport{}, fmt.Errorf("list metadata: %w", err)
	}

	report := ValidationReport{Failures: []ValidationFailure{}}
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if hidden(rel) {
			continue
		}
		if opts.Pattern != "" {
			if ok, _ := doublestar.Match(opts.Pattern, rel); !ok {
				continue
			}
		}
		report.Checked++
		if _, err := a.loader.Load(ctx, a.layout, filepath.Join(root, filepath.FromSlash(rel)), catalog.LoadOptions{VerifyIndex: opts.VerifyIndex}); err != nil {
			if errors.Is(err, context.Canceled) {
				return report, err
			}
			report.fail(rel, err)
		}
	}

	if opts.Pattern == "" && len(report.Failures) == 0 {
		if err := a.validateRepository(ctx, &report); err != nil {
			return report, err
		}
	}

	a.logger.Info("validation finished",
		zap.Int("checked", report.Checked),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

func (a *Application) validateRepository(ctx context.Context, report *ValidationReport) error {
	m, err := a.builder.All(ctx, false)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		report.fail("", err)
		return nil
	}
	for _, id := range m.Identifiers() {
		entry, _ := m.Get(id)
		if entry.Type != domain.EntrySubtool {
			continue
		}
		subtoolDir := filepath.Join(a.layout.Root(), filepath.FromSlash(path.Dir(entry.MetadataPath)))
		jobs, err := contentmap.Instances(subtoolDir)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			meta := catalog.MetadataPathFor(job)
			if exists(filepath.Join(subtoolDir, filepath.FromSlash(meta))) {
				continue
			}
			rel := path.Join(path.Dir(entry.MetadataPath), job)
			report.fail(rel, &domain.MissingFieldError{Path: rel, Field: "instance metadata"})
		}
	}
	return nil
}

func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

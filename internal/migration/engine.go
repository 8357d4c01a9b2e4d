package migration

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"mailstack-cli/internal/interfaces"
	"mailstack-cli/internal/resolver"
	"mailstack-cli/internal/schema"
	"mailstack-cli/internal/store"
)

// Engine checks and migrates configuration files against a schema
type Engine struct {
	store    *store.Store
	schema   *schema.Schema
	resolver *resolver.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates a migration engine
func NewEngine(st *store.Store, s *schema.Schema, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:    st,
		schema:   s,
		resolver: resolver.New(nil, logger),
		logger:   logger,
		now:      time.Now,
	}
}

// Check reports whether the file at path is outdated. Nothing is written.
func (e *Engine) Check(path string) (Report, error) {
	report, _, err := e.diff(path)
	return report, err
}

// Apply migrates the file at path when it is outdated: the current file is
// backed up, then the merged configuration replaces it atomically. The
// backup path is empty when nothing was written.
func (e *Engine) Apply(path string) (Report, string, error) {
	report, merged, err := e.diff(path)
	if err != nil {
		return report, "", err
	}
	if !report.Changed {
		e.logger.Debug("configuration up to date", zap.String("path", path))
		return report, "", nil
	}

	backup, err := e.store.Backup(path, e.now())
	if err != nil {
		return report, "", errors.Wrap(err, "backup before migration")
	}
	if err := e.store.Save(path, merged); err != nil {
		return report, backup, errors.Wrap(err, "writing migrated configuration")
	}

	e.logger.Info("configuration migrated",
		zap.String("path", path),
		zap.String("backup", backup),
		zap.Strings("dropped_sections", report.DroppedSections),
		zap.Strings("added_sections", report.AddedSections),
		zap.Int("dropped_options", len(report.DroppedOptions)),
		zap.Int("added_options", len(report.AddedOptions)))
	return report, backup, nil
}

func (e *Engine) diff(path string) (Report, *interfaces.ResolvedConfig, error) {
	if !e.store.Exists(path) {
		return Report{}, nil, errors.Wrapf(store.ErrNotFound, "%s", path)
	}

	old, err := e.store.Load(path)
	if err != nil {
		// carry-forward is best effort, an unreadable file migrates as empty
		e.logger.Warn("existing configuration unreadable, treating as empty",
			zap.String("path", path), zap.Error(err))
		old = interfaces.NewResolvedConfig()
	}

	fresh, err := e.resolver.Resolve(e.schema, false)
	if err != nil {
		return Report{}, nil, errors.Wrap(err, "resolving schema defaults")
	}

	report, merged := DiffAndMerge(old, fresh)
	return report, merged, nil
}

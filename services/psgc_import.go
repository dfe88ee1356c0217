package services

import (
	"context"
	"errors"
	"fmt"

	"psgc_api_go/db"
	"psgc_api_go/logging"
	"psgc_api_go/metrics"
	"psgc_api_go/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ImportState is the coordinator's position in an import run
type ImportState string

const (
	ImportIdle       ImportState = "idle"
	ImportTruncating ImportState = "truncating"
	ImportImporting  ImportState = "importing"
	ImportCommitted  ImportState = "committed"
	ImportRolledBack ImportState = "rolled_back"
	ImportFailed     ImportState = "failed"
	ImportDeclined   ImportState = "declined"
)

// TruncatePrompt is shown to the operator before tables are emptied
const TruncatePrompt = "This will delete ALL regions, provinces, city/municipalities and barangays. Continue?"

// ImportOptions selects source files and run mode. Tables without a path are
// left untouched.
type ImportOptions struct {
	Regions            string
	Provinces          string
	CityMunicipalities string
	Barangays          string

	Truncate   bool
	DryRun     bool
	FlushCache bool

	// Confirm is asked before truncating; a nil Confirm declines
	Confirm func(prompt string) bool
}

// ImportResult summarises a finished run
type ImportResult struct {
	State     ImportState
	Truncated bool
	Rows      map[string]int
}

// Committed reports whether the run persisted anything
func (r *ImportResult) Committed() bool {
	return r.State == ImportCommitted
}

type tableSource struct {
	table string
	path  string
	write func(ctx context.Context, tx *gorm.DB, res *Resolver, rec CSVRecord) error
}

// Importer runs the CSV pipeline: read, resolve parents, upsert, all inside
// one transaction.
type Importer struct {
	db    *gorm.DB
	cache CacheStore
	log   logrus.FieldLogger
}

// NewImporter creates an importer. cache is only used when FlushCache is set.
func NewImporter(conn *gorm.DB, cache CacheStore, logger logrus.FieldLogger) *Importer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Importer{db: conn, cache: cache, log: logger}
}

var errDryRun = errors.New("dry run")

// Run executes one import. The returned error is a *FatalImportError whenever
// the transaction was rolled back because of a failure.
func (i *Importer) Run(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{State: ImportIdle, Rows: make(map[string]int)}
	defer func() {
		metrics.ImportRunsTotal.WithLabelValues(string(result.State)).Inc()
	}()

	if opts.Truncate && (opts.Confirm == nil || !opts.Confirm(TruncatePrompt)) {
		i.log.Info("truncate declined, nothing changed")
		result.State = ImportDeclined
		return result, nil
	}

	// Every source must exist before anything is truncated
	sources := opts.sources()
	for _, src := range sources {
		if err := CheckCSV(src.path); err != nil {
			result.State = ImportFailed
			return result, &FatalImportError{Table: src.table, Err: err}
		}
	}

	// A dry run truncates inside the transaction so the rollback restores the rows
	if opts.Truncate && !opts.DryRun {
		result.State = ImportTruncating
		if err := i.truncate(ctx); err != nil {
			result.State = ImportFailed
			return result, &FatalImportError{Err: err}
		}
		result.Truncated = true
	}

	result.State = ImportImporting
	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Truncate && opts.DryRun {
			i.log.Warn("truncating PSGC tables inside the dry-run transaction")
			if err := truncateTables(tx); err != nil {
				return &FatalImportError{Err: err}
			}
		}

		res := NewResolver(tx)
		for _, src := range sources {
			rows, err := i.importTable(ctx, tx, res, src)
			result.Rows[src.table] = rows
			if err != nil {
				return err
			}
		}
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})

	switch {
	case errors.Is(err, errDryRun):
		result.State = ImportRolledBack
		i.log.WithField("rows", result.Rows).Info("dry run finished, transaction rolled back")
		return result, nil
	case err != nil:
		result.State = ImportFailed
		var fatal *FatalImportError
		if !errors.As(err, &fatal) {
			fatal = &FatalImportError{Err: err}
		}
		i.log.WithError(fatal).Error("import failed, transaction rolled back")
		return result, fatal
	}

	result.State = ImportCommitted
	i.log.WithField("rows", result.Rows).Info("import committed")

	if opts.FlushCache && i.cache != nil {
		if err := i.cache.Flush(ctx); err != nil {
			i.log.WithError(err).Warn("failed to flush response cache")
		} else {
			i.log.Info("response cache flushed")
		}
	}
	return result, nil
}

func (o ImportOptions) sources() []tableSource {
	all := []tableSource{
		{table: models.TableRegions, path: o.Regions, write: func(ctx context.Context, tx *gorm.DB, _ *Resolver, rec CSVRecord) error {
			return UpsertRegion(ctx, tx, rec)
		}},
		{table: models.TableProvinces, path: o.Provinces, write: UpsertProvince},
		{table: models.TableCityMunicipalities, path: o.CityMunicipalities, write: UpsertCityMunicipality},
		{table: models.TableBarangays, path: o.Barangays, write: UpsertBarangay},
	}

	var selected []tableSource
	for _, src := range all {
		if src.path != "" {
			selected = append(selected, src)
		}
	}
	return selected
}

func (i *Importer) importTable(ctx context.Context, tx *gorm.DB, res *Resolver, src tableSource) (int, error) {
	log := i.log.WithFields(logrus.Fields{"table": src.table, "file": src.path})
	log.Info("importing")

	reader, err := OpenCSV(src.path)
	if err != nil {
		return 0, &FatalImportError{Table: src.table, Err: err}
	}
	defer reader.Close()

	rows := 0
	for rec, err := range reader.Records() {
		if err != nil {
			return rows, &FatalImportError{Table: src.table, Err: err}
		}
		if err := ctx.Err(); err != nil {
			return rows, &FatalImportError{Table: src.table, Line: rec.Line, Err: err}
		}
		if err := src.write(ctx, tx, res, rec); err != nil {
			return rows, &FatalImportError{Table: src.table, Line: rec.Line, Err: err}
		}
		rows++
	}

	metrics.ImportRowsTotal.WithLabelValues(src.table).Add(float64(rows))
	log.WithField("rows", rows).Info("imported")
	return rows, nil
}

// truncate hard-deletes every row, children first, with foreign keys off
func (i *Importer) truncate(ctx context.Context) error {
	i.log.Warn("truncating PSGC tables")

	return db.WithoutForeignKeys(i.db.WithContext(ctx), truncateTables)
}

// truncateTables hard-deletes all four tables children first, so no foreign
// key is violated even when enforcement stays on
func truncateTables(tx *gorm.DB) error {
	ordered := []interface{}{&models.Barangay{}, &models.CityMunicipality{}, &models.Province{}, &models.Region{}}
	for _, model := range ordered {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return fmt.Errorf("failed to truncate: %w", err)
		}
	}
	return nil
}

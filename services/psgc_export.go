package services

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"psgc_api_go/logging"
	"psgc_api_go/metrics"
	"psgc_api_go/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Export formats and status filters
const (
	ExportFormatCSV  = "csv"
	ExportFormatJSON = "json"
	ExportStatusAll  = "all"
)

// ExportOptions selects what the exporter writes. Empty Tables means all four.
type ExportOptions struct {
	OutputDir string   `validate:"required"`
	Tables    []string `validate:"dive,oneof=regions provinces city_municipalities barangays"`
	Format    string   `validate:"oneof=csv json"`
	Status    string   `validate:"oneof=active inactive all"`
	Upload    bool
}

// ExportedFile describes one written file
type ExportedFile struct {
	Table string
	Path  string
	Rows  int
	Key   string // storage key when uploaded
	URL   string
}

// ExportResult lists the files of one export run
type ExportResult struct {
	Files []ExportedFile
}

// TotalRows sums the rows of every file
func (r *ExportResult) TotalRows() int {
	total := 0
	for _, f := range r.Files {
		total += f.Rows
	}
	return total
}

// exportTable describes the columns of one export file. The header doubles
// as the import CSV header so exported files can be imported back.
type exportTable struct {
	header []string
	query  func(conn *gorm.DB) *gorm.DB
	alias  string
}

var exportTables = map[string]exportTable{
	models.TableRegions: {
		header: []string{"code", "name", "short_name", "island_group", "status"},
		alias:  "r",
		query: func(conn *gorm.DB) *gorm.DB {
			return conn.Table("regions AS r").
				Select("r.code, r.name, r.short_name, r.island_group, r.status").
				Where("r.deleted_at IS NULL")
		},
	},
	models.TableProvinces: {
		header: []string{"code", "name", "region_code", "old_name", "status"},
		alias:  "p",
		query: func(conn *gorm.DB) *gorm.DB {
			return conn.Table("provinces AS p").
				Select("p.code, p.name, r.code, p.old_name, p.status").
				Joins("LEFT JOIN regions r ON r.id = p.region_id AND r.deleted_at IS NULL").
				Where("p.deleted_at IS NULL")
		},
	},
	models.TableCityMunicipalities: {
		header: []string{"code", "name", "province_code", "region_code", "type", "income_class", "urban_rural", "old_name", "status"},
		alias:  "c",
		query: func(conn *gorm.DB) *gorm.DB {
			return conn.Table("city_municipalities AS c").
				Select("c.code, c.name, p.code, r.code, c.type, c.income_class, c.urban_rural, c.old_name, c.status").
				Joins("LEFT JOIN provinces p ON p.id = c.province_id AND p.deleted_at IS NULL").
				Joins("LEFT JOIN regions r ON r.id = c.region_id AND r.deleted_at IS NULL").
				Where("c.deleted_at IS NULL")
		},
	},
	models.TableBarangays: {
		header: []string{"code", "name", "city_municipality_code", "province_code", "region_code", "old_name", "status"},
		alias:  "b",
		query: func(conn *gorm.DB) *gorm.DB {
			return conn.Table("barangays AS b").
				Select("b.code, b.name, c.code, p.code, r.code, b.old_name, b.status").
				Joins("LEFT JOIN city_municipalities c ON c.id = b.city_municipality_id AND c.deleted_at IS NULL").
				Joins("LEFT JOIN provinces p ON p.id = b.province_id AND p.deleted_at IS NULL").
				Joins("LEFT JOIN regions r ON r.id = b.region_id AND r.deleted_at IS NULL").
				Where("b.deleted_at IS NULL")
		},
	},
}

// ExportHeader returns the column names of a table's export file
func ExportHeader(table string) []string {
	return exportTables[table].header
}

// Exporter writes PSGC tables to CSV or JSON files with parent codes in
// place of foreign keys.
type Exporter struct {
	db      *gorm.DB
	storage StorageProvider
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewExporter creates an exporter. storage is only used for uploads.
func NewExporter(conn *gorm.DB, storage StorageProvider, logger logrus.FieldLogger) *Exporter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Exporter{db: conn, storage: storage, log: logger, now: time.Now}
}

func (o *ExportOptions) applyDefaults() {
	if o.OutputDir == "" {
		o.OutputDir = "exports"
	}
	if len(o.Tables) == 0 {
		o.Tables = models.Tables()
	}
	if o.Format == "" {
		o.Format = ExportFormatCSV
	}
	if o.Status == "" {
		o.Status = models.StatusActive
	}
}

// Run writes one file per selected table, in dependency order
func (e *Exporter) Run(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	opts.applyDefaults()
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	if opts.Upload && e.storage == nil {
		return nil, fmt.Errorf("%w: upload requested but no storage is configured", ErrInvalidOption)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	selected := make(map[string]bool, len(opts.Tables))
	for _, t := range opts.Tables {
		selected[t] = true
	}

	runAt := e.now()
	result := &ExportResult{}
	for _, table := range models.Tables() {
		if !selected[table] {
			continue
		}

		file, err := e.exportTable(ctx, table, opts)
		if err != nil {
			return result, err
		}
		if opts.Upload {
			if err := e.upload(ctx, runAt, file); err != nil {
				return result, err
			}
		}

		metrics.ExportRowsTotal.WithLabelValues(table, opts.Format).Add(float64(file.Rows))
		e.log.WithFields(logrus.Fields{"table": table, "rows": file.Rows, "file": file.Path}).Info("exported")
		result.Files = append(result.Files, *file)
	}
	return result, nil
}

func (e *Exporter) exportTable(ctx context.Context, table string, opts ExportOptions) (*ExportedFile, error) {
	spec := exportTables[table]

	query := spec.query(e.db.WithContext(ctx))
	if opts.Status != ExportStatusAll {
		query = query.Where(spec.alias+".status = ?", opts.Status)
	}
	rows, err := query.Order(spec.alias + ".code ASC").Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	path := filepath.Join(opts.OutputDir, table+"."+opts.Format)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var sink rowSink
	if opts.Format == ExportFormatJSON {
		sink = newJSONSink(w, spec.header)
	} else {
		sink = newCSVSink(w, spec.header)
	}

	if err := sink.begin(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	values := make([]sql.NullString, len(spec.header))
	dest := make([]interface{}, len(values))
	for i := range values {
		dest[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", table, err)
		}
		if err := sink.write(values); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}

	if err := sink.end(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return &ExportedFile{Table: table, Path: path, Rows: count}, nil
}

func (e *Exporter) upload(ctx context.Context, runAt time.Time, file *ExportedFile) error {
	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s for upload: %w", file.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", file.Path, err)
	}

	key := ExportStorageKey(runAt, filepath.Base(file.Path))
	stored, err := e.storage.UploadReader(ctx, f, key, contentTypeFor(key), info.Size())
	if err != nil {
		return err
	}
	file.Key = stored.Key
	file.URL = stored.URL
	return nil
}

type rowSink interface {
	begin() error
	write(values []sql.NullString) error
	end() error
}

// csvSink writes NULL as an empty cell
type csvSink struct {
	w      *csv.Writer
	header []string
	record []string
}

func newCSVSink(w *bufio.Writer, header []string) *csvSink {
	return &csvSink{w: csv.NewWriter(w), header: header, record: make([]string, len(header))}
}

func (s *csvSink) begin() error {
	return s.w.Write(s.header)
}

func (s *csvSink) write(values []sql.NullString) error {
	for i, v := range values {
		s.record[i] = v.String
	}
	return s.w.Write(s.record)
}

func (s *csvSink) end() error {
	s.w.Flush()
	return s.w.Error()
}

// jsonSink streams an array of objects whose keys follow the header order
type jsonSink struct {
	w      *bufio.Writer
	header []string
	first  bool
}

func newJSONSink(w *bufio.Writer, header []string) *jsonSink {
	return &jsonSink{w: w, header: header, first: true}
}

func (s *jsonSink) begin() error {
	_, err := s.w.WriteString("[")
	return err
}

func (s *jsonSink) write(values []sql.NullString) error {
	if !s.first {
		if _, err := s.w.WriteString(","); err != nil {
			return err
		}
	}
	s.first = false

	if _, err := s.w.WriteString("\n  {"); err != nil {
		return err
	}
	for i, name := range s.header {
		if i > 0 {
			s.w.WriteString(", ")
		}
		key, _ := json.Marshal(name)
		s.w.Write(key)
		s.w.WriteString(": ")

		var val []byte
		if values[i].Valid {
			val, _ = json.Marshal(values[i].String)
		} else {
			val = []byte("null")
		}
		if _, err := s.w.Write(val); err != nil {
			return err
		}
	}
	_, err := s.w.WriteString("}")
	return err
}

func (s *jsonSink) end() error {
	if s.first {
		_, err := s.w.WriteString("]\n")
		return err
	}
	_, err := s.w.WriteString("\n]\n")
	return err
}

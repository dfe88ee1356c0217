package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"psgc_api_go/models"

	"github.com/xuri/excelize/v2"
)

// Geographic levels used by the PSA publication
const (
	GeoLevelRegion       = "Reg"
	GeoLevelProvince     = "Prov"
	GeoLevelDistrict     = "Dist"
	GeoLevelCity         = "City"
	GeoLevelMunicipality = "Mun"
	GeoLevelSubMun       = "SubMun"
	GeoLevelBarangay     = "Bgy"
)

// Island groups
const (
	IslandGroupLuzon    = "Luzon"
	IslandGroupVisayas  = "Visayas"
	IslandGroupMindanao = "Mindanao"
)

// ConvertResult reports the rows written per table
type ConvertResult struct {
	Rows  map[string]int
	Files map[string]string
}

// IslandGroup derives the island group from a region's two-digit prefix
func IslandGroup(code string) string {
	if len(code) < 2 {
		return ""
	}
	switch code[:2] {
	case "01", "02", "03", "04", "05", "13", "14", "17":
		return IslandGroupLuzon
	case "06", "07", "08", "18":
		return IslandGroupVisayas
	case "09", "10", "11", "12", "16", "19":
		return IslandGroupMindanao
	}
	return ""
}

// Parent codes derived from the 10-digit layout RR PPP MM BBB
func regionCodeOf(code string) string   { return prefixCode(code, 2) }
func provinceCodeOf(code string) string { return prefixCode(code, 5) }
func cityCodeOf(code string) string     { return prefixCode(code, 7) }

// prefixCode returns "" when the derived parent would be code itself
func prefixCode(code string, n int) string {
	if len(code) != 10 {
		return ""
	}
	parent := code[:n] + strings.Repeat("0", 10-n)
	if parent == code {
		return ""
	}
	return parent
}

// cityTypeFromClass maps a PSA city class to the stored type
func cityTypeFromClass(class string) string {
	switch strings.ToUpper(strings.TrimSpace(class)) {
	case "HUC", "ICC", "CC":
		return models.CityTypeCity
	}
	return models.CityTypeMunicipality
}

type tableWriter struct {
	file *os.File
	csv  *csv.Writer
	rows int
}

func newTableWriters(outDir string) (map[string]*tableWriter, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	writers := make(map[string]*tableWriter, 4)
	for _, table := range models.Tables() {
		f, err := os.Create(filepath.Join(outDir, table+".csv"))
		if err != nil {
			closeTableWriters(writers)
			return nil, fmt.Errorf("failed to create %s.csv: %w", table, err)
		}
		w := csv.NewWriter(f)
		if err := w.Write(ExportHeader(table)); err != nil {
			f.Close()
			closeTableWriters(writers)
			return nil, err
		}
		writers[table] = &tableWriter{file: f, csv: w}
	}
	return writers, nil
}

func (t *tableWriter) write(record ...string) error {
	t.rows++
	return t.csv.Write(record)
}

func closeTableWriters(writers map[string]*tableWriter) {
	for _, w := range writers {
		w.file.Close()
	}
}

func finishTableWriters(writers map[string]*tableWriter, outDir string) (*ConvertResult, error) {
	result := &ConvertResult{Rows: make(map[string]int), Files: make(map[string]string)}
	var firstErr error
	for table, w := range writers {
		w.csv.Flush()
		if err := w.csv.Error(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to write %s.csv: %w", table, err)
		}
		if err := w.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		result.Rows[table] = w.rows
		result.Files[table] = filepath.Join(outDir, table+".csv")
	}
	return result, firstErr
}

// JSON dataset layout of the @jobuntux/psgc package
type jsonRegion struct {
	PsgcCode   string `json:"psgcCode"`
	RegionName string `json:"regionName"`
	RegCode    string `json:"regCode"`
}

type jsonProvince struct {
	PsgcCode    string `json:"psgcCode"`
	ProvName    string `json:"provName"`
	RegCode     string `json:"regCode"`
	ProvCode    string `json:"provCode"`
	ProvOldName string `json:"provOldName"`
}

type jsonMunCity struct {
	PsgcCode       string `json:"psgcCode"`
	MunCityName    string `json:"munCityName"`
	RegCode        string `json:"regCode"`
	ProvCode       string `json:"provCode"`
	MunCityCode    string `json:"munCityCode"`
	CityClass      string `json:"cityClass"`
	MunCityOldName string `json:"munCityOldName"`
}

type jsonBarangay struct {
	PsgcCode    string `json:"psgcCode"`
	BrgyName    string `json:"brgyName"`
	RegCode     string `json:"regCode"`
	ProvCode    string `json:"provCode"`
	MunCityCode string `json:"munCityCode"`
	BrgyOldName string `json:"brgyOldName"`
}

func readJSONFile[T any](dir, name string) ([]T, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: file not found: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var out []T
	if err := json.NewDecoder(f).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return out, nil
}

// ConvertJSONDataset turns the @jobuntux/psgc JSON files in srcDir into the
// four import CSVs in outDir. Short parent codes are mapped to full PSGC codes.
func ConvertJSONDataset(srcDir, outDir string) (*ConvertResult, error) {
	regions, err := readJSONFile[jsonRegion](srcDir, "regions.json")
	if err != nil {
		return nil, err
	}
	provinces, err := readJSONFile[jsonProvince](srcDir, "provinces.json")
	if err != nil {
		return nil, err
	}
	cities, err := readJSONFile[jsonMunCity](srcDir, "muncities.json")
	if err != nil {
		return nil, err
	}
	barangays, err := readJSONFile[jsonBarangay](srcDir, "barangays.json")
	if err != nil {
		return nil, err
	}

	regionByShort := make(map[string]string, len(regions))
	for _, r := range regions {
		regionByShort[r.RegCode] = r.PsgcCode
	}
	provinceByShort := make(map[string]string, len(provinces))
	for _, p := range provinces {
		provinceByShort[p.ProvCode] = p.PsgcCode
	}
	cityByShort := make(map[string]string, len(cities))
	for _, c := range cities {
		cityByShort[c.MunCityCode] = c.PsgcCode
	}

	writers, err := newTableWriters(outDir)
	if err != nil {
		return nil, err
	}

	write := func() error {
		for _, r := range regions {
			if err := writers[models.TableRegions].write(r.PsgcCode, r.RegionName, r.RegCode, IslandGroup(r.PsgcCode), models.StatusActive); err != nil {
				return err
			}
		}
		for _, p := range provinces {
			if err := writers[models.TableProvinces].write(p.PsgcCode, p.ProvName, regionByShort[p.RegCode], p.ProvOldName, models.StatusActive); err != nil {
				return err
			}
		}
		for _, c := range cities {
			if err := writers[models.TableCityMunicipalities].write(
				c.PsgcCode, c.MunCityName, provinceByShort[c.ProvCode], regionByShort[c.RegCode],
				cityTypeFromClass(c.CityClass), "", "", c.MunCityOldName, models.StatusActive,
			); err != nil {
				return err
			}
		}
		for _, b := range barangays {
			if err := writers[models.TableBarangays].write(
				b.PsgcCode, b.BrgyName, cityByShort[b.MunCityCode], provinceByShort[b.ProvCode], regionByShort[b.RegCode],
				b.BrgyOldName, models.StatusActive,
			); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write(); err != nil {
		closeTableWriters(writers)
		return nil, fmt.Errorf("failed to write converted CSV: %w", err)
	}
	return finishTableWriters(writers, outDir)
}

// workbookColumns holds the column index of each field, -1 when absent
type workbookColumns struct {
	code, name, level, oldName, cityClass, income, urbanRural int
}

func findWorkbookHeader(row []string) (workbookColumns, bool) {
	cols := workbookColumns{-1, -1, -1, -1, -1, -1, -1}
	for i, cell := range row {
		h := strings.ToLower(strings.Join(strings.Fields(cell), " "))
		switch {
		case strings.Contains(h, "psgc") && cols.code < 0:
			cols.code = i
		case h == "name":
			cols.name = i
		case strings.Contains(h, "geographic level"):
			cols.level = i
		case strings.Contains(h, "old name"):
			cols.oldName = i
		case strings.Contains(h, "city class"):
			cols.cityClass = i
		case strings.Contains(h, "income"):
			cols.income = i
		case strings.Contains(h, "urban"):
			cols.urbanRural = i
		}
	}
	return cols, cols.code >= 0 && cols.name >= 0 && cols.level >= 0
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// normalizeWorkbookCode restores leading zeros lost when a code cell is numeric
func normalizeWorkbookCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || len(code) >= 10 {
		return code
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return code
		}
	}
	return strings.Repeat("0", 10-len(code)) + code
}

// ConvertWorkbook reads the PSA PSGC publication (.xlsx) and writes the four
// import CSVs. The sheet is the one named "PSGC" when present, the first
// sheet otherwise. Parent codes are derived from the code prefix.
func ConvertWorkbook(xlsxPath, outDir string) (*ConvertResult, error) {
	if _, err := os.Stat(xlsxPath); err != nil {
		return nil, fmt.Errorf("%w: file not found: %s", ErrNotFound, xlsxPath)
	}

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	for _, name := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(name), "PSGC") {
			sheet = name
			break
		}
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	writers, err := newTableWriters(outDir)
	if err != nil {
		return nil, err
	}

	var (
		cols      workbookColumns
		hasHeader bool
	)
	for rows.Next() {
		row, err := rows.Columns()
		if err != nil {
			closeTableWriters(writers)
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if !hasHeader {
			cols, hasHeader = findWorkbookHeader(row)
			continue
		}

		if err := writeWorkbookRow(writers, cols, row); err != nil {
			closeTableWriters(writers)
			return nil, fmt.Errorf("failed to write converted CSV: %w", err)
		}
	}

	if !hasHeader {
		closeTableWriters(writers)
		return nil, fmt.Errorf("%w: no PSGC header row in sheet %s", ErrInvalidOption, sheet)
	}
	return finishTableWriters(writers, outDir)
}

func writeWorkbookRow(writers map[string]*tableWriter, cols workbookColumns, row []string) error {
	code := normalizeWorkbookCode(cell(row, cols.code))
	if len(code) != 10 {
		return nil
	}
	name := cell(row, cols.name)
	oldName := cell(row, cols.oldName)

	switch cell(row, cols.level) {
	case GeoLevelRegion:
		return writers[models.TableRegions].write(code, name, "", IslandGroup(code), models.StatusActive)
	case GeoLevelProvince, GeoLevelDistrict:
		return writers[models.TableProvinces].write(code, name, regionCodeOf(code), oldName, models.StatusActive)
	case GeoLevelCity, GeoLevelMunicipality, GeoLevelSubMun:
		cityType := cityTypeFromClass(cell(row, cols.cityClass))
		if cell(row, cols.level) == GeoLevelCity {
			cityType = models.CityTypeCity
		}
		return writers[models.TableCityMunicipalities].write(
			code, name, provinceCodeOf(code), regionCodeOf(code), cityType,
			cell(row, cols.income), cell(row, cols.urbanRural), oldName, models.StatusActive,
		)
	case GeoLevelBarangay:
		return writers[models.TableBarangays].write(
			code, name, cityCodeOf(code), provinceCodeOf(code), regionCodeOf(code), oldName, models.StatusActive,
		)
	}
	return nil
}

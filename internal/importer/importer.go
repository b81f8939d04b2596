// Package importer parses CSV, Excel and JSON uploads into normalized
// records and validates them against a declared schema. Parsing errors fall
// in two classes: fatal file errors that abort the import, and per-row
// violations that are collected while the remaining rows are kept.
package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ecolehub/ecole-api/internal/caseconv"
	appErrors "github.com/ecolehub/ecole-api/pkg/errors"
)

// RowError reports a violation on one imported row. Row is 1-based and
// counts data rows in parse order, excluding the header.
type RowError struct {
	Row         int    `json:"row"`
	Field       string `json:"field,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Banner is the summary shown after an import attempt.
type Banner struct {
	Success     bool   `json:"success"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Result carries everything one Parse call produced.
type Result struct {
	Rows      []map[string]interface{} `json:"rows"`
	Columns   []Column                 `json:"columns"`
	RowErrors []RowError               `json:"rowErrors,omitempty"`
	FileError *appErrors.Error         `json:"-"`
	Banner    *Banner                  `json:"banner,omitempty"`
}

// OK reports whether the file parsed and every row passed validation.
func (r *Result) OK() bool {
	return r.FileError == nil && len(r.RowErrors) == 0
}

// Parser validates uploads against a single schema. It is not safe for
// concurrent use; handlers build one per request.
type Parser struct {
	schema   Schema
	validate *validator.Validate
	logger   *zap.Logger

	// MaxRows aborts the import when the file holds more data rows.
	// Zero means no limit.
	MaxRows int

	result *Result
	// rowNums maps result.Rows indexes to 1-based parse positions. A CSV
	// parse warning consumes a position without producing a row, so the
	// two can diverge.
	rowNums []int
}

func NewParser(schema Schema, validate *validator.Validate, logger *zap.Logger) *Parser {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		schema:   schema,
		validate: validate,
		logger:   logger,
		result:   &Result{},
	}
}

// Result returns the outcome of the last Parse call.
func (p *Parser) Result() *Result { return p.result }

// Reset clears any previously parsed rows, errors and banner.
func (p *Parser) Reset() {
	p.result = &Result{}
	p.rowNums = nil
}

// Parse dispatches on the file extension. Unknown extensions are fatal.
func (p *Parser) Parse(data []byte, filename string) *Result {
	p.Reset()
	p.result.Columns = p.schema.Columns()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		p.parseCSV(data)
	case ".xlsx", ".xls":
		p.parseExcel(data)
	case ".json":
		p.parseJSON(data)
	default:
		p.fail(appErrors.ErrUnsupportedFileType)
		return p.result
	}

	if p.result.FileError != nil {
		return p.result
	}
	p.validateRows()
	p.summarize()
	p.logger.Info("import parsed",
		zap.String("file", filename),
		zap.String("schema", p.schema.Name),
		zap.Int("rows", len(p.result.Rows)),
		zap.Int("row_errors", len(p.result.RowErrors)))
	return p.result
}

// fail records a fatal file error. Partially parsed rows are dropped so a
// fatal outcome never carries a row set.
func (p *Parser) fail(err *appErrors.Error) {
	p.result.Rows = nil
	p.rowNums = nil
	p.result.FileError = err
	p.result.Banner = &Banner{
		Success:     false,
		Title:       "Erreur de validation",
		Description: err.Message,
	}
}

func (p *Parser) parseCSV(data []byte) {
	if len(bytes.TrimSpace(data)) == 0 {
		p.fail(appErrors.ErrEmptyFile)
		return
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		p.fail(appErrors.ErrEmptyFile)
		return
	}
	keys := p.normalizeHeader(header)
	if !p.checkRequiredHeader(keys) {
		return
	}

	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// parser warnings are kept next to validation errors, the
			// surviving rows are still returned
			rowNum++
			p.result.RowErrors = append(p.result.RowErrors, RowError{
				Row:         rowNum,
				Title:       fmt.Sprintf("Erreur à la ligne %d", rowNum),
				Description: fmt.Sprintf("Ligne illisible : %v", err),
			})
			continue
		}
		if emptyRecord(record) {
			continue
		}
		rowNum++
		if p.overRowLimit(len(p.result.Rows) + 1) {
			return
		}
		row := make(map[string]interface{}, len(keys))
		for i, key := range keys {
			if key == "" {
				continue
			}
			cell := ""
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			row[key] = coerceCell(cell)
		}
		p.result.Rows = append(p.result.Rows, row)
		p.rowNums = append(p.rowNums, rowNum)
	}

	if len(p.result.Rows) == 0 {
		p.fail(appErrors.ErrEmptyFile)
	}
}

func (p *Parser) parseExcel(data []byte) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		p.fail(appErrors.Clone(appErrors.ErrUnsupportedFileType, "Fichier Excel illisible"))
		return
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		p.fail(appErrors.ErrNoSheet)
		return
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil || len(rows) == 0 {
		p.fail(appErrors.ErrEmptySheet)
		return
	}

	// unlike CSV there is no fatal header check here: a missing column
	// surfaces as per-row violations instead
	keys := p.normalizeHeader(rows[0])

	rowNum := 0
	for _, record := range rows[1:] {
		if emptyRecord(record) {
			continue
		}
		rowNum++
		if p.overRowLimit(len(p.result.Rows) + 1) {
			return
		}
		row := make(map[string]interface{}, len(keys))
		for i, key := range keys {
			if key == "" {
				continue
			}
			cell := ""
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			row[key] = p.coerceTyped(key, cell)
		}
		p.result.Rows = append(p.result.Rows, row)
		p.rowNums = append(p.rowNums, rowNum)
	}

	if len(p.result.Rows) == 0 {
		p.fail(appErrors.ErrEmptySheet)
	}
}

func (p *Parser) parseJSON(data []byte) {
	var decoded interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		p.fail(appErrors.Clone(appErrors.ErrInvalidInput, "Fichier JSON invalide"))
		return
	}

	var items []interface{}
	switch v := decoded.(type) {
	case map[string]interface{}:
		// a single object is treated as a one-row import
		items = []interface{}{v}
	case []interface{}:
		items = v
	default:
		p.fail(appErrors.Clone(appErrors.ErrInvalidInput, "Le fichier JSON doit contenir un objet ou une liste d'objets"))
		return
	}

	// positions follow the source list: a rejected element keeps its row
	// number for both its warning and later validation errors
	for i, item := range items {
		rowNum := i + 1
		rec, ok := item.(map[string]interface{})
		if !ok {
			p.result.RowErrors = append(p.result.RowErrors, RowError{
				Row:         rowNum,
				Title:       fmt.Sprintf("Erreur à la ligne %d", rowNum),
				Description: "L'élément n'est pas un enregistrement",
			})
			continue
		}
		converted, err := caseconv.Convert(rec, caseconv.Camel, caseconv.Options{})
		if err != nil {
			continue
		}
		if p.overRowLimit(len(p.result.Rows) + 1) {
			return
		}
		row := make(map[string]interface{}, len(converted))
		for key, value := range converted {
			row[p.matchSchemaKey(key)] = value
		}
		p.result.Rows = append(p.result.Rows, row)
		p.rowNums = append(p.rowNums, rowNum)
	}

	if len(p.result.Rows) == 0 {
		p.fail(appErrors.ErrEmptyFile)
	}
}

// normalizeHeader maps raw header cells onto schema keys: exact match
// first, case-insensitive second, passthrough otherwise. Empty cells stay
// empty and their column is dropped.
func (p *Parser) normalizeHeader(header []string) []string {
	keys := make([]string, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		keys[i] = p.matchSchemaKey(name)
	}
	return keys
}

func (p *Parser) matchSchemaKey(name string) string {
	for _, f := range p.schema.Fields {
		if f.Name == name {
			return f.Name
		}
	}
	for _, f := range p.schema.Fields {
		if strings.EqualFold(f.Name, name) {
			return f.Name
		}
	}
	return name
}

// checkRequiredHeader fails the import when a required schema field is
// absent from the header row.
func (p *Parser) checkRequiredHeader(keys []string) bool {
	present := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		present[k] = struct{}{}
	}
	var missing []string
	for _, name := range p.schema.RequiredKeys() {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		p.fail(appErrors.Clone(appErrors.ErrMissingFields,
			fmt.Sprintf("Champs manquants dans le fichier : %s", strings.Join(missing, ", "))))
		return false
	}
	return true
}

func (p *Parser) overRowLimit(rowNum int) bool {
	if p.MaxRows > 0 && rowNum > p.MaxRows {
		p.fail(appErrors.Clone(appErrors.ErrInvalidInput,
			fmt.Sprintf("Le fichier dépasse la limite de %d lignes", p.MaxRows)))
		return true
	}
	return false
}

// validateRows checks every parsed row against the schema. Rows with
// violations are kept in normalized form so the caller can show them.
// Violations are numbered by the row's parse position, not its index.
func (p *Parser) validateRows() {
	for i, row := range p.result.Rows {
		rowNum := i + 1
		if i < len(p.rowNums) {
			rowNum = p.rowNums[i]
		}
		for _, spec := range p.schema.Fields {
			value, present := row[spec.Name]
			if msg := validateField(p.validate, spec, value, present); msg != "" {
				p.result.RowErrors = append(p.result.RowErrors, RowError{
					Row:         rowNum,
					Field:       spec.Name,
					Title:       fmt.Sprintf("Erreur à la ligne %d", rowNum),
					Description: msg,
				})
			}
		}
	}
}

func (p *Parser) summarize() {
	if n := len(p.result.RowErrors); n > 0 {
		p.result.Banner = &Banner{
			Success:     false,
			Title:       "Erreur de validation",
			Description: fmt.Sprintf("Des erreurs ont été détectées dans les données (%d). Veuillez les corriger.", n),
		}
		return
	}
	p.result.Banner = &Banner{
		Success:     true,
		Title:       "Validation réussie",
		Description: "Super, vos données sont correctes et prêtes à être sauvegardées.",
	}
}

// coerceCell applies the CSV dynamic typing rules: numeric-looking cells
// become numbers, true/false become booleans, everything else stays text.
func coerceCell(cell string) interface{} {
	if cell == "" {
		return ""
	}
	if num, err := strconv.ParseFloat(cell, 64); err == nil {
		return num
	}
	switch strings.ToLower(cell) {
	case "true":
		return true
	case "false":
		return false
	}
	return cell
}

// coerceTyped converts an Excel cell using the declared field type. Cells
// that do not convert are kept as text and flagged by validation.
func (p *Parser) coerceTyped(key, cell string) interface{} {
	if cell == "" {
		return ""
	}
	for _, f := range p.schema.Fields {
		if f.Name != key {
			continue
		}
		switch f.Type {
		case FieldNumber:
			if num, err := strconv.ParseFloat(cell, 64); err == nil {
				return num
			}
		case FieldBoolean:
			switch strings.ToLower(cell) {
			case "true", "oui", "1":
				return true
			case "false", "non", "0":
				return false
			}
		}
		return cell
	}
	return cell
}

func emptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

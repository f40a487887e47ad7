// Package dataset loads applicant tables from HMDA-style CSV files and
// derives the creditworthiness score the decision engine consumes.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fairscore/fairscore/internal/applicant"
	"github.com/fairscore/fairscore/pkg/constants"
	"github.com/fairscore/fairscore/pkg/mathutil"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MissingColumnError indicates the CSV header lacks a required column.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column: %s", e.Column)
}

var requiredColumns = []string{
	constants.ColumnEthnicity,
	constants.ColumnRace,
	constants.ColumnSex,
	constants.ColumnDTI,
}

// Load reads the applicant CSV at path. See LoadFromReader.
func Load(logger *zap.Logger, path string) (applicant.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return LoadFromReader(logger, f)
}

// LoadFromReader parses CSV applicant data into a validated table. Column
// names are trimmed and lowercased before matching. Each row's subgroup
// label combines race and sex ("<Race> <Sex>"), with rows whose ethnicity
// is "hispanic or latino" folded into the "Hispanic" race label. The score
// is derived from the debt-to-income ratio as clamp(1 - dti/50, 0, 1), so
// higher is better. Rows with an unparseable ratio are dropped.
func LoadFromReader(logger *zap.Logger, r io.Reader) (applicant.Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, &MissingColumnError{Column: required}
		}
	}
	idCol, hasID := columns[constants.ColumnID]

	title := cases.Title(language.English)
	var table applicant.Table
	row := 0
	dropped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", row+1, err)
		}
		row++

		dti, err := strconv.ParseFloat(strings.TrimSpace(field(record, columns[constants.ColumnDTI])), 64)
		if err != nil {
			dropped++
			logger.Debug("dropping row with unparseable debt-to-income ratio",
				zap.String("op", "dataset.LoadFromReader"),
				zap.Int("row", row),
				zap.String("value", field(record, columns[constants.ColumnDTI])),
			)
			continue
		}

		race := strings.TrimSpace(field(record, columns[constants.ColumnRace]))
		sex := strings.TrimSpace(field(record, columns[constants.ColumnSex]))
		ethnicity := strings.ToLower(strings.TrimSpace(field(record, columns[constants.ColumnEthnicity])))
		if ethnicity == "hispanic or latino" {
			race = "Hispanic"
		}
		race = title.String(strings.ToLower(race))
		sex = title.String(strings.ToLower(sex))

		id := row
		if hasID {
			if parsed, err := strconv.Atoi(strings.TrimSpace(field(record, idCol))); err == nil {
				id = parsed
			}
		}

		table = append(table, applicant.Applicant{
			ID:       id,
			Score:    mathutil.Clamp(1-dti/constants.DTIScale, 0, 1),
			Subgroup: race + " " + sex,
		})
	}

	logger.Info("loaded applicant dataset",
		zap.String("op", "dataset.LoadFromReader"),
		zap.Int("applicants", len(table)),
		zap.Int("dropped", dropped),
	)

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

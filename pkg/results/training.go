// Package results turns per-unit training metrics and per-TPG inference
// timings into aggregated CSV tables.
package results

import (
	"encoding/csv"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/allpaul0/tpg-nextflow/pkg/params"
)

// The trainer drops its metrics in outLogs under this name.
const metricsFile = "garbage.ods"

// Columns appended from each unit's training configuration.
var tagColumns = []string{"seed", "instrType", "instrSetName"}

// Table is an aggregated training table. Rows are keyed by column name so
// units reporting fewer metric columns merge without padding logic; absent
// values render empty in the CSV.
type Table struct {
	// Metric columns in first-seen order, then the tag columns.
	Columns []string
	Rows    []map[string]string
}

// ParseMetricsFile reads one whitespace-delimited metrics table. The first
// line is discarded, the second carries the column names and the remaining
// lines are data rows.
func ParseMetricsFile(filePath string) ([]string, []map[string]string, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not read metrics file %q", filePath)
	}

	lines := strings.Split(string(raw), "\n")
	if len(lines) < 2 {
		return nil, nil, errors.Errorf("metrics file %q is missing its two-line header", filePath)
	}

	columns := strings.Fields(lines[1])
	if len(columns) == 0 {
		return nil, nil, errors.Errorf("metrics file %q has an empty header line", filePath)
	}

	rows := []map[string]string{}
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		row := map[string]string{}
		for index, field := range fields {
			if index >= len(columns) {
				break
			}
			row[columns[index]] = field
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}

// AggregateTraining merges the metrics tables of the given unit directories
// into one table. A unit without a metrics file is skipped with a warning;
// the remaining units still aggregate. Rows are grouped per unit, never by
// completion order.
func AggregateTraining(unitDirs []string) *Table {
	table := &Table{}
	seen := map[string]bool{}

	for _, unitDir := range unitDirs {
		metricsPath := path.Join(unitDir, "outLogs", metricsFile)
		if _, err := os.Stat(metricsPath); err != nil {
			logrus.Warnf("No metrics file for unit %q, skipping", path.Base(unitDir))
			continue
		}

		columns, rows, err := ParseMetricsFile(metricsPath)
		if err != nil {
			logrus.Warnf("Could not parse metrics for unit %q, skipping: %v", path.Base(unitDir), err)
			continue
		}

		tags := unitTags(unitDir)

		for _, column := range columns {
			if !seen[column] {
				seen[column] = true
				table.Columns = append(table.Columns, column)
			}
		}

		for _, row := range rows {
			for key, value := range tags {
				row[key] = value
			}
			table.Rows = append(table.Rows, row)
		}
	}

	for _, column := range tagColumns {
		if !seen[column] {
			table.Columns = append(table.Columns, column)
		}
	}

	return table
}

// unitTags recovers the sweep coordinates of a unit from its training
// configuration. A missing or unreadable configuration tags the rows empty
// rather than dropping them.
func unitTags(unitDir string) map[string]string {
	tags := map[string]string{"seed": "", "instrType": "", "instrSetName": ""}

	document, err := params.Load(path.Join(unitDir, "params", "trainParams.json"))
	if err != nil {
		logrus.Warnf("Could not read training configuration for unit %q: %v", path.Base(unitDir), err)
		return tags
	}

	train, err := document.Train()
	if err != nil {
		logrus.Warnf("Could not decode training configuration for unit %q: %v", path.Base(unitDir), err)
		return tags
	}
	tags["seed"] = strconv.Itoa(train.Seed)
	tags["instrType"] = train.InstrType
	tags["instrSetName"] = train.InstrSetName

	return tags
}

// WriteCSV renders the table with its header row first. Column order is
// deterministic for a given set of inputs.
func (t *Table) WriteCSV(output io.Writer) error {
	writer := csv.NewWriter(output)

	if err := writer.Write(t.Columns); err != nil {
		return errors.Wrap(err, "could not write results header")
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for index, column := range t.Columns {
			record[index] = row[column]
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "could not write results row")
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "could not flush results table")
}

// SaveCSV writes the table to a file, truncating any previous run's output.
func (t *Table) SaveCSV(filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "could not create results file %q", filePath)
	}
	defer file.Close()

	return t.WriteCSV(file)
}

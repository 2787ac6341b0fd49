package sources

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/brendontj/lol-staging/pkg/staging"
	"github.com/pkg/errors"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ReadFlatCSV decodes the wide export (team_1_*, team_2_*, participant_1_*). Columns are
// located by header name, so extra or reordered columns are fine; missing ones stay NULL.
// Cells that do not parse are treated as NULL rather than failing the file.
func ReadFlatCSV(r io.Reader) ([]staging.RawMatch, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[source error] unable to read csv header")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := index["match_id"]; !ok {
		return nil, errors.New("[source error] csv has no match_id column")
	}

	positions := make([]int, len(staging.RawColumns))
	for i, column := range staging.RawColumns {
		pos, ok := index[column]
		if !ok {
			pos = -1
		}
		positions[i] = pos
	}

	var matches []staging.RawMatch
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "[source error] unable to read csv line %d", line)
		}

		var row staging.RawRow
		for i, target := range row.Targets() {
			pos := positions[i]
			if pos < 0 || pos >= len(record) {
				continue
			}
			assignText(target, record[pos])
		}
		matches = append(matches, row.Match())
	}
	return matches, nil
}

func assignText(target interface{}, cell string) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return
	}
	switch t := target.(type) {
	case **string:
		*t = &cell
	case **int:
		*t = parseInt(cell)
	case **bool:
		*t = parseBool(cell)
	case **time.Time:
		*t = parseTime(cell)
	}
}

// parseInt accepts 3 as well as 3.0, which pandas writes for integer columns holding NaN.
func parseInt(cell string) *int {
	if n, err := strconv.Atoi(cell); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}

func parseBool(cell string) *bool {
	b, err := strconv.ParseBool(cell)
	if err != nil {
		return nil
	}
	return &b
}

func parseTime(cell string) *time.Time {
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, cell, time.UTC); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}

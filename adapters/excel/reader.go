package excel

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"survivalvolume/domain/study"
	"survivalvolume/internal"

	"github.com/xuri/excelize/v2"
)

// Reader ingests StudyLog tumour-volume workbooks into subjects. Two
// layouts are supported: Prism export sheets (one block per group, blank
// rows between blocks) and Absolute TV sheets (one animal per row).
type Reader struct {
	filePath string
	log      *internal.Logger
}

// Options controls how a workbook is interpreted.
type Options struct {
	// Threshold is the endpoint volume applied to every parsed subject.
	Threshold float64
	// StandardizeDays renumbers the day axis with alternating intervals
	// (e.g. 3 and 4 day periods) so individuals that went on study on
	// different weekdays line up.
	StandardizeDays bool
	FirstInterval   float64
	SecondInterval  float64
}

// NewReader creates a reader for one workbook path.
func NewReader(filePath string) *Reader {
	return &Reader{filePath: filePath, log: internal.DefaultLogger}
}

// ReadPrism parses a Prism-format sheet: vertical blocks separated by blank
// rows, each with a title row, a header row whose first column is "Day"
// and one animal per remaining column (a trailing "Mean" column is
// dropped), then one row per measurement day.
func (r *Reader) ReadPrism(sheet string, opts Options) ([]study.Subject, error) {
	rows, err := r.sheetRows(sheet)
	if err != nil {
		return nil, err
	}
	subjects, err := ParsePrismRows(rows, opts)
	if err != nil {
		return nil, err
	}
	r.log.Info("parsed %d subjects from prism sheet %q", len(subjects), sheet)
	return subjects, nil
}

// ReadAbsoluteTV parses an Absolute TV sheet: a header row containing
// "Group" and "Animal ID" columns followed by day-numbered measurement
// columns, one animal per row.
func (r *Reader) ReadAbsoluteTV(sheet string, opts Options) ([]study.Subject, error) {
	rows, err := r.sheetRows(sheet)
	if err != nil {
		return nil, err
	}
	subjects, err := ParseAbsoluteRows(rows, opts)
	if err != nil {
		return nil, err
	}
	r.log.Info("parsed %d subjects from absolute TV sheet %q", len(subjects), sheet)
	return subjects, nil
}

func (r *Reader) sheetRows(sheet string) ([][]string, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("workbook not found: %s", r.filePath)
	}
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// ParsePrismRows converts raw Prism sheet rows into subjects. Exposed
// separately from file handling so tests can feed rows directly.
func ParsePrismRows(rows [][]string, opts Options) ([]study.Subject, error) {
	if opts.Threshold <= 0 {
		return nil, fmt.Errorf("endpoint threshold must be positive, got %v", opts.Threshold)
	}

	var subjects []study.Subject
	for _, block := range splitBlocks(rows) {
		blockSubjects, err := parsePrismBlock(block, opts)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, blockSubjects...)
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("no measurement blocks found")
	}
	return subjects, nil
}

// splitBlocks splits the sheet at fully blank rows.
func splitBlocks(rows [][]string) [][][]string {
	var blocks [][][]string
	var current [][]string
	for _, row := range rows {
		if rowEmpty(row) {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, row)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func parsePrismBlock(block [][]string, opts Options) ([]study.Subject, error) {
	headerIdx := -1
	for i, row := range block {
		if strings.EqualFold(strings.TrimSpace(cell(row, firstNonEmpty(row))), "Day") {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 || headerIdx == len(block)-1 {
		// Not a measurement block (e.g. a scatterplot appendix); skip it.
		return nil, nil
	}

	group := blockTitle(block[:headerIdx])
	header := block[headerIdx]
	dayCol := firstNonEmpty(header)

	// Animal columns follow Day; the trailing Mean column is a derived
	// value in the source spreadsheet and is dropped.
	type column struct {
		idx int
		id  study.SubjectID
	}
	var columns []column
	for c := dayCol + 1; c < len(header); c++ {
		name := strings.TrimSpace(header[c])
		if name == "" || strings.EqualFold(name, "Mean") {
			continue
		}
		columns = append(columns, column{idx: c, id: study.SubjectID(name)})
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("group %q: header row has no animal columns", group)
	}

	dataRows := block[headerIdx+1:]
	days, err := parseDays(dataRows, dayCol, group, opts)
	if err != nil {
		return nil, err
	}

	subjects := make([]study.Subject, 0, len(columns))
	for _, col := range columns {
		var ms []study.Measurement
		for i, row := range dataRows {
			raw := strings.TrimSpace(cell(row, col.idx))
			if raw == "" {
				// Animal removed from study at its first missing timepoint.
				break
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("group %q animal %q day %v: bad volume %q", group, col.id, days[i], raw)
			}
			ms = append(ms, study.Measurement{Time: days[i], Value: v})
		}
		if len(ms) == 0 {
			continue
		}
		subjects = append(subjects, study.Subject{
			ID:           col.id,
			Group:        study.GroupID(group),
			Measurements: ms,
			Threshold:    opts.Threshold,
		})
	}
	return subjects, nil
}

// ParseAbsoluteRows converts Absolute TV sheet rows into subjects.
func ParseAbsoluteRows(rows [][]string, opts Options) ([]study.Subject, error) {
	if opts.Threshold <= 0 {
		return nil, fmt.Errorf("endpoint threshold must be positive, got %v", opts.Threshold)
	}

	headerIdx, groupCol, animalCol := -1, -1, -1
	for i, row := range rows {
		for c, v := range row {
			switch strings.TrimSpace(v) {
			case "Group":
				groupCol = c
			case "Animal ID":
				animalCol = c
			}
		}
		if groupCol >= 0 && animalCol >= 0 {
			headerIdx = i
			break
		}
		groupCol, animalCol = -1, -1
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("no header row with Group and Animal ID columns")
	}

	// Day columns are the numerically labelled ones after the metadata.
	header := rows[headerIdx]
	type dayColumn struct {
		idx int
		day float64
	}
	var dayCols []dayColumn
	for c, v := range header {
		if day, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			dayCols = append(dayCols, dayColumn{idx: c, day: day})
		}
	}
	if len(dayCols) == 0 {
		return nil, fmt.Errorf("no day columns found in header row")
	}
	if opts.StandardizeDays {
		renumbered := FixedLengthAlternateSteps(1, len(dayCols), opts.FirstInterval, opts.SecondInterval)
		for i := range dayCols {
			dayCols[i].day = renumbered[i]
		}
	}

	var subjects []study.Subject
	for _, row := range rows[headerIdx+1:] {
		if rowEmpty(row) {
			continue
		}
		group := strings.TrimSpace(cell(row, groupCol))
		animal := strings.TrimSpace(cell(row, animalCol))
		if group == "" || animal == "" {
			continue
		}
		var ms []study.Measurement
		for _, dc := range dayCols {
			raw := strings.TrimSpace(cell(row, dc.idx))
			if raw == "" {
				break
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("group %q animal %q day %v: bad volume %q", group, animal, dc.day, raw)
			}
			ms = append(ms, study.Measurement{Time: dc.day, Value: v})
		}
		if len(ms) == 0 {
			continue
		}
		subjects = append(subjects, study.Subject{
			ID:           study.SubjectID(animal),
			Group:        study.GroupID(group),
			Measurements: ms,
			Threshold:    opts.Threshold,
		})
	}
	if len(subjects) == 0 {
		return nil, fmt.Errorf("no subjects found below header row")
	}
	return subjects, nil
}

// FixedLengthAlternateSteps generates a day axis that increments by
// alternating step sizes, e.g. start 1 with steps 3 and 4 gives
// [1 4 8 11 15 ...]. Used to standardise StudyLog day numbering.
func FixedLengthAlternateSteps(start float64, length int, step1, step2 float64) []float64 {
	result := make([]float64, 0, length)
	x := start
	result = append(result, x)
	secondStep := false
	for len(result) < length {
		if secondStep {
			x += step2
		} else {
			x += step1
		}
		result = append(result, x)
		secondStep = !secondStep
	}
	return result
}

func parseDays(dataRows [][]string, dayCol int, group string, opts Options) ([]float64, error) {
	days := make([]float64, len(dataRows))
	for i, row := range dataRows {
		raw := strings.TrimSpace(cell(row, dayCol))
		day, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("group %q: bad day value %q", group, raw)
		}
		days[i] = day
	}
	if opts.StandardizeDays {
		return FixedLengthAlternateSteps(1, len(days), opts.FirstInterval, opts.SecondInterval), nil
	}
	return days, nil
}

func blockTitle(titleRows [][]string) string {
	for _, row := range titleRows {
		for _, v := range row {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return "Untitled"
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func firstNonEmpty(row []string) int {
	for i, v := range row {
		if strings.TrimSpace(v) != "" {
			return i
		}
	}
	return 0
}

func rowEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

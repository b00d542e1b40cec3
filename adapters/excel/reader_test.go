package excel

import (
	"path/filepath"
	"testing"

	"survivalvolume/domain/study"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func prismRows() [][]string {
	return [][]string{
		{"Vehicle"},
		{"Day", "m1", "m2", "Mean"},
		{"0", "50", "60", "55"},
		{"5", "80", "", "80"},
		{"10", "120", "", "120"},
		{""},
		{"Treated"},
		{"Day", "m3"},
		{"0", "40"},
		{"5", "45"},
	}
}

func TestParsePrismRows(t *testing.T) {
	subjects, err := ParsePrismRows(prismRows(), Options{Threshold: 100})
	require.NoError(t, err)
	require.Len(t, subjects, 3)

	m1 := subjects[0]
	assert.Equal(t, study.SubjectID("m1"), m1.ID)
	assert.Equal(t, study.GroupID("Vehicle"), m1.Group)
	assert.Equal(t, 100.0, m1.Threshold)
	require.Len(t, m1.Measurements, 3)
	assert.Equal(t, study.Measurement{Time: 5, Value: 80}, m1.Measurements[1])

	// m2's series stops at its first missing cell.
	m2 := subjects[1]
	assert.Equal(t, study.SubjectID("m2"), m2.ID)
	require.Len(t, m2.Measurements, 1)

	m3 := subjects[2]
	assert.Equal(t, study.GroupID("Treated"), m3.Group)
	assert.Len(t, m3.Measurements, 2)
}

func TestParsePrismRows_MeanColumnDropped(t *testing.T) {
	subjects, err := ParsePrismRows(prismRows(), Options{Threshold: 100})
	require.NoError(t, err)
	for _, s := range subjects {
		assert.NotEqual(t, study.SubjectID("Mean"), s.ID)
	}
}

func TestParsePrismRows_SkipsNonMeasurementBlocks(t *testing.T) {
	rows := append(prismRows(),
		[]string{""},
		[]string{"Scatterplot appendix"},
		[]string{"x", "y"},
	)
	subjects, err := ParsePrismRows(rows, Options{Threshold: 100})
	require.NoError(t, err)
	assert.Len(t, subjects, 3)
}

func TestParsePrismRows_Errors(t *testing.T) {
	_, err := ParsePrismRows(prismRows(), Options{})
	assert.ErrorContains(t, err, "threshold")

	bad := prismRows()
	bad[2][1] = "not-a-number"
	_, err = ParsePrismRows(bad, Options{Threshold: 100})
	assert.ErrorContains(t, err, "bad volume")

	_, err = ParsePrismRows([][]string{{"just a title"}}, Options{Threshold: 100})
	assert.ErrorContains(t, err, "no measurement blocks")
}

func absoluteRows() [][]string {
	return [][]string{
		{"Study 42"},
		{"Group", "Animal ID", "0", "3", "7", "10"},
		{"Vehicle", "m1", "50", "70", "95", "130"},
		{"Vehicle", "m2", "55", "60", "", ""},
		{"Treated", "m3", "45", "48", "50", "52"},
		{"", "", "", ""},
	}
}

func TestParseAbsoluteRows(t *testing.T) {
	subjects, err := ParseAbsoluteRows(absoluteRows(), Options{Threshold: 100})
	require.NoError(t, err)
	require.Len(t, subjects, 3)

	m1 := subjects[0]
	assert.Equal(t, study.SubjectID("m1"), m1.ID)
	assert.Equal(t, study.GroupID("Vehicle"), m1.Group)
	require.Len(t, m1.Measurements, 4)
	assert.Equal(t, study.Measurement{Time: 7, Value: 95}, m1.Measurements[2])

	assert.Len(t, subjects[1].Measurements, 2)
	assert.Equal(t, study.GroupID("Treated"), subjects[2].Group)
}

func TestParseAbsoluteRows_StandardizedDays(t *testing.T) {
	subjects, err := ParseAbsoluteRows(absoluteRows(), Options{
		Threshold:       100,
		StandardizeDays: true,
		FirstInterval:   3,
		SecondInterval:  4,
	})
	require.NoError(t, err)

	// Four day columns renumber to 1, 4, 8, 11 regardless of the labels.
	m1 := subjects[0]
	got := make([]float64, len(m1.Measurements))
	for i, m := range m1.Measurements {
		got[i] = m.Time
	}
	assert.Equal(t, []float64{1, 4, 8, 11}, got)
}

func TestParseAbsoluteRows_Errors(t *testing.T) {
	_, err := ParseAbsoluteRows([][]string{{"Group", "Animal ID"}}, Options{Threshold: 100})
	assert.ErrorContains(t, err, "no day columns")

	_, err = ParseAbsoluteRows([][]string{{"Day", "m1"}, {"0", "50"}}, Options{Threshold: 100})
	assert.ErrorContains(t, err, "header row")
}

func TestFixedLengthAlternateSteps(t *testing.T) {
	assert.Equal(t, []float64{1, 4, 8, 11, 15}, FixedLengthAlternateSteps(1, 5, 3, 4))
	assert.Equal(t, []float64{0}, FixedLengthAlternateSteps(0, 1, 3, 4))
}

func TestReadPrism_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.xlsx")
	writeWorkbook(t, path, "Prism", prismRows())

	subjects, err := NewReader(path).ReadPrism("Prism", Options{Threshold: 100})
	require.NoError(t, err)
	assert.Len(t, subjects, 3)
}

func TestReadAbsoluteTV_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.xlsx")
	writeWorkbook(t, path, "Absolute TV", absoluteRows())

	subjects, err := NewReader(path).ReadAbsoluteTV("Absolute TV", Options{Threshold: 100})
	require.NoError(t, err)
	assert.Len(t, subjects, 3)
}

func TestReader_MissingWorkbook(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.xlsx")).ReadPrism("Prism", Options{Threshold: 100})
	assert.ErrorContains(t, err, "not found")
}

func writeWorkbook(t *testing.T, path, sheet string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for i, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

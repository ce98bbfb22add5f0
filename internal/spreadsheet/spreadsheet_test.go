package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	apperrors "github.com/SAP-F-2025/dump-practice-service/internal/errors"
	"github.com/SAP-F-2025/dump-practice-service/internal/importer"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestions() []models.Question {
	return []models.Question{
		{ID: "1", Type: models.MultipleChoiceSingle, Text: "Capital of France?", Options: map[string]string{"A": "Berlin", "B": "Paris"}, CorrectAnswers: []string{"B"}},
		{ID: "2", Type: models.MultipleChoiceSingle, Text: "Zero?", Options: map[string]string{"A": "0", "B": "1"}, CorrectAnswers: []string{"A"}, Explanation: "0, obviously"},
		{ID: "3", Type: models.ShortAnswer, Text: "Symbol of gold", AcceptedAnswers: []string{"Au"}},
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	questions := sampleQuestions()

	data, err := WriteXLSX(importer.ExportHeaders, importer.ExportRows(questions))
	require.NoError(t, err)

	rows, err := Parse(bytes.NewReader(data), FormatXLSX)
	require.NoError(t, err)
	require.Len(t, rows, len(questions))
	assert.Equal(t, "0", rows[1]["optionA"])
	assert.Equal(t, "0, obviously", rows[1][importer.ColumnExplanation])

	candidates, skipped := importer.MapRows(rows)
	assert.Zero(t, skipped)
	report := importer.Classify(candidates, questions)
	assert.Equal(t, 0, report.NewCount)
	assert.Equal(t, 0, report.ChangedCount())
}

func TestCSVRoundTrip(t *testing.T) {
	questions := sampleQuestions()

	data, err := WriteCSV(importer.ExportHeaders, importer.ExportRows(questions))
	require.NoError(t, err)

	rows, err := Parse(bytes.NewReader(data), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, len(questions))
	assert.Equal(t, "Capital of France?", rows[0][importer.ColumnQuestion])
}

func TestParseCSV_ShortAndBlankRows(t *testing.T) {
	input := "\ufeffQuestion,A,B,Answer\n" +
		"Q1,x,y,B\n" +
		",,,\n" +
		"Q2,x\n"

	rows, err := Parse(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Q1", rows[0]["Question"])
	assert.Equal(t, "B", rows[0]["Answer"])
	_, hasAnswer := rows[1]["Answer"]
	assert.False(t, hasAnswer)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader(""), FormatCSV)
	assert.True(t, apperrors.IsValidationError(err))

	_, err = Parse(strings.NewReader("not a zip"), FormatXLSX)
	assert.True(t, apperrors.IsValidationError(err))

	_, err = Parse(strings.NewReader("a,b"), Format("ods"))
	assert.True(t, apperrors.IsValidationError(err))
}

func TestFormatFromFilename(t *testing.T) {
	f, err := FormatFromFilename("Dump.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FormatFromFilename("dump.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatFromFilename("dump.pdf")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Equal(t, "text/csv", FormatCSV.ContentType())

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

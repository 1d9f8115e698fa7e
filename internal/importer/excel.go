// Package importer reads question rows from .xlsx workbooks.
package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/validator"
)

// Recognised header names. Matching is case-insensitive.
const (
	ColumnTitle          = "title"
	ColumnDescription    = "description"
	ColumnComplexity     = "complexity"
	ColumnType           = "type"
	ColumnOptions        = "options"
	ColumnCorrectAnswers = "correct_answers"
	ColumnMaxScore       = "max_score"
	ColumnTags           = "tags"
)

var Columns = []string{
	ColumnTitle, ColumnDescription, ColumnComplexity, ColumnType,
	ColumnOptions, ColumnCorrectAnswers, ColumnMaxScore, ColumnTags,
}

var ErrEmptyWorkbook = errors.New("workbook has no sheets")

// Row is one data row. Number is the 1-based spreadsheet row; the header is row 1.
type Row struct {
	Number   int
	Question validator.QuestionCreateRequest
	Err      error
}

// ReadQuestions parses the first sheet of an .xlsx workbook. A malformed cell
// fails only its own row; file-level problems are returned as an error.
func ReadQuestions(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	out := make([]Row, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		row := Row{Number: i + 2}
		row.Question, row.Err = parseRow(header, cells)
		out = append(out, row)
	}
	return out, nil
}

func parseRow(header map[string]int, cells []string) (validator.QuestionCreateRequest, error) {
	cell := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	req := validator.QuestionCreateRequest{
		Title:          cell(ColumnTitle),
		Complexity:     cell(ColumnComplexity),
		Type:           models.QuestionType(strings.ToLower(cell(ColumnType))),
		Options:        ParseList(cell(ColumnOptions)),
		CorrectAnswers: ParseList(cell(ColumnCorrectAnswers)),
		Tags:           cell(ColumnTags),
	}
	if d := cell(ColumnDescription); d != "" {
		req.Description = &d
	}
	if s := cell(ColumnMaxScore); s != "" {
		score, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return req, fmt.Errorf("max_score %q is not a number", s)
		}
		req.MaxScore = &score
	}
	return req, nil
}

// ParseList reads a list cell: a JSON array, otherwise an empty cell is an
// empty list and any other text is a one-element list.
func ParseList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	var raw []interface{}
	if err := json.Unmarshal([]byte(s), &raw); err == nil {
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			out = append(out, stringify(v))
		}
		return out
	}
	return []string{s}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

package importer

import (
	"sort"
	"strings"

	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/SAP-F-2025/dump-practice-service/internal/quiz"
)

// Row is one raw spreadsheet row keyed by its header cell.
type Row map[string]string

// Column headers written by ExportRows. MapRows accepts these and the
// aliases below regardless of case.
const (
	ColumnQuestion      = "question"
	ColumnType          = "type"
	ColumnCorrectAnswer = "correctAnswer"
	ColumnExplanation   = "explanation"
)

var headerAliases = map[string][]string{
	ColumnQuestion:      {"question", "question text", "questiontext", "text"},
	ColumnType:          {"type", "question type", "questiontype"},
	ColumnCorrectAnswer: {"correctanswer", "correct answer", "correct_answer", "answer", "answers"},
	ColumnExplanation:   {"explanation", "note"},
	"A":                 {"optiona", "option a", "option_a", "a"},
	"B":                 {"optionb", "option b", "option_b", "b"},
	"C":                 {"optionc", "option c", "option_c", "c"},
	"D":                 {"optiond", "option d", "option_d", "d"},
}

// acceptedSeparator splits several accepted short answers in one cell.
const acceptedSeparator = "|"

var trueFalseLabels = map[string]string{
	"true": "A", "đúng": "A", "false": "B", "sai": "B",
}

// lookup returns the first present value of a logical column. Presence is
// decided on the key, so a cell holding "0" counts as a value.
func (r Row) lookup(column string) (string, bool) {
	folded := make(map[string]string, len(r))
	for k, v := range r {
		folded[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for _, alias := range headerAliases[column] {
		if v, ok := folded[alias]; ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}

// MapRows converts raw rows into candidate questions. Rows without question
// text, without a resolvable correct answer or with options that do not fit
// the question type are dropped and counted.
func MapRows(rows []Row) (candidates []models.Question, skipped int) {
	for _, row := range rows {
		q, ok := mapRow(row)
		if !ok || !wellFormed(q) {
			skipped++
			continue
		}
		candidates = append(candidates, q)
	}
	return candidates, skipped
}

func mapRow(row Row) (models.Question, bool) {
	text, ok := row.lookup(ColumnQuestion)
	if !ok {
		return models.Question{}, false
	}
	q := models.Question{Text: text}
	if explanation, ok := row.lookup(ColumnExplanation); ok {
		q.Explanation = explanation
	}

	options := make(map[string]string)
	for _, key := range models.OptionKeys {
		if v, ok := row.lookup(key); ok {
			options[key] = v
		}
	}
	answer, hasAnswer := row.lookup(ColumnCorrectAnswer)

	declared := models.QuestionType(strings.ToLower(valueOf(row, ColumnType)))
	if declared != "" && !declared.Valid() {
		return models.Question{}, false
	}
	q.Type = inferType(declared, options, answer)

	switch q.Type {
	case models.HTMLField:
		return q, true
	case models.ShortAnswer:
		if !hasAnswer {
			return models.Question{}, false
		}
		q.AcceptedAnswers = splitAccepted(answer)
		return q, len(q.AcceptedAnswers) > 0
	case models.TrueFalse:
		if len(options) == 0 {
			options = map[string]string{"A": models.TrueFalseOptions["A"], "B": models.TrueFalseOptions["B"]}
		}
	}

	if !hasAnswer || len(options) == 0 {
		return models.Question{}, false
	}
	keys := parseAnswerKeys(answer, q.Type)
	if len(keys) == 0 {
		return models.Question{}, false
	}
	for _, k := range keys {
		if _, ok := options[k]; !ok {
			return models.Question{}, false
		}
	}
	if q.Type == models.MultipleChoiceSingle && len(keys) > 1 {
		q.Type = models.MultipleChoiceMultiple
	}
	if q.Type == models.TrueFalse && len(keys) != 1 {
		return models.Question{}, false
	}
	q.Options = options
	q.CorrectAnswers = keys
	return q, true
}

// wellFormed applies the rules every stored question must satisfy: choice
// questions need two options and true_false uses exactly A and B.
func wellFormed(q models.Question) bool {
	if len(quiz.ValidateQuestions([]models.Question{q})) > 0 {
		return false
	}
	switch q.Type {
	case models.MultipleChoiceSingle, models.MultipleChoiceMultiple:
		return len(q.Options) >= 2
	case models.TrueFalse:
		return len(q.Options) == 2 && q.HasOption("A") && q.HasOption("B")
	}
	return len(q.Options) == 0
}

func valueOf(row Row, column string) string {
	v, _ := row.lookup(column)
	return v
}

func inferType(declared models.QuestionType, options map[string]string, answer string) models.QuestionType {
	if declared != "" {
		return declared
	}
	if len(options) == 0 {
		if _, ok := trueFalseLabels[strings.ToLower(answer)]; ok {
			return models.TrueFalse
		}
		return models.ShortAnswer
	}
	if len(options) == 2 && isTrueFalsePair(options) {
		return models.TrueFalse
	}
	if len(parseAnswerKeys(answer, models.MultipleChoiceMultiple)) > 1 {
		return models.MultipleChoiceMultiple
	}
	return models.MultipleChoiceSingle
}

func isTrueFalsePair(options map[string]string) bool {
	return trueFalseLabels[strings.ToLower(options["A"])] == "A" &&
		trueFalseLabels[strings.ToLower(options["B"])] == "B"
}

// parseAnswerKeys reads "C", "a, c", "AC" or "A;C" into sorted unique keys.
// True/false questions also accept the literal labels.
func parseAnswerKeys(answer string, t models.QuestionType) []string {
	if t == models.TrueFalse {
		if key, ok := trueFalseLabels[strings.ToLower(strings.TrimSpace(answer))]; ok {
			return []string{key}
		}
	}
	seen := make(map[string]struct{})
	for _, r := range strings.ToUpper(answer) {
		switch {
		case r >= 'A' && r <= 'D':
			seen[string(r)] = struct{}{}
		case r == ',' || r == ';' || r == ' ' || r == '|':
		default:
			return nil
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitAccepted(answer string) []string {
	var out []string
	for _, part := range strings.Split(answer, acceptedSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ExportHeaders is the column order written by ExportRows.
var ExportHeaders = []string{ColumnQuestion, ColumnType, "optionA", "optionB", "optionC", "optionD", ColumnCorrectAnswer, ColumnExplanation}

// ExportRows renders questions in the importable row format.
func ExportRows(questions []models.Question) []Row {
	rows := make([]Row, 0, len(questions))
	for _, q := range questions {
		row := Row{
			ColumnQuestion: q.Text,
			ColumnType:     string(q.Type),
		}
		for _, key := range models.OptionKeys {
			row["option"+key] = q.Options[key]
		}
		switch q.Type {
		case models.ShortAnswer:
			row[ColumnCorrectAnswer] = strings.Join(q.AcceptedAnswers, acceptedSeparator)
		case models.HTMLField:
			row[ColumnCorrectAnswer] = ""
		default:
			row[ColumnCorrectAnswer] = strings.Join(q.CorrectAnswers, ",")
		}
		row[ColumnExplanation] = q.Explanation
		rows = append(rows, row)
	}
	return rows
}

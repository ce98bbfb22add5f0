package importer

import (
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/dump-practice-service/internal/errors"
	"github.com/SAP-F-2025/dump-practice-service/internal/models"
	"github.com/google/uuid"
)

type Policy string

const (
	PolicyDetect  Policy = "detect"
	PolicySkip    Policy = "skip"
	PolicyReplace Policy = "replace"
	PolicyMerge   Policy = "merge"
)

// DefaultMergeSuffix marks duplicates appended by PolicyMerge.
const DefaultMergeSuffix = " (imported)"

func (p Policy) Valid() bool {
	switch p {
	case PolicyDetect, PolicySkip, PolicyReplace, PolicyMerge:
		return true
	}
	return false
}

// ParsePolicy maps an empty value to PolicyDetect.
func ParsePolicy(raw string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return PolicyDetect, nil
	}
	if !p.Valid() {
		return "", apperrors.NewValidationErrorWithRule("policy", "must be one of: detect, skip, replace, merge", "merge_policy", raw)
	}
	return p, nil
}

// Duplicate pairs a candidate with the existing question it matched.
type Duplicate struct {
	CandidateIndex int             `json:"candidate_index"`
	ExistingIndex  int             `json:"existing_index"`
	Candidate      models.Question `json:"candidate"`
	Existing       models.Question `json:"existing"`
	HasChanges     bool            `json:"has_changes"`
}

// Report is the classification of one import run.
type Report struct {
	Total      int         `json:"total"`
	Skipped    int         `json:"skipped"`
	NewCount   int         `json:"new_count"`
	New        []int       `json:"new"`
	Duplicates []Duplicate `json:"duplicates"`
}

// ChangedCount returns how many duplicates differ from their match.
func (r Report) ChangedCount() int {
	n := 0
	for _, d := range r.Duplicates {
		if d.HasChanges {
			n++
		}
	}
	return n
}

// NormalizeText is the matching key of a question text.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify matches every candidate against existing by normalized text.
func Classify(candidates, existing []models.Question) Report {
	report := Report{
		Total:      len(candidates),
		New:        []int{},
		Duplicates: []Duplicate{},
	}
	for ci, c := range candidates {
		key := NormalizeText(c.Text)
		match := -1
		for ei, e := range existing {
			if NormalizeText(e.Text) == key {
				match = ei
				break
			}
		}
		if match < 0 {
			report.New = append(report.New, ci)
			continue
		}
		report.Duplicates = append(report.Duplicates, Duplicate{
			CandidateIndex: ci,
			ExistingIndex:  match,
			Candidate:      c,
			Existing:       existing[match],
			HasChanges:     differs(c, existing[match]),
		})
	}
	report.NewCount = len(report.New)
	return report
}

// differs compares the four option texts and the answer key.
func differs(candidate, existing models.Question) bool {
	for _, key := range models.OptionKeys {
		if strings.TrimSpace(candidate.Options[key]) != strings.TrimSpace(existing.Options[key]) {
			return true
		}
	}
	if !sameKeys(candidate.CorrectAnswers, existing.CorrectAnswers, strings.ToUpper) {
		return true
	}
	if candidate.Type == models.ShortAnswer || existing.Type == models.ShortAnswer {
		return !sameKeys(candidate.AcceptedAnswers, existing.AcceptedAnswers, NormalizeText)
	}
	return false
}

func sameKeys(a, b []string, norm func(string) string) bool {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[norm(v)] = struct{}{}
	}
	other := make(map[string]struct{}, len(b))
	for _, v := range b {
		other[norm(v)] = struct{}{}
		if _, ok := set[norm(v)]; !ok {
			return false
		}
	}
	return len(set) == len(other)
}

// Apply merges candidates into existing under policy. PolicyDetect returns
// nil because it never produces a merged list.
func Apply(policy Policy, candidates, existing []models.Question, report Report, suffix string, newID func() string) ([]models.Question, error) {
	if !policy.Valid() {
		return nil, apperrors.NewValidationErrorWithRule("policy", "must be one of: detect, skip, replace, merge", "merge_policy", string(policy))
	}
	if policy == PolicyDetect {
		return nil, nil
	}

	merged := make([]models.Question, len(existing))
	for i, q := range existing {
		merged[i] = q.Clone()
	}

	switch policy {
	case PolicyReplace:
		for _, d := range report.Duplicates {
			if d.ExistingIndex < 0 || d.ExistingIndex >= len(merged) || d.CandidateIndex >= len(candidates) {
				return nil, fmt.Errorf("duplicate report does not match the question lists")
			}
			replacement := candidates[d.CandidateIndex].Clone()
			replacement.ID = merged[d.ExistingIndex].ID
			merged[d.ExistingIndex] = replacement
		}
	case PolicyMerge:
		for _, d := range report.Duplicates {
			if d.CandidateIndex >= len(candidates) {
				return nil, fmt.Errorf("duplicate report does not match the question lists")
			}
			dup := candidates[d.CandidateIndex].Clone()
			dup.ID = newID()
			dup.Text += suffix
			merged = append(merged, dup)
		}
	}

	for _, ci := range report.New {
		if ci >= len(candidates) {
			return nil, fmt.Errorf("new-question index %d out of range", ci)
		}
		q := candidates[ci].Clone()
		if q.ID == "" {
			q.ID = newID()
		}
		merged = append(merged, q)
	}
	return merged, nil
}

// Result is the outcome of Reconcile. Merged is nil when nothing was applied.
type Result struct {
	Policy     Policy            `json:"policy"`
	Applied    bool              `json:"applied"`
	Report     Report            `json:"report"`
	Candidates []models.Question `json:"-"`
	Merged     []models.Question `json:"-"`
}

// Reconciler runs the row mapping, classification and merge steps.
type Reconciler struct {
	Suffix string
	NewID  func() string
}

func NewReconciler() *Reconciler {
	return &Reconciler{
		Suffix: DefaultMergeSuffix,
		NewID:  uuid.NewString,
	}
}

// Reconcile classifies rows against existing and applies policy. An import
// with no usable rows is a validation error. PolicyDetect only stops for a
// decision when duplicates exist; otherwise every candidate is new and the
// rows are appended as with PolicySkip.
func (r *Reconciler) Reconcile(policy Policy, rows []Row, existing []models.Question) (*Result, error) {
	candidates, skipped := MapRows(rows)
	if len(candidates) == 0 {
		return nil, apperrors.NewValidationError("file", "no valid rows", skipped)
	}

	report := Classify(candidates, existing)
	report.Skipped = skipped
	if policy == PolicyDetect && len(report.Duplicates) == 0 {
		policy = PolicySkip
	}

	result := &Result{Policy: policy, Report: report, Candidates: candidates}
	merged, err := Apply(policy, candidates, existing, report, r.Suffix, r.NewID)
	if err != nil {
		return nil, err
	}
	if merged != nil {
		result.Applied = true
		result.Merged = merged
	}
	return result, nil
}

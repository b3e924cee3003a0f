package service

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-result-desk/internal/models"
)

var (
	caCeiling = decimal.NewFromInt(models.MaxCATotal)

	gradeSteps = []struct {
		floor decimal.Decimal
		grade string
	}{
		{decimal.NewFromInt(80), "A"},
		{decimal.NewFromInt(70), "B"},
		{decimal.NewFromInt(60), "C"},
		{decimal.NewFromInt(50), "D"},
		{decimal.NewFromInt(40), "E"},
	}
)

// ValidateScores returns the first rule a student's CA marks break, or ""
// when they are acceptable. Slots are checked in order before the aggregate
// ceiling of 40, which applies whatever the configured maxima are.
func ValidateScores(scores models.Scores, limits models.CALimits) string {
	for i, mark := range scores.CA() {
		slot := i + 1
		if !mark.Present() {
			continue
		}
		max := limits.Slot(slot)
		if mark.Value().GreaterThan(decimal.NewFromFloat(max)) {
			return fmt.Sprintf("CA%d score (%s) exceeds maximum allowed (%s).", slot, mark.Value().String(), formatLimit(max))
		}
	}
	total := CATotal(scores)
	if total.GreaterThan(caCeiling) {
		return fmt.Sprintf("Continuous Assessment total (%s) exceeds maximum allowed (%d). Please adjust the scores.", total.String(), models.MaxCATotal)
	}
	return ""
}

// CATotal sums the four slots, counting absent marks as zero.
func CATotal(scores models.Scores) decimal.Decimal {
	total := decimal.Zero
	for _, mark := range scores.CA() {
		total = total.Add(mark.Value())
	}
	return total
}

// OverallTotal is the CA total plus the exam mark.
func OverallTotal(scores models.Scores) decimal.Decimal {
	return CATotal(scores).Add(scores.Exam.Value())
}

// GradeFor maps a total to its letter grade. Floors are inclusive.
func GradeFor(total decimal.Decimal) string {
	for _, step := range gradeSteps {
		if total.GreaterThanOrEqual(step.floor) {
			return step.grade
		}
	}
	return "F"
}

// DeriveRow recomputes totals, grade and the validation message of a row.
// When limits is nil the configuration has not loaded and no message is set.
func DeriveRow(a models.Assessment, limits *models.CALimits) models.ScoreRow {
	caTotal := CATotal(a.Scores)
	total := caTotal.Add(a.Exam.Value())
	a.TotalScore = models.Mark{NullDecimal: decimal.NullDecimal{Decimal: total, Valid: true}}
	a.Grade = GradeFor(total)

	row := models.ScoreRow{
		Assessment: a,
		CATotal:    models.Mark{NullDecimal: decimal.NullDecimal{Decimal: caTotal, Valid: true}},
	}
	if limits != nil {
		row.Error = ValidateScores(a.Scores, *limits)
	}
	return row
}

// ValidationErrors collects per-row messages keyed by assessment id. It
// returns nil when limits is nil.
func ValidationErrors(rows []models.Assessment, limits *models.CALimits) map[int64]string {
	if limits == nil {
		return nil
	}
	errs := make(map[int64]string)
	for _, row := range rows {
		if msg := ValidateScores(row.Scores, *limits); msg != "" {
			errs[row.ID] = msg
		}
	}
	return errs
}

func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

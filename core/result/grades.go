package result

import "sort"

// Grade is a letter grade derived from a total score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

// GradeBand maps the scores in [Min, nextBand.Min) to a letter grade and its
// grade-point value. Boundary scores take the higher grade.
type GradeBand struct {
	Min    float64
	Grade  Grade
	Points float64
}

// defaultBands is the institution's fixed letter-grade table. Every
// computation site must share one GradeScale built from a single table so
// thresholds cannot drift between call sites.
var defaultBands = []GradeBand{
	{Min: 70, Grade: GradeA, Points: 5},
	{Min: 60, Grade: GradeB, Points: 4},
	{Min: 50, Grade: GradeC, Points: 3},
	{Min: 45, Grade: GradeD, Points: 2},
	{Min: 40, Grade: GradeE, Points: 1},
	{Min: 0, Grade: GradeF, Points: 0},
}

// GradeScale is a pure score->grade->points mapping. The zero value is not
// usable; construct via DefaultGradeScale or NewGradeScale.
type GradeScale struct {
	bands []GradeBand
}

func DefaultGradeScale() GradeScale {
	return NewGradeScale(defaultBands)
}

// NewGradeScale builds a scale from the given bands, highest threshold first.
func NewGradeScale(bands []GradeBand) GradeScale {
	sorted := make([]GradeBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min > sorted[j].Min })
	return GradeScale{bands: sorted}
}

// GradeFor maps a total score to its letter grade. Scores below the lowest
// band (including sanitized negatives) take the last band's grade.
func (s GradeScale) GradeFor(total float64) Grade {
	if total < 0 {
		total = 0
	}
	for _, b := range s.bands {
		if total >= b.Min {
			return b.Grade
		}
	}
	return s.bands[len(s.bands)-1].Grade
}

// PointsFor returns the grade-point value of a letter grade, 0 for an
// unknown grade.
func (s GradeScale) PointsFor(g Grade) float64 {
	for _, b := range s.bands {
		if b.Grade == g {
			return b.Points
		}
	}
	return 0
}

// GradeEntry is one (grade, credit unit) pair contributing to a GPA.
type GradeEntry struct {
	Grade      Grade
	CreditUnit int
}

// GPA computes sum(points_i * creditUnit_i) / sum(creditUnit_i). A zero
// credit-unit sum yields 0, never NaN. The value is not rounded; display
// precision is the caller's concern.
func (s GradeScale) GPA(entries []GradeEntry) float64 {
	var points, units float64
	for _, e := range entries {
		if e.CreditUnit <= 0 {
			continue
		}
		cu := float64(e.CreditUnit)
		points += s.PointsFor(e.Grade) * cu
		units += cu
	}
	if units == 0 {
		return 0
	}
	return points / units
}

// CGPA is the GPA formula applied across semesters. Callers must pass only
// entries from senate-approved results; filtering pending or rejected results
// out of the aggregation is a correctness requirement, not an optimization.
func (s GradeScale) CGPA(entries []GradeEntry) float64 {
	return s.GPA(entries)
}

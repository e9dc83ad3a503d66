package core

import (
	"regexp"
	"strconv"
	"strings"
)

// Semester identifies one term of an academic session.
type Semester string

const (
	SemesterFirst  Semester = "FIRST"
	SemesterSecond Semester = "SECOND"
	SemesterSummer Semester = "SUMMER"
)

var Semesters = []Semester{SemesterFirst, SemesterSecond, SemesterSummer}

func (s Semester) Valid() bool {
	switch s {
	case SemesterFirst, SemesterSecond, SemesterSummer:
		return true
	}
	return false
}

func ParseSemester(s string) (Semester, bool) {
	sem := Semester(strings.ToUpper(strings.TrimSpace(s)))
	return sem, sem.Valid()
}

var academicYearRegex = regexp.MustCompile(`^(\d{4})/(\d{4})$`)

// ValidAcademicYear reports whether s is of the form "YYYY/YYYY" with
// consecutive years, e.g. "2025/2026".
func ValidAcademicYear(s string) bool {
	m := academicYearRegex.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}

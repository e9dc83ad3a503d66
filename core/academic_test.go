package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSemester(t *testing.T) {
	tests := []struct {
		in    string
		want  Semester
		valid bool
	}{
		{"FIRST", SemesterFirst, true},
		{"first", SemesterFirst, true},
		{" Second ", SemesterSecond, true},
		{"SUMMER", SemesterSummer, true},
		{"THIRD", "THIRD", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSemester(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValidAcademicYear(t *testing.T) {
	assert.True(t, ValidAcademicYear("2025/2026"))
	assert.True(t, ValidAcademicYear("1999/2000"))

	assert.False(t, ValidAcademicYear("2025/2027"))
	assert.False(t, ValidAcademicYear("2026/2025"))
	assert.False(t, ValidAcademicYear("2025-2026"))
	assert.False(t, ValidAcademicYear("25/26"))
	assert.False(t, ValidAcademicYear(""))
}

func TestDefaultAcademicYear(t *testing.T) {
	sep := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025/2026", defaultAcademicYear(sep))

	// before September the session started the previous year
	mar := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025/2026", defaultAcademicYear(mar))
}

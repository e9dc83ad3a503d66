package result

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/eakinwale/acadia/core/approval"
)

// ExportRow is the flattened per-course-per-student row consumed by the
// spreadsheet and CSV exports. Everything is a display string; numeric
// precision is fixed here (2 decimal places for aggregates) and nowhere else.
type ExportRow struct {
	StudentID      string `json:"student_id"`
	CourseCode     string `json:"course_code"`
	CourseTitle    string `json:"course_title"`
	AcademicYear   string `json:"academic_year"`
	Semester       string `json:"semester"`
	CAScore        string `json:"ca_score"`
	ExamScore      string `json:"exam_score"`
	TotalScore     string `json:"total_score"`
	Grade          string `json:"grade"`
	GPA            string `json:"gpa"`
	CGPA           string `json:"cgpa"`
	ApprovalStatus string `json:"approval_status"`
}

var exportHeader = []string{
	"Student ID", "Course Code", "Course Title", "Academic Year", "Semester",
	"CA Score", "Exam Score", "Total Score", "Grade", "GPA", "CGPA", "Approval Status",
}

// ExportRows flattens the filtered results into export rows. GPA is computed
// per (student, year, semester) and CGPA across all of the student's
// senate-approved results, regardless of the filter window.
func (svc *Service) ExportRows(ctx context.Context, filter QueryFilter) ([]ExportRow, error) {
	filter.Clean()
	results, err := svc.repo.FilterResults(ctx, filter)
	if err != nil {
		return nil, err
	}

	statuses, err := svc.approvedStatuses(ctx, results)
	if err != nil {
		return nil, err
	}

	// transcripts are cached per student: CGPA and term GPAs must reflect the
	// student's whole record, not just the filtered slice.
	transcripts := make(map[string]Transcript)
	for _, res := range results {
		if _, ok := transcripts[res.StudentID]; ok {
			continue
		}
		tr, err := svc.TranscriptFor(ctx, res.StudentID)
		if err != nil {
			return nil, errors.Wrapf(err, "building transcript for student %s", res.StudentID)
		}
		transcripts[res.StudentID] = tr
	}

	rows := make([]ExportRow, 0, len(results))
	for _, res := range results {
		tr := transcripts[res.StudentID]

		var gpa float64
		for _, sem := range tr.Semesters {
			if sem.AcademicYear == res.AcademicYear && sem.Semester == res.Semester {
				gpa = sem.GPA
				break
			}
		}

		status := string(statuses[res.ID])
		if status == "" {
			status = string(approval.StatusPending)
		}

		rows = append(rows, ExportRow{
			StudentID:      res.StudentID,
			CourseCode:     res.CourseCode,
			CourseTitle:    res.CourseTitle,
			AcademicYear:   res.AcademicYear,
			Semester:       string(res.Semester),
			CAScore:        formatScore(res.CAScore),
			ExamScore:      formatScore(res.ExamScore),
			TotalScore:     formatScore(res.TotalScore),
			Grade:          string(res.Grade),
			GPA:            formatAggregate(gpa),
			CGPA:           formatAggregate(tr.CGPA),
			ApprovalStatus: status,
		})
	}
	return rows, nil
}

// WriteCSV renders export rows as CSV with a header row.
func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, row := range rows {
		if err := cw.Write(row.record()); err != nil {
			return errors.Wrap(err, "writing CSV row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}

// WriteSheet renders export rows as an xlsx workbook with a single sheet.
func WriteSheet(w io.Writer, rows []ExportRow) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := setSheetRow(f, sheet, 1, header); err != nil {
		return err
	}

	for i, row := range rows {
		record := row.record()
		cells := make([]interface{}, len(record))
		for j, c := range record {
			cells[j] = c
		}
		if err := setSheetRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func setSheetRow(f *excelize.File, sheet string, rowNum int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return errors.Wrap(err, "resolving cell coordinates")
	}
	return errors.Wrapf(f.SetSheetRow(sheet, cell, &cells), "writing sheet row %d", rowNum)
}

func (row ExportRow) record() []string {
	return []string{
		row.StudentID, row.CourseCode, row.CourseTitle, row.AcademicYear, row.Semester,
		row.CAScore, row.ExamScore, row.TotalScore, row.Grade, row.GPA, row.CGPA, row.ApprovalStatus,
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatAggregate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

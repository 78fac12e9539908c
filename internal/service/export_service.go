package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/pkg/export"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

// ExportFile is a rendered grade board ready for download.
type ExportFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders class grade boards into downloadable files.
type ExportService struct {
	grades *GradeService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
}

// NewExportService constructs ExportService.
func NewExportService(grades *GradeService) *ExportService {
	return &ExportService{
		grades: grades,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
	}
}

// ExportGradeBoard renders the grade board for a class in csv or pdf format.
func (s *ExportService) ExportGradeBoard(ctx context.Context, classID, format string) (*ExportFile, error) {
	board, err := s.grades.GetStudentGrades(ctx, classID)
	if err != nil {
		return nil, err
	}

	headers := []string{"Student ID", "Student Name"}
	for _, component := range board.GradeTypes {
		headers = append(headers, component.Name)
	}
	headers = append(headers, "Total", "Letter", "Status")

	dataset := export.Dataset{Headers: headers}
	for _, row := range board.Students {
		record := map[string]string{
			"Student ID":   row.StudentID,
			"Student Name": row.StudentName,
		}
		for _, component := range board.GradeTypes {
			record[component.Name] = formatComponentScore(row.Scores[component.Code])
		}
		record["Total"] = "-"
		record["Letter"] = "-"
		record["Status"] = "-"
		if row.FinalGrade != nil {
			if row.FinalGrade.TotalScore != nil {
				record["Total"] = fmt.Sprintf("%.2f", *row.FinalGrade.TotalScore)
			}
			if row.FinalGrade.LetterGrade != nil {
				record["Letter"] = *row.FinalGrade.LetterGrade
			}
			record["Status"] = string(row.FinalGrade.Status)
		}
		dataset.Rows = append(dataset.Rows, record)
	}

	switch strings.ToLower(format) {
	case "csv", "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("grade-board-%s.csv", classID),
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Grade Board %s", classID))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("grade-board-%s.pdf", classID),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func formatComponentScore(score *models.ComponentScore) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f/%.0f", score.Score, score.MaxScore)
}

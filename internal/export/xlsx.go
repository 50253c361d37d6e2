// Package export writes screening results as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/cv-screener/internal/matching"
	"github.com/spigell/cv-screener/internal/records"
)

const (
	MatchesSheet    = "Rankings"
	CandidatesSheet = "Candidates"
	maxCellText     = 140
)

var matchHeaders = []string{
	"Rank",
	"Candidate",
	"Overall Score",
	"Tier",
	"Skills Score",
	"Experience Score",
	"Matched Skills",
	"Missing Skills",
	"Parse Confidence",
	"Explanation",
}

var candidateHeaders = []string{
	"Name",
	"Email",
	"Phone",
	"Location",
	"Title",
	"Years of Experience",
	"Skills",
	"Education",
	"Parse Confidence",
	"Parse Status",
	"Source",
}

// Workbook collects sheets before writing them out.
type Workbook struct {
	f *excelize.File
}

func NewWorkbook() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// AddMatches writes ranked results, one row per candidate, in the given order.
func (w *Workbook) AddMatches(results []matching.Result) error {
	rows := make([][]any, 0, len(results))
	for i, r := range results {
		rows = append(rows, []any{
			i + 1,
			r.CandidateName,
			r.OverallScore,
			string(r.Tier),
			r.SkillsScore,
			r.ExperienceScore,
			strings.Join(r.MatchedSkills, "; "),
			strings.Join(r.MissingSkills, "; "),
			r.ParseConfidence,
			truncate(r.Explanation, maxCellText),
		})
	}
	if err := w.writeSheet(MatchesSheet, matchHeaders, rows); err != nil {
		return err
	}

	_ = w.f.SetColWidth(MatchesSheet, "B", "B", 28)
	_ = w.f.SetColWidth(MatchesSheet, "G", "H", 40)
	_ = w.f.SetColWidth(MatchesSheet, "J", "J", 60)
	return nil
}

// AddCandidates writes parsed candidates.
func (w *Workbook) AddCandidates(candidates []*records.Candidate) error {
	rows := make([][]any, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		education := make([]string, 0, len(c.Education))
		for _, e := range c.Education {
			education = append(education, fmt.Sprintf("%s from %s", e.Degree, e.Institution))
		}
		source := c.Source
		if source == "" {
			source = "upload"
		}
		rows = append(rows, []any{
			c.Name,
			c.Email,
			c.Phone,
			c.Location,
			c.Title,
			c.YearsOfExperience,
			strings.Join(c.Skills, "; "),
			strings.Join(education, "; "),
			c.ParseConfidence,
			string(c.ParseStatus),
			source,
		})
	}
	if err := w.writeSheet(CandidatesSheet, candidateHeaders, rows); err != nil {
		return err
	}

	_ = w.f.SetColWidth(CandidatesSheet, "A", "B", 28)
	_ = w.f.SetColWidth(CandidatesSheet, "G", "H", 48)
	return nil
}

func (w *Workbook) writeSheet(sheet string, headers []string, rows [][]any) error {
	if index, _ := w.f.GetSheetIndex(sheet); index == -1 {
		if _, err := w.f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet, err)
		}
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := w.f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
	}

	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := w.f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	index, _ := w.f.GetSheetIndex(sheet)
	w.f.SetActiveSheet(index)
	return nil
}

// WriteTo writes the workbook, dropping the empty default sheet when other sheets exist.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	if len(w.f.GetSheetList()) > 1 {
		if index, _ := w.f.GetSheetIndex("Sheet1"); index != -1 {
			if err := w.f.DeleteSheet("Sheet1"); err != nil {
				return 0, fmt.Errorf("drop default sheet: %w", err)
			}
		}
	}
	n, err := w.f.WriteTo(out)
	if err != nil {
		return n, fmt.Errorf("xlsx write: %w", err)
	}
	return n, nil
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

// Matches is a shortcut that writes a single rankings sheet.
func Matches(out io.Writer, results []matching.Result) error {
	wb := NewWorkbook()
	defer wb.Close()

	if err := wb.AddMatches(results); err != nil {
		return err
	}
	_, err := wb.WriteTo(out)
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

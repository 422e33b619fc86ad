package report

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/quality"
)

const (
	SheetReport = "Report"
	SheetCases  = "Cases"
)

var (
	reportHeader = []string{"Section", "Field", "Value"}
	casesHeader  = []string{"Case ID", "Diagnosis", "Submitted", "Checklist", "Submitted At"}
)

// Workbook 导出 xlsx：Report 表为逐字段明细，Cases 表为病例作答
func Workbook(s *domain.Session) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo 之前不能 Close

	index, err := f.NewSheet(SheetReport)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetCases); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheet(f, SheetReport, reportHeader, []float64{18, 24, 80}, reportRows(s), headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetCases, casesHeader, []float64{16, 50, 12, 60, 22}, caseRows(s), headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, widths []float64, rows [][]any, style int) error {
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(widths) {
			if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
				return fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}
	// 冻结表头
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func reportRows(s *domain.Session) [][]any {
	var rows [][]any
	for _, sec := range s.Technical.Assessed() {
		fields := s.Technical[sec]
		for _, k := range sortedKeys(fields) {
			rows = append(rows, []any{sec.Title(), k, fields[k]})
		}
	}
	overall := quality.Summarize(s.Technical)
	rows = append(rows,
		[]any{"Overall", "rating", overall.Label},
		[]any{"Overall", "score", overall.ScoreText()},
	)
	for _, c := range overall.Concerns {
		rows = append(rows, []any{"Overall", "concern", c})
	}

	if s.CTR != nil {
		rows = append(rows,
			[]any{"Measurements", "cardiac_width", s.CTR.CardiacWidth},
			[]any{"Measurements", "thoracic_width", s.CTR.ThoracicWidth},
			[]any{"Measurements", "ctr", s.CTR.Ratio},
			[]any{"Measurements", "interpretation", s.CTR.Interpretation},
		)
	}

	for _, r := range domain.RegionOrder {
		review, ok := s.Anatomy[r]
		if !ok {
			continue
		}
		if review.Findings != "" {
			rows = append(rows, []any{r.Title(), "findings", review.Findings})
		}
		if len(review.Checked) > 0 {
			rows = append(rows, []any{r.Title(), "checked", strings.Join(review.Checked, "; ")})
		}
		for _, k := range sortedKeys(review.Choices) {
			rows = append(rows, []any{r.Title(), k, review.Choices[k]})
		}
	}

	if p := s.Pattern; p != nil {
		rows = append(rows, []any{"Pattern", "family", p.Family}, []any{"Pattern", "title", p.Title})
		if len(p.Inputs) > 0 {
			rows = append(rows, []any{"Pattern", "inputs", strings.Join(p.Inputs, ", ")})
		}
		if len(p.Differentials) > 0 {
			rows = append(rows, []any{"Pattern", "differentials", strings.Join(p.Differentials, ", ")})
		}
	}
	if s.Impression != "" {
		rows = append(rows, []any{"Impression", "text", s.Impression})
	}
	return rows
}

func caseRows(s *domain.Session) [][]any {
	ids := make([]string, 0, len(s.Cases))
	for id := range s.Cases {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]any, 0, len(ids))
	for _, id := range ids {
		a := s.Cases[id]
		submitted := "No"
		if a.Submitted {
			submitted = "Yes"
		}
		at := ""
		if a.SubmittedAt != nil {
			at = a.SubmittedAt.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []any{id, a.Diagnosis, submitted, strings.Join(sortedKeys(a.Checklist), "; "), at})
	}
	return rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

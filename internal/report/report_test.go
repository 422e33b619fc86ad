package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/measure"
	"cxr-learning/internal/quality"
)

func TestTechnical_OrderAndDefaults(t *testing.T) {
	state := domain.AssessmentState{}
	// 故意乱序写入
	require.NoError(t, state.Set(domain.SectionArtifacts, map[string]string{"severity": "None"}))
	require.NoError(t, state.Set(domain.SectionInspiration, map[string]string{
		"quality": "adequate", "posterior_rib_count": "10", "findings": "Good effort",
	}))
	require.NoError(t, state.Set(domain.SectionMotion, map[string]string{"quality": "no_motion"}))
	require.NoError(t, state.Set(domain.SectionPositioning, map[string]string{}))

	got := Technical(state)
	want := strings.Join([]string{
		"TECHNICAL QUALITY:",
		"Positioning: not assessed. No significant issues",
		"Motion: No significant motion. No significant issues",
		"Inspiration: adequate (10 posterior ribs). Good effort",
		"Artifacts: None significant.",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestTechnical_EmptyState(t *testing.T) {
	assert.Equal(t, TechnicalHeader, Technical(domain.AssessmentState{}))
}

func TestTechnical_FromRecordedForms(t *testing.T) {
	state := domain.AssessmentState{}
	_, err := quality.Record(state, domain.SectionMotion, map[string]string{
		"ribs": "Slightly blurred", "findings": "Mild blur at bases",
	})
	require.NoError(t, err)
	_, err = quality.Record(state, domain.SectionArtifacts, map[string]string{
		"grid_lines": "on", "severity": quality.SeverityModerate, "findings": "Grid lines",
	})
	require.NoError(t, err)
	_, err = quality.Record(state, domain.SectionPenetration, map[string]string{
		"mediastinum": "Clearly visible (over-penetrated)",
	})
	require.NoError(t, err)

	lines := strings.Split(Technical(state), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Penetration: over_penetrated. No significant issues", lines[1])
	assert.Equal(t, "Motion: mild_motion present. Mild blur at bases", lines[2])
	assert.Equal(t, "Artifacts: Moderate (significant impact). Grid lines", lines[3])
}

func TestFindings(t *testing.T) {
	got := Findings(map[domain.Region]domain.RegionReview{
		domain.RegionPleura:    {Findings: "Small left effusion"},
		domain.RegionChestWall: {Findings: "Normal"},
		domain.RegionHila:      {Findings: "  ", Checked: []string{"x"}},
	})
	assert.Equal(t, "STRUCTURED FINDINGS:\nChest Wall: Normal\nPleura: Small left effusion", got)
}

func sampleSession() *domain.Session {
	s := domain.NewSession("s1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	for _, sec := range domain.SectionOrder {
		_ = s.Technical.Set(sec, map[string]string{"quality": "optimal"})
	}
	_ = s.Technical.Set(domain.SectionMotion, map[string]string{"quality": "no_motion"})
	_ = s.Technical.Set(domain.SectionInspiration, map[string]string{"quality": "adequate", "posterior_rib_count": "9"})
	_ = s.Technical.Set(domain.SectionArtifacts, map[string]string{"severity": "None"})
	ctr := measure.CalculateCTR(120, 200)
	s.CTR = &ctr
	s.Anatomy[domain.RegionLungs] = domain.RegionReview{
		Findings: "Clear lungs",
		Checked:  []string{"Pleural effusion"},
		Choices:  map[string]string{"volumes": "Normal"},
	}
	s.Pattern = &domain.PatternSelection{
		Family:        "linear",
		Title:         "Linear Opacity Analysis",
		Inputs:        []string{"Kerley B"},
		Differentials: []string{"Mitral valve disease"},
	}
	at := time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC)
	s.Cases["case_001"] = domain.CaseAttempt{Diagnosis: "pneumonia", Submitted: true, SubmittedAt: &at,
		Checklist: map[string]bool{"Hila assessed": true}}
	s.Impression = "Cardiomegaly."
	return s
}

func TestFull(t *testing.T) {
	got := Full(sampleSession())

	assert.True(t, strings.HasPrefix(got, ReportTitle+"\n\nTECHNICAL QUALITY:\n"))
	assert.Contains(t, got, "Overall quality: OPTIMAL (3.0/3.0)")
	assert.Contains(t, got, "MEASUREMENTS:\nCTR: 60.0% (Cardiomegaly)")
	assert.Contains(t, got, "STRUCTURED FINDINGS:\nLungs: Clear lungs")
	assert.Contains(t, got, "PATTERN ANALYSIS:\nLinear Opacity Analysis: Kerley B\nDifferential: Mitral valve disease")
	assert.True(t, strings.HasSuffix(got, "IMPRESSION:\nCardiomegaly."))
	assert.NotContains(t, got, "Concerns:")
}

func TestFull_EmptySession(t *testing.T) {
	got := Full(domain.NewSession("s2", time.Now()))
	assert.Contains(t, got, "Overall quality: NON-DIAGNOSTIC - Repeat recommended (0.0/3.0)")
	assert.NotContains(t, got, "MEASUREMENTS:")
	assert.NotContains(t, got, "STRUCTURED FINDINGS:")
	assert.Contains(t, got, "IMPRESSION:\nNo impression recorded.")

	s := domain.NewSession("s3", time.Now())
	ctr := measure.CalculateCTR(100, 0)
	s.CTR = &ctr
	assert.Contains(t, Full(s), "CTR: not measurable (invalid_thoracic_width)")
}

func TestWorkbook(t *testing.T) {
	data, err := Workbook(sampleSession())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetReport, SheetCases}, f.GetSheetList())

	rows, err := f.GetRows(SheetReport)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Section", "Field", "Value"}, rows[0])
	assert.Equal(t, []string{"Positioning", "quality", "optimal"}, rows[1])
	assert.Contains(t, rows, []string{"Overall", "rating", "OPTIMAL"})
	assert.Contains(t, rows, []string{"Lungs", "checked", "Pleural effusion"})
	assert.Contains(t, rows, []string{"Lungs", "volumes", "Normal"})
	assert.Contains(t, rows, []string{"Impression", "text", "Cardiomegaly."})

	cases, err := f.GetRows(SheetCases)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, []string{"case_001", "pneumonia", "Yes", "Hila assessed", "2026-01-02 04:00:00"}, cases[1])
}

package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cxr-learning/internal/casestudy"
	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
	"cxr-learning/internal/measure"
	"cxr-learning/internal/pattern"
	"cxr-learning/internal/radiograph"
)

func newServices(t *testing.T) *Services {
	t.Helper()
	kb, err := knowledge.Load()
	require.NoError(t, err)
	return New(kb, zap.NewNop())
}

func newSession() *domain.Session {
	return domain.NewSession("7b1f0c3e-2a44-4d1b-9d8e-5c0f6a7e9b21", time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
}

func TestQualityService_RecordAndSummary(t *testing.T) {
	svc := newServices(t)
	sess := newSession()
	ctx := context.Background()

	r, err := svc.Quality.Record(ctx, sess, "Motion", map[string]string{
		"ribs":     "Sharp and well-defined",
		"findings": "crisp outlines",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SectionMotion, r.Section)
	assert.True(t, sess.Technical.Has(domain.SectionMotion))

	o := svc.Quality.Summary(sess)
	assert.Len(t, o.Sections, 1)

	forms := svc.Quality.Forms(sess)
	require.Len(t, forms, 5)
	assert.Equal(t, domain.SectionPositioning, forms[0].Section)
	assert.Equal(t, "crisp outlines", forms[2].Answers["findings"])
}

func TestQualityService_RejectsUnknownOption(t *testing.T) {
	svc := newServices(t)
	sess := newSession()

	_, err := svc.Quality.Record(context.Background(), sess, "positioning", map[string]string{"rotation": "sideways"})
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	assert.False(t, sess.Technical.Has(domain.SectionPositioning))

	_, err = svc.Quality.Record(context.Background(), sess, "lungs", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownSection)
}

func TestAnatomyService_Review(t *testing.T) {
	svc := newServices(t)
	sess := newSession()
	ctx := context.Background()

	review, err := svc.Anatomy.Review(ctx, sess, "hila", ReviewRequest{
		Findings: " Normal hila ",
		Choices:  map[string]string{"position": "Normal (R<L)"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Normal hila", review.Findings)
	assert.Equal(t, "Normal (R<L)", review.Choices["position"])

	review, err = svc.Anatomy.Review(ctx, sess, "pleura", ReviewRequest{
		Findings: "Small left effusion",
		Checked:  []string{"Pleural effusion", "made up item"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pleural effusion"}, review.Checked)

	_, err = svc.Anatomy.Review(ctx, sess, "hila", ReviewRequest{Choices: map[string]string{"size": "Huge"}})
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	_, err = svc.Anatomy.Review(ctx, sess, "abdomen", ReviewRequest{})
	assert.ErrorIs(t, err, domain.ErrUnknownRegion)

	findings := svc.Anatomy.Findings(sess)
	assert.Equal(t, "STRUCTURED FINDINGS:\nHila: Normal hila\nPleura: Small left effusion", findings)

	regions := svc.Anatomy.Regions(sess)
	require.Len(t, regions, len(domain.RegionOrder))
	assert.Equal(t, "Chest Wall", regions[1].Title)
	assert.NotEmpty(t, regions[1].Description)
}

func TestPatternService(t *testing.T) {
	svc := newServices(t)
	sess := newSession()

	scores := svc.Pattern.Match([]string{"linear_opacities", "interstitial_thickening"}, "basal")
	require.NotEmpty(t, scores)
	assert.Equal(t, "reticular", scores[0].Pattern)

	assert.Contains(t, svc.Pattern.Differential("reticular", "basal"), "Usual Interstitial Pneumonia (IPF)")
	assert.Equal(t, []string{pattern.FallbackDifferential}, svc.Pattern.Differential("nodular", "nowhere"))

	a, err := svc.Pattern.Analyze(context.Background(), sess, pattern.FamilyDestructive, pattern.Selection{})
	require.NoError(t, err)
	require.NotNil(t, sess.Pattern)
	assert.Equal(t, a.Title, sess.Pattern.Title)

	_, err = svc.Pattern.Analyze(context.Background(), sess, "spiral", pattern.Selection{})
	assert.ErrorIs(t, err, pattern.ErrUnknownFamily)
}

func TestCaseService(t *testing.T) {
	kb, err := knowledge.Load()
	require.NoError(t, err)
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	svc := NewCaseService(casestudy.NewLibrary(kb), zap.NewNop(), func() time.Time { return now })
	sess := newSession()
	ctx := context.Background()

	assert.Len(t, svc.List(sess, "All", "All Categories"), len(kb.Cases))

	view, err := svc.Get(sess, "case_001")
	require.NoError(t, err)
	assert.Len(t, view.Checklist, 8)
	assert.False(t, view.Attempt.Submitted)

	a, err := svc.Attempt(ctx, sess, "case_001", casestudy.AttemptInput{Diagnosis: "pneumonia", Submit: true})
	require.NoError(t, err)
	assert.True(t, a.Submitted)
	require.NotNil(t, a.SubmittedAt)
	assert.Equal(t, now, *a.SubmittedAt)
	assert.Equal(t, 1, svc.Progress(sess).Completed)

	_, err = svc.Attempt(ctx, sess, "case_404", casestudy.AttemptInput{})
	assert.ErrorIs(t, err, casestudy.ErrCaseNotFound)

	_, err = svc.AddCustom(ctx, sess, casestudy.CustomCaseInput{Title: "incomplete"})
	assert.ErrorIs(t, err, domain.ErrInvalidCase)
	assert.Empty(t, sess.CustomCases)

	custom := casestudy.CustomCaseInput{
		Title:                   "Right lower lobe collapse",
		Difficulty:              "intermediate",
		PatientHistory:          "55M, productive cough",
		ClinicalContext:         "Smoker",
		ImageDescription:        "PA chest radiograph",
		Findings:                map[string]string{"lungs": "Triangular opacity behind the right heart"},
		KeyFindings:             []string{"Loss of right hemidiaphragm outline"},
		Diagnosis:               "RLL collapse",
		TeachingPoints:          []string{"Look behind the heart"},
		DifferentialsConsidered: []string{"Consolidation"},
		References:              []string{"Radiopaedia"},
	}
	for i := 0; i < casestudy.MaxCustomCases; i++ {
		_, err = svc.AddCustom(ctx, sess, custom)
		require.NoError(t, err)
	}
	_, err = svc.AddCustom(ctx, sess, custom)
	assert.ErrorIs(t, err, casestudy.ErrTooManyCustomCases)
	assert.Len(t, sess.CustomCases, casestudy.MaxCustomCases)
}

func TestMeasureService_CTR(t *testing.T) {
	svc := newServices(t)
	sess := newSession()

	m := svc.Measure.CTR(context.Background(), sess, 120, 200)
	assert.InDelta(t, 60.0, m.Ratio, 1e-9)
	require.NotNil(t, sess.CTR)

	m = svc.Measure.CTR(context.Background(), sess, 120, 0)
	assert.Equal(t, 0.0, m.Ratio)
	assert.Equal(t, measure.StatusInvalidThoracicWidth, m.Status)

	d := svc.Measure.Distance(measure.Point{}, measure.Point{X: 30, Y: 40}, 10)
	assert.InDelta(t, 5.0, d.Centimeters, 1e-9)
}

func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x * 255) / w)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageService_Analyze(t *testing.T) {
	svc := newServices(t)

	out, err := svc.Image.Analyze(context.Background(), ImageRequest{
		Filename:    "chest.png",
		Data:        gradientPNG(t, 120, 100),
		Adjustments: radiograph.DefaultAdjustments,
		Equalize:    true,
		Edges:       true,
		Overlay:     "zones",
		Compare:     true,
		Annotations: []Annotation{
			{Kind: "measure", X1: 10, Y1: 10, X2: 70, Y2: 10},
			{Kind: "highlight", X1: 40, Y1: 40, X2: 20, Y2: 20, Style: radiograph.StyleCircle},
			{Kind: "measure", X1: 0, Y1: 0, X2: 200000000, Y2: 10},
			{Kind: "highlight", X1: -9e18, Y1: -9e18, X2: 9e18, Y2: 9e18, Style: radiograph.StyleCircle},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 120, out.Metadata.Width)
	assert.Equal(t, "PNG", out.Metadata.Format)
	assert.True(t, strings.HasPrefix(out.Preview, "data:image/png;base64,"))
	assert.NotEmpty(t, out.Rotation.Quality)
}

func TestImageService_Errors(t *testing.T) {
	svc := newServices(t)

	_, err := svc.Image.Analyze(context.Background(), ImageRequest{Filename: "chest.png", Data: []byte("not an image")})
	assert.ErrorIs(t, err, radiograph.ErrDecode)

	_, err = svc.Image.Analyze(context.Background(), ImageRequest{Filename: "scan.dcm", Data: []byte("DICM")})
	assert.ErrorIs(t, err, radiograph.ErrUnsupported)

	_, err = svc.Image.Analyze(context.Background(), ImageRequest{Filename: "notes.txt", Data: []byte("x")})
	assert.ErrorIs(t, err, radiograph.ErrFormat)

	kb, err := knowledge.Load()
	require.NoError(t, err)
	small := New(kb, zap.NewNop(), WithMaxImagePixels(100))
	_, err = small.Image.Analyze(context.Background(), ImageRequest{Filename: "chest.png", Data: gradientPNG(t, 20, 10)})
	assert.ErrorIs(t, err, radiograph.ErrTooLarge)
	_, err = small.Image.Analyze(context.Background(), ImageRequest{Filename: "chest.png", Data: gradientPNG(t, 10, 10)})
	assert.NoError(t, err)
}

func TestReportService(t *testing.T) {
	svc := newServices(t)
	sess := newSession()
	ctx := context.Background()

	svc.Report.SetImpression(ctx, sess, "  No acute disease ")
	text := svc.Report.Text(sess)
	assert.True(t, strings.HasSuffix(text, "IMPRESSION:\nNo acute disease"))
	assert.Equal(t, "TECHNICAL QUALITY:", svc.Report.Technical(sess))

	b, err := svc.Report.Workbook(ctx, sess)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("PK")))
}

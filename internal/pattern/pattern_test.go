package pattern

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxr-learning/internal/domain"
	"cxr-learning/internal/knowledge"
)

func loadKB(t *testing.T) *knowledge.Base {
	t.Helper()
	kb, err := knowledge.Load()
	require.NoError(t, err)
	return kb
}

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher(loadKB(t).Patterns)

	got := m.Match([]string{"linear_opacities", "interstitial_thickening"}, "basal")
	want := map[string]float64{"reticular": 1, "nodular": 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Match() mismatch (-want +got):\n%s", diff)
	}

	got = m.Match(nil, "upper")
	assert.InDelta(t, 1.0/3, got["nodular"], 1e-9)
	assert.Zero(t, got["reticular"])
}

func TestMatcher_DuplicateFeaturesCountOnce(t *testing.T) {
	m := NewMatcher(loadKB(t).Patterns)
	got := m.Match([]string{"round_opacities", "round_opacities", "round_opacities"}, "")
	assert.InDelta(t, 1.0/3, got["nodular"], 1e-9)
}

func TestMatcher_ScoresWithinUnitInterval(t *testing.T) {
	m := NewMatcher([]domain.PatternDefinition{
		{Name: "a", Features: []string{"x", "x", "y"}, Distributions: []string{"d"}},
		{Name: "b", Features: []string{"z"}, Distributions: []string{"d", "e"}},
	})
	inputs := [][]string{
		nil,
		{"x"},
		{"x", "x", "y", "y", "z", "z"},
		{"unknown", "x", "y", "z"},
	}
	for _, features := range inputs {
		for _, dist := range []string{"", "d", "e", "other"} {
			for name, s := range m.Match(features, dist) {
				assert.GreaterOrEqual(t, s, 0.0, name)
				assert.LessOrEqual(t, s, 1.0, name)
			}
		}
	}
}

func TestMatcher_Ranked(t *testing.T) {
	m := NewMatcher(loadKB(t).Patterns)
	ranked := m.Ranked([]string{"round_opacities"}, "upper")
	require.Len(t, ranked, 2)
	assert.Equal(t, "nodular", ranked[0].Pattern)

	// 同分按名称
	ranked = m.Ranked(nil, "")
	assert.Equal(t, []Score{{"nodular", 0}, {"reticular", 0}}, ranked)

	assert.Contains(t, m.Features(), "multiple_nodules")
	assert.Equal(t, []string{"basal", "peripheral", "random", "upper"}, m.Distributions())
}

func TestDifferential(t *testing.T) {
	kb := loadKB(t)
	assert.Contains(t, Differential(kb, "reticular", "basal"), "Usual Interstitial Pneumonia (IPF)")
	assert.Contains(t, Differential(kb, "nodular", "upper"), "Silicosis")
	assert.Equal(t, []string{FallbackDifferential}, Differential(kb, "nodular", "basal"))
	assert.Equal(t, []string{FallbackDifferential}, Differential(nil, "reticular", "basal"))
}

func TestAnalyze_SmallOpacities(t *testing.T) {
	analyzers := NewAnalyzers(loadKB(t))

	a, err := Analyze(analyzers, FamilySmallOpacities, Selection{
		Shape: "Round (nodular)", Size: "p (<1.5mm)", Profusion: 5,
		Distributions: []string{"Upper zones", "Lower zones"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Micronodular Pattern (<1.5mm)", a.Description)
	assert.Contains(t, a.Differentials, "Alveolar microlithiasis")
	assert.Contains(t, a.Inputs, "Profusion 3")
	assert.Len(t, a.Notes, 2)

	a, err = Analyze(analyzers, FamilySmallOpacities, Selection{Shape: "Round (nodular)", Size: "q (1.5-3mm)"})
	require.NoError(t, err)
	assert.Contains(t, a.Differentials, "Miliary tuberculosis")

	a, err = Analyze(analyzers, FamilySmallOpacities, Selection{Shape: "Irregular (reticular)", Size: "s (<1.5mm)"})
	require.NoError(t, err)
	assert.Equal(t, "Reticular Pattern", a.Description)

	a, err = Analyze(analyzers, FamilySmallOpacities, Selection{Shape: "Triangular"})
	require.NoError(t, err)
	assert.Empty(t, a.Differentials)
	assert.NotNil(t, a.Differentials)
}

func TestAnalyze_OtherFamilies(t *testing.T) {
	analyzers := NewAnalyzers(loadKB(t))

	a, err := Analyze(analyzers, "Large_Opacities", Selection{Pattern: "Peripheral", AirBronchograms: true})
	require.NoError(t, err)
	assert.Equal(t, FamilyLargeOpacities, a.Family)
	assert.Contains(t, a.Differentials, "COVID-19")
	assert.Len(t, a.Notes, 1)

	a, err = Analyze(analyzers, FamilyLinear, Selection{LineType: "Kerley B"})
	require.NoError(t, err)
	assert.Contains(t, a.Differentials, "Mitral valve disease")

	a, err = Analyze(analyzers, FamilyLinear, Selection{LineType: "Kerley A"})
	require.NoError(t, err)
	assert.NotEmpty(t, a.Description)
	assert.Empty(t, a.Differentials)

	a, err = Analyze(analyzers, FamilyDestructive, Selection{Features: []string{"Honeycombing", "made up"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Honeycombing"}, a.Inputs)
	assert.Len(t, a.Differentials, 5)

	a, err = Analyze(analyzers, FamilyVascular, Selection{Pattern: "Centralization (pruned tree)"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pulmonary hypertension"}, a.Differentials)

	a, err = Analyze(analyzers, FamilyVascular, Selection{Pattern: "Cephalization"})
	require.NoError(t, err)
	assert.Equal(t, []string{"LV failure", "mitral stenosis", "emphysema"}, a.Differentials)

	sel := a.Selection()
	assert.Equal(t, FamilyVascular, sel.Family)
	assert.Equal(t, []string{"Cephalization (upper lobe diversion)"}, sel.Inputs)

	_, err = Analyze(analyzers, "cardiac", Selection{})
	assert.ErrorIs(t, err, ErrUnknownFamily)
}

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		volatility float64
		expected   RiskCategory
	}{
		{0, Conservative},
		{0.199, Conservative},
		{0.20, Moderate},
		{0.399, Moderate},
		{0.40, Aggressive},
		{1.5, Aggressive},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Classify(tt.volatility, DefaultThresholds()), "volatility %v", tt.volatility)
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	th := Thresholds{Conservative: 0.1, Moderate: 0.15}
	require.NoError(t, th.Validate())
	assert.Equal(t, Conservative, Classify(0.09, th))
	assert.Equal(t, Moderate, Classify(0.1, th))
	assert.Equal(t, Aggressive, Classify(0.15, th))
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{Conservative: 0, Moderate: 0.4}.Validate())
	assert.Error(t, Thresholds{Conservative: 0.4, Moderate: 0.4}.Validate())
}

func TestParseRiskCategory(t *testing.T) {
	tests := []struct {
		in       string
		expected RiskCategory
	}{
		{"Conservative", Conservative},
		{" moderate ", Moderate},
		{"Balanced", Moderate},
		{"AGGRESSIVE", Aggressive},
	}
	for _, tt := range tests {
		got, err := ParseRiskCategory(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.expected, got)
	}

	_, err := ParseRiskCategory("reckless")
	assert.Error(t, err)
}

func TestRiskCategoryString(t *testing.T) {
	assert.Equal(t, "Conservative", Conservative.String())
	assert.Equal(t, "Moderate", Moderate.String())
	assert.Equal(t, "Aggressive", Aggressive.String())
	assert.Equal(t, "RiskCategory(9)", RiskCategory(9).String())
}

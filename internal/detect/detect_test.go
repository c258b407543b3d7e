package detect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashcheck-dev/cashcheck/internal/model"
)

const venmoStatement = `Account Statement - (@alex-doe) ,,,,,,,,,,,,,,,,,,,,
Account Activity,,,,,,,,,,,,,,,,,,,,
,ID,Datetime,Type,Status,Note,From,To,Amount (total),Amount (tip),Amount (tax),Amount (fee),Tax Rate,Tax Exempt,Funding Source,Destination,Beginning Balance,Ending Balance,Statement Period Venmo Fees,Terminal Location,Year to Date Venmo Fees
,4099,2025-07-05T10:22:00,Payment,Complete,Dinner,Alex Doe,Sam Roe,- $45.00,,,- $1.00,,,Venmo balance,,,,,Venmo,
`

func TestDetect_Chase(t *testing.T) {
	res := Detect([]string{"Post Date", "Description", "Amount"})
	assert.Equal(t, model.ProviderChase, res.Provider)
	assert.True(t, res.Recognized)
	assert.GreaterOrEqual(t, res.Confidence, Threshold)
}

func TestDetect_ChaseChecking(t *testing.T) {
	res := Detect([]string{"Details", "Posting Date", "Description", "Amount", "Type", "Balance", "Check or Slip #"})
	assert.Equal(t, model.ProviderChase, res.Provider)
	assert.InDelta(t, 1.0, res.Confidence, 0.0001)
}

func TestDetect_Venmo(t *testing.T) {
	res := Detect([]string{"ID", "Datetime", "Type", "Amount (total)"})
	assert.Equal(t, model.ProviderVenmo, res.Provider)
	assert.True(t, res.Recognized)
	assert.GreaterOrEqual(t, res.Confidence, Threshold)
}

func TestDetect_Fallback(t *testing.T) {
	res := Detect([]string{"Date", "Memo", "Value"})
	assert.Equal(t, model.ProviderChase, res.Provider)
	assert.False(t, res.Recognized)
	assert.InDelta(t, FallbackConfidence, res.Confidence, 0.0001)
}

func TestDetect_FallbackKeepsHigherChaseScore(t *testing.T) {
	// Two required Chase groups score 0.6, which does not exceed the threshold.
	res := Detect([]string{"Post Date", "Description"})
	assert.False(t, res.Recognized)
	assert.InDelta(t, 0.6, res.Confidence, 0.0001)
}

func TestScores_Penalties(t *testing.T) {
	chase, venmo := Scores([]string{"Post Date", "Description", "Amount", "ID", "Datetime"})
	assert.InDelta(t, 0.5, chase, 0.0001)
	assert.InDelta(t, 0.3, venmo, 0.0001)

	chase, _ = Scores([]string{"ID", "Datetime", "Amount (total)", "Amount (fee)", "From", "To"})
	assert.Equal(t, 0.0, chase, "scores are clamped at zero")
}

func TestDetectRow(t *testing.T) {
	res := DetectRow(map[string]string{"Post Date": "07/01/2025", "Description": "X", "Amount": "1.00"})
	assert.Equal(t, model.ProviderChase, res.Provider)
	assert.True(t, res.Recognized)
}

func TestDetectText_Chase(t *testing.T) {
	text := "Transaction Date,Post Date,Description,Category,Type,Amount,Memo\n07/01/2025,07/02/2025,SAFEWAY #12,Groceries,Sale,-45.10,\n"
	res, err := DetectText(text)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderChase, res.Provider)
	assert.Equal(t, 0, res.HeaderOffset)
}

func TestDetectText_VenmoBanner(t *testing.T) {
	res, err := DetectText(venmoStatement)
	require.NoError(t, err)
	assert.Equal(t, model.ProviderVenmo, res.Provider)
	assert.Equal(t, 2, res.HeaderOffset)
}

func TestDetectText_Unrecognized(t *testing.T) {
	_, err := DetectText("a,b,c\n1,2,3\n4,5,6\n")
	require.Error(t, err)

	var unrec *FormatUnrecognizedError
	require.True(t, errors.As(err, &unrec))
	assert.Equal(t, model.ProviderChase, unrec.Fallback.Provider)
	assert.InDelta(t, FallbackConfidence, unrec.Fallback.Confidence, 0.0001)
}

func TestDetectText_Empty(t *testing.T) {
	_, err := DetectText("")
	var unrec *FormatUnrecognizedError
	assert.True(t, errors.As(err, &unrec))
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate(model.ProviderChase, []string{"Posting Date", "Description", "Amount"}))
	assert.False(t, Validate(model.ProviderChase, []string{"Posting Date", "Description"}))
	assert.True(t, Validate(model.ProviderVenmo, []string{"ID", "Datetime", "Type", "Amount (total)"}))
	assert.False(t, Validate(model.ProviderVenmo, []string{"ID", "Datetime", "Amount (total)"}))
	assert.False(t, Validate(model.Provider("AMEX"), []string{"Amount"}))
}

func TestValidateText(t *testing.T) {
	offset, ok := ValidateText(model.ProviderVenmo, venmoStatement)
	require.True(t, ok)
	assert.Equal(t, 2, offset)

	_, ok = ValidateText(model.ProviderChase, venmoStatement)
	assert.False(t, ok)
}

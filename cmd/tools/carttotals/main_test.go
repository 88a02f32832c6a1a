package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cart-totals/internal/pricing"
)

const sampleCart = `{"items":[{"price":4,"quantity":1,"isTaxExempt":true},{"price":4,"quantity":1}],"taxRate":50}`

func TestRunPrintsTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(nil, strings.NewReader(sampleCart), &out, zerolog.Nop()))
	text := out.String()
	require.Contains(t, text, "subtotal")
	require.Contains(t, text, "8.00")
	require.Contains(t, text, "2.00")
	require.Contains(t, text, "10.00")
}

func TestRunFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCart), 0o600))

	var out bytes.Buffer
	err := run([]string{"-file", path, "-discount", "50", "-tax", "0", "-json"}, strings.NewReader(""), &out, zerolog.Nop())
	require.NoError(t, err)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Equal(t, map[string]float64{"subtotal": 8, "discount": 4, "tax": 0, "total": 4}, got)
}

func TestRunLinesTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-lines"}, strings.NewReader(sampleCart), &out, zerolog.Nop()))
	require.Contains(t, out.String(), "exempt")
}

func TestRunJSONLines(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-json", "-lines"}, strings.NewReader(sampleCart), &out, zerolog.Nop()))

	var got struct {
		Total float64 `json:"total"`
		Lines []struct {
			Index     int     `json:"index"`
			Net       float64 `json:"net"`
			Tax       float64 `json:"tax"`
			TaxExempt bool    `json:"taxExempt"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Equal(t, 10.0, got.Total)
	require.Len(t, got.Lines, 2)
	require.True(t, got.Lines[0].TaxExempt)
	require.Equal(t, 1, got.Lines[1].Index)
	require.Equal(t, 2.0, got.Lines[1].Tax)
}

func TestRunEmptyInput(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-json"}, strings.NewReader(""), &out, zerolog.Nop()))
	require.Contains(t, out.String(), `"total": 0`)
}

func TestRunReportsPricingErrors(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-discount", "120"}, strings.NewReader(sampleCart), &out, zerolog.Nop())
	require.ErrorIs(t, err, pricing.ErrDiscountTooLarge)
	require.EqualError(t, err, "Discount cannot exceed 100%")
}

func TestAmountFormatting(t *testing.T) {
	require.Equal(t, "3.10", amount(3.1))
	require.Equal(t, "0.00", amount(0))
}

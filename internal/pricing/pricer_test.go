package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func centavos(t *testing.T, v int64) Money {
	t.Helper()
	m, err := NewMoney(v)
	if err != nil {
		t.Fatalf("new money: %v", err)
	}
	return m
}

func testCatalog(t *testing.T) []WorkItem {
	return []WorkItem{
		{ID: 1, Name: "Aircon cleaning", UnitPrice: centavos(t, 100_00)},
		{ID: 2, Name: "Freon top-up", UnitPrice: centavos(t, 250_00)},
	}
}

func TestComputeTotal(t *testing.T) {
	catalog := testCatalog(t)

	tests := []struct {
		name     string
		selected map[int64]bool
		want     int64
	}{
		{"both selected", map[int64]bool{1: true, 2: true}, 350_00},
		{"one selected", map[int64]bool{2: true}, 250_00},
		{"none selected", map[int64]bool{}, 0},
		{"unknown id ignored", map[int64]bool{99: true}, 0},
		{"known plus stale id", map[int64]bool{1: true, 99: true}, 100_00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotal(catalog, tt.selected)
			assert.Equal(t, tt.want, got.Centavos())
		})
	}
}

func TestValidateSelection(t *testing.T) {
	assert.False(t, ValidateSelection(map[int64]bool{}))
	assert.False(t, ValidateSelection(nil))
	assert.True(t, ValidateSelection(map[int64]bool{1: true}))
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1500", 1500_00, false},
		{"1500.00", 1500_00, false},
		{"1,500.50", 1500_50, false},
		{"0.5", 50, false},
		{" 350 ", 350_00, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-10", 0, true},
		{"1.234", 0, true},
		// Largest representable amount, and one centavo past it.
		{"92233720368547758.07", 9223372036854775807, false},
		{"92233720368547759.00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got.Centavos())
		})
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "350.00", centavos(t, 350_00).String())
	assert.Equal(t, "0.05", centavos(t, 5).String())
	assert.Equal(t, "1500.50", centavos(t, 1500_50).String())
}

func TestNewMoneyRejectsNegative(t *testing.T) {
	_, err := NewMoney(-1)
	assert.Error(t, err)
}

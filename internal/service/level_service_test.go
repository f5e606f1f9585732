package service

import (
	"testing"

	"kpr-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// levels in level_order, as the repository returns them.
func hierarchyLevels() []model.ApprovalLevel {
	return []model.ApprovalLevel{
		{LevelName: "Branch Officer", LevelOrder: 1, MaxLoanAmount: dec(500_000_000), TimeoutHours: 48, CanSkip: true},
		{LevelName: "Branch Manager", LevelOrder: 2, MinLoanAmount: dec(500_000_001), MaxLoanAmount: dec(2_000_000_000), TimeoutHours: 72},
		{LevelName: "Regional Head", LevelOrder: 3, MinLoanAmount: dec(2_000_000_001), TimeoutHours: 96},
	}
}

func TestResolveLevel(t *testing.T) {
	levels := hierarchyLevels()

	tests := []struct {
		name   string
		amount int64
		want   string
	}{
		{"small ticket", 300_000_000, "Branch Officer"},
		{"boundary of first bucket", 500_000_000, "Branch Officer"},
		{"just over first bucket", 500_000_001, "Branch Manager"},
		{"mid ticket", 1_500_000_000, "Branch Manager"},
		{"open-ended top bucket", 7_000_000_000, "Regional Head"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := resolveLevel(levels, decimal.NewFromInt(tt.amount))
			require.NotNil(t, level)
			assert.Equal(t, tt.want, level.LevelName)
		})
	}
}

func TestResolveLevelNoBucketCovers(t *testing.T) {
	levels := []model.ApprovalLevel{
		{LevelName: "Mid Only", LevelOrder: 1, MinLoanAmount: dec(500_000_000), MaxLoanAmount: dec(1_000_000_000)},
	}
	assert.Nil(t, resolveLevel(levels, decimal.NewFromInt(100_000_000)))
	assert.Nil(t, resolveLevel(nil, decimal.NewFromInt(100_000_000)))
}

func TestResolveLevelFirstMatchInOrderWins(t *testing.T) {
	// Overlapping buckets: the lower level_order takes the application.
	levels := []model.ApprovalLevel{
		{LevelName: "First", LevelOrder: 1, MaxLoanAmount: dec(1_000_000_000)},
		{LevelName: "Second", LevelOrder: 2},
	}
	level := resolveLevel(levels, decimal.NewFromInt(800_000_000))
	require.NotNil(t, level)
	assert.Equal(t, "First", level.LevelName)
}

func TestLevelCovers(t *testing.T) {
	open := model.ApprovalLevel{}
	assert.True(t, open.Covers(decimal.NewFromInt(1)))
	assert.True(t, open.Covers(decimal.NewFromInt(10_000_000_000)))

	bounded := model.ApprovalLevel{MinLoanAmount: dec(100), MaxLoanAmount: dec(200)}
	assert.False(t, bounded.Covers(decimal.NewFromInt(99)))
	assert.True(t, bounded.Covers(decimal.NewFromInt(100)))
	assert.True(t, bounded.Covers(decimal.NewFromInt(200)))
	assert.False(t, bounded.Covers(decimal.NewFromInt(201)))
}

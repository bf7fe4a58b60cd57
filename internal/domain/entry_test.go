package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

func TestHourMap_TotalOutput(t *testing.T) {
	assert.Equal(t, 0, domain.HourMap{}.TotalOutput())

	hours := domain.HourMap{
		1: {Output: 50},
		2: {Output: 30},
		7: {Output: 0, QualityIssues: 2},
	}
	assert.Equal(t, 80, hours.TotalOutput())
}

func TestProductionEntry_HourlyDataRoundTrip(t *testing.T) {
	entry := &domain.ProductionEntry{ID: 15}

	hours := domain.HourMap{
		3: {Output: 45, QualityIssues: 1, Notes: "thread break"},
	}
	require.NoError(t, entry.SetHourlyData(hours))
	assert.Equal(t, 45, entry.TotalOutput, "SetHourlyData 应同步重算总产量")

	parsed, err := entry.ParseHourlyData()
	require.NoError(t, err)
	assert.Equal(t, hours, parsed)
}

func TestProductionEntry_ParseHourlyData_Empty(t *testing.T) {
	entry := &domain.ProductionEntry{}

	hours, err := entry.ParseHourlyData()
	require.NoError(t, err)
	assert.Empty(t, hours, "空列应解析为空 map")

	entry.HourlyData = "null"
	hours, err = entry.ParseHourlyData()
	require.NoError(t, err)
	assert.Empty(t, hours)
}

func TestProductionEntry_ParseHourlyData_Corrupt(t *testing.T) {
	entry := &domain.ProductionEntry{ID: 15, HourlyData: "{not-json"}

	_, err := entry.ParseHourlyData()
	require.Error(t, err)
}

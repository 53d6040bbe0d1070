package stats

import (
	"errors"
	"testing"
	"time"

	"whatdidido/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportRange_WithoutMedia(t *testing.T) {
	agg, store := newTestAggregator(t)
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)

	addSample(t, store, base, models.CategoryWork)
	addSample(t, store, base.Add(5*time.Minute), models.CategoryLearn)

	bundle, err := agg.ExportRange("2026-01-05", "2026-01-06", false, false)
	require.NoError(t, err)

	assert.Equal(t, "2026-01-05", bundle.Start)
	assert.Nil(t, bundle.Stats)
	require.Len(t, bundle.Screenshots, 2)

	// 无媒体导出仍带缩略图，不带全图；按时间正序
	assert.True(t, bundle.Screenshots[0].Timestamp.Before(bundle.Screenshots[1].Timestamp))
	assert.Empty(t, bundle.Screenshots[0].Image)
	assert.NotEmpty(t, bundle.Screenshots[0].Thumbnail)
}

func TestExportRange_WithMedia(t *testing.T) {
	agg, store := newTestAggregator(t)
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)

	addSample(t, store, base, models.CategoryWork)
	addSample(t, store, base.Add(5*time.Minute), models.CategoryWork)

	bundle, err := agg.ExportRange("2026-01-05", "2026-01-06", true, false)
	require.NoError(t, err)

	require.Len(t, bundle.Screenshots, 2)
	assert.True(t, bundle.Screenshots[0].Timestamp.Before(bundle.Screenshots[1].Timestamp))
	assert.Equal(t, []byte("img"), bundle.Screenshots[0].Image)
}

func TestExportRange_Stats(t *testing.T) {
	agg, store := newTestAggregator(t)

	day1 := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 1, 6, 9, 0, 0, 0, time.Local)
	addSample(t, store, day1, models.CategoryWork)
	addSample(t, store, day1.Add(5*time.Minute), models.CategoryWork)
	addSample(t, store, day2, models.CategorySocial)

	bundle, err := agg.ExportRange("2026-01-05", "2026-01-07", false, true)
	require.NoError(t, err)
	require.NotNil(t, bundle.Stats)

	// 原始计数而非百分比，所有分类补零
	require.Len(t, bundle.Stats.Overall, len(models.AllCategories()))
	assert.Equal(t, 2, bundle.Stats.Overall[models.CategoryWork])
	assert.Equal(t, 1, bundle.Stats.Overall[models.CategorySocial])
	assert.Equal(t, 0, bundle.Stats.Overall[models.CategoryLearn])

	require.Len(t, bundle.Stats.Daily, 2)
	assert.Equal(t, 2, bundle.Stats.Daily["2026-01-05"][models.CategoryWork])
	assert.Equal(t, 0, bundle.Stats.Daily["2026-01-05"][models.CategorySocial])
	assert.Equal(t, 1, bundle.Stats.Daily["2026-01-06"][models.CategorySocial])
}

func TestExportRange_VerbatimBounds(t *testing.T) {
	agg, store := newTestAggregator(t)
	ts := time.Date(2026, 1, 5, 10, 0, 0, 0, time.Local)
	addSample(t, store, ts, models.CategoryWork)

	// 区间两端是调用方给的时刻本身，不做零点对齐
	bundle, err := agg.ExportRange("2026-01-05 10:00:00", "2026-01-05 10:00:00", false, false)
	require.NoError(t, err)
	assert.Len(t, bundle.Screenshots, 1)

	// 纯日期写法解析为当天零点，10:00 的样本落在区间外
	bundle, err = agg.ExportRange("2026-01-05", "2026-01-05", false, false)
	require.NoError(t, err)
	assert.Len(t, bundle.Screenshots, 0)
}

func TestExportRange_InvalidOrder(t *testing.T) {
	agg, _ := newTestAggregator(t)

	_, err := agg.ExportRange("2026-01-07", "2026-01-05", false, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestExportRange_InvalidTimestamp(t *testing.T) {
	agg, _ := newTestAggregator(t)

	for _, bad := range []string{"", "not-a-date", "05/01/2026"} {
		_, err := agg.ExportRange(bad, "2026-01-07", false, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidTimestamp))
	}
}

func TestExportRange_EmptyRange(t *testing.T) {
	agg, _ := newTestAggregator(t)

	bundle, err := agg.ExportRange("2026-01-05", "2026-01-07", false, true)
	require.NoError(t, err)

	assert.NotNil(t, bundle.Screenshots)
	assert.Len(t, bundle.Screenshots, 0)
	require.NotNil(t, bundle.Stats)
	for _, c := range models.AllCategories() {
		assert.Equal(t, 0, bundle.Stats.Overall[c])
	}
	assert.Len(t, bundle.Stats.Daily, 0)
}

package stats

import (
	"errors"
	"testing"
	"time"

	"whatdidido/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDayStats_PercentagesAndHours(t *testing.T) {
	agg, store := newTestAggregator(t)
	day := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)

	// 3 份 WORK + 1 份 LEARN，间隔 5 分钟
	for i := 0; i < 3; i++ {
		addSample(t, store, day.Add(time.Duration(i)*5*time.Minute), models.CategoryWork)
	}
	addSample(t, store, day.Add(time.Hour), models.CategoryLearn)

	stats, err := agg.GetDayStats(day, 5)
	require.NoError(t, err)

	assert.Equal(t, "2026-01-05", stats.Date)
	assert.Equal(t, 4, stats.TotalCount)

	assert.InDelta(t, 75.0, stats.Percentages[models.CategoryWork], 1e-9)
	assert.InDelta(t, 25.0, stats.Percentages[models.CategoryLearn], 1e-9)
	assert.Equal(t, 0.0, stats.Percentages[models.CategorySocial])
	assert.Equal(t, 0.0, stats.Percentages[models.CategoryEntertainment])
	assert.Equal(t, 0.0, stats.Percentages[models.CategoryUnknown])

	// 小时数 = 样本数 * 间隔 / 60
	assert.InDelta(t, 0.25, stats.Hours[models.CategoryWork], 1e-9)
	assert.InDelta(t, 5.0/60.0, stats.Hours[models.CategoryLearn], 1e-9)

	require.Len(t, stats.Screenshots, 4)
}

func TestGetDayStats_PercentagesSumToHundred(t *testing.T) {
	agg, store := newTestAggregator(t)
	day := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)

	addSample(t, store, day, models.CategoryWork)
	addSample(t, store, day.Add(5*time.Minute), models.CategoryLearn)
	addSample(t, store, day.Add(10*time.Minute), models.CategorySocial)

	stats, err := agg.GetDayStats(day, 5)
	require.NoError(t, err)

	sum := 0.0
	for _, p := range stats.Percentages {
		sum += p
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestGetDayStats_EmptyDay(t *testing.T) {
	agg, _ := newTestAggregator(t)

	stats, err := agg.GetDayStats(time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local), 5)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalCount)
	assert.Len(t, stats.Screenshots, 0)

	// 空天也要给出全部分类，值为 0
	require.Len(t, stats.Percentages, len(models.AllCategories()))
	require.Len(t, stats.Hours, len(models.AllCategories()))
	for _, c := range models.AllCategories() {
		assert.Equal(t, 0.0, stats.Percentages[c])
		assert.Equal(t, 0.0, stats.Hours[c])
	}
}

func TestGetDayStats_InvalidInterval(t *testing.T) {
	agg, _ := newTestAggregator(t)
	day := time.Now()

	for _, interval := range []int{0, -5} {
		_, err := agg.GetDayStats(day, interval)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInterval))
	}
}

func TestGetDayStats_WindowBoundaries(t *testing.T) {
	agg, store := newTestAggregator(t)
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)

	// 零点和当天最后一秒都属于这一天
	addSample(t, store, day, models.CategoryWork)
	addSample(t, store, day.Add(24*time.Hour-time.Second), models.CategoryWork)
	// 前一天和后一天不算
	addSample(t, store, day.Add(-time.Second), models.CategoryWork)
	addSample(t, store, day.Add(24*time.Hour), models.CategoryWork)

	stats, err := agg.GetDayStats(day.Add(13*time.Hour), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalCount)
}

func TestGetDayStats_DeleteThenRequery(t *testing.T) {
	agg, store := newTestAggregator(t)
	day := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)

	ss := addSample(t, store, day, models.CategoryWork)
	addSample(t, store, day.Add(5*time.Minute), models.CategoryLearn)

	deleted, err := store.DeleteScreenshot(ss.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	// 统计是存储当前内容的纯函数，删除立刻反映在结果里
	stats, err := agg.GetDayStats(day, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCount)
	assert.InDelta(t, 100.0, stats.Percentages[models.CategoryLearn], 1e-9)
	assert.Equal(t, 0.0, stats.Percentages[models.CategoryWork])
}

func TestGetMoreScreenshots_Pagination(t *testing.T) {
	agg, store := newTestAggregator(t)
	day := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)

	for i := 0; i < 5; i++ {
		addSample(t, store, day.Add(time.Duration(i)*5*time.Minute), models.CategoryWork)
	}

	all, err := agg.GetMoreScreenshots(day, 0, 5)
	require.NoError(t, err)
	require.Len(t, all, 5)

	// 分页结果是完整结果的切片
	page1, err := agg.GetMoreScreenshots(day, 0, 2)
	require.NoError(t, err)
	page2, err := agg.GetMoreScreenshots(day, 2, 2)
	require.NoError(t, err)

	require.Len(t, page1, 2)
	require.Len(t, page2, 2)
	assert.Equal(t, all[0].ID, page1[0].ID)
	assert.Equal(t, all[1].ID, page1[1].ID)
	assert.Equal(t, all[2].ID, page2[0].ID)
	assert.Equal(t, all[3].ID, page2[1].ID)

	// 越过末尾返回空集
	tail, err := agg.GetMoreScreenshots(day, 10, 2)
	require.NoError(t, err)
	assert.Len(t, tail, 0)
}

func TestGetMoreScreenshots_ClampsLimit(t *testing.T) {
	agg, store := newTestAggregator(t)
	day := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)
	addSample(t, store, day, models.CategoryWork)

	// limit<=0 和超大 limit 都回落到默认页大小，不报错
	got, err := agg.GetMoreScreenshots(day, 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = agg.GetMoreScreenshots(day, 0, 100000)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

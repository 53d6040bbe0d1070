package stats

import (
	"fmt"
	"time"

	"whatdidido/pkg/models"
)

// exportTimeFormats 导出边界接受的时间戳写法
var exportTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	models.TimeLayout,
	"2006-01-02T15:04:05",
	models.DateLayout,
}

// parseExportTime 解析调用方提供的导出边界
func parseExportTime(s string) (time.Time, error) {
	for _, f := range exportTimeFormats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidTimestamp, s)
}

// ExportRange 导出任意日期区间的数据包
// 区间两端都取调用方给的时刻本身，不做零点对齐——这点和日/月视图
// 刻意不同："今天 00:00–23:59" 之类的边界由调用方自己构造。
// includeMedia 控制是否带全尺寸图片；includeStats 附带
// {overall, daily} 原始计数（不是百分比，比例换算留给消费方）。
func (a *Aggregator) ExportRange(startISO, endISO string, includeMedia, includeStats bool) (*models.ExportBundle, error) {
	start, err := parseExportTime(startISO)
	if err != nil {
		return nil, err
	}
	end, err := parseExportTime(endISO)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, startISO, endISO)
	}

	var screenshots []*models.Screenshot
	if includeMedia {
		screenshots, err = a.store.GetScreenshotsWithImages(start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to export screenshots: %w", err)
		}
	} else {
		screenshots, err = a.store.GetScreenshots(start, end, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to export screenshots: %w", err)
		}
		// 导出统一按时间正序；fetchRange 是倒序的，翻一下
		for i, j := 0, len(screenshots)-1; i < j; i, j = i+1, j-1 {
			screenshots[i], screenshots[j] = screenshots[j], screenshots[i]
		}
	}

	bundle := &models.ExportBundle{
		Start:       startISO,
		End:         endISO,
		Screenshots: screenshots,
	}

	if includeStats {
		stats, err := a.rangeStats(start, end)
		if err != nil {
			return nil, err
		}
		bundle.Stats = stats
	}

	return bundle, nil
}

// rangeStats 区间的原始计数统计
func (a *Aggregator) rangeStats(start, end time.Time) (*models.RangeStats, error) {
	overall, err := a.store.CountByCategory(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate export stats: %w", err)
	}

	perDay, err := a.store.CountByCategoryPerDay(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate export stats: %w", err)
	}

	stats := &models.RangeStats{
		Overall: models.ZeroCategoryCounts(),
		Daily:   make(map[string]map[models.Category]int, len(perDay)),
	}
	for category, count := range overall {
		stats.Overall[category] = count
	}
	for day, counts := range perDay {
		daily := models.ZeroCategoryCounts()
		for category, count := range counts {
			daily[category] = count
		}
		stats.Daily[day] = daily
	}

	return stats, nil
}

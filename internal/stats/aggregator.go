package stats

import (
	"errors"

	"whatdidido/internal/storage"
	"whatdidido/pkg/models"
)

// DefaultPageSize 单次返回的截图上限
const DefaultPageSize = 100

var (
	// ErrInvalidInterval 采样间隔必须为正数
	ErrInvalidInterval = errors.New("interval minutes must be positive")

	// ErrInvalidRange 结束时间早于开始时间
	ErrInvalidRange = errors.New("end of range is before start")

	// ErrInvalidTimestamp 时间戳无法解析
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// Aggregator 统计聚合器
// 只读组件：所有结果都是存储当前内容的纯函数，不做缓存，
// 对存储的访问全部经过 Store 的查询原语
type Aggregator struct {
	store *storage.Store
}

// NewAggregator 创建统计聚合器
func NewAggregator(store *storage.Store) *Aggregator {
	return &Aggregator{store: store}
}

// hoursFor 把样本数折算为小时数
// 每个样本固定代表 intervalMinutes 分钟，这是刻意的近似而非实测时长
func hoursFor(count, intervalMinutes int) float64 {
	return float64(count*intervalMinutes) / 60.0
}

// fillPercentages 根据分类计数生成补零的百分比映射
// total 为 0 时全部返回 0，绝不出现除零
func fillPercentages(counts map[models.Category]int, total int) map[models.Category]float64 {
	percentages := models.ZeroCategoryFloats()
	if total == 0 {
		return percentages
	}
	for category, count := range counts {
		percentages[category] = float64(count) / float64(total) * 100.0
	}
	return percentages
}

// fillHours 根据分类计数生成补零的小时映射
func fillHours(counts map[models.Category]int, intervalMinutes int) map[models.Category]float64 {
	hours := models.ZeroCategoryFloats()
	for category, count := range counts {
		hours[category] = hoursFor(count, intervalMinutes)
	}
	return hours
}

// sumCounts 汇总全部分类的样本数
func sumCounts(counts map[models.Category]int) int {
	total := 0
	for _, count := range counts {
		total += count
	}
	return total
}

package stats

import (
	"fmt"
	"time"

	"whatdidido/pkg/models"
)

// GetYearlyCategoryBreakdown 某一年逐月的分类小时数（年度图表用）
// 返回 12 个月的完整映射：没有数据的月份也有补零的条目，调用方
// 可以无条件索引任意月份。图表端在月粒度上套用和逐日图同样的
// "每桶取前三、图例取并集"规则，所以这里同样不做预过滤。
func (a *Aggregator) GetYearlyCategoryBreakdown(year, intervalMinutes int) (map[time.Month]map[models.Category]float64, error) {
	if intervalMinutes <= 0 {
		return nil, ErrInvalidInterval
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.Local)

	perMonth, err := a.store.CountByCategoryPerMonth(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate yearly stats: %w", err)
	}

	breakdown := make(map[time.Month]map[models.Category]float64, 12)
	for month := time.January; month <= time.December; month++ {
		counts := perMonth[monthKey(year, month)]
		breakdown[month] = fillHours(counts, intervalMinutes)
	}

	return breakdown, nil
}

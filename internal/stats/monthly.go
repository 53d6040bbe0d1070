package stats

import (
	"fmt"
	"time"

	"whatdidido/pkg/models"
	"whatdidido/pkg/utils"
)

// GetMonthlyAverages 计算某个月的分类统计
// 百分比按整月样本总数加权（categoryCount / totalMonthCount * 100），
// 不是逐日百分比的平均——历史上就叫"平均"，语义保持不变以免改变
// 用户看到的数字。DaysWithData 是该月有样本的本地日历日数量。
// 空月返回全 0 和 DaysWithData=0，不是错误。
func (a *Aggregator) GetMonthlyAverages(date time.Time, intervalMinutes int) (*models.MonthlyStats, error) {
	if intervalMinutes <= 0 {
		return nil, ErrInvalidInterval
	}

	start := utils.MonthStart(date)
	end := utils.MonthEnd(date)

	perDay, err := a.store.CountByCategoryPerDay(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly stats: %w", err)
	}

	// 跨天累加分类总数；出现过的日期键就是"有数据的天"
	totals := make(map[models.Category]int)
	for _, dayCounts := range perDay {
		for category, count := range dayCounts {
			totals[category] += count
		}
	}

	total := sumCounts(totals)

	return &models.MonthlyStats{
		Month:        start.Format(models.MonthLayout),
		TotalCount:   total,
		Percentages:  fillPercentages(totals, total),
		Hours:        fillHours(totals, intervalMinutes),
		DaysWithData: len(perDay),
	}, nil
}

// GetDailyCategoryBreakdown 逐日分类小时数（月度图表用）
// 返回 {日期 -> {分类 -> 小时}}，每天的映射都补齐全部分类。
// 这里必须暴露完整的逐日数据：图表端对每一天独立取小时数前三的
// 分类来画柱状图，各天的前三集合可以不同，所以不能在这里预先
// 过滤出全局 top-N。
func (a *Aggregator) GetDailyCategoryBreakdown(monthStart, monthEnd time.Time, intervalMinutes int) (map[string]map[models.Category]float64, error) {
	if intervalMinutes <= 0 {
		return nil, ErrInvalidInterval
	}
	if monthEnd.Before(monthStart) {
		return nil, ErrInvalidRange
	}

	perDay, err := a.store.CountByCategoryPerDay(utils.DayStart(monthStart), utils.DayEnd(monthEnd))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily breakdown: %w", err)
	}

	breakdown := make(map[string]map[models.Category]float64, len(perDay))
	for day, counts := range perDay {
		breakdown[day] = fillHours(counts, intervalMinutes)
	}

	return breakdown, nil
}

// monthKey strftime('%Y-%m') 分组键对应的月份
func monthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

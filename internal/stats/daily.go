package stats

import (
	"fmt"
	"time"

	"whatdidido/pkg/models"
	"whatdidido/pkg/utils"
)

// GetDayStats 计算某一天的分类统计
// 时间窗口为 [本地零点, 当天最后一秒]；Percentages 和 Hours 总是包含
// 全部已知分类（缺数据补 0），方便前端渲染固定的分类列表。
//
// 统计查询和明细查询是两条先后执行的语句，中间没有事务包裹：
// 两条语句之间发生的插入/删除会造成一次短暂的不一致读。
// 单用户、低写入频率下这是可接受的既有行为。
func (a *Aggregator) GetDayStats(date time.Time, intervalMinutes int) (*models.DayStats, error) {
	if intervalMinutes <= 0 {
		return nil, ErrInvalidInterval
	}

	start := utils.DayStart(date)
	end := utils.DayEnd(date)

	counts, err := a.store.CountByCategory(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate day stats: %w", err)
	}

	total := sumCounts(counts)

	// 最近的截图在前，最多一页
	screenshots, err := a.store.GetScreenshots(start, end, DefaultPageSize, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch day screenshots: %w", err)
	}

	return &models.DayStats{
		Date:        start.Format(models.DateLayout),
		TotalCount:  total,
		Percentages: fillPercentages(counts, total),
		Hours:       fillHours(counts, intervalMinutes),
		Screenshots: screenshots,
	}, nil
}

// GetMoreScreenshots 继续翻取某一天的截图
// 与 GetDayStats 使用同一窗口和同一排序，分页语义是"前缀一致"：
// 在没有并发写入的前提下，limit=N 的结果是 limit=M (M>=N) 结果的前缀
func (a *Aggregator) GetMoreScreenshots(date time.Time, offset, limit int) ([]*models.Screenshot, error) {
	if limit <= 0 || limit > DefaultPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	start := utils.DayStart(date)
	end := utils.DayEnd(date)

	screenshots, err := a.store.GetScreenshots(start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch more screenshots: %w", err)
	}
	return screenshots, nil
}

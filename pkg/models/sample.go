package models

import "time"

// TimeLayout 数据库中时间戳的存储格式
// 使用本地时间、SQLite 标准的 ISO-8601 写法，保证字符串比较与 date() 分组
// 都落在本地日历日上
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// MonthLayout 月份格式
const MonthLayout = "2006-01"

// Category 活动分类（封闭集合）
type Category string

const (
	CategoryWork          Category = "WORK"
	CategoryLearn         Category = "LEARN"
	CategorySocial        Category = "SOCIAL"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryUnknown       Category = "UNKNOWN" // 分类失败时的保留值
)

// AllCategories 返回全部已知分类
// 新增分类时只需在这里和常量列表中各加一行
func AllCategories() []Category {
	return []Category{
		CategoryWork,
		CategoryLearn,
		CategorySocial,
		CategoryEntertainment,
		CategoryUnknown,
	}
}

// ValidCategory 检查分类是否属于封闭集合
func ValidCategory(c Category) bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// ZeroCategoryFloats 返回所有分类均为 0 的小时/百分比映射
func ZeroCategoryFloats() map[Category]float64 {
	m := make(map[Category]float64, len(AllCategories()))
	for _, c := range AllCategories() {
		m[c] = 0
	}
	return m
}

// ZeroCategoryCounts 返回所有分类均为 0 的计数映射
func ZeroCategoryCounts() map[Category]int {
	m := make(map[Category]int, len(AllCategories()))
	for _, c := range AllCategories() {
		m[c] = 0
	}
	return m
}

// Screenshot 截图样本
// 每条记录代表一个固定长度的采样片段（interval_minutes 分钟），
// 而不是真实测量到的时长
type Screenshot struct {
	ID          int64     `json:"id" db:"id"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	Category    Category  `json:"category" db:"category"`
	Activity    string    `json:"activity" db:"activity"`
	Image       []byte    `json:"image_data,omitempty" db:"image_data"`
	Thumbnail   []byte    `json:"thumbnail_data,omitempty" db:"thumbnail_data"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// DayStats 单日统计结果
// Percentages 与 Hours 总是包含全部已知分类（无样本时为 0）
type DayStats struct {
	Date        string               `json:"date"`
	TotalCount  int                  `json:"total_count"`
	Percentages map[Category]float64 `json:"percentages"`
	Hours       map[Category]float64 `json:"hours"`
	Screenshots []*Screenshot        `json:"screenshots"`
}

// MonthlyStats 月度统计结果
// 百分比是按整月样本总数加权的聚合值，不是逐日百分比的平均
type MonthlyStats struct {
	Month        string               `json:"month"`
	TotalCount   int                  `json:"total_count"`
	Percentages  map[Category]float64 `json:"percentages"`
	Hours        map[Category]float64 `json:"hours"`
	DaysWithData int                  `json:"days_with_data"`
}

// RangeStats 导出区间的原始计数统计（不含百分比，比例换算交给消费方）
type RangeStats struct {
	Overall map[Category]int            `json:"overall"`
	Daily   map[string]map[Category]int `json:"daily"`
}

// ExportBundle 任意日期区间的导出数据包
type ExportBundle struct {
	Start       string        `json:"start"`
	End         string        `json:"end"`
	Screenshots []*Screenshot `json:"screenshots"`
	Stats       *RangeStats   `json:"stats,omitempty"`
}

// Note 每日备注（独立于截图样本，支持编辑）
type Note struct {
	ID        int64     `json:"id" db:"id"`
	Date      string    `json:"date" db:"date"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ScreenInfo 屏幕信息
type ScreenInfo struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	IsPrimary bool   `json:"is_primary"`
}

// StorageStats 存储统计
type StorageStats struct {
	TotalScreenshots int64  `json:"total_screenshots"`
	TotalBytes       int64  `json:"total_bytes"`
	OldestDate       string `json:"oldest_date"`
	NewestDate       string `json:"newest_date"`
}

// ServiceStatus 服务状态
type ServiceStatus struct {
	Running        bool      `json:"running"`
	CaptureEnabled bool      `json:"capture_enabled"`
	LastCapture    time.Time `json:"last_capture,omitempty"`
	TodayCaptures  int       `json:"today_captures"`
}

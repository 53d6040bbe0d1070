package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayStartDayEnd(t *testing.T) {
	ts := time.Date(2026, 1, 5, 14, 23, 45, 0, time.Local)

	start := DayStart(ts)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local), start)

	end := DayEnd(ts)
	assert.Equal(t, time.Date(2026, 1, 5, 23, 59, 59, 0, time.Local), end)

	// 整天窗口首尾相接，不重叠也不留缝
	nextStart := DayStart(ts.AddDate(0, 0, 1))
	assert.Equal(t, time.Second, nextStart.Sub(end))
}

func TestMonthStartMonthEnd(t *testing.T) {
	ts := time.Date(2026, 2, 15, 10, 0, 0, 0, time.Local)

	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local), MonthStart(ts))
	// 2026 年 2 月有 28 天
	assert.Equal(t, time.Date(2026, 2, 28, 23, 59, 59, 0, time.Local), MonthEnd(ts))

	// 12 月翻年
	dec := time.Date(2026, 12, 3, 0, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 12, 31, 23, 59, 59, 0, time.Local), MonthEnd(dec))
}

func TestIsDayInList(t *testing.T) {
	workDays := []int{1, 2, 3, 4, 5}

	assert.True(t, IsDayInList(time.Monday, workDays))
	assert.True(t, IsDayInList(time.Friday, workDays))
	assert.False(t, IsDayInList(time.Sunday, workDays))
	assert.False(t, IsDayInList(time.Saturday, workDays))
	assert.False(t, IsDayInList(time.Monday, nil))
}

func TestTimeInRange_InvalidFormat(t *testing.T) {
	_, err := TimeInRange("9am", "18:00")
	require.Error(t, err)

	_, err = TimeInRange("09:00", "晚上六点")
	require.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KB", FormatBytes(1024))
	assert.Equal(t, "1.5 MB", FormatBytes(1024*1024*3/2))
	assert.Equal(t, "1.0 GB", FormatBytes(1024*1024*1024))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmn", 10))
}

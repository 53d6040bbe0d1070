package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"whatdidido/pkg/models"

	_ "modernc.org/sqlite"
)

// ErrUnknownCategory 分类不在封闭集合内，写入前直接拒绝
var ErrUnknownCategory = errors.New("unknown category")

// Store 样本存储
// 持有唯一的数据库句柄；所有聚合层都只通过这里的查询原语访问数据库
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore 创建样本存储
func NewStore(dataDir string) (*Store, error) {
	// 确保数据目录存在
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "whatdidido.db")

	// 注意：modernc.org/sqlite 的驱动名称是 "sqlite" 而不是 "sqlite3"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

// initSchema 初始化数据库表结构
// 每次启动都执行，可重复调用；对旧版本数据库会补齐 description 列
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS screenshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		activity TEXT NOT NULL,
		image_data BLOB NOT NULL,
		thumbnail_data BLOB NOT NULL,
		description TEXT,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_screenshots_timestamp ON screenshots(timestamp);
	CREATE INDEX IF NOT EXISTS idx_screenshots_timestamp_category ON screenshots(timestamp, category);

	CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// 旧版本的 screenshots 表没有 description 列，补一次
	// "duplicate column" 说明已经存在，属于正常情况
	if _, err := s.db.Exec(`ALTER TABLE screenshots ADD COLUMN description TEXT`); err != nil {
		if !strings.Contains(err.Error(), "duplicate column") {
			return fmt.Errorf("failed to add description column: %w", err)
		}
	}

	return nil
}

// Close 关闭数据库
func (s *Store) Close() error {
	return s.db.Close()
}

// formatTime 按存储格式序列化时间戳
func formatTime(t time.Time) string {
	return t.Format(models.TimeLayout)
}

// parseTime 解析数据库中的时间戳，兼容几种常见写法
func parseTime(s string) (time.Time, error) {
	formats := []string{
		models.TimeLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		models.DateLayout,
	}
	for _, f := range formats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// SaveScreenshot 保存截图样本，成功后回填 ID
func (s *Store) SaveScreenshot(ss *models.Screenshot) error {
	if !models.ValidCategory(ss.Category) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, ss.Category)
	}
	if ss.Timestamp.IsZero() {
		ss.Timestamp = time.Now()
	}
	if ss.CreatedAt.IsZero() {
		ss.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO screenshots (timestamp, category, activity, image_data, thumbnail_data, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		formatTime(ss.Timestamp),
		string(ss.Category),
		ss.Activity,
		ss.Image,
		ss.Thumbnail,
		nullString(ss.Description),
		formatTime(ss.CreatedAt),
	)

	if err != nil {
		return fmt.Errorf("failed to insert screenshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert id: %w", err)
	}

	ss.ID = id
	return nil
}

// DeleteScreenshot 删除截图样本
// 返回是否真的删掉了一行；id 不存在不算错误
func (s *Store) DeleteScreenshot(id int64) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM screenshots WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete screenshot: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n > 0, nil
}

// GetScreenshots 获取时间范围内的截图（含两端），按时间倒序分页
// 默认不带全尺寸图片，只带缩略图，控制响应体积；
// 全图通过 GetScreenshotImage / GetScreenshotsWithImages 单独取
func (s *Store) GetScreenshots(start, end time.Time, limit, offset int) ([]*models.Screenshot, error) {
	if limit <= 0 {
		limit = -1 // SQLite: 不限制
	}

	query := `
		SELECT id, timestamp, category, activity, thumbnail_data, description, created_at
		FROM screenshots
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.Query(query, formatTime(start), formatTime(end), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query screenshots: %w", err)
	}
	defer rows.Close()

	var screenshots []*models.Screenshot
	for rows.Next() {
		ss := &models.Screenshot{}
		var tsStr, createdStr string
		var desc sql.NullString
		err := rows.Scan(
			&ss.ID,
			&tsStr,
			&ss.Category,
			&ss.Activity,
			&ss.Thumbnail,
			&desc,
			&createdStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screenshot: %w", err)
		}

		ss.Timestamp, err = parseTime(tsStr)
		if err != nil {
			return nil, err
		}
		ss.CreatedAt, _ = parseTime(createdStr)
		if desc.Valid {
			ss.Description = desc.String
		}
		screenshots = append(screenshots, ss)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate screenshots: %w", err)
	}

	if screenshots == nil {
		screenshots = []*models.Screenshot{}
	}
	return screenshots, nil
}

// GetScreenshotImage 获取单条样本的全尺寸图片
// 不存在时返回 (nil, nil)
func (s *Store) GetScreenshotImage(id int64) ([]byte, error) {
	var image []byte
	err := s.db.QueryRow(`SELECT image_data FROM screenshots WHERE id = ?`, id).Scan(&image)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query screenshot image: %w", err)
	}
	return image, nil
}

// GetScreenshotsWithImages 获取时间范围内的截图，包含全尺寸图片（导出路径专用）
// 导出按时间正序，方便消费方按时间线回放
func (s *Store) GetScreenshotsWithImages(start, end time.Time) ([]*models.Screenshot, error) {
	query := `
		SELECT id, timestamp, category, activity, image_data, thumbnail_data, description, created_at
		FROM screenshots
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.db.Query(query, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query screenshots: %w", err)
	}
	defer rows.Close()

	var screenshots []*models.Screenshot
	for rows.Next() {
		ss := &models.Screenshot{}
		var tsStr, createdStr string
		var desc sql.NullString
		err := rows.Scan(
			&ss.ID,
			&tsStr,
			&ss.Category,
			&ss.Activity,
			&ss.Image,
			&ss.Thumbnail,
			&desc,
			&createdStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screenshot: %w", err)
		}

		ss.Timestamp, err = parseTime(tsStr)
		if err != nil {
			return nil, err
		}
		ss.CreatedAt, _ = parseTime(createdStr)
		if desc.Valid {
			ss.Description = desc.String
		}
		screenshots = append(screenshots, ss)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate screenshots: %w", err)
	}

	if screenshots == nil {
		screenshots = []*models.Screenshot{}
	}
	return screenshots, nil
}

// CountByCategory 统计时间范围内各分类的样本数（含两端）
// 这是所有聚合层的基础原语；只返回有数据的分类，补零由上层负责
func (s *Store) CountByCategory(start, end time.Time) (map[models.Category]int, error) {
	query := `
		SELECT category, COUNT(*)
		FROM screenshots
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY category
	`

	rows, err := s.db.Query(query, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("failed to count by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Category]int)
	for rows.Next() {
		var category models.Category
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = count
	}

	return counts, rows.Err()
}

// CountByCategoryPerDay 按本地日历日 + 分类统计样本数
// 返回 {日期 -> {分类 -> 数量}}，月度统计和逐日图表都建立在它之上
func (s *Store) CountByCategoryPerDay(start, end time.Time) (map[string]map[models.Category]int, error) {
	query := `
		SELECT date(timestamp), category, COUNT(*)
		FROM screenshots
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY date(timestamp), category
	`

	return s.countGrouped(query, start, end)
}

// CountByCategoryPerMonth 按月份 + 分类统计样本数
// 返回 {"2006-01" -> {分类 -> 数量}}，年度图表使用
func (s *Store) CountByCategoryPerMonth(start, end time.Time) (map[string]map[models.Category]int, error) {
	query := `
		SELECT strftime('%Y-%m', timestamp), category, COUNT(*)
		FROM screenshots
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY strftime('%Y-%m', timestamp), category
	`

	return s.countGrouped(query, start, end)
}

// countGrouped 执行 (分组键, 分类, 数量) 形式的统计查询
func (s *Store) countGrouped(query string, start, end time.Time) (map[string]map[models.Category]int, error) {
	rows, err := s.db.Query(query, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("failed to count grouped: %w", err)
	}
	defer rows.Close()

	result := make(map[string]map[models.Category]int)
	for rows.Next() {
		var bucket string
		var category models.Category
		var count int
		if err := rows.Scan(&bucket, &category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan grouped count: %w", err)
		}
		if result[bucket] == nil {
			result[bucket] = make(map[models.Category]int)
		}
		result[bucket][category] = count
	}

	return result, rows.Err()
}

// DeleteScreenshotsBefore 删除指定时刻之前的所有样本（保留期清理）
func (s *Store) DeleteScreenshotsBefore(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM screenshots WHERE timestamp < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete old screenshots: %w", err)
	}
	return result.RowsAffected()
}

// GetStorageStats 获取存储统计信息
func (s *Store) GetStorageStats() (*models.StorageStats, error) {
	stats := &models.StorageStats{}

	query := `
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(LENGTH(image_data) + LENGTH(thumbnail_data)), 0) as total_bytes,
			MIN(date(timestamp)) as oldest,
			MAX(date(timestamp)) as newest
		FROM screenshots
	`

	var oldest, newest sql.NullString
	err := s.db.QueryRow(query).Scan(
		&stats.TotalScreenshots,
		&stats.TotalBytes,
		&oldest,
		&newest,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	if oldest.Valid {
		stats.OldestDate = oldest.String
	}
	if newest.Valid {
		stats.NewestDate = newest.String
	}

	return stats, nil
}

// CountScreenshotsSince 统计某时刻之后的样本数（今日采样数等）
func (s *Store) CountScreenshotsSince(since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM screenshots WHERE timestamp >= ?`, formatTime(since)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count screenshots: %w", err)
	}
	return count, nil
}

// UpsertNote 保存或更新某天的备注
func (s *Store) UpsertNote(date, content string) (*models.Note, error) {
	now := time.Now()
	query := `
		INSERT INTO notes (date, content, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`

	if _, err := s.db.Exec(query, date, content, formatTime(now), formatTime(now)); err != nil {
		return nil, fmt.Errorf("failed to upsert note: %w", err)
	}

	return s.GetNote(date)
}

// GetNote 获取某天的备注；不存在时返回 (nil, nil)
func (s *Store) GetNote(date string) (*models.Note, error) {
	note := &models.Note{}
	var createdStr, updatedStr string

	err := s.db.QueryRow(
		`SELECT id, date, content, created_at, updated_at FROM notes WHERE date = ?`, date,
	).Scan(&note.ID, &note.Date, &note.Content, &createdStr, &updatedStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query note: %w", err)
	}

	note.CreatedAt, _ = parseTime(createdStr)
	note.UpdatedAt, _ = parseTime(updatedStr)
	return note, nil
}

// DeleteNote 删除某天的备注，返回是否真的删掉了
func (s *Store) DeleteNote(date string) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM notes WHERE date = ?`, date)
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return n > 0, nil
}

// nullString 空字符串写为 NULL，保持 description 列可空的语义
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

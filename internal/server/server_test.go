package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"whatdidido/internal/ai"
	"whatdidido/internal/capture"
	"whatdidido/internal/config"
	"whatdidido/internal/stats"
	"whatdidido/internal/storage"
	"whatdidido/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer 构建一个完整装配的 Server，用于直接打路由
func newTestServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()

	dir := t.TempDir()
	configMgr, err := config.NewManager(filepath.Join(dir, "config.json"))
	require.NoError(t, err)

	store, err := storage.NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	aggregator := stats.NewAggregator(store)
	classifier := ai.NewClassifier(configMgr)
	captureEng := capture.NewEngine(configMgr, store, classifier)

	return NewServer(configMgr, store, aggregator, captureEng, classifier, "test"), store
}

// do 执行一次请求并返回响应
func do(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		data, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func seedSample(t *testing.T, store *storage.Store, ts time.Time, category models.Category) *models.Screenshot {
	t.Helper()
	ss := &models.Screenshot{
		Timestamp: ts,
		Category:  category,
		Activity:  "测试活动",
		Image:     []byte("img"),
		Thumbnail: []byte("thumb"),
	}
	require.NoError(t, store.SaveScreenshot(ss))
	return ss
}

func TestHandleGetVersion(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodGet, "/api/version", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "test", resp["version"])
}

func TestHandleGetDayStats(t *testing.T) {
	s, store := newTestServer(t)
	day := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)

	for i := 0; i < 3; i++ {
		seedSample(t, store, day.Add(time.Duration(i)*5*time.Minute), models.CategoryWork)
	}
	seedSample(t, store, day.Add(time.Hour), models.CategoryLearn)

	w := do(s, http.MethodGet, "/api/stats/day?date=2026-01-05", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DayStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2026-01-05", resp.Date)
	assert.Equal(t, 4, resp.TotalCount)
	assert.InDelta(t, 75.0, resp.Percentages[models.CategoryWork], 1e-9)
	assert.InDelta(t, 25.0, resp.Percentages[models.CategoryLearn], 1e-9)
}

func TestHandleGetDayStats_BadDate(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodGet, "/api/stats/day?date=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetDayStats_IntervalOverride(t *testing.T) {
	s, store := newTestServer(t)
	day := time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)
	seedSample(t, store, day, models.CategoryWork)

	w := do(s, http.MethodGet, "/api/stats/day?date=2026-01-05&interval=30", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DayStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 0.5, resp.Hours[models.CategoryWork], 1e-9)
}

func TestHandleSaveScreenshot_RejectsUnknownCategory(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodPost, "/api/screenshots", map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"category":  "GAMING",
		"activity":  "打游戏",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDeleteScreenshot(t *testing.T) {
	s, store := newTestServer(t)
	ss := seedSample(t, store, time.Now(), models.CategoryWork)

	w := do(s, http.MethodDelete, fmt.Sprintf("/api/screenshots/%d", ss.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 同一条再删一次：404
	w = do(s, http.MethodDelete, fmt.Sprintf("/api/screenshots/%d", ss.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetScreenshotImage(t *testing.T) {
	s, store := newTestServer(t)
	ss := seedSample(t, store, time.Now(), models.CategoryWork)

	w := do(s, http.MethodGet, fmt.Sprintf("/api/screenshots/%d/image", ss.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte("img"), w.Body.Bytes())

	w = do(s, http.MethodGet, "/api/screenshots/99999/image", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleExport_Validation(t *testing.T) {
	s, _ := newTestServer(t)

	// 缺参数
	w := do(s, http.MethodGet, "/api/export?start=2026-01-05", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 区间颠倒
	w = do(s, http.MethodGet, "/api/export?start=2026-01-07&end=2026-01-05", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleExport(t *testing.T) {
	s, store := newTestServer(t)
	seedSample(t, store, time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local), models.CategoryWork)

	w := do(s, http.MethodGet, "/api/export?start=2026-01-05&end=2026-01-06", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var bundle models.ExportBundle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bundle))
	assert.Len(t, bundle.Screenshots, 1)
	require.NotNil(t, bundle.Stats)
	assert.Equal(t, 1, bundle.Stats.Overall[models.CategoryWork])
}

func TestHandleNotes(t *testing.T) {
	s, _ := newTestServer(t)

	// 不存在
	w := do(s, http.MethodGet, "/api/notes/2026-01-05", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 保存
	w = do(s, http.MethodPut, "/api/notes/2026-01-05", map[string]string{"content": "今天效率不错"})
	require.Equal(t, http.StatusOK, w.Code)

	// 读回
	w = do(s, http.MethodGet, "/api/notes/2026-01-05", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var note models.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &note))
	assert.Equal(t, "今天效率不错", note.Content)

	// 删除后再删：404
	w = do(s, http.MethodDelete, "/api/notes/2026-01-05", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(s, http.MethodDelete, "/api/notes/2026-01-05", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetMonthlyAverages(t *testing.T) {
	s, store := newTestServer(t)
	seedSample(t, store, time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local), models.CategoryWork)

	w := do(s, http.MethodGet, "/api/stats/month?date=2026-01", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.MonthlyStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2026-01", resp.Month)
	assert.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, 1, resp.DaysWithData)
}

func TestHandleGetYearlyBreakdown(t *testing.T) {
	s, store := newTestServer(t)
	seedSample(t, store, time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local), models.CategoryWork)

	w := do(s, http.MethodGet, "/api/stats/year?year=2026", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]map[models.Category]float64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 12)
}

func TestHandleGetConfig(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg models.AppConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, 9530, cfg.Server.Port)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"whatdidido/internal/ai"
	"whatdidido/internal/capture"
	"whatdidido/internal/config"
	"whatdidido/internal/stats"
	"whatdidido/internal/storage"
	"whatdidido/pkg/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server Web 服务器
// 面向仪表盘前端的 HTTP API，统计口径全部来自 stats.Aggregator
type Server struct {
	router     *gin.Engine
	configMgr  *config.Manager
	store      *storage.Store
	aggregator *stats.Aggregator
	captureEng *capture.Engine
	classifier *ai.Classifier
	addr       string
	version    string
	httpServer *http.Server
}

// NewServer 创建 Web 服务器
func NewServer(
	configMgr *config.Manager,
	store *storage.Store,
	aggregator *stats.Aggregator,
	captureEng *capture.Engine,
	classifier *ai.Classifier,
	version string,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	serverCfg := configMgr.GetServer()
	if serverCfg.EnableCORS {
		router.Use(cors.Default())
	}

	addr := fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port)

	s := &Server{
		router:     router,
		configMgr:  configMgr,
		store:      store,
		aggregator: aggregator,
		captureEng: captureEng,
		classifier: classifier,
		addr:       addr,
		version:    version,
	}

	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 静态文件
	s.router.Static("/static", "./web/static")

	// 首页
	s.router.GET("/", s.handleIndex)

	// API 路由组
	api := s.router.Group("/api")
	{
		// 系统信息
		api.GET("/version", s.handleGetVersion)

		// 配置管理
		api.GET("/config", s.handleGetConfig)
		api.PUT("/config", s.handleUpdateConfig)
		api.GET("/screens", s.handleGetScreens)

		// AI 相关
		api.POST("/ai/test-connection", s.handleTestAIConnection)

		// 截图样本管理
		api.POST("/screenshots", s.handleSaveScreenshot)
		api.GET("/screenshots", s.handleGetScreenshots)
		api.GET("/screenshots/:id/image", s.handleGetScreenshotImage)
		api.DELETE("/screenshots/:id", s.handleDeleteScreenshot)
		api.POST("/screenshots/capture", s.handleCaptureNow)

		// 统计数据
		api.GET("/stats/day", s.handleGetDayStats)
		api.GET("/stats/month", s.handleGetMonthlyAverages)
		api.GET("/stats/month/daily", s.handleGetDailyBreakdown)
		api.GET("/stats/year", s.handleGetYearlyBreakdown)
		api.GET("/stats/storage", s.handleGetStorageStats)

		// 数据导出
		api.GET("/export", s.handleExport)

		// 每日备注
		api.GET("/notes/:date", s.handleGetNote)
		api.PUT("/notes/:date", s.handleSaveNote)
		api.DELETE("/notes/:date", s.handleDeleteNote)

		// 服务控制
		api.POST("/service/start", s.handleStartService)
		api.POST("/service/stop", s.handleStopService)
		api.GET("/service/status", s.handleGetStatus)
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.router,
	}

	fmt.Printf("🌐 Web服务器启动: http://%s\n", s.addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}

	fmt.Println("🛑 正在关闭 Web 服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		fmt.Printf("⚠️ 服务器关闭错误: %v\n", err)
		return err
	}

	fmt.Println("✅ Web 服务器已关闭")
	return nil
}

// abortWithError 区分校验错误(400)和存储错误(500)
// 存储错误必须让整个请求失败，不能返回补零数据——补零只属于
// "范围内没有样本"这一种情况
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stats.ErrInvalidInterval),
		errors.Is(err, stats.ErrInvalidRange),
		errors.Is(err, stats.ErrInvalidTimestamp),
		errors.Is(err, storage.ErrUnknownCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// queryDate 解析 ?date= 参数，缺省为今天
func queryDate(c *gin.Context) (time.Time, error) {
	d := c.Query("date")
	if d == "" {
		return time.Now(), nil
	}
	return time.ParseInLocation(models.DateLayout, d, time.Local)
}

// queryInterval 解析 ?interval= 参数，缺省用配置的采样间隔
func (s *Server) queryInterval(c *gin.Context) int {
	if v := c.Query("interval"); v != "" {
		if interval, err := strconv.Atoi(v); err == nil {
			return interval
		}
	}
	return s.configMgr.GetIntervalMinutes()
}

// ===== 处理函数 =====

// handleIndex 首页
func (s *Server) handleIndex(c *gin.Context) {
	// 禁用缓存，确保总是获取最新版本
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	c.File("./web/static/index.html")
}

// handleGetVersion 获取版本信息
func (s *Server) handleGetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": s.version,
		"name":    "What Did I Do",
	})
}

// handleGetConfig 获取配置
func (s *Server) handleGetConfig(c *gin.Context) {
	cfg := s.configMgr.Get()
	c.JSON(http.StatusOK, cfg)
}

// handleUpdateConfig 更新配置
func (s *Server) handleUpdateConfig(c *gin.Context) {
	var newConfig models.AppConfig
	if err := c.ShouldBindJSON(&newConfig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.configMgr.Update(func(cfg *models.AppConfig) {
		*cfg = newConfig
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "配置已更新"})
}

// handleGetScreens 获取屏幕列表
func (s *Server) handleGetScreens(c *gin.Context) {
	screens := capture.GetScreens()
	c.JSON(http.StatusOK, screens)
}

// handleSaveScreenshot 保存一条截图样本（采集管线 IPC 入口）
func (s *Server) handleSaveScreenshot(c *gin.Context) {
	var ss models.Screenshot
	if err := c.ShouldBindJSON(&ss); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.SaveScreenshot(&ss); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": ss.ID})
}

// handleGetScreenshots 获取某天的截图列表（分页，继续翻取）
func (s *Server) handleGetScreenshots(c *gin.Context) {
	date, err := queryDate(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的日期格式"})
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	screenshots, err := s.aggregator.GetMoreScreenshots(date, offset, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, screenshots)
}

// handleGetScreenshotImage 获取单条样本的全尺寸图片
func (s *Server) handleGetScreenshotImage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 id"})
		return
	}

	image, err := s.store.GetScreenshotImage(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if image == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "截图不存在"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", image)
}

// handleDeleteScreenshot 删除截图样本
// 不存在不是异常：返回 404 让前端区分"没删到"和"删除失败"
func (s *Server) handleDeleteScreenshot(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 id"})
		return
	}

	deleted, err := s.store.DeleteScreenshot(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"deleted": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// handleCaptureNow 立即采样一次
func (s *Server) handleCaptureNow(c *gin.Context) {
	var req struct {
		ScreenIndex int `json:"screen_index"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ss, err := s.captureEng.CaptureNow(req.ScreenIndex)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ss)
}

// handleGetDayStats 单日统计
func (s *Server) handleGetDayStats(c *gin.Context) {
	date, err := queryDate(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的日期格式"})
		return
	}

	dayStats, err := s.aggregator.GetDayStats(date, s.queryInterval(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dayStats)
}

// handleGetMonthlyAverages 月度统计
func (s *Server) handleGetMonthlyAverages(c *gin.Context) {
	date := time.Now()
	if d := c.Query("date"); d != "" {
		parsed, err := time.ParseInLocation(models.MonthLayout, d, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的月份格式"})
			return
		}
		date = parsed
	}

	monthly, err := s.aggregator.GetMonthlyAverages(date, s.queryInterval(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, monthly)
}

// handleGetDailyBreakdown 月度图表的逐日分类小时数
func (s *Server) handleGetDailyBreakdown(c *gin.Context) {
	start, err := time.ParseInLocation(models.DateLayout, c.Query("start"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的开始日期"})
		return
	}
	end, err := time.ParseInLocation(models.DateLayout, c.Query("end"), time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的结束日期"})
		return
	}

	breakdown, err := s.aggregator.GetDailyCategoryBreakdown(start, end, s.queryInterval(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// handleGetYearlyBreakdown 年度图表的逐月分类小时数
func (s *Server) handleGetYearlyBreakdown(c *gin.Context) {
	year := time.Now().Year()
	if y := c.Query("year"); y != "" {
		parsed, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的年份"})
			return
		}
		year = parsed
	}

	breakdown, err := s.aggregator.GetYearlyCategoryBreakdown(year, s.queryInterval(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// handleGetStorageStats 获取存储统计
func (s *Server) handleGetStorageStats(c *gin.Context) {
	storageStats, err := s.store.GetStorageStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, storageStats)
}

// handleExport 导出任意区间的数据包
// start/end 原样使用调用方给的时刻，不做零点对齐
func (s *Server) handleExport(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start 和 end 参数不能为空"})
		return
	}

	includeMedia := c.DefaultQuery("media", "false") == "true"
	includeStats := c.DefaultQuery("stats", "true") == "true"

	bundle, err := s.aggregator.ExportRange(start, end, includeMedia, includeStats)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, bundle)
}

// handleGetNote 获取某天的备注
func (s *Server) handleGetNote(c *gin.Context) {
	note, err := s.store.GetNote(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if note == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "备注不存在"})
		return
	}

	c.JSON(http.StatusOK, note)
}

// handleSaveNote 保存或更新某天的备注
func (s *Server) handleSaveNote(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note, err := s.store.UpsertNote(c.Param("date"), req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, note)
}

// handleDeleteNote 删除某天的备注
func (s *Server) handleDeleteNote(c *gin.Context) {
	deleted, err := s.store.DeleteNote(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"deleted": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// handleStartService 启动采样服务
func (s *Server) handleStartService(c *gin.Context) {
	// 自动启用采样配置
	if err := s.configMgr.Update(func(cfg *models.AppConfig) {
		cfg.Capture.Enabled = true
	}); err != nil {
		fmt.Printf("⚠️ 启用采样配置失败: %v\n", err)
	}

	if err := s.captureEng.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "采样服务已启动"})
}

// handleStopService 停止采样服务
func (s *Server) handleStopService(c *gin.Context) {
	if err := s.captureEng.Stop(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "服务已停止"})
}

// handleGetStatus 获取服务状态
func (s *Server) handleGetStatus(c *gin.Context) {
	todayStart := time.Now()
	todayStart = time.Date(todayStart.Year(), todayStart.Month(), todayStart.Day(), 0, 0, 0, 0, todayStart.Location())
	todayCaptures, _ := s.store.CountScreenshotsSince(todayStart)

	status := models.ServiceStatus{
		Running:        s.captureEng.IsRunning(),
		CaptureEnabled: s.configMgr.GetCapture().Enabled,
		LastCapture:    s.captureEng.GetLastCapture(),
		TodayCaptures:  todayCaptures,
	}

	c.JSON(http.StatusOK, status)
}

// handleTestAIConnection 测试 AI 连接并获取模型列表
func (s *Server) handleTestAIConnection(c *gin.Context) {
	var req struct {
		Provider string `json:"provider"`
		APIKey   string `json:"api_key"`
		BaseURL  string `json:"base_url"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "API 密钥不能为空"})
		return
	}

	modelList, err := s.classifier.TestConnection(req.Provider, req.APIKey, req.BaseURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"models":  modelList,
	})
}

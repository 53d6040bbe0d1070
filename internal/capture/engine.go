package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"whatdidido/internal/ai"
	"whatdidido/internal/config"
	"whatdidido/internal/storage"
	"whatdidido/pkg/logger"
	"whatdidido/pkg/models"
	"whatdidido/pkg/screenstate"
	"whatdidido/pkg/utils"

	"github.com/kbinani/screenshot"
	"github.com/nfnt/resize"
)

// thumbnailQuality 缩略图 JPEG 质量，只用于列表预览
const thumbnailQuality = 60

// Engine 采样引擎
// 按配置的采样间隔截屏一次，生成全图 + 缩略图，交给分类器打标签，
// 然后整条样本写入存储。每个样本代表一个固定长度的时间片。
type Engine struct {
	configMgr   *config.Manager
	store       *storage.Store
	classifier  *ai.Classifier
	ticker      *time.Ticker
	ctx         context.Context
	cancel      context.CancelFunc
	running     bool
	mu          sync.RWMutex
	lastCapture time.Time
}

// NewEngine 创建采样引擎
func NewEngine(configMgr *config.Manager, store *storage.Store, classifier *ai.Classifier) *Engine {
	return &Engine{
		configMgr:  configMgr,
		store:      store,
		classifier: classifier,
	}
}

// Start 启动采样引擎
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		logger.Warn("采样引擎已在运行中")
		return fmt.Errorf("capture engine already running")
	}

	cfg := e.configMgr.GetCapture()
	if !cfg.Enabled {
		logger.Warn("截屏采样未启用")
		return fmt.Errorf("capture is disabled in config")
	}

	interval := e.configMgr.GetIntervalMinutes()

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.ticker = time.NewTicker(time.Duration(interval) * time.Minute)
	e.running = true

	go e.captureLoop()

	logger.Info("采样引擎已启动,间隔: %d分钟", interval)
	return nil
}

// Stop 停止采样引擎
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return fmt.Errorf("capture engine not running")
	}

	e.cancel()
	e.ticker.Stop()
	e.running = false

	logger.Info("采样引擎已停止")
	return nil
}

// IsRunning 检查是否运行中
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// GetLastCapture 获取最后一次采样时间
func (e *Engine) GetLastCapture() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastCapture
}

// captureLoop 采样循环
func (e *Engine) captureLoop() {
	logger.Info("采样循环已启动")
	for {
		select {
		case <-e.ctx.Done():
			logger.Info("采样循环已停止")
			return
		case <-e.ticker.C:
			if e.shouldCapture() {
				if err := e.captureOnce(); err != nil {
					logger.Error("采样失败: %v", err)
				}
			}
		}
	}
}

// shouldCapture 检查当前时刻是否应该采样
// 锁屏/屏保期间截到的只会是黑屏，直接跳过
func (e *Engine) shouldCapture() bool {
	if !screenstate.IsScreenActive() {
		logger.Debug("屏幕处于锁定或屏保状态,跳过本次采样")
		return false
	}

	schedule := e.configMgr.GetSchedule()
	if !schedule.Enabled {
		return true
	}

	// 检查星期几
	now := time.Now()
	if !utils.IsDayInList(now.Weekday(), schedule.WorkDays) {
		return false
	}

	// 检查时间范围
	inRange, err := utils.TimeInRange(schedule.StartTime, schedule.EndTime)
	if err != nil {
		logger.Error("时间范围检查错误: %v", err)
		return false
	}

	return inRange
}

// captureOnce 执行一次采样
// 每个间隔只产出一条样本；多屏时采首选屏幕
func (e *Engine) captureOnce() error {
	cfg := e.configMgr.GetCapture()

	screenIndex := 0
	if len(cfg.SelectedScreens) > 0 {
		screenIndex = cfg.SelectedScreens[0]
	}

	ss, err := e.captureScreen(screenIndex)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.lastCapture = time.Now()
	e.mu.Unlock()

	logger.Debug("采样完成: id=%d category=%s", ss.ID, ss.Category)
	return nil
}

// captureScreen 截取指定屏幕并入库
func (e *Engine) captureScreen(screenIndex int) (*models.Screenshot, error) {
	n := screenshot.NumActiveDisplays()
	if screenIndex < 0 || screenIndex >= n {
		return nil, fmt.Errorf("invalid screen index: %d (total: %d)", screenIndex, n)
	}

	bounds := screenshot.GetDisplayBounds(screenIndex)

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	return e.saveSample(img)
}

// saveSample 生成全图和缩略图、打分类标签并写入存储
func (e *Engine) saveSample(img *image.RGBA) (*models.Screenshot, error) {
	cfg := e.configMgr.GetCapture()
	now := time.Now()

	// 全尺寸 JPEG
	var fullBuf bytes.Buffer
	opt := jpeg.Options{Quality: cfg.Quality}
	if err := jpeg.Encode(&fullBuf, img, &opt); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	// 缩略图
	thumbWidth := cfg.ThumbnailWidth
	if thumbWidth <= 0 {
		thumbWidth = 320
	}
	thumb := resize.Resize(uint(thumbWidth), 0, img, resize.Lanczos3)
	var thumbBuf bytes.Buffer
	thumbOpt := jpeg.Options{Quality: thumbnailQuality}
	if err := jpeg.Encode(&thumbBuf, thumb, &thumbOpt); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	// 分类失败不丢样本：UNKNOWN 是分类失败的保留值
	category := models.CategoryUnknown
	activity := "未能识别"
	description := ""
	if c, err := e.classifier.ClassifyScreenshot(fullBuf.Bytes()); err != nil {
		logger.Warn("截图分类失败: %v", err)
	} else {
		category = c.Category
		activity = c.Activity
		description = c.Description
	}

	ss := &models.Screenshot{
		Timestamp:   now,
		Category:    category,
		Activity:    activity,
		Image:       fullBuf.Bytes(),
		Thumbnail:   thumbBuf.Bytes(),
		Description: description,
		CreatedAt:   now,
	}

	if err := e.store.SaveScreenshot(ss); err != nil {
		return nil, fmt.Errorf("failed to save to database: %w", err)
	}

	return ss, nil
}

// CaptureNow 立即采样一次
func (e *Engine) CaptureNow(screenIndex int) (*models.Screenshot, error) {
	ss, err := e.captureScreen(screenIndex)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.lastCapture = time.Now()
	e.mu.Unlock()

	return ss, nil
}

// GetScreens 获取所有屏幕信息
func GetScreens() []models.ScreenInfo {
	n := screenshot.NumActiveDisplays()
	screens := make([]models.ScreenInfo, n)

	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		screens[i] = models.ScreenInfo{
			Index:     i,
			Name:      fmt.Sprintf("Display %d", i+1),
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
			IsPrimary: i == 0, // 假设第一个是主屏幕
		}
	}

	return screens
}

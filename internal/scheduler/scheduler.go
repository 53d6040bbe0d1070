package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"whatdidido/internal/config"
	"whatdidido/internal/storage"

	"github.com/robfig/cron/v3"
)

// workDaysToCron 将工作日数组转换为cron表达式的星期部分
// workDays: [0,1,2,3,4,5,6] 其中0=周日，1=周一，...，6=周六
// 返回: "0,1,2,3,4,5,6" 或 "*" (如果全选)
func workDaysToCron(workDays []int) string {
	if len(workDays) == 0 {
		return "*" // 空数组视为全选
	}
	if len(workDays) == 7 {
		return "*" // 全部7天
	}

	dayStrs := make([]string, len(workDays))
	for i, day := range workDays {
		dayStrs[i] = fmt.Sprintf("%d", day)
	}

	return strings.Join(dayStrs, ",")
}

// CaptureEngine 定义采样引擎接口，避免循环依赖
type CaptureEngine interface {
	Start() error
	Stop() error
	IsRunning() bool
}

// Scheduler 任务调度器
// 负责保留期清理和按工作时间自动启停采样
type Scheduler struct {
	cron       *cron.Cron
	configMgr  *config.Manager
	store      *storage.Store
	captureEng CaptureEngine
	mu         sync.Mutex
	running    bool
}

// NewScheduler 创建任务调度器
func NewScheduler(
	configMgr *config.Manager,
	store *storage.Store,
	captureEng CaptureEngine,
) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		configMgr:  configMgr,
		store:      store,
		captureEng: captureEng,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	// 添加清理任务（每天凌晨 3 点）
	_, err := s.cron.AddFunc("0 3 * * *", s.runCleanup)
	if err != nil {
		return fmt.Errorf("failed to add cleanup job: %w", err)
	}

	// 添加工作开始时间自动启动采样任务
	if err := s.addAutoStartCaptureJob(); err != nil {
		fmt.Printf("⚠️ 添加自动启动采样任务失败: %v\n", err)
	}

	// 添加工作结束时间自动停止采样任务
	if err := s.addAutoStopCaptureJob(); err != nil {
		fmt.Printf("⚠️ 添加自动停止采样任务失败: %v\n", err)
	}

	s.cron.Start()
	s.running = true

	fmt.Println("⏰ 任务调度器已启动")
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.running = false
	fmt.Println("⏰ 任务调度器已停止")
}

// IsRunning 检查是否运行中
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// runCleanup 执行保留期清理任务
func (s *Scheduler) runCleanup() {
	fmt.Println("🧹 开始清理旧样本...")

	storageCfg := s.configMgr.GetStorage()
	if storageCfg.RetentionDays <= 0 {
		fmt.Println("ℹ️ 未配置保留天数，跳过清理")
		return
	}

	cutoff := time.Now().AddDate(0, 0, -storageCfg.RetentionDays)
	deleted, err := s.store.DeleteScreenshotsBefore(cutoff)
	if err != nil {
		fmt.Printf("❌ 清理失败: %v\n", err)
		return
	}

	fmt.Printf("✅ 清理完成，删除了 %d 条旧样本\n", deleted)
}

// addAutoStartCaptureJob 添加工作开始时间自动启动采样的任务
func (s *Scheduler) addAutoStartCaptureJob() error {
	schedule := s.configMgr.GetSchedule()

	startTime, err := time.Parse("15:04", schedule.StartTime)
	if err != nil {
		return fmt.Errorf("无效的开始时间格式: %w", err)
	}

	hour := startTime.Hour()
	minute := startTime.Minute()

	// 例如：09:00 工作日1,2,3,4,5 -> "0 9 * * 1,2,3,4,5"
	weekDays := workDaysToCron(schedule.WorkDays)
	cronExpr := fmt.Sprintf("%d %d * * %s", minute, hour, weekDays)

	_, err = s.cron.AddFunc(cronExpr, s.autoStartCapture)
	if err != nil {
		return fmt.Errorf("failed to add auto-start capture job: %w", err)
	}

	fmt.Printf("⏰ 工作时间自动启动采样任务已添加 (工作日 %02d:%02d 自动启动)\n", hour, minute)
	return nil
}

// autoStartCapture 自动启动采样（在工作开始时间）
func (s *Scheduler) autoStartCapture() {
	fmt.Println("⏰ 到达工作开始时间，检查是否需要自动启动采样...")

	if s.captureEng.IsRunning() {
		fmt.Println("ℹ️ 采样引擎已在运行中，无需启动")
		return
	}

	fmt.Println("🚀 自动启动采样引擎...")
	if err := s.captureEng.Start(); err != nil {
		fmt.Printf("❌ 自动启动采样引擎失败: %v\n", err)
		return
	}

	fmt.Println("✅ 采样引擎已自动启动")
}

// addAutoStopCaptureJob 添加工作结束时间自动停止采样的任务
func (s *Scheduler) addAutoStopCaptureJob() error {
	schedule := s.configMgr.GetSchedule()

	endTime, err := time.Parse("15:04", schedule.EndTime)
	if err != nil {
		return fmt.Errorf("无效的结束时间格式: %w", err)
	}

	hour := endTime.Hour()
	minute := endTime.Minute()

	// 例如：18:00 工作日1,2,3,4,5 -> "0 18 * * 1,2,3,4,5"
	weekDays := workDaysToCron(schedule.WorkDays)
	cronExpr := fmt.Sprintf("%d %d * * %s", minute, hour, weekDays)

	_, err = s.cron.AddFunc(cronExpr, s.autoStopCapture)
	if err != nil {
		return fmt.Errorf("failed to add auto-stop capture job: %w", err)
	}

	fmt.Printf("⏰ 工作时间自动停止采样任务已添加 (工作日 %02d:%02d 自动停止)\n", hour, minute)
	return nil
}

// autoStopCapture 自动停止采样（在工作结束时间）
func (s *Scheduler) autoStopCapture() {
	fmt.Println("⏰ 到达工作结束时间，检查是否需要自动停止采样...")

	if !s.captureEng.IsRunning() {
		fmt.Println("ℹ️ 采样引擎未运行，无需停止")
		return
	}

	fmt.Println("🛑 自动停止采样引擎...")
	if err := s.captureEng.Stop(); err != nil {
		fmt.Printf("❌ 自动停止采样引擎失败: %v\n", err)
		return
	}

	fmt.Println("✅ 采样引擎已自动停止")
}

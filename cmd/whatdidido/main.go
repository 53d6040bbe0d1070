package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"whatdidido/internal/ai"
	"whatdidido/internal/capture"
	"whatdidido/internal/config"
	"whatdidido/internal/scheduler"
	"whatdidido/internal/server"
	"whatdidido/internal/singleton"
	"whatdidido/internal/stats"
	"whatdidido/internal/storage"
	"whatdidido/internal/tray"
	"whatdidido/pkg/logger"
)

const (
	AppName    = "WhatDidIDo"
	AppVersion = "1.3.0"
)

// getAppDataDir 获取应用数据目录
// Windows: %LOCALAPPDATA%\WhatDidIDo
// 如果环境变量不存在，则使用当前工作目录
func getAppDataDir() string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return filepath.Join(localAppData, AppName)
	}

	workDir, err := os.Getwd()
	if err != nil {
		log.Fatalf("❌ 无法获取工作目录: %v", err)
	}
	return workDir
}

func main() {
	// 单实例检测 - 防止程序重复启动
	mutex, err := singleton.EnsureSingleInstance(AppName)
	if err != nil {
		os.Exit(1)
	}
	defer mutex.Close()

	// 获取应用数据目录
	appDataDir := getAppDataDir()
	if err := os.MkdirAll(appDataDir, 0755); err != nil {
		log.Fatalf("❌ 创建应用数据目录失败 %s: %v", appDataDir, err)
	}

	// 初始化配置管理器
	configPath := filepath.Join(appDataDir, "data", "config.json")
	configMgr, err := config.NewManager(configPath)
	if err != nil {
		log.Fatalf("❌ 初始化配置管理器失败: %v", err)
	}
	fmt.Println("✅ 配置管理器初始化完成")

	// 确保必要的目录存在
	storageCfg := configMgr.GetStorage()
	requiredDirs := []string{
		storageCfg.DataDir,
		storageCfg.LogsDir,
	}
	for _, dir := range requiredDirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("❌ 创建目录失败 %s: %v", dir, err)
		}
	}
	fmt.Println("✅ 目录结构初始化完成")

	// 初始化日志系统
	if err := logger.Init(storageCfg.LogsDir, false); err != nil {
		log.Printf("⚠️ 日志系统初始化失败: %v, 使用控制台输出", err)
	} else {
		fmt.Println("✅ 日志系统初始化完成")
		logger.Info("==================== WhatDidIDo %s 启动 ====================", AppVersion)
		logger.Info("应用数据目录: %s", appDataDir)
		logger.Info("数据目录: %s", storageCfg.DataDir)
	}

	// 初始化存储
	store, err := storage.NewStore(storageCfg.DataDir)
	if err != nil {
		log.Fatalf("❌ 初始化存储失败: %v", err)
	}
	fmt.Println("✅ 存储初始化完成")

	// 初始化统计聚合器
	aggregator := stats.NewAggregator(store)

	// 初始化截图分类器
	classifier := ai.NewClassifier(configMgr)
	fmt.Println("✅ 截图分类器初始化完成")

	// 初始化采样引擎
	captureEng := capture.NewEngine(configMgr, store, classifier)
	fmt.Println("✅ 采样引擎初始化完成")

	// 初始化任务调度器
	sched := scheduler.NewScheduler(configMgr, store, captureEng)
	if err := sched.Start(); err != nil {
		log.Fatalf("❌ 启动任务调度器失败: %v", err)
	}

	// 初始化 Web 服务器
	webServer := server.NewServer(configMgr, store, aggregator, captureEng, classifier, AppVersion)

	// 启动 Web 服务器（在独立 goroutine 中）
	go func() {
		if err := webServer.Start(); err != nil {
			log.Printf("❌ Web 服务器错误: %v", err)
		}
	}()

	// 获取 Web 地址
	serverCfg := configMgr.GetServer()
	webURL := fmt.Sprintf("http://%s:%d", serverCfg.Host, serverCfg.Port)

	// 初始化系统托盘
	fmt.Println("🎯 启动系统托盘...")
	trayApp := tray.NewTrayApp(
		captureEng,
		sched,
		webURL,
		serverCfg.AutoOpenBrowser,
		func() {
			fmt.Println("📦 正在清理资源...")
			webServer.Shutdown()
			store.Close()
			fmt.Println("✅ 资源清理完成")
		},
	)

	// 运行托盘应用（阻塞）
	trayApp.Run()
}

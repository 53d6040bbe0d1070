//go:build !windows

package singleton

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// Mutex 持有锁文件句柄
type Mutex struct {
	file *os.File
}

// Close 释放锁文件
func (m *Mutex) Close() error {
	if m.file == nil {
		return nil
	}
	path := m.file.Name()
	syscall.Flock(int(m.file.Fd()), syscall.LOCK_UN)
	m.file.Close()
	os.Remove(path)
	return nil
}

// EnsureSingleInstance 确保只有一个实例运行
// 非 Windows 平台用临时目录下的锁文件实现，flock 随进程退出自动释放
func EnsureSingleInstance(appName string) (*Mutex, error) {
	lockPath := filepath.Join(os.TempDir(), appName+".lock")

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("创建锁文件失败: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		return nil, fmt.Errorf("应用已在运行")
	}

	file.Truncate(0)
	file.WriteString(strconv.Itoa(os.Getpid()))

	return &Mutex{file: file}, nil
}

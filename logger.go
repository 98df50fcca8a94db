package mdstream

import (
	"log"

	"github.com/riverfjs/mdstream-go/internal/logging"
)

// SetLogger 设置调试日志记录器
//
// 默认丢弃所有输出。流水线中被就地恢复的错误（非法区间、无法解析的占位符、
// 被取消的 reveal）都以 DEBUG 级别写入这里。
func SetLogger(logger *log.Logger) {
	logging.SetLogger(logger)
}

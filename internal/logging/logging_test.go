package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

// TestDebugf_WritesToInstalledLogger 测试自定义 logger 接收 debug 输出
func TestDebugf_WritesToInstalledLogger(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	var buf bytes.Buffer
	SetLogger(log.New(&buf, "", 0))
	Debugf("skipped reference %d", 3)

	if got := buf.String(); !strings.Contains(got, "DEBUG skipped reference 3") {
		t.Errorf("Debugf() wrote %q", got)
	}
}

// TestSetLogger_Nil 测试 nil logger 不会 panic
func TestSetLogger_Nil(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	SetLogger(nil)
	Debugf("discarded")
	if Logger() == nil {
		t.Fatal("Logger() should never be nil")
	}
}

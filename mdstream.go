// Package mdstream 渲染逐块到达的 Markdown（例如 LLM 的流式输出）
//
// 每收到一块文本，mdstream 都会把当前内容修正为可解析的 Markdown，
// 再把结果切分为稳定的短语，只有新完成的短语才会被调度淡入。
//
// 核心功能：
//   - 补齐被截断的行内分隔符（**、_、`、~~）
//   - 将带 code point 区间的内容引用替换为占位符，并可还原为纯文本
//   - 按标点（含 CJK 与埃塞俄比亚文）切分短语
//   - 在同一渲染范围内错开并发短语的淡入起始时间
//
// 主要 API：
//   - NewDocument(): 一次性处理一份文本
//   - NewStream(): 流式处理，Append 追加文本，Complete 结束
//
// 示例：
//
//	s, err := mdstream.NewStream(ctx, mdstream.WithAnimate(true),
//	    mdstream.WithFrameHandler(func(f mdstream.Frame) {
//	        // 重绘 f.PhraseStart 开始的短语
//	    }))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	for chunk := range chunks {
//	    s.Append(chunk)
//	}
//	s.Complete()
package mdstream

import "errors"

var (
	// ErrClosed is returned by Stream methods called after Close.
	ErrClosed = errors.New("stream closed")
	// ErrComplete is returned by Append after Complete.
	ErrComplete = errors.New("stream already complete")
)

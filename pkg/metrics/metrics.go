// Package metrics 定义服务暴露给 Prometheus 的指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatTurns 统计对话轮次，status 为 ok / error。
	ChatTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentalcare_chat_turns_total",
		Help: "Number of chat turns handled, by status.",
	}, []string{"status"})

	// ToolCalls 统计 Agent 工具调用次数。
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentalcare_agent_tool_calls_total",
		Help: "Number of agent tool invocations, by tool name.",
	}, []string{"tool"})

	// IngestChunks 统计入库分块，cached 表示是否命中缓存。
	IngestChunks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mentalcare_ingest_chunks_total",
		Help: "Number of chunks produced by the ingestion pipeline.",
	}, []string{"cached"})

	// HTTPDuration 记录 HTTP 请求耗时。
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mentalcare_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

package search

import (
	"log/slog"

	"github.com/poiesic/postsearch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterLoad(snap *core.Snapshot)
	AfterQueryEmbedding(vector []float32)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                  {}
func (n *noopMonitor) AfterLoad(_ *core.Snapshot)      {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32) {}
func (n *noopMonitor) Finish(_ []core.SearchResult)    {}

// LoggingMonitor writes each search stage to a logger at debug level.
type LoggingMonitor struct {
	logger *slog.Logger
}

var _ SearchMonitor = (*LoggingMonitor)(nil)

// NewLoggingMonitor creates a monitor that logs to logger, or slog.Default().
func NewLoggingMonitor(logger *slog.Logger) *LoggingMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingMonitor{logger: logger.With("component", "search-monitor")}
}

func (m *LoggingMonitor) Start(query string) {
	m.logger.Debug("search started", "query", query)
}

func (m *LoggingMonitor) AfterLoad(snap *core.Snapshot) {
	m.logger.Debug("index loaded", "documents", snap.Len(), "dimension", snap.Dimension, "model", snap.Model)
}

func (m *LoggingMonitor) AfterQueryEmbedding(vector []float32) {
	m.logger.Debug("query embedded", "dimension", len(vector))
}

func (m *LoggingMonitor) Finish(results []core.SearchResult) {
	if len(results) == 0 {
		m.logger.Debug("search finished without results")
		return
	}
	m.logger.Debug("search finished", "results", len(results), "topScore", results[0].Score)
}

// Package publishers delivers run events to optional machine-readable sinks
// (an HTTP endpoint or a cloud queue) after each pipeline run.
package publishers

import (
	"context"
	"time"

	"github.com/Adda-Baaj/market-brief/internal/domain"
	"github.com/Adda-Baaj/market-brief/internal/logger"
)

const (
	// Supported publisher types.
	TypeQueue = "queue"
	TypeHTTP  = "http"

	// Supported queue providers.
	QueueProviderAWSSQS = "aws-sqs"
	QueueProviderAWSSNS = "aws-sns"
	QueueProviderGCP    = "gcp"
)

// Event summarizes one pipeline run. It never carries the report text.
type Event struct {
	RunID        string              `json:"run_id"`
	Strategy     string              `json:"strategy"`
	State        string              `json:"state"`
	Sources      []domain.RunSummary `json:"sources"`
	Headlines    int                 `json:"headlines"`
	ReportStatus string              `json:"report_status,omitempty"`
	ReportError  string              `json:"report_error,omitempty"`
	Delivered    bool                `json:"delivered"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   time.Time           `json:"finished_at"`
}

// Publisher sends run events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Logger is the logging surface publishers use.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger { return logger.Ensure(log) }

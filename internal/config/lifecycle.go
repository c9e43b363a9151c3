package config

import (
	"fmt"
	"time"
)

type LifecycleConfig struct {
	JobWindow         time.Duration `yaml:"job_window"`
	InvoiceDueAfter   time.Duration `yaml:"invoice_due_after"`
	OpenRequestsLimit int           `yaml:"open_requests_limit"`
	HistoryPageSize   int           `yaml:"history_page_size"`
}

func loadLifecycleConfig() *LifecycleConfig {
	return &LifecycleConfig{
		JobWindow:         getEnvAsDuration("JOB_WINDOW", 2*time.Hour),
		InvoiceDueAfter:   getEnvAsDuration("INVOICE_DUE_AFTER", 7*24*time.Hour),
		OpenRequestsLimit: getEnvAsInt("OPEN_REQUESTS_LIMIT", 50),
		HistoryPageSize:   getEnvAsInt("HISTORY_PAGE_SIZE", 20),
	}
}

func (c *LifecycleConfig) validate() error {
	if c.JobWindow <= 0 || c.InvoiceDueAfter <= 0 {
		return fmt.Errorf("JOB_WINDOW and INVOICE_DUE_AFTER must be positive")
	}
	if c.OpenRequestsLimit <= 0 || c.HistoryPageSize <= 0 {
		return fmt.Errorf("OPEN_REQUESTS_LIMIT and HISTORY_PAGE_SIZE must be positive")
	}
	return nil
}

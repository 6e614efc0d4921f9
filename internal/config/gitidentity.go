package config

import (
	"os/exec"
	"strings"
	"time"
)

func gitUserName() string {
	cmd := exec.Command("git", "config", "user.name")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// RequestTimeout returns MEDULLA_REQUEST_TIMEOUT_MS as a duration (§6 env
// vars, default 30s).
func RequestTimeout() time.Duration {
	return time.Duration(GetInt("request_timeout_ms")) * time.Millisecond
}

// MaxBatchSize returns MEDULLA_MAX_BATCH_SIZE (§6, default 100).
func MaxBatchSize() int {
	return GetInt("max_batch_size")
}

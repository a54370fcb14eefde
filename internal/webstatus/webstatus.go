// Package webstatus probes URLs and TCP ports for the web command group.
package webstatus

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// CheckResult describes the outcome of an HTTP status probe.
type CheckResult struct {
	URL          string
	StatusCode   int
	Status       string
	ResponseTime time.Duration
	Online       bool
}

// PortResult describes the outcome of a TCP port probe.
type PortResult struct {
	Host         string
	Port         int
	Open         bool
	ResponseTime time.Duration
}

// Check performs a GET against the URL and reports status and timing.
// A bare host is promoted to https.
func Check(ctx context.Context, rawURL string, timeout time.Duration) (CheckResult, error) {
	url := NormalizeURL(rawURL)

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return CheckResult{}, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return CheckResult{URL: url, ResponseTime: elapsed}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return CheckResult{
		URL:          url,
		StatusCode:   resp.StatusCode,
		Status:       resp.Status,
		ResponseTime: elapsed,
		Online:       resp.StatusCode < 400,
	}, nil
}

// CheckPort attempts a TCP connection to host:port within the timeout.
// An unreachable port is a result, not an error.
func CheckPort(host string, port int, timeout time.Duration) PortResult {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, timeout)
	elapsed := time.Since(start)
	if err != nil {
		return PortResult{Host: host, Port: port, ResponseTime: elapsed}
	}
	conn.Close()
	return PortResult{Host: host, Port: port, Open: true, ResponseTime: elapsed}
}

// NormalizeURL prepends https:// when the URL lacks a scheme.
func NormalizeURL(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

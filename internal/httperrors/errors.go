// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors classifies network and provider API failures so they can be
// explained to users. It recognizes transport problems (timeouts, DNS, refused
// connections, TLS) and HTTP status codes returned by the LLM provider SDKs.
package httperrors

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// Category is the broad cause of a failure.
type Category int

const (
	Unknown Category = iota
	Timeout
	DNS
	ConnectionRefused
	TLS
	Unauthorized
	RateLimited
	NotFound
	Server
)

func (c Category) String() string {
	switch c {
	case Timeout:
		return "timeout"
	case DNS:
		return "dns"
	case ConnectionRefused:
		return "connection_refused"
	case TLS:
		return "tls"
	case Unauthorized:
		return "unauthorized"
	case RateLimited:
		return "rate_limited"
	case NotFound:
		return "not_found"
	case Server:
		return "server"
	default:
		return "unknown"
	}
}

// Classify inspects err. Provider status codes win over transport heuristics.
func Classify(err error) Category {
	if err == nil {
		return Unknown
	}
	if code, ok := StatusCode(err); ok {
		return fromStatus(code)
	}

	switch {
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return ConnectionRefused
	case isTimeoutError(err):
		return Timeout
	case isTLSError(err):
		return TLS
	}
	return Unknown
}

// StatusCode extracts the HTTP status from an OpenAI or Anthropic SDK error.
func StatusCode(err error) (int, bool) {
	var oe *openai.Error
	if errors.As(err, &oe) {
		return oe.StatusCode, true
	}
	var ae *anthropic.Error
	if errors.As(err, &ae) {
		return ae.StatusCode, true
	}
	return 0, false
}

func fromStatus(code int) Category {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return Unauthorized
	case code == http.StatusTooManyRequests:
		return RateLimited
	case code == http.StatusNotFound:
		return NotFound
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return Timeout
	case code >= 500:
		return Server
	}
	return Unknown
}

// Hints returns troubleshooting suggestions for c, or nil for Unknown.
func Hints(c Category) []string {
	switch c {
	case Timeout:
		return []string{"The server took too long to respond", "Check your network and try again in a few moments"}
	case DNS:
		return []string{"The host name could not be resolved", "Check the host in your DSN or your DNS settings"}
	case ConnectionRefused:
		return []string{"Nothing is accepting connections at that address", "Check that PostgreSQL is running and the host and port are correct"}
	case TLS:
		return []string{"A secure connection could not be established", "Check sslmode in your DSN, proxy settings and the system clock"}
	case Unauthorized:
		return []string{"The provider rejected the API key", "Check the key with 'sqlagent models' or store a new one with 'sqlagent keys set <provider>'"}
	case RateLimited:
		return []string{"The provider is rate limiting requests", "Wait a moment or choose another model with --alias"}
	case NotFound:
		return []string{"The provider does not know this model", "List available aliases with 'sqlagent models'"}
	case Server:
		return []string{"The provider reported an internal error", "This is not a problem with your setup; try again shortly"}
	}
	return nil
}

func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isTLSError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

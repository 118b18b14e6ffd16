package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

// Error codes reported in Result.Code.
const (
	CodeHTMLResponse        = "HTML_RESPONSE"
	CodeInvalidJSON         = "INVALID_JSON"
	CodeSessionDisconnected = "SESSION_DISCONNECTED"
	CodeMissingFields       = "MISSING_FIELDS"
	CodeRateLimited         = "RATE_LIMITED"
	CodeHTTPError           = "HTTP_ERROR"
	CodeNetworkError        = "NETWORK_ERROR"
	CodeNotSupported        = "NOT_SUPPORTED"
)

// Result is the uniform outcome of one vendor call. Vendor failures are
// values, never Go errors, so callers can log them and move on.
type Result struct {
	Success    bool   `json:"success"`
	MessageID  string `json:"message_id,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Raw        string `json:"-"`
}

// Provider sends free-text and image messages through one gateway.
type Provider interface {
	Name() string
	SendText(ctx context.Context, phone, body string) Result
	SendImage(ctx context.Context, phone, imageURL, caption string) Result
}

// TemplateSender is implemented by providers that relay Meta approved
// templates (Meta Cloud API and Z-PRO in WABA mode).
type TemplateSender interface {
	SendTemplate(ctx context.Context, phone string, tpl TemplateMessage) Result
}

// Markers found in vendor error bodies.
var (
	disconnectedMarkers = []string{
		"disconnected", "not connected", "session closed", "session_not_connected",
		"qrcode", "qr code", "not logged", "sessão desconectada", "sessao desconectada",
	}
	missingFieldMarkers = []string{
		"missing required", "required fields", "missing fields", "err_missing", "campos obrigat",
	}
)

// classify turns a raw vendor response into a Result. extractID pulls the
// vendor message id out of a successful JSON body.
func classify(statusCode int, body []byte, extractID func(any) string) Result {
	res := Result{StatusCode: statusCode, Raw: truncate(string(body), 4000)}
	trimmed := strings.TrimSpace(string(body))

	if strings.HasPrefix(trimmed, "<") {
		res.Code = CodeHTMLResponse
		res.Error = fmt.Sprintf("gateway returned HTML (status %d); check the API URL", statusCode)
		return res
	}

	var payload any
	if trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
			res.Code = CodeInvalidJSON
			res.Error = fmt.Sprintf("gateway returned a non-JSON body (status %d)", statusCode)
			return res
		}
	}

	failed := statusCode >= 400 || vendorReportedError(payload)
	if !failed {
		res.Success = true
		if extractID != nil {
			res.MessageID = extractID(payload)
		}
		return res
	}

	msg := errorMessage(payload)
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	if msg == "" {
		msg = "gateway reported a failure"
	}
	res.Error = msg

	lower := strings.ToLower(trimmed)
	switch {
	case containsAny(lower, disconnectedMarkers):
		res.Code = CodeSessionDisconnected
	case containsAny(lower, missingFieldMarkers):
		res.Code = CodeMissingFields
	case statusCode == http.StatusTooManyRequests:
		res.Code = CodeRateLimited
	default:
		res.Code = CodeHTTPError
	}
	return res
}

func networkFailure(err error) Result {
	return Result{Code: CodeNetworkError, Error: err.Error()}
}

func notSupported(provider, what string) Result {
	return Result{Code: CodeNotSupported, Error: fmt.Sprintf("%s does not support %s", provider, what)}
}

// embedded400 only matches 400 in a status position, never inside ids or
// timestamps.
var embedded400 = regexp.MustCompile(`(?i)status[ _-]*(code)?["']?\s*[:=]?\s*"?400\b|"code"\s*:\s*"?400\b|\(#400\)|\b400 bad request`)

// isEmbedded400 matches the gateway quirk where a rejected template comes
// back as a 500 that wraps the upstream 400.
func isEmbedded400(r Result) bool {
	return !r.Success && r.StatusCode == http.StatusInternalServerError && embedded400.MatchString(r.Raw)
}

func vendorReportedError(payload any) bool {
	m, ok := payload.(map[string]any)
	if !ok {
		return false
	}
	if v, ok := m["success"].(bool); ok && !v {
		return true
	}
	if v, ok := m["status"].(string); ok && strings.EqualFold(v, "error") {
		return true
	}
	switch v := m["error"].(type) {
	case bool:
		return v
	case string:
		return v != ""
	case map[string]any:
		return true
	}
	return false
}

func errorMessage(payload any) string {
	for _, path := range [][]string{
		{"error", "message"},
		{"error", "error_user_msg"},
		{"error"},
		{"message"},
		{"response", "message"},
		{"msg"},
	} {
		if s := lookupString(payload, path...); s != "" {
			return s
		}
	}
	return ""
}

// lookup walks nested JSON maps and arrays. Numeric segments index arrays.
func lookup(v any, path ...string) any {
	cur := v
	for _, seg := range path {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	return cur
}

// lookupString reads a string at path. WPPConnect style ids that arrive as
// objects are unwrapped through _serialized or id.
func lookupString(v any, path ...string) string {
	switch val := lookup(v, path...).(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]any:
		if s, ok := val["_serialized"].(string); ok {
			return s
		}
		if s, ok := val["id"].(string); ok {
			return s
		}
	}
	return ""
}

// firstString tries each dotted path in order.
func firstString(v any, paths ...string) string {
	for _, p := range paths {
		if s := lookupString(v, strings.Split(p, ".")...); s != "" {
			return s
		}
	}
	return ""
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mediafolio/mediafolio/internal/services"
	"github.com/mediafolio/mediafolio/internal/utils"
)

const (
	maxAuditBody = 2000
	// maxAuditRead caps how much of a request body is buffered for the log.
	maxAuditRead = 64 << 10
)

var sensitiveKeys = []string{"password", "token", "secret", "api_key", "apikey"}

// AuditLog records write operations (POST/PUT/DELETE) to system_logs.
// Multipart bodies are not captured; JSON bodies are stored with
// credentials masked.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		// Only audit write operations
		if method != "POST" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil && !strings.HasPrefix(c.ContentType(), "multipart/") {
			bodySnippet = captureBody(c.Request)
		}

		c.Next()

		userID := GetUserID(c)
		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)
		message := formatAuditMessage(GetUsername(c), method, c.Request.URL.Path, status)

		var uid *uint
		if userID > 0 {
			uid = &userID
		}

		extra := map[string]interface{}{
			"method": method,
			"path":   c.Request.URL.Path,
			"status": status,
			"audit":  true,
		}
		if bodySnippet != "" {
			extra["body"] = bodySnippet
		}

		if status >= 500 {
			services.LogError(module, action, message, uid, c.ClientIP(), c.Request.UserAgent(), extra)
			return
		}
		services.LogInfo(module, action, message, uid, c.ClientIP(), c.Request.UserAgent(), extra)
	}
}

type replayBody struct {
	io.Reader
	io.Closer
}

// captureBody reads at most maxAuditRead bytes of the request body and puts
// them back in front of the unread remainder so handlers still see it all.
// Bodies over the cap are not logged.
func captureBody(r *http.Request) string {
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxAuditRead+1))
	r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	if len(head) > maxAuditRead {
		return "[body too large]"
	}
	return truncateSnippet(maskSensitiveFields(head))
}

func truncateSnippet(s string) string {
	if !utils.TooLong(s, maxAuditBody) {
		return s
	}
	return utils.TruncateRunes(s, maxAuditBody) + "...[truncated]"
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// e.g. "/api/projects/:slug/like" + "POST" → module="Projects", action="Like"
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	path = strings.TrimPrefix(path, "admin/")

	parts := strings.Split(path, "/")
	module = titleWords(parts[0])
	if module == "" {
		module = "Unknown"
	}

	// A trailing literal segment names the action: /projects/:slug/publish
	if len(parts) > 1 {
		if last := parts[len(parts)-1]; last != "" && !strings.HasPrefix(last, ":") {
			return module, titleWords(last)
		}
	}

	switch method {
	case "POST":
		action = "Create"
	case "PUT":
		action = "Update"
	case "DELETE":
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

// titleWords turns "system-logs" into "System Logs".
func titleWords(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatAuditMessage creates a human-readable audit message.
func formatAuditMessage(username, method, path string, status int) string {
	if username == "" {
		username = "anonymous"
	}
	var b strings.Builder
	b.WriteString("[Audit] ")
	b.WriteString(username)
	b.WriteString(" ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)
	b.WriteString(" → ")
	if status >= 200 && status < 300 {
		b.WriteString("OK")
	} else {
		b.WriteString("Failed")
	}
	return b.String()
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// maskSensitiveFields re-encodes a JSON body with sensitive values replaced.
// Bodies that are not JSON are kept only if they mention no sensitive key.
func maskSensitiveFields(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		if isSensitiveKey(string(body)) {
			return "[redacted]"
		}
		return string(body)
	}
	out, err := json.Marshal(maskValue(v))
	if err != nil {
		return "[redacted]"
	}
	return string(out)
}

func maskValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			if isSensitiveKey(k) {
				t[k] = "***"
				continue
			}
			t[k] = maskValue(val)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = maskValue(t[i])
		}
		return t
	}
	return v
}

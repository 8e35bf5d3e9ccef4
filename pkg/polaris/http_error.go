package polaris

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/redact"
)

// errorEnvelope covers the error body shapes returned by the API: a flat
// {"code","message"} object or one nested under "error".
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// HTTPError is a sanitized summary of a non-2xx API response.
//
// Raw response bodies are never included; only a redacted, truncated snippet
// when the body is not a recognised error envelope.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	Code       string
	Message    string

	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "polaris http error"
	}
	parts := []string{
		fmt.Sprintf("polaris api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if strings.TrimSpace(e.Code) != "" {
		parts = append(parts, "code="+strings.TrimSpace(e.Code))
	}
	if strings.TrimSpace(e.Message) != "" {
		parts = append(parts, fmt.Sprintf("message=%q", redact.Secrets(e.Message)))
	}
	if strings.TrimSpace(e.Snippet) != "" {
		parts = append(parts, "body="+strings.TrimSpace(e.Snippet))
	}
	return strings.Join(parts, " ")
}

// newHTTPError summarises a non-2xx response. credential, when known, is masked
// wherever the server echoed it back.
func newHTTPError(op string, resp *http.Response, body []byte, credential string) error {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}

	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		h.Code = strings.TrimSpace(env.Code)
		h.Message = strings.TrimSpace(env.Message)
		if env.Error != nil {
			h.Code = strings.TrimSpace(env.Error.Code)
			h.Message = strings.TrimSpace(env.Error.Message)
		}
		h.Message = redact.Value(h.Message, credential)
		if h.Code != "" || h.Message != "" {
			return h
		}
	}

	h.Snippet = redactAndTruncate(body, credential)
	return h
}

// redactAndTruncate keeps at most snippetMax bytes of body, cut on a rune
// boundary, with secrets masked and newlines flattened.
func redactAndTruncate(body []byte, credential string) string {
	const snippetMax = 256
	if len(body) == 0 {
		return ""
	}
	b := body
	truncated := false
	if len(b) > snippetMax {
		b = b[:snippetMax]
		for len(b) > 0 && !utf8.Valid(b) {
			b = b[:len(b)-1]
		}
		truncated = true
	}
	s := strings.Join(strings.Fields(redact.Value(string(b), credential)), " ")
	if s == "" {
		return ""
	}
	if truncated {
		return s + "..."
	}
	return s
}

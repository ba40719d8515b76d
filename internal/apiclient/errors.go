package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoToken is returned before any network I/O when an authenticated call has no access token.
	ErrNoToken = errors.New("no access token")

	// ErrMalformedResponse wraps bodies that are not JSON or miss required fields.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrTransport wraps network-level failures (DNS, refused connection, timeouts).
	ErrTransport = errors.New("transport error")
)

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("api error: status=%d: %s", e.StatusCode, msg)
}

// ValidationError is a client-side form check failure. Nothing was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// UserMessage renders err as a short message suitable for an alert.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	var httpErr *HTTPError
	switch {
	case errors.Is(err, ErrNoToken):
		return "로그인이 필요합니다."
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.Is(err, ErrTransport):
		return "네트워크 연결을 확인해 주세요."
	case errors.Is(err, ErrMalformedResponse):
		return "서버 응답을 처리할 수 없습니다."
	case errors.As(err, &httpErr):
		if httpErr.StatusCode == http.StatusUnauthorized {
			return "세션이 만료되었습니다. 다시 로그인해 주세요."
		}
		if strings.TrimSpace(httpErr.Message) != "" {
			return httpErr.Message
		}
		return "요청을 처리하지 못했습니다."
	default:
		return "알 수 없는 오류가 발생했습니다."
	}
}

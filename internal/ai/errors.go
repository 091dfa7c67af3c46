package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAPIKeyNotConfigured is returned before any request when neither
	// the user nor the server supplies a key.
	ErrAPIKeyNotConfigured = errors.New("API key is not configured")
	// ErrEmptyResponse means the model answered with no usable text.
	ErrEmptyResponse = errors.New("AI returned an empty response")
	// ErrMalformedResponse means structured output could not be decoded.
	ErrMalformedResponse = errors.New("AI returned invalid content format")
	// ErrNoImage means an image request produced no image.
	ErrNoImage = errors.New("AI did not return an image from your prompt")
	// ErrUnsupported means the active provider lacks a capability.
	ErrUnsupported = errors.New("operation not supported by provider")
)

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}

// Category groups upstream failures into what the user is told.
type Category string

const (
	CategoryNotConfigured     Category = "not_configured"
	CategoryInvalidKey        Category = "invalid_key"
	CategoryQuotaExceeded     Category = "quota_exceeded"
	CategoryPermissionDenied  Category = "permission_denied"
	CategoryEmptyResponse     Category = "empty_response"
	CategoryMalformedResponse Category = "malformed_response"
	CategoryNotFound          Category = "not_found"
	CategoryImageGeneration   Category = "image_generation"
	CategoryUnknown           Category = "unknown"
)

// DefaultQuotaHelpURL is linked when a quota error carries no help link.
const DefaultQuotaHelpURL = "https://ai.google.dev/gemini-api/docs/rate-limits"

// Failure is the user-facing form of a generation error.
type Failure struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
	HelpURL  string   `json:"help_url,omitempty"`
}

var messages = map[Category]string{
	CategoryNotConfigured:     "API Key is not configured. Add your key in Settings.",
	CategoryInvalidKey:        "The API key is invalid. Check the key in Settings.",
	CategoryQuotaExceeded:     "API quota exceeded. Check your plan and billing details, or try again later.",
	CategoryPermissionDenied:  "The API key does not have permission for this model.",
	CategoryEmptyResponse:     "The AI returned an empty response. Please try again.",
	CategoryMalformedResponse: "The AI returned content in an unexpected format. Please try again.",
	CategoryNotFound:          "The requested model was not found for this API key. Video generation requires a key from a paid project.",
	CategoryImageGeneration:   "The AI did not return an image. Try rephrasing the prompt.",
}

// googleError is the error envelope of Google APIs.
type googleError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type  string `json:"@type"`
			Links []struct {
				URL string `json:"url"`
			} `json:"links"`
		} `json:"details"`
	} `json:"error"`
}

// Classify maps an error from this package into a Failure.
func Classify(err error) Failure {
	switch {
	case err == nil:
		return Failure{}
	case errors.Is(err, ErrAPIKeyNotConfigured):
		return failure(CategoryNotConfigured, "")
	case errors.Is(err, ErrEmptyResponse):
		return failure(CategoryEmptyResponse, "")
	case errors.Is(err, ErrMalformedResponse):
		return failure(CategoryMalformedResponse, "")
	case errors.Is(err, ErrNoImage):
		return failure(CategoryImageGeneration, "")
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if f, ok := classifyBody(apiErr.Status, apiErr.Body); ok {
			return f
		}
	}
	return classifyText(err.Error())
}

// classifyBody reads a JSON error envelope.
func classifyBody(status int, body string) (Failure, bool) {
	var ge googleError
	if err := json.Unmarshal([]byte(body), &ge); err != nil || (ge.Error.Code == 0 && ge.Error.Status == "" && ge.Error.Message == "") {
		switch status {
		case http.StatusTooManyRequests:
			return failure(CategoryQuotaExceeded, ""), true
		case http.StatusUnauthorized:
			return failure(CategoryInvalidKey, ""), true
		case http.StatusForbidden:
			return failure(CategoryPermissionDenied, ""), true
		case http.StatusNotFound:
			return failure(CategoryNotFound, ""), true
		}
		return Failure{}, false
	}

	e := ge.Error
	code := e.Code
	if code == 0 {
		code = status
	}
	lower := strings.ToLower(e.Message)

	switch {
	case code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED":
		help := DefaultQuotaHelpURL
		for _, d := range e.Details {
			if d.Type == "type.googleapis.com/google.rpc.Help" && len(d.Links) > 0 && d.Links[0].URL != "" {
				help = d.Links[0].URL
				break
			}
		}
		f := failure(CategoryQuotaExceeded, "")
		f.HelpURL = help
		return f, true
	case strings.Contains(lower, "api key not valid") || code == http.StatusUnauthorized:
		return failure(CategoryInvalidKey, ""), true
	case code == http.StatusForbidden || e.Status == "PERMISSION_DENIED" || strings.Contains(lower, "permission denied"):
		return failure(CategoryPermissionDenied, ""), true
	case strings.Contains(e.Message, "Requested entity was not found.") || code == http.StatusNotFound:
		return failure(CategoryNotFound, ""), true
	}
	if e.Message != "" {
		return Failure{Category: CategoryUnknown, Message: e.Message}, true
	}
	return Failure{}, false
}

// classifyText matches well-known fragments of an error message.
func classifyText(msg string) Failure {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key not valid"):
		return failure(CategoryInvalidKey, "")
	case strings.Contains(lower, "permission denied"):
		return failure(CategoryPermissionDenied, "")
	case strings.Contains(lower, "api key is not configured"):
		return failure(CategoryNotConfigured, "")
	case strings.Contains(lower, "quota"):
		f := failure(CategoryQuotaExceeded, "")
		f.HelpURL = DefaultQuotaHelpURL
		return f
	case strings.Contains(msg, "Requested entity was not found."):
		return failure(CategoryNotFound, "")
	}
	return Failure{Category: CategoryUnknown, Message: msg}
}

func failure(c Category, msg string) Failure {
	if msg == "" {
		msg = messages[c]
	}
	return Failure{Category: c, Message: msg}
}

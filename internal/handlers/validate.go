package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"caroumate/internal/models"
)

// Request limits.
const (
	maxJSONBody   = 16 << 20 // patches may carry data-URI visuals
	maxUploadSize = 50 << 20 // 50 MB, short video clips included
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance returns the shared validator with the domain rules
// registered.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		// Report JSON names in errors.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("font", func(fl validator.FieldLevel) bool {
			return models.FontChoice(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("design_style", func(fl validator.FieldLevel) bool {
			return models.DesignStyle(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("aspect_ratio", func(fl validator.FieldLevel) bool {
			return models.AspectRatio(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("position", func(fl validator.FieldLevel) bool {
			return models.Position(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("ai_model", func(fl validator.FieldLevel) bool {
			return models.AIModel(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("decoration", func(fl validator.FieldLevel) bool {
			var d models.TextDecoration
			return d.UnmarshalText([]byte(fl.Field().String())) == nil
		})
		// An empty visual hides the inherited one.
		_ = v.RegisterValidation("visual", func(fl validator.FieldLevel) bool {
			return validVisual(fl.Field().String())
		})

		validateInst = v
	})
	return validateInst
}

func validVisual(s string) bool {
	if s == "" || strings.HasPrefix(s, "data:image/") || strings.HasPrefix(s, "data:video/") {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validationError is a request the API refuses to process.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// validate runs struct validation and converts the first failure into a
// readable validationError.
func validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if fe.Param() != "" {
			return invalid("%s: failed %s=%s", field, fe.Tag(), fe.Param())
		}
		return invalid("%s: failed %s", field, fe.Tag())
	}
	return invalid("%v", err)
}

// readBody reads at most maxJSONBody bytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, invalid("request body too large")
		}
		return nil, invalid("read body: %v", err)
	}
	return body, nil
}

// decodeStrict decodes body into dst, rejecting unknown fields, and
// validates the result.
func decodeStrict(body []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalid("invalid JSON: %v", err)
	}
	return validate(dst)
}

// decodeJSON reads, decodes and validates a request body. An empty body
// leaves dst unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return validate(dst)
	}
	return decodeStrict(body, dst)
}

// decodePatch reads a JSON merge patch, checks it against the patch
// shape in dst and returns the raw patch.
func decodePatch(w http.ResponseWriter, r *http.Request, dst any) ([]byte, error) {
	body, err := readBody(w, r)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return nil, invalid("merge patch must be a JSON object")
	}
	if err := decodeStrict(body, dst); err != nil {
		return nil, err
	}
	return body, nil
}

// Patch shapes. Every field is optional; a JSON null clears it.

type strokePatch struct {
	Color *string  `json:"color" validate:"omitempty,hexcolor"`
	Width *float64 `json:"width" validate:"omitempty,min=0,max=20"`
}

type textStylePatch struct {
	FontWeight *string      `json:"font_weight" validate:"omitempty,oneof=normal bold"`
	FontStyle  *string      `json:"font_style" validate:"omitempty,oneof=normal italic"`
	Decoration *string      `json:"text_decoration" validate:"omitempty,decoration"`
	Align      *string      `json:"text_align" validate:"omitempty,oneof=left center right justify"`
	Transform  *string      `json:"text_transform" validate:"omitempty,oneof=none uppercase"`
	FontSize   *float64     `json:"font_size" validate:"omitempty,gt=0,max=10"`
	Stroke     *strokePatch `json:"text_stroke"`
}

type overlayPatch struct {
	Color    *string  `json:"color" validate:"omitempty,hexcolor"`
	Opacity  *float64 `json:"opacity" validate:"omitempty,min=0,max=1"`
	Position *string  `json:"position" validate:"omitempty,position"`
	FontSize *float64 `json:"font_size" validate:"omitempty,gt=0,max=10"`
}

type slideNumberPatch struct {
	Show *bool `json:"show"`
	overlayPatch
}

type slidePatch struct {
	Headline          *string         `json:"headline" validate:"omitempty,max=5000"`
	Body              *string         `json:"body" validate:"omitempty,max=5000"`
	VisualPrompt      *string         `json:"visual_prompt" validate:"omitempty,max=5000"`
	BackgroundColor   *string         `json:"background_color" validate:"omitempty,hexcolor"`
	FontColor         *string         `json:"font_color" validate:"omitempty,hexcolor"`
	BackgroundImage   *string         `json:"background_image" validate:"omitempty,visual"`
	BackgroundOpacity *float64        `json:"background_opacity" validate:"omitempty,min=0,max=1"`
	HeadlineStyle     *textStylePatch `json:"headline_style"`
	BodyStyle         *textStylePatch `json:"body_style"`
	HeadlineColor     *string         `json:"headline_color" validate:"omitempty,hexcolor"`
	BodyColor         *string         `json:"body_color" validate:"omitempty,hexcolor"`
	// The id is accepted so clients can send a whole slide back; it is
	// never changed.
	ID *string `json:"id" validate:"omitempty,uuid"`
}

type preferencesPatch struct {
	BackgroundColor   *string           `json:"background_color" validate:"omitempty,hexcolor"`
	FontColor         *string           `json:"font_color" validate:"omitempty,hexcolor"`
	BackgroundImage   *string           `json:"background_image" validate:"omitempty,visual"`
	BackgroundOpacity *float64          `json:"background_opacity" validate:"omitempty,min=0,max=1"`
	Style             *string           `json:"style" validate:"omitempty,design_style"`
	Font              *string           `json:"font" validate:"omitempty,font"`
	AspectRatio       *string           `json:"aspect_ratio" validate:"omitempty,aspect_ratio"`
	BrandingText      *string           `json:"branding_text" validate:"omitempty,max=200"`
	BrandingStyle     *overlayPatch     `json:"branding_style"`
	HeadlineStyle     *textStylePatch   `json:"headline_style"`
	BodyStyle         *textStylePatch   `json:"body_style"`
	SlideNumberStyle  *slideNumberPatch `json:"slide_number_style"`
}

// Request bodies.

type generateRequest struct {
	Topic  string `json:"topic" validate:"required,max=500"`
	Niche  string `json:"niche" validate:"max=100"`
	Slides int    `json:"slides" validate:"omitempty,min=1,max=20"`
	Magic  bool   `json:"magic"`
}

type assistRequest struct {
	Kind  string `json:"kind" validate:"required,oneof=hook cta"`
	Topic string `json:"topic" validate:"max=500"`
}

type moveRequest struct {
	Direction string `json:"direction" validate:"required,oneof=left right"`
}

type editRequest struct {
	Prompt string `json:"prompt" validate:"required,max=2000"`
}

type regenerateRequest struct {
	Part string `json:"part" validate:"required,oneof=headline body"`
}

type brandKitRequest struct {
	Colors struct {
		Primary   string `json:"primary" validate:"omitempty,hexcolor"`
		Secondary string `json:"secondary" validate:"omitempty,hexcolor"`
		Text      string `json:"text" validate:"omitempty,hexcolor"`
	} `json:"colors"`
	Fonts struct {
		Headline string `json:"headline" validate:"omitempty,font"`
		Body     string `json:"body" validate:"omitempty,font"`
	} `json:"fonts"`
	Logo          string        `json:"logo" validate:"omitempty,visual"`
	BrandingText  string        `json:"branding_text" validate:"max=200"`
	BrandingStyle *overlayPatch `json:"branding_style"`
}

type settingsRequest struct {
	AIModel      string           `json:"ai_model" validate:"omitempty,ai_model"`
	APIKey       string           `json:"api_key" validate:"max=200"`
	SystemPrompt string           `json:"system_prompt" validate:"max=5000"`
	BrandKit     *brandKitRequest `json:"brand_kit"`
}

type profileRequest struct {
	Name            string   `json:"name" validate:"max=200"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Niche           []string `json:"niche" validate:"max=10,dive,max=100"`
	Language        string   `json:"language" validate:"omitempty,bcp47_language_tag"`
	ProfileComplete bool     `json:"profile_complete"`
}

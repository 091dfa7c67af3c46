package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"caroumate/internal/models"
)

// SlideContent is the generated text of one slide.
type SlideContent struct {
	Headline     string `json:"headline"`
	Body         string `json:"body"`
	VisualPrompt string `json:"visual_prompt"`
}

// ContentRequest describes a carousel to plan.
type ContentRequest struct {
	Topic        string
	Niche        string
	Style        models.DesignStyle
	Count        int // 0 lets the model pick 5 to 7
	SystemPrompt string
}

// DesignSuggestion is a proposed theme. Colours the model got wrong are
// left empty.
type DesignSuggestion struct {
	BackgroundColor string             `json:"backgroundColor"`
	FontColor       string             `json:"fontColor"`
	Font            models.FontChoice  `json:"font"`
	Style           models.DesignStyle `json:"style"`
}

// AssistKind selects the suggestions Assist produces.
type AssistKind string

const (
	AssistHook AssistKind = "hook"
	AssistCTA  AssistKind = "cta"
)

// TextPart names the slide text RegenerateText replaces.
type TextPart string

const (
	PartHeadline TextPart = "headline"
	PartBody     TextPart = "body"
)

var slidesSchema = Array(Object(map[string]*Schema{
	"headline":      String(""),
	"body":          String(""),
	"visual_prompt": String("A descriptive prompt for an AI image generator to create a relevant visual for this slide."),
}, "headline", "body", "visual_prompt"))

var suggestionsSchema = Array(String(""))

// GenerateSlides plans the slides of a carousel.
func (r *Registry) GenerateSlides(ctx context.Context, req ContentRequest) ([]SlideContent, error) {
	count := "Generate between 5 to 7 slides."
	if req.Count > 0 {
		count = fmt.Sprintf("Generate exactly %d slides.", req.Count)
	}
	prompt := fmt.Sprintf("Create a social media carousel content plan. The main topic is %q. "+
		"The target audience or niche is %q. The desired content style is %q. %s "+
		"Each slide must have a 'headline', a 'body', and a 'visual_prompt'. "+
		"The first slide must be a very strong hook to grab attention. The last slide must be a clear call to action. "+
		"The tone should be engaging, informative, and tailored to the niche.",
		req.Topic, req.Niche, req.Style, count)

	raw, err := r.GenerateJSON(ctx, req.SystemPrompt, prompt, slidesSchema)
	if err != nil {
		return nil, err
	}

	var slides []SlideContent
	if err := json.Unmarshal(raw, &slides); err != nil {
		slog.Error("content plan is not valid JSON", "error", err, "response", truncate(string(raw), 200))
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(slides) == 0 {
		return nil, ErrEmptyResponse
	}
	return slides, nil
}

// SuggestDesign proposes colours, a font and a style for a topic.
// Unknown fonts fall back to Inter and unknown styles to Minimalist.
func (r *Registry) SuggestDesign(ctx context.Context, topic, niche string) (DesignSuggestion, error) {
	fonts := make([]string, len(models.Fonts))
	for i, f := range models.Fonts {
		fonts[i] = string(f)
	}
	styles := make([]string, len(models.DesignStyles))
	for i, s := range models.DesignStyles {
		styles[i] = string(s)
	}

	prompt := fmt.Sprintf("Based on the carousel topic %q and niche %q, suggest a design theme. "+
		"Provide a primary background color (hex code), a primary text color (hex code), a suitable font, and a design style. "+
		"The font must be one of: %s. The style must be one of: %s.",
		topic, niche, strings.Join(fonts, ", "), strings.Join(styles, ", "))

	schema := Object(map[string]*Schema{
		"backgroundColor": String("A hex color code (e.g., #FFFFFF)"),
		"fontColor":       String("A hex color code (e.g., #111827)"),
		"font":            Enum(fonts...),
		"style":           Enum(styles...),
	}, "backgroundColor", "fontColor", "font", "style")

	raw, err := r.GenerateJSON(ctx, "", prompt, schema)
	if err != nil {
		return DesignSuggestion{}, err
	}

	var s DesignSuggestion
	if err := json.Unmarshal(raw, &s); err != nil {
		return DesignSuggestion{}, fmt.Errorf("%w: design suggestion: %v", ErrMalformedResponse, err)
	}
	if !s.Font.Valid() {
		slog.Warn("AI suggested an unknown font", "font", s.Font)
		s.Font = models.FontInter
	}
	if !s.Style.Valid() {
		slog.Warn("AI suggested an unknown style", "style", s.Style)
		s.Style = models.StyleMinimalist
	}
	s.BackgroundColor = hexOrEmpty(s.BackgroundColor)
	s.FontColor = hexOrEmpty(s.FontColor)
	return s, nil
}

// Assist returns five hook or call-to-action ideas.
func (r *Registry) Assist(ctx context.Context, topic string, kind AssistKind, systemPrompt string) ([]string, error) {
	var prompt string
	switch kind {
	case AssistHook:
		prompt = fmt.Sprintf("Generate 5 short, catchy, and scroll-stopping hook ideas for a social media carousel about %q.", topic)
	case AssistCTA:
		prompt = fmt.Sprintf("Generate 5 clear and compelling call-to-action (CTA) ideas for the final slide of a social media carousel about %q.", topic)
	default:
		return nil, fmt.Errorf("ai: unknown assist kind %q", kind)
	}

	raw, err := r.GenerateJSON(ctx, systemPrompt, prompt, suggestionsSchema)
	if err != nil {
		return nil, err
	}
	var ideas []string
	if err := json.Unmarshal(raw, &ideas); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(ideas) == 0 {
		return nil, ErrEmptyResponse
	}
	return ideas, nil
}

// Caption writes a post caption for the slides, followed by a blank line
// and three hashtags.
func (r *Registry) Caption(ctx context.Context, slides []models.SlideData, systemPrompt string) (string, error) {
	lines := make([]string, len(slides))
	for i, s := range slides {
		lines[i] = fmt.Sprintf("Slide %d: Headline: %s, Body: %s", i+1, s.Headline, s.Body)
	}
	prompt := "You are an expert social media manager. Based on the following carousel content, write an engaging and compelling caption " +
		"for a social media post (like Instagram or LinkedIn). The caption should summarize the key points and encourage engagement " +
		"(e.g., asking a question). After the main caption, add a blank line, and then provide exactly 3 relevant, viral hashtags on a new line." +
		"\n\nCarousel Content:\n" + strings.Join(lines, "\n")

	return r.text(ctx, systemPrompt, prompt)
}

// Thread converts the slides into a numbered social media thread.
func (r *Registry) Thread(ctx context.Context, slides []models.SlideData, systemPrompt string) (string, error) {
	blocks := make([]string, len(slides))
	for i, s := range slides {
		blocks[i] = fmt.Sprintf("Slide %d:\nHeadline: %s\nBody: %s", i+1, s.Headline, s.Body)
	}
	prompt := "You are an expert social media manager. Convert the following carousel content into a single, cohesive social media thread " +
		"(like for Threads or X). Your response must be a single block of text. Use emojis to add personality. " +
		"Combine related ideas smoothly and add natural transitions between posts. " +
		"Each post in the thread should be clearly numbered (e.g., 1/5, 2/5). Start with a strong hook that makes people want to read more." +
		"\n\nCarousel Content to Convert:\n" + strings.Join(blocks, "\n\n")

	return r.text(ctx, systemPrompt, prompt)
}

// RegenerateText writes a new version of one part of a slide.
func (r *Registry) RegenerateText(ctx context.Context, topic string, slide models.SlideData, part TextPart) (string, error) {
	if part != PartHeadline && part != PartBody {
		return "", fmt.Errorf("ai: unknown slide part %q", part)
	}
	prompt := fmt.Sprintf("The overall carousel topic is %q. For a specific slide with the current headline %q and body %q, "+
		"I need you to regenerate ONLY the %s. Provide a new, improved, and concise version of just that part. Return only the new text.",
		topic, slide.Headline, slide.Body, part)

	text, err := r.text(ctx, "", prompt)
	if err != nil {
		return "", err
	}
	return Unquote(text), nil
}

func (r *Registry) text(ctx context.Context, systemPrompt, prompt string) (string, error) {
	text, err := r.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Unquote trims whitespace and one leading and one trailing double quote.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

func hexOrEmpty(s string) string {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return strings.ToUpper(c.Hex())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

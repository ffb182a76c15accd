package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AthlureSolutions/sitelure/internal/content"
)

var (
	// ErrService means the generation service could not produce a response.
	ErrService = errors.New("generation service failed")
	// ErrUnparseable means the response was not a JSON document.
	ErrUnparseable = errors.New("generated content is not valid JSON")
)

// DefaultTemperature is used when no temperature is configured.
const DefaultTemperature = 0.3

// Request is one prompt sent to the generation service.
type Request struct {
	System      string
	User        string
	Temperature float64
}

// Completer sends a prompt to a text generation service and returns its raw text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Input is the brand information content is generated from.
type Input struct {
	BusinessName  string
	BusinessEmail string
	Description   string

	ContactEmail string
	Phone        string
	Address      string

	LogoURL        string
	PrimaryColor   string
	SecondaryColor string

	Facebook  string
	Twitter   string
	Instagram string
	LinkedIn  string

	SEOTitle       string
	SEODescription string
	SEOKeywords    string
}

// Generator turns brand input into a validated content tree.
// It performs no disk writes and keeps no state between calls.
type Generator struct {
	completer   Completer
	temperature float64
	schema      content.Field
	logger      *slog.Logger
}

// New creates a generator. A negative temperature selects DefaultTemperature.
func New(completer Completer, temperature float64, logger *slog.Logger) *Generator {
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		completer:   completer,
		temperature: temperature,
		schema:      content.SiteSchema(),
		logger:      logger,
	}
}

// Generate asks the service for content, parses and validates it. Errors wrap
// ErrService or ErrUnparseable, or are a *content.ValidationError.
func (g *Generator) Generate(ctx context.Context, in Input) (*content.Tree, error) {
	req, err := BuildRequest(in, g.temperature)
	if err != nil {
		return nil, err
	}

	text, err := g.completer.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrService, err)
	}

	doc, err := Parse(text)
	if err != nil {
		g.logger.Warn("Generated content could not be parsed", "business", in.BusinessName, "bytes", len(text))
		return nil, err
	}

	res := content.Validate(doc, g.schema)
	if !res.Valid {
		g.logger.Warn("Generated content failed validation",
			"business", in.BusinessName,
			"violations", len(res.Violations))
		return nil, res.Err()
	}

	tree, err := content.Decode(doc)
	if err != nil {
		return nil, err
	}

	Overlay(tree, in)
	return tree, nil
}

// Parse strips optional Markdown code fences and decodes the JSON document.
func Parse(text string) (any, error) {
	clean := stripFences(text)
	if clean == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnparseable)
	}
	var doc any
	if err := json.Unmarshal([]byte(clean), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return doc, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	nl := strings.IndexByte(s, '\n')
	if nl == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[nl+1:]
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// Overlay writes brand facts the caller supplied over the generated copy.
// Arrays with fixed cardinality are never touched.
func Overlay(tree *content.Tree, in Input) {
	site := &tree.Site
	if name := strings.TrimSpace(in.BusinessName); name != "" {
		site.Name = name
		site.Footer.BusinessInfo.Name = name
	}
	if in.LogoURL != "" {
		site.Logo = &content.Logo{Src: in.LogoURL, Alt: site.Name + " logo"}
	}
	if in.PrimaryColor != "" {
		site.Branding.Theme.Colors.Primary.Default = in.PrimaryColor
	}
	if in.SecondaryColor != "" {
		site.Branding.Theme.Colors.Secondary.Default = in.SecondaryColor
	}

	info := &site.Footer.BusinessInfo
	if in.ContactEmail != "" {
		info.Email = in.ContactEmail
	}
	if in.Phone != "" {
		info.Phone = in.Phone
	}
	if in.Address != "" {
		info.Address = in.Address
	}

	if links := in.socialLinks(); len(links) > 0 {
		site.Footer.SocialLinks = links
	}
}

func (in Input) socialLinks() []content.SocialLink {
	var out []content.SocialLink
	for _, p := range []struct{ platform, url string }{
		{"facebook", in.Facebook},
		{"twitter", in.Twitter},
		{"instagram", in.Instagram},
		{"linkedin", in.LinkedIn},
	} {
		if strings.TrimSpace(p.url) == "" {
			continue
		}
		out = append(out, content.SocialLink{Platform: p.platform, URL: p.url, Icon: p.platform})
	}
	return out
}

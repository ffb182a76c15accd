package generator

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/AthlureSolutions/sitelure/internal/content"
)

//go:embed prompt.tmpl
var promptText string

const systemPrompt = "You are a marketing copywriter. You answer only with JSON documents that match the requested shape exactly."

var promptTmpl = template.Must(template.New("prompt").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(promptText))

type promptData struct {
	Input              Input
	Social             []content.SocialLink
	Example            string
	Icons              []string
	FormFieldTypes     []string
	StoryTitle         string
	MinStoryLength     int
	ServiceCount       int
	FeaturesPerService int
	ValueCount         int
}

// BuildRequest renders the generation prompt for in.
func BuildRequest(in Input, temperature float64) (Request, error) {
	example, err := content.Marshal(content.Example())
	if err != nil {
		return Request{}, err
	}

	var b strings.Builder
	err = promptTmpl.Execute(&b, promptData{
		Input:              in,
		Social:             in.socialLinks(),
		Example:            strings.TrimSpace(string(example)),
		Icons:              content.Icons,
		FormFieldTypes:     content.FormFieldTypes,
		StoryTitle:         content.StoryTitle,
		MinStoryLength:     content.MinStoryLength,
		ServiceCount:       content.ServiceCount,
		FeaturesPerService: content.FeaturesPerService,
		ValueCount:         content.ValueCount,
	})
	if err != nil {
		return Request{}, fmt.Errorf("render prompt: %w", err)
	}

	return Request{
		System:      systemPrompt,
		User:        b.String(),
		Temperature: temperature,
	}, nil
}

package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/AthlureSolutions/sitelure/internal/content"
)

type fakeCompleter struct {
	text  string
	err   error
	calls int
	last  Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req Request) (string, error) {
	f.calls++
	f.last = req
	return f.text, f.err
}

func exampleJSON(t *testing.T, mutate func(tree *content.Tree)) string {
	t.Helper()
	tree := content.Example()
	if mutate != nil {
		mutate(tree)
	}
	data, err := content.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func acmeInput() Input {
	return Input{
		BusinessName:   "Acme Gym",
		ContactEmail:   "a@acme.test",
		Phone:          "555-0100",
		LogoURL:        "/uploads/logo-1.png",
		PrimaryColor:   "#FF0000",
		SecondaryColor: "#00FF00",
		Instagram:      "https://instagram.com/acmegym",
	}
}

func TestGenerate_Success(t *testing.T) {
	fc := &fakeCompleter{text: exampleJSON(t, nil)}
	g := New(fc, 0.3, nil)

	tree, err := g.Generate(context.Background(), acmeInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if fc.calls != 1 {
		t.Errorf("expected 1 call, got %d", fc.calls)
	}
	if fc.last.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", fc.last.Temperature)
	}
	if !strings.Contains(fc.last.User, "Acme Gym") {
		t.Error("prompt should embed the business name")
	}
	if !strings.Contains(fc.last.User, `"Our Story"`) {
		t.Error("prompt should embed the target shape")
	}

	if tree.Site.Name != "Acme Gym" {
		t.Errorf("expected site name overlay, got %q", tree.Site.Name)
	}
	if tree.Site.Logo == nil || tree.Site.Logo.Src != "/uploads/logo-1.png" {
		t.Errorf("expected logo overlay, got %+v", tree.Site.Logo)
	}
	if tree.Site.Footer.BusinessInfo.Email != "a@acme.test" {
		t.Errorf("expected contact email overlay, got %q", tree.Site.Footer.BusinessInfo.Email)
	}
	if tree.Site.Branding.Theme.Colors.Primary.Default != "#FF0000" {
		t.Errorf("expected primary colour overlay")
	}
	if len(tree.Site.Footer.SocialLinks) != 1 || tree.Site.Footer.SocialLinks[0].Platform != "instagram" {
		t.Errorf("expected one instagram link, got %+v", tree.Site.Footer.SocialLinks)
	}
	if got := len(tree.Pages.Home.Services.Items); got != content.ServiceCount {
		t.Errorf("services changed by overlay: %d", got)
	}
}

func TestGenerate_FencedResponse(t *testing.T) {
	fc := &fakeCompleter{text: "```json\n" + exampleJSON(t, nil) + "\n```"}
	if _, err := New(fc, 0.3, nil).Generate(context.Background(), acmeInput()); err != nil {
		t.Fatalf("expected fenced JSON to parse, got %v", err)
	}
}

func TestGenerate_ServiceFailure(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("connection refused")}
	_, err := New(fc, 0.3, nil).Generate(context.Background(), acmeInput())
	if !errors.Is(err, ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("cause should be kept: %v", err)
	}
}

func TestGenerate_Unparseable(t *testing.T) {
	for _, text := range []string{"", "Sure! Here is your website.", "{\"site\": "} {
		fc := &fakeCompleter{text: text}
		_, err := New(fc, 0.3, nil).Generate(context.Background(), acmeInput())
		if !errors.Is(err, ErrUnparseable) {
			t.Errorf("text %q: expected ErrUnparseable, got %v", text, err)
		}
		var ve *content.ValidationError
		if errors.As(err, &ve) {
			t.Errorf("text %q: unparseable must not be a validation error", text)
		}
	}
}

func TestGenerate_ValidationFailure(t *testing.T) {
	fc := &fakeCompleter{text: exampleJSON(t, func(tree *content.Tree) {
		tree.Pages.Home.Services.Items = tree.Pages.Home.Services.Items[:2]
	})}

	_, err := New(fc, 0.3, nil).Generate(context.Background(), acmeInput())
	var ve *content.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *content.ValidationError, got %v", err)
	}
	found := false
	for _, v := range ve.Violations {
		if v.Path == "pages.home.services.items" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected services cardinality violation, got %v", ve.Violations)
	}
	if errors.Is(err, ErrUnparseable) || errors.Is(err, ErrService) {
		t.Error("validation failure must be distinct from other generation failures")
	}
}

func TestBuildRequest_ExamplePassesValidator(t *testing.T) {
	req, err := BuildRequest(acmeInput(), DefaultTemperature)
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}

	start := strings.Index(req.User, "{\n")
	if start < 0 {
		t.Fatal("prompt does not contain the example document")
	}
	var doc any
	if err := json.Unmarshal([]byte(req.User[start:]), &doc); err != nil {
		t.Fatalf("embedded example is not JSON: %v", err)
	}
	if res := content.Validate(doc, content.SiteSchema()); !res.Valid {
		t.Fatalf("embedded example fails validation: %v", res.Violations)
	}
	for _, want := range []string{"https://instagram.com/acmegym", "555-0100", "rocket, shield, star, heart, chart, users"} {
		if !strings.Contains(req.User, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestNew_DefaultTemperature(t *testing.T) {
	fc := &fakeCompleter{text: exampleJSON(t, nil)}
	if _, err := New(fc, -1, nil).Generate(context.Background(), acmeInput()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if fc.last.Temperature != DefaultTemperature {
		t.Errorf("expected default temperature, got %v", fc.last.Temperature)
	}
}

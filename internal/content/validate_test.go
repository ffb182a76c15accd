package content

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// exampleDoc returns Example() as a generic document, the shape the
// generator hands to Validate after parsing model output.
func exampleDoc(t *testing.T) map[string]any {
	t.Helper()
	raw, err := json.Marshal(Example())
	if err != nil {
		t.Fatalf("marshal example: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal example: %v", err)
	}
	return doc
}

// dig walks string keys through objects and int keys through arrays.
func dig(t *testing.T, doc any, keys ...any) any {
	t.Helper()
	cur := doc
	for _, k := range keys {
		switch key := k.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				t.Fatalf("expected object at %v", key)
			}
			cur = m[key]
		case int:
			s, ok := cur.([]any)
			if !ok {
				t.Fatalf("expected array at %d", key)
			}
			cur = s[key]
		}
	}
	return cur
}

func node(t *testing.T, doc any, keys ...any) map[string]any {
	t.Helper()
	m, ok := dig(t, doc, keys...).(map[string]any)
	if !ok {
		t.Fatalf("not an object at %v", keys)
	}
	return m
}

func hasViolation(res Result, path, contains string) bool {
	for _, v := range res.Violations {
		if v.Path == path && strings.Contains(v.Message, contains) {
			return true
		}
	}
	return false
}

func TestValidate_ExamplePasses(t *testing.T) {
	res := Validate(exampleDoc(t), SiteSchema())
	if !res.Valid {
		t.Fatalf("expected example to pass, got violations: %v", res.Violations)
	}
	if res.Err() != nil {
		t.Fatalf("expected nil error for valid result")
	}
}

func TestValidate_EmptyRequiredScalarNamesField(t *testing.T) {
	cases := []struct {
		path string
		keys []any
		key  string
	}{
		{"site.name", []any{"site"}, "name"},
		{"pages.home.hero.headline", []any{"pages", "home", "hero"}, "headline"},
		{"pages.about.mission.title", []any{"pages", "about", "mission"}, "title"},
		{"pages.home.services.items[2].heroImage", []any{"pages", "home", "services", "items", 2}, "heroImage"},
		{"pages.contact.locations[0].hours", []any{"pages", "contact", "locations", 0}, "hours"},
		{"site.footer.businessInfo.email", []any{"site", "footer", "businessInfo"}, "email"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			doc := exampleDoc(t)
			node(t, doc, tc.keys...)[tc.key] = ""

			res := Validate(doc, SiteSchema())
			if res.Valid {
				t.Fatal("expected validation to fail")
			}
			if !hasViolation(res, tc.path, "is required") {
				t.Errorf("expected violation for %s, got %v", tc.path, res.Violations)
			}
		})
	}
}

func TestValidate_MissingKey(t *testing.T) {
	doc := exampleDoc(t)
	delete(node(t, doc, "pages", "about"), "mission")

	res := Validate(doc, SiteSchema())
	if !hasViolation(res, "pages.about.mission", "is required") {
		t.Errorf("expected missing mission violation, got %v", res.Violations)
	}
}

func TestValidate_WhitespaceOnlyIsMissing(t *testing.T) {
	doc := exampleDoc(t)
	node(t, doc, "site")["description"] = "   \t"

	res := Validate(doc, SiteSchema())
	if !hasViolation(res, "site.description", "is required") {
		t.Errorf("expected whitespace-only description to be rejected, got %v", res.Violations)
	}
}

func TestValidate_ServiceCardinality(t *testing.T) {
	for _, n := range []int{0, 2, 4} {
		doc := exampleDoc(t)
		services := node(t, doc, "pages", "home", "services")
		items := services["items"].([]any)
		switch {
		case n < len(items):
			services["items"] = items[:n]
		case n > len(items):
			extra := map[string]any{}
			for k, v := range items[0].(map[string]any) {
				extra[k] = v
			}
			extra["id"] = "extra-service"
			services["items"] = append(items, extra)
		}

		res := Validate(doc, SiteSchema())
		if res.Valid {
			t.Fatalf("expected %d services to fail", n)
		}
		if !hasViolation(res, "pages.home.services.items", "exactly 3 items") {
			t.Errorf("n=%d: expected cardinality violation, got %v", n, res.Violations)
		}
	}
}

func TestValidate_FeaturesPerService(t *testing.T) {
	doc := exampleDoc(t)
	svc := node(t, doc, "pages", "home", "services", "items", 1)
	features := svc["features"].([]any)
	svc["features"] = append(features, features[0])

	res := Validate(doc, SiteSchema())
	if !hasViolation(res, "pages.home.services.items[1].features", "exactly 3 items, got 4") {
		t.Errorf("expected features cardinality violation, got %v", res.Violations)
	}
}

func TestValidate_ValuesAndStatsCardinality(t *testing.T) {
	doc := exampleDoc(t)
	values := node(t, doc, "pages", "about", "values")
	values["items"] = values["items"].([]any)[:2]
	stats := node(t, doc, "pages", "about", "stats")
	stats["items"] = []any{}

	res := Validate(doc, SiteSchema())
	if !hasViolation(res, "pages.about.values.items", "exactly 3 items, got 2") {
		t.Errorf("expected values violation, got %v", res.Violations)
	}
	if !hasViolation(res, "pages.about.stats.items", "exactly 3 items, got 0") {
		t.Errorf("expected stats violation, got %v", res.Violations)
	}
}

func TestValidate_InvalidIconNamesValue(t *testing.T) {
	doc := exampleDoc(t)
	node(t, doc, "pages", "about", "values", "items", 0)["icon"] = "dragon"

	res := Validate(doc, SiteSchema())
	if !hasViolation(res, "pages.about.values.items[0].icon", `"dragon"`) {
		t.Errorf("expected icon violation naming the value, got %v", res.Violations)
	}
}

func TestValidate_StoryRules(t *testing.T) {
	doc := exampleDoc(t)
	story := node(t, doc, "pages", "about", "story")
	story["title"] = "Our History"
	story["content"] = "Too short."

	res := Validate(doc, SiteSchema())
	if !hasViolation(res, "pages.about.story.title", `must be "Our Story"`) {
		t.Errorf("expected literal title violation, got %v", res.Violations)
	}
	if !hasViolation(res, "pages.about.story.content", "at least 100 characters") {
		t.Errorf("expected min length violation, got %v", res.Violations)
	}
}

func TestValidate_DuplicateServiceID(t *testing.T) {
	doc := exampleDoc(t)
	node(t, doc, "pages", "home", "services", "items", 2)["id"] = "personal-training"

	res := Validate(doc, SiteSchema())
	if !hasViolation(res, "pages.home.services.items[2].id", "duplicate value") {
		t.Errorf("expected duplicate id violation, got %v", res.Violations)
	}
}

func TestValidate_FormFieldTypeAndLocations(t *testing.T) {
	doc := exampleDoc(t)
	node(t, doc, "pages", "contact", "form", "fields", 2)["type"] = "select"
	node(t, doc, "pages", "contact")["locations"] = []any{}

	res := Validate(doc, SiteSchema())
	if !hasViolation(res, "pages.contact.form.fields[2].type", `"select"`) {
		t.Errorf("expected form field type violation, got %v", res.Violations)
	}
	if !hasViolation(res, "pages.contact.locations", "at least 1 items") {
		t.Errorf("expected locations violation, got %v", res.Violations)
	}
}

func TestValidate_MalformedInputIsAFailureResult(t *testing.T) {
	cases := map[string]any{
		"nil":    nil,
		"string": "not a document",
		"array":  []any{1, 2, 3},
		"number": 42.0,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			res := Validate(doc, SiteSchema())
			if res.Valid || len(res.Violations) != 1 {
				t.Fatalf("expected exactly one root violation, got %v", res.Violations)
			}
		})
	}

	doc := exampleDoc(t)
	node(t, doc, "pages", "home")["services"] = "three services"
	res := Validate(doc, SiteSchema())
	if !hasViolation(res, "pages.home.services", "must be an object, got string") {
		t.Errorf("expected type violation, got %v", res.Violations)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	doc := exampleDoc(t)
	node(t, doc, "site")["name"] = ""
	node(t, doc, "pages", "about", "values", "items", 1)["icon"] = "unicorn"

	first := Validate(doc, SiteSchema())
	second := Validate(doc, SiteSchema())
	if first.Valid != second.Valid || !reflect.DeepEqual(first.Violations, second.Violations) {
		t.Fatalf("validation not idempotent:\n%v\n%v", first.Violations, second.Violations)
	}
	if len(first.Violations) != 2 {
		t.Errorf("expected 2 violations, got %v", first.Violations)
	}
}

func TestValidateJSON_Unparseable(t *testing.T) {
	res := ValidateJSON([]byte("{not json"), SiteSchema())
	if res.Valid {
		t.Fatal("expected unparseable input to fail")
	}
	if !strings.Contains(res.Violations[0].Message, "not valid JSON") {
		t.Errorf("unexpected message: %s", res.Violations[0].Message)
	}
}

func TestValidationError_ListsViolations(t *testing.T) {
	doc := exampleDoc(t)
	node(t, doc, "site")["name"] = ""

	err := Validate(doc, SiteSchema()).Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "site.name: is required") {
		t.Errorf("error should list violation, got %q", err.Error())
	}
}

func TestRoundTrip_DataFile(t *testing.T) {
	doc := exampleDoc(t)
	if res := Validate(doc, SiteSchema()); !res.Valid {
		t.Fatalf("example invalid: %v", res.Violations)
	}
	tree, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	data, err := Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"site\": {") {
		t.Errorf("expected two-space indentation, got:\n%s", data[:40])
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(tree, back) {
		t.Fatal("tree changed across data file round trip")
	}
	if !reflect.DeepEqual(Example(), back) {
		t.Fatal("decoded tree differs from the original example")
	}
}

func TestRoundTrip_OmittedFooterListsWrittenAsEmpty(t *testing.T) {
	doc := exampleDoc(t)
	footer := node(t, doc, "site", "footer")
	delete(footer, "socialLinks")
	delete(footer, "quickLinks")
	if res := Validate(doc, SiteSchema()); !res.Valid {
		t.Fatalf("footer lists are optional, got %v", res.Violations)
	}

	tree, err := Decode(doc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tree.Site.Footer.SocialLinks == nil || tree.Site.Footer.QuickLinks == nil {
		t.Fatal("Decode left footer lists nil")
	}

	bare := Example()
	bare.Site.Footer.SocialLinks = nil
	bare.Site.Footer.QuickLinks = nil
	data, err := Marshal(bare)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("data file contains null:\n%s", data)
	}
	if !strings.Contains(string(data), `"socialLinks": []`) || !strings.Contains(string(data), `"quickLinks": []`) {
		t.Errorf("expected empty footer lists in data file:\n%s", data)
	}
	if bare.Site.Footer.QuickLinks != nil {
		t.Error("Marshal mutated its argument")
	}
}

func TestDecode_WrongTypeInUnconstrainedField(t *testing.T) {
	doc := exampleDoc(t)
	node(t, doc, "pages", "contact", "form", "fields", 0)["required"] = "yes"

	_, err := Decode(doc)
	if err == nil {
		t.Fatal("expected decode error")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

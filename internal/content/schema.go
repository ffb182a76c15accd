package content

// Kind tags a schema node with the JSON type it must hold.
type Kind int

const (
	KindString Kind = iota
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Field is one node of a declarative schema. Which constraints apply depends
// on Kind; constraints that do not apply to the node's kind are ignored.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool

	// string constraints
	Enum      []string
	Literal   string
	MinLength int

	// object constraints
	Fields []Field

	// array constraints. ExactLen > 0 wins over MinItems. A required array
	// with neither set must be non-empty.
	ExactLen int
	MinItems int
	UniqueBy string
	Elem     *Field
}

// Icons is the closed set of icon names the templates ship with.
var Icons = []string{"rocket", "shield", "star", "heart", "chart", "users"}

// FormFieldTypes are the input types the contact form renderer supports.
var FormFieldTypes = []string{"text", "email", "textarea"}

// StoryTitle is the literal heading the about page layout expects.
const StoryTitle = "Our Story"

// MinStoryLength is the minimum number of characters in the about story.
const MinStoryLength = 100

// Cardinalities fixed by the template layouts.
const (
	ServiceCount         = 3
	FeaturesPerService   = 3
	ValueCount           = 3
	StatCount            = 3
	MinContactLocations  = 1
	MinNavigationEntries = 1
)

func str(name string) Field { return Field{Name: name, Kind: KindString} }

func optStr(name string) Field { return Field{Name: name, Kind: KindString, Optional: true} }

func icon(name string) Field { return Field{Name: name, Kind: KindString, Enum: Icons} }

func obj(name string, fields ...Field) Field {
	return Field{Name: name, Kind: KindObject, Fields: fields}
}

func optObj(name string, fields ...Field) Field {
	return Field{Name: name, Kind: KindObject, Optional: true, Fields: fields}
}

func arr(name string, elem Field) Field {
	return Field{Name: name, Kind: KindArray, Elem: &elem}
}

func exact(n int, f Field) Field {
	f.ExactLen = n
	return f
}

func atLeast(n int, f Field) Field {
	f.MinItems = n
	return f
}

func optional(f Field) Field {
	f.Optional = true
	return f
}

func uniqueBy(key string, f Field) Field {
	f.UniqueBy = key
	return f
}

func link(name string) Field { return obj(name, str("text"), str("href")) }

func colorSet(name string) Field { return obj(name, str("default"), str("light"), str("dark")) }

func hero() Field {
	return obj("hero",
		str("headline"),
		str("subheadline"),
		optStr("backgroundImage"),
		obj("cta", link("primary"), optional(link("secondary"))),
	)
}

func feature() Field { return obj("", str("title"), str("description"), icon("icon")) }

// SiteSchema returns the schema every generated Content Tree must satisfy.
// A fresh value is returned so callers may not mutate a shared schema.
func SiteSchema() Field {
	site := obj("site",
		str("name"),
		str("description"),
		optObj("logo", str("src"), str("alt")),
		obj("branding",
			obj("theme",
				obj("colors",
					colorSet("primary"),
					colorSet("secondary"),
					colorSet("accent"),
					colorSet("action"),
				),
			),
			obj("typography", str("heading"), str("body")),
		),
		obj("navigation", atLeast(MinNavigationEntries, arr("links", link("")))),
		obj("footer",
			obj("businessInfo", str("name"), optStr("address"), optStr("phone"), str("email")),
			optional(arr("socialLinks", obj("", str("platform"), str("url"), optStr("icon")))),
			optional(arr("quickLinks", link(""))),
		),
	)

	service := obj("",
		str("id"),
		str("title"),
		str("shortDescription"),
		icon("icon"),
		str("heroImage"),
		exact(FeaturesPerService, arr("features", feature())),
		obj("quote", str("text"), str("author"), optStr("role")),
	)

	home := obj("home",
		hero(),
		obj("quote", str("text"), str("author"), optStr("role")),
		obj("features", str("title"), str("subtitle"), arr("items", feature())),
		obj("services",
			str("title"),
			str("subtitle"),
			str("learnMoreText"),
			str("ctaText"),
			str("ctaLink"),
			uniqueBy("id", exact(ServiceCount, arr("items", service))),
		),
	)

	about := obj("about",
		hero(),
		obj("mission", str("title"), str("description")),
		obj("story",
			Field{Name: "title", Kind: KindString, Literal: StoryTitle},
			Field{Name: "content", Kind: KindString, MinLength: MinStoryLength},
			str("image"),
			str("imageAlt"),
		),
		obj("values", str("title"), str("subtitle"),
			exact(ValueCount, arr("items", obj("", str("title"), str("description"), icon("icon"))))),
		obj("stats", str("title"), str("subtitle"),
			exact(StatCount, arr("items", obj("", str("value"), str("label"))))),
	)

	contact := obj("contact",
		hero(),
		obj("form",
			str("title"),
			arr("fields", obj("",
				str("name"),
				str("label"),
				Field{Name: "type", Kind: KindString, Enum: FormFieldTypes},
			)),
			optStr("submitText"),
		),
		atLeast(MinContactLocations, arr("locations", obj("",
			str("name"), str("address"), str("phone"), str("email"), str("hours"),
		))),
	)

	return obj("", site, obj("pages", home, about, contact))
}

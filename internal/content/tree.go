package content

// Tree is the website copy written to the template's data file.
// The JSON field names are the template's contract and must not change.
type Tree struct {
	Site  SiteConfig `json:"site"`
	Pages Pages      `json:"pages"`
}

// SiteConfig holds identity, theming and navigation shared by every page
type SiteConfig struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Logo        *Logo      `json:"logo,omitempty"`
	Branding    Branding   `json:"branding"`
	Navigation  Navigation `json:"navigation"`
	Footer      Footer     `json:"footer"`
}

type Logo struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type Branding struct {
	Theme      Theme      `json:"theme"`
	Typography Typography `json:"typography"`
}

type Theme struct {
	Colors ThemeColors `json:"colors"`
}

type ThemeColors struct {
	Primary   ColorSet `json:"primary"`
	Secondary ColorSet `json:"secondary"`
	Accent    ColorSet `json:"accent"`
	Action    ColorSet `json:"action"`
}

type ColorSet struct {
	Default string `json:"default"`
	Light   string `json:"light"`
	Dark    string `json:"dark"`
}

type Typography struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

type Navigation struct {
	Links []Link `json:"links"`
}

type BusinessInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
}

type Footer struct {
	BusinessInfo BusinessInfo `json:"businessInfo"`
	SocialLinks  []SocialLink `json:"socialLinks"`
	QuickLinks   []Link       `json:"quickLinks"`
}

// normalize replaces absent optional lists with empty ones so the data file
// always carries arrays the template can iterate.
func (t *Tree) normalize() {
	if t.Site.Footer.SocialLinks == nil {
		t.Site.Footer.SocialLinks = []SocialLink{}
	}
	if t.Site.Footer.QuickLinks == nil {
		t.Site.Footer.QuickLinks = []Link{}
	}
}

// Pages holds the per-page sections. Service detail pages are derived by the
// template from Home.Services.Items, keyed by service id.
type Pages struct {
	Home    HomePage    `json:"home"`
	About   AboutPage   `json:"about"`
	Contact ContactPage `json:"contact"`
}

type CTA struct {
	Primary   Link  `json:"primary"`
	Secondary *Link `json:"secondary,omitempty"`
}

type Hero struct {
	Headline        string `json:"headline"`
	Subheadline     string `json:"subheadline"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	CTA             CTA    `json:"cta"`
}

type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Role   string `json:"role,omitempty"`
}

type Feature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type FeaturesSection struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Items    []Feature `json:"items"`
}

type Service struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"shortDescription"`
	Icon             string    `json:"icon"`
	HeroImage        string    `json:"heroImage"`
	Features         []Feature `json:"features"`
	Quote            Quote     `json:"quote"`
}

type ServicesSection struct {
	Title         string    `json:"title"`
	Subtitle      string    `json:"subtitle"`
	LearnMoreText string    `json:"learnMoreText"`
	CTAText       string    `json:"ctaText"`
	CTALink       string    `json:"ctaLink"`
	Items         []Service `json:"items"`
}

type HomePage struct {
	Hero     Hero            `json:"hero"`
	Quote    Quote           `json:"quote"`
	Features FeaturesSection `json:"features"`
	Services ServicesSection `json:"services"`
}

type Mission struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Story struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Image    string `json:"image"`
	ImageAlt string `json:"imageAlt"`
}

type Value struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type ValuesSection struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle"`
	Items    []Value `json:"items"`
}

type Stat struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type StatsSection struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Items    []Stat `json:"items"`
}

type AboutPage struct {
	Hero    Hero          `json:"hero"`
	Mission Mission       `json:"mission"`
	Story   Story         `json:"story"`
	Values  ValuesSection `json:"values"`
	Stats   StatsSection  `json:"stats"`
}

type FormField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

type ContactForm struct {
	Title      string      `json:"title"`
	Fields     []FormField `json:"fields"`
	SubmitText string      `json:"submitText,omitempty"`
}

type Location struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Hours   string `json:"hours"`
}

type ContactPage struct {
	Hero      Hero        `json:"hero"`
	Form      ContactForm `json:"form"`
	Locations []Location  `json:"locations"`
}

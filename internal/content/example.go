package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Example returns a complete tree that satisfies SiteSchema. The generator
// shows it to the model as the exact target shape.
func Example() *Tree {
	feature := func(title, desc, icon string) Feature {
		return Feature{Title: title, Description: desc, Icon: icon}
	}
	hero := func(headline, sub string) Hero {
		return Hero{
			Headline:    headline,
			Subheadline: sub,
			CTA:         CTA{Primary: Link{Text: "Get in touch", Href: "/contact"}},
		}
	}

	return &Tree{
		Site: SiteConfig{
			Name:        "Northwind Fitness",
			Description: "Strength and conditioning coaching for every level.",
			Branding: Branding{
				Theme: Theme{Colors: ThemeColors{
					Primary:   ColorSet{Default: "#3B82F6", Light: "#93C5FD", Dark: "#1D4ED8"},
					Secondary: ColorSet{Default: "#1E40AF", Light: "#3B82F6", Dark: "#1E3A8A"},
					Accent:    ColorSet{Default: "#F59E0B", Light: "#FCD34D", Dark: "#B45309"},
					Action:    ColorSet{Default: "#10B981", Light: "#6EE7B7", Dark: "#047857"},
				}},
				Typography: Typography{Heading: "Montserrat", Body: "Open Sans"},
			},
			Navigation: Navigation{Links: []Link{
				{Text: "Home", Href: "/"},
				{Text: "About", Href: "/about"},
				{Text: "Services", Href: "/services"},
				{Text: "Contact", Href: "/contact"},
			}},
			Footer: Footer{
				BusinessInfo: BusinessInfo{
					Name:    "Northwind Fitness",
					Address: "12 Harbour Road, Portsmouth",
					Phone:   "+44 20 7946 0000",
					Email:   "hello@northwind.example",
				},
				SocialLinks: []SocialLink{},
				QuickLinks: []Link{
					{Text: "Services", Href: "/services"},
					{Text: "Contact", Href: "/contact"},
				},
			},
		},
		Pages: Pages{
			Home: HomePage{
				Hero:  hero("Get stronger, one session at a time", "Coaching built around your goals and your schedule."),
				Quote: Quote{Text: "Consistency beats intensity.", Author: "Head Coach"},
				Features: FeaturesSection{
					Title:    "Why train with us",
					Subtitle: "Everything you need to make progress.",
					Items: []Feature{
						feature("Expert coaches", "Certified coaches who plan every block.", "users"),
						feature("Proven programs", "Programs tested with hundreds of members.", "chart"),
						feature("Safe training", "Technique first, load second.", "shield"),
					},
				},
				Services: ServicesSection{
					Title:         "Our services",
					Subtitle:      "Pick the format that suits you.",
					LearnMoreText: "Learn more",
					CTAText:       "Book a session",
					CTALink:       "/contact",
					Items: []Service{
						{
							ID: "personal-training", Title: "Personal training", ShortDescription: "One-to-one coaching.",
							Icon: "star", HeroImage: "/images/personal.jpg",
							Features: []Feature{
								feature("Tailored plan", "A plan written for you.", "rocket"),
								feature("Form checks", "Every lift reviewed.", "shield"),
								feature("Progress tracking", "Monthly assessments.", "chart"),
							},
							Quote: Quote{Text: "I doubled my deadlift in a year.", Author: "Sam"},
						},
						{
							ID: "small-group", Title: "Small group", ShortDescription: "Train with up to six people.",
							Icon: "users", HeroImage: "/images/group.jpg",
							Features: []Feature{
								feature("Shared energy", "Motivation from the group.", "heart"),
								feature("Coached sessions", "A coach in every class.", "star"),
								feature("Flexible times", "Morning and evening slots.", "rocket"),
							},
							Quote: Quote{Text: "The group keeps me coming back.", Author: "Priya"},
						},
						{
							ID: "online-coaching", Title: "Online coaching", ShortDescription: "Coaching wherever you train.",
							Icon: "rocket", HeroImage: "/images/online.jpg",
							Features: []Feature{
								feature("App programming", "Sessions delivered weekly.", "chart"),
								feature("Video feedback", "Send clips, get notes.", "star"),
								feature("Weekly check-ins", "Stay accountable.", "heart"),
							},
							Quote: Quote{Text: "Great results while travelling.", Author: "Leo"},
						},
					},
				},
			},
			About: AboutPage{
				Hero:    hero("About Northwind", "A coaching team that cares about the long run."),
				Mission: Mission{Title: "Our mission", Description: "Make strength training approachable for everyone."},
				Story: Story{
					Title: StoryTitle,
					Content: "Northwind started in a single garage with two coaches and a handful of members. " +
						"Ten years later we still coach every member personally, and we still believe that " +
						"steady, well-planned training changes lives.",
					Image:    "/images/story.jpg",
					ImageAlt: "Coaches in the original garage gym",
				},
				Values: ValuesSection{
					Title:    "What we value",
					Subtitle: "The principles behind every session.",
					Items: []Value{
						{Title: "Safety", Description: "Technique before load.", Icon: "shield"},
						{Title: "Community", Description: "Nobody trains alone.", Icon: "heart"},
						{Title: "Progress", Description: "Measured, steady improvement.", Icon: "chart"},
					},
				},
				Stats: StatsSection{
					Title:    "By the numbers",
					Subtitle: "A decade of coaching.",
					Items: []Stat{
						{Value: "10+", Label: "Years coaching"},
						{Value: "800", Label: "Members trained"},
						{Value: "12", Label: "Certified coaches"},
					},
				},
			},
			Contact: ContactPage{
				Hero: hero("Contact us", "We usually reply within a day."),
				Form: ContactForm{
					Title: "Send us a message",
					Fields: []FormField{
						{Name: "name", Label: "Name", Type: "text", Required: true},
						{Name: "email", Label: "Email", Type: "email", Required: true},
						{Name: "message", Label: "Message", Type: "textarea", Required: true},
					},
					SubmitText: "Send",
				},
				Locations: []Location{{
					Name:    "Portsmouth studio",
					Address: "12 Harbour Road, Portsmouth",
					Phone:   "+44 20 7946 0000",
					Email:   "hello@northwind.example",
					Hours:   "Mon-Fri 6:00-21:00, Sat 8:00-14:00",
				}},
			},
		},
	}
}

// Marshal renders a tree the way it is written to the data file: two-space
// indentation, trailing newline, no HTML escaping.
func Marshal(t *Tree) ([]byte, error) {
	out := *t
	out.normalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("encode content tree: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a data file back into a tree.
func Unmarshal(data []byte) (*Tree, error) {
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode content tree: %w", err)
	}
	return &t, nil
}

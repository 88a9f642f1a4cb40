package templates

// DefaultName is the template used when the caller does not pick one.
const DefaultName = "gemini"

// geminiConfig is the house style: blue palette, Calibri.
var geminiConfig = &Config{
	Name: "gemini",
	Colors: Colors{
		Primary:           "1F4E79",
		SectionBackground: "2E74B5",
		Border:            "9CC3E5",
		PeriodText:        "595959",
		BodyText:          "262626",
		White:             "FFFFFF",
	},
	Fonts: Fonts{
		Main: "Calibri",
		Sizes: FontSizes{
			Title:      20,
			Subtitle:   12,
			Section:    13,
			Subsection: 11,
			Body:       10,
			Footer:     8,
		},
	},
	Spacing: Spacing{
		Paragraph:  120,
		Section:    200,
		Subsection: 80,
		Bullet:     40,
		Competence: 60,
	},
	Margins: Margins{
		Top:    720,
		Right:  850,
		Bottom: 720,
		Left:   850,
	},
	Logo:   Logo{Width: 120, Height: 48},
	Footer: Footer{Line1: "Bobby Conseil — 12 rue de la République, 69002 Lyon", Line2: "contact@bobby-conseil.fr — www.bobby-conseil.fr"},
}

// slateConfig is the alternate style: graphite palette, Georgia.
var slateConfig = &Config{
	Name: "slate",
	Colors: Colors{
		Primary:           "37474F",
		SectionBackground: "455A64",
		Border:            "B0BEC5",
		PeriodText:        "78909C",
		BodyText:          "212121",
		White:             "FFFFFF",
	},
	Fonts: Fonts{
		Main: "Georgia",
		Sizes: FontSizes{
			Title:      22,
			Subtitle:   13,
			Section:    14,
			Subsection: 12,
			Body:       10,
			Footer:     8,
		},
	},
	Spacing: Spacing{
		Paragraph:  140,
		Section:    240,
		Subsection: 100,
		Bullet:     60,
		Competence: 80,
	},
	Margins: Margins{
		Top:    850,
		Right:  1000,
		Bottom: 850,
		Left:   1000,
	},
	Logo:   Logo{Width: 100, Height: 40},
	Footer: Footer{Line1: "Bobby Conseil — 12 rue de la République, 69002 Lyon", Line2: "contact@bobby-conseil.fr — www.bobby-conseil.fr"},
}

// Builtin returns a registry populated with the built-in templates.
func Builtin() *Registry {
	r := NewRegistry()
	for _, cfg := range []*Config{geminiConfig, slateConfig} {
		if err := r.Register(cfg); err != nil {
			// Built-in configs are constants; a registration failure is a
			// programming error.
			panic(err)
		}
	}
	return r
}

// Package templates provides the declarative template configurations consumed
// by the rendering engine, and the registry used to select one per
// transformation. Configs are pure data: colors, fonts, spacing, margins,
// logo dimensions and footer text.
package templates

import "github.com/go-playground/validator/v10"

// Colors holds the palette applied across all visual primitives. Values are
// RGB hex without the leading '#', as used in OOXML markup.
type Colors struct {
	Primary           string `validate:"required,hexadecimal,len=6"`
	SectionBackground string `validate:"required,hexadecimal,len=6"`
	Border            string `validate:"required,hexadecimal,len=6"`
	PeriodText        string `validate:"required,hexadecimal,len=6"`
	BodyText          string `validate:"required,hexadecimal,len=6"`
	White             string `validate:"required,hexadecimal,len=6"`
}

// FontSizes holds font sizes in points, keyed by role.
type FontSizes struct {
	Title      int `validate:"required,gt=0"`
	Subtitle   int `validate:"required,gt=0"`
	Section    int `validate:"required,gt=0"`
	Subsection int `validate:"required,gt=0"`
	Body       int `validate:"required,gt=0"`
	Footer     int `validate:"required,gt=0"`
}

// Fonts names the main font family and its role-keyed sizes.
type Fonts struct {
	Main  string    `validate:"required"`
	Sizes FontSizes `validate:"required"`
}

// Spacing holds vertical gaps in twentieths of a point (the OOXML spacing
// unit), keyed by the element they follow.
type Spacing struct {
	Paragraph  int `validate:"gte=0"`
	Section    int `validate:"gte=0"`
	Subsection int `validate:"gte=0"`
	Bullet     int `validate:"gte=0"`
	Competence int `validate:"gte=0"`
}

// Margins holds page margins in twips.
type Margins struct {
	Top    int `validate:"gt=0"`
	Right  int `validate:"gt=0"`
	Bottom int `validate:"gt=0"`
	Left   int `validate:"gt=0"`
}

// Logo holds the target dimensions, in pixels, for the embedded logo image.
type Logo struct {
	Width  int `validate:"gt=0"`
	Height int `validate:"gt=0"`
}

// Footer holds the two lines of static running footer text.
type Footer struct {
	Line1 string `validate:"required"`
	Line2 string `validate:"required"`
}

// Config is a named, immutable bundle of presentation parameters. Name is
// also used as the suffix of generated filenames.
type Config struct {
	Name    string `validate:"required,lowercase"`
	Colors  Colors
	Fonts   Fonts
	Spacing Spacing
	Margins Margins
	Logo    Logo
	Footer  Footer
}

// Validate validates the Config using the validator.
func (c *Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

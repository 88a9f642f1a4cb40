// Package types provides type definitions for structured data used throughout the cv-transformer system.
package types

// Section IDs that trigger special pagination rules in the rendering engine.
const (
	SectionExperiences    = "experiences"
	SectionCertifications = "certifications"
)

// Header is the banner block at the top of every generated document.
type Header struct {
	Title             string `json:"title"`
	ExperienceSummary string `json:"experienceSummary"`
}

// Section is one ordered block of a CV document. ID is a stable key; the
// "experiences" and "certifications" IDs change pagination (see rendering).
type Section struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Content []ContentNode `json:"content"`
}

// CVDocument is the validated in-memory representation of a parsed CV.
// Instances are only produced by the schemas package; the rendering engine
// accepts no other input type.
type CVDocument struct {
	Header   Header    `json:"header"`
	Sections []Section `json:"sections"`
}

// ContentNode is one element of the recursive content tree. The variant set
// is closed: only the types in this package implement it, and the validator
// rejects any discriminator outside the set.
type ContentNode interface {
	// NodeType returns the JSON discriminator for the variant.
	NodeType() string
}

// Subsection is a nested heading with its own recursive content.
type Subsection struct {
	Title   string        `json:"title"`
	Content []ContentNode `json:"content"`
}

// Competence is a single "Category : values" line.
type Competence struct {
	Category string `json:"category"`
	Values   string `json:"values"`
}

// Bullet is a marked list item. Level is 0, 1 or 2; the marker glyph and
// indentation vary per level.
type Bullet struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Text is a plain paragraph, optionally bold.
type Text struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Diploma is a two-line block: bold "date - title", then the institution.
type Diploma struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Institution string `json:"institution"`
}

// Experience is a compound block: client/period header, underlined italic
// title, optional description, recursive content and an optional trailing
// environment line.
type Experience struct {
	Client      string        `json:"client"`
	Period      string        `json:"period"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Content     []ContentNode `json:"content"`
	Environment string        `json:"environment,omitempty"`
}

// NodeType implementations. These double as the JSON discriminator values
// accepted by the validator.

func (Subsection) NodeType() string { return "subsection" }
func (Competence) NodeType() string { return "competence" }
func (Bullet) NodeType() string     { return "bullet" }
func (Text) NodeType() string       { return "text" }
func (Diploma) NodeType() string    { return "diploma" }
func (Experience) NodeType() string { return "experience" }

// CountNodes returns the total number of content nodes in the document,
// including nodes nested inside subsections and experiences.
func (d *CVDocument) CountNodes() int {
	total := 0
	for _, s := range d.Sections {
		total += countNodes(s.Content)
	}
	return total
}

func countNodes(nodes []ContentNode) int {
	total := 0
	for _, n := range nodes {
		total++
		switch v := n.(type) {
		case Subsection:
			total += countNodes(v.Content)
		case Experience:
			total += countNodes(v.Content)
		}
	}
	return total
}

package rendering

import (
	"fmt"
	"strings"

	"github.com/bobbyapp/cv-transformer/internal/templates"
	"github.com/bobbyapp/cv-transformer/internal/types"
)

// Indentation step per bullet nesting level, in twips.
const bulletIndentStep = 283

// bulletMarkers maps nesting level to its marker glyph.
var bulletMarkers = [3]string{"•", "◦", "▪"}

// Render produces the DOCX bytes for a validated document using the given
// template configuration. logo holds PNG bytes for the header image; pass
// nil to render without one (a missing logo asset is never an error).
// Rendering is all-or-nothing: on error no bytes are returned.
func Render(doc *types.CVDocument, cfg *templates.Config, logo []byte) ([]byte, error) {
	if doc == nil {
		return nil, &RenderError{Message: "document is nil"}
	}
	if cfg == nil {
		return nil, &RenderError{Message: "template config is nil"}
	}

	r := &renderer{cfg: cfg, hasLogo: logo != nil}

	r.writeHeader(doc.Header)
	for _, section := range doc.Sections {
		if err := r.writeSection(section); err != nil {
			return nil, err
		}
	}

	pkg := &docxPackage{
		body:   r.body.String(),
		footer: footerXML(cfg),
		styles: stylesXML(cfg),
		logo:   logo,
		cfg:    cfg,
	}
	return pkg.bytes()
}

// renderer accumulates body paragraphs during the tree walk.
type renderer struct {
	cfg     *templates.Config
	body    strings.Builder
	hasLogo bool
}

func (r *renderer) emit(paragraphs ...string) {
	for _, p := range paragraphs {
		r.body.WriteString(p)
	}
}

// writeHeader emits the centered banner: optional floating logo, bold title
// in the section background color, then the italic experience summary.
func (r *renderer) writeHeader(h types.Header) {
	sizes := r.cfg.Fonts.Sizes

	titleRuns := make([]string, 0, 2)
	if r.hasLogo {
		titleRuns = append(titleRuns, anchoredImage(relLogo, r.cfg.Logo.Width, r.cfg.Logo.Height))
	}
	titleRuns = append(titleRuns, textRun(runProps{
		Bold:   true,
		Color:  r.cfg.Colors.SectionBackground,
		SizePt: sizes.Title,
	}, h.Title))

	r.emit(para(paraProps{Align: "center", SpacingAfter: r.cfg.Spacing.Paragraph}, titleRuns...))
	r.emit(para(
		paraProps{Align: "center", SpacingAfter: r.cfg.Spacing.Section},
		textRun(runProps{Italic: true, Color: r.cfg.Colors.Primary, SizePt: sizes.Subtitle}, h.ExperienceSummary),
	))
}

// writeSection emits the shaded banner then walks the section content. The
// "experiences" section gets a page break after every experience entry
// except the last; the "certifications" section gets one trailing break.
func (r *renderer) writeSection(s types.Section) error {
	r.emit(para(
		paraProps{
			Align:        "center",
			SpacingAfter: r.cfg.Spacing.Section,
			ShadingFill:  r.cfg.Colors.SectionBackground,
		},
		textRun(runProps{Bold: true, Color: r.cfg.Colors.White, SizePt: r.cfg.Fonts.Sizes.Section}, s.Title),
	))

	lastExperience := -1
	if s.ID == types.SectionExperiences {
		for i, node := range s.Content {
			if _, ok := node.(types.Experience); ok {
				lastExperience = i
			}
		}
	}

	for i, node := range s.Content {
		if err := r.writeNode(node); err != nil {
			return err
		}
		if _, ok := node.(types.Experience); ok && s.ID == types.SectionExperiences && i != lastExperience {
			r.emit(pageBreak)
		}
	}

	if s.ID == types.SectionCertifications {
		r.emit(pageBreak)
	}
	return nil
}

// writeNode dispatches on the content variant. Subsections and experiences
// recurse through the same dispatch, so nesting depth is unbounded. The
// default branch is unreachable for validated input.
func (r *renderer) writeNode(node types.ContentNode) error {
	switch n := node.(type) {
	case types.Subsection:
		return r.writeSubsection(n)
	case types.Competence:
		r.writeCompetenceLine(n.Category, n.Values)
		return nil
	case types.Bullet:
		r.writeBullet(n)
		return nil
	case types.Text:
		r.emit(para(
			paraProps{SpacingAfter: r.cfg.Spacing.Paragraph},
			textRun(runProps{Bold: n.Bold}, n.Text),
		))
		return nil
	case types.Diploma:
		r.writeDiploma(n)
		return nil
	case types.Experience:
		return r.writeExperience(n)
	default:
		return &RenderError{Message: fmt.Sprintf("unsupported content node %T", node)}
	}
}

func (r *renderer) writeSubsection(n types.Subsection) error {
	r.emit(para(
		paraProps{SpacingAfter: r.cfg.Spacing.Subsection},
		textRun(runProps{
			Bold:      true,
			Underline: true,
			Color:     r.cfg.Colors.Primary,
			SizePt:    r.cfg.Fonts.Sizes.Subsection,
		}, n.Title),
	))
	for _, child := range n.Content {
		if err := r.writeNode(child); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) writeCompetenceLine(category, values string) {
	r.emit(para(
		paraProps{SpacingAfter: r.cfg.Spacing.Competence},
		textRun(runProps{Bold: true}, category+" : "),
		textRun(runProps{}, values),
	))
}

func (r *renderer) writeBullet(n types.Bullet) {
	level := n.Level
	if level < 0 || level >= len(bulletMarkers) {
		// The validator caps levels at 2; clamp rather than drop if it was
		// somehow bypassed.
		level = len(bulletMarkers) - 1
	}
	r.emit(para(
		paraProps{
			SpacingAfter: r.cfg.Spacing.Bullet,
			IndentLeft:   bulletIndentStep * (level + 1),
		},
		textRun(runProps{}, bulletMarkers[level]+"  "+n.Text),
	))
}

func (r *renderer) writeDiploma(n types.Diploma) {
	r.emit(para(
		paraProps{SpacingAfter: 0},
		textRun(runProps{Bold: true}, n.Date+" - "+n.Title),
	))
	r.emit(para(
		paraProps{SpacingAfter: r.cfg.Spacing.Paragraph},
		textRun(runProps{}, n.Institution),
	))
}

func (r *renderer) writeExperience(n types.Experience) error {
	// Header line: client, separator, period.
	r.emit(para(
		paraProps{SpacingAfter: r.cfg.Spacing.Subsection},
		textRun(runProps{Bold: true, Color: r.cfg.Colors.Primary, SizePt: r.cfg.Fonts.Sizes.Subsection}, n.Client),
		textRun(runProps{Color: r.cfg.Colors.Border}, "  |  "),
		textRun(runProps{Color: r.cfg.Colors.PeriodText}, n.Period),
	))

	// Underlined italic title line.
	r.emit(para(
		paraProps{SpacingAfter: r.cfg.Spacing.Subsection},
		textRun(runProps{Italic: true, Underline: true, SizePt: r.cfg.Fonts.Sizes.Subsection}, n.Title),
	))

	if n.Description != "" {
		r.emit(para(
			paraProps{SpacingAfter: r.cfg.Spacing.Paragraph},
			textRun(runProps{}, n.Description),
		))
	}

	for _, child := range n.Content {
		if err := r.writeNode(child); err != nil {
			return err
		}
	}

	if n.Environment != "" {
		r.writeCompetenceLine("Environnement", n.Environment)
	}
	return nil
}

package rendering

import (
	"fmt"
	"strings"
)

// Low-level WordprocessingML builders. Everything here works in OOXML native
// units: font sizes in half-points, spacing and indents in twips, image
// extents in EMU.

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// runProps describes character formatting for a single run.
type runProps struct {
	Bold      bool
	Italic    bool
	Underline bool
	Color     string // RGB hex, no '#'
	SizePt    int    // points; 0 means inherit the document default
}

func (p runProps) xml() string {
	var sb strings.Builder
	if p.Bold {
		sb.WriteString(`<w:b/>`)
	}
	if p.Italic {
		sb.WriteString(`<w:i/>`)
	}
	if p.Underline {
		sb.WriteString(`<w:u w:val="single"/>`)
	}
	if p.Color != "" {
		fmt.Fprintf(&sb, `<w:color w:val="%s"/>`, p.Color)
	}
	if p.SizePt > 0 {
		fmt.Fprintf(&sb, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, p.SizePt*2, p.SizePt*2)
	}
	if sb.Len() == 0 {
		return ""
	}
	return "<w:rPr>" + sb.String() + "</w:rPr>"
}

// textRun builds a single run holding text.
func textRun(props runProps, text string) string {
	return fmt.Sprintf(`<w:r>%s<w:t xml:space="preserve">%s</w:t></w:r>`,
		props.xml(), escapeXML(text))
}

// paraProps describes paragraph-level formatting.
type paraProps struct {
	Align        string // "center", "left"... empty means default
	SpacingAfter int    // twips; -1 means no spacing element
	IndentLeft   int    // twips; 0 means none
	ShadingFill  string // RGB hex, solid fill; empty means none
}

func (p paraProps) xml() string {
	var sb strings.Builder
	if p.ShadingFill != "" {
		fmt.Fprintf(&sb, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, p.ShadingFill)
	}
	if p.SpacingAfter >= 0 {
		fmt.Fprintf(&sb, `<w:spacing w:after="%d"/>`, p.SpacingAfter)
	}
	if p.IndentLeft > 0 {
		fmt.Fprintf(&sb, `<w:ind w:left="%d"/>`, p.IndentLeft)
	}
	if p.Align != "" {
		fmt.Fprintf(&sb, `<w:jc w:val="%s"/>`, p.Align)
	}
	if sb.Len() == 0 {
		return ""
	}
	return "<w:pPr>" + sb.String() + "</w:pPr>"
}

// para builds a paragraph from pre-built runs.
func para(props paraProps, runs ...string) string {
	return "<w:p>" + props.xml() + strings.Join(runs, "") + "</w:p>"
}

// pageBreak is an explicit page break paragraph.
const pageBreak = `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`

// emuPerPixel converts CSS-style pixels (96 dpi) to English Metric Units.
const emuPerPixel = 9525

// anchoredImage builds a floating picture anchored top-left of the paragraph
// with square text wrapping, referencing relationship relID.
func anchoredImage(relID string, widthPx, heightPx int) string {
	cx := widthPx * emuPerPixel
	cy := heightPx * emuPerPixel
	return fmt.Sprintf(`<w:r><w:rPr><w:noProof/></w:rPr><w:drawing>`+
		`<wp:anchor distT="0" distB="0" distL="114300" distR="114300" simplePos="0" relativeHeight="1" behindDoc="0" locked="0" layoutInCell="1" allowOverlap="1">`+
		`<wp:simplePos x="0" y="0"/>`+
		`<wp:positionH relativeFrom="margin"><wp:align>left</wp:align></wp:positionH>`+
		`<wp:positionV relativeFrom="paragraph"><wp:posOffset>0</wp:posOffset></wp:positionV>`+
		`<wp:extent cx="%d" cy="%d"/>`+
		`<wp:effectExtent l="0" t="0" r="0" b="0"/>`+
		`<wp:wrapSquare wrapText="bothSides"/>`+
		`<wp:docPr id="1" name="Logo"/>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic>`+
		`<pic:nvPicPr><pic:cNvPr id="1" name="Logo"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic>`+
		`</wp:anchor></w:drawing></w:r>`,
		cx, cy, relID, cx, cy)
}

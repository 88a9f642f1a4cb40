package rendering

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/bobbyapp/cv-transformer/internal/templates"
)

// Relationship IDs inside word/_rels/document.xml.rels.
const (
	relStyles = "rId1"
	relFooter = "rId2"
	relLogo   = "rId3"
)

// A4 page size in twips.
const (
	pageWidth  = 11906
	pageHeight = 16838
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// docxPackage holds the parts of one OOXML package before serialization.
type docxPackage struct {
	body   string // document body paragraphs, without sectPr
	footer string
	styles string
	logo   []byte // nil when no logo is embedded
	cfg    *templates.Config
}

// bytes serializes the package into a DOCX archive. Parts are written in a
// fixed order with zeroed timestamps so identical inputs produce identical
// bytes.
func (p *docxPackage) bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(p.contentTypes())},
		{"_rels/.rels", []byte(packageRels)},
		{"word/document.xml", []byte(p.document())},
		{"word/_rels/document.xml.rels", []byte(p.documentRels())},
		{"word/styles.xml", []byte(p.styles)},
		{"word/footer1.xml", []byte(p.footer)},
	}
	if p.logo != nil {
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/media/image1.png", p.logo})
	}

	for _, part := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   part.name,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, &RenderError{Message: fmt.Sprintf("failed to create archive entry %s", part.name), Cause: err}
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, &RenderError{Message: fmt.Sprintf("failed to write archive entry %s", part.name), Cause: err}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, &RenderError{Message: "failed to finalize archive", Cause: err}
	}
	return buf.Bytes(), nil
}

func (p *docxPackage) contentTypes() string {
	png := ""
	if p.logo != nil {
		png = `<Default Extension="png" ContentType="image/png"/>`
	}
	return xmlHeader +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>` +
		png +
		`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
		`<Override PartName="/word/footer1.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"/>` +
		`</Types>`
}

const packageRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`</Relationships>`

func (p *docxPackage) documentRels() string {
	logoRel := ""
	if p.logo != nil {
		logoRel = fmt.Sprintf(`<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>`, relLogo)
	}
	return xmlHeader +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		fmt.Sprintf(`<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`, relStyles) +
		fmt.Sprintf(`<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer" Target="footer1.xml"/>`, relFooter) +
		logoRel +
		`</Relationships>`
}

// document wraps the body paragraphs with the document element and the
// section properties carrying page size, margins and the running footer.
func (p *docxPackage) document() string {
	m := p.cfg.Margins
	sectPr := fmt.Sprintf(`<w:sectPr>`+
		`<w:footerReference w:type="default" r:id="%s"/>`+
		`<w:pgSz w:w="%d" w:h="%d"/>`+
		`<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="708" w:footer="708" w:gutter="0"/>`+
		`</w:sectPr>`,
		relFooter, pageWidth, pageHeight, m.Top, m.Right, m.Bottom, m.Left)

	return xmlHeader +
		`<w:document` +
		` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
		`<w:body>` + p.body + sectPr + `</w:body></w:document>`
}

// stylesXML sets the document defaults: main font, body size and body color.
func stylesXML(cfg *templates.Config) string {
	return xmlHeader +
		`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:docDefaults><w:rPrDefault><w:rPr>` +
		fmt.Sprintf(`<w:rFonts w:ascii="%s" w:hAnsi="%s" w:cs="%s"/>`,
			escapeXML(cfg.Fonts.Main), escapeXML(cfg.Fonts.Main), escapeXML(cfg.Fonts.Main)) +
		fmt.Sprintf(`<w:color w:val="%s"/>`, cfg.Colors.BodyText) +
		fmt.Sprintf(`<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, cfg.Fonts.Sizes.Body*2, cfg.Fonts.Sizes.Body*2) +
		`</w:rPr></w:rPrDefault><w:pPrDefault/></w:docDefaults>` +
		`</w:styles>`
}

// footerXML builds the running footer: two centered lines in the section
// background color.
func footerXML(cfg *templates.Config) string {
	line := func(text string) string {
		return para(
			paraProps{Align: "center", SpacingAfter: 0},
			textRun(runProps{Color: cfg.Colors.SectionBackground, SizePt: cfg.Fonts.Sizes.Footer}, text),
		)
	}
	return xmlHeader +
		`<w:ftr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		line(cfg.Footer.Line1) +
		line(cfg.Footer.Line2) +
		`</w:ftr>`
}

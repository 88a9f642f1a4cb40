package schemas

import (
	"fmt"

	"github.com/bobbyapp/cv-transformer/internal/types"
)

// decodeDocument converts a schema-validated payload into the typed document
// tree. The payload has already passed the structural gate, so failures here
// indicate a schema/decoder mismatch rather than bad input.
func decodeDocument(payload any) (*types.CVDocument, error) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document is not an object")
	}

	header, ok := obj["header"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("header is not an object")
	}

	rawSections, ok := obj["sections"].([]any)
	if !ok {
		return nil, fmt.Errorf("sections is not an array")
	}

	doc := &types.CVDocument{
		Header: types.Header{
			Title:             stringField(header, "title"),
			ExperienceSummary: stringField(header, "experienceSummary"),
		},
		Sections: make([]types.Section, 0, len(rawSections)),
	}

	for i, raw := range rawSections {
		sec, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("sections.%d is not an object", i)
		}
		content, err := decodeNodes(sec["content"])
		if err != nil {
			return nil, fmt.Errorf("sections.%d: %w", i, err)
		}
		doc.Sections = append(doc.Sections, types.Section{
			ID:      stringField(sec, "id"),
			Title:   stringField(sec, "title"),
			Content: content,
		})
	}

	return doc, nil
}

// decodeNodes converts a content array, recursing through subsections and
// experiences. The returned slice is non-nil even when empty.
func decodeNodes(raw any) ([]types.ContentNode, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("content is not an array")
	}
	nodes := make([]types.ContentNode, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("content.%d is not an object", i)
		}
		node, err := decodeNode(obj)
		if err != nil {
			return nil, fmt.Errorf("content.%d: %w", i, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func decodeNode(obj map[string]any) (types.ContentNode, error) {
	discriminator := stringField(obj, "type")
	switch discriminator {
	case "subsection":
		content, err := decodeNodes(obj["content"])
		if err != nil {
			return nil, err
		}
		return types.Subsection{
			Title:   stringField(obj, "title"),
			Content: content,
		}, nil
	case "competence":
		return types.Competence{
			Category: stringField(obj, "category"),
			Values:   stringField(obj, "values"),
		}, nil
	case "bullet":
		level, ok := obj["level"].(float64)
		if !ok {
			return nil, fmt.Errorf("bullet level is not a number")
		}
		return types.Bullet{
			Text:  stringField(obj, "text"),
			Level: int(level),
		}, nil
	case "text":
		bold, _ := obj["bold"].(bool)
		return types.Text{
			Text: stringField(obj, "text"),
			Bold: bold,
		}, nil
	case "diploma":
		return types.Diploma{
			Date:        stringField(obj, "date"),
			Title:       stringField(obj, "title"),
			Institution: stringField(obj, "institution"),
		}, nil
	case "experience":
		content, err := decodeNodes(obj["content"])
		if err != nil {
			return nil, err
		}
		return types.Experience{
			Client:      stringField(obj, "client"),
			Period:      stringField(obj, "period"),
			Title:       stringField(obj, "title"),
			Description: stringField(obj, "description"),
			Content:     content,
			Environment: stringField(obj, "environment"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown content node type %q", discriminator)
	}
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

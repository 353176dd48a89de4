package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// convertedDocument mirrors the converter's JSON artifact: an ordered list of
// text-bearing elements, or a single root-level text blob.
type convertedDocument struct {
	Texts []struct {
		Text string `json:"text"`
	} `json:"texts"`
	Text string `json:"text"`
}

// Reconstruct flattens a converter artifact into one text blob by joining
// the text-bearing elements with paragraph separators.
func Reconstruct(raw []byte) (string, error) {
	// Some artifacts are a bare JSON string containing the full text.
	var direct string
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	var doc convertedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("decode converted document: %w", err)
	}

	if len(doc.Texts) == 0 {
		return doc.Text, nil
	}

	var sb strings.Builder
	for _, element := range doc.Texts {
		sb.WriteString(strings.TrimSpace(element.Text))
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

// ReconstructFile reads and flattens the artifact at path.
func ReconstructFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read artifact %s: %w", path, err)
	}
	return Reconstruct(raw)
}

package music

import (
	"encoding/json"
	"strings"
	"unicode"
)

// objectReplacement marks an embed (image, formula...) in plain-text blobs.
const objectReplacement = "\uFFFC"

type deltaDoc struct {
	Ops []struct {
		Insert json.RawMessage `json:"insert"`
	} `json:"ops"`
}

// AnnotationEmpty reports whether blob has no plain text once embeds are
// removed. Rich-text delta documents ({"ops": [...]}) count string inserts
// only; anything else is read as plain text.
func AnnotationEmpty(blob string) bool {
	trimmed := strings.TrimSpace(blob)
	if strings.HasPrefix(trimmed, "{") {
		var doc deltaDoc
		if err := json.Unmarshal([]byte(trimmed), &doc); err == nil {
			for _, op := range doc.Ops {
				var text string
				if json.Unmarshal(op.Insert, &text) != nil {
					continue
				}
				if !blank(text) {
					return false
				}
			}
			return true
		}
	}
	return blank(trimmed)
}

func blank(s string) bool {
	s = strings.ReplaceAll(s, objectReplacement, "")
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// Package frontmatter implements the text record format used for persisted
// articles: a metadata block of "key: value" lines between "---" delimiter
// lines, followed by the body verbatim.
package frontmatter

import (
	"fmt"
	"strings"
)

const delimiter = "---"

// Field is a single metadata line. Order is preserved so hand-edited files
// with keys we do not know about survive a round trip.
type Field struct {
	Key   string
	Value string
}

// Record is a decoded frontmatter file. Body is everything after the closing
// delimiter line, byte for byte.
type Record struct {
	Fields []Field
	Body   string
}

// Get returns the value of the first field with the given key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Decode parses raw file content. Lines inside the metadata block that do not
// look like "key: value" are ignored rather than treated as errors, so a
// hand-edited file does not become unreadable over a stray line.
func Decode(raw []byte) (Record, error) {
	text := string(raw)
	if !strings.HasPrefix(text, delimiter+"\n") {
		return Record{}, fmt.Errorf("missing opening %q delimiter", delimiter)
	}
	rest := text[len(delimiter)+1:]

	var rec Record
	for {
		line, remainder, found := strings.Cut(rest, "\n")
		if !found && line != delimiter {
			return Record{}, fmt.Errorf("missing closing %q delimiter", delimiter)
		}
		rest = remainder
		if line == delimiter {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		rec.Fields = append(rec.Fields, Field{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}
	rec.Body = rest
	return rec, nil
}

// Encode is the inverse of Decode for any record Encode produced. Metadata
// lines are single lines by construction: an embedded newline in a key or
// value would turn the rest of the value into a stray line inside the block,
// so newlines are flattened to spaces rather than written through.
func Encode(rec Record) []byte {
	var b strings.Builder
	b.WriteString(delimiter + "\n")
	for _, f := range rec.Fields {
		b.WriteString(flatten(f.Key))
		b.WriteString(": ")
		b.WriteString(flatten(f.Value))
		b.WriteString("\n")
	}
	b.WriteString(delimiter + "\n")
	b.WriteString(rec.Body)
	return []byte(b.String())
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func flatten(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.TrimSpace(lineBreaks.Replace(s))
}

// ParseBool accepts only the literal true/false tokens.
func ParseBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q (want true or false)", s)
}

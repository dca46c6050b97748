package frontmatter

import (
	"reflect"
	"testing"
)

func TestDecodeBasic(t *testing.T) {
	raw := "---\nid: abc\ntitle: Hello: a subtitle\nread: false\n---\n\nBody text\n"
	rec, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got, _ := rec.Get("id"); got != "abc" {
		t.Errorf("id = %q, want abc", got)
	}
	if got, _ := rec.Get("title"); got != "Hello: a subtitle" {
		t.Errorf("title = %q, splitting should stop at the first colon", got)
	}
	if rec.Body != "\nBody text\n" {
		t.Errorf("body = %q", rec.Body)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no opening delimiter", "id: abc\n---\nbody"},
		{"unterminated block", "---\nid: abc\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode([]byte(tc.raw)); err == nil {
				t.Errorf("Decode(%q) succeeded, want error", tc.raw)
			}
		})
	}
}

func TestDecodeIgnoresStrayLines(t *testing.T) {
	raw := "---\nid: abc\njust some prose\n---\nbody"
	rec, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rec.Fields) != 1 {
		t.Fatalf("fields = %v, want only id", rec.Fields)
	}
}

func TestRoundTrip(t *testing.T) {
	rec := Record{
		Fields: []Field{
			{Key: "id", Value: "a1"},
			{Key: "feed", Value: "https://example.com/feed"},
			{Key: "custom_key", Value: "hand-edited value"},
			{Key: "read", Value: "false"},
		},
		Body: "\n# Title\n\nSome body with --- inside.\n",
	}
	got, err := Decode(Encode(rec))
	if err != nil {
		t.Fatalf("decode of encoded record: %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", got, rec)
	}
}

func TestRoundTripIsByteStable(t *testing.T) {
	rec := Record{
		Fields: []Field{{Key: "id", Value: "a1"}, {Key: "date", Value: "2024-03-01T10:00:00Z"}},
		Body:   "body\n",
	}
	once := Encode(rec)
	decoded, err := Decode(once)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	twice := Encode(decoded)
	if string(once) != string(twice) {
		t.Errorf("second encode differs:\n once %q\ntwice %q", once, twice)
	}
}

func TestEncodeFlattensEmbeddedNewlines(t *testing.T) {
	rec := Record{
		Fields: []Field{
			{Key: "id", Value: "a1"},
			{Key: "author", Value: "Jane Doe\nSenior Editor"},
		},
		Body: "body\n",
	}
	decoded, err := Decode(Encode(rec))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	author, ok := decoded.Get("author")
	if !ok {
		t.Fatal("author field lost")
	}
	if author != "Jane Doe Senior Editor" {
		t.Errorf("author = %q, newline must flatten without losing text", author)
	}
	if decoded.Body != "body\n" {
		t.Errorf("body = %q, a multi-line value must not bleed into it", decoded.Body)
	}
}

func TestParseBool(t *testing.T) {
	if v, err := ParseBool("true"); err != nil || !v {
		t.Errorf("ParseBool(true) = %v, %v", v, err)
	}
	if v, err := ParseBool("false"); err != nil || v {
		t.Errorf("ParseBool(false) = %v, %v", v, err)
	}
	for _, bad := range []string{"True", "yes", "1", ""} {
		if _, err := ParseBool(bad); err == nil {
			t.Errorf("ParseBool(%q) succeeded, want error", bad)
		}
	}
}

package body

import (
	"encoding/base64"
	"errors"
	"reflect"
	"testing"

	"github.com/bassamadnan/maildoc/opt"
)

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "three newlines", in: "Hello\n\n\nWorld", want: "Hello\n\nWorld"},
		{name: "four newlines", in: "a\n\n\n\nb", want: "a\n\nb"},
		{name: "trailing spaces", in: "a   \nb", want: "a\nb"},
		{name: "leading tabs", in: "a\n\t\tb", want: "a\nb"},
		{name: "crlf", in: "a\r\nb\r\n\r\n\r\nc", want: "a\nb\n\nc"},
		{name: "blank lines with spaces", in: "a\n   \n  \n \nb", want: "a\n\nb"},
		{name: "invisible characters", in: "a\u200cb\u00a0c\u200dd\u034fe", want: "abcde"},
		{name: "invisible run between newlines", in: "a\n\u200b\n\u00a0\n\nb", want: "a\n\nb"},
		{name: "inner spaces kept", in: "a  b", want: "a  b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Hello\n\n\nWorld",
		" \t\n\n\n \u00a0 \n\u200b\nx \t",
		"a \u200c\n\n b\r\n\r\n\r\n",
		"\n\n\n\n\n",
		"line one  \n\u034f\n\n\nline two\n",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: once %q, twice %q", in, once, twice)
		}
	}
}

func TestDecodeSinglePart(t *testing.T) {
	tests := []struct {
		name string
		root Part
		want opt.String
	}{
		{
			name: "plain",
			root: Part{MimeType: "text/plain", Data: encode("Hello\n\n\nWorld")},
			want: opt.Some("Hello\n\nWorld"),
		},
		{
			name: "html",
			root: Part{MimeType: "text/html", Data: encode("<div>Hello</div><p>World  </p>")},
			want: opt.Some("Hello\nWorld"),
		},
		{
			name: "plain without payload",
			root: Part{MimeType: "text/plain"},
			want: opt.Some(""),
		},
		{
			name: "octet stream",
			root: Part{MimeType: "application/octet-stream", Data: encode("binary")},
			want: opt.None(),
		},
		{
			name: "amp html single part",
			root: Part{MimeType: "text/x-amp-html", Data: encode("<p>x</p>")},
			want: opt.None(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.root)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeMultipartRoundTrip(t *testing.T) {
	raw := []string{"first  \n\n\n\nparagraph", "second\u200c part", "\tthird\r\n"}
	root := Part{
		MimeType: "multipart/alternative",
		Parts: []Part{
			{MimeType: "text/plain", Data: encode(raw[0])},
			{MimeType: "text/plain", Data: encode(raw[1])},
			{MimeType: "text/plain", Data: encode(raw[2])},
		},
	}

	got, err := Decode(root)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	text, ok := got.Get()
	if !ok {
		t.Fatal("Decode() returned missing text for a multipart message")
	}

	want := []string{Normalize(raw[0]), Normalize(raw[1]), Normalize(raw[2])}
	if parts := Split(text); !reflect.DeepEqual(parts, want) {
		t.Errorf("Split(Decode()) = %q, want %q", parts, want)
	}
	if first := First(text); first != want[0] {
		t.Errorf("First() = %q, want %q", first, want[0])
	}
}

func TestDecodeSkipsPartsWithoutPayload(t *testing.T) {
	plain := Part{MimeType: "text/plain", Data: encode("plain body")}
	html := Part{MimeType: "text/html", Data: encode("<p>html body</p>")}
	attachment := Part{MimeType: "application/pdf"}
	empty := Part{MimeType: "text/plain"}

	with, err := Decode(Part{MimeType: "multipart/mixed", Parts: []Part{plain, attachment, html, empty}})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	without, err := Decode(Part{MimeType: "multipart/mixed", Parts: []Part{plain, html}})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if with != without {
		t.Errorf("payload-less parts changed output: %v vs %v", with, without)
	}
}

func TestDecodeNestedMultipart(t *testing.T) {
	root := Part{
		MimeType: "multipart/mixed",
		Parts: []Part{
			{
				MimeType: "multipart/alternative",
				Parts: []Part{
					{MimeType: "text/plain", Data: encode("Summary: \"Sync\"")},
					{MimeType: "text/html", Data: encode("<p>Summary: \"Sync\"</p>")},
				},
			},
			{MimeType: "image/png", Data: encode("\x89PNG")},
		},
	}

	got, err := Decode(root)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := opt.Some("Summary: \"Sync\"" + Separator + "Summary: \"Sync\"")
	if got != want {
		t.Errorf("Decode() = %q, want %q", got, want)
	}
}

func TestDecodeUnpaddedPayload(t *testing.T) {
	data := base64.RawURLEncoding.EncodeToString([]byte("ab"))
	got, err := Decode(Part{MimeType: "text/plain", Data: data})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != opt.Some("ab") {
		t.Errorf("Decode() = %v, want ab", got)
	}
}

func TestDecodeCharset(t *testing.T) {
	root := Part{
		MimeType: "text/plain",
		Headers:  []Header{{Name: "Content-Type", Value: `text/plain; charset="ISO-8859-1"`}},
		Data:     encode("caf\xe9"),
	}
	got, err := Decode(root)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != opt.Some("café") {
		t.Errorf("Decode() = %q, want %q", got, "café")
	}
}

func TestDecodeUnknownCharsetFallsBackToUTF8(t *testing.T) {
	for _, label := range []string{"unknown-8bit", "x-user-defined", "x-no-such-charset"} {
		t.Run(label, func(t *testing.T) {
			root := Part{
				MimeType: "text/plain",
				Headers:  []Header{{Name: "Content-Type", Value: "text/plain; charset=" + label}},
				Data:     encode(`Summary: "Team Sync"`),
			}
			got, err := Decode(root)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != opt.Some(`Summary: "Team Sync"`) {
				t.Errorf("Decode() = %v, want the UTF-8 text", got)
			}
		})
	}
}

func TestDecodeUndecodable(t *testing.T) {
	tests := []struct {
		name string
		root Part
	}{
		{name: "bad base64", root: Part{MimeType: "text/plain", Data: "!!not base64!!"}},
		{name: "invalid utf-8", root: Part{MimeType: "text/plain", Data: encode("\xff\xfe")}},
		{
			name: "bad part in multipart",
			root: Part{MimeType: "multipart/alternative", Parts: []Part{
				{MimeType: "text/plain", Data: encode("fine")},
				{ID: "1", MimeType: "text/html", Data: "%%%"},
			}},
		},
		{
			name: "unknown charset with invalid bytes",
			root: Part{
				MimeType: "text/plain",
				Headers:  []Header{{Name: "content-type", Value: "text/plain; charset=x-no-such-charset"}},
				Data:     encode("abc\xff"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.root)
			if !errors.Is(err, ErrUndecodable) {
				t.Fatalf("Decode() error = %v, want ErrUndecodable", err)
			}
			if got.IsPresent() {
				t.Errorf("Decode() = %v, want missing text on error", got)
			}
		})
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "paragraph with quoted value",
			in:   `<p>Summary: "Team Sync"</p>`,
			want: `Summary: "Team Sync"`,
		},
		{
			name: "hidden elements dropped",
			in:   `<html><head><title>T</title><style>p{color:red}</style></head><body><p>Hello <b>bold</b> world</p><script>alert(1)</script></body></html>`,
			want: "Hello bold world",
		},
		{
			name: "block boundaries and breaks",
			in:   "<div>Line<br>Two</div><ul><li>a</li><li>b</li></ul>",
			want: "Line\nTwo\na\nb",
		},
		{
			name: "whitespace collapse",
			in:   "<p>  many\n   spaces\there  </p>",
			want: "many spaces here",
		},
		{
			name: "entities",
			in:   "<p>Tom &amp; Jerry&nbsp;show</p>",
			want: "Tom & Jerry\u00a0show",
		},
		{
			name: "table cells",
			in:   "<table><tr><td>Start date time:</td><td>\"2024-05-01T10:00:00\"</td></tr></table>",
			want: "Start date time:\n\"2024-05-01T10:00:00\"",
		},
		{
			name: "comments ignored",
			in:   "<p>a<!-- hidden -->b</p>",
			want: "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTMLToText(tt.in)
			if err != nil {
				t.Fatalf("HTMLToText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HTMLToText() = %q, want %q", got, tt.want)
			}
		})
	}
}

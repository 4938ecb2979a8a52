package richtext_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/targetedentropy/trashbag/richtext"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    richtext.Chat
	}{
		{
			name:    "whisper",
			payload: `{"color":"white","extra":[{"color":"light_purple","text":"Alice"},{"text":" whispers to you: "},{"text":""},{"text":"hi"}]}`,
			want:    richtext.Chat{Class: richtext.Whisper, Sender: "Alice", HasSender: true, Text: "hi", HasText: true},
		},
		{
			name:    "whisper-three",
			payload: `{"color":"gray","italic":true,"extra":[{"color":"light_purple","text":"Alice"},{"text":" whispers: "},{"text":"purge"}]}`,
			want:    richtext.Chat{Class: richtext.Whisper, Sender: "Alice", HasSender: true, Text: "purge", HasText: true},
		},
		{
			name:    "whisper-invalid-utf8",
			payload: "{\"color\":\"gray\",\"extra\":[{\"color\":\"light_purple\",\"text\":\"Alice\"},{\"text\":\" whispers\xff: \"},{\"text\":\"hi\"}]}",
			want:    richtext.Chat{Class: richtext.Whisper, Sender: "Alice", HasSender: true, Text: "hi", HasText: true},
		},
		{
			name:    "public-invalid-utf8-sender",
			payload: "{\"extra\":[{\"text\":\"<\"},{\"color\":\"yellow\",\"text\":\"Al\xffice\"},{\"text\":\"> \"},{\"text\":\"hello\"}]}",
			want:    richtext.Chat{Class: richtext.Public, Sender: "Al\uFFFDice", HasSender: true, Text: "hello", HasText: true},
		},
		{
			name:    "whisper-later-sender",
			payload: `{"color":"gray","extra":[{"color":"gray","text":"From "},{"color":"light_purple","text":"Alice"},{"text":": "},{"text":"hi"}]}`,
			want:    richtext.Chat{Class: richtext.Whisper, Sender: "Alice", HasSender: true, Text: "hi", HasText: true},
		},
		{
			name:    "whisper-no-sender",
			payload: `{"color":"gray","extra":[{"color":"gray","text":"Bob"},{"text":": "},{"text":"hi"}]}`,
			want:    richtext.Chat{Class: richtext.Whisper, Text: "hi", HasText: true},
		},
		{
			name:    "whisper-empty-color",
			payload: `{"color":"","extra":[{"color":"light_purple","text":"Alice"},{"text":"hi"}]}`,
			want:    richtext.Chat{Class: richtext.Whisper, Sender: "Alice", HasSender: true},
		},
		{
			name:    "public",
			payload: `{"extra":[{"text":"<"},{"color":"yellow","text":"Bob"},{"text":"> "},{"text":"hello"}]}`,
			want:    richtext.Chat{Class: richtext.Public, Sender: "Bob", HasSender: true, Text: "hello", HasText: true},
		},
		{
			name:    "public-no-color",
			payload: `{"extra":[{"text":"<"},{"text":"Bob"},{"text":"> "},{"text":"hello"}]}`,
			want:    richtext.Chat{Class: richtext.Public, Text: "hello", HasText: true},
		},
		{
			name:    "public-empty-color",
			payload: `{"extra":[{"text":"<"},{"color":"","text":"Bob"},{"text":"> "},{"color":"white","text":"hello"}]}`,
			want:    richtext.Chat{Class: richtext.Public, Sender: "hello", HasSender: true, Text: "hello", HasText: true},
		},
		{
			name:    "public-long",
			payload: `{"extra":[{"text":"<"},{"color":"yellow","text":"Bob"},{"text":"> "},{"text":"hello"},{"text":" world"}]}`,
			want:    richtext.Chat{Class: richtext.Public, Sender: "Bob", HasSender: true},
		},
		{
			name:    "public-string-fragments",
			payload: `{"text":"","extra":["<",{"color":"aqua","text":"Bob"},"> ","hello"]}`,
			want:    richtext.Chat{Class: richtext.Public, Sender: "Bob", HasSender: true, Text: "hello", HasText: true},
		},
		{
			name:    "join-notice",
			payload: `{"color":null,"extra":[{"color":"yellow","text":"Bob joined the game"}]}`,
			want:    richtext.Chat{Class: richtext.Other},
		},
		{
			name:    "system",
			payload: `{"text":"Welcome to the server"}`,
			want:    richtext.Chat{Class: richtext.Other},
		},
		{
			name:    "empty-extra",
			payload: `{"extra":[]}`,
			want:    richtext.Chat{Class: richtext.Other},
		},
		{
			name:    "not-json",
			payload: `<Bob> hello`,
			want:    richtext.Chat{Class: richtext.Other},
		},
		{
			name:    "wrong-types",
			payload: `{"extra":[{"text":1}]}`,
			want:    richtext.Chat{Class: richtext.Other},
		},
		{
			name:    "empty",
			payload: ``,
			want:    richtext.Chat{Class: richtext.Other},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := richtext.Parse(c.payload)
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("wrong parse (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	texts := []string{"<", "> ", "Alice", "Bob", "hi", "purge", ""}
	colors := []string{"", "light_purple", "yellow", "white"}
	frag := rapid.Custom(func(t *rapid.T) string {
		text := rapid.SampledFrom(texts).Draw(t, "text")
		color := rapid.SampledFrom(colors).Draw(t, "color")
		if color == "" {
			return `{"text":"` + text + `"}`
		}
		return `{"color":"` + color + `","text":"` + text + `"}`
	})
	rapid.Check(t, func(t *rapid.T) {
		extra := rapid.SliceOfN(frag, 0, 6).Draw(t, "extra")
		outer := rapid.SampledFrom(colors).Draw(t, "outer")
		p := `{`
		if outer != "" {
			p += `"color":"` + outer + `",`
		}
		p += `"extra":[`
		for i, f := range extra {
			if i > 0 {
				p += ","
			}
			p += f
		}
		p += `]}`
		a, b := richtext.Parse(p), richtext.Parse(p)
		if a != b {
			t.Fatalf("parse not idempotent for %s: %+v then %+v", p, a, b)
		}
		if a.Class == richtext.Other && (a.HasSender || a.HasText) {
			t.Fatalf("other message %s extracted parts: %+v", p, a)
		}
		if a.HasText != (a.Class != richtext.Other && (len(extra) == 3 || len(extra) == 4)) {
			t.Fatalf("wrong text presence for %s: %+v", p, a)
		}
	})
}

func TestPlain(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{"public", `{"extra":[{"text":"<"},{"color":"yellow","text":"Bob"},{"text":"> "},{"text":"hello"}]}`, "<Bob> hello"},
		{"nested", `{"text":"a","extra":[{"text":"b","extra":["c",{"text":"d"}]}]}`, "abcd"},
		{"string", `"just text"`, "just text"},
		{"invalid", `{"text":`, `{"text":`},
		{"invalid-utf8", "{\"text\":\"caf\xe9\"}", "caf\uFFFD"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := richtext.Plain(c.payload); got != c.want {
				t.Errorf("wrong text: want %q, got %q", c.want, got)
			}
		})
	}
}

func TestClassString(t *testing.T) {
	if got := richtext.Whisper.String(); got != "whisper" {
		t.Errorf("wrong name: want %q, got %q", "whisper", got)
	}
}

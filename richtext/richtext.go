// Package richtext classifies chat messages from their rich-text payloads.
//
// A payload is a JSON object which may carry an "extra" array of text
// fragments, some of which have a "color". Whispers are marked by a color on
// the outer object; public messages begin with a "<" fragment. The message
// text is recovered by fragment position, which depends on the server's chat
// format: with four fragments it is the fourth, with three the third.
// Other layouts yield no text.
package richtext

import (
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// lenient lets invalid UTF-8 through as U+FFFD rather than rejecting the
// whole payload.
var lenient = jsontext.AllowInvalidUTF8(true)

// WhisperColor is the color of the sender's name in a private message.
const WhisperColor = "light_purple"

// Class is the classification of a chat message.
type Class int

const (
	// Other is any message which is not player chat, such as join notices.
	Other Class = iota
	// Public is chat visible to everyone.
	Public
	// Whisper is a private message to the bot.
	Whisper
)

func (c Class) String() string {
	switch c {
	case Other:
		return "other"
	case Public:
		return "public"
	case Whisper:
		return "whisper"
	default:
		return "invalid"
	}
}

// Chat is a classified chat message. Sender and Text are meaningful only when
// HasSender and HasText respectively are true; consumers must not act on a
// message lacking either.
type Chat struct {
	Class     Class
	Sender    string
	Text      string
	HasSender bool
	HasText   bool
}

// fragment is one text component of a payload.
// Color is a pointer to distinguish an absent color from an empty one.
type fragment struct {
	Text  string     `json:"text"`
	Color *string    `json:"color"`
	Extra []fragment `json:"extra"`
}

// UnmarshalJSON accepts a bare string as a fragment with only text.
func (f *fragment) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		*f = fragment{}
		return json.Unmarshal(b, &f.Text, lenient)
	}
	type plain fragment
	return json.Unmarshal(b, (*plain)(f), lenient)
}

func (f *fragment) colored() bool {
	return f.Color != nil && *f.Color != ""
}

// Parse classifies a rich-text payload. Missing or malformed fields never
// produce an error; they leave the corresponding parts absent. A payload that
// is not a JSON object is classified as Other.
func Parse(payload string) Chat {
	var root fragment
	if err := json.Unmarshal([]byte(payload), &root, lenient); err != nil {
		return Chat{Class: Other}
	}
	var c Chat
	switch {
	case root.Color != nil:
		c.Class = Whisper
		for _, f := range root.Extra {
			if f.Color != nil && *f.Color == WhisperColor {
				c.Sender, c.HasSender = f.Text, true
				break
			}
		}
	case len(root.Extra) > 0 && root.Extra[0].Text == "<":
		c.Class = Public
		for _, f := range root.Extra {
			if f.colored() {
				c.Sender, c.HasSender = f.Text, true
				break
			}
		}
	default:
		return Chat{Class: Other}
	}
	switch len(root.Extra) {
	case 4:
		c.Text, c.HasText = root.Extra[3].Text, true
	case 3:
		c.Text, c.HasText = root.Extra[2].Text, true
	}
	return c
}

// Plain flattens a payload into its displayed text. A payload that is not
// valid JSON is returned unchanged.
func Plain(payload string) string {
	var root fragment
	if err := json.Unmarshal([]byte(payload), &root, lenient); err != nil {
		return payload
	}
	var b strings.Builder
	root.flatten(&b)
	return b.String()
}

func (f *fragment) flatten(b *strings.Builder) {
	b.WriteString(f.Text)
	for i := range f.Extra {
		f.Extra[i].flatten(b)
	}
}

package report

import (
	"encoding/json"
	"strings"
)

// Card is a Lark interactive message card.
type Card struct {
	Config   CardConfig    `json:"config"`
	Header   CardHeader    `json:"header"`
	Elements []CardElement `json:"elements"`
}

type CardConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
}

type CardHeader struct {
	Title    CardText `json:"title"`
	Template string   `json:"template,omitempty"`
}

type CardText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type CardElement struct {
	Tag  string    `json:"tag"`
	Text *CardText `json:"text,omitempty"`
}

// Card renders the document as one markdown block per section, with a
// divider before each additional contract address.
func (d Document) Card() Card {
	template := "blue"
	if d.Empty() {
		template = "grey"
	}
	card := Card{
		Config:   CardConfig{WideScreenMode: true},
		Header:   CardHeader{Title: CardText{Tag: "plain_text", Content: d.Title}, Template: template},
		Elements: []CardElement{},
	}

	for i, s := range d.Sections {
		if s.Title == SectionAddress && i > 0 {
			card.Elements = append(card.Elements, CardElement{Tag: "hr"})
		}
		card.Elements = append(card.Elements, CardElement{
			Tag:  "div",
			Text: &CardText{Tag: "lark_md", Content: sectionMarkdown(s)},
		})
	}
	return card
}

// CardJSON is the card encoded as a message content string.
func (d Document) CardJSON() (json.RawMessage, error) {
	return json.Marshal(d.Card())
}

func sectionMarkdown(s Section) string {
	var b strings.Builder
	b.WriteString("**" + s.Title + "**")
	if s.Title == SectionAddress && len(s.Lines) > 0 {
		b.WriteString(": " + s.Lines[0].String())
		for _, l := range s.Lines[1:] {
			b.WriteString("\n" + l.String())
		}
		return b.String()
	}
	for _, l := range s.Lines {
		b.WriteString("\n" + l.String())
	}
	return b.String()
}

// Text renders the document as plain text.
func (d Document) Text() string {
	var b strings.Builder
	b.WriteString(d.Title)
	for _, s := range d.Sections {
		b.WriteString("\n\n")
		if s.Title == SectionAddress && len(s.Lines) > 0 {
			b.WriteString(s.Title + ": " + s.Lines[0].String())
			for _, l := range s.Lines[1:] {
				b.WriteString("\n" + l.String())
			}
			continue
		}
		b.WriteString(s.Title)
		for _, l := range s.Lines {
			b.WriteString("\n" + l.String())
		}
	}
	return b.String()
}

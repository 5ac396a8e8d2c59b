package defs

import "time"

// Embed colours by severity.
const (
	ColorInfo     uint32 = 0x3b82f6
	ColorWarning  uint32 = 0xf59e0b
	ColorCritical uint32 = 0xdc2626
)

type MessageData struct {
	Content         string
	Embeds          []EmbedData
	MentionEveryone bool
}

type EmbedData struct {
	Title       string
	Description string
	Color       uint32
	Timestamp   time.Time
	Fields      []EmbedField
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

func EmptyEmbed() EmbedField {
	return EmbedField{Name: "\u200b", Value: "\u200b", Inline: true}
}

// SeverityColor is the embed colour for s.
func SeverityColor(s Severity) uint32 {
	return [...]uint32{ColorInfo, ColorWarning, ColorCritical}[s]
}

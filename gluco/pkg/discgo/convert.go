package discgo

import (
	"securegluco/gluco/defs"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
)

// marshalSendData transforms data of type defs.MessageData to api.SendMessageData
// which arikawa expects.
func marshalSendData(data defs.MessageData) api.SendMessageData {
	embeds := make([]discord.Embed, 0, len(data.Embeds))
	for _, embed := range data.Embeds {
		fields := make([]discord.EmbedField, 0, len(embed.Fields))
		for _, field := range embed.Fields {
			fields = append(fields, discord.EmbedField{
				Name:   field.Name,
				Value:  field.Value,
				Inline: field.Inline,
			})
		}

		dEmbed := discord.Embed{
			Title:       embed.Title,
			Description: embed.Description,
			Color:       discord.Color(embed.Color),
			Fields:      fields,
		}
		if !embed.Timestamp.IsZero() {
			dEmbed.Timestamp = discord.NewTimestamp(embed.Timestamp)
		}

		embeds = append(embeds, dEmbed)
	}

	md := api.SendMessageData{
		Content: data.Content,
		Embeds:  embeds,
	}

	// Mentions are suppressed unless asked for.
	md.AllowedMentions = &api.AllowedMentions{Parse: []api.AllowedMentionType{}}
	if data.MentionEveryone {
		md.AllowedMentions.Parse = []api.AllowedMentionType{api.AllowEveryoneMention}
	}

	return md
}

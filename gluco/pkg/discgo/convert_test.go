package discgo

import (
	"errors"
	"securegluco/gluco/defs"
	"testing"
	"time"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type DiscordTypeTestSuite struct {
	suite.Suite
}

func TestDiscordTypeSuite(t *testing.T) {
	suite.Run(t, new(DiscordTypeTestSuite))
}

func newMessageData() defs.MessageData {
	return defs.MessageData{
		Content: "test content",
		Embeds: []defs.EmbedData{
			{
				Title:       "title1",
				Description: "description1",
				Color:       defs.ColorCritical,
				Timestamp:   time.Date(2022, time.May, 12, 8, 0, 0, 0, time.UTC),
				Fields: []defs.EmbedField{
					{
						Name:   "field1",
						Value:  "value1",
						Inline: false,
					},
					defs.EmptyEmbed(),
				},
			},
		},
		MentionEveryone: true,
	}
}

func (suite *DiscordTypeTestSuite) TestMarshalData() {
	input := newMessageData()
	output := marshalSendData(input)

	assert.Equal(suite.T(), input.Content, output.Content)
	assert.Equal(suite.T(), len(input.Embeds), len(output.Embeds))

	// Assert embeds.
	assert.Equal(suite.T(), input.Embeds[0].Title, output.Embeds[0].Title)
	assert.Equal(suite.T(), input.Embeds[0].Description, output.Embeds[0].Description)
	assert.Equal(suite.T(), discord.Color(defs.ColorCritical), output.Embeds[0].Color)
	assert.True(suite.T(), output.Embeds[0].Timestamp.Time().Equal(input.Embeds[0].Timestamp))
	assert.EqualValues(suite.T(), discord.EmbedField{
		Name:   "field1",
		Value:  "value1",
		Inline: false,
	}, output.Embeds[0].Fields[0])
	assert.EqualValues(suite.T(), discord.EmbedField{
		Name:   "\u200b",
		Value:  "\u200b",
		Inline: true,
	}, output.Embeds[0].Fields[1])

	// Assert mention.
	assert.Equal(suite.T(), api.AllowEveryoneMention, output.AllowedMentions.Parse[0])
}

func (suite *DiscordTypeTestSuite) TestMentionsSuppressed() {
	input := newMessageData()
	input.MentionEveryone = false
	output := marshalSendData(input)

	assert.NotNil(suite.T(), output.AllowedMentions)
	assert.Empty(suite.T(), output.AllowedMentions.Parse)
}

func (suite *DiscordTypeTestSuite) TestNewParsesChannels() {
	d, err := New(defs.DiscordConfig{
		Token:    "token",
		Channels: map[string]string{defs.AlertsChannel: "975023496155377674"},
	}, zap.NewNop())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), discord.ChannelID(975023496155377674), d.channels[defs.AlertsChannel])

	_, err = d.SendMessage(newMessageData(), "missing")
	assert.True(suite.T(), errors.Is(err, ErrUnknownChannel))

	_, err = New(defs.DiscordConfig{Channels: map[string]string{"bad": "not-a-snowflake"}}, zap.NewNop())
	assert.Error(suite.T(), err)
}

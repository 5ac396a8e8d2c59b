package discgo

import (
	"errors"
	"fmt"
	"securegluco/gluco/defs"

	"github.com/diamondburned/arikawa/v3/api"
	"github.com/diamondburned/arikawa/v3/discord"
	"go.uber.org/zap"
)

var ErrUnknownChannel = errors.New("unknown channel")

type Messager interface {
	SendMessage(data defs.MessageData, chName string) (uint64, error)
}

// Discord posts to a fixed set of named channels over the REST API. No
// gateway session is opened.
type Discord struct {
	Client *api.Client
	Logger *zap.Logger

	channels map[string]discord.ChannelID
}

// New maps every configured channel name to its snowflake.
func New(cfg defs.DiscordConfig, logger *zap.Logger) (*Discord, error) {
	channels := make(map[string]discord.ChannelID, len(cfg.Channels))
	for name, id := range cfg.Channels {
		sf, err := discord.ParseSnowflake(id)
		if err != nil {
			return nil, fmt.Errorf("unable to parse channel %s: %w", name, err)
		}
		channels[name] = discord.ChannelID(sf)
	}

	return &Discord{
		Client:   api.NewClient("Bot " + cfg.Token),
		Logger:   logger,
		channels: channels,
	}, nil
}

func (d *Discord) SendMessage(data defs.MessageData, chName string) (uint64, error) {
	chid, ok := d.channels[chName]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownChannel, chName)
	}

	msg, err := d.Client.SendMessageComplex(chid, marshalSendData(data))
	if err != nil {
		return 0, fmt.Errorf("unable to send message: %w", err)
	}

	d.Logger.Debug("sent message",
		zap.String("channel name", chName),
		zap.Int("embeds", len(data.Embeds)),
	)
	return uint64(msg.ID), nil
}

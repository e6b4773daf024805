package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Edward-Boguslavsky/Birthday-Bot/commands"
	"github.com/Edward-Boguslavsky/Birthday-Bot/discordutils"
	"github.com/Edward-Boguslavsky/Birthday-Bot/editor"
	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

// handlerTimeout bounds the work done for one interaction.
const handlerTimeout = 15 * time.Second

// Bot represents an instance of the birthday bot.
type Bot struct {
	session            *discordgo.Session
	api                discordutils.Responder
	editor             *editor.Editor
	registry           *session.Registry
	guildID            string
	registeredCommands []*discordgo.ApplicationCommand
}

// NewSession creates a discordgo session with the intents the bot needs.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return s, nil
}

// New wires the interaction handlers onto an unopened session.
func New(s *discordgo.Session, guildID string, ed *editor.Editor, registry *session.Registry) *Bot {
	bot := &Bot{session: s, api: s, editor: ed, registry: registry, guildID: guildID}

	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is up!",
			slog.String("user", r.User.Username),
			slog.Int("guilds", len(r.Guilds)))
	})
	s.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		bot.dispatch(i)
	})

	return bot
}

// Open connects to the gateway and registers the slash commands. Commands are
// registered in guildID, or globally when it is empty.
func (bot *Bot) Open() error {
	if err := bot.session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	for _, command := range commands.Definitions() {
		created, err := bot.session.ApplicationCommandCreate(
			bot.session.State.User.ID,
			bot.guildID,
			command,
		)
		if err != nil {
			return fmt.Errorf("failed to create %v command: %w", command.Name, err)
		}
		bot.registeredCommands = append(bot.registeredCommands, created)
		slog.Info("Created command", logfields.Command(command.Name))
	}
	return nil
}

// Shutdown ends every editor session, removes the commands and closes the
// gateway connection.
func (bot *Bot) Shutdown() error {
	slog.Info("Shutting down")

	bot.registry.Shutdown()

	var errs []error
	for _, command := range bot.registeredCommands {
		err := bot.session.ApplicationCommandDelete(
			bot.session.State.User.ID,
			bot.guildID,
			command.ID,
		)
		if err != nil {
			slog.Warn("Failed to delete command", logfields.Command(command.Name), logfields.Error(err))
			errs = append(errs, err)
		} else {
			slog.Info("Deleted command", logfields.Command(command.Name))
		}
	}
	bot.registeredCommands = nil

	if err := bot.session.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

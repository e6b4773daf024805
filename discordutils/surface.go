package discordutils

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/Edward-Boguslavsky/Birthday-Bot/logfields"
	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

// ResponseEditor is the part of a discordgo session that edits an
// interaction's original response.
type ResponseEditor interface {
	InteractionResponseEdit(
		interaction *discordgo.Interaction,
		newresp *discordgo.WebhookEdit,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// InteractionSurface renders editor views by editing the original response of
// an interaction. Component interactions edit the message that holds the
// component, so the surface follows the newest interaction of a session.
type InteractionSurface struct {
	editor      ResponseEditor
	interaction *discordgo.Interaction
	render      func(session.View) *discordgo.WebhookEdit
}

// NewInteractionSurface returns a surface for interaction.
func NewInteractionSurface(
	editor ResponseEditor,
	interaction *discordgo.Interaction,
	render func(session.View) *discordgo.WebhookEdit,
) *InteractionSurface {
	return &InteractionSurface{editor: editor, interaction: interaction, render: render}
}

// Update edits the response. A deleted message or an expired interaction
// token is reported as session.Gone.
func (s *InteractionSurface) Update(ctx context.Context, v session.View) session.UpdateResult {
	_, err := s.editor.InteractionResponseEdit(s.interaction, s.render(v), discordgo.WithContext(ctx))
	switch {
	case err == nil:
		return session.Updated
	case IsNotFound(err):
		slog.Debug("Editor message is gone",
			logfields.Session(v.SessionID),
			logfields.Error(err))
		return session.Gone
	default:
		slog.Warn("Failed to edit editor message",
			logfields.Session(v.SessionID),
			logfields.Error(err))
		return session.Failed
	}
}

package commands

import (
	"github.com/bwmarrin/discordgo"

	"github.com/Edward-Boguslavsky/Birthday-Bot/editor"
	"github.com/Edward-Boguslavsky/Birthday-Bot/session"
)

// Modal text input ids.
const (
	InputUserID = "birthday_input_id"
	InputMonth  = "birthday_input_month"
	InputDay    = "birthday_input_day"
)

// Modal returns the add or edit form for sessionID, prefilled from form.
func Modal(sessionID string, form editor.Form) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{}

	if form.Mode == session.ModeEdit {
		data.CustomID = customID(sessionID, ActionEditForm, form.UserID)
		data.Title = "Edit Birthday"
	} else {
		data.CustomID = customID(sessionID, ActionAddForm)
		data.Title = "Add Birthday"
		data.Components = append(data.Components, textInput(InputUserID, "User ID", "XXXXXXXXXXXXXXXXXX", "", 17, 20))
	}
	data.Components = append(data.Components,
		textInput(InputMonth, "Month (1-12)", "MM", form.Month, 1, 2),
		textInput(InputDay, "Day (1-31)", "DD", form.Day, 1, 2),
	)

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	}
}

func textInput(id, label, placeholder, value string, minLength, maxLength int) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    id,
				Label:       label,
				Style:       discordgo.TextInputShort,
				Placeholder: placeholder,
				Value:       value,
				Required:    true,
				MinLength:   minLength,
				MaxLength:   maxLength,
			},
		},
	}
}

// ParseModal reads a submitted add or edit form.
func ParseModal(id CustomID, data discordgo.ModalSubmitInteractionData) editor.Form {
	values := modalValues(data.Components)

	form := editor.Form{
		Month: values[InputMonth],
		Day:   values[InputDay],
	}
	if id.Action == ActionEditForm {
		form.Mode = session.ModeEdit
		form.UserID = id.UserID
	} else {
		form.Mode = session.ModeAdd
		form.UserID = values[InputUserID]
	}
	return form
}

func modalValues(components []discordgo.MessageComponent) map[string]string {
	values := make(map[string]string)
	for _, c := range components {
		var inner []discordgo.MessageComponent
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			inner = row.Components
		case discordgo.ActionsRow:
			inner = row.Components
		}
		for _, ic := range inner {
			switch input := ic.(type) {
			case *discordgo.TextInput:
				values[input.CustomID] = input.Value
			case discordgo.TextInput:
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}

package bot

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// onAutocomplete serves town, shop and item suggestions for every command
// that carries those options.
func (b *Bot) onAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	opts := data.Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		opts = opts[0].Options
	}

	var focused *discordgo.ApplicationCommandInteractionDataOption
	values := make(map[string]string)
	for _, o := range opts {
		if o.Type == discordgo.ApplicationCommandOptionString {
			values[o.Name] = o.StringValue()
		}
		if o.Focused {
			focused = o
		}
	}
	if focused == nil {
		return
	}

	var pool []string
	switch focused.Name {
	case "town":
		pool = b.shops.Towns()
	case "shop":
		pool = b.shops.Shops(values["town"])
	case "item":
		for _, it := range b.shops.Items(values["town"], values["shop"]) {
			pool = append(pool, it.Name)
		}
	default:
		return
	}

	typed := strings.ToLower(strings.TrimSpace(focused.StringValue()))
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, 25)
	for _, name := range pool {
		if typed != "" && !strings.Contains(strings.ToLower(name), typed) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
		if len(choices) == 25 {
			break
		}
	}

	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}

package bot

import (
	"errors"
	"fmt"
	"strings"

	"gringotts/internal/currency"
	"gringotts/internal/links"
	"gringotts/internal/vault"

	"github.com/bwmarrin/discordgo"
)

var manageServer = int64(discordgo.PermissionManageServer)

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Show your vault total and character balances",
		},
		{
			Name:        "char_balance",
			Description: "Show a character's balance",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Character name", Required: true},
			},
		},
		{
			Name:        "link_character",
			Description: "Link a character name to a player",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Character name", Required: true},
				{Type: discordgo.ApplicationCommandOptionUser, Name: "player", Description: "Player to link to (staff only, defaults to you)"},
			},
		},
		{
			Name:        "unlink_character",
			Description: "Remove a character link",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Character name", Required: true},
			},
		},
		{
			Name:        "who_is",
			Description: "Look up which player a character belongs to",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Character name", Required: true},
			},
		},
		{
			Name:        "shop",
			Description: "Browse and buy from the shops",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Name: "towns", Description: "List towns",
				},
				{
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Name: "shops", Description: "List shops in a town",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "town", Description: "Town", Required: true, Autocomplete: true},
					},
				},
				{
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Name: "list", Description: "List a shop's wares",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "town", Description: "Town", Required: true, Autocomplete: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "shop", Description: "Shop", Required: true, Autocomplete: true},
					},
				},
				{
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Name: "buy", Description: "Buy an item",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "town", Description: "Town", Required: true, Autocomplete: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "shop", Description: "Shop", Required: true, Autocomplete: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "item", Description: "Item", Required: true, Autocomplete: true},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "qty", Description: "Quantity (default 1)"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "character", Description: "Buy as this character (defaults to your own vault)"},
					},
				},
			},
		},
		{
			Name:                     "shop_set",
			Description:              "Add or replace a shop item",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "town", Description: "Town", Required: true, Autocomplete: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "shop", Description: "Shop", Required: true, Autocomplete: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "item", Description: "Item", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "price", Description: "Price, e.g. 2g 5s", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "qty", Description: "Stock (omit for unlimited)"},
			},
		},
		{
			Name:                     "shop_restock",
			Description:              "Adjust an item's stock",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "town", Description: "Town", Required: true, Autocomplete: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "shop", Description: "Shop", Required: true, Autocomplete: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "item", Description: "Item", Required: true, Autocomplete: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "delta", Description: "Stock change, may be negative", Required: true},
			},
		},
		{
			Name:                     "shop_price",
			Description:              "Change an item's price",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "town", Description: "Town", Required: true, Autocomplete: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "shop", Description: "Shop", Required: true, Autocomplete: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "item", Description: "Item", Required: true, Autocomplete: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "price", Description: "New price", Required: true},
			},
		},
		{
			Name:                     "shop_remove",
			Description:              "Remove an item from a shop",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "town", Description: "Town", Required: true, Autocomplete: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "shop", Description: "Shop", Required: true, Autocomplete: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "item", Description: "Item", Required: true, Autocomplete: true},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Richest players or characters",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type: discordgo.ApplicationCommandOptionString, Name: "kind", Description: "What to rank",
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "players", Value: "players"},
						{Name: "characters", Value: "characters"},
					},
				},
			},
		},
		{
			Name:                     "award_character",
			Description:              "Grant or deduct money for a character",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Character name", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "amount", Description: "Amount, e.g. 2g 5s or -10s", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "note", Description: "Receipt note"},
			},
		},
		{
			Name:        "vault_create",
			Description: "Open a vault thread in the bank forum",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "character", Description: "Character (defaults to your own vault)"},
			},
		},
		{
			Name:                     "vault_link",
			Description:              "Link an existing thread as a vault",
			DefaultMemberPermissions: &manageServer,
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionChannel, Name: "thread", Description: "Vault thread", Required: true},
				{Type: discordgo.ApplicationCommandOptionUser, Name: "player", Description: "Vault owner", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "character", Description: "Character (omit for the player's own vault)"},
			},
		},
		{
			Name:        "vault_unlink",
			Description: "Detach a vault thread",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "character", Description: "Character (defaults to your own vault)"},
			},
		},
		{
			Name:        "tip",
			Description: "Send money to a character",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Receiving character", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "amount", Description: "Amount, e.g. 1g 3s", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "from_character", Description: "Pay from this character's purse (defaults to your own vault)"},
			},
		},
		{
			Name:        "help",
			Description: "How the bank works",
		},
	}
}

func (b *Bot) commandHandlers() map[string]func(*discordgo.Session, *discordgo.InteractionCreate) {
	return map[string]func(*discordgo.Session, *discordgo.InteractionCreate){
		"balance":          b.handleBalance,
		"char_balance":     b.handleCharBalance,
		"link_character":   b.handleLinkCharacter,
		"unlink_character": b.handleUnlinkCharacter,
		"who_is":           b.handleWhoIs,
		"shop":             b.handleShop,
		"shop_set":         b.handleShopSet,
		"shop_restock":     b.handleShopRestock,
		"shop_price":       b.handleShopPrice,
		"shop_remove":      b.handleShopRemove,
		"leaderboard":      b.handleLeaderboard,
		"award_character":  b.handleAwardCharacter,
		"vault_create":     b.handleVaultCreate,
		"vault_link":       b.handleVaultLink,
		"vault_unlink":     b.handleVaultUnlink,
		"tip":              b.handleTip,
		"help":             b.handleHelp,
	}
}

// resolveCharacter maps a typed character name to its owner and wallet key.
func (b *Bot) resolveCharacter(name string) (int64, string, bool) {
	owner, ok := b.links.Resolve(name)
	if !ok {
		return 0, "", false
	}
	return owner, links.Normalize(name), true
}

var errNotYourCharacter = errors.New("character belongs to someone else")

// payerFor resolves which purse a command spends from: the invoker's own
// vault when no name is given, otherwise a named character they control
// (staff may spend for anyone).
func (b *Bot) payerFor(invoker int64, name string, staff bool) (owner int64, wallet string, err error) {
	if name == "" {
		return invoker, "", nil
	}
	charOwner, w, ok := b.resolveCharacter(name)
	if !ok {
		return 0, "", fmt.Errorf("no character linked under %q", name)
	}
	if charOwner != invoker && !staff {
		return 0, "", errNotYourCharacter
	}
	return charOwner, w, nil
}

func (b *Bot) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	owner, err := ownerID(i)
	if err != nil {
		respondEphemeral(s, i, "Could not work out who you are.")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Vault:** %s\n", b.ledger.Balance(owner, "").FormatLong())
	for wallet, bal := range b.ledger.Wallets(owner) {
		fmt.Fprintf(&sb, "**%s:** %s\n", wallet, bal.FormatLong())
	}
	fmt.Fprintf(&sb, "**Total:** %s", b.ledger.OwnerTotal(owner).FormatLong())
	respondEphemeral(s, i, sb.String())
}

func (b *Bot) handleCharBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	name := optString(opts, "name")
	owner, wallet, ok := b.resolveCharacter(name)
	if !ok {
		respondEphemeral(s, i, fmt.Sprintf("No character linked under %q.", name))
		return
	}
	bal := b.ledger.Balance(owner, wallet)
	respondEphemeral(s, i, fmt.Sprintf("**%s** (<@%d>): %s", wallet, owner, bal.FormatLong()))
}

func (b *Bot) handleLinkCharacter(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	name := optString(opts, "name")

	target, err := ownerID(i)
	if err != nil {
		respondEphemeral(s, i, "Could not work out who you are.")
		return
	}
	if o, ok := opts["player"]; ok {
		if !canManage(i) {
			respondEphemeral(s, i, "Only staff can link characters for other players.")
			return
		}
		target, err = parseSnowflake(o.UserValue(s).ID)
		if err != nil {
			respondEphemeral(s, i, "Bad player id.")
			return
		}
	}

	wallet := links.Normalize(name)
	if err := b.links.Link(name, target); err != nil {
		respondEphemeral(s, i, fmt.Sprintf("Cannot link %q: nothing is left once the decorations are stripped.", name))
		return
	}

	// A brand-new character starts with seed funds in their vault.
	started := ""
	if b.ledger.Balance(target, wallet).IsZero() && !b.cfg.StarterFunds.IsZero() {
		if err := b.ledger.Add(target, b.cfg.StarterFunds, wallet); err != nil {
			b.log.Error("starter funds credit failed", "owner", target, "wallet", wallet, "err", err)
		} else {
			started = fmt.Sprintf(" Starter funds of %s deposited.", b.cfg.StarterFunds.FormatLong())
			b.postReceipt(s, target, wallet, b.cfg.StarterFunds, "Starter funds")
		}
	}
	respond(s, i, fmt.Sprintf("Linked **%s** to <@%d>.%s", wallet, target, started))
}

func (b *Bot) handleUnlinkCharacter(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	name := optString(opts, "name")

	owner, _, ok := b.resolveCharacter(name)
	if !ok {
		respondEphemeral(s, i, fmt.Sprintf("No character linked under %q.", name))
		return
	}
	invoker, err := ownerID(i)
	if err != nil || (owner != invoker && !canManage(i)) {
		respondEphemeral(s, i, "You can only unlink your own characters.")
		return
	}
	if _, err := b.links.Unlink(name); err != nil {
		respondEphemeral(s, i, "Unlink failed, try again.")
		return
	}
	respond(s, i, fmt.Sprintf("Unlinked **%s**.", links.Normalize(name)))
}

func (b *Bot) handleWhoIs(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	name := optString(opts, "name")
	owner, wallet, ok := b.resolveCharacter(name)
	if !ok {
		respondEphemeral(s, i, fmt.Sprintf("No character linked under %q.", name))
		return
	}
	respondEphemeral(s, i, fmt.Sprintf("**%s** belongs to <@%d>.", wallet, owner))
}

func (b *Bot) handleShop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		respondEphemeral(s, i, "Pick a shop action.")
		return
	}
	sub := data.Options[0]
	args := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, o := range sub.Options {
		args[o.Name] = o
	}

	switch sub.Name {
	case "towns":
		towns := b.shops.Towns()
		if len(towns) == 0 {
			respondEphemeral(s, i, "No towns yet.")
			return
		}
		respondEphemeral(s, i, "**Towns:** "+strings.Join(towns, ", "))
	case "shops":
		town := optString(args, "town")
		shops := b.shops.Shops(town)
		if len(shops) == 0 {
			respondEphemeral(s, i, fmt.Sprintf("No shops in %q.", town))
			return
		}
		respondEphemeral(s, i, fmt.Sprintf("**Shops in %s:** %s", town, strings.Join(shops, ", ")))
	case "list":
		town, shopName := optString(args, "town"), optString(args, "shop")
		items := b.shops.Items(town, shopName)
		if len(items) == 0 {
			respondEphemeral(s, i, fmt.Sprintf("Nothing on the shelves at %s in %s.", shopName, town))
			return
		}
		embeds := shopEmbeds(town, shopName, items)
		respondEmbed(s, i, embeds[0], true)
		for _, embed := range embeds[1:] {
			if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
				Embeds: []*discordgo.MessageEmbed{embed},
				Flags:  discordgo.MessageFlagsEphemeral,
			}); err != nil {
				b.log.Warn("shop page followup failed", "err", err)
				return
			}
		}
	case "buy":
		b.handleShopBuy(s, i, args)
	}
}

func (b *Bot) handleShopBuy(s *discordgo.Session, i *discordgo.InteractionCreate, args map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	town, shopName, item := optString(args, "town"), optString(args, "shop"), optString(args, "item")
	qty := optInt(args, "qty", 1)
	if qty < 1 {
		qty = 1
	}

	buyer, err := ownerID(i)
	if err != nil {
		respondEphemeral(s, i, "Could not work out who you are.")
		return
	}
	buyer, wallet, err := b.payerFor(buyer, optString(args, "character"), canManage(i))
	if err != nil {
		respondEphemeral(s, i, "Cannot pay from there: "+err.Error()+".")
		return
	}
	display := "your vault"
	if wallet != "" {
		display = wallet
	}

	total, ok, err := b.shops.Buy(town, shopName, item, qty)
	if err != nil {
		b.log.Error("shop buy failed", "err", err)
		respondEphemeral(s, i, "The shopkeeper is out today, try again.")
		return
	}
	if !ok {
		respondEphemeral(s, i, fmt.Sprintf("%s has no %d× %s in stock.", shopName, qty, item))
		return
	}

	paid, err := b.ledger.SubtractIfEnough(buyer, total, wallet)
	if err != nil {
		b.log.Error("shop debit failed", "err", err)
		respondEphemeral(s, i, "The till jammed, try again.")
		return
	}
	if !paid {
		// Return reserved stock before refusing the sale.
		if _, err := b.shops.Restock(town, shopName, item, qty); err != nil {
			b.log.Error("stock return failed", "err", err)
		}
		respondEphemeral(s, i, fmt.Sprintf("Not enough in %s for %s (need %s).", display, item, total.FormatLong()))
		return
	}

	b.postReceipt(s, buyer, wallet, total.Neg(), fmt.Sprintf("Bought %d× %s at %s, %s", qty, item, shopName, town))
	respond(s, i, fmt.Sprintf("Bought %d× **%s** for %s from %s. %s now holds %s.",
		qty, item, total.FormatLong(), shopName, display, b.ledger.Balance(buyer, wallet).FormatLong()))
}

func (b *Bot) handleShopSet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	price, err := currency.ParseStrict(optString(opts, "price"))
	if err != nil {
		respondEphemeral(s, i, fmt.Sprintf("Bad price: %v", err))
		return
	}
	var qty *int64
	if o, ok := opts["qty"]; ok {
		n := o.IntValue()
		qty = &n
	}
	if err := b.shops.SetItem(optString(opts, "town"), optString(opts, "shop"), optString(opts, "item"), price, qty); err != nil {
		respondEphemeral(s, i, "Saving the shelf failed, try again.")
		return
	}
	respond(s, i, fmt.Sprintf("Stocked **%s** at %s.", optString(opts, "item"), price.FormatLong()))
}

func (b *Bot) handleShopRestock(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	found, err := b.shops.Restock(optString(opts, "town"), optString(opts, "shop"), optString(opts, "item"), optInt(opts, "delta", 0))
	if err != nil {
		respondEphemeral(s, i, "Saving the shelf failed, try again.")
		return
	}
	if !found {
		respondEphemeral(s, i, "No such item.")
		return
	}
	respond(s, i, fmt.Sprintf("Restocked **%s**.", optString(opts, "item")))
}

func (b *Bot) handleShopPrice(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	price, err := currency.ParseStrict(optString(opts, "price"))
	if err != nil {
		respondEphemeral(s, i, fmt.Sprintf("Bad price: %v", err))
		return
	}
	found, err := b.shops.SetPrice(optString(opts, "town"), optString(opts, "shop"), optString(opts, "item"), price)
	if err != nil {
		respondEphemeral(s, i, "Saving the shelf failed, try again.")
		return
	}
	if !found {
		respondEphemeral(s, i, "No such item.")
		return
	}
	respond(s, i, fmt.Sprintf("**%s** now costs %s.", optString(opts, "item"), price.FormatLong()))
}

func (b *Bot) handleShopRemove(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	found, err := b.shops.Remove(optString(opts, "town"), optString(opts, "shop"), optString(opts, "item"))
	if err != nil {
		respondEphemeral(s, i, "Saving the shelf failed, try again.")
		return
	}
	if !found {
		respondEphemeral(s, i, "No such item.")
		return
	}
	respond(s, i, fmt.Sprintf("Removed **%s**.", optString(opts, "item")))
}

func (b *Bot) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	kind := optString(opts, "kind")
	if kind == "" {
		kind = "players"
	}
	respondEmbed(s, i, b.leaderboardEmbed(kind, 10), false)
}

func (b *Bot) handleAwardCharacter(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	name := optString(opts, "name")
	owner, wallet, ok := b.resolveCharacter(name)
	if !ok {
		respondEphemeral(s, i, fmt.Sprintf("No character linked under %q.", name))
		return
	}
	amount, err := currency.ParseStrict(optString(opts, "amount"))
	if err != nil {
		respondEphemeral(s, i, fmt.Sprintf("Bad amount: %v", err))
		return
	}
	if err := b.ledger.Add(owner, amount, wallet); err != nil {
		respondEphemeral(s, i, "The ledger would not save, try again.")
		return
	}
	note := optString(opts, "note")
	b.postReceipt(s, owner, wallet, amount, note)
	respondEmbed(s, i, b.receiptEmbed(owner, wallet, amount, note), false)
}

func (b *Bot) handleVaultCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if b.cfg.VaultForumID == "" {
		respondEphemeral(s, i, "No vault forum is configured.")
		return
	}
	owner, err := ownerID(i)
	if err != nil {
		respondEphemeral(s, i, "Could not work out who you are.")
		return
	}
	opts := options(i)
	wallet := ""
	display := displayName(i)
	if name := optString(opts, "character"); name != "" {
		var ok bool
		var charOwner int64
		charOwner, wallet, ok = b.resolveCharacter(name)
		if !ok {
			respondEphemeral(s, i, fmt.Sprintf("No character linked under %q.", name))
			return
		}
		if charOwner != owner && !canManage(i) {
			respondEphemeral(s, i, "That character belongs to someone else.")
			return
		}
		owner, display = charOwner, wallet
	}

	if _, exists := b.vaults.Get(owner, wallet); exists {
		respondEphemeral(s, i, "A vault thread already exists, unlink it first.")
		return
	}

	number := vault.NewVaultNumber()
	opening := b.ledger.Balance(owner, wallet)
	thread, err := s.ForumThreadStartComplex(b.cfg.VaultForumID, &discordgo.ThreadStart{
		Name:                fmt.Sprintf("Vault %s: %s", number, display),
		AutoArchiveDuration: 10080,
	}, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{vaultWelcomeEmbed(number, display, opening)},
	})
	if err != nil {
		b.log.Error("vault thread create failed", "err", err)
		respondEphemeral(s, i, "Could not open the vault thread.")
		return
	}
	if err := b.vaults.Set(owner, wallet, vault.Info{ThreadID: thread.ID, VaultNumber: number}); err != nil {
		respondEphemeral(s, i, "Vault opened but could not be recorded, link it manually.")
		return
	}
	respond(s, i, fmt.Sprintf("Vault %s opened: <#%s>", number, thread.ID))
}

func (b *Bot) handleVaultLink(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	ch := opts["thread"].ChannelValue(s)
	owner, err := parseSnowflake(opts["player"].UserValue(s).ID)
	if err != nil {
		respondEphemeral(s, i, "Bad player id.")
		return
	}
	wallet := ""
	if name := optString(opts, "character"); name != "" {
		wallet = links.Normalize(name)
	}
	number := vault.NewVaultNumber()
	if err := b.vaults.Set(owner, wallet, vault.Info{ThreadID: ch.ID, VaultNumber: number}); err != nil {
		respondEphemeral(s, i, "Recording the vault failed, try again.")
		return
	}
	respond(s, i, fmt.Sprintf("Linked <#%s> as vault %s.", ch.ID, number))
}

func (b *Bot) handleVaultUnlink(s *discordgo.Session, i *discordgo.InteractionCreate) {
	owner, err := ownerID(i)
	if err != nil {
		respondEphemeral(s, i, "Could not work out who you are.")
		return
	}
	opts := options(i)
	wallet := ""
	if name := optString(opts, "character"); name != "" {
		charOwner, w, ok := b.resolveCharacter(name)
		if !ok {
			respondEphemeral(s, i, fmt.Sprintf("No character linked under %q.", name))
			return
		}
		if charOwner != owner && !canManage(i) {
			respondEphemeral(s, i, "That character belongs to someone else.")
			return
		}
		owner, wallet = charOwner, w
	}
	removed, err := b.vaults.Unlink(owner, wallet)
	if err != nil {
		respondEphemeral(s, i, "Recording the change failed, try again.")
		return
	}
	if !removed {
		respondEphemeral(s, i, "No vault thread to unlink.")
		return
	}
	respond(s, i, "Vault thread detached.")
}

func (b *Bot) handleTip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := options(i)
	sender, err := ownerID(i)
	if err != nil {
		respondEphemeral(s, i, "Could not work out who you are.")
		return
	}
	name := optString(opts, "name")
	receiver, wallet, ok := b.resolveCharacter(name)
	if !ok {
		respondEphemeral(s, i, fmt.Sprintf("No character linked under %q.", name))
		return
	}
	amount, err := currency.ParseStrict(optString(opts, "amount"))
	if err != nil {
		respondEphemeral(s, i, fmt.Sprintf("Bad amount: %v", err))
		return
	}

	sender, fromWallet, err := b.payerFor(sender, optString(opts, "from_character"), canManage(i))
	if err != nil {
		respondEphemeral(s, i, "Cannot pay from there: "+err.Error()+".")
		return
	}
	fromDisplay := displayName(i)
	if fromWallet != "" {
		fromDisplay = fromWallet
	}

	moved, err := b.ledger.Transfer(sender, receiver, amount, fromWallet, wallet)
	if err != nil {
		respondEphemeral(s, i, "The ledger would not save, try again.")
		return
	}
	if !moved {
		respondEphemeral(s, i, "Tip refused: check the amount and the sender's balance.")
		return
	}
	b.postReceipt(s, sender, fromWallet, amount.Neg(), fmt.Sprintf("Tip to %s", wallet))
	b.postReceipt(s, receiver, wallet, amount, fmt.Sprintf("Tip from %s", fromDisplay))
	respond(s, i, fmt.Sprintf("Sent %s to **%s**.", amount.FormatLong(), wallet))
}

func (b *Bot) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, helpEmbed(), true)
}

func displayName(i *discordgo.InteractionCreate) string {
	if i.Member != nil {
		if i.Member.Nick != "" {
			return i.Member.Nick
		}
		if i.Member.User != nil {
			return i.Member.User.Username
		}
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}

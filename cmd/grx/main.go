package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gringotts/internal/bank"
	"gringotts/internal/currency"
	"gringotts/internal/links"
	"gringotts/internal/shop"

	"github.com/spf13/cobra"
)

// stores lazily opens the data files under the --data directory.
type stores struct {
	dir string
}

func (st stores) ledger() *bank.Ledger {
	return bank.New(filepath.Join(st.dir, "balances.json"), nil)
}

func (st stores) links() *links.Table {
	return links.New(filepath.Join(st.dir, "character_links.json"), nil)
}

func (st stores) shops() *shop.Inventory {
	return shop.New(filepath.Join(st.dir, "shops.json"), nil)
}

func main() {
	st := stores{}

	root := &cobra.Command{
		Use:   "grx",
		Short: "Gringotts ledger admin tool",
		Long: "Operates directly on the bot's data directory.\n" +
			"Stop the bot first: the data files assume a single writing process.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&st.dir, "data", "data", "data directory")

	root.AddCommand(
		newBalanceCmd(&st),
		newAwardCmd(&st),
		newTransferCmd(&st),
		newTopCmd(&st),
		newLinksCmd(&st),
		newShopCmd(&st),
		newRenameWalletCmd(&st),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseOwner(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("owner id %q is not a number", arg)
	}
	return id, nil
}

// walletArg maps the CLI's "-" placeholder to the owner-level vault.
func walletArg(arg string) string {
	if arg == "-" {
		return ""
	}
	return arg
}

func newBalanceCmd(st *stores) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <owner> [wallet]",
		Short: "Show an owner's balances",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			ledger := st.ledger()
			if len(args) == 2 {
				printMoneyRow(walletDisplay(args[1]), ledger.Balance(owner, walletArg(args[1])))
				return nil
			}
			printMoneyRow("vault", ledger.Balance(owner, ""))
			for wallet, bal := range ledger.Wallets(owner) {
				printMoneyRow(wallet, bal)
			}
			printTotalRow(ledger.OwnerTotal(owner))
			return nil
		},
	}
}

func newAwardCmd(st *stores) *cobra.Command {
	return &cobra.Command{
		Use:   "award <owner> <wallet|-> <amount>",
		Short: "Credit (or with a negative amount, debit) a wallet",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			amount, err := currency.ParseStrict(args[2])
			if err != nil {
				return err
			}
			ledger := st.ledger()
			wallet := walletArg(args[1])
			if err := ledger.Add(owner, amount, wallet); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("%s credited, now %s", walletDisplay(args[1]), ledger.Balance(owner, wallet).Format()))
			return nil
		},
	}
}

func newTransferCmd(st *stores) *cobra.Command {
	var fromWallet, toWallet string
	cmd := &cobra.Command{
		Use:   "transfer <from-owner> <to-owner> <amount>",
		Short: "Move money between owners",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			to, err := parseOwner(args[1])
			if err != nil {
				return err
			}
			amount, err := currency.ParseStrict(args[2])
			if err != nil {
				return err
			}
			moved, err := st.ledger().Transfer(from, to, amount, fromWallet, toWallet)
			if err != nil {
				return err
			}
			if !moved {
				printWarn("transfer refused: check the amount and sender balance")
				return nil
			}
			printSuccess(fmt.Sprintf("moved %s", amount.Format()))
			return nil
		},
	}
	cmd.Flags().StringVar(&fromWallet, "from-wallet", "", "sender wallet (default the owner vault)")
	cmd.Flags().StringVar(&toWallet, "to-wallet", "", "receiver wallet (default the owner vault)")
	return cmd
}

func newTopCmd(st *stores) *cobra.Command {
	var characters bool
	var limit int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Richest owners or characters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger := st.ledger()
			if characters {
				rank := 0
				for _, row := range ledger.TopWallets(limit) {
					if row.Wallet == "" {
						continue
					}
					rank++
					printRankRow(rank, fmt.Sprintf("%s (owner %d)", row.Wallet, row.OwnerID), row.Balance)
				}
				return nil
			}
			for idx, row := range ledger.TopOwners(limit) {
				printRankRow(idx+1, strconv.FormatInt(row.OwnerID, 10), row.Total)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&characters, "characters", false, "rank character wallets instead of owners")
	cmd.Flags().IntVar(&limit, "limit", 10, "rows to show")
	return cmd
}

func newLinksCmd(st *stores) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage character links",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all character links",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				for name, owner := range st.links().All() {
					printInfo(fmt.Sprintf("%-24s %d", name, owner))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <name> <owner>",
			Short: "Link a character to an owner",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				owner, err := parseOwner(args[1])
				if err != nil {
					return err
				}
				if err := st.links().Link(args[0], owner); err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("linked %q", links.Normalize(args[0])))
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <name>",
			Short: "Remove a character link",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				removed, err := st.links().Unlink(args[0])
				if err != nil {
					return err
				}
				if !removed {
					printWarn("no such link")
					return nil
				}
				printSuccess("unlinked")
				return nil
			},
		},
	)
	return cmd
}

func newShopCmd(st *stores) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Manage shop inventory",
	}

	var qty int64 = -1
	setCmd := &cobra.Command{
		Use:   "set <town> <shop> <item> <price>",
		Short: "Add or replace an item",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := currency.ParseStrict(args[3])
			if err != nil {
				return err
			}
			var stock *int64
			if qty >= 0 {
				stock = &qty
			}
			if err := st.shops().SetItem(args[0], args[1], args[2], price, stock); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("stocked %q at %s", args[2], price.Format()))
			return nil
		},
	}
	setCmd.Flags().Int64Var(&qty, "qty", -1, "stock quantity (omit for unlimited)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list [town [shop]]",
			Short: "Browse the catalog",
			Args:  cobra.MaximumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				inv := st.shops()
				switch len(args) {
				case 0:
					for _, town := range inv.Towns() {
						printInfo(town)
					}
				case 1:
					for _, name := range inv.Shops(args[0]) {
						printInfo(name)
					}
				default:
					for _, it := range inv.Items(args[0], args[1]) {
						stock := "unlimited"
						if it.Qty != nil {
							stock = fmt.Sprintf("%d in stock", *it.Qty)
						}
						printInfo(fmt.Sprintf("%-24s %-12s %s", it.Name, it.Price.Format(), stock))
					}
				}
				return nil
			},
		},
		setCmd,
		&cobra.Command{
			Use:   "rm <town> <shop> <item>",
			Short: "Remove an item",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				removed, err := st.shops().Remove(args[0], args[1], args[2])
				if err != nil {
					return err
				}
				if !removed {
					printWarn("no such item")
					return nil
				}
				printSuccess("removed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Seed the example catalog",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := st.shops().SeedExample(); err != nil {
					return err
				}
				printSuccess("seeded")
				return nil
			},
		},
	)
	return cmd
}

func newRenameWalletCmd(st *stores) *cobra.Command {
	return &cobra.Command{
		Use:   "rename-wallet <owner> <old> <new>",
		Short: "Rename a character wallet, keeping its balance",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0])
			if err != nil {
				return err
			}
			renamed, err := st.ledger().RenameWallet(owner, args[1], args[2])
			if err != nil {
				return err
			}
			if !renamed {
				printWarn("rename refused: old wallet missing or new name taken")
				return nil
			}
			printSuccess(fmt.Sprintf("renamed %q to %q", args[1], args[2]))
			return nil
		},
	}
}

func walletDisplay(arg string) string {
	if arg == "-" || arg == "" {
		return "vault"
	}
	return arg
}

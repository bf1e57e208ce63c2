package main

import (
	"gringotts/internal/currency"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func printMoneyRow(label string, amount currency.Money) {
	accent.Printf("%-24s", label)
	neutral.Println(amount.Format())
}

func printTotalRow(total currency.Money) {
	accent.Printf("%-24s", "total")
	success.Println(total.Format())
}

func printRankRow(rank int, label string, amount currency.Money) {
	accent.Printf("%3d. ", rank)
	neutral.Printf("%-32s", label)
	success.Println(amount.Format())
}

package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gringotts/internal/currency"
	"gringotts/internal/earn"

	"github.com/bwmarrin/discordgo"
)

// Payouts run on UTC walltime: the pending queue flushes shortly after
// midnight for the day just ended, wages go out early Monday.
const (
	flushHour, flushMinute = 0, 5
	paydayWeekday          = time.Monday
	payHour, payMinute     = 0, 10
)

func (b *Bot) runDailyFlush(ctx context.Context) {
	for {
		timer := time.NewTimer(time.Until(nextDaily(time.Now().UTC(), flushHour, flushMinute)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case now := <-timer.C:
			b.flushPending(now.UTC())
		}
	}
}

// flushPending posts one summary receipt per wallet for the previous UTC day.
func (b *Bot) flushPending(now time.Time) {
	day := earn.DateString(now.Add(-time.Hour))
	buckets, err := b.pending.TakeDay(day)
	if err != nil {
		b.log.Error("pending flush failed", "day", day, "err", err)
		return
	}
	for _, wallets := range buckets {
		for key, rec := range wallets {
			ownerStr, wallet, _ := cutWalletKey(key)
			owner, err := parseSnowflake(ownerStr)
			if err != nil {
				b.log.Warn("bad wallet key in pending queue", "key", key)
				continue
			}
			note := fmt.Sprintf("Role-play earnings for %s (%d posts)", day, rec.Count)
			b.postReceipt(b.ses, owner, wallet, currency.FromKnuts(rec.Knuts), note)
		}
	}
}

func (b *Bot) runPayday(ctx context.Context) {
	for {
		timer := time.NewTimer(time.Until(nextWeekly(time.Now().UTC(), paydayWeekday, payHour, payMinute)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			b.payWages()
		}
	}
}

// payWages pays the weekly base to every member holding the adult role,
// plus any job role bonuses, into their own vault.
func (b *Bot) payWages() {
	roles, err := b.ses.GuildRoles(b.cfg.GuildID)
	if err != nil {
		b.log.Error("payday role fetch failed", "err", err)
		return
	}
	roleName := make(map[string]string, len(roles))
	for _, r := range roles {
		roleName[r.ID] = r.Name
	}

	paid := 0
	after := ""
	for {
		members, err := b.ses.GuildMembers(b.cfg.GuildID, after, 1000)
		if err != nil {
			b.log.Error("payday member fetch failed", "err", err)
			return
		}
		if len(members) == 0 {
			break
		}
		for _, m := range members {
			after = m.User.ID
			if m.User.Bot {
				continue
			}
			pay, eligible := b.wageFor(m, roleName)
			if !eligible {
				continue
			}
			owner, err := parseSnowflake(m.User.ID)
			if err != nil {
				continue
			}
			if err := b.ledger.Add(owner, pay, ""); err != nil {
				b.log.Error("payday credit failed", "owner", owner, "err", err)
				continue
			}
			b.postReceipt(b.ses, owner, "", pay, "Weekly wages")
			b.notifyWages(m.User.ID, pay)
			paid++
		}
		if len(members) < 1000 {
			break
		}
	}
	b.log.Info("payday complete", "paid", paid)
}

// wageFor computes a member's weekly pay. Job role bonuses always count,
// the base pay needs the adult role, and anyone whose total comes out
// positive gets paid.
func (b *Bot) wageFor(m *discordgo.Member, roleName map[string]string) (currency.Money, bool) {
	pay := currency.Zero()
	for _, rid := range m.Roles {
		name := roleName[rid]
		if name == b.cfg.AdultRole {
			pay = pay.Add(b.cfg.WeeklyPay)
		}
		if bonus, ok := b.cfg.JobBonuses[name]; ok {
			pay = pay.Add(bonus)
		}
	}
	return pay, pay.GreaterThan(currency.Zero())
}

func (b *Bot) notifyWages(userID string, pay currency.Money) {
	ch, err := b.ses.UserChannelCreate(userID)
	if err != nil {
		return
	}
	_, _ = b.ses.ChannelMessageSend(ch.ID, fmt.Sprintf("Payday! %s has been deposited in your vault.", pay.FormatLong()))
}

// cutWalletKey splits the queue's "<owner_id>:<wallet>" key.
func cutWalletKey(key string) (owner, wallet string, ok bool) {
	return strings.Cut(key, ":")
}

// nextDaily returns the next occurrence of hh:mm UTC strictly after now.
func nextDaily(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// nextWeekly returns the next weekday at hh:mm UTC strictly after now.
func nextWeekly(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	for next.Weekday() != weekday || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

package voting

import (
	"time"

	"github.com/marcelojr/chad-battle/internal/domain"
)

const (
	CounterKeyBattleTotal = "battle:total"
	CounterKeyChadTotal   = "profile:chad:total"
	CounterKeyJeetTotal   = "profile:jeet:total"
)

// CounterKeyBattleDay usa o dia UTC; o Tally aplica TTL em chaves ":day:".
func CounterKeyBattleDay(at time.Time) string {
	return "battle:day:" + at.UTC().Format("20060102")
}

func CounterKeyProfileVote(voteType domain.VoteType) string {
	if voteType == domain.VoteJeet {
		return CounterKeyJeetTotal
	}
	return CounterKeyChadTotal
}

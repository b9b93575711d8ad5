package table

import (
	"time"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/dfa"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/statemachine"
)

// RunRounds drives a table's round loop (spec section 4.4) to completion:
// admit, bet collection, initial deal, player turns, dealer draw, and
// settlement, looping back to admit until the table is empty. Callers
// spawn this as a goroutine the first time Join reports spawnLoop=true.
func RunRounds(t *Table) {
	sm := statemachine.NewStateMachine(t, admitPhase)
	for !sm.Done() {
		sm.Dispatch(nil)
	}
}

// admitPhase is round-loop phase (a). It exits the loop (returning nil)
// once the table has no seated and no pending players, clearing
// loopAlive so a future Join spawns a fresh RunRounds.
func admitPhase(t *Table, _ func(string, statemachine.StateEvent)) statemachine.StateFn[Table] {
	t.mu.Lock()
	if len(t.players)+len(t.pending) == 0 {
		t.loopAlive = false
		t.midRound = false
		t.mu.Unlock()
		return nil
	}

	admitted := make([]*PlayerInfo, 0, len(t.pending))
	for _, p := range t.pending {
		if p.IsDisconnected() {
			continue
		}
		admitted = append(admitted, p)
		t.players = append(t.players, p)
	}
	t.pending = nil
	t.midRound = true
	t.mu.Unlock()

	for _, p := range admitted {
		_ = p.Deliver(protocol.JoinTableResponse{Settings: t.Settings})
	}
	t.broadcastInfo("Accepting bets!")
	return betPhase
}

// betPhase is round-loop phase (b): a 15-second window during which
// seated players may Bet (handled out-of-band by Table.PlaceBet, called
// from the connection's command dispatch). Anyone still without a bet
// when the window closes is timed out, moved to IN_PROGRESS, and
// requeued as pending, to be admitted at the next admit phase.
func betPhase(t *Table, _ func(string, statemachine.StateEvent)) statemachine.StateFn[Table] {
	deadline := time.Now().Add(betWindow)
	for time.Now().Before(deadline) {
		time.Sleep(pollEvery)
	}

	t.mu.Lock()
	var bettors, timedOut []*PlayerInfo
	for _, p := range t.players {
		if p.IsDisconnected() {
			continue
		}
		if p.Bet() > 0 {
			bettors = append(bettors, p)
		} else {
			timedOut = append(timedOut, p)
		}
	}
	t.players = bettors
	t.pending = append(t.pending, timedOut...)
	t.mu.Unlock()

	for _, p := range timedOut {
		_ = p.Deliver(protocol.ASCIIResponse{Code: protocol.RCTimeout, Text: "bet window expired, you will be seated for a future round"})
	}
	return dealPhase
}

// dealPhase is round-loop phase (c). If nobody bet this round it resets
// straight back to admit without advancing; otherwise it deals one card
// to each bettor, one visible card to the dealer, then a second card to
// each bettor.
func dealPhase(t *Table, _ func(string, statemachine.StateEvent)) statemachine.StateFn[Table] {
	t.mu.Lock()
	bettors := append([]*PlayerInfo{}, t.players...)
	t.mu.Unlock()

	if len(bettors) == 0 {
		t.mu.Lock()
		t.midRound = false
		t.mu.Unlock()
		return admitPhase
	}

	t.broadcastInfo("Starting round...")

	dealOne := func(p *PlayerInfo) {
		if p.IsDisconnected() {
			return
		}
		hand, soft, hard := p.AddCard(t.deck.Draw())
		_ = p.Deliver(protocol.CardHandResponse{
			Code: protocol.RCCardContinue, Holder: 1, SoftValue: soft, HardValue: hard, Cards: hand,
		})
	}

	for _, p := range bettors {
		dealOne(p)
	}

	t.mu.Lock()
	t.dealerHand = append(t.dealerHand, t.deck.Draw())
	dealerCards := append([]protocol.Card{}, t.dealerHand...)
	t.mu.Unlock()
	dsoft, dhard := protocol.HandValue(dealerCards)
	t.broadcast(protocol.CardHandResponse{
		Code: protocol.RCCardContinue, Holder: 0, SoftValue: dsoft, HardValue: dhard, Cards: dealerCards,
	})

	for _, p := range bettors {
		dealOne(p)
	}

	return turnsPhase
}

// turnsPhase is round-loop phase (d): in fixed player order, naturals are
// told so (1-1-4) and skip their turn, to be paid in settlePhase, and
// everyone else gets a 30-second window to Hit,
// Stand, or DoubleDown (handled out-of-band by the matching Table
// methods), enforced here by polling the connection's DFA state.
func turnsPhase(t *Table, _ func(string, statemachine.StateEvent)) statemachine.StateFn[Table] {
	t.mu.Lock()
	bettors := append([]*PlayerInfo{}, t.players...)
	t.mu.Unlock()

	for _, p := range bettors {
		if p.IsDisconnected() {
			continue
		}

		hand := p.Hand()
		soft, hard := protocol.HandValue(hand)
		if protocol.IsNatural(hand) {
			_ = p.Deliver(protocol.CardHandResponse{
				Code: protocol.RCCardBlackjack, Holder: 1, SoftValue: soft, HardValue: hard, Cards: hand,
			})
			t.broadcastInfo(p.Username + " has a natural blackjack! Skipping turn.")
			continue
		}

		_ = p.Deliver(protocol.CardHandResponse{
			Code: protocol.RCCardTurn, Holder: 1, SoftValue: soft, HardValue: hard, Cards: hand,
		})
		t.broadcastInfo("it is " + p.Username + "'s turn")

		deadline := time.Now().Add(turnWindow)
		for time.Now().Before(deadline) && !p.IsDisconnected() && p.State() != dfa.WaitForDealer {
			time.Sleep(pollEvery)
		}
		if !p.IsDisconnected() && p.State() != dfa.WaitForDealer {
			_ = p.Deliver(protocol.ASCIIResponse{Code: protocol.RCTimeout, Text: "turn timed out"})
		}
	}

	return dealerPhase
}

// dealerPhase is round-loop phase (e): the scripted dealer draw policy.
func dealerPhase(t *Table, _ func(string, statemachine.StateEvent)) statemachine.StateFn[Table] {
	for {
		t.mu.Lock()
		soft, hard := protocol.HandValue(t.dealerHand)
		hitSoft17 := t.Settings.HitSoft17
		t.mu.Unlock()

		if hard > 21 || soft == 21 || hard == 21 || protocol.Value(soft, hard) >= 18 || hard == 17 {
			break
		}
		if soft == 17 && !hitSoft17 {
			break
		}

		t.mu.Lock()
		t.dealerHand = append(t.dealerHand, t.deck.Draw())
		cards := append([]protocol.Card{}, t.dealerHand...)
		t.mu.Unlock()
		dsoft, dhard := protocol.HandValue(cards)
		t.broadcast(protocol.CardHandResponse{
			Code: protocol.RCCardContinue, Holder: 0, SoftValue: dsoft, HardValue: dhard, Cards: cards,
		})
	}
	return settlePhase
}

// settlePhase is round-loop phase (f): pays out every bettor per the
// payout table, clears bets and hands, and loops back to admit.
func settlePhase(t *Table, _ func(string, statemachine.StateEvent)) statemachine.StateFn[Table] {
	t.mu.Lock()
	bettors := append([]*PlayerInfo{}, t.players...)
	dealerHand := append([]protocol.Card{}, t.dealerHand...)
	payoffHigh, payoffLow := uint64(t.Settings.PayoffHigh), uint64(t.Settings.PayoffLow)
	t.dealerHand = nil
	t.mu.Unlock()

	dealerSoft, dealerHard := protocol.HandValue(dealerHand)
	dealerValue := protocol.Value(dealerSoft, dealerHard)
	dealerBust := dealerHard > 21
	dealerNatural := protocol.IsNatural(dealerHand)

	for _, p := range bettors {
		bet := p.Bet()
		hand := p.Hand()
		soft, hard := protocol.HandValue(hand)
		value := protocol.Value(soft, hard)
		playerBust := hard > 21
		playerNatural := protocol.IsNatural(hand)

		var payout uint32
		switch {
		case playerBust:
			payout = 0
		case dealerBust || value > dealerValue:
			payout = uint32(uint64(bet) * payoffHigh / payoffLow)
		case value == 21 && dealerValue == 21 && playerNatural && !dealerNatural:
			payout = uint32(uint64(bet) * payoffHigh / payoffLow)
		case value == 21 && dealerValue == 21 && dealerNatural && !playerNatural:
			payout = 0
		case value == dealerValue:
			payout = bet
		default:
			payout = 0
		}

		if payout > 0 {
			p.Account.Credit(payout)
		}
		_ = p.Deliver(protocol.WinningsResponse{Code: protocol.RCWinnings, Winnings: payout})
		p.ClearRound()
	}

	t.mu.Lock()
	t.midRound = false
	t.mu.Unlock()
	return admitPhase
}

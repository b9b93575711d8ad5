// Package table implements the per-table blackjack game room and its
// asynchronous round loop (spec section 4.4): admitting players, timed bet
// collection, the initial deal, player turns, the dealer's scripted draw
// policy, and settlement.
package table

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
)

// ErrTableFull is returned by Join when seating the player would exceed
// Settings.MaxPlayers (spec section 3's |players|+|pending| <= max_players
// invariant, property P6).
var ErrTableFull = errors.New("table: full")

const (
	betWindow  = 15 * time.Second
	turnWindow = 30 * time.Second
	pollEvery  = 1 * time.Second
)

// Table is a blackjack game room (spec section 3). Settings are fixed at
// creation; players/pending/deck/dealer hand are mutable and guarded by
// mu, held across per-phase mutations but never across the inter-phase
// sleeps (spec section 5).
type Table struct {
	ID       uint16
	Settings protocol.TableSettings

	log slog.Logger
	rng *rand.Rand

	mu         sync.Mutex
	players    []*PlayerInfo
	pending    []*PlayerInfo
	deck       *Deck
	dealerHand []protocol.Card
	loopAlive  bool // a RunRounds goroutine is currently executing
	midRound   bool // past admit, inside bet-collection..settlement
}

// New creates a table with the given id and settings. rng seeds both the
// deck shuffle and any future reshuffles.
func New(id uint16, settings protocol.TableSettings, log slog.Logger, rng *rand.Rand) *Table {
	return &Table{
		ID:       id,
		Settings: settings,
		log:      log,
		rng:      rng,
		deck:     NewDeck(int(settings.NumberDecks), rng),
	}
}

// SeatedCount returns |players| + |pending|.
func (t *Table) SeatedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.players) + len(t.pending)
}

// Join seats p at the table (spec section 4.4(a)). If a round is currently
// active, p is queued as pending and immediately told so (reply 1-1-0,
// state IN_PROGRESS); the 3-1-0 seating notice and ENTER_BETS transition
// arrive later from the admit phase of the next round. If no round is
// active, p is queued as pending for the very next admit phase, and
// spawnLoop reports whether the caller must start a new RunRounds
// goroutine (no round loop is currently running for this table).
func (t *Table) Join(p *PlayerInfo) (spawnLoop bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.players)+len(t.pending) >= int(t.Settings.MaxPlayers) {
		return false, ErrTableFull
	}
	t.pending = append(t.pending, p)

	if t.midRound {
		_ = p.Deliver(protocol.ASCIIResponse{
			Code: protocol.RCJoinInProgress,
			Text: "a round is already in progress, you will be seated for the next one",
		})
		return false, nil
	}
	if !t.loopAlive {
		t.loopAlive = true
		return true, nil
	}
	return false, nil
}

// Leave removes p from the table, wherever it currently sits (active or
// pending), and acknowledges with 2-1-5/ACCOUNT (spec section 4.2's "any
// table state + LEAVETABLE success -> ACCOUNT"). Property P7 depends on
// the caller clearing its connection->table mapping once this returns.
func (t *Table) Leave(p *PlayerInfo) {
	t.mu.Lock()
	t.players = removePlayer(t.players, p)
	t.pending = removePlayer(t.pending, p)
	t.mu.Unlock()

	_ = p.Deliver(protocol.ASCIIResponse{Code: protocol.RCLeaveOK, Text: "left table"})
}

func removePlayer(list []*PlayerInfo, target *PlayerInfo) []*PlayerInfo {
	out := list[:0]
	for _, p := range list {
		if p != target {
			out = append(out, p)
		}
	}
	return out
}

// Shutdown kicks every seated and pending player back to ACCOUNT with a
// 4-1-4 notice, marks each PlayerInfo disconnected so the round loop stops
// writing to them, and empties the table (spec section 4.4 "Shutdown").
func (t *Table) Shutdown() {
	t.mu.Lock()
	all := append(append([]*PlayerInfo{}, t.players...), t.pending...)
	t.players = nil
	t.pending = nil
	t.mu.Unlock()

	for _, p := range all {
		_ = p.Deliver(protocol.ASCIIResponse{Code: protocol.RCTableClosing, Text: "table is being closed"})
		p.MarkDisconnected()
	}
}

func (t *Table) broadcast(resp protocol.Response) {
	t.mu.Lock()
	players := append([]*PlayerInfo{}, t.players...)
	t.mu.Unlock()
	for _, p := range players {
		_ = p.Deliver(resp)
	}
}

func (t *Table) broadcastInfo(text string) {
	t.broadcast(protocol.ASCIIResponse{Code: protocol.RCRoundInfo, Text: text})
}

// PlaceBet validates and applies a Bet command from a player in
// ENTER_BETS (spec section 4.4(b)). On success the account is debited,
// the bet recorded, and 2-1-0 sent (moving the player to WAIT_FOR_TURN).
// On failure 5-1-0 is sent and the player's state is unchanged.
func (t *Table) PlaceBet(p *PlayerInfo, amount uint32) error {
	if amount < t.Settings.BetMin || amount > t.Settings.BetMax {
		_ = p.Deliver(protocol.ASCIIResponse{Code: protocol.RCCommandRejectedBlackjack, Text: "bet outside table limits"})
		return errors.New("table: bet outside limits")
	}
	if !p.Account.Debit(amount) {
		_ = p.Deliver(protocol.ASCIIResponse{Code: protocol.RCCommandRejectedBlackjack, Text: "insufficient balance"})
		return errors.New("table: insufficient balance")
	}
	p.SetBet(amount)
	_ = p.Deliver(protocol.ASCIIResponse{Code: protocol.RCBetAccepted, Text: "bet accepted"})
	return nil
}

// Hit draws one card for p during its TURN (spec section 4.4(d)) and
// reports the resulting hand: continue (1-1-1), soft-21-on-two-cards
// "blackjack" (1-1-4), any-other-21 (1-1-6), or bust (1-1-2).
func (t *Table) Hit(p *PlayerInfo) {
	hand, soft, hard := p.AddCard(t.deck.Draw())
	value := protocol.Value(soft, hard)

	var code protocol.ReplyTriple
	switch {
	case hard > 21:
		code = protocol.RCCardBust
	case value == 21 && len(hand) == 2:
		code = protocol.RCCardBlackjack
	case value == 21:
		code = protocol.RCCard21
	default:
		code = protocol.RCCardContinue
	}
	_ = p.Deliver(protocol.CardHandResponse{Code: code, Holder: 1, SoftValue: soft, HardValue: hard, Cards: hand})
}

// Stand ends p's turn without drawing (spec section 4.4(d), reply 2-1-0).
func (t *Table) Stand(p *PlayerInfo) {
	_ = p.Deliver(protocol.ASCIIResponse{Code: protocol.RCStandOK, Text: "standing"})
}

// DoubleDown doubles p's stake, draws exactly one card, and unconditionally
// ends the turn with 1-1-3 (spec section 4.4(d)). Requires a balance at
// least as large as the original bet; rejected with 5-1-0 otherwise.
func (t *Table) DoubleDown(p *PlayerInfo) {
	bet := p.Bet()
	if !p.Account.Debit(bet) {
		_ = p.Deliver(protocol.ASCIIResponse{Code: protocol.RCCommandRejectedBlackjack, Text: "insufficient balance to double down"})
		return
	}
	p.SetBet(bet * 2)
	hand, soft, hard := p.AddCard(t.deck.Draw())
	_ = p.Deliver(protocol.CardHandResponse{Code: protocol.RCCardDoubleDown, Holder: 1, SoftValue: soft, HardValue: hard, Cards: hand})
}

// Chat broadcasts msg to every seated player as "<username>: <msg>" (spec
// section 4.2's idle-state CHAT gate), reusing the round-info reply code
// (1-1-5) the original implementation broadcasts chat and round notices
// under alike.
func (t *Table) Chat(p *PlayerInfo, msg string) {
	t.broadcastInfo(p.Username + ": " + msg)
}

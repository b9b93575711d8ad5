package table

import (
	"sync"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/account"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/dfa"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
)

// PlayerInfo is a connection's binding to one table (spec section 3): its
// current bet, hand, and the disconnected flag that suppresses further
// writes once the owning connection is gone. All mutators are serialized
// by the embedded lock, which also guards writes to the connection's
// socket and every DFA transition the table engine causes — the engine
// must never write to, or move the state of, a disconnected player (spec
// section 5).
type PlayerInfo struct {
	Username string
	Account  *account.Account

	// Send writes one response down the owning connection. GetState/SetState
	// read and move the connection's DFA state. All three are supplied by
	// the connection handler at seat time and are only ever called while mu
	// is held, so writes to one socket stay in FIFO, whole-PDU order (spec
	// section 5) even though both the engine goroutine and the handler
	// goroutine can reach this PlayerInfo.
	Send     func(protocol.Response) error
	GetState func() dfa.State
	SetState func(dfa.State)

	mu           sync.Mutex
	bet          uint32
	hand         []protocol.Card
	disconnected bool
}

// NewPlayerInfo creates a PlayerInfo bound to an authenticated account.
func NewPlayerInfo(username string, acct *account.Account, send func(protocol.Response) error, getState func() dfa.State, setState func(dfa.State)) *PlayerInfo {
	return &PlayerInfo{Username: username, Account: acct, Send: send, GetState: getState, SetState: setState}
}

// Deliver writes resp to the player's connection and applies whatever DFA
// transition that reply code causes from the connection's current state
// (pkg/dfa.Transition is the single source of truth for that mapping, so
// the table engine never re-derives it). Both the write and the
// transition are skipped once the player has disconnected.
func (p *PlayerInfo) Deliver(resp protocol.Response) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disconnected {
		return nil
	}
	if err := p.Send(resp); err != nil {
		return err
	}
	next, _ := dfa.Transition(p.GetState(), resp.ReplyCode())
	p.SetState(next)
	return nil
}

// MarkDisconnected suppresses all further writes and state transitions to
// this player, whether from a TCP drop, a Quit, or a table shutdown (spec
// section 5).
func (p *PlayerInfo) MarkDisconnected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnected = true
}

// IsDisconnected reports the disconnected flag.
func (p *PlayerInfo) IsDisconnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnected
}

// State reports the connection's current DFA state under mu, for callers
// (the round loop) that need to read it outside of a Deliver call.
func (p *PlayerInfo) State() dfa.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.GetState()
}

// Bet returns the current round's bet (0 if none placed).
func (p *PlayerInfo) Bet() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bet
}

// SetBet records a round bet.
func (p *PlayerInfo) SetBet(amount uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bet = amount
}

// ClearRound resets bet and hand for the next round.
func (p *PlayerInfo) ClearRound() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bet = 0
	p.hand = nil
}

// Hand returns a copy of the current hand.
func (p *PlayerInfo) Hand() []protocol.Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]protocol.Card, len(p.hand))
	copy(out, p.hand)
	return out
}

// AddCard appends a card to the hand and returns the resulting hand plus
// its soft/hard values.
func (p *PlayerInfo) AddCard(c protocol.Card) (hand []protocol.Card, soft, hard uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hand = append(p.hand, c)
	soft, hard = protocol.HandValue(p.hand)
	hand = make([]protocol.Card, len(p.hand))
	copy(hand, p.hand)
	return hand, soft, hard
}

// Package dfa implements the per-connection protocol state machine
// described in spec section 4.2: the enumerated connection states, the
// command-gate table (which commands are legal in which state), and the
// reply-triple-driven transition function.
//
// This is a closed enum plus lookup table rather than the function-pointer
// state machine used elsewhere in this codebase (pkg/statemachine):
// property P1 requires a transition function that can be inspected and
// enumerated exhaustively, which an opaque StateFn cannot offer as
// directly.
package dfa

import "github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"

// State is one of the nine connection states named in spec section 4.2.
type State int

const (
	Version State = iota
	Username
	Password
	Account
	InProgress
	EnterBets
	WaitForTurn
	Turn
	WaitForDealer
)

func (s State) String() string {
	switch s {
	case Version:
		return "VERSION"
	case Username:
		return "USERNAME"
	case Password:
		return "PASSWORD"
	case Account:
		return "ACCOUNT"
	case InProgress:
		return "IN_PROGRESS"
	case EnterBets:
		return "ENTER_BETS"
	case WaitForTurn:
		return "WAIT_FOR_TURN"
	case Turn:
		return "TURN"
	case WaitForDealer:
		return "WAIT_FOR_DEALER"
	default:
		return "UNKNOWN"
	}
}

type cmdKey struct {
	cat protocol.Category
	cmd uint8
}

// gate lists, for each state, the commands accepted besides QUIT (which is
// accepted in every state, per spec section 4.2).
var gate = map[State]map[cmdKey]bool{
	Version: {
		{protocol.CategoryAccount, protocol.CmdVersion}: true,
	},
	Username: {
		{protocol.CategoryAccount, protocol.CmdUser}: true,
	},
	Password: {
		{protocol.CategoryAccount, protocol.CmdPass}: true,
	},
	Account: {
		{protocol.CategoryAccount, protocol.CmdGetBalance}:      true,
		{protocol.CategoryAccount, protocol.CmdUpdateBalance}:   true,
		{protocol.CategoryBlackjack, protocol.CmdGetTables}:     true,
		{protocol.CategoryBlackjack, protocol.CmdAddTable}:      true,
		{protocol.CategoryBlackjack, protocol.CmdRemoveTable}:   true,
		{protocol.CategoryBlackjack, protocol.CmdJoinTable}:     true,
	},
	InProgress:    tableIdleGate(),
	WaitForTurn:   tableIdleGate(),
	WaitForDealer: tableIdleGate(),
	EnterBets:     enterBetsGate(),
	Turn:          turnGate(),
}

// tableIdleGate is the set of commands accepted by a player seated at a
// table but not currently able to bet or act: GETBALANCE, UPDATEBALANCE,
// LEAVETABLE, CHAT.
func tableIdleGate() map[cmdKey]bool {
	return map[cmdKey]bool{
		{protocol.CategoryAccount, protocol.CmdGetBalance}:    true,
		{protocol.CategoryAccount, protocol.CmdUpdateBalance}: true,
		{protocol.CategoryBlackjack, protocol.CmdLeaveTable}:  true,
		{protocol.CategoryBlackjack, protocol.CmdChat}:        true,
	}
}

func enterBetsGate() map[cmdKey]bool {
	g := tableIdleGate()
	g[cmdKey{protocol.CategoryBlackjack, protocol.CmdBet}] = true
	return g
}

func turnGate() map[cmdKey]bool {
	g := tableIdleGate()
	g[cmdKey{protocol.CategoryBlackjack, protocol.CmdHit}] = true
	g[cmdKey{protocol.CategoryBlackjack, protocol.CmdStand}] = true
	g[cmdKey{protocol.CategoryBlackjack, protocol.CmdDoubleDown}] = true
	return g
}

// Accepts reports whether the given state accepts the given command. QUIT
// is always accepted, from any state (spec section 4.2, "any: QUIT").
func Accepts(state State, cat protocol.Category, cmd uint8) bool {
	if cat == protocol.CategoryAccount && cmd == protocol.CmdQuit {
		return true
	}
	return gate[state][cmdKey{cat, cmd}]
}

// rule is one entry of the transition table: a reply triple observed while
// in from (or in any state, if any is set) transitions the connection to to.
type rule struct {
	from  State
	any   bool
	code  protocol.ReplyTriple
	to    State
	close bool
}

// transitions encodes spec section 4.2's server-side transition function.
// For any reply code that has both kinds of rule, the state-qualified rules
// are listed before the state-agnostic ones, so the first-match lookup
// below applies the required "most specific rule first" tie-break.
var transitions = []rule{
	{from: Version, code: protocol.RCVersionOK, to: Username},
	{from: Version, code: protocol.RCVersionMismatch, to: Version, close: true},

	{from: Username, code: protocol.RCUserAccepted, to: Password},

	{from: Password, code: protocol.RCPassAccepted, to: Account},
	{from: Password, code: protocol.RCAuthFailed, to: Username},

	{from: Account, code: protocol.RCJoinInProgress, to: InProgress},

	// RCJoinSeated (3-1-0) admits a player into ENTER_BETS whether they
	// just joined an idle table from ACCOUNT, or were queued while a round
	// was running and are now being admitted from IN_PROGRESS — hence an
	// any-state rule rather than one qualified to ACCOUNT.
	{any: true, code: protocol.RCJoinSeated, to: EnterBets},

	{from: EnterBets, code: protocol.RCBetAccepted, to: WaitForTurn},
	{from: EnterBets, code: protocol.RCTimeout, to: InProgress},

	{from: WaitForTurn, code: protocol.RCCardTurn, to: Turn},
	{from: WaitForTurn, code: protocol.RCCardBlackjack, to: WaitForDealer},

	{from: Turn, code: protocol.RCStandOK, to: WaitForDealer},
	{from: Turn, code: protocol.RCCardBust, to: WaitForDealer},
	{from: Turn, code: protocol.RCCard21, to: WaitForDealer},
	{from: Turn, code: protocol.RCCardBlackjack, to: WaitForDealer},
	{from: Turn, code: protocol.RCCardDoubleDown, to: WaitForDealer},
	{from: Turn, code: protocol.RCTimeout, to: WaitForDealer},
	{from: Turn, code: protocol.RCCardContinue, to: Turn},

	{from: WaitForDealer, code: protocol.RCRoundEndEmpty, to: EnterBets},
	{from: WaitForDealer, code: protocol.RCWinnings, to: EnterBets},

	// State-agnostic rules: any seated-at-table state leaving via success
	// or eviction returns to ACCOUNT.
	{any: true, code: protocol.RCLeaveOK, to: Account},
	{any: true, code: protocol.RCTableClosing, to: Account},
}

// Transition returns the next state (and whether the connection should be
// closed) given the current state and the reply triple the server just
// sent. If no rule matches, the state is unchanged (the common case: an
// acknowledgement like GETBALANCE's 2-0-0 does not move the DFA).
func Transition(state State, code protocol.ReplyTriple) (next State, shouldClose bool) {
	for _, r := range transitions {
		if r.any || r.from == state {
			if r.code == code {
				return r.to, r.close
			}
		}
	}
	return state, false
}

package dfa

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
)

func TestAcceptsQuitFromEveryState(t *testing.T) {
	states := []State{Version, Username, Password, Account, InProgress, EnterBets, WaitForTurn, Turn, WaitForDealer}
	for _, s := range states {
		require.True(t, Accepts(s, protocol.CategoryAccount, protocol.CmdQuit), "state %s must accept QUIT", s)
	}
}

func TestAcceptsGateTable(t *testing.T) {
	require.True(t, Accepts(Version, protocol.CategoryAccount, protocol.CmdVersion))
	require.False(t, Accepts(Version, protocol.CategoryAccount, protocol.CmdUser))

	require.True(t, Accepts(Account, protocol.CategoryBlackjack, protocol.CmdJoinTable))
	require.False(t, Accepts(Account, protocol.CategoryBlackjack, protocol.CmdHit))

	require.True(t, Accepts(EnterBets, protocol.CategoryBlackjack, protocol.CmdBet))
	require.False(t, Accepts(WaitForTurn, protocol.CategoryBlackjack, protocol.CmdBet))

	require.True(t, Accepts(Turn, protocol.CategoryBlackjack, protocol.CmdHit))
	require.True(t, Accepts(Turn, protocol.CategoryBlackjack, protocol.CmdStand))
	require.True(t, Accepts(Turn, protocol.CategoryBlackjack, protocol.CmdDoubleDown))
	require.False(t, Accepts(WaitForDealer, protocol.CategoryBlackjack, protocol.CmdHit))

	require.True(t, Accepts(InProgress, protocol.CategoryBlackjack, protocol.CmdChat))
}

func TestTransitionHandshake(t *testing.T) {
	next, closeConn := Transition(Version, protocol.RCVersionOK)
	require.Equal(t, Username, next)
	require.False(t, closeConn)

	next, closeConn = Transition(Version, protocol.RCVersionMismatch)
	require.Equal(t, Version, next)
	require.True(t, closeConn)

	next, _ = Transition(Username, protocol.RCUserAccepted)
	require.Equal(t, Password, next)

	next, _ = Transition(Password, protocol.RCPassAccepted)
	require.Equal(t, Account, next)

	next, _ = Transition(Password, protocol.RCAuthFailed)
	require.Equal(t, Username, next)
}

func TestTransitionTableFlow(t *testing.T) {
	next, _ := Transition(Account, protocol.RCJoinSeated)
	require.Equal(t, EnterBets, next)

	next, _ = Transition(Account, protocol.RCJoinInProgress)
	require.Equal(t, InProgress, next)

	next, _ = Transition(EnterBets, protocol.RCBetAccepted)
	require.Equal(t, WaitForTurn, next)

	next, _ = Transition(WaitForTurn, protocol.RCCardTurn)
	require.Equal(t, Turn, next)

	next, _ = Transition(WaitForTurn, protocol.RCCardBlackjack)
	require.Equal(t, WaitForDealer, next)

	next, _ = Transition(Turn, protocol.RCCardContinue)
	require.Equal(t, Turn, next)

	next, _ = Transition(Turn, protocol.RCStandOK)
	require.Equal(t, WaitForDealer, next)

	next, _ = Transition(Turn, protocol.RCCardBust)
	require.Equal(t, WaitForDealer, next)

	next, _ = Transition(WaitForDealer, protocol.RCWinnings)
	require.Equal(t, EnterBets, next)
}

func TestTransitionTimeoutIsContextDependent(t *testing.T) {
	next, _ := Transition(EnterBets, protocol.RCTimeout)
	require.Equal(t, InProgress, next)

	next, _ = Transition(Turn, protocol.RCTimeout)
	require.Equal(t, WaitForDealer, next)
}

func TestTransitionLeaveAndKickFromAnyTableState(t *testing.T) {
	for _, s := range []State{InProgress, EnterBets, WaitForTurn, Turn, WaitForDealer} {
		next, _ := Transition(s, protocol.RCLeaveOK)
		require.Equal(t, Account, next, "leave from %s", s)

		next, _ = Transition(s, protocol.RCTableClosing)
		require.Equal(t, Account, next, "kick from %s", s)
	}
}

func TestTransitionUnmatchedCodeLeavesStateUnchanged(t *testing.T) {
	next, closeConn := Transition(Account, protocol.RCBalanceValue)
	require.Equal(t, Account, next)
	require.False(t, closeConn)
}

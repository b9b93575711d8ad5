package table

import (
	"math/rand"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/account"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/dfa"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
)

func testLog() slog.Logger {
	b := slog.NewBackend(nopWriter{})
	return b.Logger("TEST")
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

// testPlayer wires a PlayerInfo to a captured response list and its own DFA
// state cell, mirroring what the connection handler supplies at seat time.
type testPlayer struct {
	username string
	acct     *account.Account
	state    dfa.State
	sent     []protocol.Response
}

func newTestPlayer(username string, balance uint32) (*PlayerInfo, *testPlayer) {
	tp := &testPlayer{username: username, acct: account.New(username), state: dfa.EnterBets}
	tp.acct.Adjust(int32(balance))
	p := NewPlayerInfo(username, tp.acct,
		func(r protocol.Response) error { tp.sent = append(tp.sent, r); return nil },
		func() dfa.State { return tp.state },
		func(s dfa.State) { tp.state = s },
	)
	return p, tp
}

func newTestTable(maxPlayers uint8) *Table {
	settings := protocol.DefaultTableSettings()
	settings.MaxPlayers = maxPlayers
	return New(0, settings, testLog(), rand.New(rand.NewSource(1)))
}

func TestJoinFirstPlayerSpawnsLoop(t *testing.T) {
	tbl := newTestTable(5)
	p, _ := newTestPlayer("alice", 1000)

	spawn, err := tbl.Join(p)
	require.NoError(t, err)
	require.True(t, spawn, "first join on an idle table must spawn the round loop")
	require.EqualValues(t, 1, tbl.SeatedCount())

	p2, _ := newTestPlayer("bob", 1000)
	spawn2, err := tbl.Join(p2)
	require.NoError(t, err)
	require.False(t, spawn2, "a second join while loopAlive must not spawn another loop")
}

func TestJoinRejectsOverCapacity(t *testing.T) {
	tbl := newTestTable(1)
	p1, _ := newTestPlayer("alice", 1000)
	_, err := tbl.Join(p1)
	require.NoError(t, err)

	p2, _ := newTestPlayer("bob", 1000)
	_, err = tbl.Join(p2)
	require.ErrorIs(t, err, ErrTableFull)
}

func TestJoinMidRoundQueuesAsPendingWithNotice(t *testing.T) {
	tbl := newTestTable(5)
	tbl.midRound = true

	p, tp := newTestPlayer("alice", 1000)
	spawn, err := tbl.Join(p)
	require.NoError(t, err)
	require.False(t, spawn)
	require.Len(t, tp.sent, 1)
	require.Equal(t, protocol.RCJoinInProgress, tp.sent[0].ReplyCode())
}

func TestLeaveRemovesFromPlayersOrPending(t *testing.T) {
	tbl := newTestTable(5)
	p, tp := newTestPlayer("alice", 1000)
	_, _ = tbl.Join(p)
	require.EqualValues(t, 1, tbl.SeatedCount())

	tbl.Leave(p)
	require.EqualValues(t, 0, tbl.SeatedCount())
	require.Equal(t, protocol.RCLeaveOK, tp.sent[len(tp.sent)-1].ReplyCode())
}

func TestShutdownEvictsEveryoneAndMarksDisconnected(t *testing.T) {
	tbl := newTestTable(5)
	p1, tp1 := newTestPlayer("alice", 1000)
	p2, tp2 := newTestPlayer("bob", 1000)
	_, _ = tbl.Join(p1)
	tbl.mu.Lock()
	tbl.pending = append(tbl.pending, p2)
	tbl.mu.Unlock()

	tbl.Shutdown()

	require.EqualValues(t, 0, tbl.SeatedCount())
	require.True(t, p1.IsDisconnected())
	require.True(t, p2.IsDisconnected())
	require.Equal(t, protocol.RCTableClosing, tp1.sent[len(tp1.sent)-1].ReplyCode())
	require.Equal(t, protocol.RCTableClosing, tp2.sent[len(tp2.sent)-1].ReplyCode())
}

func TestPlaceBetAcceptsWithinLimitsAndDebits(t *testing.T) {
	tbl := newTestTable(5)
	p, tp := newTestPlayer("alice", 1000)

	err := tbl.PlaceBet(p, 100)
	require.NoError(t, err)
	require.EqualValues(t, 100, p.Bet())
	require.EqualValues(t, 900, tp.acct.Balance())
	require.Equal(t, protocol.RCBetAccepted, tp.sent[len(tp.sent)-1].ReplyCode())
}

func TestPlaceBetRejectsOutsideLimits(t *testing.T) {
	tbl := newTestTable(5)
	p, tp := newTestPlayer("alice", 1000)

	err := tbl.PlaceBet(p, tbl.Settings.BetMin-1)
	require.Error(t, err)
	require.EqualValues(t, 0, p.Bet())
	require.Equal(t, protocol.RCCommandRejectedBlackjack, tp.sent[len(tp.sent)-1].ReplyCode())
}

func TestPlaceBetRejectsInsufficientBalance(t *testing.T) {
	tbl := newTestTable(5)
	p, tp := newTestPlayer("alice", 10)

	err := tbl.PlaceBet(p, tbl.Settings.BetMin)
	require.Error(t, err)
	require.Equal(t, protocol.RCCommandRejectedBlackjack, tp.sent[len(tp.sent)-1].ReplyCode())
	require.EqualValues(t, 10, tp.acct.Balance())
}

func TestHitReportsBust(t *testing.T) {
	tbl := newTestTable(5)
	p, tp := newTestPlayer("alice", 1000)

	_, _, _ = p.AddCard(protocol.Card{Rank: protocol.RankKing, Suit: protocol.SuitHearts})
	_, _, _ = p.AddCard(protocol.Card{Rank: protocol.RankNine, Suit: protocol.SuitClubs})

	tbl.deck = &Deck{cards: []protocol.Card{{Rank: protocol.RankFive, Suit: protocol.SuitDiamonds}}, rng: tbl.rng, numDecks: 1}
	tbl.Hit(p)
	last := tp.sent[len(tp.sent)-1].(protocol.CardHandResponse)
	require.Equal(t, protocol.RCCardBust, last.Code)
}

func TestDoubleDownDoublesStakeAndEndsTurn(t *testing.T) {
	tbl := newTestTable(5)
	p, tp := newTestPlayer("alice", 1000)
	require.NoError(t, tbl.PlaceBet(p, 50))
	require.EqualValues(t, 950, tp.acct.Balance())

	tbl.deck = &Deck{cards: []protocol.Card{{Rank: protocol.RankFour, Suit: protocol.SuitSpades}}, rng: tbl.rng, numDecks: 1}
	tbl.DoubleDown(p)

	require.EqualValues(t, 100, p.Bet())
	require.EqualValues(t, 900, tp.acct.Balance())
	last := tp.sent[len(tp.sent)-1].(protocol.CardHandResponse)
	require.Equal(t, protocol.RCCardDoubleDown, last.Code)
}

func TestDoubleDownRejectsInsufficientBalance(t *testing.T) {
	tbl := newTestTable(5)
	p, tp := newTestPlayer("alice", 60)
	require.NoError(t, tbl.PlaceBet(p, 50))
	require.EqualValues(t, 10, tp.acct.Balance())

	tbl.DoubleDown(p)
	require.EqualValues(t, 50, p.Bet(), "bet must be unchanged on a rejected double down")
	last := tp.sent[len(tp.sent)-1]
	require.Equal(t, protocol.RCCommandRejectedBlackjack, last.ReplyCode())
}

func TestChatBroadcastsToAllSeatedPlayers(t *testing.T) {
	tbl := newTestTable(5)
	p1, tp1 := newTestPlayer("alice", 1000)
	p2, tp2 := newTestPlayer("bob", 1000)
	tbl.mu.Lock()
	tbl.players = append(tbl.players, p1, p2)
	tbl.mu.Unlock()

	tbl.Chat(p1, "hi")

	last1 := tp1.sent[len(tp1.sent)-1].(protocol.ASCIIResponse)
	last2 := tp2.sent[len(tp2.sent)-1].(protocol.ASCIIResponse)
	require.Equal(t, protocol.RCRoundInfo, last1.Code)
	require.Equal(t, "alice: hi", last1.Text)
	require.Equal(t, last1.Text, last2.Text)
}

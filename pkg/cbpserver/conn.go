// Package cbpserver implements the per-connection handler and TCP/TLS
// listener supervisor described in spec sections 4.3 and 5: one task per
// accepted connection, decoding commands, consulting the protocol DFA,
// routing ACCOUNT-state table commands into the registry, and forwarding
// game-state commands to the player's current Table.
package cbpserver

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/account"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/dfa"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/table"
)

// ProtocolVersion is the server's negotiated VERSION value (spec section
// 4.2); the original implementation fixes this at 1.
const ProtocolVersion uint32 = 1

// conn is one accepted connection's handler state: the DFA state, the
// raw socket, and the table seat (if any). Writes are unsynchronized here
// because this goroutine is the only writer until the connection is
// seated; from then on every write (engine or handler) goes through
// PlayerInfo.Deliver, whose lock keeps replies whole-PDU atomic (spec
// section 5).
type conn struct {
	nc     net.Conn
	r      *bufio.Reader
	w      *bufio.Writer
	log    slog.Logger
	srv    *Server
	connID uuid.UUID

	state    dfa.State
	username string
	acct     *account.Account
	player   *table.PlayerInfo
	tbl      *table.Table
}

func (c *conn) getState() dfa.State  { return c.state }
func (c *conn) setState(s dfa.State) { c.state = s }

// newConn wraps an accepted socket with a correlation id that's attached to
// every log line for this connection's lifetime, the way a request id
// threads through a single handler's logging.
func newConn(nc net.Conn, srv *Server, log slog.Logger) *conn {
	id := uuid.New()
	c := &conn{
		nc:     nc,
		r:      bufio.NewReader(nc),
		w:      bufio.NewWriter(nc),
		log:    log,
		srv:    srv,
		connID: id,
	}
	return c
}

// send writes one response down the socket. It is the Send callback
// wired into PlayerInfo so the table engine's writes and the connection
// handler's own writes are serialized by the same PlayerInfo lock once
// the connection is seated (spec section 5); before seating, the
// connection handler is the only writer so no extra lock is needed.
func (c *conn) send(resp protocol.Response) error {
	if err := resp.Encode(c.w); err != nil {
		return err
	}
	return c.w.Flush()
}

// serve runs the connection's read-dispatch-write loop until the client
// disconnects, quits, or a write fails (spec section 4.3).
func (c *conn) serve() {
	defer c.cleanup()

	c.log.Infof("[%s] connection from %s", c.connID, c.nc.RemoteAddr())
	c.state = dfa.Version
	for {
		cmd, err := protocol.DecodeCommand(c.r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Debugf("[%s] read error: %v", c.connID, err)
			}
			return
		}

		// A table shutdown kicks the player back to ACCOUNT and marks its
		// PlayerInfo disconnected; release that seat before handling the
		// next command so replies no longer go through the dead PlayerInfo.
		if c.player != nil && c.player.IsDisconnected() {
			c.srv.conns.ClearTable(c)
			c.tbl = nil
			c.player = nil
		}

		if cmd.Category() == protocol.CategoryAccount && cmd.CommandCode() == protocol.CmdQuit {
			return
		}

		if !dfa.Accepts(c.state, cmd.Category(), cmd.CommandCode()) {
			_ = c.reply(protocol.ASCIIResponse{Code: protocol.RCCommandRejectedGeneric, Text: "command not accepted at current state"})
			continue
		}

		if !c.dispatch(cmd) {
			return
		}
	}
}

// dispatch handles one gated command, returning false if the connection
// should close (a VERSION mismatch).
func (c *conn) dispatch(cmd protocol.Command) bool {
	switch c.state {
	case dfa.Version:
		return c.handleVersion(cmd)
	case dfa.Username:
		c.handleUsername(cmd)
	case dfa.Password:
		c.handlePassword(cmd)
	case dfa.Account:
		c.handleAccountState(cmd)
	default:
		c.handleTableState(cmd)
	}
	return true
}

func (c *conn) handleVersion(cmd protocol.Command) bool {
	v := cmd.(protocol.VersionCmd)
	if v.Version != ProtocolVersion {
		_ = c.send(protocol.VersionResponse{Code: protocol.RCVersionMismatch, Version: ProtocolVersion})
		return false
	}
	_ = c.deliverUnseated(protocol.VersionResponse{Code: protocol.RCVersionOK, Version: ProtocolVersion})
	return true
}

func (c *conn) handleUsername(cmd protocol.Command) {
	u := cmd.(protocol.UserCmd)
	c.username = u.Username
	_ = c.deliverUnseated(protocol.ASCIIResponse{Code: protocol.RCUserAccepted, Text: "provide password"})
}

func (c *conn) handlePassword(cmd protocol.Command) {
	p := cmd.(protocol.PassCmd)
	if !c.srv.creds.Check(c.username, p.Password) {
		_ = c.deliverUnseated(protocol.ASCIIResponse{Code: protocol.RCAuthFailed, Text: "authentication failed"})
		return
	}
	c.acct = c.srv.accounts.GetOrCreate(c.username)
	c.srv.conns.SetUsername(c, c.username)
	_ = c.deliverUnseated(protocol.ASCIIResponse{Code: protocol.RCPassAccepted, Text: "authenticated successfully"})
}

// deliverUnseated applies a response's DFA transition directly; used
// before the connection is seated at a table, where there is no
// PlayerInfo yet to route the send/transition pair through. None of its
// callers' reply codes carry shouldClose=true (only the VERSION mismatch
// path does, handled separately in handleVersion).
func (c *conn) deliverUnseated(resp protocol.Response) error {
	if err := c.send(resp); err != nil {
		return err
	}
	next, _ := dfa.Transition(c.state, resp.ReplyCode())
	c.state = next
	return nil
}

// reply writes resp and applies its DFA transition, routing through
// PlayerInfo.Deliver once the connection is seated so a handler reply and
// a concurrent round-loop broadcast can never interleave mid-PDU on the
// same socket (spec section 5). Before seating, deliverUnseated performs
// the same pair of steps directly since this goroutine is the only writer.
func (c *conn) reply(resp protocol.Response) error {
	if c.player != nil {
		return c.player.Deliver(resp)
	}
	return c.deliverUnseated(resp)
}

func (c *conn) handleAccountState(cmd protocol.Command) {
	switch cmd.Category() {
	case protocol.CategoryAccount:
		c.handleAccountCmd(cmd)
		return
	}
	switch cmd.CommandCode() {
	case protocol.CmdGetTables:
		c.handleGetTables()
	case protocol.CmdAddTable:
		c.handleAddTable(cmd.(protocol.AddTableCmd))
	case protocol.CmdRemoveTable:
		c.handleRemoveTable(cmd.(protocol.RemoveTableCmd))
	case protocol.CmdJoinTable:
		c.handleJoinTable(cmd.(protocol.JoinTableCmd))
	default:
		_ = c.send(protocol.ASCIIResponse{Code: protocol.RCCommandRejectedGeneric, Text: "command not accepted at current state"})
	}
}

// handleTableState covers every state where the connection is seated at a
// table: IN_PROGRESS, ENTER_BETS, WAIT_FOR_TURN, TURN, WAIT_FOR_DEALER
// (spec section 4.2's gate table). GETBALANCE/UPDATEBALANCE/LEAVETABLE/
// CHAT are legal throughout; BET only in ENTER_BETS and HIT/STAND/
// DOUBLEDOWN only in TURN, already enforced by dfa.Accepts before
// dispatch reaches here.
func (c *conn) handleTableState(cmd protocol.Command) {
	if cmd.Category() == protocol.CategoryAccount {
		c.handleAccountCmd(cmd)
		return
	}

	switch cmd.CommandCode() {
	case protocol.CmdLeaveTable:
		c.leaveTable()
	case protocol.CmdChat:
		if c.tbl != nil {
			c.tbl.Chat(c.player, cmd.(protocol.ChatCmd).Message)
		}
	case protocol.CmdBet:
		if c.tbl != nil {
			_ = c.tbl.PlaceBet(c.player, cmd.(protocol.BetCmd).Amount)
		}
	case protocol.CmdHit:
		if c.tbl != nil {
			c.tbl.Hit(c.player)
		}
	case protocol.CmdStand:
		if c.tbl != nil {
			c.tbl.Stand(c.player)
		}
	case protocol.CmdDoubleDown:
		if c.tbl != nil {
			c.tbl.DoubleDown(c.player)
		}
	case protocol.CmdInsurance, protocol.CmdSplit, protocol.CmdSurrender:
		_ = c.reply(protocol.ASCIIResponse{Code: protocol.RCNotImplemented, Text: "not implemented"})
	default:
		_ = c.reply(protocol.ASCIIResponse{Code: protocol.RCCommandRejectedBlackjack, Text: "command not accepted at current state"})
	}
}

func (c *conn) handleAccountCmd(cmd protocol.Command) {
	switch cmd.CommandCode() {
	case protocol.CmdGetBalance:
		_ = c.reply(protocol.BalanceResponse{Balance: c.acct.Balance()})
	case protocol.CmdUpdateBalance:
		c.acct.Adjust(cmd.(protocol.UpdateBalanceCmd).Delta)
		_ = c.reply(protocol.ASCIIResponse{Code: protocol.RCBalanceAck, Text: "balance updated"})
	case protocol.CmdQuit:
		// handled in serve's read loop before dispatch
	default:
		_ = c.reply(protocol.ASCIIResponse{Code: protocol.RCCommandRejectedGeneric, Text: "command not accepted at current state"})
	}
}

func (c *conn) handleGetTables() {
	tables := c.srv.tables.List()
	if len(tables) == 0 {
		_ = c.send(protocol.ASCIIResponse{Code: protocol.RCTableNotFound, Text: "no tables available"})
		return
	}
	_ = c.send(protocol.ListTablesResponse{Tables: tables})
}

func (c *conn) handleAddTable(cmd protocol.AddTableCmd) {
	settings := cmd.Settings
	if err := settings.Validate(); err != nil {
		_ = c.send(protocol.ASCIIResponse{Code: protocol.RCCommandRejectedGeneric, Text: err.Error()})
		return
	}
	tbl := c.srv.tables.Add(settings)
	_ = c.send(protocol.AddTableResponse{TableID: tbl.ID})
}

func (c *conn) handleRemoveTable(cmd protocol.RemoveTableCmd) {
	if err := c.srv.tables.Remove(cmd.TableID); err != nil {
		_ = c.send(protocol.ASCIIResponse{Code: protocol.RCTableNotFound, Text: "table with id does not exist"})
		return
	}
	_ = c.send(protocol.ASCIIResponse{Code: protocol.RCBalanceAck, Text: "successfully shut down table"})
}

func (c *conn) handleJoinTable(cmd protocol.JoinTableCmd) {
	tbl, ok := c.srv.tables.Get(cmd.TableID)
	if !ok {
		_ = c.send(protocol.ASCIIResponse{Code: protocol.RCTableNotFound, Text: "table with id does not exist"})
		return
	}

	c.player = table.NewPlayerInfo(c.username, c.acct, c.send, c.getState, c.setState)
	c.tbl = tbl
	c.srv.conns.SetTable(c, cmd.TableID)

	spawnLoop, err := tbl.Join(c.player)
	if err != nil {
		_ = c.send(protocol.ASCIIResponse{Code: protocol.RCTableFull, Text: "table is full"})
		c.player = nil
		c.tbl = nil
		c.srv.conns.ClearTable(c)
		return
	}
	if spawnLoop {
		go table.RunRounds(tbl)
	}
}

func (c *conn) leaveTable() {
	if c.tbl == nil {
		return
	}
	c.tbl.Leave(c.player)
	c.srv.conns.ClearTable(c)
	c.tbl = nil
	c.player = nil
}

func (c *conn) cleanup() {
	c.log.Infof("[%s] connection closed", c.connID)
	if c.player != nil {
		c.player.MarkDisconnected()
	}
	if c.tbl != nil {
		c.tbl.Leave(c.player)
		c.srv.conns.ClearTable(c)
	}
	c.srv.conns.Forget(c)
	_ = c.nc.Close()
}

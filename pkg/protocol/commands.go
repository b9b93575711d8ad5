package protocol

import "bufio"

const (
	maxUserLen     = 32
	maxPassLen     = 32
	maxChatLen     = 128
	maxSettingsLen = 1024
)

// Command is a client→server PDU. Category/CommandCode identify the
// two-byte header that precedes the body on the wire.
type Command interface {
	Category() Category
	CommandCode() uint8
	Encode(w *bufio.Writer) error
}

type header struct {
	cat Category
	cmd uint8
}

func (h header) Category() Category  { return h.cat }
func (h header) CommandCode() uint8 { return h.cmd }

func writeHeader(w *bufio.Writer, cat Category, cmd uint8) error {
	if err := w.WriteByte(byte(cat)); err != nil {
		return err
	}
	return w.WriteByte(cmd)
}

// VersionCmd is category 0, command 0.
type VersionCmd struct {
	header
	Version uint32
}

func NewVersionCmd(v uint32) VersionCmd {
	return VersionCmd{header{CategoryAccount, CmdVersion}, v}
}

func (c VersionCmd) Encode(w *bufio.Writer) error {
	if err := writeHeader(w, c.Category(), c.CommandCode()); err != nil {
		return err
	}
	return writeU32(w, c.Version)
}

// UserCmd is category 0, command 1.
type UserCmd struct {
	header
	Username string
}

func NewUserCmd(u string) UserCmd { return UserCmd{header{CategoryAccount, CmdUser}, u} }

func (c UserCmd) Encode(w *bufio.Writer) error {
	if err := writeHeader(w, c.Category(), c.CommandCode()); err != nil {
		return err
	}
	return writeLine(w, c.Username)
}

// PassCmd is category 0, command 2.
type PassCmd struct {
	header
	Password string
}

func NewPassCmd(p string) PassCmd { return PassCmd{header{CategoryAccount, CmdPass}, p} }

func (c PassCmd) Encode(w *bufio.Writer) error {
	if err := writeHeader(w, c.Category(), c.CommandCode()); err != nil {
		return err
	}
	return writeLine(w, c.Password)
}

// GetBalanceCmd is category 0, command 3.
type GetBalanceCmd struct{ header }

func NewGetBalanceCmd() GetBalanceCmd {
	return GetBalanceCmd{header{CategoryAccount, CmdGetBalance}}
}

func (c GetBalanceCmd) Encode(w *bufio.Writer) error {
	return writeHeader(w, c.Category(), c.CommandCode())
}

// UpdateBalanceCmd is category 0, command 4.
type UpdateBalanceCmd struct {
	header
	Delta int32
}

func NewUpdateBalanceCmd(delta int32) UpdateBalanceCmd {
	return UpdateBalanceCmd{header{CategoryAccount, CmdUpdateBalance}, delta}
}

func (c UpdateBalanceCmd) Encode(w *bufio.Writer) error {
	if err := writeHeader(w, c.Category(), c.CommandCode()); err != nil {
		return err
	}
	return writeI32(w, c.Delta)
}

// QuitCmd is category 0, command 5.
type QuitCmd struct{ header }

func NewQuitCmd() QuitCmd { return QuitCmd{header{CategoryAccount, CmdQuit}} }

func (c QuitCmd) Encode(w *bufio.Writer) error {
	return writeHeader(w, c.Category(), c.CommandCode())
}

// GetTablesCmd is category 1, command 0.
type GetTablesCmd struct{ header }

func NewGetTablesCmd() GetTablesCmd {
	return GetTablesCmd{header{CategoryBlackjack, CmdGetTables}}
}

func (c GetTablesCmd) Encode(w *bufio.Writer) error {
	return writeHeader(w, c.Category(), c.CommandCode())
}

// AddTableCmd is category 1, command 1.
type AddTableCmd struct {
	header
	Settings TableSettings
}

func NewAddTableCmd(s TableSettings) AddTableCmd {
	return AddTableCmd{header{CategoryBlackjack, CmdAddTable}, s}
}

func (c AddTableCmd) Encode(w *bufio.Writer) error {
	if err := writeHeader(w, c.Category(), c.CommandCode()); err != nil {
		return err
	}
	return writeBlock(w, c.Settings.Encode())
}

// RemoveTableCmd is category 1, command 2.
type RemoveTableCmd struct {
	header
	TableID uint16
}

func NewRemoveTableCmd(id uint16) RemoveTableCmd {
	return RemoveTableCmd{header{CategoryBlackjack, CmdRemoveTable}, id}
}

func (c RemoveTableCmd) Encode(w *bufio.Writer) error {
	if err := writeHeader(w, c.Category(), c.CommandCode()); err != nil {
		return err
	}
	return writeU16(w, c.TableID)
}

// JoinTableCmd is category 1, command 3.
type JoinTableCmd struct {
	header
	TableID uint16
}

func NewJoinTableCmd(id uint16) JoinTableCmd {
	return JoinTableCmd{header{CategoryBlackjack, CmdJoinTable}, id}
}

func (c JoinTableCmd) Encode(w *bufio.Writer) error {
	if err := writeHeader(w, c.Category(), c.CommandCode()); err != nil {
		return err
	}
	return writeU16(w, c.TableID)
}

// LeaveTableCmd is category 1, command 4.
type LeaveTableCmd struct{ header }

func NewLeaveTableCmd() LeaveTableCmd {
	return LeaveTableCmd{header{CategoryBlackjack, CmdLeaveTable}}
}

func (c LeaveTableCmd) Encode(w *bufio.Writer) error {
	return writeHeader(w, c.Category(), c.CommandCode())
}

// BetCmd is category 1, command 5.
type BetCmd struct {
	header
	Amount uint32
}

func NewBetCmd(amount uint32) BetCmd { return BetCmd{header{CategoryBlackjack, CmdBet}, amount} }

func (c BetCmd) Encode(w *bufio.Writer) error {
	if err := writeHeader(w, c.Category(), c.CommandCode()); err != nil {
		return err
	}
	return writeU32(w, c.Amount)
}

// InsuranceCmd, SplitCmd and SurrenderCmd are recognized on the wire (see
// SPEC_FULL.md section D) but have no round-loop effect.
type InsuranceCmd struct{ header }
type SplitCmd struct{ header }
type SurrenderCmd struct{ header }

func NewInsuranceCmd() InsuranceCmd { return InsuranceCmd{header{CategoryBlackjack, CmdInsurance}} }
func NewSplitCmd() SplitCmd         { return SplitCmd{header{CategoryBlackjack, CmdSplit}} }
func NewSurrenderCmd() SurrenderCmd { return SurrenderCmd{header{CategoryBlackjack, CmdSurrender}} }

func (c InsuranceCmd) Encode(w *bufio.Writer) error { return writeHeader(w, c.Category(), c.CommandCode()) }
func (c SplitCmd) Encode(w *bufio.Writer) error     { return writeHeader(w, c.Category(), c.CommandCode()) }
func (c SurrenderCmd) Encode(w *bufio.Writer) error { return writeHeader(w, c.Category(), c.CommandCode()) }

// HitCmd is category 1, command 7.
type HitCmd struct{ header }

func NewHitCmd() HitCmd { return HitCmd{header{CategoryBlackjack, CmdHit}} }

func (c HitCmd) Encode(w *bufio.Writer) error { return writeHeader(w, c.Category(), c.CommandCode()) }

// StandCmd is category 1, command 8.
type StandCmd struct{ header }

func NewStandCmd() StandCmd { return StandCmd{header{CategoryBlackjack, CmdStand}} }

func (c StandCmd) Encode(w *bufio.Writer) error { return writeHeader(w, c.Category(), c.CommandCode()) }

// DoubleDownCmd is category 1, command 9.
type DoubleDownCmd struct{ header }

func NewDoubleDownCmd() DoubleDownCmd {
	return DoubleDownCmd{header{CategoryBlackjack, CmdDoubleDown}}
}

func (c DoubleDownCmd) Encode(w *bufio.Writer) error {
	return writeHeader(w, c.Category(), c.CommandCode())
}

// ChatCmd is category 1, command 12.
type ChatCmd struct {
	header
	Message string
}

func NewChatCmd(msg string) ChatCmd { return ChatCmd{header{CategoryBlackjack, CmdChat}, msg} }

func (c ChatCmd) Encode(w *bufio.Writer) error {
	if err := writeHeader(w, c.Category(), c.CommandCode()); err != nil {
		return err
	}
	return writeLine(w, c.Message)
}

// DecodeCommand reads one two-byte header plus body from r and returns the
// decoded Command. io.EOF (or any read error) propagates to the caller,
// which treats it as connection termination.
func DecodeCommand(r *bufio.Reader) (Command, error) {
	catB, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	cmd, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	cat := Category(catB)

	switch cat {
	case CategoryAccount:
		switch cmd {
		case CmdVersion:
			v, err := readU32(r)
			if err != nil {
				return nil, fmtErr("decode VERSION", err)
			}
			return NewVersionCmd(v), nil
		case CmdUser:
			s, err := readLine(r, maxUserLen)
			if err != nil {
				return nil, fmtErr("decode USER", err)
			}
			return NewUserCmd(s), nil
		case CmdPass:
			s, err := readLine(r, maxPassLen)
			if err != nil {
				return nil, fmtErr("decode PASS", err)
			}
			return NewPassCmd(s), nil
		case CmdGetBalance:
			return NewGetBalanceCmd(), nil
		case CmdUpdateBalance:
			d, err := readI32(r)
			if err != nil {
				return nil, fmtErr("decode UPDATEBALANCE", err)
			}
			return NewUpdateBalanceCmd(d), nil
		case CmdQuit:
			return NewQuitCmd(), nil
		}
	case CategoryBlackjack:
		switch cmd {
		case CmdGetTables:
			return NewGetTablesCmd(), nil
		case CmdAddTable:
			block, err := readBlock(r, maxSettingsLen)
			if err != nil {
				return nil, fmtErr("decode ADDTABLE", err)
			}
			return NewAddTableCmd(ParseTableSettings(block)), nil
		case CmdRemoveTable:
			id, err := readU16(r)
			if err != nil {
				return nil, fmtErr("decode REMOVETABLE", err)
			}
			return NewRemoveTableCmd(id), nil
		case CmdJoinTable:
			id, err := readU16(r)
			if err != nil {
				return nil, fmtErr("decode JOINTABLE", err)
			}
			return NewJoinTableCmd(id), nil
		case CmdLeaveTable:
			return NewLeaveTableCmd(), nil
		case CmdBet:
			amt, err := readU32(r)
			if err != nil {
				return nil, fmtErr("decode BET", err)
			}
			return NewBetCmd(amt), nil
		case CmdInsurance:
			return NewInsuranceCmd(), nil
		case CmdHit:
			return NewHitCmd(), nil
		case CmdStand:
			return NewStandCmd(), nil
		case CmdDoubleDown:
			return NewDoubleDownCmd(), nil
		case CmdSplit:
			return NewSplitCmd(), nil
		case CmdSurrender:
			return NewSurrenderCmd(), nil
		case CmdChat:
			s, err := readLine(r, maxChatLen)
			if err != nil {
				return nil, fmtErr("decode CHAT", err)
			}
			return NewChatCmd(s), nil
		}
	}
	return nil, ErrUnknownCommand
}

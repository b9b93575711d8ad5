package protocol

import "bufio"

// Response is a server→client PDU, identified on the wire by its
// three-octet reply-code triple.
type Response interface {
	ReplyCode() ReplyTriple
	Encode(w *bufio.Writer) error
}

// VersionResponse carries the server's advertised protocol version.
// Reply codes: 2-0-1 (accepted) or 5-0-1 (mismatch, connection closes).
type VersionResponse struct {
	Code    ReplyTriple
	Version uint32
}

func (r VersionResponse) ReplyCode() ReplyTriple { return r.Code }

func (r VersionResponse) Encode(w *bufio.Writer) error {
	if err := writeReplyTriple(w, r.Code); err != nil {
		return err
	}
	return writeU32(w, r.Version)
}

// BalanceResponse carries an account balance. Reply code 2-0-3.
type BalanceResponse struct {
	Balance uint32
}

func (r BalanceResponse) ReplyCode() ReplyTriple { return RCBalanceValue }

func (r BalanceResponse) Encode(w *bufio.Writer) error {
	if err := writeReplyTriple(w, r.ReplyCode()); err != nil {
		return err
	}
	return writeU32(w, r.Balance)
}

// TableListing is one entry of a ListTablesResponse.
type TableListing struct {
	TableID  uint16
	Settings TableSettings
}

// ListTablesResponse enumerates every table known to the registry. Reply
// code 2-1-1.
type ListTablesResponse struct {
	Tables []TableListing
}

func (r ListTablesResponse) ReplyCode() ReplyTriple { return RCTableList }

func (r ListTablesResponse) Encode(w *bufio.Writer) error {
	if err := writeReplyTriple(w, r.ReplyCode()); err != nil {
		return err
	}
	if err := writeU16(w, uint16(len(r.Tables))); err != nil {
		return err
	}
	for _, t := range r.Tables {
		if err := writeU16(w, t.TableID); err != nil {
			return err
		}
		if err := writeBlock(w, t.Settings.Encode()); err != nil {
			return err
		}
	}
	return nil
}

// AddTableResponse carries the newly allocated table id. Reply code 2-1-4.
type AddTableResponse struct {
	TableID uint16
}

func (r AddTableResponse) ReplyCode() ReplyTriple { return RCTableAdded }

func (r AddTableResponse) Encode(w *bufio.Writer) error {
	if err := writeReplyTriple(w, r.ReplyCode()); err != nil {
		return err
	}
	return writeU16(w, r.TableID)
}

// JoinTableResponse carries the settings of the table just joined. Reply
// code 3-1-0.
type JoinTableResponse struct {
	Settings TableSettings
}

func (r JoinTableResponse) ReplyCode() ReplyTriple { return RCJoinSeated }

func (r JoinTableResponse) Encode(w *bufio.Writer) error {
	if err := writeReplyTriple(w, r.ReplyCode()); err != nil {
		return err
	}
	return writeBlock(w, r.Settings.Encode())
}

// CardHandResponse reports a dealt card (or the running state of a hand)
// for either a player (Holder=1) or the dealer (Holder=0). Reply codes:
// 1-1-{1,2,3,4,6} or 3-1-2 (the "your turn" notice, which carries the
// player's current hand so the client can render it immediately).
type CardHandResponse struct {
	Code      ReplyTriple
	Holder    uint8
	SoftValue uint8
	HardValue uint8
	Cards     []Card
}

func (r CardHandResponse) ReplyCode() ReplyTriple { return r.Code }

func (r CardHandResponse) Encode(w *bufio.Writer) error {
	if err := writeReplyTriple(w, r.Code); err != nil {
		return err
	}
	if err := writeU8(w, r.Holder); err != nil {
		return err
	}
	if err := writeU8(w, r.SoftValue); err != nil {
		return err
	}
	if err := writeU8(w, r.HardValue); err != nil {
		return err
	}
	if err := writeU8(w, uint8(len(r.Cards))); err != nil {
		return err
	}
	for _, c := range r.Cards {
		if err := writeCard(w, c); err != nil {
			return err
		}
	}
	return nil
}

// WinningsResponse carries a settlement payout. Reply codes 3-1-3 (no
// bettors this round) or 3-1-4 (settled winnings, possibly zero).
type WinningsResponse struct {
	Code     ReplyTriple
	Winnings uint32
}

func (r WinningsResponse) ReplyCode() ReplyTriple { return r.Code }

func (r WinningsResponse) Encode(w *bufio.Writer) error {
	if err := writeReplyTriple(w, r.Code); err != nil {
		return err
	}
	return writeU32(w, r.Winnings)
}

// ASCIIResponse is the catch-all shape used by every reply code not
// covered by one of the typed responses above.
type ASCIIResponse struct {
	Code ReplyTriple
	Text string
}

func (r ASCIIResponse) ReplyCode() ReplyTriple { return r.Code }

func (r ASCIIResponse) Encode(w *bufio.Writer) error {
	if err := writeReplyTriple(w, r.Code); err != nil {
		return err
	}
	return writeBlock(w, r.Text)
}

// isCardHandTriple reports whether a triple falls in the CardHandResponse
// family: rc1=1, rc2=1, rc3 in {1,2,3,4,6}, or the 3-1-2 turn notice.
func isCardHandTriple(t ReplyTriple) bool {
	if t == RCCardTurn {
		return true
	}
	if t[0] != 1 || t[1] != 1 {
		return false
	}
	switch t[2] {
	case 1, 2, 3, 4, 6:
		return true
	}
	return false
}

func isWinningsTriple(t ReplyTriple) bool {
	return t[0] == 3 && t[1] == 1 && (t[2] == 3 || t[2] == 4)
}

// DecodeResponse reads one reply triple plus body from r and returns the
// decoded, tagged Response. Decoders dispatch on the full triple; any
// triple not otherwise recognized decodes as ASCIIResponse.
func DecodeResponse(r *bufio.Reader) (Response, error) {
	t, err := readReplyTriple(r)
	if err != nil {
		return nil, err
	}

	switch {
	case t == RCVersionOK || t == RCVersionMismatch:
		v, err := readU32(r)
		if err != nil {
			return nil, fmtErr("decode VersionResponse", err)
		}
		return VersionResponse{Code: t, Version: v}, nil

	case t == RCBalanceValue:
		v, err := readU32(r)
		if err != nil {
			return nil, fmtErr("decode BalanceResponse", err)
		}
		return BalanceResponse{Balance: v}, nil

	case t == RCTableList:
		count, err := readU16(r)
		if err != nil {
			return nil, fmtErr("decode ListTablesResponse", err)
		}
		var tables []TableListing
		for i := uint16(0); i < count; i++ {
			id, err := readU16(r)
			if err != nil {
				return nil, fmtErr("decode ListTablesResponse entry id", err)
			}
			block, err := readBlock(r, maxSettingsLen)
			if err != nil {
				return nil, fmtErr("decode ListTablesResponse entry settings", err)
			}
			tables = append(tables, TableListing{TableID: id, Settings: ParseTableSettings(block)})
		}
		return ListTablesResponse{Tables: tables}, nil

	case t == RCTableAdded:
		id, err := readU16(r)
		if err != nil {
			return nil, fmtErr("decode AddTableResponse", err)
		}
		return AddTableResponse{TableID: id}, nil

	case t == RCJoinSeated:
		block, err := readBlock(r, maxSettingsLen)
		if err != nil {
			return nil, fmtErr("decode JoinTableResponse", err)
		}
		return JoinTableResponse{Settings: ParseTableSettings(block)}, nil

	case isCardHandTriple(t):
		holder, err := readU8(r)
		if err != nil {
			return nil, fmtErr("decode CardHandResponse holder", err)
		}
		soft, err := readU8(r)
		if err != nil {
			return nil, fmtErr("decode CardHandResponse soft", err)
		}
		hard, err := readU8(r)
		if err != nil {
			return nil, fmtErr("decode CardHandResponse hard", err)
		}
		n, err := readU8(r)
		if err != nil {
			return nil, fmtErr("decode CardHandResponse count", err)
		}
		cards := make([]Card, 0, n)
		for i := uint8(0); i < n; i++ {
			c, err := readCard(r)
			if err != nil {
				return nil, fmtErr("decode CardHandResponse card", err)
			}
			cards = append(cards, c)
		}
		return CardHandResponse{Code: t, Holder: holder, SoftValue: soft, HardValue: hard, Cards: cards}, nil

	case isWinningsTriple(t):
		v, err := readU32(r)
		if err != nil {
			return nil, fmtErr("decode WinningsResponse", err)
		}
		return WinningsResponse{Code: t, Winnings: v}, nil

	default:
		text, err := readBlock(r, maxSettingsLen)
		if err != nil {
			return nil, fmtErr("decode ASCIIResponse", err)
		}
		return ASCIIResponse{Code: t, Text: text}, nil
	}
}

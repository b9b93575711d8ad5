package protocol

// Category identifies which command family a PDU header belongs to.
type Category uint8

const (
	CategoryAccount   Category = 0
	CategoryBlackjack Category = 1
)

// Command codes, category 0 (account).
const (
	CmdVersion       uint8 = 0
	CmdUser          uint8 = 1
	CmdPass          uint8 = 2
	CmdGetBalance    uint8 = 3
	CmdUpdateBalance uint8 = 4
	CmdQuit          uint8 = 5
)

// Command codes, category 1 (blackjack). 6, 10 and 11 are reserved for
// Insurance/Split/Surrender: recognized on the wire so a conforming
// client's bytes always frame correctly, but with no round-loop effect
// (see SPEC_FULL.md section D).
const (
	CmdGetTables    uint8 = 0
	CmdAddTable     uint8 = 1
	CmdRemoveTable  uint8 = 2
	CmdJoinTable    uint8 = 3
	CmdLeaveTable   uint8 = 4
	CmdBet          uint8 = 5
	CmdInsurance    uint8 = 6
	CmdHit          uint8 = 7
	CmdStand        uint8 = 8
	CmdDoubleDown   uint8 = 9
	CmdSplit        uint8 = 10
	CmdSurrender    uint8 = 11
	CmdChat         uint8 = 12
)

// ReplyTriple is the three-octet, hierarchical reply code: rc1 is the
// outcome class, rc2 the subsystem, rc3 a specific code.
type ReplyTriple [3]uint8

func (t ReplyTriple) String() string {
	return string([]byte{'0' + t[0], '-', '0' + t[1], '-'}) + itoa(t[2])
}

func itoa(v uint8) string {
	if v == 0 {
		return "0"
	}
	var buf [3]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Reply-code triples named in spec section 4.1/4.2/4.4.
var (
	RCVersionOK       = ReplyTriple{2, 0, 1}
	RCVersionMismatch = ReplyTriple{5, 0, 1}

	RCUserAccepted = ReplyTriple{3, 0, 0}
	RCPassAccepted = ReplyTriple{2, 0, 2}
	RCAuthFailed   = ReplyTriple{5, 0, 2}

	RCBalanceAck   = ReplyTriple{2, 0, 0}
	RCBalanceValue = ReplyTriple{2, 0, 3}

	RCCommandRejectedGeneric    = ReplyTriple{5, 0, 0}
	RCCommandRejectedBlackjack  = ReplyTriple{5, 1, 0}

	RCTableList    = ReplyTriple{2, 1, 1}
	RCTableAdded   = ReplyTriple{2, 1, 4}
	RCTableNotFound = ReplyTriple{4, 1, 2}
	RCTableFull     = ReplyTriple{4, 1, 3}
	RCTableClosing  = ReplyTriple{4, 1, 4}

	RCJoinSeated     = ReplyTriple{3, 1, 0}
	RCJoinInProgress = ReplyTriple{1, 1, 0}
	RCLeaveOK        = ReplyTriple{2, 1, 5}

	RCBetAccepted = ReplyTriple{2, 1, 0}
	RCStandOK     = ReplyTriple{2, 1, 0}

	RCCardContinue   = ReplyTriple{1, 1, 1}
	RCCardBust       = ReplyTriple{1, 1, 2}
	RCCardDoubleDown = ReplyTriple{1, 1, 3}
	RCCardBlackjack  = ReplyTriple{1, 1, 4}
	RCCardTurn       = ReplyTriple{3, 1, 2}
	RCCard21         = ReplyTriple{1, 1, 6}
	RCTimeout        = ReplyTriple{1, 1, 7}

	RCRoundEndEmpty  = ReplyTriple{3, 1, 3}
	RCWinnings       = ReplyTriple{3, 1, 4}

	// RCRoundInfo is an informational round-phase broadcast ("Accepting
	// bets!", "Starting round..."). It reuses the one reply code the
	// CardHandResponse family deliberately skips (rc3=5, spec section 9's
	// open question) rather than inventing a code spec.md does not name.
	RCRoundInfo = ReplyTriple{1, 1, 5}

	RCNotImplemented = ReplyTriple{5, 1, 0}
)

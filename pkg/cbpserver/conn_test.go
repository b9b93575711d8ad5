package cbpserver

import (
	"bufio"
	"crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/account"
	"github.com/stephen-hansen/Casino-Blackjack-Protocol/pkg/protocol"
)

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func testLog() slog.Logger {
	return slog.NewBackend(nopWriter{}).Logger("TEST")
}

// newTestPair starts a conn.serve() loop against one end of an in-memory
// pipe and returns the other end, wrapped for the test to drive as a
// client. An empty *tls.Config is fine here: serve() never touches it
// directly, only Server.Serve's TLS listener wrapping does.
func newTestPair(t *testing.T) (client *bufio.ReadWriter, srv *Server) {
	t.Helper()
	serverConn, clientConn := net.Pipe()

	creds := account.Credentials{"alice": "secret"}
	srv = New(testLog(), creds, protocol.DefaultTableSettings(), &tls.Config{}, 1)

	c := newConn(serverConn, srv, testLog())
	go c.serve()

	rw := bufio.NewReadWriter(bufio.NewReader(clientConn), bufio.NewWriter(clientConn))
	t.Cleanup(func() { clientConn.Close() })
	return rw, srv
}

func sendCmd(t *testing.T, rw *bufio.ReadWriter, cmd protocol.Command) {
	t.Helper()
	require.NoError(t, cmd.Encode(rw.Writer))
	require.NoError(t, rw.Flush())
}

func recvResp(t *testing.T, rw *bufio.ReadWriter) protocol.Response {
	t.Helper()
	resp, err := protocol.DecodeResponse(rw.Reader)
	require.NoError(t, err)
	return resp
}

func TestVersionMismatchClosesConnection(t *testing.T) {
	rw, _ := newTestPair(t)
	sendCmd(t, rw, protocol.NewVersionCmd(ProtocolVersion+1))

	resp := recvResp(t, rw)
	require.Equal(t, protocol.RCVersionMismatch, resp.ReplyCode())

	_, err := rw.Reader.ReadByte()
	require.Error(t, err, "server must close the connection after a version mismatch")
}

func TestAuthHappyPath(t *testing.T) {
	rw, _ := newTestPair(t)

	sendCmd(t, rw, protocol.NewVersionCmd(ProtocolVersion))
	require.Equal(t, protocol.RCVersionOK, recvResp(t, rw).ReplyCode())

	sendCmd(t, rw, protocol.NewUserCmd("alice"))
	require.Equal(t, protocol.RCUserAccepted, recvResp(t, rw).ReplyCode())

	sendCmd(t, rw, protocol.NewPassCmd("secret"))
	require.Equal(t, protocol.RCPassAccepted, recvResp(t, rw).ReplyCode())

	sendCmd(t, rw, protocol.NewGetBalanceCmd())
	bal := recvResp(t, rw).(protocol.BalanceResponse)
	require.EqualValues(t, 0, bal.Balance, "a freshly created account starts at a zero balance")
}

func TestAuthFailureReturnsToUsername(t *testing.T) {
	rw, _ := newTestPair(t)

	sendCmd(t, rw, protocol.NewVersionCmd(ProtocolVersion))
	recvResp(t, rw)
	sendCmd(t, rw, protocol.NewUserCmd("alice"))
	recvResp(t, rw)

	sendCmd(t, rw, protocol.NewPassCmd("wrong"))
	require.Equal(t, protocol.RCAuthFailed, recvResp(t, rw).ReplyCode())

	// Back in USERNAME: a bare PASS is rejected, USER then PASS succeeds.
	sendCmd(t, rw, protocol.NewPassCmd("secret"))
	require.Equal(t, protocol.RCCommandRejectedGeneric, recvResp(t, rw).ReplyCode())

	sendCmd(t, rw, protocol.NewUserCmd("alice"))
	require.Equal(t, protocol.RCUserAccepted, recvResp(t, rw).ReplyCode())

	sendCmd(t, rw, protocol.NewPassCmd("secret"))
	require.Equal(t, protocol.RCPassAccepted, recvResp(t, rw).ReplyCode())
}

func TestUpdateBalanceThenGetBalanceReflectsDelta(t *testing.T) {
	rw, _ := newTestPair(t)
	sendCmd(t, rw, protocol.NewVersionCmd(ProtocolVersion))
	recvResp(t, rw)
	sendCmd(t, rw, protocol.NewUserCmd("alice"))
	recvResp(t, rw)
	sendCmd(t, rw, protocol.NewPassCmd("secret"))
	recvResp(t, rw)

	sendCmd(t, rw, protocol.NewUpdateBalanceCmd(500))
	require.Equal(t, protocol.RCBalanceAck, recvResp(t, rw).ReplyCode())

	sendCmd(t, rw, protocol.NewGetBalanceCmd())
	bal := recvResp(t, rw).(protocol.BalanceResponse)
	require.EqualValues(t, 500, bal.Balance)
}

func TestCommandNotAcceptedAtCurrentStateIsRejected(t *testing.T) {
	rw, _ := newTestPair(t)
	// GETBALANCE is only legal from ACCOUNT onward; sent immediately after
	// VERSION (still in USERNAME), it must be rejected without advancing.
	sendCmd(t, rw, protocol.NewVersionCmd(ProtocolVersion))
	recvResp(t, rw)

	sendCmd(t, rw, protocol.NewGetBalanceCmd())
	resp := recvResp(t, rw).(protocol.ASCIIResponse)
	require.Equal(t, protocol.RCCommandRejectedGeneric, resp.Code)
}

func TestGetTablesThenJoinTableAndLeave(t *testing.T) {
	rw, _ := newTestPair(t)
	sendCmd(t, rw, protocol.NewVersionCmd(ProtocolVersion))
	recvResp(t, rw)
	sendCmd(t, rw, protocol.NewUserCmd("alice"))
	recvResp(t, rw)
	sendCmd(t, rw, protocol.NewPassCmd("secret"))
	recvResp(t, rw)

	sendCmd(t, rw, protocol.NewGetTablesCmd())
	listing := recvResp(t, rw).(protocol.ListTablesResponse)
	require.Len(t, listing.Tables, 1, "the registry seeds one default table at startup")

	sendCmd(t, rw, protocol.NewJoinTableCmd(0))
	joined := recvResp(t, rw).(protocol.JoinTableResponse)
	require.EqualValues(t, protocol.DefaultTableSettings(), joined.Settings)

	// Give the round loop's admit phase a moment to run and deliver the
	// "accepting bets" broadcast before leaving.
	time.Sleep(50 * time.Millisecond)

	sendCmd(t, rw, protocol.NewLeaveTableCmd())
	// Drain until we see the LEAVETABLE acknowledgement; the round loop may
	// have queued an informational broadcast first.
	for i := 0; i < 5; i++ {
		resp := recvResp(t, rw)
		if resp.ReplyCode() == protocol.RCLeaveOK {
			return
		}
	}
	t.Fatal("did not observe RCLeaveOK after LEAVETABLE")
}

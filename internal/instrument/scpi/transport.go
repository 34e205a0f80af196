package scpi

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/gotmc/prologix"
	"github.com/gotmc/prologix/driver/vcp"
)

// ioTimeout bounds every wire operation. Matches the 15 s VISA timeout the
// scope's programming guide recommends.
const ioTimeout = 15 * time.Second

// tcpTransport talks to an LXI instrument over its raw SCPI socket
// (conventionally port 5025).
type tcpTransport struct {
	conn   net.Conn
	reader *bufio.Reader
}

// DialTCP opens a raw SCPI socket transport and returns a driver on it.
func DialTCP(addr string) (*Driver, error) {
	conn, err := net.DialTimeout("tcp", addr, ioTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial instrument at %s: %w", addr, err)
	}
	return NewDriver(&tcpTransport{conn: conn, reader: bufio.NewReader(conn)}), nil
}

func (t *tcpTransport) Command(cmd string) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(ioTimeout)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(t.conn, "%s\n", cmd)
	return err
}

func (t *tcpTransport) Query(cmd string) (string, error) {
	if err := t.Command(cmd); err != nil {
		return "", err
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(ioTimeout)); err != nil {
		return "", err
	}
	return t.reader.ReadString('\n')
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

// gpibTransport drives the instrument through a Prologix GPIB-USB controller
// on a virtual COM port, for bench scopes without a LAN interface.
type gpibTransport struct {
	ctrl *prologix.Controller
	port *vcp.VCP
}

// DialGPIB opens a Prologix controller on the given serial port addressing
// the instrument at the given GPIB address, and returns a driver on it.
func DialGPIB(serialPort string, gpibAddr int) (*Driver, error) {
	port, err := vcp.NewVCP(serialPort)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", serialPort, err)
	}
	ctrl, err := prologix.NewController(port, gpibAddr, true)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to create GPIB controller: %w", err)
	}
	return NewDriver(&gpibTransport{ctrl: ctrl, port: port}), nil
}

func (t *gpibTransport) Command(cmd string) error {
	return t.ctrl.Command("%s", cmd)
}

func (t *gpibTransport) Query(cmd string) (string, error) {
	return t.ctrl.Query(cmd)
}

func (t *gpibTransport) Close() error {
	// Drop any unread bytes before releasing the port.
	if err := t.port.Flush(); err != nil {
		return err
	}
	return t.port.Close()
}

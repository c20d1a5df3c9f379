//go:build !linux

package negotio

import "net"

func udpSetNoFragment(conn *net.UDPConn) error {
	return nil
}

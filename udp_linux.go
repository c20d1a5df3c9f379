//go:build linux

package negotio

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

func udpSetNoFragment(conn *net.UDPConn) (err error) {
	var syscallConn syscall.RawConn
	syscallConn, err = conn.SyscallConn()
	if err != nil {
		return
	}
	err2 := syscallConn.Control(func(fd uintptr) {
		err = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_MTU_DISCOVER, unix.IP_PMTUDISC_DO)
	})
	if err != nil {
		return
	}
	err = err2
	return
}

//go:build linux

package radiolink

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// setSocketBuffers applies the requested socket buffer sizes. It first
// tries the forced setsockopt variants, which bypass the rmem_max/wmem_max
// sysctls but need CAP_NET_ADMIN; without that privilege it falls back to
// the portable setters and lets the kernel cap the size.
func setSocketBuffers(conn *net.UDPConn, snd, rcv int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("raw socket access: %w", err)
	}

	var errs []error
	if snd > 0 {
		if forceSockoptInt(raw, unix.SO_SNDBUFFORCE, snd) != nil {
			if err := conn.SetWriteBuffer(snd); err != nil {
				errs = append(errs, fmt.Errorf("send buffer %d: %w", snd, err))
			}
		}
	}
	if rcv > 0 {
		if forceSockoptInt(raw, unix.SO_RCVBUFFORCE, rcv) != nil {
			if err := conn.SetReadBuffer(rcv); err != nil {
				errs = append(errs, fmt.Errorf("receive buffer %d: %w", rcv, err))
			}
		}
	}
	return errors.Join(errs...)
}

func forceSockoptInt(raw syscallConn, opt, value int) error {
	var sockErr error
	err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, opt, value)
	})
	if err != nil {
		return err
	}
	return sockErr
}

type syscallConn interface {
	Control(f func(fd uintptr)) error
}

//go:build !linux

package radiolink

import (
	"errors"
	"fmt"
	"net"
)

func setSocketBuffers(conn *net.UDPConn, snd, rcv int) error {
	var errs []error
	if snd > 0 {
		if err := conn.SetWriteBuffer(snd); err != nil {
			errs = append(errs, fmt.Errorf("send buffer %d: %w", snd, err))
		}
	}
	if rcv > 0 {
		if err := conn.SetReadBuffer(rcv); err != nil {
			errs = append(errs, fmt.Errorf("receive buffer %d: %w", rcv, err))
		}
	}
	return errors.Join(errs...)
}

//go:build !linux

package egress

import (
	"fmt"
	"net"
)

// verifyPeer cannot read peer credentials off linux, so pinning a uid
// refuses the channel.
func verifyPeer(net.Conn, int) error {
	return fmt.Errorf("%w: peer credentials unsupported", ErrPeer)
}

//go:build !pcap
// +build !pcap

package intake

import (
	"context"
	"fmt"
)

// ReadPCAPFile is the stub used when PCAP support is disabled.
// Build with -tags=pcap to enable capture replay.
func ReadPCAPFile(ctx context.Context, pcapFile string, udpPort int, handle func(payload []byte) error) error {
	return fmt.Errorf("intake: PCAP support not enabled: rebuild with -tags=pcap")
}

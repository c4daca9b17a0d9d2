//go:build pcap
// +build pcap

package intake

import (
	"context"
	"fmt"
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// ReadPCAPFile replays UDP payloads from a capture file, invoking handle for
// each payload on the given port. Iteration stops at end of file, on context
// cancellation, or when handle returns an error.
//
// Only available when building with the 'pcap' build tag (libpcap needed at
// link time).
func ReadPCAPFile(ctx context.Context, pcapFile string, udpPort int, handle func(payload []byte) error) error {
	h, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("intake: open pcap %s: %w", pcapFile, err)
	}
	defer h.Close()

	filter := fmt.Sprintf("udp port %d", udpPort)
	if err := h.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("intake: set BPF filter %q: %w", filter, err)
	}

	source := gopacket.NewPacketSource(h, h.LinkType())
	count := 0
	for {
		select {
		case <-ctx.Done():
			log.Printf("pcap replay cancelled after %d packets", count)
			return ctx.Err()
		case packet := <-source.Packets():
			if packet == nil {
				log.Printf("pcap replay complete: %d packets", count)
				return nil
			}
			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok || len(udp.Payload) == 0 {
				continue
			}
			count++
			if err := handle(udp.Payload); err != nil {
				return err
			}
		}
	}
}

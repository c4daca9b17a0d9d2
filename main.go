// Command framesift decodes the known prefix of captured telemetry buffers
// and brute-force scans the remaining payload for plausible float32 fields.
//
// Buffers come from a dump file, an inline hex string, a pcap replay, a UDP
// port or a serial port. Results print to stdout and can optionally be
// stored in SQLite and served over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/framesift/internal/analysis"
	"github.com/banshee-data/framesift/internal/api"
	"github.com/banshee-data/framesift/internal/intake"
	"github.com/banshee-data/framesift/internal/livelink"
	"github.com/banshee-data/framesift/internal/report"
	"github.com/banshee-data/framesift/internal/scan"
	"github.com/banshee-data/framesift/internal/scandb"
	"github.com/banshee-data/framesift/internal/wire"
)

var (
	inputFile  = flag.String("input", "", "Capture file to scan (.txt/.list byte dump, .hex, or raw)")
	inlineHex  = flag.String("hex", "", "Inline hex buffer to scan")
	udpAddr    = flag.String("udp", "", "Listen for buffers on this UDP address (e.g. :11111)")
	serialPort = flag.String("serial", "", "Read hex-dump lines from this serial port")
	baudRate   = flag.Int("baud", 115200, "Serial baud rate")
	pcapFile   = flag.String("pcap", "", "Replay UDP payloads from this pcap file (requires -tags=pcap build)")
	pcapPort   = flag.Int("pcap-port", 11111, "UDP port filter for pcap replay")

	layoutName = flag.String("layout", "none", "Header layout to decode before scanning (none, livelink-v1)")
	frames     = flag.Bool("frames", false, "Also attempt a full LiveLink frame decode of each buffer")
	minAbs     = flag.Float64("min-abs", 0, "Plausibility floor for |value|")
	maxAbs     = flag.Float64("max-abs", 1, "Plausibility ceiling for |value|")
	workers    = flag.Int("workers", 1, "Scan workers (0 = GOMAXPROCS)")

	dbPath = flag.String("db", "", "SQLite file for storing scan sessions (empty = no persistence)")
	listen = flag.String("listen", "", "HTTP listen address for the scan API (empty = no server)")
)

func main() {
	flag.Parse()

	var layout wire.HeaderLayout
	if *layoutName != "none" {
		var ok bool
		layout, ok = api.Layouts[*layoutName]
		if !ok {
			log.Fatalf("unknown layout %q", *layoutName)
		}
	}

	var db *scandb.DB
	if *dbPath != "" {
		var err error
		db, err = scandb.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("failed to open scan database: %v", err)
		}
		defer db.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if *listen != "" {
		server := api.NewServer(db)
		mux := server.ServeMux()
		if db != nil {
			db.AttachDebugRoutes(mux)
		}
		httpServer := &http.Server{Addr: *listen, Handler: mux}

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("scan API listening on %s", *listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			httpServer.Shutdown(context.Background())
		}()
	}

	probe := func(source string, buf []byte) {
		if err := probeBuffer(source, buf, layout, db); err != nil {
			log.Printf("probe %s: %v", source, err)
		}
	}

	switch {
	case *inlineHex != "":
		buf, err := intake.ParseHexDump(*inlineHex)
		if err != nil {
			log.Fatalf("bad -hex buffer: %v", err)
		}
		probe("inline", buf)

	case *inputFile != "":
		buf, err := intake.ReadBufferFile(*inputFile)
		if err != nil {
			log.Fatalf("failed to load capture: %v", err)
		}
		probe(*inputFile, buf)

	case *pcapFile != "":
		n := 0
		err := intake.ReadPCAPFile(ctx, *pcapFile, *pcapPort, func(payload []byte) error {
			n++
			probe(fmt.Sprintf("%s#%d", *pcapFile, n), payload)
			return nil
		})
		if err != nil && err != context.Canceled {
			log.Fatalf("pcap replay failed: %v", err)
		}

	case *udpAddr != "":
		l, err := intake.NewUDPListener(*udpAddr)
		if err != nil {
			log.Fatalf("failed to bind UDP listener: %v", err)
		}
		defer l.Close()
		log.Printf("listening for buffers on %s", l.LocalAddr())

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Monitor(ctx); err != nil {
				log.Printf("udp monitor error: %v", err)
			}
		}()
		n := 0
		for buf := range l.Packets() {
			n++
			probe(fmt.Sprintf("udp#%d", n), buf)
		}

	case *serialPort != "":
		s, err := intake.NewSerialIntake(*serialPort, *baudRate)
		if err != nil {
			log.Fatalf("failed to open serial port: %v", err)
		}
		defer s.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Monitor(ctx); err != nil {
				log.Printf("serial monitor error: %v", err)
			}
		}()
		n := 0
		for buf := range s.Packets() {
			n++
			probe(fmt.Sprintf("serial#%d", n), buf)
		}

	case *listen != "":
		// Server-only mode: wait for shutdown.
		<-ctx.Done()

	default:
		flag.Usage()
		os.Exit(2)
	}

	stop()
	wg.Wait()
}

// probeBuffer runs the decode-then-scan pipeline over one buffer and prints
// the findings.
func probeBuffer(source string, buf []byte, layout wire.HeaderLayout, db *scandb.DB) error {
	fmt.Printf("== %s (%d bytes)\n", source, len(buf))

	var header *wire.DecodedHeader
	start := 0
	if layout != nil {
		h, err := wire.DecodeHeader(buf, layout)
		if err != nil {
			return err
		}
		header = h
		start = h.PayloadStart
		fmt.Print(report.HeaderFields(layout, h))
	}

	if *frames {
		if frame, err := livelink.ParsePacket(buf); err != nil {
			log.Printf("livelink frame decode failed: %v", err)
		} else {
			fmt.Printf("livelink v%d frame from %s: %d blendshapes, EyeBlinkLeft=%.4f\n",
				frame.Version, frame.DeviceID, len(frame.Weights), frame.Weight("EyeBlinkLeft"))
		}
	}

	pred := scan.InRange(*minAbs, *maxAbs)
	var candidates []scan.Candidate
	if *workers == 1 {
		candidates = scan.ScanAll(buf, start, pred)
	} else {
		candidates = scan.ScanParallel(buf, start, pred, *workers)
	}

	summary := analysis.Summarize(buf, start, candidates)
	fmt.Print(report.Annotate(buf, header, candidates))
	fmt.Print(report.Candidates(candidates))
	fmt.Printf("windows=%d candidates=%d hit_rate=%.4f entropy=%.2f bits/byte\n",
		summary.Windows, summary.Candidates, summary.HitRate, summary.EntropyBits)

	if db != nil {
		id, err := db.RecordSession(scandb.Session{
			Source:       source,
			BufferLength: len(buf),
			PayloadStart: start,
			LayoutName:   *layoutName,
			MinAbs:       *minAbs,
			MaxAbs:       *maxAbs,
			Windows:      summary.Windows,
			HitRate:      summary.HitRate,
			EntropyBits:  summary.EntropyBits,
		}, candidates)
		if err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}
		fmt.Printf("stored as session %d\n", id)
	}
	return nil
}

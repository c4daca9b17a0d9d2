// Command scan-chart renders a stored scan session (or a fresh scan of a
// capture file) as an HTML scatter of candidate offset versus decoded value,
// split by byte order. Clusters of same-order candidates at a regular
// stride usually mark a float array.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/framesift/internal/intake"
	"github.com/banshee-data/framesift/internal/scan"
	"github.com/banshee-data/framesift/internal/scandb"
	"github.com/banshee-data/framesift/internal/wire"
)

var (
	dbPath    = flag.String("db", "", "SQLite scan database to read a session from")
	sessionID = flag.Int64("session", 0, "Session ID to chart (with -db)")
	input     = flag.String("input", "", "Capture file to scan directly instead of reading a session")
	startAt   = flag.Int("start", 0, "Scan start offset (with -input)")
	minAbs    = flag.Float64("min-abs", 0, "Plausibility floor (with -input)")
	maxAbs    = flag.Float64("max-abs", 1, "Plausibility ceiling (with -input)")
	output    = flag.String("o", "scan-chart.html", "Output HTML file")
)

func main() {
	flag.Parse()

	var (
		candidates []scan.Candidate
		title      string
		err        error
	)
	switch {
	case *dbPath != "" && *sessionID != 0:
		candidates, title, err = loadSession(*dbPath, *sessionID)
	case *input != "":
		var buf []byte
		buf, err = intake.ReadBufferFile(*input)
		if err == nil {
			candidates = scan.ScanAll(buf, *startAt, scan.InRange(*minAbs, *maxAbs))
			title = fmt.Sprintf("%s (%d bytes, start %d)", *input, len(buf), *startAt)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("failed to load candidates: %v", err)
	}
	if len(candidates) == 0 {
		log.Fatal("no candidates to chart")
	}

	if err := render(candidates, title, *output); err != nil {
		log.Fatalf("failed to render chart: %v", err)
	}
	log.Printf("wrote %s (%d candidates)", *output, len(candidates))
}

func loadSession(path string, id int64) ([]scan.Candidate, string, error) {
	db, err := scandb.NewDB(path)
	if err != nil {
		return nil, "", err
	}
	defer db.Close()

	candidates, err := db.Candidates(id)
	if err != nil {
		return nil, "", err
	}
	return candidates, fmt.Sprintf("session %d from %s", id, path), nil
}

func render(candidates []scan.Candidate, title, outPath string) error {
	var be, le []opts.ScatterData
	for _, c := range candidates {
		d := opts.ScatterData{Value: []interface{}{c.Offset, c.Value}}
		if c.ByteOrder == wire.BigEndian {
			be = append(be, d)
		} else {
			le = append(le, d)
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "framesift scan", Theme: "dark", Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Float candidates", Subtitle: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "byte offset", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "decoded value", NameLocation: "middle", NameGap: 40}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	scatter.AddSeries("big-endian", be, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	scatter.AddSeries("little-endian", le, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return scatter.Render(f)
}

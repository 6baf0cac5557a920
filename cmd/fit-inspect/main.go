// fit-inspect dumps the contents of a FIT file the way the sync engine sees
// it: the raw session and lap messages, plus the workout samples the fitfile
// provider would derive from them. Useful when an upload produces fewer
// activities than expected.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"

	"github.com/stridewell/healthsync/pkg/provider/fitfile"
)

type sessionInfo struct {
	startTime time.Time
	duration  float64
	distance  float64
	sport     string
	subSport  string
}

type lapInfo struct {
	startTime time.Time
	duration  float64
	distance  float64
}

func main() {
	inputPath := flag.String("input", "", "Path to FIT file")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Please provide input file with -input")
		os.Exit(1)
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Printf("Failed to read file: %v\n", err)
		os.Exit(1)
	}

	fitDec := decoder.New(bytes.NewReader(data))
	fitData, err := fitDec.Decode()
	if err != nil {
		fmt.Printf("Failed to decode FIT file: %v\n", err)
		os.Exit(1)
	}

	var sessions []sessionInfo
	var laps []lapInfo
	recordCount := 0

	for _, msg := range fitData.Messages {
		switch msg.Num {
		case typedef.MesgNumSession:
			s := mesgdef.NewSession(&msg)
			sessions = append(sessions, sessionInfo{
				startTime: s.StartTime.UTC(),
				duration:  float64(s.TotalElapsedTime) / 1000,
				distance:  float64(s.TotalDistance) / 100,
				sport:     s.Sport.String(),
				subSport:  s.SubSport.String(),
			})
		case typedef.MesgNumLap:
			l := mesgdef.NewLap(&msg)
			laps = append(laps, lapInfo{
				startTime: l.StartTime.UTC(),
				duration:  float64(l.TotalElapsedTime) / 1000,
				distance:  float64(l.TotalDistance) / 100,
			})
		case typedef.MesgNumRecord:
			recordCount++
		}
	}

	fmt.Printf("=== SESSIONS: %d ===\n", len(sessions))
	if len(sessions) > 0 {
		sw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(sw, "#\tStart Time\tDuration\tDistance\tSport\tSubSport")
		for i, s := range sessions {
			fmt.Fprintf(sw, "%d\t%s\t%s\t%.2f km\t%s\t%s\n",
				i+1, s.startTime.Format(time.RFC3339), formatDuration(s.duration), s.distance/1000, s.sport, s.subSport)
		}
		sw.Flush()
	}

	fmt.Printf("\n=== LAPS: %d, RECORDS: %d ===\n", len(laps), recordCount)
	if len(laps) > 0 && len(laps) <= 20 {
		lw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(lw, "#\tStart Time\tDuration\tDistance")
		for i, l := range laps {
			fmt.Fprintf(lw, "%d\t%s\t%s\t%.2f km\n",
				i+1, l.startTime.Format("15:04:05"), formatDuration(l.duration), l.distance/1000)
		}
		lw.Flush()
	}

	samples, err := fitfile.ParseSessions(*inputPath, data)
	if err != nil {
		fmt.Printf("\nEngine would reject this file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n=== DERIVED WORKOUT SAMPLES: %d ===\n", len(samples))
	dw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(dw, "Sample ID\tSource\tStart\tEnd\tValue")
	for _, s := range samples {
		fmt.Fprintf(dw, "%s\t%s\t%s\t%s\t%.1f %s\n",
			s.SampleID, s.SourceName,
			s.StartTime.Format(time.RFC3339), s.EndTime.Format(time.RFC3339),
			s.Value, s.Unit)
	}
	dw.Flush()
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	return d.Round(time.Second).String()
}

// fit-gen produces a synthetic FIT activity file. Handy for seeding the
// upload bucket when exercising the fitfile provider without a real watch
// export on hand.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
)

func main() {
	outputFile := flag.String("output", "output.fit", "Path to output FIT file")
	sportName := flag.String("sport", "running", "Sport: running, cycling, swimming, walking")
	startStr := flag.String("start", "", "Session start time, RFC3339 (default: one hour ago)")
	duration := flag.Duration("duration", 45*time.Minute, "Session duration")
	sessions := flag.Int("sessions", 1, "Number of back-to-back sessions")
	flag.Parse()

	sport, err := parseSport(*sportName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	start := time.Now().Add(-time.Hour).UTC()
	if *startStr != "" {
		start, err = time.Parse(time.RFC3339, *startStr)
		if err != nil {
			log.Fatalf("Failed to parse start time: %v", err)
		}
	}

	fit := &proto.FIT{}

	fileID := mesgdef.NewFileId(nil).
		SetType(typedef.FileActivity).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetProduct(1).
		SetTimeCreated(start)
	fit.Messages = append(fit.Messages, fileID.ToMesg(nil))

	activityMsg := mesgdef.NewActivity(nil).
		SetTimestamp(start).
		SetType(typedef.ActivityManual).
		SetNumSessions(uint16(*sessions))
	fit.Messages = append(fit.Messages, activityMsg.ToMesg(nil))

	for i := 0; i < *sessions; i++ {
		sessionStart := start.Add(time.Duration(i) * *duration)
		sessionMsg := mesgdef.NewSession(nil).
			SetTimestamp(sessionStart).
			SetSport(sport).
			SetStartTime(sessionStart).
			SetTotalElapsedTime(uint32(duration.Milliseconds())).
			SetTotalTimerTime(uint32(duration.Milliseconds()))
		fit.Messages = append(fit.Messages, sessionMsg.ToMesg(nil))
	}

	var buf bytes.Buffer
	if err := encoder.New(&buf).Encode(fit); err != nil {
		log.Fatalf("Failed to encode FIT file: %v", err)
	}

	if err := os.WriteFile(*outputFile, buf.Bytes(), 0644); err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}

	fmt.Printf("Wrote %d session(s) to %s (%d bytes)\n", *sessions, *outputFile, buf.Len())
}

func parseSport(name string) (typedef.Sport, error) {
	switch name {
	case "running":
		return typedef.SportRunning, nil
	case "cycling":
		return typedef.SportCycling, nil
	case "swimming":
		return typedef.SportSwimming, nil
	case "walking":
		return typedef.SportWalking, nil
	default:
		return typedef.SportInvalid, fmt.Errorf("unknown sport %q", name)
	}
}

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/teslashibe/facelight/pkg/client"
	"github.com/teslashibe/facelight/pkg/presence"
)

var statusIcon = map[presence.Status]string{
	presence.StatusActive: "🟢",
	presence.StatusIdle:   "⚪",
	presence.StatusError:  "🔴",
}

func printCheck(w io.Writer, res client.CheckResult, actuatorErr error) {
	fmt.Fprintf(w, "👤 %s\n", presence.FaceLabel(res.Faces))
	fmt.Fprintf(w, "💡 Brightness %s\n", presence.BrightnessLabel(res.Brightness))
	if actuatorErr != nil {
		fmt.Fprintf(w, "⚠️  Brightness not applied: %v\n", actuatorErr)
	}
}

func printSnapshot(w io.Writer, snap presence.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Status:\t%s %s\n", statusIcon[snap.Status], snap.Status)
	fmt.Fprintf(tw, "Faces:\t%s\n", presence.FaceLabel(snap.Faces))
	fmt.Fprintf(tw, "Brightness:\t%s\n", presence.BrightnessLabel(snap.Brightness))

	checked := "never"
	if snap.LastCheckedClock != "" {
		checked = snap.LastCheckedClock
	}
	fmt.Fprintf(tw, "Last checked:\t%s\n", checked)

	monitoring := "off"
	if snap.Monitoring {
		monitoring = "on"
	}
	fmt.Fprintf(tw, "Monitoring:\t%s\n", monitoring)

	if snap.Error != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", snap.Error)
	}
	if snap.ActuatorError != "" {
		fmt.Fprintf(tw, "Brightness error:\t%s\n", snap.ActuatorError)
	}
	tw.Flush()
}

// printLine writes one snapshot per line for the live feed.
func printLine(w io.Writer, snap presence.Snapshot) {
	if snap.Loading {
		fmt.Fprintln(w, "⏳ checking...")
		return
	}
	checked := snap.LastCheckedClock
	if checked == "" {
		checked = "--:--:--"
	}
	line := fmt.Sprintf("%s %s  %s  brightness %s", checked, statusIcon[snap.Status],
		presence.FaceLabel(snap.Faces), presence.BrightnessLabel(snap.Brightness))
	if snap.Status == presence.StatusError && snap.Error != "" {
		line += "  error: " + snap.Error
	}
	fmt.Fprintln(w, line)
}

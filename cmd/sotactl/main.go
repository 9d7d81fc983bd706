package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sotachaser/sotad/pkg/client"
)

var (
	addr    = flag.String("addr", "localhost:8080", "Daemon address (host:port)")
	command = flag.String("cmd", "", "Command to run (e.g. 'status', 'tune 14.062 CW')")
)

func main() {
	flag.Parse()

	// If no command specified, show interactive help
	if *command == "" {
		if len(flag.Args()) > 0 {
			*command = strings.Join(flag.Args(), " ")
		} else {
			showHelp()
			return
		}
	}

	c := client.NewClient(*addr)

	if err := run(c, *command); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *client.Client, command string) error {
	fields := strings.Fields(command)
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	switch verb {
	case "status":
		status, err := c.GetStatus()
		if err != nil {
			return err
		}
		fmt.Printf("sotad %s (%s)\n", status.Version, status.Status)
		fmt.Printf("  callsign:  %s\n", status.Callsign)
		fmt.Printf("  radio:     connected=%v drain=%v\n", status.Connected, status.DrainRunning)
		fmt.Printf("  uptime:    %s\n", status.Uptime)
		fmt.Printf("  spots:     %d stored\n", status.SpotCount)
		return nil

	case "spots":
		list, err := c.GetSpots()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No spots")
			return nil
		}
		for _, spot := range list {
			fmt.Printf("%-8s %-12s %-12s %8.3f MHz %-6s %s\n",
				spot.Time(), spot.Callsign, spot.Summit, spot.FrequencyMHz, spot.Mode, spot.Comments)
		}
		return nil

	case "refresh":
		if err := c.RefreshSpots(); err != nil {
			return err
		}
		fmt.Println("Spot list refreshed")
		return nil

	case "connect":
		baud := 0
		if len(args) > 0 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("bad baud rate %q", args[0])
			}
			baud = parsed
		}
		if err := c.Connect(baud); err != nil {
			return err
		}
		fmt.Println("Radio connected")
		return nil

	case "disconnect":
		if err := c.Disconnect(); err != nil {
			return err
		}
		fmt.Println("Radio disconnected")
		return nil

	case "tune":
		if len(args) < 1 {
			return fmt.Errorf("usage: tune <freq_mhz> [mode]")
		}
		freq, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("bad frequency %q", args[0])
		}
		mode := "USB"
		if len(args) > 1 {
			mode = args[1]
		}
		if err := c.Tune(freq, mode); err != nil {
			return err
		}
		fmt.Printf("Tuned to %.3f MHz %s\n", freq, strings.ToUpper(mode))
		return nil

	case "test-tune":
		if err := c.TestTune(); err != nil {
			return err
		}
		fmt.Println("Test tune sent (14.062 MHz CW)")
		return nil

	case "raw":
		if len(args) < 1 {
			return fmt.Errorf("usage: raw <command>")
		}
		cmd := strings.Join(args, " ")
		if err := c.SendRaw(cmd); err != nil {
			return err
		}
		fmt.Printf("Sent %q\n", cmd)
		return nil

	case "freq", "frequency":
		frame, err := c.QueryFrequency()
		if err != nil {
			return err
		}
		if frame == "" {
			fmt.Println("No response frame yet")
		} else {
			fmt.Printf("Response: %s\n", frame)
		}
		return nil

	case "prefs":
		if len(args) == 0 {
			prefs, err := c.GetPrefs()
			if err != nil {
				return err
			}
			fmt.Printf("Tune range: %.3f-%.3f MHz\n", prefs.MinFreqMHz, prefs.MaxFreqMHz)
			return nil
		}
		if len(args) != 2 {
			return fmt.Errorf("usage: prefs [<min_mhz> <max_mhz>]")
		}
		minFreq, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("bad min frequency %q", args[0])
		}
		maxFreq, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("bad max frequency %q", args[1])
		}
		if err := c.SetPrefs(client.Prefs{MinFreqMHz: minFreq, MaxFreqMHz: maxFreq}); err != nil {
			return err
		}
		fmt.Printf("Tune range set to %.3f-%.3f MHz\n", minFreq, maxFreq)
		return nil

	default:
		return fmt.Errorf("unknown command %q", verb)
	}
}

func showHelp() {
	fmt.Println("sotactl - SOTA Chaser Daemon Control Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options] <command>\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -addr <host:port>  Daemon address (default: localhost:8080)")
	fmt.Println("  -cmd <command>     Command to run")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  status                    Get daemon status")
	fmt.Println("  spots                     List current spots")
	fmt.Println("  refresh                   Force a spot feed refresh")
	fmt.Println("  connect [baud]            Open the radio's serial port")
	fmt.Println("  disconnect                Close the radio's serial port")
	fmt.Println("  tune <freq_mhz> [mode]    Tune the radio")
	fmt.Println("  test-tune                 Tune to 14.062 MHz CW")
	fmt.Println("  raw <command>             Send a raw CAT command")
	fmt.Println("  freq                      Query VFO A frequency")
	fmt.Println("  prefs [<min> <max>]       Show or set the tune range in MHz")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s status\n", os.Args[0])
	fmt.Printf("  %s 'tune 7.032 CW'\n", os.Args[0])
	fmt.Printf("  %s prefs 7.0 28.0\n", os.Args[0])
}

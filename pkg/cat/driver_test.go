package cat

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/sotachaser/sotad/pkg/serial"
)

// newTestDriver wires a driver to a mock platform and replaces the
// inter-command sleep with a recorder.
func newTestDriver(t *testing.T) (*Driver, *serial.MockPort, *[]time.Duration) {
	t.Helper()

	platform := serial.NewMockPlatform()
	transport := serial.NewTransport(platform)
	if err := transport.Connect(9600); err != nil {
		t.Fatalf("Failed to connect mock transport: %v", err)
	}

	driver := NewDriver(transport)
	sleeps := &[]time.Duration{}
	driver.sleep = func(d time.Duration) {
		*sleeps = append(*sleeps, d)
	}

	return driver, platform.Port, sleeps
}

func TestModeCommand(t *testing.T) {
	cases := map[string]string{
		"LSB":   "MD1;",
		"USB":   "MD2;",
		"CW":    "MD3;",
		"FM":    "MD4;",
		"AM":    "MD5;",
		"SSB":   "MD2;",
		"FT8":   "MD2;",
		"FT4":   "MD2;",
		"PSK31": "MD2;",
		"RTTY":  "MD2;",
	}

	for mode, want := range cases {
		if got := ModeCommand(mode); got != want {
			t.Errorf("ModeCommand(%q) = %q, want %q", mode, got, want)
		}
	}

	t.Run("Case Insensitive", func(t *testing.T) {
		if ModeCommand("cw") != ModeCommand("CW") {
			t.Error("Expected cw and CW to yield identical commands")
		}
	})

	t.Run("Unknown Defaults To USB", func(t *testing.T) {
		if got := ModeCommand("JT65"); got != "MD2;" {
			t.Errorf("Expected unknown mode to default to MD2; got %q", got)
		}
	})
}

func TestFrequencyCommand(t *testing.T) {
	if got := FrequencyCommand(14062000); got != "FA00014062000;" {
		t.Errorf("Expected FA00014062000; got %q", got)
	}
	if got := FrequencyCommand(7); got != "FA00000000007;" {
		t.Errorf("Expected FA00000000007; got %q", got)
	}
}

func TestTune(t *testing.T) {
	driver, port, sleeps := newTestDriver(t)

	if err := driver.Tune(context.Background(), 14062000, "CW"); err != nil {
		t.Fatalf("Tune failed: %v", err)
	}

	want := []string{"FR0;", "FT0;", "FA00014062000;", "MD3;"}
	if got := port.WrittenCommands(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected command sequence %v, got %v", want, got)
	}

	wantSleeps := []time.Duration{interCommandDelay, interCommandDelay}
	if !reflect.DeepEqual(*sleeps, wantSleeps) {
		t.Errorf("Expected sleeps %v, got %v", wantSleeps, *sleeps)
	}
}

func TestTestTuneMatchesTune(t *testing.T) {
	driver, port, _ := newTestDriver(t)
	if err := driver.TestTune(context.Background()); err != nil {
		t.Fatalf("TestTune failed: %v", err)
	}

	reference, refPort, _ := newTestDriver(t)
	if err := reference.Tune(context.Background(), 14062000, "CW"); err != nil {
		t.Fatalf("Tune failed: %v", err)
	}

	if !reflect.DeepEqual(port.WrittenCommands(), refPort.WrittenCommands()) {
		t.Errorf("Expected TestTune to behave like Tune(14062000, CW): %v vs %v",
			port.WrittenCommands(), refPort.WrittenCommands())
	}
}

func TestSetVfoB(t *testing.T) {
	driver, port, _ := newTestDriver(t)
	if err := driver.SetVfoB(context.Background()); err != nil {
		t.Fatalf("SetVfoB failed: %v", err)
	}

	want := []string{"FR1;", "FT1;"}
	if got := port.WrittenCommands(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestQueryFrequency(t *testing.T) {
	driver, port, _ := newTestDriver(t)

	port.AddReadString("FA00014062000;")
	frame, err := driver.QueryFrequency(context.Background())
	if err != nil {
		t.Fatalf("QueryFrequency failed: %v", err)
	}
	if frame != "FA00014062000;" {
		t.Errorf("Expected frame FA00014062000; got %q", frame)
	}

	if got := port.WrittenCommands(); len(got) != 1 || got[0] != "FA;" {
		t.Errorf("Expected a single FA; query, got %v", got)
	}
}

func TestSendRaw(t *testing.T) {
	driver, port, _ := newTestDriver(t)
	if err := driver.SendRaw(context.Background(), "PC050;"); err != nil {
		t.Fatalf("SendRaw failed: %v", err)
	}

	if got := port.WrittenCommands(); len(got) != 1 || got[0] != "PC050;" {
		t.Errorf("Expected verbatim PC050; got %v", got)
	}
}

func TestTuneNotConnected(t *testing.T) {
	platform := serial.NewMockPlatform()
	transport := serial.NewTransport(platform)
	driver := NewDriver(transport)
	driver.sleep = func(time.Duration) {}

	err := driver.Tune(context.Background(), 14062000, "CW")
	if err == nil {
		t.Fatal("Expected an error when not connected")
	}
	if port := platform.Port; len(port.WrittenCommands()) != 0 {
		t.Errorf("Expected zero commands sent, got %v", port.WrittenCommands())
	}
}

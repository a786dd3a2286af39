package logger

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestSuccessDropsDetail(t *testing.T) {
	buf := captureLog(t)

	Begin("req-ok-0001")
	Append("req-ok-0001", "activity=10 Ci")
	Success("req-ok-0001", "distance 66.13 m")
	Sync()

	out := buf.String()
	if strings.Contains(out, "activity=10 Ci") {
		t.Fatalf("detail leaked on success: %q", out)
	}
	if !strings.Contains(out, "[req-ok-0][calc] ✔ distance 66.13 m") {
		t.Fatalf("missing summary: %q", out)
	}
}

func TestFlushErrorReplaysDetail(t *testing.T) {
	buf := captureLog(t)

	Begin("req-bad-001")
	Append("req-bad-001", "material=Other")
	FlushError("req-bad-001", errors.New("other material name required"))
	Append("unbuffered", "direct line")
	Sync()

	out := buf.String()
	for _, want := range []string{"[req-bad-] material=Other", "[req-bad-][ERROR] other material name required", "direct line"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

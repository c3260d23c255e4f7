package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestStripANSI(t *testing.T) {
	t.Parallel()

	in := ansiBlue + "INFO" + ansiReset + " plain " + ansiRed + "ERR" + ansiReset
	got := stripANSI(in)
	want := "INFO plain ERR"
	if got != want {
		t.Fatalf("stripANSI()=%q want=%q", got, want)
	}
}

func TestPrettyHandler_RequestLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, false))

	log.Warn("http.request",
		"method", "post",
		"path", "/addwords",
		"status", 409,
		"status_class", "4xx",
		"duration_ms", int64(12),
		"remote", "192.0.2.1:4000",
	)

	line := buf.String()
	for _, want := range []string{
		"lvl=[WARN]",
		"msg=http.request",
		"method=POST",
		"path=/addwords",
		"status=409",
		"class=4xx",
		"duration=12ms",
		"remote=192.0.2.1:4000",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("unexpected color codes in %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("line must end with newline")
	}
}

func TestPrettyHandler_ColorsAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, nil, true)).WithGroup("entry")

	log.Info("moderation.accept", "to", "published", "note", "two words")

	line := buf.String()
	if !strings.Contains(line, ansiGreen+"published"+ansiReset) {
		t.Fatalf("expected colored status in %q", line)
	}
	plain := stripANSI(line)
	if !strings.Contains(plain, "entry.to=published") {
		t.Fatalf("expected grouped key in %q", plain)
	}
	if !strings.Contains(plain, `entry.note="two words"`) {
		t.Fatalf("expected quoted value in %q", plain)
	}
}

func TestPrettyHandler_LevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}, false))

	log.Info("auth.login.success")
	if buf.Len() != 0 {
		t.Fatalf("info record should be filtered, got %q", buf.String())
	}
	log.Error("auth.login.validate.fail", "outcome", "error")
	if !strings.Contains(buf.String(), "lvl=[ERROR]") || !strings.Contains(buf.String(), "outcome=error") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestPrettyHandler_BoundAttrsKeepTheirGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(newPrettyHandler(&buf, nil, false)).
		With("request_id", "r1").
		WithGroup("feed").
		With("session_id", "s1")

	log.Info("feed.write.fail", "err", "closed")

	line := buf.String()
	for _, want := range []string{" request_id=r1", " feed.session_id=s1", " feed.err=closed"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
	if strings.Contains(line, "feed.request_id") {
		t.Fatalf("attr bound before the group picked up its prefix: %q", line)
	}
}

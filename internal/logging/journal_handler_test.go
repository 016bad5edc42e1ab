package logging

import (
	"log/slog"
	"testing"
	"time"
)

func TestJournalFieldName(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"module"}, "MODULE"},
		{[]string{"frequency_hz"}, "FREQUENCY_HZ"},
		{[]string{"reg", "value"}, "REG_VALUE"},
		{[]string{"reg.value"}, "REG_VALUE"},
		{[]string{"_private"}, "PRIVATE"},
		{[]string{"0x40"}, "F_0X40"},
		{[]string{"message"}, ""},
		{[]string{"__"}, ""},
	}
	for _, tt := range tests {
		if got := journalFieldName(tt.parts); got != tt.want {
			t.Errorf("journalFieldName(%q) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestJournalHandlerFields(t *testing.T) {
	h := NewJournalHandler(slog.LevelInfo).
		WithAttrs([]slog.Attr{slog.String("module", "pca9685")}).(*JournalHandler)

	r := slog.NewRecord(time.Now(), slog.LevelWarn, "Frequency out of range", 0)
	r.AddAttrs(
		slog.Float64("frequency_hz", 12.5),
		slog.Int("prescale", 499),
		slog.Bool("applied", false),
		slog.Group("reg", slog.Int("addr", 0xFE)),
		slog.String("message", "shadowed"),
	)

	fields := h.fields(r)
	want := map[string]string{
		"SYSLOG_IDENTIFIER": SyslogIdentifier,
		"MODULE":            "pca9685",
		"FREQUENCY_HZ":      "12.5",
		"PRESCALE":          "499",
		"APPLIED":           "false",
		"REG_ADDR":          "254",
	}
	if len(fields) != len(want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("fields[%s] = %q, want %q", k, fields[k], v)
		}
	}
}

func TestMapLevelToPriority(t *testing.T) {
	if mapLevelToPriority(slog.LevelDebug) <= mapLevelToPriority(slog.LevelInfo) {
		t.Error("debug should map to a lower priority (higher number) than info")
	}
	if mapLevelToPriority(slog.LevelError) >= mapLevelToPriority(slog.LevelWarn) {
		t.Error("error should map to a higher priority (lower number) than warn")
	}
}

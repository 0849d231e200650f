package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestAlignFromTo(t *testing.T) {
    from := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    to := time.Date(2024, 10, 11, 11, 11, 11, 0, time.UTC)

    f, tt := AlignFromTo(from, to, "1h")
    if f.Minute() != 0 || tt.Minute() != 0 {
        t.Fatalf("expected hour boundaries, got %v %v", f, tt)
    }

    f, tt = AlignFromTo(from, to, "1d")
    if f.Hour() != 0 || tt.Hour() != 0 {
        t.Fatalf("expected day boundaries, got %v %v", f, tt)
    }
}
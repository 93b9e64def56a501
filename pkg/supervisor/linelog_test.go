package supervisor

import (
	"fmt"
	"testing"
	"time"
	"unicode/utf8"
)

func recvLine(t *testing.T, ch <-chan string, d time.Duration) (string, bool) {
	t.Helper()
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(d):
		return "", false
	}
}

func TestLineLog_SplitsWrites(t *testing.T) {
	l := NewLineLog()

	// Lines arrive in arbitrary chunks; only newlines delimit them.
	fmt.Fprint(l, "first li")
	fmt.Fprint(l, "ne\nsecond line\npart")

	got := l.Lines()
	want := []string{"first line", "second line"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("lines mismatch: got=%v want=%v", got, want)
	}

	// Close flushes the buffered fragment.
	l.Close()
	got = l.Lines()
	if len(got) != 3 || got[2] != "part" {
		t.Fatalf("expected flushed fragment, got %v", got)
	}
}

func TestLineLog_StripsCarriageReturn(t *testing.T) {
	l := NewLineLog()
	defer l.Close()

	fmt.Fprint(l, "windows line\r\n")
	got := l.Lines()
	if len(got) != 1 || got[0] != "windows line" {
		t.Fatalf("expected CR stripped, got %v", got)
	}
}

func TestLineLog_InvalidUTF8IsReplacedNotFatal(t *testing.T) {
	l := NewLineLog()
	defer l.Close()

	l.Write([]byte{0xff, 0xfe, '\n'})
	fmt.Fprint(l, "next line\n")

	got := l.Lines()
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %v", got)
	}
	if got[0] == "" {
		t.Fatalf("expected non-empty placeholder for undecodable line")
	}
	if !utf8.ValidString(got[0]) {
		t.Fatalf("expected repaired line to be valid UTF-8, got %q", got[0])
	}
	if got[1] != "next line" {
		t.Fatalf("processing must continue after a bad line, got %q", got[1])
	}
}

func TestLineLog_SubscribeReplaysThenFollows(t *testing.T) {
	l := NewLineLog()

	fmt.Fprint(l, "a\nb\n")
	ch := l.Subscribe(4)

	if v, ok := recvLine(t, ch, 200*time.Millisecond); !ok || v != "a" {
		t.Fatalf("expected replayed 'a', ok=%v v=%q", ok, v)
	}
	if v, ok := recvLine(t, ch, 200*time.Millisecond); !ok || v != "b" {
		t.Fatalf("expected replayed 'b', ok=%v v=%q", ok, v)
	}

	fmt.Fprint(l, "c\n")
	if v, ok := recvLine(t, ch, 200*time.Millisecond); !ok || v != "c" {
		t.Fatalf("expected live 'c', ok=%v v=%q", ok, v)
	}

	l.Close()

	done := make(chan struct{})
	go func() {
		for range ch {
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(300 * time.Millisecond):
		t.Fatalf("subscription channel did not close after log close")
	}
}

func TestLineLog_SubscribeAfterCloseReplaysEverything(t *testing.T) {
	l := NewLineLog()
	fmt.Fprint(l, "one\ntwo\n")
	l.Close()

	var got []string
	for line := range l.Subscribe(1) {
		got = append(got, line)
	}
	want := []string{"one", "two"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("replay mismatch: got=%v want=%v", got, want)
	}
}

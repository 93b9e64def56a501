package supervisor

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/DR-lin-eng/yologui/pkg/pubsub"
)

// decodeFallback replaces a line whose bytes collapse to nothing after
// lossy decoding. The stream must never emit an empty placeholder.
const decodeFallback = "[unreadable output line]"

// lineNode is an element of the append-only line list. A sentinel head node
// keeps the append logic branch-free.
type lineNode struct {
	line string
	next atomic.Pointer[lineNode]
}

// LineLog is an append-only log of decoded output lines with live fan-out.
//
// It serves two jobs at once: it is the drain that always consumes the
// child's pipe (so a slow consumer can never back up the OS buffer and stall
// the trainer), and it is the replay source for late subscribers. Appending
// is safe against concurrent iteration; the exec copy goroutine feeding
// Write is the only appender.
type LineLog struct {
	head *lineNode // sentinel, immutable
	tail *lineNode

	partial  strings.Builder
	notifier *pubsub.Broadcaster[struct{}]
}

// NewLineLog creates an empty log ready to be wired as a process's
// stdout/stderr writer.
func NewLineLog() *LineLog {
	sentinel := &lineNode{}
	return &LineLog{
		head:     sentinel,
		tail:     sentinel,
		notifier: pubsub.NewBroadcaster[struct{}](),
	}
}

// Write implements io.Writer. Incoming bytes are split on newlines; each
// completed line is decoded and appended. A trailing fragment is buffered
// until its newline arrives or the log is closed.
//
// The same LineLog is set as both Stdout and Stderr of the child; os/exec
// guarantees a single Write call at a time for an identical writer, so no
// locking is needed here.
func (l *LineLog) Write(p []byte) (int, error) {
	rest := string(p)
	for {
		idx := strings.IndexByte(rest, '\n')
		if idx < 0 {
			l.partial.WriteString(rest)
			break
		}
		l.partial.WriteString(rest[:idx])
		l.appendLine(l.partial.String())
		l.partial.Reset()
		rest = rest[idx+1:]
	}
	return len(p), nil
}

// Close flushes any buffered fragment as a final line and ends the live
// notification stream. Called once, after the process has been waited on.
func (l *LineLog) Close() {
	if l.partial.Len() > 0 {
		l.appendLine(l.partial.String())
		l.partial.Reset()
	}
	l.notifier.Stop()
}

func (l *LineLog) appendLine(raw string) {
	n := &lineNode{line: decodeLine(raw)}
	l.tail.next.Store(n)
	l.tail = n
	l.notifier.Publish(struct{}{})
}

// decodeLine strips the carriage return and repairs invalid UTF-8 with the
// replacement character instead of failing, mirroring the trainer contract
// of "lossy text, never a decode error".
func decodeLine(raw string) string {
	raw = strings.TrimRight(raw, "\r")
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, "�")
		if raw == "" {
			return decodeFallback
		}
	}
	return raw
}

// Subscribe returns a channel that replays every line from the beginning and
// then follows the live stream. The channel closes once the log is closed
// and fully drained. Each subscriber walks the list at its own pace, so a
// slow subscriber delays nobody.
func (l *LineLog) Subscribe(capacity int) <-chan string {
	ch := make(chan string, capacity)
	notify, err := l.notifier.Subscribe()
	if err != nil {
		// Log already closed: replay what exists and finish.
		go l.replayClosed(ch)
		return ch
	}
	go l.follow(notify, ch)
	return ch
}

func (l *LineLog) follow(notify chan struct{}, ch chan string) {
	prev := l.head
	for {
		cur := prev.next.Load()
		if cur == nil {
			if _, ok := <-notify; !ok {
				// Closed; emit anything appended between the last check
				// and the notifier shutdown.
				l.replayFrom(prev, ch)
				return
			}
			continue
		}
		prev = cur
		ch <- cur.line
	}
}

func (l *LineLog) replayClosed(ch chan string) {
	l.replayFrom(l.head, ch)
}

func (l *LineLog) replayFrom(start *lineNode, ch chan string) {
	for cur := start.next.Load(); cur != nil; cur = cur.next.Load() {
		ch <- cur.line
	}
	close(ch)
}

// ForEach visits all stored lines in order; returning false stops early.
func (l *LineLog) ForEach(fn func(string) bool) {
	for cur := l.head.next.Load(); cur != nil; cur = cur.next.Load() {
		if !fn(cur.line) {
			return
		}
	}
}

// Lines returns a copy of everything logged so far.
func (l *LineLog) Lines() []string {
	var out []string
	l.ForEach(func(s string) bool {
		out = append(out, s)
		return true
	})
	return out
}

package frame

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/danmuck/worldlink/internal/testutil/testlog"
)

func collect(t *testing.T, r *Reader, chunk []byte) []string {
	t.Helper()
	var out []string
	for f, err := range r.Feed(chunk) {
		if err != nil {
			t.Fatalf("unexpected frame error: %v", err)
		}
		out = append(out, string(f))
	}
	return out
}

func sampleStream() []byte {
	return []byte("{\"id\":5,\"data\":{\"players\":[]}}\n" +
		"{\"id\":4,\"data\":{\"channel\":\"global\",\"text\":\"hi\"}}\n" +
		"\n" +
		"{\"id\":2}\r\n" +
		"{\"id\":11,\"data\":{\"npcId\":\"n1\",\"x\":1,\"y\":2,\"z\":3}}\n" +
		"{\"id\":1,\"data\":{}}")
}

func TestFeedSingleChunk(t *testing.T) {
	testlog.Start(t)
	r := NewReader(DefaultLimits())
	got := collect(t, r, sampleStream())
	if len(got) != 4 {
		t.Fatalf("expected 4 frames, got %d: %q", len(got), got)
	}
	if got[2] != "{\"id\":2}" {
		t.Fatalf("carriage return not trimmed: %q", got[2])
	}
	if r.Buffered() != len("{\"id\":1,\"data\":{}}") {
		t.Fatalf("unexpected trailing partial: %d", r.Buffered())
	}
	got = collect(t, r, []byte("\n"))
	if len(got) != 1 || got[0] != "{\"id\":1,\"data\":{}}" {
		t.Fatalf("partial frame not completed: %q", got)
	}
}

func TestFeedChunkBoundariesDoNotChangeFrames(t *testing.T) {
	testlog.Start(t)
	stream := sampleStream()
	want := collect(t, NewReader(DefaultLimits()), stream)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		r := NewReader(DefaultLimits())
		var got []string
		rest := stream
		for len(rest) > 0 {
			n := 1 + rng.Intn(len(rest))
			got = append(got, collect(t, r, rest[:n])...)
			rest = rest[n:]
		}
		if len(got) != len(want) {
			t.Fatalf("trial %d: frame count %d want %d", trial, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("trial %d: frame %d = %q want %q", trial, i, got[i], want[i])
			}
		}
	}

	edge := []byte("abcd\r\nxy\r\n")
	limits := Limits{MaxFrameBytes: 4}
	want = collect(t, NewReader(limits), edge)
	for cut := 1; cut < len(edge); cut++ {
		r := NewReader(limits)
		got := collect(t, r, edge[:cut])
		got = append(got, collect(t, r, edge[cut:])...)
		if len(got) != len(want) {
			t.Fatalf("cut %d: frame count %d want %d", cut, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("cut %d: frame %d = %q want %q", cut, i, got[i], want[i])
			}
		}
	}
}

func TestFeedFrameAtLimitWithCRLFAcrossChunks(t *testing.T) {
	testlog.Start(t)
	limits := Limits{MaxFrameBytes: 4}
	want := collect(t, NewReader(limits), []byte("abcd\r\n"))
	if len(want) != 1 || want[0] != "abcd" {
		t.Fatalf("unexpected single-chunk frames: %q", want)
	}

	r := NewReader(limits)
	got := collect(t, r, []byte("abcd\r"))
	got = append(got, collect(t, r, []byte("\n"))...)
	if len(got) != 1 || got[0] != "abcd" {
		t.Fatalf("split before delimiter changed frames: %q", got)
	}

	r = NewReader(limits)
	var tooLarge bool
	for _, err := range r.Feed([]byte("abcde\r")) {
		if errors.Is(err, ErrFrameTooLarge) {
			tooLarge = true
		}
	}
	if !tooLarge {
		t.Fatalf("expected oversized partial to be rejected")
	}
}

func TestFeedByteAtATime(t *testing.T) {
	testlog.Start(t)
	stream := sampleStream()
	r := NewReader(DefaultLimits())
	var got []string
	for i := range stream {
		got = append(got, collect(t, r, stream[i:i+1])...)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(got))
	}
}

func TestFeedDelimiterAtChunkBoundary(t *testing.T) {
	testlog.Start(t)
	r := NewReader(DefaultLimits())
	if got := collect(t, r, []byte("{\"id\":2}")); len(got) != 0 {
		t.Fatalf("frame yielded before delimiter: %q", got)
	}
	got := collect(t, r, []byte("\n{\"id\":1}\n"))
	if len(got) != 2 || got[0] != "{\"id\":2}" || got[1] != "{\"id\":1}" {
		t.Fatalf("unexpected frames: %q", got)
	}
}

func TestFeedEarlyStopResumesOnNextFeed(t *testing.T) {
	testlog.Start(t)
	r := NewReader(DefaultLimits())
	for f := range r.Feed([]byte("a\nb\nc\n")) {
		if string(f) != "a" {
			t.Fatalf("unexpected first frame: %q", f)
		}
		break
	}
	got := collect(t, r, nil)
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("unexpected resumed frames: %q", got)
	}
}

func TestFeedOversizedFrameResyncs(t *testing.T) {
	testlog.Start(t)
	r := NewReader(Limits{MaxFrameBytes: 8})
	var errs int
	var frames []string
	feed := func(chunk []byte) {
		for f, err := range r.Feed(chunk) {
			if err != nil {
				if !errors.Is(err, ErrFrameTooLarge) {
					t.Fatalf("unexpected error: %v", err)
				}
				errs++
				continue
			}
			frames = append(frames, string(f))
		}
	}
	feed(bytes.Repeat([]byte("x"), 10))
	feed(bytes.Repeat([]byte("y"), 10))
	feed([]byte("zz\nok\n"))
	if errs != 1 {
		t.Fatalf("expected one oversize error, got %d", errs)
	}
	if len(frames) != 1 || frames[0] != "ok" {
		t.Fatalf("unexpected frames after resync: %q", frames)
	}
}

func TestResetDropsPartialFrame(t *testing.T) {
	testlog.Start(t)
	r := NewReader(DefaultLimits())
	collect(t, r, []byte("partial"))
	r.Reset()
	got := collect(t, r, []byte("next\n"))
	if len(got) != 1 || got[0] != "next" {
		t.Fatalf("unexpected frames after reset: %q", got)
	}
}

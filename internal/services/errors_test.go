package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrEncoding, "concatenate", "join parts", "ffmpeg exited 1", errors.New("exit status 1"))
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected encoding marker, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"concatenate", "join parts", "ffmpeg exited 1", "exit status 1"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing %q in %q", want, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		marker error
		want   string
	}{
		{ErrValidation, "validation"},
		{ErrProbe, "probe"},
		{ErrSynthesis, "synthesis"},
		{ErrEncoding, "encoding"},
		{ErrTimeout, "timeout"},
		{nil, "transient"},
	}
	for _, tc := range cases {
		err := Wrap(tc.marker, "stage", "op", "", nil)
		if got := Classify(err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.marker, got, tc.want)
		}
	}
}

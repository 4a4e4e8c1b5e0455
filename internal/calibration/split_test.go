package calibration

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitTextShortTextIsOneChunk(t *testing.T) {
	if got := splitText("short", 10); !reflect.DeepEqual(got, []string{"short"}) {
		t.Fatalf("unexpected chunks: %q", got)
	}
	if got := splitText("", 10); got != nil {
		t.Fatalf("expected no chunks, got %q", got)
	}
}

func TestSplitTextCutsAfterSentenceEnd(t *testing.T) {
	got := splitText("aaaa. bbbb. cccc.", 8)
	want := []string{"aaaa.", " bbbb.", " cccc."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected chunks: got %q want %q", got, want)
	}
}

func TestSplitTextCountsRunes(t *testing.T) {
	text := "你好世界。今天天气很好！我们出去走走吧？"
	got := splitText(text, 6)
	want := []string{"你好世界。", "今天天气很好", "！", "我们出去走走", "吧？"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected chunks: got %q want %q", got, want)
	}
	if strings.Join(got, "") != text {
		t.Fatal("chunks must reassemble to the input")
	}
}

func TestSplitTextDropsBlankChunks(t *testing.T) {
	got := splitText("abc.\n\n\n\n\n\n\ndef.", 4)
	for _, c := range got {
		if strings.TrimSpace(c) == "" {
			t.Fatalf("blank chunk in %q", got)
		}
	}
}

func TestLastSentence(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"one. two.":      "two.",
		"你好。世界。":         "世界。",
		"trailing words": "trailing words",
		"done!\n\n":      "done!",
		"first.。":        "first.",
		"a? b\nc":        "c",
	}
	for in, want := range cases {
		if got := lastSentence(in); got != want {
			t.Fatalf("lastSentence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeepSpacing(t *testing.T) {
	cases := []struct {
		chunk, text, want string
	}{
		{"aaaa.", "AAAA.", "AAAA."},
		{" bbbb.", "BBBB.", " BBBB."},
		{"cccc.\n", "CCCC.", "CCCC.\n"},
		{"\n dddd. \n", "DDDD.", "\n DDDD. \n"},
		{"你好。", "您好。", "您好。"},
		{"   ", "x", "x"},
	}
	for _, tc := range cases {
		if got := keepSpacing(tc.chunk, tc.text); got != tc.want {
			t.Fatalf("keepSpacing(%q, %q) = %q, want %q", tc.chunk, tc.text, got, tc.want)
		}
	}
}

package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode"
)

func TestComposeDeterministic(t *testing.T) {
	opts := Options{Words: 12, CapsPct: 0.5, PunctPct: 0.5}
	a := NewSeeded(7).Compose(Words(), opts)
	b := NewSeeded(7).Compose(Words(), opts)
	if a != b {
		t.Fatalf("expected identical drills for identical seeds:\n%s\n%s", a, b)
	}
	if got := len(strings.Fields(a)); got != 12 {
		t.Fatalf("expected 12 words, got %d", got)
	}
}

func TestComposePlain(t *testing.T) {
	out := NewSeeded(1).Compose([]string{"abc"}, Options{Words: 3})
	if out != "abc abc abc" {
		t.Fatalf("unexpected drill %q", out)
	}
	if NewSeeded(1).Compose(nil, Options{Words: 3}) != "" {
		t.Fatalf("expected empty drill without words")
	}
}

func TestComposeAlwaysDecorates(t *testing.T) {
	out := NewSeeded(3).Compose([]string{"word"}, Options{Words: 5, CapsPct: 1, PunctPct: 1, PunctSet: []rune{'!'}})
	for _, w := range strings.Fields(out) {
		if !unicode.IsUpper([]rune(w)[0]) || !strings.HasSuffix(w, "!") {
			t.Fatalf("expected capitalized punctuated word, got %q", w)
		}
	}
}

func TestPick(t *testing.T) {
	g := NewSeeded(5)
	if g.Pick(nil) != "" {
		t.Fatalf("expected empty pick from no passages")
	}
	got := g.Pick(Passages())
	found := false
	for _, p := range Passages() {
		if p == got {
			found = true
		}
	}
	if !found {
		t.Fatalf("pick returned unknown passage %q", got)
	}
}

func TestBuiltinsArePrintable(t *testing.T) {
	for _, p := range Passages() {
		if !Printable(p) {
			t.Fatalf("passage not printable: %q", p)
		}
	}
	if len(Words()) < 100 {
		t.Fatalf("expected a real vocabulary, got %d words", len(Words()))
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.txt")
	content := "# comment\nfirst line\n\n  second line  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write prompts: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	if len(got) != 2 || got[0] != "first line" || got[1] != "second line" {
		t.Fatalf("unexpected prompts: %#v", got)
	}
}

func TestLoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("\n# nothing\n"), 0o644); err != nil {
		t.Fatalf("write prompts: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for empty prompt file")
	}
}

func TestFilterPrintable(t *testing.T) {
	got := FilterPrintable([]string{"plain text", "résumé", "naïve", "ok"})
	if len(got) != 2 || got[0] != "plain text" || got[1] != "ok" {
		t.Fatalf("unexpected filter result: %#v", got)
	}
}

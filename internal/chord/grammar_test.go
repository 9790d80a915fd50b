package chord

import (
	"reflect"
	"testing"
)

func canon(symbols []Symbol) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = s.String()
	}
	return out
}

func TestExtractTokens(t *testing.T) {
	got := canon(Extract([]string{"C", "D minor", "G7", "D minor"}))
	want := []string{"C", "Dm", "G7"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractDropsNonChords(t *testing.T) {
	got := Extract([]string{"hello", "world", "H7", "Xm"})
	if len(got) != 0 {
		t.Fatalf("expected no chords, got %v", canon(got))
	}
}

func TestExtractRejectsLowercaseRoot(t *testing.T) {
	got := Extract([]string{"c", "dm", "am"})
	if len(got) != 0 {
		t.Fatalf("expected lowercase roots rejected, got %v", canon(got))
	}
}

func TestExtractSuffixCaseInsensitive(t *testing.T) {
	got := canon(Extract([]string{"AM", "CMAJ7", "Dsus4"}))
	want := []string{"Am", "Cmaj7", "Dsus4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractSpokenPhrases(t *testing.T) {
	cases := []struct {
		token string
		want  string
	}{
		{"D minor", "Dm"},
		{"C major", "C"},
		{"C major 7", "Cmaj7"},
		{"B flat", "Bb"},
		{"B flat minor", "Bbm"},
		{"F sharp major 7", "F#maj7"},
		{"B-flat minor", "Bbm"},
		{"E diminished", "Edim"},
		{"A augmented", "Aaug"},
		{"D min", "Dm"},
		{"C maj", "C"},
	}
	for _, tc := range cases {
		sym, ok := Parse(tc.token)
		if !ok {
			t.Fatalf("expected %q to parse", tc.token)
		}
		if sym.String() != tc.want {
			t.Fatalf("token %q: expected %q, got %q", tc.token, tc.want, sym.String())
		}
	}
}

func TestExtractNoDuplicatesPreservesOrder(t *testing.T) {
	tokens := []string{"G7", "C", "G7", "Am", "C", "Am", "G7"}
	got := canon(Extract(tokens))
	want := []string{"G7", "C", "Am"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	seen := make(map[string]bool)
	for _, c := range got {
		if seen[c] {
			t.Fatalf("duplicate canonical text %q in %v", c, got)
		}
		seen[c] = true
	}
}

func TestExtractTextSimpleChords(t *testing.T) {
	got := canon(ExtractText("The song uses C, D, and E chords"))
	for _, want := range []string{"C", "D", "E"} {
		if !contains(got, want) {
			t.Fatalf("expected %q in %v", want, got)
		}
	}
}

func TestExtractTextMinorSymbols(t *testing.T) {
	got := canon(ExtractText("Play Am, Dm, and Em"))
	for _, want := range []string{"Am", "Dm", "Em"} {
		if !contains(got, want) {
			t.Fatalf("expected %q in %v", want, got)
		}
	}
}

func TestExtractTextSharpsAndFlats(t *testing.T) {
	got := canon(ExtractText("F#m and B flat are in the key"))
	if !contains(got, "F#m") || !contains(got, "Bb") {
		t.Fatalf("expected F#m and Bb in %v", got)
	}
}

func TestExtractTextPhrasesTakePrecedence(t *testing.T) {
	got := canon(ExtractText("C major and D minor are common"))
	if !contains(got, "C") || !contains(got, "Dm") {
		t.Fatalf("expected C and Dm in %v", got)
	}
	if contains(got, "D") {
		t.Fatalf("bare D should have been consumed by the phrase, got %v", got)
	}
}

func TestExtractTextComplexNames(t *testing.T) {
	got := canon(ExtractText("Cadd9, Ddim7, Eaug, F major 7"))
	want := []string{"Cadd9", "Ddim7", "Eaug", "Fmaj7"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractTextSpokenVariations(t *testing.T) {
	got := canon(ExtractText("B-flat minor, C-major 7."))
	want := []string{"Bbm", "Cmaj7"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractTextSentenceContext(t *testing.T) {
	got := canon(ExtractText("The progression goes from C major to A minor, then to F major"))
	want := []string{"C", "Am", "F"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractTextNoChords(t *testing.T) {
	got := ExtractText("just regular speech without any music in it")
	if len(got) != 0 {
		t.Fatalf("expected no chords, got %v", canon(got))
	}
}

func TestExtractTextDedupes(t *testing.T) {
	got := canon(ExtractText("C, D, C, E, D"))
	want := []string{"C", "D", "E"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}

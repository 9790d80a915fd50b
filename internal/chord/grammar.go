// Package chord recognizes chord symbols in transcribed speech and
// normalizes them to canonical spelling. The grammar accepts a root letter
// A-G (uppercase, to avoid matching ordinary words), an optional accidental
// ("#"/"b" or the spoken words "sharp"/"flat"), and an optional quality
// suffix, spoken or symbolic ("minor 7" and "m7" both normalize to "m7").
package chord

import (
	"regexp"
	"sort"
	"strings"
)

// Symbol is one canonical chord. Equality is by String().
type Symbol struct {
	Root       byte   // 'A'..'G'
	Accidental string // "", "#" or "b"
	Quality    string // normalized suffix, e.g. "", "m", "maj7", "sus4"
}

func (s Symbol) String() string {
	return string(s.Root) + s.Accidental + s.Quality
}

// Symbolic suffixes, longest-first so the leftmost-first alternation never
// settles for a prefix of a longer suffix.
const suffixAlt = `min7|min9|min11|min13|min6|maj7|maj9|maj11|maj13|dim7|aug7|add2|add4|add9|sus2|sus4|m7|m9|m11|m13|m6|maj|min|dim|aug|m|6|7|9|11|13`

const (
	accidentalWords = `flat|sharp`
	qualityWords    = `major|minor|maj|min|diminished|augmented`
)

var (
	// "B flat minor 7", "F sharp major"
	accidentalPhraseRe = regexp.MustCompile(`\b([A-G])\s+((?i:` + accidentalWords + `))\s+((?i:` + qualityWords + `))(?:\s*([0-9]{1,2}))?\b`)
	// "B flat", "F sharp" without a quality
	accidentalOnlyRe = regexp.MustCompile(`\b([A-G])\s+((?i:` + accidentalWords + `))\b`)
	// "C major", "D minor 7"
	qualityPhraseRe = regexp.MustCompile(`\b([A-G][#b]?)\s+((?i:` + qualityWords + `))(?:\s*([0-9]{1,2}))?\b`)
	// "G7", "F#m", "Csus4"
	symbolRe = regexp.MustCompile(`\b([A-G][#b]?)((?i:` + suffixAlt + `))?\b`)

	accidentalPhraseFullRe = regexp.MustCompile(`^([A-G])\s+((?i:` + accidentalWords + `))(?:\s+((?i:` + qualityWords + `))(?:\s*([0-9]{1,2}))?)?$`)
	qualityPhraseFullRe    = regexp.MustCompile(`^([A-G][#b]?)\s+((?i:` + qualityWords + `))(?:\s*([0-9]{1,2}))?$`)
	symbolFullRe           = regexp.MustCompile(`^([A-G][#b]?)((?i:` + suffixAlt + `))?$`)

	dashRe = regexp.MustCompile("[-–—]")
)

// Parse reports whether a single raw token is a chord expression, either
// symbolic ("Dm7") or spoken ("D minor 7", "B-flat"), and returns its
// canonical symbol.
func Parse(token string) (Symbol, bool) {
	t := strings.TrimSpace(dashRe.ReplaceAllString(token, " "))
	t = strings.Trim(t, ".,;:!?")
	if t == "" {
		return Symbol{}, false
	}

	if m := accidentalPhraseFullRe.FindStringSubmatch(t); m != nil {
		return Symbol{
			Root:       m[1][0],
			Accidental: accidentalFromWord(m[2]),
			Quality:    qualityFromWord(m[3], m[4]),
		}, true
	}
	if m := qualityPhraseFullRe.FindStringSubmatch(t); m != nil {
		sym := splitRoot(m[1])
		sym.Quality = qualityFromWord(m[2], m[3])
		return sym, true
	}
	if m := symbolFullRe.FindStringSubmatch(t); m != nil {
		sym := splitRoot(m[1])
		sym.Quality = normalizeSuffix(m[2])
		return sym, true
	}
	return Symbol{}, false
}

// Extract validates raw tokens against the grammar, keeping first-occurrence
// order and dropping duplicates by canonical text. Tokens that are not chord
// expressions are silently dropped; an empty result is valid.
func Extract(tokens []string) []Symbol {
	out := make([]Symbol, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		sym, ok := Parse(tok)
		if !ok {
			continue
		}
		key := sym.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sym)
	}
	return out
}

// ExtractText scans running prose for chord expressions. Spoken phrases are
// resolved before bare symbols so that "B flat minor" yields Bbm rather than
// a stray B, and output order follows position in the text.
func ExtractText(text string) []Symbol {
	text = dashRe.ReplaceAllString(text, " ")

	type match struct {
		pos int
		sym Symbol
	}
	var matches []match

	// roots consumed by accidental phrases (bare letters, lowercase)
	accidentalRoots := make(map[string]bool)
	// roots consumed by any phrase form, including accidental ("bb", "c")
	phraseRoots := make(map[string]bool)
	phraseStarts := make(map[int]bool)

	for _, m := range accidentalPhraseRe.FindAllStringSubmatchIndex(text, -1) {
		root := text[m[2]]
		sym := Symbol{
			Root:       root,
			Accidental: accidentalFromWord(text[m[4]:m[5]]),
			Quality:    qualityFromWord(text[m[6]:m[7]], group(text, m, 4)),
		}
		accidentalRoots[strings.ToLower(string(root))] = true
		phraseRoots[strings.ToLower(string(root)+sym.Accidental)] = true
		phraseStarts[m[0]] = true
		matches = append(matches, match{pos: m[0], sym: sym})
	}

	for _, m := range accidentalOnlyRe.FindAllStringSubmatchIndex(text, -1) {
		if phraseStarts[m[0]] {
			continue
		}
		root := text[m[2]]
		sym := Symbol{Root: root, Accidental: accidentalFromWord(text[m[4]:m[5]])}
		accidentalRoots[strings.ToLower(string(root))] = true
		phraseRoots[strings.ToLower(sym.String())] = true
		matches = append(matches, match{pos: m[0], sym: sym})
	}

	for _, m := range qualityPhraseRe.FindAllStringSubmatchIndex(text, -1) {
		rootText := text[m[2]:m[3]]
		if accidentalRoots[strings.ToLower(rootText)] {
			continue
		}
		sym := splitRoot(rootText)
		sym.Quality = qualityFromWord(text[m[4]:m[5]], group(text, m, 3))
		phraseRoots[strings.ToLower(rootText)] = true
		matches = append(matches, match{pos: m[0], sym: sym})
	}

	for _, m := range symbolRe.FindAllStringSubmatchIndex(text, -1) {
		rootText := text[m[2]:m[3]]
		suffix := group(text, m, 2)
		if suffix == "" {
			lower := strings.ToLower(rootText)
			if phraseRoots[lower] || accidentalRoots[lower] {
				continue
			}
		}
		sym := splitRoot(rootText)
		sym.Quality = normalizeSuffix(suffix)
		matches = append(matches, match{pos: m[0], sym: sym})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	out := make([]Symbol, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		key := m.sym.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m.sym)
	}
	return out
}

// Canonical returns the canonical display strings for the given symbols.
func Canonical(symbols []Symbol) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = s.String()
	}
	return out
}

// group returns the n-th capture group (1-based) of a SubmatchIndex result,
// or "" when the group did not participate.
func group(text string, m []int, n int) string {
	lo, hi := m[2*n], m[2*n+1]
	if lo < 0 {
		return ""
	}
	return text[lo:hi]
}

func splitRoot(rootText string) Symbol {
	sym := Symbol{Root: rootText[0]}
	if len(rootText) > 1 {
		sym.Accidental = rootText[1:]
	}
	return sym
}

func accidentalFromWord(word string) string {
	if strings.EqualFold(word, "flat") {
		return "b"
	}
	return "#"
}

// qualityFromWord normalizes a spoken quality plus optional extension
// number: "minor"+"7" -> "m7", "major" alone -> "" (a plain major triad),
// "major"+"7" -> "maj7".
func qualityFromWord(word, number string) string {
	switch strings.ToLower(word) {
	case "minor", "min":
		return "m" + number
	case "diminished":
		return "dim" + number
	case "augmented":
		return "aug" + number
	case "major", "maj":
		if number != "" {
			return "maj" + number
		}
		return ""
	default:
		return number
	}
}

// normalizeSuffix canonicalizes a symbolic suffix: case folded, "min" forms
// collapse to "m", and a bare "maj" is the plain major triad.
func normalizeSuffix(suffix string) string {
	s := strings.ToLower(suffix)
	switch {
	case s == "maj":
		return ""
	case s == "min":
		return "m"
	case strings.HasPrefix(s, "min"):
		return "m" + s[3:]
	default:
		return s
	}
}

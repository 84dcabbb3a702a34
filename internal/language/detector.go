// Package language identifies whether a customer message is Thai or English.
//
// Three independent estimators vote: a character-ratio heuristic, a weighted
// lexical-marker count, and a statistical guesser. Their confidences are
// fused with fixed weights. Detect never fails; internal faults degrade to
// the character heuristic.
package language

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	xlanguage "golang.org/x/text/language"

	"github.com/tbourn/iris-triage/internal/domain"
	"github.com/tbourn/iris-triage/internal/utils"
)

// Detection methods reported in Result.Method.
const (
	MethodCharacter    = "character_analysis"
	MethodPattern      = "pattern_matching"
	MethodLibrary      = "library_detection"
	MethodInsufficient = "insufficient_text"
	MethodFallback     = "fallback"
)

// DefaultMinTextLength is the shortest trimmed input, in code points, that
// is analyzed at all.
const DefaultMinTextLength = 3

const (
	charWeight    = 0.5
	patternWeight = 0.3
	libraryWeight = 0.2

	// alternatives below this fused score are not reported
	alternativeFloor = 0.1
)

// Alternative is a runner-up language with its fused score.
type Alternative struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of one detection.
type Result struct {
	Language        string        `json:"language"`
	Confidence      float64       `json:"confidence"`
	Alternatives    []Alternative `json:"alternatives"`
	Method          string        `json:"method"`
	CulturalContext string        `json:"cultural_context"`
}

// Tag maps the detected language to a BCP 47 tag; unknown maps to Und.
func (r Result) Tag() xlanguage.Tag {
	switch r.Language {
	case domain.LangThai:
		return xlanguage.Thai
	case domain.LangEnglish:
		return xlanguage.English
	default:
		return xlanguage.Und
	}
}

type estimate struct {
	lang string
	conf float64
}

// Detector is safe for concurrent use; it holds no mutable state.
type Detector struct {
	guesser Guesser
	minLen  int
}

// Option configures a Detector.
type Option func(*Detector)

// WithGuesser replaces the statistical estimator. A nil guesser disables it.
func WithGuesser(g Guesser) Option { return func(d *Detector) { d.guesser = g } }

// WithMinTextLength overrides DefaultMinTextLength. Values < 1 are ignored.
func WithMinTextLength(n int) Option {
	return func(d *Detector) {
		if n >= 1 {
			d.minLen = n
		}
	}
}

// NewDetector returns a Detector backed by WhatlangGuesser unless
// overridden.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{guesser: WhatlangGuesser{}, minLen: DefaultMinTextLength}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Detect classifies text as th, en or unknown.
func (d *Detector) Detect(text string) (res Result) {
	trimmed := strings.TrimSpace(text)
	if utils.RuneLen(trimmed) < d.minLen {
		return Result{
			Language:        domain.LangUnknown,
			Alternatives:    []Alternative{},
			Method:          MethodInsufficient,
			CulturalContext: "neutral",
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("language detection degraded to character heuristic")
			res = Result{
				Language:        fallbackLanguage(trimmed),
				Confidence:      0.5,
				Alternatives:    []Alternative{},
				Method:          MethodFallback,
				CulturalContext: "neutral",
			}
		}
	}()

	char := byCharacters(trimmed)
	pattern := byPatterns(trimmed)
	lib := d.byLibrary(trimmed)

	res = fuse(char, pattern, lib)
	res.CulturalContext = culturalContext(trimmed, res.Language)
	return res
}

// byCharacters compares Thai-block code points against ASCII letters over all
// non-whitespace code points.
func byCharacters(text string) estimate {
	var thai, latin, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case r >= 0x0E00 && r <= 0x0E7F:
			thai++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		}
	}
	if total == 0 {
		return estimate{domain.LangUnknown, 0}
	}
	thaiRatio := float64(thai) / float64(total)
	latinRatio := float64(latin) / float64(total)

	switch {
	case thaiRatio > 0.3:
		return estimate{domain.LangThai, min(0.95, 0.6+thaiRatio*0.35)}
	case latinRatio > 0.7:
		return estimate{domain.LangEnglish, min(0.90, 0.6+latinRatio*0.30)}
	case thaiRatio > latinRatio:
		return estimate{domain.LangThai, max(0.3, thaiRatio*0.8)}
	default:
		return estimate{domain.LangEnglish, max(0.3, latinRatio*0.8)}
	}
}

func byPatterns(text string) estimate {
	thai := countWeighted(text, thaiMarkers)
	english := countWeighted(utils.Lower(text), englishMarkers)
	total := thai + english
	if total == 0 {
		return estimate{domain.LangUnknown, 0}
	}
	if thai > english {
		return estimate{domain.LangThai, min(0.85, float64(thai)/float64(total)*0.9)}
	}
	return estimate{domain.LangEnglish, min(0.85, float64(english)/float64(total)*0.9)}
}

func (d *Detector) byLibrary(text string) estimate {
	if d.guesser == nil {
		return estimate{domain.LangUnknown, 0}
	}
	code, conf, err := d.guesser.Guess(text)
	if err != nil {
		log.Debug().Err(err).Msg("statistical language guess failed")
		return estimate{domain.LangUnknown, 0}
	}
	switch code {
	case "":
		return estimate{domain.LangUnknown, 0}
	case domain.LangThai, domain.LangEnglish:
		return estimate{code, min(0.80, conf)}
	default:
		return estimate{domain.LangEnglish, 0.3}
	}
}

var scoreOrder = []string{domain.LangThai, domain.LangEnglish, domain.LangUnknown}

func fuse(char, pattern, lib estimate) Result {
	scores := map[string]float64{}
	scores[char.lang] += char.conf * charWeight
	scores[pattern.lang] += pattern.conf * patternWeight
	scores[lib.lang] += lib.conf * libraryWeight

	best := char.lang
	for _, l := range scoreOrder {
		if scores[l] > scores[best] {
			best = l
		}
	}

	alts := []Alternative{}
	for _, l := range scoreOrder {
		if l != best && scores[l] > alternativeFloor {
			alts = append(alts, Alternative{Language: l, Confidence: scores[l]})
		}
	}
	sort.SliceStable(alts, func(i, j int) bool { return alts[i].Confidence > alts[j].Confidence })

	method := MethodLibrary
	switch {
	case char.conf >= pattern.conf && char.conf >= lib.conf:
		method = MethodCharacter
	case pattern.conf >= lib.conf:
		method = MethodPattern
	}

	return Result{
		Language:     best,
		Confidence:   min(1, scores[best]),
		Alternatives: alts,
		Method:       method,
	}
}

func culturalContext(text, lang string) string {
	var patterns map[string]*regexp.Regexp
	switch lang {
	case domain.LangThai:
		patterns = thaiCultural
	case domain.LangEnglish:
		patterns = englishCultural
		text = utils.Lower(text)
	default:
		return "neutral"
	}

	bestName, bestCount := "neutral", 0
	for _, name := range culturalContexts {
		if n := len(patterns[name].FindAllStringIndex(text, -1)); n > bestCount {
			bestName, bestCount = name, n
		}
	}
	return bestName
}

// fallbackLanguage is the pure character heuristic used when an estimator
// fails: any Thai character means Thai, otherwise English.
func fallbackLanguage(text string) string {
	for _, r := range text {
		if r >= 0x0E00 && r <= 0x0E7F {
			return domain.LangThai
		}
	}
	return domain.LangEnglish
}

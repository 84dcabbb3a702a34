package language

import "github.com/abadojack/whatlanggo"

// Guesser is a general-purpose statistical language identifier. Guess
// returns an ISO 639-1 code (or "" when nothing was identified) and a
// confidence in [0,1].
type Guesser interface {
	Guess(text string) (code string, confidence float64, err error)
}

// WhatlangGuesser adapts whatlanggo's trigram detector.
type WhatlangGuesser struct{}

// Guess implements Guesser.
func (WhatlangGuesser) Guess(text string) (string, float64, error) {
	info := whatlanggo.Detect(text)
	if info.Script == nil || info.Lang < 0 {
		return "", 0, nil
	}
	return info.Lang.Iso6391(), info.Confidence, nil
}

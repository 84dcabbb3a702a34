// Package response chooses the reply sent back for a classified message.
package response

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/iris-triage/internal/domain"
)

// Mode controls how a template is picked from its pool.
type Mode string

const (
	// ModeRandom picks uniformly from the pool.
	ModeRandom Mode = "random"
	// ModeDeterministic always picks the first template.
	ModeDeterministic Mode = "deterministic"
)

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRandom, "":
		return ModeRandom, nil
	case ModeDeterministic:
		return ModeDeterministic, nil
	default:
		return "", fmt.Errorf("unknown response mode %q", s)
	}
}

// Hints carries per-message personalization inputs.
type Hints struct {
	// Name is the user's display name, if known.
	Name string
	// Text is the original message; its Thai polite particle is mirrored.
	Text string
}

// Selector returns a reply for an intent. Implementations never return "".
type Selector interface {
	Select(intent, lang string, h Hints) string
}

// TemplateSelector picks from per-language template pools.
type TemplateSelector struct {
	mode      Mode
	templates map[string]map[string][]string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewTemplateSelector returns a selector over the built-in templates. A nil
// src seeds from the clock.
func NewTemplateSelector(mode Mode, src rand.Source) *TemplateSelector {
	if src == nil {
		src = rand.NewPCG(uint64(time.Now().UnixNano()), 0x1715)
	}
	return &TemplateSelector{mode: mode, templates: defaultTemplates, rng: rand.New(src)}
}

// Select implements Selector.
func (s *TemplateSelector) Select(intent, lang string, h Hints) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("intent", intent).Msg("response selection failed")
			reply = Apology(lang)
		}
	}()

	pools, ok := s.templates[lang]
	if !ok {
		pools = s.templates[domain.LangEnglish]
	}
	pool, ok := pools[intent]
	if !ok {
		pool = pools[domain.IntentUnknown]
	}
	if len(pool) == 0 {
		return Apology(lang)
	}

	reply = pool[s.pick(len(pool))]
	return Personalize(reply, lang, h)
}

func (s *TemplateSelector) pick(n int) int {
	if s.mode == ModeDeterministic || n == 1 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Personalize mirrors the user's Thai polite particle and prefixes the
// display name when it is not already in the reply.
func Personalize(reply, lang string, h Hints) string {
	if lang == domain.LangThai {
		switch {
		case strings.Contains(h.Text, "ครับ"):
			if !strings.Contains(reply, "ครับ") {
				reply += " ครับ"
			}
		case strings.Contains(h.Text, "ค่ะ"):
			if !strings.Contains(reply, "ค่ะ") {
				reply = strings.ReplaceAll(reply, "ครับ", "ค่ะ")
			}
		}
	}

	name := strings.TrimSpace(h.Name)
	if name == "" || strings.Contains(reply, name) {
		return reply
	}
	if lang == domain.LangThai {
		return "คุณ" + name + " " + reply
	}
	return name + ", " + reply
}

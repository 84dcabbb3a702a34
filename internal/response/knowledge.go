package response

import (
	"github.com/tbourn/iris-triage/internal/domain"
	"github.com/tbourn/iris-triage/internal/search"
)

// KnowledgeSelector answers informational intents from a FAQ index and
// defers to Fallback for everything else or when no entry is close enough.
type KnowledgeSelector struct {
	Index     search.Index
	Threshold float64
	Fallback  Selector
}

var knowledgeIntents = map[string]bool{
	domain.IntentProductInquiry: true,
	domain.IntentSupportRequest: true,
	domain.IntentOrderStatus:    true,
}

// Select implements Selector.
func (k *KnowledgeSelector) Select(intent, lang string, h Hints) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			reply = k.Fallback.Select(intent, lang, h)
		}
	}()
	if k.Index == nil || !knowledgeIntents[intent] || h.Text == "" {
		return k.Fallback.Select(intent, lang, h)
	}
	res := k.Index.TopK(search.Query{Text: h.Text, Intent: intent, Language: lang}, 1)
	if len(res) == 0 || res[0].Score < k.Threshold {
		return k.Fallback.Select(intent, lang, h)
	}
	return Personalize(res[0].Text, lang, Hints{Name: h.Name})
}

package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tbourn/iris-triage/internal/domain"
)

func TestClassify_Examples(t *testing.T) {
	c := NewClassifier()

	th := c.Classify("สวัสดีครับ ผมต้องการสอบถามเรื่องสินค้า", domain.LangThai)
	assert.Contains(t, []string{domain.IntentGreeting, domain.IntentProductInquiry}, th.Intent)
	assert.Greater(t, th.Confidence, 0.0)

	en := c.Classify("Hello, I need help with my order", domain.LangEnglish)
	assert.Equal(t, domain.IntentSupportRequest, en.Intent)
	assert.GreaterOrEqual(t, en.Confidence, 0.3)
}

func TestClassify_TieBreakUsesPriority(t *testing.T) {
	c := NewClassifier()
	// greeting, support_request and order_status all score 0.3
	res := c.Classify("hello, I need help with my order", domain.LangEnglish)
	assert.Len(t, res.Scores, 3)
	assert.Equal(t, domain.IntentSupportRequest, res.Intent)

	res = c.Classify("terrible order", domain.LangEnglish)
	assert.Equal(t, domain.IntentComplaint, res.Intent)
}

func TestClassify_ConfidenceCapped(t *testing.T) {
	c := NewClassifier()
	res := c.Classify("bad terrible awful worst, I hate it and I'm angry", domain.LangEnglish)
	assert.Equal(t, domain.IntentComplaint, res.Intent)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
}

func TestClassify_Abstain(t *testing.T) {
	c := NewClassifier()
	res := c.Classify("xyzzy", domain.LangEnglish)
	assert.Equal(t, domain.IntentUnknown, res.Intent)
	assert.Equal(t, AbstainConfidence, res.Confidence)
	assert.Empty(t, res.Scores)
}

func TestClassify_UnknownLanguageUsesEnglishTable(t *testing.T) {
	c := NewClassifier()
	res := c.Classify("GOODBYE and thanks", domain.LangUnknown)
	assert.Equal(t, domain.IntentGoodbye, res.Intent)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
}

func TestClassify_Idempotent(t *testing.T) {
	c := NewClassifier()
	in := "ราคาสินค้าเท่าไร"
	assert.Equal(t, c.Classify(in, domain.LangThai), c.Classify(in, domain.LangThai))
	assert.Equal(t, domain.IntentProductInquiry, c.Classify(in, domain.LangThai).Intent)
}

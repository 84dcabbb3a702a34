package domain

// Intent labels shared by the classifier, the context store and the
// response selector.
const (
	IntentGreeting       = "greeting"
	IntentProductInquiry = "product_inquiry"
	IntentSupportRequest = "support_request"
	IntentComplaint      = "complaint"
	IntentCompliment     = "compliment"
	IntentOrderStatus    = "order_status"
	IntentGoodbye        = "goodbye"
	IntentUnknown        = "unknown"

	// IntentError is only ever produced by the pipeline's failure result.
	IntentError = "error"
)

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Language codes.
const (
	LangThai    = "th"
	LangEnglish = "en"
	LangUnknown = "unknown"
)

// Communication styles stored on a profile.
const (
	StyleFormal   = "formal"
	StyleInformal = "informal"
	StyleNeutral  = "neutral"
)

// Entity labels.
const (
	EntityNumber = "NUMBER"
	EntityEmail  = "EMAIL"
	EntityPhone  = "PHONE"
)

// DefaultPlatform is assumed when a message does not name its channel.
const DefaultPlatform = "web"

// Platforms lists the channels a message can arrive from.
var Platforms = []string{"facebook", "instagram", "whatsapp", "line", "telegram", "web", "mobile_app"}

// ValidPlatform reports whether p is one of Platforms.
func ValidPlatform(p string) bool {
	for _, v := range Platforms {
		if v == p {
			return true
		}
	}
	return false
}

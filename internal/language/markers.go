package language

import "regexp"

// weighted is a marker pattern counted with a multiplier by the lexical
// estimator.
type weighted struct {
	re     *regexp.Regexp
	weight int
}

// Thai has no inter-word spacing, so Thai markers are matched as plain
// alternations without word boundaries.
var thaiMarkers = []weighted{
	{regexp.MustCompile(`ครับ|ค่ะ|กรุณา|ขอบคุณ|สวัสดี|ราคา|สินค้า|บริการ|ช่วย|ปัญหา`), 3},
	{regexp.MustCompile(`นะครับ|นะค่ะ|ครับ|ค่ะ|คะ|จ้ะ|จ๊ะ`), 2},
	{regexp.MustCompile(`[\x{0E30}-\x{0E3A}\x{0E40}-\x{0E4E}]+`), 1},
	{regexp.MustCompile(`ท่าน|คุณ|เรา|บริษัท|องค์กร|ระบบ|งาน|ทำการ`), 2},
}

// English markers run against lower-cased text.
var englishMarkers = []weighted{
	{regexp.MustCompile(`\b(the|and|is|in|to|of|a|that|it|with|for|as|was|on|are|you|have|be|at|this|from|they|we|say|her|she|or|an|will|my|one|all|would|there|their)\b`), 2},
	{regexp.MustCompile(`\b(customer|service|product|price|order|support|help|issue|problem|solution|company|business|thank|please|sorry|welcome)\b`), 3},
	{regexp.MustCompile(`\b(hi|hello|hey|thanks|thx|ok|okay|yes|no|sure|cool|great|awesome|lol|omg)\b`), 2},
	{regexp.MustCompile(`\b(greetings|regarding|furthermore|however|therefore|sincerely|respectfully|appreciate|assistance)\b`), 3},
}

// Cultural contexts in evaluation order; the first context wins ties.
var culturalContexts = []string{"formal", "informal", "business", "customer_service"}

var thaiCultural = map[string]*regexp.Regexp{
	"formal":           regexp.MustCompile(`ท่าน|เรียน|ด้วยความเคารพ|กราบเรียน|ขออนุญาต|เรียนใจ`),
	"informal":         regexp.MustCompile(`เฮ้|ว่าไง|เป็นไง|555|ฮ่าๆ|จ้า|โอเค|ไม่เป็นไร`),
	"business":         regexp.MustCompile(`บริษัท|องค์กร|ลูกค้า|สินค้า|บริการ|ขาย|ซื้อ|งาน|โครงการ`),
	"customer_service": regexp.MustCompile(`สอบถาม|ร้องเรียน|ติดต่อ|ช่วยเหลือ|แก้ไข|บริการ|สนับสนุน`),
}

var englishCultural = map[string]*regexp.Regexp{
	"formal":           regexp.MustCompile(`\b(sir|madam|regarding|sincerely|respectfully|kindly|appreciate|assistance|inquiry)\b`),
	"informal":         regexp.MustCompile(`\b(hi|hey|what's up|thanks|thx|cool|awesome|great|sure|ok|lol)\b`),
	"business":         regexp.MustCompile(`\b(company|corporation|client|customer|product|service|sales|purchase|project|meeting)\b`),
	"customer_service": regexp.MustCompile(`\b(inquiry|complaint|contact|support|help|assistance|issue|problem|solution)\b`),
}

func countWeighted(text string, markers []weighted) int {
	score := 0
	for _, m := range markers {
		score += len(m.re.FindAllStringIndex(text, -1)) * m.weight
	}
	return score
}

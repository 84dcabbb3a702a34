package intent

import "github.com/tbourn/iris-triage/internal/domain"

// thaiKeywords and englishKeywords are the canonical intent lexicon.
var thaiKeywords = map[string][]string{
	domain.IntentGreeting:       {"สวัสดี", "หวัดดี", "ดีครับ", "ดีค่ะ", "ยินดี", "เฮ้", "ฮัลโหล"},
	domain.IntentProductInquiry: {"สินค้า", "ผลิตภัณฑ์", "ราคา", "ค่าใช้จ่าย", "เท่าไร", "มี", "จำหน่าย", "ขาย"},
	domain.IntentSupportRequest: {"ช่วย", "ช่วยเหลือ", "แก้ไข", "ปัญหา", "ไม่ได้", "เสีย", "งาน", "ทำ"},
	domain.IntentComplaint:      {"บ่น", "ร้องเรียน", "แย่", "ไม่ดี", "แย่มาก", "โง่", "แป๊ด", "ขยะ"},
	domain.IntentCompliment:     {"ดี", "เยี่ยม", "สุดยอด", "ยอดเยี่ยม", "เจ๋ง", "เลิศ", "ประทับใจ", "ชอบ"},
	domain.IntentOrderStatus:    {"สถานะ", "ออเดอร์", "คำสั่งซื้อ", "จัดส่ง", "ส่งของ", "ได้รับ", "เมื่อไร"},
	domain.IntentGoodbye:        {"ลาก่อน", "บาย", "แล้วเจอกัน", "ไปก่อน", "ขอบคุณ", "จบ", "เสร็จ"},
}

var englishKeywords = map[string][]string{
	domain.IntentGreeting:       {"hello", "hi", "hey", "good morning", "good afternoon", "greetings"},
	domain.IntentProductInquiry: {"product", "price", "cost", "buy", "purchase", "available", "sell"},
	domain.IntentSupportRequest: {"help", "support", "assist", "problem", "issue", "fix", "broken"},
	domain.IntentComplaint:      {"complain", "bad", "terrible", "awful", "worst", "hate", "angry"},
	domain.IntentCompliment:     {"good", "great", "excellent", "amazing", "wonderful", "perfect", "love"},
	domain.IntentOrderStatus:    {"order", "status", "delivery", "shipped", "track", "when", "arrive"},
	domain.IntentGoodbye:        {"bye", "goodbye", "see you", "farewell", "thanks", "done", "finished"},
}

// Priority fixes the winner when two intents reach the same confidence.
// Intents that need action from staff come before social ones.
var Priority = []string{
	domain.IntentComplaint,
	domain.IntentSupportRequest,
	domain.IntentOrderStatus,
	domain.IntentProductInquiry,
	domain.IntentCompliment,
	domain.IntentGoodbye,
	domain.IntentGreeting,
}

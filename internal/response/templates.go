package response

import "github.com/tbourn/iris-triage/internal/domain"

var defaultTemplates = map[string]map[string][]string{
	domain.LangThai: {
		domain.IntentGreeting: {
			"สวัสดีครับ! ยินดีต้อนรับเข้าสู่ระบบ Iris Origin",
			"หวัดดีค่ะ! มีอะไรให้ช่วยเหลือไหมคะ",
			"สวัสดีครับ! ผมพร้อมช่วยเหลือคุณ",
		},
		domain.IntentProductInquiry: {
			"เรามีสินค้าหลากหลายประเภท กรุณาระบุสินค้าที่สนใจครับ",
			"ผลิตภัณฑ์ของเรามีให้เลือกมากมาย ต้องการทราบราคาสินค้าใดคะ",
			"ยินดีให้ข้อมูลสินค้าครับ กรุณาบอกรายละเอียดที่ต้องการ",
		},
		domain.IntentSupportRequest: {
			"ผมพร้อมช่วยแก้ไขปัญหาครับ กรุณาอธิบายปัญหาที่พบ",
			"เรายินดีช่วยเหลือค่ะ โปรดแจ้งรายละเอียดปัญหา",
			"ทีมงานพร้อมให้ความช่วยเหลือครับ",
		},
		domain.IntentComplaint: {
			"ขออภัยครับ เราจะปรับปรุงและแก้ไขให้ดีขึ้น",
			"เราเสียใจที่คุณไม่พอใจ จะนำไปพัฒนาให้ดีกว่านี้ค่ะ",
			"ขอบคุณสำหรับข้อเสนอแนะครับ เราจะแก้ไขปรับปรุง",
		},
		domain.IntentCompliment: {
			"ขอบคุณมากครับ! เราดีใจที่คุณพอใจกับบริการ",
			"ยินดีมากค่ะ! เราจะรักษามาตรฐานนี้ไว้",
			"ขอบคุณครับ! กำลังใจนี้ช่วยเราพัฒนาต่อไป",
		},
		domain.IntentOrderStatus: {
			"กรุณาแจ้งหมายเลขคำสั่งซื้อครับ เราจะตรวจสอบสถานะให้",
			"ต้องการเลขออเดอร์เพื่อตรวจสอบการจัดส่งค่ะ",
			"ผมจะช่วยตรวจสอบสถานะการสั่งซื้อครับ",
		},
		domain.IntentGoodbye: {
			"ขอบคุณครับ! หวังว่าจะได้รับใช้อีก",
			"ลาก่อนค่ะ! มีอะไรติดต่อได้เสมอ",
			"แล้วเจอกันใหม่ครับ! สวัสดี",
		},
		domain.IntentUnknown: {
			"ขออภัยครับ ผมไม่เข้าใจคำถาม กรุณาอธิบายเพิ่มเติม",
			"ขอโทษค่ะ ไม่เข้าใจ โปรดอธิบายใหม่",
			"กรุณาอธิบายให้ชัดเจนกว่านี้ครับ",
		},
	},
	domain.LangEnglish: {
		domain.IntentGreeting: {
			"Hello! Welcome to Iris Origin AI system",
			"Hi there! How can I help you today?",
			"Greetings! I'm here to assist you",
		},
		domain.IntentProductInquiry: {
			"We have various products available. Which one interests you?",
			"I'd be happy to help with product information. What are you looking for?",
			"Please let me know which product you'd like to know about",
		},
		domain.IntentSupportRequest: {
			"I'm here to help! Please describe the issue you're facing",
			"I'll assist you with that. Can you provide more details?",
			"Our support team is ready to help. What's the problem?",
		},
		domain.IntentComplaint: {
			"I apologize for the inconvenience. We'll work to improve",
			"Thank you for your feedback. We'll address this issue",
			"I'm sorry about that. We value your input for improvement",
		},
		domain.IntentCompliment: {
			"Thank you so much! We're glad you're satisfied",
			"We appreciate your kind words! Thank you",
			"That means a lot to us! Thanks for the feedback",
		},
		domain.IntentOrderStatus: {
			"I can help check your order status. Please provide your order number",
			"Let me look up your order. What's your order ID?",
			"I'll check the delivery status for you",
		},
		domain.IntentGoodbye: {
			"Goodbye! Feel free to reach out anytime",
			"Thank you! Have a great day",
			"See you next time! Take care",
		},
		domain.IntentUnknown: {
			"I didn't understand that. Could you please clarify?",
			"I'm not sure what you mean. Can you explain differently?",
			"Please provide more details so I can help better",
		},
	},
}

var apologies = map[string]string{
	domain.LangThai:    "ขออภัยครับ ไม่สามารถสร้างคำตอบได้",
	domain.LangEnglish: "Sorry, I cannot generate a response right now",
}

// Apology returns the fixed reply used when selection fails.
func Apology(lang string) string {
	if s, ok := apologies[lang]; ok {
		return s
	}
	return apologies[domain.LangEnglish]
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/iris-triage/internal/domain"
	"github.com/tbourn/iris-triage/internal/language"
)

func TestDetectLanguage(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/language/detect", "", `{"text":"สวัสดีครับ ผมต้องการสอบถามเรื่องสินค้า"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var res language.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Language != domain.LangThai || res.Confidence <= 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	w = f.do(http.MethodPost, "/language/detect", "", `{"text":""}`, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Language != domain.LangUnknown || res.Confidence != 0 || res.Method != language.MethodInsufficient {
		t.Fatalf("empty text: %+v", res)
	}

	if w := f.do(http.MethodPost, "/language/detect", "", `nope`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", w.Code)
	}
	long := `{"text":"` + strings.Repeat("a", 4001) + `"}`
	if w := f.do(http.MethodPost, "/language/detect", "", long, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("too long: %d", w.Code)
	}
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/model"
)

func newSearchRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSearchHandler(nil, zerolog.Nop())
	r := gin.New()
	r.GET("/search", h.Search)
	return r
}

type errorEnvelope struct {
	Error *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

// Invalid query params must be rejected before the search runs, so the
// pagination envelope is never computed from a zero or garbage per_page.
func TestSearchRejectsInvalidParams(t *testing.T) {
	router := newSearchRouter()

	tests := []struct {
		name      string
		url       string
		wantField string
	}{
		{"missing query", "/search", "q"},
		{"blank query", "/search?q=%20", "q"},
		{"zero per_page", "/search?q=train&per_page=0", "per_page"},
		{"negative per_page", "/search?q=train&per_page=-5", "per_page"},
		{"non-numeric per_page", "/search?q=train&per_page=lots", "per_page"},
		{"per_page over cap", "/search?q=train&per_page=101", "per_page"},
		{"zero page", "/search?q=train&page=0", "page"},
		{"non-numeric page", "/search?q=train&page=first", "page"},
		{"unknown type", "/search?q=train&types=essay", "types"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			var env errorEnvelope
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if env.Error == nil {
				t.Fatal("expected error in response")
			}
			if _, ok := env.Error.Fields[tt.wantField]; !ok {
				t.Errorf("fields = %v, want key %q", env.Error.Fields, tt.wantField)
			}
		})
	}
}

func TestParseQuestionTypes(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   []model.QuestionType
		wantOK bool
	}{
		{"empty", "", nil, true},
		{"single", "numerical", []model.QuestionType{model.QuestionTypeNumerical}, true},
		{"both", "singleCorrect,numerical",
			[]model.QuestionType{model.QuestionTypeSingleCorrect, model.QuestionTypeNumerical}, true},
		{"trailing comma", "numerical,", []model.QuestionType{model.QuestionTypeNumerical}, true},
		{"unknown", "essay", nil, false},
		{"mixed valid and unknown", "numerical,essay", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseQuestionTypes(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("types = %v, want %v", got, tt.want)
			}
		})
	}
}

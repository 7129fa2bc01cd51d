package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/insight"
	"fintrack/internal/ledger/memory"
	"fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-with-enough-bytes"

var fixedNow = time.Date(2025, time.February, 15, 10, 0, 0, 0, time.UTC)

type fakeGenerator struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

type harness struct {
	srv *Server
	gen *fakeGenerator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	ledgerSvc := services.NewLedgerService(store, nil)
	clock := func() time.Time { return fixedNow }
	assembler := report.NewAssembler(aggregate.NewEngine(store, time.UTC), store, report.WithClock(clock))
	gen := &fakeGenerator{text: "Based on your incomes and expenses, here are some insights and suggestions for you."}
	builder := insight.NewBuilder(assembler, gen,
		insight.WithClock(clock),
		insight.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	srv := NewServer(Config{
		Addr:               ":0",
		JWTSecret:          testSecret,
		RateLimitPerMinute: 1000,
		Logger:             log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)}),
	}, ledgerSvc, assembler, builder)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &harness{srv: srv, gen: gen}
}

func token(t *testing.T, owner string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": owner}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func (h *harness) do(t *testing.T, owner, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, owner))
	}
	rr := httptest.NewRecorder()
	h.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func (h *harness) seedJanFeb(t *testing.T, owner string) {
	t.Helper()
	for _, body := range []string{
		`{"type":"expense","category":"Food","amount":50,"date":"2025-01-10"}`,
		`{"type":"income","category":"Salary","amount":"2000","date":"2025-01-28"}`,
		`{"type":"expense","category":"Food","amount":30,"date":"2025-02-03"}`,
	} {
		if rr := h.do(t, owner, http.MethodPost, "/api/transactions", body); rr.Code != http.StatusCreated {
			t.Fatalf("seed %s: status %d %s", body, rr.Code, rr.Body.String())
		}
	}
}

func TestAuth(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, "", http.MethodGet, "/api/reports/totals", "")
	if rr.Code != http.StatusUnauthorized || decode[errorResponse](t, rr).Error != "Access denied. No token provided." {
		t.Fatalf("missing token: %d %s", rr.Code, rr.Body.String())
	}

	for _, header := range []string{"Bearer not-a-jwt", "Bearer " + mustSign(t, "other-secret-value-long", "alice")} {
		req := httptest.NewRequest(http.MethodGet, "/api/reports/totals", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		h.srv.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest || decode[errorResponse](t, rr).Error != "Invalid token" {
			t.Fatalf("invalid token: %d %s", rr.Code, rr.Body.String())
		}
	}

	if rr := h.do(t, "alice", http.MethodGet, "/api/reports/totals", ""); rr.Code != http.StatusOK {
		t.Fatalf("valid token: %d", rr.Code)
	}
}

func mustSign(t *testing.T, secret, owner string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": owner}).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestReports(t *testing.T) {
	h := newHarness(t)
	h.seedJanFeb(t, "alice")
	h.seedJanFeb(t, "bob")

	rr := h.do(t, "alice", http.MethodGet, "/api/reports/monthly", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("monthly: %d %s", rr.Code, rr.Body.String())
	}
	slots := decode[[]map[string]float64](t, rr)
	if len(slots) != 12 {
		t.Fatalf("monthly slots = %d", len(slots))
	}
	if slots[0]["_id"] != 1 || slots[0]["income"] != 2000 || slots[0]["expense"] != 50 || slots[0]["balance"] != 1950 {
		t.Fatalf("january = %v", slots[0])
	}
	if slots[1]["expense"] != 30 || slots[2]["income"] != 0 {
		t.Fatalf("february/march = %v %v", slots[1], slots[2])
	}

	rr = h.do(t, "alice", http.MethodGet, "/api/reports/monthly?year=2024", "")
	if slots := decode[[]map[string]float64](t, rr); len(slots) != 12 || slots[0]["income"] != 0 {
		t.Fatalf("2024 summary = %v", slots)
	}
	if rr := h.do(t, "alice", http.MethodGet, "/api/reports/monthly?year=abc", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad year: %d", rr.Code)
	}

	rr = h.do(t, "alice", http.MethodGet, "/api/reports/categories", "")
	if rr.Body.String() != `[{"_id":"Food","total":80}]`+"\n" {
		t.Fatalf("categories = %s", rr.Body.String())
	}

	rr = h.do(t, "alice", http.MethodGet, "/api/reports/totals", "")
	if rr.Body.String() != `{"income":2000,"expense":80,"balance":1920}`+"\n" {
		t.Fatalf("totals = %s", rr.Body.String())
	}

	rr = h.do(t, "carol", http.MethodGet, "/api/reports/categories", "")
	if rr.Body.String() != "[]\n" {
		t.Fatalf("empty categories = %s", rr.Body.String())
	}
}

func TestBudgetProgress(t *testing.T) {
	h := newHarness(t)
	h.seedJanFeb(t, "alice")

	rr := h.do(t, "alice", http.MethodPost, "/api/budgets", `{"category":"Food","amount":100}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create budget: %d %s", rr.Code, rr.Body.String())
	}
	b := decode[map[string]any](t, rr)
	id, _ := b["_id"].(string)
	if b["period"] != "monthly" || id == "" {
		t.Fatalf("budget = %v", b)
	}

	p := decode[map[string]any](t, h.do(t, "alice", http.MethodGet, "/api/budgets/"+id, ""))
	if p["spent"] != 80.0 || p["remaining"] != 20.0 || p["scope"] != "all" || p["category"] != "Food" {
		t.Fatalf("progress = %v", p)
	}
	if _, ok := p["periodStart"]; ok {
		t.Fatalf("all-time progress must not carry a window: %v", p)
	}

	p = decode[map[string]any](t, h.do(t, "alice", http.MethodGet, "/api/budgets/"+id+"?scope=period", ""))
	if p["spent"] != 30.0 || p["remaining"] != 70.0 || p["scope"] != "period" || p["periodStart"] != "2025-02-01T00:00:00Z" {
		t.Fatalf("period progress = %v", p)
	}

	if rr := h.do(t, "alice", http.MethodGet, "/api/budgets/"+id+"?scope=week", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad scope: %d", rr.Code)
	}

	// Overspend yields a negative remaining.
	h.do(t, "alice", http.MethodPost, "/api/transactions", `{"type":"expense","category":"Food","amount":50,"date":"2025-02-10"}`)
	p = decode[map[string]any](t, h.do(t, "alice", http.MethodGet, "/api/budgets/"+id, ""))
	if p["spent"] != 130.0 || p["remaining"] != -30.0 {
		t.Fatalf("overspent progress = %v", p)
	}

	rr = h.do(t, "bob", http.MethodGet, "/api/budgets/"+id, "")
	if rr.Code != http.StatusNotFound || decode[errorResponse](t, rr).Error != "Budget not found" {
		t.Fatalf("foreign budget: %d %s", rr.Code, rr.Body.String())
	}

	rr = h.do(t, "alice", http.MethodPut, "/api/budgets/"+id, `{"amount":"250.50","period":"yearly"}`)
	if got := decode[map[string]any](t, rr); rr.Code != http.StatusOK || got["amount"] != 250.5 || got["period"] != "yearly" || got["category"] != "Food" {
		t.Fatalf("update budget: %d %v", rr.Code, got)
	}

	list := decode[[]map[string]any](t, h.do(t, "alice", http.MethodGet, "/api/budgets", ""))
	if len(list) != 1 {
		t.Fatalf("budgets = %v", list)
	}

	rr = h.do(t, "alice", http.MethodDelete, "/api/budgets/"+id, "")
	if rr.Code != http.StatusOK || decode[messageResponse](t, rr).Message != "Budget deleted" {
		t.Fatalf("delete budget: %d %s", rr.Code, rr.Body.String())
	}
	if rr := h.do(t, "alice", http.MethodDelete, "/api/budgets/"+id, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", rr.Code)
	}
}

func TestTransactionCRUD(t *testing.T) {
	h := newHarness(t)

	rr := h.do(t, "alice", http.MethodPost, "/api/transactions", `{"type":"expense","category":"Food","amount":12.345,"date":"2025-02-01T09:30:00+01:00","note":"lunch"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	created := decode[map[string]any](t, rr)
	id := created["_id"].(string)
	if created["amount"] != 12.35 || created["date"] != "2025-02-01T08:30:00Z" || created["user"] != "alice" || created["note"] != "lunch" {
		t.Fatalf("created = %v", created)
	}

	if rr := h.do(t, "bob", http.MethodGet, "/api/transactions/"+id, ""); rr.Code != http.StatusNotFound || decode[errorResponse](t, rr).Error != "Transaction not found" {
		t.Fatalf("foreign get: %d %s", rr.Code, rr.Body.String())
	}

	rr = h.do(t, "alice", http.MethodPut, "/api/transactions/"+id, `{"category":"Groceries"}`)
	updated := decode[map[string]any](t, rr)
	if rr.Code != http.StatusOK || updated["category"] != "Groceries" || updated["type"] != "expense" || updated["amount"] != 12.35 {
		t.Fatalf("update: %d %v", rr.Code, updated)
	}

	h.do(t, "alice", http.MethodPost, "/api/transactions", `{"type":"income","category":"Salary","amount":100,"date":"2025-03-01"}`)
	list := decode[[]map[string]any](t, h.do(t, "alice", http.MethodGet, "/api/transactions", ""))
	if len(list) != 2 || list[0]["category"] != "Salary" {
		t.Fatalf("list must be newest first: %v", list)
	}

	rr = h.do(t, "alice", http.MethodDelete, "/api/transactions/"+id, "")
	if rr.Code != http.StatusOK || decode[messageResponse](t, rr).Message != "Transaction deleted" {
		t.Fatalf("delete: %d %s", rr.Code, rr.Body.String())
	}
	if rr := h.do(t, "alice", http.MethodGet, "/api/transactions/"+id, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rr.Code)
	}
}

func TestTransactionValidation(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		fields []string
	}{
		{"missing fields", http.MethodPost, "/api/transactions", `{}`, []string{"type", "category", "amount"}},
		{"bad type and amount", http.MethodPost, "/api/transactions", `{"type":"gift","category":"Food","amount":"abc"}`, []string{"type", "amount"}},
		{"negative amount", http.MethodPost, "/api/transactions", `{"type":"income","category":"Salary","amount":-1}`, []string{"amount"}},
		{"bad date", http.MethodPost, "/api/transactions", `{"type":"income","category":"Salary","amount":1,"date":"15/01/2025"}`, []string{"date"}},
		{"malformed json", http.MethodPost, "/api/transactions", `{"type":`, []string{"body"}},
		{"blank category on update", http.MethodPut, "/api/transactions/any", `{"category":"  "}`, []string{"category"}},
		{"zero budget", http.MethodPost, "/api/budgets", `{"category":"Food","amount":0,"period":"weekly"}`, []string{"amount", "period"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := h.do(t, "alice", tt.method, tt.path, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
			}
			got := decode[validationResponse](t, rr)
			if len(got.Errors) != len(tt.fields) {
				t.Fatalf("errors = %+v, want fields %v", got.Errors, tt.fields)
			}
			for i, f := range tt.fields {
				if got.Errors[i].Field != f || got.Errors[i].Msg == "" {
					t.Errorf("error %d = %+v, want field %s", i, got.Errors[i], f)
				}
			}
		})
	}
}

func TestAIInsights(t *testing.T) {
	h := newHarness(t)
	h.seedJanFeb(t, "alice")

	rr := h.do(t, "alice", http.MethodGet, "/api/reports/ai-insights", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Success       bool   `json:"success"`
		AIInsights    string `json:"aiInsights"`
		GeneratedAt   string `json:"generatedAt"`
		FinancialData struct {
			CurrentMonth struct {
				Month            int     `json:"month"`
				Year             int     `json:"year"`
				Expenses         float64 `json:"expenses"`
				TransactionCount int     `json:"transactionCount"`
			} `json:"currentMonth"`
			Last3Months []map[string]float64 `json:"last3Months"`
		} `json:"financialData"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	cm := body.FinancialData.CurrentMonth
	if !body.Success || body.GeneratedAt != "2025-02-15T10:00:00Z" || cm.Month != 2 || cm.Year != 2025 || cm.Expenses != 30 || cm.TransactionCount != 1 {
		t.Fatalf("body = %+v", body)
	}
	if len(body.FinancialData.Last3Months) != 3 || body.FinancialData.Last3Months[1]["income"] != 2000 {
		t.Fatalf("trend = %v", body.FinancialData.Last3Months)
	}
	if !strings.HasPrefix(body.AIInsights, "Based on your incomes and expenses") {
		t.Fatalf("insight text = %q", body.AIInsights)
	}
	if len(h.gen.prompts) != 1 || !strings.Contains(h.gen.prompts[0], "$30.00") {
		t.Fatalf("prompts = %v", h.gen.prompts)
	}
}

func TestAIInsightsGeneratorFailure(t *testing.T) {
	h := newHarness(t)
	h.gen.err = errors.New("quota exceeded")

	rr := h.do(t, "alice", http.MethodGet, "/api/reports/ai-insights", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decode[errorResponse](t, rr)
	if got.Error != "Failed to generate AI insights" || got.Details != "quota exceeded" {
		t.Fatalf("body = %+v", got)
	}
}

func TestHealthAndRouting(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/", "/healthz", "/readyz"} {
		if rr := h.do(t, "", http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rr.Code)
		}
	}
	rr := h.do(t, "alice", http.MethodGet, "/api/unknown", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown route status = %d", rr.Code)
	}
	rr = h.do(t, "", http.MethodGet, "/healthz", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing middleware headers: %v", rr.Header())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	rr := httptest.NewRecorder()
	h.srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("preflight status = %d %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != http.MethodPost {
		t.Fatalf("Access-Control-Allow-Methods = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Fatalf("Access-Control-Allow-Headers = %q", got)
	}

	rr = h.do(t, "alice", http.MethodGet, "/api/transactions", "")
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("same-origin request got CORS headers: %v", rr.Header())
	}
}

func TestCORSAllowedOrigins(t *testing.T) {
	srv := NewServer(Config{
		Addr:               ":0",
		JWTSecret:          testSecret,
		RateLimitPerMinute: 1000,
		AllowedOrigins:     []string{"https://app.example.com"},
		Logger:             log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)}),
	}, nil, nil, nil)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/reports/totals", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rr := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rr, req)
		return rr
	}

	rr := preflight("https://app.example.com")
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("allowed origin header = %q", got)
	}
	if rr.Header().Get("Access-Control-Max-Age") != "300" {
		t.Fatalf("Access-Control-Max-Age = %q", rr.Header().Get("Access-Control-Max-Age"))
	}

	rr = preflight("https://evil.example.com")
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("disallowed origin got %q", got)
	}
}

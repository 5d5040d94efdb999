package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/metrics"
	"github.com/sudo-init-do/marketfront/internal/session"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)

type backend struct {
	*httptest.Server
	reservationCalls atomic.Int32
	lastQuery        atomic.Value
	lastForm         atomic.Value
	leftChats        atomic.Int32
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", func(w http.ResponseWriter, r *http.Request) {
		b.lastQuery.Store(r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{
			"content": []map[string]any{
				{"id": 1, "title": "oak desk", "price": 30000, "status": "SALE", "area": "Seoul", "createdAt": "2024-05-01T11:30:00"},
				{"id": 2, "title": "desk lamp", "price": 8000, "status": "SOLD", "area": "Seoul", "createdAt": "2024-05-01T10:00:00"},
				{"id": 3, "title": "standing desk", "price": 120000, "status": "SALE", "area": "Seoul", "createdAt": "2024-04-20T10:00:00"},
				{"id": 4, "title": "chair", "price": 15000, "status": "SALE", "area": "Busan", "createdAt": "2024-04-30T10:00:00"},
			},
			"totalPages":    1,
			"totalElements": 4,
		})
	})
	mux.HandleFunc("GET /api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such product"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "title": "oak desk", "price": 30000, "status": "SALE"})
	})
	mux.HandleFunc("GET /areas", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Seoul"}})
	})
	mux.HandleFunc("GET /api/chats/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"chatId": 8, "buyerId": 2, "sellerId": 1,
			"product": map[string]any{"id": 1, "title": "oak desk", "price": 30000, "isReserved": false},
		})
	})
	mux.HandleFunc("GET /api/chats/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		// out of order, with one redelivered message
		writeJSON(w, http.StatusOK, []map[string]any{
			{"messageId": 2, "senderId": 1, "content": "yes", "createdAt": "2024-05-01T11:01:00"},
			{"messageId": 1, "senderId": 2, "content": "still available?", "createdAt": "2024-05-01T11:00:00"},
			{"messageId": 2, "senderId": 1, "content": "yes", "createdAt": "2024-05-01T11:01:00"},
		})
	})
	mux.HandleFunc("POST /api/reservations", func(w http.ResponseWriter, r *http.Request) {
		b.reservationCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("PATCH /api/reservations/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		b.reservationCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		var page int
		fmt.Sscan(r.URL.Query().Get("page"), &page)
		var content []map[string]any
		for i := page*10 + 1; i <= min(page*10+10, 25); i++ {
			content = append(content, map[string]any{"notificationId": i, "message": "hello", "sentAt": "2024-05-01T11:59:30"})
		}
		writeJSON(w, http.StatusOK, map[string]any{"content": content, "totalPages": 3, "totalElements": 25})
	})
	mux.HandleFunc("GET /api/reports/admin/unprocessed", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"reportId": 1, "reporterId": 1, "targetUserId": 2, "reason": "spam"}})
	})
	mux.HandleFunc("GET /api/admin/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		writeJSON(w, http.StatusOK, map[string]any{"userId": id, "nickname": "user" + r.PathValue("id")})
	})

	mux.HandleFunc("PUT /api/users/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		var form api.ProductForm
		_ = json.NewDecoder(r.Body).Decode(&form)
		b.lastForm.Store(form)
		id, _ := strconv.Atoi(r.PathValue("id"))
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "title": form.Title, "price": form.Price, "status": "SALE"})
	})
	mux.HandleFunc("DELETE /api/chats/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.leftChats.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func newGateway(t *testing.T) (*echo.Echo, *backend, *metrics.Metrics) {
	t.Helper()
	b := newBackend(t)
	m := metrics.New("marketfront_test")
	client := api.New(api.Options{BaseURL: b.URL, OnResponse: m.ObserveBackend})
	e := New(Deps{API: client, Metrics: m, Now: func() time.Time { return fixedNow }})
	return e, b, m
}

func bearer(t *testing.T, userID int64, role string) string {
	t.Helper()
	claims := session.Claims{UserID: userID, Role: role}
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return "Bearer " + s
}

func do(e *echo.Echo, method, target, authz string, body string, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHomeFiltersAndWindows(t *testing.T) {
	e, _, _ := newGateway(t)

	rec := do(e, http.MethodGet, "/?area=Seoul&keyword=desk&size=1", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	products := body["products"].([]any)
	require.Len(t, products, 1)
	first := products[0].(map[string]any)
	assert.Equal(t, float64(1), first["id"])
	assert.Equal(t, "30,000", first["priceText"])
	assert.Equal(t, "30 minutes ago", first["posted"])
	assert.Equal(t, float64(2), body["totalPages"])
	assert.Equal(t, true, body["hasNext"])
	assert.Contains(t, body["nextUrl"], "page=1")
}

func TestHomeFlagsUnreadablePriceBounds(t *testing.T) {
	e, _, _ := newGateway(t)

	rec := do(e, http.MethodGet, "/?minPrice=cheap", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{"minPrice"}, body["ignoredBounds"])
	assert.Len(t, body["products"], 3)
}

func TestProductsForwardsSearchState(t *testing.T) {
	e, b, _ := newGateway(t)

	rec := do(e, http.MethodGet, "/products?keyword=desk&page=0&size=10", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	q, err := url.ParseQuery(b.lastQuery.Load().(string))
	require.NoError(t, err)
	assert.Equal(t, "desk", q.Get("keyword"))
	assert.Equal(t, "createdAt,desc", q.Get("sort"))
	_, hasArea := q["area"]
	assert.False(t, hasArea)
}

func TestSearchRedirectsToFirstPage(t *testing.T) {
	e, _, _ := newGateway(t)

	rec := do(e, http.MethodPost, "/search", "", "keyword=desk&minPrice=1,000&maxPrice=20000", echo.MIMEApplicationForm)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	require.NoError(t, err)
	assert.Equal(t, "/products", loc.Path)
	assert.Equal(t, "0", loc.Query().Get("page"))
	assert.Equal(t, "10", loc.Query().Get("size"))
	assert.Equal(t, "desk", loc.Query().Get("keyword"))
}

func TestSearchRejectsInvertedRange(t *testing.T) {
	e, _, _ := newGateway(t)

	rec := do(e, http.MethodPost, "/search", "", `{"minPrice":"50000","maxPrice":"10000"}`, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "minPrice", decode(t, rec)["field"])
	assert.Empty(t, rec.Header().Get(echo.HeaderLocation))
}

func TestProductNotFound(t *testing.T) {
	e, _, _ := newGateway(t)

	rec := do(e, http.MethodGet, "/products/77", "", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/products/abc", "", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAreas(t *testing.T) {
	e, _, _ := newGateway(t)
	rec := do(e, http.MethodGet, "/areas", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"areas":[{"id":1,"name":"Seoul"}]}`, rec.Body.String())
}

func TestChatRoutesNeedToken(t *testing.T) {
	e, _, _ := newGateway(t)
	rec := do(e, http.MethodGet, "/chats/8", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownPathIsNotFound(t *testing.T) {
	e, _, _ := newGateway(t)

	rec := do(e, http.MethodGet, "/nope", "", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/chats/8/nope", "", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatRoomView(t *testing.T) {
	e, _, _ := newGateway(t)

	rec := do(e, http.MethodGet, "/chats/8", bearer(t, 1, "USER"), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["isSeller"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, float64(1), msgs[0].(map[string]any)["messageId"])
	assert.Equal(t, float64(2), msgs[1].(map[string]any)["messageId"])
	assert.Equal(t, false, msgs[0].(map[string]any)["mine"])
	assert.Equal(t, true, msgs[1].(map[string]any)["mine"])
	assert.Equal(t, "11:01", msgs[1].(map[string]any)["time"])
}

func TestReservationBySeller(t *testing.T) {
	e, b, _ := newGateway(t)

	rec := do(e, http.MethodPost, "/chats/8/reservation", bearer(t, 1, "USER"), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["isReserved"])
	assert.Equal(t, int32(1), b.reservationCalls.Load())
}

func TestCancelByBuyerIsForbiddenWithoutBackendCall(t *testing.T) {
	e, b, _ := newGateway(t)

	rec := do(e, http.MethodDelete, "/chats/8/reservation", bearer(t, 2, "USER"), `{"reasonId":1}`, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, b.reservationCalls.Load())
}

func TestCancelNeedsReason(t *testing.T) {
	e, b, _ := newGateway(t)

	rec := do(e, http.MethodDelete, "/chats/8/reservation", bearer(t, 1, "USER"), `{"detail":"no show"}`, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, b.reservationCalls.Load())
}

func TestNotificationsScrollToPage(t *testing.T) {
	e, _, _ := newGateway(t)

	rec := do(e, http.MethodGet, "/notifications?page=1", bearer(t, 1, "USER"), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["notifications"], 20)
	assert.Equal(t, true, body["hasMore"])

	rec = do(e, http.MethodGet, "/notifications?page=9", bearer(t, 1, "USER"), "", "")
	body = decode(t, rec)
	assert.Len(t, body["notifications"], 25)
	assert.Equal(t, false, body["hasMore"])
	assert.Equal(t, float64(2), body["page"])
	assert.Equal(t, float64(25), body["unreadCount"])
}

func TestAdminRoutes(t *testing.T) {
	e, _, _ := newGateway(t)

	rec := do(e, http.MethodGet, "/admin/reports", bearer(t, 1, "USER"), "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(e, http.MethodGet, "/admin/reports", bearer(t, 9, "ADMIN"), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	reports := decode(t, rec)["reports"].([]any)
	require.Len(t, reports, 1)
	r := reports[0].(map[string]any)
	assert.Equal(t, "user1", r["reporterNickname"])
	assert.Equal(t, "user2", r["targetNickname"])

	rec = do(e, http.MethodPut, "/admin/users/2/status", bearer(t, 9, "ADMIN"), `{"status":"BANNED"}`, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e, _, _ := newGateway(t)
	_ = do(e, http.MethodGet, "/products/1", "", "", "")

	rec := do(e, http.MethodGet, "/metrics", "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `marketfront_test_http_requests_total{method="GET",route="/products/:id",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), `marketfront_test_backend_calls_total{method="GET",status="200"} 1`)
}

func TestUpdateProductNormalizesPrice(t *testing.T) {
	e, b, _ := newGateway(t)

	body := `{"title":" walnut desk ","price":"12,000 won","category":"furniture","area":"Seoul"}`
	rec := do(e, http.MethodPut, "/users/products/1", bearer(t, 1, "USER"), body, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12,000", decode(t, rec)["priceText"])

	form := b.lastForm.Load().(api.ProductForm)
	assert.Equal(t, int64(12000), form.Price)
	assert.Equal(t, "walnut desk", form.Title)

	rec = do(e, http.MethodPut, "/users/products/1", bearer(t, 1, "USER"), `{"title":"desk","category":"c","area":"a"}`, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "price", decode(t, rec)["field"])
}

func TestLeaveChat(t *testing.T) {
	e, b, _ := newGateway(t)

	rec := do(e, http.MethodDelete, "/chats/8", bearer(t, 2, "USER"), "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int32(1), b.leftChats.Load())
}

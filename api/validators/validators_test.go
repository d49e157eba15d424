package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createBody struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Rice","email":"a@b.test"}`))
	var body createBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "Rice", body.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Rice","extra":1}`))
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","email":"nope"}`))
	err = DecodeJSONBody(req, &createBody{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be a valid email", details["email"])
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=20", nil)
	v, err := ParseQueryInt(req, "limit", 50, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	v, err = ParseQueryInt(req, "limit", 50, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	req = httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
	_, err = ParseQueryInt(req, "limit", 50, 1, 500)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParsePathID(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := ParsePathID(withParam("1001"), "id")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), id)

	for _, bad := range []string{"", "0", "-4", "x"} {
		_, err := ParsePathID(withParam(bad), "id")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), bad)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "abc", SanitizeString(" abc ", 0))
	assert.Equal(t, "Toor Dal", SanitizeString("Toor\x00 Dal\n", 0))
	assert.Equal(t, "घी", SanitizeString("घी शुद्ध", 2))
}

type priceBody struct {
	Price    decimal.Decimal  `json:"price" validate:"money"`
	NewPrice *decimal.Decimal `json:"new_price,omitempty" validate:"omitempty,money"`
}

func TestDecodeJSONBodyMoney(t *testing.T) {
	for _, payload := range []string{`{"price":"120"}`, `{"price":95.5}`, `{"price":"0.05","new_price":"10.10"}`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		require.NoError(t, DecodeJSONBody(req, &priceBody{}), payload)
	}

	for payload, field := range map[string]string{
		`{"price":"-1"}`:                   "price",
		`{"price":"1.999"}`:                "price",
		`{"price":"1","new_price":"-0.5"}`: "new_price",
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		err := DecodeJSONBody(req, &priceBody{})
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), payload)
		details := pkgerrors.As(err).Details().(map[string]string)
		assert.Contains(t, details[field], "non-negative", payload)
	}
}

type orderBody struct {
	Items []orderLine `json:"items" validate:"required,min=1,dive"`
}

type orderLine struct {
	ProductID int64 `json:"product_id" validate:"required"`
}

func TestDecodeJSONBodyDiveKeepsIndex(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[{"product_id":1},{"product_id":0}]}`))
	err := DecodeJSONBody(req, &orderBody{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["items[1].product_id"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[]}`))
	err = DecodeJSONBody(req, &orderBody{})
	details = pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "must contain at least 1 item(s)", details["items"])
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	huge := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `","email":"a@b.test"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	err := DecodeJSONBody(req, &createBody{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "request body too large", pkgerrors.As(err).Message())
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/?heal=true", nil)
	heal, err := ParseQueryBool(req, "heal")
	require.NoError(t, err)
	assert.True(t, heal)

	heal, err = ParseQueryBool(httptest.NewRequest(http.MethodPost, "/", nil), "heal")
	require.NoError(t, err)
	assert.False(t, heal)

	_, err = ParseQueryBool(httptest.NewRequest(http.MethodPost, "/?heal=maybe", nil), "heal")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

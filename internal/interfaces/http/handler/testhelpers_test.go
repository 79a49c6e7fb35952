package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/possale/backend/internal/application/catalog"
	identityapp "github.com/possale/backend/internal/application/identity"
	reportapp "github.com/possale/backend/internal/application/report"
	salesapp "github.com/possale/backend/internal/application/sale"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/infrastructure/auth"
	"github.com/possale/backend/internal/infrastructure/config"
	"github.com/possale/backend/internal/infrastructure/persistence/memory"
	"github.com/possale/backend/internal/interfaces/http/dto"
	"github.com/possale/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// testApp wires the handlers to an in-memory store behind the real JWT middleware
type testApp struct {
	store     *memory.Store
	products  *memory.ProductRepository
	users     *memory.UserRepository
	sales     *memory.SaleRepository
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	engine    *gin.Engine

	productService *catalogapp.ProductService
	processor      *salesapp.Processor
	query          *salesapp.QueryService
	reports        *reportapp.SalesReportService
	authService    *identityapp.AuthService
	userService    *identityapp.UserService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := memory.NewStore()
	a := &testApp{
		store:     store,
		products:  memory.NewProductRepository(store),
		users:     memory.NewUserRepository(store),
		sales:     memory.NewSaleRepository(store),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "handler-test-secret-32-characters",
			RefreshSecret:          "handler-test-refresh-secret-32-ch",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
			Issuer:                 "pos-test",
			MaxRefreshCount:        5,
		}),
	}
	ledger := memory.NewLedger(store)
	a.productService = catalogapp.NewProductService(a.products, ledger, nil)
	a.processor = salesapp.NewProcessor(memory.NewTransactionScope(store), nil)
	a.query = salesapp.NewQueryService(a.sales, a.products, a.users)
	a.reports = reportapp.NewSalesReportService(a.sales, a.query, time.UTC, nil)
	a.authService = identityapp.NewAuthService(a.users, a.jwt, a.blacklist, nil)
	a.userService = identityapp.NewUserService(a.users, a.blacklist, 15*time.Minute, nil)

	cfg := middleware.DefaultJWTConfig(a.jwt)
	cfg.TokenBlacklist = a.blacklist
	a.engine = gin.New()
	a.engine.Use(middleware.RequestID(), middleware.JWTAuthMiddlewareWithConfig(cfg))
	return a
}

func (a *testApp) seedProduct(t *testing.T, name, barcode, price string, stock int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, barcode, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, a.products.Create(context.Background(), p))
	return p
}

func (a *testApp) seedCashier(t *testing.T, username string) *identity.User {
	t.Helper()
	u, err := identity.NewCashier(username, "secret1", identity.CashierProfile{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Birthday:    time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
		PhoneNumber: "555-0100",
	})
	require.NoError(t, err)
	require.NoError(t, a.users.Save(context.Background(), u))
	return u
}

func (a *testApp) seedAdmin(t *testing.T, username string) *identity.User {
	t.Helper()
	u, err := identity.NewAdmin(username, "secret1")
	require.NoError(t, err)
	require.NoError(t, a.users.Save(context.Background(), u))
	return u
}

// bearer issues an access token for u without going through login
func (a *testApp) bearer(t *testing.T, u *identity.User) string {
	t.Helper()
	pair, err := a.jwt.Issue(auth.Subject{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        string(u.Role),
		Permissions: u.Permissions(),
	})
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func (a *testApp) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

// envelope is dto.Response with the data left raw for typed decoding
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	env := decode(t, rec)
	require.True(t, env.Success, rec.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	env := decode(t, rec)
	require.False(t, env.Success, rec.Body.String())
	require.NotNil(t, env.Error)
	return *env.Error
}

//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// Covered flows:
//   - Full sale cycle: login → abrir turno → venta con NCF → listado
//   - Double open on the same register is rejected by the partial unique index
//   - Anular venta restores stock and records the compensating movement
//   - Cierre de turno returns the reconciliation report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"caribepos/internal/config"
	"caribepos/internal/infra"
	"caribepos/internal/model"
	"caribepos/internal/router"
	"caribepos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server     *httptest.Server
	db         *gorm.DB
	token      string // admin JWT
	storeID    uuid.UUID
	registerID uuid.UUID
	denom100   uuid.UUID
	denom500   uuid.UUID
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("caribepos_test"),
		tcPostgres.WithUsername("caribepos"),
		tcPostgres.WithPassword("caribepos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		DGIIBaseURL:        "http://localhost:9999", // unused: tests only issue consumo sales
		WorkerPoolSize:     1,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	env := &testEnv{db: db}
	seed(t, env)

	dgii := infra.NewDGIIClient(cfg.DGIIBaseURL, infra.NewCircuitBreaker(infra.DefaultCBConfig()))
	dispatcher := worker.NewDispatcher(rdb)

	r := router.New(cfg, db, rdb, dgii, dispatcher)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	env.server = srv

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin.e2e", "password": "clave-e2e"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)
	env.token = loginBody.AccessToken

	return env
}

// seed creates the store, register, admin user, DOP denominations and NCF
// sequences every flow needs.
func seed(t *testing.T, env *testEnv) {
	t.Helper()

	store := &model.Store{Name: "Tienda E2E", RNC: "101000001", CurrencyCode: "DOP"}
	require.NoError(t, env.db.Create(store).Error)
	env.storeID = store.ID

	register := &model.Register{StoreID: store.ID, Name: "Caja E2E"}
	require.NoError(t, env.db.Create(register).Error)
	env.registerID = register.ID

	hash, err := bcrypt.GenerateFromPassword([]byte("clave-e2e"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &model.User{
		Username:     "admin.e2e",
		Name:         "Admin E2E",
		PasswordHash: string(hash),
		Rol:          model.RoleAdministrador,
		StoreID:      &store.ID,
		Active:       true,
	}
	require.NoError(t, env.db.Create(admin).Error)

	d100 := &model.CashDenomination{CurrencyCode: "DOP", Value: decimal.NewFromInt(100), Kind: "bill"}
	d500 := &model.CashDenomination{CurrencyCode: "DOP", Value: decimal.NewFromInt(500), Kind: "bill"}
	require.NoError(t, env.db.Create(d100).Error)
	require.NoError(t, env.db.Create(d500).Error)
	env.denom100 = d100.ID
	env.denom500 = d500.ID

	end := int64(10000000)
	for _, typeCode := range []string{"B01", "B02"} {
		seq := &model.NcfSequence{
			StoreID: store.ID, TypeCode: typeCode,
			NextNumber: 1, EndNumber: &end, PadLength: 8, Active: true,
		}
		require.NoError(t, env.db.Create(seq).Error)
	}
}

func createProduct(t *testing.T, env *testEnv, barcode, name string, price float64, stock int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/productos",
		jsonBody(t, map[string]any{
			"barcode":       barcode,
			"name":          name,
			"cost_price":    price / 2,
			"sale_price":    price,
			"stock_current": stock,
		}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &prod)
	return prod.ID
}

func openShift(t *testing.T, env *testEnv) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/turnos/abrir",
		jsonBody(t, map[string]any{
			"register_id": env.registerID.String(),
			"counts": []map[string]any{
				{
					"currency_code": "DOP",
					"lines": []map[string]any{
						{"denomination_id": env.denom500.String(), "quantity": 2},
					},
				},
			},
		}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var shift struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &shift)
	require.NotEmpty(t, shift.ID)
	return shift.ID
}

func finalizeSale(t *testing.T, env *testEnv, shiftID, productID string, qty int, tendered float64) *http.Response {
	t.Helper()
	return do(t, env.server, "POST", "/v1/ventas",
		jsonBody(t, map[string]any{
			"shift_id":     shiftID,
			"bill_to_type": "consumo",
			"lines": []map[string]any{
				{"product_id": productID, "quantity": qty},
			},
			"payments": []map[string]any{
				{
					"method":          "cash",
					"currency_code":   "DOP",
					"amount":          tendered,
					"tendered_amount": tendered,
				},
			},
		}),
		env.token,
	)
}

func productStock(t *testing.T, env *testEnv, productID string) int {
	t.Helper()
	resp := do(t, env.server, "GET", "/v1/productos/"+productID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prod struct {
		StockCurrent int `json:"stock_current"`
	}
	decodeJSON(t, resp, &prod)
	return prod.StockCurrent
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullSaleCycle(t *testing.T) {
	env := setupTestEnv(t)

	prodID := createProduct(t, env, "7460001000001", "Refresco 500ml", 118.00, 20)
	shiftID := openShift(t, env)

	ventaResp := finalizeSale(t, env, shiftID, prodID, 2, 236.00)
	require.Equal(t, http.StatusCreated, ventaResp.StatusCode)
	var venta struct {
		ID       string  `json:"id"`
		Ncf      *string `json:"ncf"`
		TaxTotal string  `json:"tax_total"`
		Total    string  `json:"total"`
		Status   string  `json:"status"`
	}
	decodeJSON(t, ventaResp, &venta)
	assert.Equal(t, model.SaleCompleted, venta.Status)
	require.NotNil(t, venta.Ncf)
	assert.Equal(t, "B0200000001", *venta.Ncf)
	assert.Equal(t, "236", venta.Total)
	assert.Equal(t, "36", venta.TaxTotal) // 18/118 of 236

	assert.Equal(t, 18, productStock(t, env, prodID))

	listResp := do(t, env.server, "GET", fmt.Sprintf("/v1/ventas?shift_id=%s", shiftID), nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Data  []json.RawMessage `json:"data"`
		Total int64             `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.EqualValues(t, 1, list.Total)

	// Drawer expectation: apertura 1000 + venta 236
	expResp := do(t, env.server, "GET", "/v1/turnos/"+shiftID+"/esperado", nil, env.token)
	require.Equal(t, http.StatusOK, expResp.StatusCode)
	var expected map[string]string
	decodeJSON(t, expResp, &expected)
	assert.Equal(t, "1236", expected["DOP"])
}

func TestE2E_DoubleOpenRejected(t *testing.T) {
	env := setupTestEnv(t)
	_ = openShift(t, env)

	resp := do(t, env.server, "POST", "/v1/turnos/abrir",
		jsonBody(t, map[string]any{
			"register_id": env.registerID.String(),
			"counts": []map[string]any{
				{
					"currency_code": "DOP",
					"lines": []map[string]any{
						{"denomination_id": env.denom100.String(), "quantity": 5},
					},
				},
			},
		}),
		env.token,
	)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestE2E_VoidSaleRestoresStock(t *testing.T) {
	env := setupTestEnv(t)

	prodID := createProduct(t, env, "7460001000002", "Agua Mineral 1L", 50.00, 10)
	shiftID := openShift(t, env)

	ventaResp := finalizeSale(t, env, shiftID, prodID, 3, 150.00)
	require.Equal(t, http.StatusCreated, ventaResp.StatusCode)
	var venta struct {
		ID string `json:"id"`
	}
	decodeJSON(t, ventaResp, &venta)
	require.Equal(t, 7, productStock(t, env, prodID))

	anularResp := do(t, env.server, "POST", "/v1/ventas/"+venta.ID+"/anular",
		jsonBody(t, map[string]any{"reason": "Error de digitación en prueba"}),
		env.token,
	)
	anularResp.Body.Close()
	require.Equal(t, http.StatusNoContent, anularResp.StatusCode)

	getResp := do(t, env.server, "GET", "/v1/ventas/"+venta.ID, nil, env.token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var voided struct {
		Status string  `json:"status"`
		Ncf    *string `json:"ncf"`
	}
	decodeJSON(t, getResp, &voided)
	assert.Equal(t, model.SaleVoided, voided.Status)
	// The NCF stays on the voided sale; fiscal numbers are never reused
	require.NotNil(t, voided.Ncf)

	assert.Equal(t, 10, productStock(t, env, prodID))

	// A second void is a conflict, not a double restore
	again := do(t, env.server, "POST", "/v1/ventas/"+venta.ID+"/anular",
		jsonBody(t, map[string]any{"reason": "Reintento de anulación"}),
		env.token,
	)
	defer again.Body.Close()
	assert.Equal(t, http.StatusConflict, again.StatusCode)
	assert.Equal(t, 10, productStock(t, env, prodID))
}

func TestE2E_CloseShiftReturnsReport(t *testing.T) {
	env := setupTestEnv(t)

	prodID := createProduct(t, env, "7460001000003", "Galletas", 100.00, 30)
	shiftID := openShift(t, env)

	require.Equal(t, http.StatusCreated, finalizeSale(t, env, shiftID, prodID, 1, 100.00).StatusCode)

	// Expected drawer: 1000 opening + 100 sale = 1100. Count 1100 exactly.
	closeResp := do(t, env.server, "POST", "/v1/turnos/cerrar",
		jsonBody(t, map[string]any{
			"shift_id": shiftID,
			"counts": []map[string]any{
				{
					"currency_code": "DOP",
					"lines": []map[string]any{
						{"denomination_id": env.denom500.String(), "quantity": 2},
						{"denomination_id": env.denom100.String(), "quantity": 1},
					},
				},
			},
		}),
		env.token,
	)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var report struct {
		ShiftID    string `json:"shift_id"`
		Status     string `json:"status"`
		Currencies []struct {
			CurrencyCode   string `json:"currency_code"`
			Expected       string `json:"expected"`
			Counted        string `json:"counted"`
			Variance       string `json:"variance"`
			Classification string `json:"classification"`
		} `json:"currencies"`
	}
	decodeJSON(t, closeResp, &report)
	assert.Equal(t, shiftID, report.ShiftID)
	assert.Equal(t, model.ShiftClosed, report.Status)
	require.Len(t, report.Currencies, 1)
	dop := report.Currencies[0]
	assert.Equal(t, "DOP", dop.CurrencyCode)
	assert.Equal(t, "1100", dop.Expected)
	assert.Equal(t, "1100", dop.Counted)
	assert.Equal(t, "0", dop.Variance)
	assert.Equal(t, "normal", dop.Classification)

	// The register is free again
	reopened := openShift(t, env)
	assert.NotEmpty(t, reopened)
}

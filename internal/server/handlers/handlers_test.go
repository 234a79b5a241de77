package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smallflock/coopkeeper/internal/auth"
	"github.com/smallflock/coopkeeper/internal/domain/models"
	"github.com/smallflock/coopkeeper/internal/repository/gormdb"
	"github.com/smallflock/coopkeeper/internal/server/handlers"
	"github.com/smallflock/coopkeeper/internal/server/middleware"
	"github.com/smallflock/coopkeeper/internal/server/router"
	"github.com/smallflock/coopkeeper/internal/service/propagation"
)

const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
	aliceID    = "aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa"
	bobID      = "bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb"
)

// tokenVerifier maps known bearer tokens onto identities, standing in for the
// hosted auth service.
type tokenVerifier struct{}

func (tokenVerifier) GetUser(_ context.Context, token string) (*auth.Identity, error) {
	switch token {
	case aliceToken:
		return &auth.Identity{ID: aliceID, Email: "alice@example.com"}, nil
	case bobToken:
		return &auth.Identity{ID: bobID, Email: "bob@example.com"}, nil
	default:
		return nil, fmt.Errorf("token rejected: %w", auth.ErrUnauthenticated)
	}
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError:                           true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, gormdb.Migrate(db))

	flockRepo := gormdb.NewFlockRepository(db)
	eventRepo := gormdb.NewEventRepository(db)
	propagationSvc := propagation.NewService(db, nil)

	return router.New(router.Handlers{
		Eggs:        handlers.NewEggHandler(gormdb.NewEggRepository(db), nil),
		Expenses:    handlers.NewExpenseHandler(gormdb.NewExpenseRepository(db), nil),
		Feed:        handlers.NewFeedHandler(gormdb.NewFeedRepository(db), 10, nil),
		Customers:   handlers.NewCustomerHandler(gormdb.NewCustomerRepository(db), nil),
		Sales:       handlers.NewSaleHandler(gormdb.NewSaleRepository(db), nil),
		Flock:       handlers.NewFlockHandler(flockRepo, nil),
		Batches:     handlers.NewBatchHandler(flockRepo, nil),
		BatchEvents: handlers.NewBatchEventHandler(eventRepo, flockRepo, propagationSvc, nil),
		FlockEvents: handlers.NewFlockEventHandler(eventRepo, nil),
	}, middleware.RequireAuth(tokenVerifier{}, nil), nil)
}

func do(t *testing.T, engine *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, request)
	return recorder
}

// data unwraps the success envelope's data field into out.
func data(t *testing.T, recorder *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &env), recorder.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out), recorder.Body.String())
	}
}

func TestHealthzIsOpen(t *testing.T) {
	engine := newTestServer(t)
	recorder := do(t, engine, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	engine := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized,
		do(t, engine, http.MethodGet, "/api/eggs", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized,
		do(t, engine, http.MethodGet, "/api/eggs", "forged-token", "").Code)
}

func TestEggRoundTripHonorsClientID(t *testing.T) {
	engine := newTestServer(t)
	clientID := models.NewRecordID()

	payload := fmt.Sprintf(`{"id":%q,"date":"2026-08-01","count":12,"size":"large"}`, clientID)
	recorder := do(t, engine, http.MethodPost, "/api/eggs", aliceToken, payload)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var stored []models.EggEntry
	data(t, recorder, &stored)
	require.Len(t, stored, 1)
	assert.Equal(t, clientID, stored[0].ID)
	assert.Equal(t, 12, stored[0].Count)
	assert.Equal(t, aliceID, stored[0].OwnerID)

	// Re-posting the same id with only a new count updates in place and keeps
	// the omitted size.
	payload = fmt.Sprintf(`{"id":%q,"date":"2026-08-01","count":14}`, clientID)
	recorder = do(t, engine, http.MethodPost, "/api/eggs", aliceToken, payload)
	require.Equal(t, http.StatusOK, recorder.Code)

	data(t, recorder, &stored)
	require.Len(t, stored, 1)
	assert.Equal(t, 14, stored[0].Count)
	assert.Equal(t, "large", stored[0].Size)

	listed := do(t, engine, http.MethodGet, "/api/eggs", aliceToken, "")
	var all []models.EggEntry
	data(t, listed, &all)
	assert.Len(t, all, 1)
}

func TestEggUpsertDiscardsMalformedClientID(t *testing.T) {
	engine := newTestServer(t)

	recorder := do(t, engine, http.MethodPost, "/api/eggs", aliceToken,
		`{"id":"egg-42","date":"2026-08-01","count":6}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var stored []models.EggEntry
	data(t, recorder, &stored)
	require.Len(t, stored, 1)
	assert.NotEqual(t, "egg-42", stored[0].ID)
	assert.True(t, models.ValidRecordID(stored[0].ID))
}

func TestEggUpsertAcceptsArray(t *testing.T) {
	engine := newTestServer(t)

	recorder := do(t, engine, http.MethodPost, "/api/eggs", aliceToken,
		`[{"date":"2026-08-01","count":6},{"date":"2026-08-02","count":8}]`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var stored []models.EggEntry
	data(t, recorder, &stored)
	assert.Len(t, stored, 2)
}

func TestEggMixedBatchKeepsStoredOptional(t *testing.T) {
	engine := newTestServer(t)
	existingID := models.NewRecordID()

	seed := fmt.Sprintf(`{"id":%q,"date":"2026-08-01","count":10,"size":"large"}`, existingID)
	require.Equal(t, http.StatusOK,
		do(t, engine, http.MethodPost, "/api/eggs", aliceToken, seed).Code)

	// The batch mixes an update that omits size with a new record carrying
	// one; the existing row's size must survive.
	batch := fmt.Sprintf(`[{"id":%q,"date":"2026-08-01","count":11},
		{"date":"2026-08-02","count":5,"size":"small"}]`, existingID)
	recorder := do(t, engine, http.MethodPost, "/api/eggs", aliceToken, batch)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var stored []models.EggEntry
	data(t, recorder, &stored)
	require.Len(t, stored, 2)
	for _, entry := range stored {
		if entry.ID == existingID {
			assert.Equal(t, 11, entry.Count)
			assert.Equal(t, "large", entry.Size)
		} else {
			assert.Equal(t, "small", entry.Size)
		}
	}
}

func TestEggBatchRejectsDuplicateIDs(t *testing.T) {
	engine := newTestServer(t)
	id := models.NewRecordID()

	batch := fmt.Sprintf(`[{"id":%q,"date":"2026-08-01","count":5},
		{"id":%q,"date":"2026-08-01","count":6}]`, id, id)
	recorder := do(t, engine, http.MethodPost, "/api/eggs", aliceToken, batch)
	assert.Equal(t, http.StatusBadRequest, recorder.Code, recorder.Body.String())

	listed := do(t, engine, http.MethodGet, "/api/eggs", aliceToken, "")
	var remaining []models.EggEntry
	data(t, listed, &remaining)
	assert.Empty(t, remaining)
}

func TestEggValidation(t *testing.T) {
	engine := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest,
		do(t, engine, http.MethodPost, "/api/eggs", aliceToken, `{"count":6}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, engine, http.MethodPost, "/api/eggs", aliceToken, `{"date":"08/01/2026","count":6}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, engine, http.MethodPost, "/api/eggs", aliceToken, `{"date":"2026-08-01","count":-1}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, engine, http.MethodPost, "/api/eggs", aliceToken, `{"date":"2026-08-01"}`).Code)
}

func TestExpenseDeleteCrossTenantReads404(t *testing.T) {
	engine := newTestServer(t)

	recorder := do(t, engine, http.MethodPost, "/api/expenses", aliceToken,
		`{"category":"feed","amount":25.5,"date":"2026-08-01","description":"layer pellets"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var stored []models.Expense
	data(t, recorder, &stored)
	require.Len(t, stored, 1)

	deleted := do(t, engine, http.MethodDelete, "/api/expenses/"+stored[0].ID, bobToken, "")
	assert.Equal(t, http.StatusNotFound, deleted.Code)

	listed := do(t, engine, http.MethodGet, "/api/expenses", aliceToken, "")
	var remaining []models.Expense
	data(t, listed, &remaining)
	assert.Len(t, remaining, 1)
}

func TestFeedAcceptsQuotedNumbers(t *testing.T) {
	engine := newTestServer(t)

	recorder := do(t, engine, http.MethodPost, "/api/feed", aliceToken,
		`{"brand":"Layer Pellets","quantity":"25.5","unit":"kg","totalCost":"30","purchaseDate":"2026-08-01"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var stored []models.FeedEntry
	data(t, recorder, &stored)
	require.Len(t, stored, 1)
	assert.Equal(t, 25.5, stored[0].Quantity)
	assert.Equal(t, 30.0, stored[0].TotalCost)
}

func TestLowStockEndpoint(t *testing.T) {
	engine := newTestServer(t)

	body := `[{"brand":"Low Bag","quantity":4,"unit":"kg","totalCost":10,"purchaseDate":"2026-08-01"},
		{"brand":"Full Bag","quantity":40,"unit":"kg","totalCost":50,"purchaseDate":"2026-08-02"}]`
	require.Equal(t, http.StatusOK,
		do(t, engine, http.MethodPost, "/api/feed", aliceToken, body).Code)

	recorder := do(t, engine, http.MethodGet, "/api/feed/low-stock", aliceToken, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var result struct {
		Threshold float64            `json:"threshold"`
		Entries   []models.FeedEntry `json:"entries"`
	}
	data(t, recorder, &result)
	assert.Equal(t, 10.0, result.Threshold)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "Low Bag", result.Entries[0].Brand)
}

func TestSalesFlowAndSummary(t *testing.T) {
	engine := newTestServer(t)

	recorder := do(t, engine, http.MethodPost, "/api/customers", aliceToken,
		`{"name":"Neighbor Sam"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	var customer models.Customer
	data(t, recorder, &customer)

	paid := fmt.Sprintf(`{"customerId":%q,"date":"2026-08-01","dozenCount":2,"totalAmount":12}`, customer.ID)
	require.Equal(t, http.StatusCreated,
		do(t, engine, http.MethodPost, "/api/sales", aliceToken, paid).Code)

	gift := fmt.Sprintf(`{"customerId":%q,"date":"2026-08-02","individualCount":6,"totalAmount":0}`, customer.ID)
	require.Equal(t, http.StatusCreated,
		do(t, engine, http.MethodPost, "/api/sales", aliceToken, gift).Code)

	// Bob cannot sell to Alice's customer.
	foreign := fmt.Sprintf(`{"customerId":%q,"date":"2026-08-03","dozenCount":1,"totalAmount":6}`, customer.ID)
	assert.Equal(t, http.StatusNotFound,
		do(t, engine, http.MethodPost, "/api/sales", bobToken, foreign).Code)

	summary := do(t, engine, http.MethodGet, "/api/sales/summary", aliceToken, "")
	require.Equal(t, http.StatusOK, summary.Code)

	var result struct {
		TotalSales    int     `json:"totalSales"`
		TotalRevenue  float64 `json:"totalRevenue"`
		TotalEggsSold int     `json:"totalEggsSold"`
		FreeEggsGiven int     `json:"freeEggsGiven"`
		TopCustomer   string  `json:"topCustomer"`
	}
	data(t, summary, &result)
	assert.Equal(t, 2, result.TotalSales)
	assert.Equal(t, 12.0, result.TotalRevenue)
	assert.Equal(t, 24, result.TotalEggsSold)
	assert.Equal(t, 6, result.FreeEggsGiven)
	assert.Equal(t, "Neighbor Sam", result.TopCustomer)
}

func TestFlockProfileUpsertMergesFields(t *testing.T) {
	engine := newTestServer(t)

	recorder := do(t, engine, http.MethodPost, "/api/flock/profile", aliceToken,
		`{"farmName":"Sunrise Coop","hens":8,"breeds":["Leghorn","Australorp"]}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	// Second write touches only hens; the farm name must survive.
	recorder = do(t, engine, http.MethodPost, "/api/flock/profile", aliceToken, `{"hens":10}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var profile models.FlockProfile
	data(t, recorder, &profile)
	assert.Equal(t, 10, profile.Hens)
	assert.Equal(t, "Sunrise Coop", profile.FarmName)
	assert.Equal(t, []string{"Leghorn", "Australorp"}, profile.Breeds)

	// Each owner sees only their own profile.
	assert.Equal(t, http.StatusNotFound,
		do(t, engine, http.MethodGet, "/api/flock/profile", bobToken, "").Code)
}

func createBatch(t *testing.T, engine *gin.Engine, token, name string, hens int) models.FlockBatch {
	t.Helper()
	payload := fmt.Sprintf(`{"name":%q,"acquisitionDate":"2026-05-01","hens":%d}`, name, hens)
	recorder := do(t, engine, http.MethodPost, "/api/flock/batches", token, payload)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	var batch models.FlockBatch
	data(t, recorder, &batch)
	return batch
}

func TestBatchCreateDerivesInitialCount(t *testing.T) {
	engine := newTestServer(t)

	batch := createBatch(t, engine, aliceToken, "Spring Hatch", 8)
	assert.Equal(t, 8, batch.InitialCount)
	assert.Equal(t, 8, batch.CurrentCount)
	assert.True(t, batch.Active)

	duplicate := do(t, engine, http.MethodPost, "/api/flock/batches", aliceToken,
		`{"name":"Spring Hatch","acquisitionDate":"2026-06-01","hens":2}`)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
}

func TestDeathExceedingPopulationLeavesBatchUnchanged(t *testing.T) {
	engine := newTestServer(t)
	batch := createBatch(t, engine, aliceToken, "Spring Hatch", 5)

	recorder := do(t, engine, http.MethodPost, "/api/flock/batches/"+batch.ID+"/deaths",
		aliceToken, `{"date":"2026-08-10","count":6}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	listed := do(t, engine, http.MethodGet, "/api/flock/batches", aliceToken, "")
	var batches []models.FlockBatch
	data(t, listed, &batches)
	require.Len(t, batches, 1)
	assert.Equal(t, 5, batches[0].CurrentCount)

	ok := do(t, engine, http.MethodPost, "/api/flock/batches/"+batch.ID+"/deaths",
		aliceToken, `{"date":"2026-08-10","count":2,"cause":"predator"}`)
	require.Equal(t, http.StatusCreated, ok.Code)

	listed = do(t, engine, http.MethodGet, "/api/flock/batches", aliceToken, "")
	data(t, listed, &batches)
	require.Len(t, batches, 1)
	assert.Equal(t, 3, batches[0].CurrentCount)
}

func TestBatchEventPropagatesToFlockTimeline(t *testing.T) {
	engine := newTestServer(t)
	batch := createBatch(t, engine, aliceToken, "Spring Hatch", 8)

	payload := fmt.Sprintf(`{"batchId":%q,"date":"2026-08-01","type":"brooding_start","affectedCount":3}`, batch.ID)
	recorder := do(t, engine, http.MethodPost, "/api/batch-events", aliceToken, payload)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	var event models.BatchEvent
	data(t, recorder, &event)

	// The derived brooding count and the mirrored timeline entry both follow.
	listed := do(t, engine, http.MethodGet, "/api/flock/batches", aliceToken, "")
	var batches []models.FlockBatch
	data(t, listed, &batches)
	require.Len(t, batches, 1)
	assert.Equal(t, 3, batches[0].BroodingCount)

	timeline := do(t, engine, http.MethodGet, "/api/flock/events", aliceToken, "")
	var events []models.FlockEvent
	data(t, timeline, &events)
	require.Len(t, events, 1)
	assert.Equal(t, models.FlockEventBroody, events[0].Type)
	require.NotNil(t, events[0].BatchEventID)
	assert.Equal(t, event.ID, *events[0].BatchEventID)

	// Deleting the event unwinds both.
	deleted := do(t, engine, http.MethodDelete, "/api/batch-events/"+event.ID, aliceToken, "")
	require.Equal(t, http.StatusOK, deleted.Code)

	listed = do(t, engine, http.MethodGet, "/api/flock/batches", aliceToken, "")
	data(t, listed, &batches)
	assert.Equal(t, 0, batches[0].BroodingCount)

	timeline = do(t, engine, http.MethodGet, "/api/flock/events", aliceToken, "")
	data(t, timeline, &events)
	assert.Empty(t, events)
}

func TestBatchEventListRequiresBatchID(t *testing.T) {
	engine := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest,
		do(t, engine, http.MethodGet, "/api/batch-events", aliceToken, "").Code)

	batch := createBatch(t, engine, aliceToken, "Spring Hatch", 8)
	assert.Equal(t, http.StatusOK,
		do(t, engine, http.MethodGet, "/api/batch-events?batchId="+batch.ID, aliceToken, "").Code)
}

func TestBatchEventRejectsForeignBatch(t *testing.T) {
	engine := newTestServer(t)
	batch := createBatch(t, engine, aliceToken, "Spring Hatch", 8)

	payload := fmt.Sprintf(`{"batchId":%q,"date":"2026-08-01","type":"health_check"}`, batch.ID)
	assert.Equal(t, http.StatusNotFound,
		do(t, engine, http.MethodPost, "/api/batch-events", bobToken, payload).Code)

	assert.Equal(t, http.StatusBadRequest,
		do(t, engine, http.MethodPost, "/api/batch-events", aliceToken,
			fmt.Sprintf(`{"batchId":%q,"date":"2026-08-01","type":"hatching"}`, batch.ID)).Code)
}

func TestDirectFlockEvents(t *testing.T) {
	engine := newTestServer(t)

	recorder := do(t, engine, http.MethodPost, "/api/flock/events", aliceToken,
		`{"date":"2026-08-01","type":"other","description":"Coop cleaned"}`)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	var event models.FlockEvent
	data(t, recorder, &event)
	assert.Nil(t, event.BatchEventID)

	assert.Equal(t, http.StatusBadRequest,
		do(t, engine, http.MethodPost, "/api/flock/events", aliceToken,
			`{"date":"2026-08-01","type":"vaccination","description":"x"}`).Code)

	assert.Equal(t, http.StatusNotFound,
		do(t, engine, http.MethodDelete, "/api/flock/events/"+event.ID, bobToken, "").Code)
	assert.Equal(t, http.StatusOK,
		do(t, engine, http.MethodDelete, "/api/flock/events/"+event.ID, aliceToken, "").Code)
}

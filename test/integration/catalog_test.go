package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wookiebooks/catalog/internal/auth/password"
	"github.com/wookiebooks/catalog/internal/auth/service"
	"github.com/wookiebooks/catalog/internal/config"
	"github.com/wookiebooks/catalog/internal/handlers"
	"github.com/wookiebooks/catalog/internal/models"
	"github.com/wookiebooks/catalog/internal/repositories"
	"github.com/wookiebooks/catalog/internal/services"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	testDB     *sql.DB
	testRouter chi.Router
	testLogger *zap.Logger
)

// requireDB skips the test when no database is available
func requireDB(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	if testDB == nil {
		t.Skip("Skipping integration tests: test database unavailable")
	}
}

// cleanupTestData removes all rows written by the tests
func cleanupTestData(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, table := range []string{"books", "authors", "user_roles", "users"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err, "Failed to cleanup %s", table)
	}
}

// setupTestRouter creates a test router with all handlers
func setupTestRouter(db *sql.DB, cfg *config.Config, logger *zap.Logger) chi.Router {
	tokens := service.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	guard := service.NewGuard(tokens, nil, logger)

	userRepo := repositories.NewUserRepository(db, logger)
	bookRepo := repositories.NewBookRepository(db, logger)

	authService := services.NewAuthService(userRepo, password.NewHasher(bcrypt.MinCost), tokens, nil, logger)
	bookService := services.NewBookService(bookRepo, userRepo, guard, cfg.Books.OwnershipMode == config.OwnershipPersisted, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		handlers.NewUserHandler(authService, logger).RegisterRoutes(r)
		handlers.NewBookHandler(bookService, tokens, cfg.Books.RequiredRole, logger).RegisterRoutes(r)
	})
	return r
}

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	dsn := cfg.DSN()
	if dsn == "" {
		dsn = "root:password@tcp(localhost:3306)/wookiebooks_test?parseTime=true&charset=utf8mb4&multiStatements=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err == nil {
		err = db.Ping()
	}
	if err != nil {
		testLogger.Warn("test database unavailable, integration tests will be skipped", zap.Error(err))
		os.Exit(m.Run())
	}

	if err := migrateTestSchema(db); err != nil {
		panic(fmt.Sprintf("Failed to migrate test database: %v", err))
	}

	testDB = db
	testRouter = setupTestRouter(testDB, cfg, testLogger)

	code := m.Run()

	testDB.Close()
	os.Exit(code)
}

// migrateTestSchema applies the service migrations to the test database
func migrateTestSchema(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{MigrationsTable: "catalog_schema_migrations"})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "mysql", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func doJSON(t *testing.T, method, path, header string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	testRouter.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, username, name, pass string) models.LoginResponse {
	t.Helper()
	rec := doJSON(t, http.MethodPost, "/api/users/register", "", models.RegisterRequest{Username: username, Name: name, Password: pass})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, http.MethodPost, "/api/users/login", "", models.LoginRequest{Username: username, Password: pass})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	requireDB(t)
	defer cleanupTestData(t, testDB)

	tod := registerAndLogin(t, "tod", "Tod", "123456")
	assert.Equal(t, "Tod", tod.Name)
	assert.NotEmpty(t, tod.Token)

	tests := []struct {
		name          string
		path          string
		body          any
		expectedError string
	}{
		{
			name:          "duplicate registration",
			path:          "/api/users/register",
			body:          models.RegisterRequest{Username: "tod", Name: "Other", Password: "other"},
			expectedError: "username already exists",
		},
		{
			name:          "wrong password",
			path:          "/api/users/login",
			body:          models.LoginRequest{Username: "tod", Password: "wrong"},
			expectedError: "username or password is invalid",
		},
		{
			name:          "unknown user",
			path:          "/api/users/login",
			body:          models.LoginRequest{Username: "ghost", Password: "123456"},
			expectedError: "username does not exist",
		},
		{
			name:          "usernames are case sensitive",
			path:          "/api/users/login",
			body:          models.LoginRequest{Username: "TOD", Password: "123456"},
			expectedError: "username does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.expectedError, body["error"])
		})
	}
}

func TestIntegration_BookLifecycle(t *testing.T) {
	requireDB(t)
	defer cleanupTestData(t, testDB)

	tod := registerAndLogin(t, "tod", "Tod", "123456")
	chewie := registerAndLogin(t, "chewie", "Chewbacca", "rrwwgg")
	todHeader := service.BearerPrefix + tod.Token
	chewieHeader := service.BearerPrefix + chewie.Token

	// create
	published := true
	rec := doJSON(t, http.MethodPost, "/api/books", todHeader, models.BookRequest{
		AuthorID: tod.UserID, Title: "Shyriiwook for Beginners", Description: "Grammar", Price: 12.5, Published: &published,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.BookDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, tod.UserID, created.AuthorUserID)
	assert.True(t, created.Published)

	// another author cannot create on tod's behalf
	rec = doJSON(t, http.MethodPost, "/api/books", chewieHeader, models.BookRequest{AuthorID: tod.UserID, Title: "Forged", Price: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// search by author name
	rec = doJSON(t, http.MethodGet, "/api/books/search?authorName=To", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found []models.BookDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	// another author cannot see tod's book through unpublish
	rec = doJSON(t, http.MethodDelete, fmt.Sprintf("/api/books/unpublish/%d/%d", chewie.UserID, created.ID), chewieHeader, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// nor act as tod
	rec = doJSON(t, http.MethodDelete, fmt.Sprintf("/api/books/unpublish/%d/%d", tod.UserID, created.ID), chewieHeader, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unpublish by the owner hides it from the public list
	rec = doJSON(t, http.MethodDelete, fmt.Sprintf("/api/books/unpublish/%d/%d", tod.UserID, created.ID), todHeader, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, http.MethodGet, "/api/books", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var publicList []models.BookDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &publicList))
	assert.Empty(t, publicList)

	// the author still sees it
	rec = doJSON(t, http.MethodGet, fmt.Sprintf("/api/books/author/%d", tod.UserID), todHeader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var own []models.BookDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &own))
	require.Len(t, own, 1)
	assert.False(t, own[0].Published)

	// delete
	rec = doJSON(t, http.MethodDelete, fmt.Sprintf("/api/books/%d/%d", tod.UserID, created.ID), todHeader, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, http.MethodGet, fmt.Sprintf("/api/books/%d", created.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

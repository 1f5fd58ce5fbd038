package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"medibook-server/internal/config"
	"medibook-server/internal/models"
	"medibook-server/internal/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// apiResponse mirrors utils.ResponseData with a raw data payload.
type apiResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type authPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         struct {
		ID             string `json:"id"`
		Email          string `json:"email"`
		Name           string `json:"name"`
		Role           string `json:"role"`
		Specialization string `json:"specialization"`
	} `json:"user"`
}

type appointmentPayload struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	DoctorID    string    `json:"doctorId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Status      string    `json:"status"`
}

type testEnv struct {
	Router *gin.Engine
	DB     *gorm.DB
	Cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))

	cfg := &config.Config{
		JWTSecret:                 "test-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 168,
		UploadDir:                 t.TempDir(),
	}

	router := gin.New()
	routes.SetupRoutes(router, db, cfg)

	return &testEnv{Router: router, DB: db, Cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	resp := decodeResponse(t, rec)
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func (e *testEnv) registerPatient(t *testing.T, name, email, password string) authPayload {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register-patient", gin.H{
		"name": name, "email": email, "password": password,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payload authPayload
	decodeData(t, rec, &payload)
	return payload
}

func (e *testEnv) registerDoctor(t *testing.T, name, email, password, specialization string) authPayload {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register-doctor", gin.H{
		"name": name, "email": email, "password": password, "specialization": specialization,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payload authPayload
	decodeData(t, rec, &payload)
	return payload
}

func (e *testEnv) login(t *testing.T, email, password string) authPayload {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", gin.H{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload authPayload
	decodeData(t, rec, &payload)
	return payload
}

// createAdmin inserts an admin row directly; there is no admin registration
// endpoint.
func (e *testEnv) createAdmin(t *testing.T, email, password string) authPayload {
	t.Helper()
	admin := models.User{Name: "Admin", Email: email, Role: models.RoleAdmin}
	require.NoError(t, admin.SetPassword(password))
	require.NoError(t, e.DB.Create(&admin).Error)
	return e.login(t, email, password)
}

func (e *testEnv) bookAppointment(t *testing.T, token, doctorID string, at time.Time) appointmentPayload {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/appointments", gin.H{
		"doctorId": doctorID, "appointmentDate": at.Format(time.RFC3339),
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payload appointmentPayload
	decodeData(t, rec, &payload)
	return payload
}

func (e *testEnv) uploadRecord(t *testing.T, token, appointmentID, notes, filename, mimeType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("appointmentId", appointmentID))
	if notes != "" {
		require.NoError(t, w.WriteField("notes", notes))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/records", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"condo-whatsapp/internal/auth"
	"condo-whatsapp/internal/models"
	"condo-whatsapp/internal/notify"
	"condo-whatsapp/internal/webhook"
	"condo-whatsapp/internal/whatsapp"
	dto "condo-whatsapp/pkg/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type stubProvider struct {
	result whatsapp.Result
}

func (stubProvider) Name() string { return models.ProviderZAPI }

func (p stubProvider) SendText(context.Context, string, string) whatsapp.Result { return p.result }

func (p stubProvider) SendImage(context.Context, string, string, string) whatsapp.Result {
	return p.result
}

type env struct {
	db     *gorm.DB
	router *gin.Engine
}

func newEnv(t *testing.T, factory whatsapp.Factory) *env {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	seed := []interface{}{
		&models.Profile{ID: "u-porter", FullName: "Paulo"},
		&models.UserRole{UserID: "u-porter", Role: models.RolePorteiro},
		&models.Profile{ID: "u-sindico", FullName: "Carla"},
		&models.UserRole{UserID: "u-sindico", Role: models.RoleSindico},
		&models.Condominium{ID: "c1", Name: "Solar", SindicoID: "u-sindico"},
		&models.CondominiumPorter{UserID: "u-porter", CondominiumID: "c1"},
		&models.Block{ID: "b1", CondominiumID: "c1", Name: "B"},
		&models.Apartment{ID: "a1", BlockID: "b1", Number: "12"},
		&models.Resident{ID: "r1", ApartmentID: "a1", FullName: "Rita Lima", Phone: "11999990000"},
		&models.Package{ID: "p1", CondominiumID: "c1", ApartmentID: "a1", ReceivedAt: time.Now()},
		&models.WhatsAppConfig{Provider: models.ProviderZAPI, APIURL: "http://zapi", IsActive: true},
	}
	for _, v := range seed {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("seed %T: %v", v, err)
		}
	}

	svc := notify.NewService(db, factory, notify.Options{AppURL: "https://app", SendInterval: notify.NoPacing})
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterDeps{
		Notifications: NewNotificationHandler(svc),
		Webhook:       webhook.NewHandler(db, "verify", nil),
		Auth:          auth.NewAuthenticator(testSecret, db),
	})
	return &env{db: db, router: r}
}

func okFactory(res whatsapp.Result) whatsapp.Factory {
	return func(whatsapp.Credentials) (whatsapp.Provider, error) { return stubProvider{result: res}, nil }
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := auth.IssueToken(testSecret, userID, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (e *env) post(t *testing.T, path, userID string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		raw, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

const packagePath = "/functions/v1/notify-package-arrival"

func validPackage() dto.PackageArrivalRequest {
	return dto.PackageArrivalRequest{PackageID: "p1", ApartmentID: "a1", PickupCode: "9876"}
}

func TestNotifyPackageArrivalRoute(t *testing.T) {
	e := newEnv(t, okFactory(whatsapp.Result{Success: true, MessageID: "zapi-1"}))

	w, body := e.post(t, packagePath, "u-porter", validPackage())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if body["success"] != true || body["notifications_sent"] != float64(1) {
		t.Fatalf("unexpected body: %v", body)
	}

	var count int64
	e.db.Model(&models.WhatsAppNotificationLog{}).Where("message_id = ?", "zapi-1").Count(&count)
	if count != 1 {
		t.Fatalf("expected one log row, got %d", count)
	}
}

func TestRouteErrors(t *testing.T) {
	e := newEnv(t, okFactory(whatsapp.Result{Success: true, MessageID: "x"}))

	tests := []struct {
		name   string
		user   string
		body   interface{}
		status int
		code   string
	}{
		{"no token", "", validPackage(), http.StatusUnauthorized, "unauthorized"},
		{"unknown user", "ghost", validPackage(), http.StatusUnauthorized, "unauthorized"},
		{"bad json", "u-porter", "{", http.StatusBadRequest, CodeInvalidInput},
		{"missing fields", "u-porter", dto.PackageArrivalRequest{PackageID: "p1"}, http.StatusBadRequest, CodeInvalidInput},
		{"unknown package", "u-porter", dto.PackageArrivalRequest{PackageID: "zz", ApartmentID: "a1", PickupCode: "1"}, http.StatusNotFound, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := e.post(t, packagePath, tt.user, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if body["success"] != false || body["code"] != tt.code || body["error"] == "" {
				t.Fatalf("unexpected envelope: %v", body)
			}
		})
	}
}

func TestForbiddenRoute(t *testing.T) {
	e := newEnv(t, okFactory(whatsapp.Result{Success: true}))

	w, _ := e.post(t, "/functions/v1/send-whatsapp-notification", "u-porter", dto.OccurrenceNotificationRequest{OccurrenceID: "o1"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing occurrence: status = %d", w.Code)
	}

	e.db.Create(&models.Occurrence{ID: "o1", CondominiumID: "c1", ApartmentID: "a1", Title: "x"})
	w, body := e.post(t, "/functions/v1/send-whatsapp-notification", "u-porter", dto.OccurrenceNotificationRequest{OccurrenceID: "o1"})
	if w.Code != http.StatusForbidden || body["code"] != CodeForbidden {
		t.Fatalf("status = %d body = %v", w.Code, body)
	}
}

func TestInternalErrorIsGeneric(t *testing.T) {
	broken := func(whatsapp.Credentials) (whatsapp.Provider, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	e := newEnv(t, broken)

	w, body := e.post(t, packagePath, "u-porter", validPackage())
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if body["error"] != "Erro interno do servidor" || body["code"] != CodeInternal {
		t.Fatalf("internal detail leaked: %v", body)
	}
}

func TestTestConnectionRoute(t *testing.T) {
	e := newEnv(t, okFactory(whatsapp.Result{Error: "not connected", Code: whatsapp.CodeSessionDisconnected}))

	w, body := e.post(t, "/functions/v1/test-whatsapp-connection", "u-sindico", dto.TestConnectionRequest{Phone: "11999990000"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["success"] != false || body["error_code"] != whatsapp.CodeSessionDisconnected {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestWebhookRouteIsPublic(t *testing.T) {
	e := newEnv(t, okFactory(whatsapp.Result{Success: true}))
	w, body := e.post(t, "/webhook/whatsapp", "", map[string]interface{}{"ack": 2, "id": "unknown"})
	if w.Code != http.StatusOK || body["updated"] != float64(0) {
		t.Fatalf("status = %d body = %v", w.Code, body)
	}
}

func TestRecentLogsRoute(t *testing.T) {
	e := newEnv(t, okFactory(whatsapp.Result{Success: true, MessageID: "zapi-9"}))
	if w, _ := e.post(t, packagePath, "u-porter", validPackage()); w.Code != http.StatusOK {
		t.Fatalf("dispatch failed: %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/whatsapp/logs?condominium_id=c1", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "u-sindico"))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Success bool                             `json:"success"`
		Logs    []models.WhatsAppNotificationLog `json:"logs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Logs) != 1 || body.Logs[0].MessageID != "zapi-9" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

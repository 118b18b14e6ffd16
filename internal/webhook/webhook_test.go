package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"condo-whatsapp/internal/models"
	dto "condo-whatsapp/pkg/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []dto.StatusEvent
}

func (r *recordingNotifier) NotifyStatus(ev dto.StatusEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func setup(t *testing.T) (*gorm.DB, *gin.Engine, *recordingNotifier) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "webhook.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	n := &recordingNotifier{}
	h := NewHandler(db, "secret", n)
	h.Now = func() time.Time { return fixedNow }

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/webhook/whatsapp", h.VerifyWebhook)
	r.POST("/webhook/whatsapp", h.HandleStatus)
	return db, r, n
}

func post(t *testing.T, r http.Handler, body string) dto.WebhookResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp dto.WebhookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestWPPConnectAckRead(t *testing.T) {
	db, r, n := setup(t)
	db.Create(&models.WhatsAppNotificationLog{ID: "l1", MessageID: "true_5511@c.us_ABC", Status: models.StatusSent, Success: true})

	resp := post(t, r, `{"event":"onack","ack":3,"id":{"_serialized":"true_5511@c.us_ABC"}}`)
	if !resp.Success || resp.Updated != 1 || resp.Status != models.StatusRead {
		t.Fatalf("unexpected response: %+v", resp)
	}

	var row models.WhatsAppNotificationLog
	db.First(&row, "id = ?", "l1")
	if row.Status != models.StatusRead || row.ReadAt == nil || row.DeliveredAt == nil {
		t.Fatalf("read must stamp both timestamps: %+v", row)
	}
	if len(n.events) != 1 || n.events[0].Status != models.StatusRead {
		t.Fatalf("unexpected events: %+v", n.events)
	}
}

func TestWPPConnectAckFailed(t *testing.T) {
	db, r, _ := setup(t)
	db.Create(&models.PartyHallNotification{ID: "p1", MessageID: "m-failed", Status: models.StatusSent})

	resp := post(t, r, `{"ack":-1,"id":"m-failed"}`)
	if resp.Updated != 1 || resp.Status != models.StatusFailed {
		t.Fatalf("unexpected response: %+v", resp)
	}
	var row models.PartyHallNotification
	db.First(&row, "id = ?", "p1")
	if row.Status != models.StatusFailed || row.ReadAt != nil || row.DeliveredAt != nil {
		t.Fatalf("failed must not stamp timestamps: %+v", row)
	}
}

func TestUnknownMessageIDIsNoop(t *testing.T) {
	_, r, n := setup(t)
	resp := post(t, r, `{"messageId":"nobody","status":"DELIVERED"}`)
	if !resp.Success || resp.Updated != 0 || resp.Status != models.StatusDelivered {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(n.events) != 0 {
		t.Fatal("no event expected for an unmatched id")
	}
}

func TestDeliveredKeepsFirstTimestamp(t *testing.T) {
	db, r, _ := setup(t)
	earlier := fixedNow.Add(-time.Hour)
	db.Create(&models.NotificationSent{ID: "n1", MessageID: "evo-1", Status: models.StatusDelivered, DeliveredAt: &earlier})

	resp := post(t, r, `{"event":"messages.update","data":{"key":{"id":"evo-1"},"update":{"status":"READ"}}}`)
	if resp.Updated != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	var row models.NotificationSent
	db.First(&row, "id = ?", "n1")
	if row.DeliveredAt == nil || !row.DeliveredAt.Equal(earlier) {
		t.Fatalf("delivered_at must not move: %v", row.DeliveredAt)
	}
	if row.ReadAt == nil || !row.ReadAt.Equal(fixedNow) {
		t.Fatalf("read_at = %v", row.ReadAt)
	}
}

func TestLateStatusDoesNotRegress(t *testing.T) {
	db, r, n := setup(t)
	db.Create(&models.WhatsAppNotificationLog{ID: "l1", MessageID: "m1", Status: models.StatusSent, Success: true})

	if resp := post(t, r, `{"ack":3,"id":"m1"}`); resp.Updated != 1 {
		t.Fatalf("read not applied: %+v", resp)
	}
	for _, late := range []string{`{"ack":2,"id":"m1"}`, `{"ack":1,"id":"m1"}`, `{"ack":-1,"id":"m1"}`, `{"ack":0,"id":"m1"}`} {
		if resp := post(t, r, late); resp.Updated != 0 {
			t.Fatalf("%s changed %d rows", late, resp.Updated)
		}
	}

	var row models.WhatsAppNotificationLog
	db.First(&row, "id = ?", "l1")
	if row.Status != models.StatusRead || row.ReadAt == nil || row.DeliveredAt == nil {
		t.Fatalf("row regressed: %+v", row)
	}
	if len(n.events) != 1 {
		t.Fatalf("expected one event, got %d", len(n.events))
	}
}

func TestStatusPrecedence(t *testing.T) {
	tests := []struct {
		from, to string
		applied  bool
	}{
		{models.StatusPending, models.StatusSent, true},
		{models.StatusSent, models.StatusDelivered, true},
		{models.StatusSent, models.StatusFailed, true},
		{models.StatusFailed, models.StatusDelivered, true},
		{models.StatusDelivered, models.StatusRead, true},
		{models.StatusDelivered, models.StatusSent, false},
		{models.StatusDelivered, models.StatusFailed, false},
		{models.StatusRead, models.StatusDelivered, false},
		{models.StatusRead, models.StatusRead, false},
		{models.StatusSent, models.StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			db, _, _ := setup(t)
			db.Create(&models.NotificationSent{ID: "n1", MessageID: "m1", Status: tt.from})

			n, err := Apply(context.Background(), db, dto.StatusUpdate{MessageID: "m1", Status: tt.to}, fixedNow)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			want := tt.from
			if tt.applied {
				want = tt.to
			}
			var row models.NotificationSent
			db.First(&row, "id = ?", "n1")
			if (n == 1) != tt.applied || row.Status != want {
				t.Fatalf("updated=%d status=%s, want %s", n, row.Status, want)
			}
		})
	}
}

func TestUnrecognizedPayloadStill200(t *testing.T) {
	_, r, _ := setup(t)
	if resp := post(t, r, `{"hello":"world"}`); resp.Updated != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp := post(t, r, `not json`); resp.Updated != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestUnknownStatusIsNotWritten(t *testing.T) {
	db, r, _ := setup(t)
	db.Create(&models.WhatsAppNotificationLog{ID: "l1", MessageID: "z1", Status: models.StatusSent})

	resp := post(t, r, `{"id":"z1","status":"SOMETHING_NEW"}`)
	if resp.Updated != 0 || resp.Status != models.StatusUnknown {
		t.Fatalf("unexpected response: %+v", resp)
	}
	var row models.WhatsAppNotificationLog
	db.First(&row, "id = ?", "l1")
	if row.Status != models.StatusSent {
		t.Fatalf("status overwritten: %s", row.Status)
	}
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		provider string
		ids      []string
		status   string
	}{
		{"zpro", `{"messageId":"zp1","status":"sent"}`, models.ProviderZPro, []string{"zp1"}, models.StatusSent},
		{"zapi single", `{"id":"za1","status":"RECEIVED","type":"MessageStatusCallback"}`, models.ProviderZAPI, []string{"za1"}, models.StatusDelivered},
		{"zapi ids", `{"ids":["a","b"],"status":"READ"}`, models.ProviderZAPI, []string{"a", "b"}, models.StatusRead},
		{"evolution flat", `{"key":{"id":"e1"},"update":{"status":"DELIVERY_ACK"}}`, models.ProviderEvolution, []string{"e1"}, models.StatusDelivered},
		{"evolution numeric", `{"data":[{"key":{"id":"e2"},"status":4}]}`, models.ProviderEvolution, []string{"e2"}, models.StatusRead},
		{"wpp string ack", `{"ack":"2","id":"w1"}`, models.ProviderWPPConnect, []string{"w1"}, models.StatusDelivered},
		{"wpp pending", `{"ack":0,"id":"w2"}`, models.ProviderWPPConnect, []string{"w2"}, models.StatusPending},
		{"meta", `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.1","status":"delivered"}]}}]}]}`, models.ProviderMeta, []string{"wamid.1"}, models.StatusDelivered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.body))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(got) != len(tt.ids) {
				t.Fatalf("got %d updates, want %d", len(got), len(tt.ids))
			}
			for i, u := range got {
				if u.Provider != tt.provider || u.MessageID != tt.ids[i] || u.Status != tt.status {
					t.Fatalf("update %d = %+v", i, u)
				}
			}
		})
	}
}

func TestVerifyWebhook(t *testing.T) {
	_, r, _ := setup(t)

	tests := []struct {
		query  string
		status int
		body   string
	}{
		{"hub.mode=subscribe&hub.verify_token=secret&hub.challenge=42", http.StatusOK, "42"},
		{"hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=42", http.StatusForbidden, ""},
		{"", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/webhook/whatsapp?"+tt.query, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.status || (tt.body != "" && w.Body.String() != tt.body) {
			t.Fatalf("%q: status %d body %q", tt.query, w.Code, w.Body.String())
		}
	}
}

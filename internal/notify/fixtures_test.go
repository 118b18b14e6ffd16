package notify

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"condo-whatsapp/internal/auth"
	"condo-whatsapp/internal/models"
	"condo-whatsapp/internal/whatsapp"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

type sentMessage struct {
	Phone    string
	Body     string
	ImageURL string
	At       time.Time
}

// fakeProvider records calls and answers with canned results.
type fakeProvider struct {
	mu         sync.Mutex
	name       string
	textResult whatsapp.Result
	texts      []sentMessage
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) SendText(_ context.Context, phone, body string) whatsapp.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentMessage{Phone: phone, Body: body, At: time.Now()})
	return f.textResult
}

func (f *fakeProvider) SendImage(_ context.Context, phone, imageURL, caption string) whatsapp.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, sentMessage{Phone: phone, Body: caption, ImageURL: imageURL, At: time.Now()})
	return f.textResult
}

func (f *fakeProvider) sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.texts...)
}

// fakeTemplateProvider also relays templates.
type fakeTemplateProvider struct {
	*fakeProvider
	templateResult whatsapp.Result
	templates      []whatsapp.TemplateMessage
}

func (f *fakeTemplateProvider) SendTemplate(_ context.Context, _ string, tpl whatsapp.TemplateMessage) whatsapp.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates = append(f.templates, tpl)
	return f.templateResult
}

func factoryFor(p whatsapp.Provider) whatsapp.Factory {
	return func(whatsapp.Credentials) (whatsapp.Provider, error) { return p, nil }
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	provider *fakeProvider

	sindico  *auth.User
	porter   *auth.User
	resident *auth.User
	admin    *auth.User
	stranger *auth.User
}

const (
	condoID      = "condo-1"
	blockID      = "block-1"
	apartmentID  = "apt-101"
	packageID    = "pkg-1"
	occurrenceID = "occ-1"
	residentA    = "res-a"
	residentB    = "res-b"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notify.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newFixture seeds one condominium with an apartment holding two residents,
// only the first of them with a phone.
func newFixture(t *testing.T, provider whatsapp.Provider) *fixture {
	t.Helper()
	db := openTestDB(t)

	must := func(v interface{}) {
		t.Helper()
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("seed %T: %v", v, err)
		}
	}

	must(&models.Profile{ID: "u-sindico", FullName: "Carlos Síndico", Phone: "11988887777"})
	must(&models.Profile{ID: "u-porter", FullName: "Paulo Porteiro"})
	must(&models.Profile{ID: "u-resident", FullName: "Ana Souza"})
	must(&models.Profile{ID: "u-admin", FullName: "Root"})
	must(&models.Profile{ID: "u-stranger", FullName: "Zé"})
	must(&models.Condominium{ID: condoID, Name: "Residencial Jardim", SindicoID: "u-sindico"})
	must(&models.CondominiumPorter{UserID: "u-porter", CondominiumID: condoID})
	must(&models.Block{ID: blockID, CondominiumID: condoID, Name: "A"})
	must(&models.Apartment{ID: apartmentID, BlockID: blockID, Number: "101"})
	residentUser := "u-resident"
	must(&models.Resident{ID: residentA, ApartmentID: apartmentID, UserID: &residentUser, FullName: "Ana Souza", Phone: "(11) 99999-8888", CreatedAt: fixedNow})
	must(&models.Resident{ID: residentB, ApartmentID: apartmentID, FullName: "Bruno Souza", CreatedAt: fixedNow.Add(time.Minute)})
	must(&models.PackageType{ID: "pt-1", Name: "Caixa"})
	ptID, porterID := "pt-1", "u-porter"
	must(&models.Package{
		ID: packageID, CondominiumID: condoID, ApartmentID: apartmentID, PackageTypeID: &ptID,
		TrackingCode: "BR123", ReceivedBy: &porterID, ReceivedAt: fixedNow,
	})
	must(&models.Subscription{ID: "sub-1", CondominiumID: condoID, Status: "active", PackageNotificationsLimit: 100})
	fine := 150.0
	must(&models.Occurrence{
		ID: occurrenceID, CondominiumID: condoID, ApartmentID: apartmentID,
		Title: "Barulho após 22h", Description: "Som alto", Type: "multa", FineAmount: &fine,
	})
	must(&models.WhatsAppConfig{Provider: models.ProviderZPro, APIURL: "http://gateway", APIKey: "k", IsActive: true})

	var fp *fakeProvider
	switch p := provider.(type) {
	case *fakeProvider:
		fp = p
	case *fakeTemplateProvider:
		fp = p.fakeProvider
	}

	return &fixture{
		db:       db,
		svc:      NewService(db, factoryFor(provider), Options{AppURL: "https://app.example.com", SendInterval: NoPacing, Now: func() time.Time { return fixedNow }}),
		provider: fp,
		sindico:  &auth.User{ID: "u-sindico", Roles: []string{models.RoleSindico}},
		porter:   &auth.User{ID: "u-porter", Roles: []string{models.RolePorteiro}},
		resident: &auth.User{ID: "u-resident", Roles: []string{models.RoleMorador}},
		admin:    &auth.User{ID: "u-admin", Roles: []string{models.RoleSuperAdmin}},
		stranger: &auth.User{ID: "u-stranger", Roles: []string{models.RoleSindico}},
	}
}

func okText(id string) *fakeProvider {
	return &fakeProvider{name: models.ProviderZPro, textResult: whatsapp.Result{Success: true, MessageID: id}}
}

func (f *fixture) enableWaba(t *testing.T) {
	t.Helper()
	f.db.Model(&models.WhatsAppConfig{}).Where("1 = 1").Updates(map[string]interface{}{
		"use_official_api": true, "use_waba_templates": true,
	})
}

func (f *fixture) addTemplate(t *testing.T, tpl models.WhatsAppTemplate) {
	t.Helper()
	if tpl.WabaLanguage == "" {
		tpl.WabaLanguage = "pt_BR"
	}
	tpl.IsActive = true
	if err := f.db.Create(&tpl).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}
}

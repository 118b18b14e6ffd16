package whatsapp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"condo-whatsapp/internal/models"
)

const (
	ProviderZPro       = models.ProviderZPro
	ProviderZAPI       = models.ProviderZAPI
	ProviderEvolution  = models.ProviderEvolution
	ProviderWPPConnect = models.ProviderWPPConnect
	ProviderMeta       = models.ProviderMeta
)

var ErrUnknownProvider = errors.New("unknown whatsapp provider")

// Credentials are the connection settings of the active whatsapp_config row.
type Credentials struct {
	Provider       string
	APIURL         string
	APIKey         string
	InstanceID     string
	UseOfficialAPI bool
}

func CredentialsFrom(cfg models.WhatsAppConfig) Credentials {
	return Credentials{
		Provider:       cfg.Provider,
		APIURL:         cfg.APIURL,
		APIKey:         cfg.APIKey,
		InstanceID:     cfg.InstanceID,
		UseOfficialAPI: cfg.UseOfficialAPI,
	}
}

// Factory builds a Provider for a configuration row. The notify service takes
// one so tests can swap the vendors out.
type Factory func(Credentials) (Provider, error)

type constructor func(Credentials, *http.Client) Provider

var registry = map[string]constructor{
	ProviderZPro:       func(c Credentials, h *http.Client) Provider { return NewZProProvider(c, h) },
	ProviderZAPI:       func(c Credentials, h *http.Client) Provider { return NewZAPIProvider(c, h) },
	ProviderEvolution:  func(c Credentials, h *http.Client) Provider { return NewEvolutionProvider(c, h) },
	ProviderWPPConnect: func(c Credentials, h *http.Client) Provider { return NewWPPConnectProvider(c, h) },
	ProviderMeta:       func(c Credentials, h *http.Client) Provider { return NewMetaProvider(c, h) },
}

var aliases = map[string]string{
	"z-pro":         ProviderZPro,
	"atenderchat":   ProviderZPro,
	"zapi":          ProviderZAPI,
	"evolution-api": ProviderEvolution,
	"evolution_api": ProviderEvolution,
	"wpp":           ProviderWPPConnect,
	"official":      ProviderMeta,
	"cloud_api":     ProviderMeta,
}

// NormalizeProvider maps legacy spellings onto the canonical provider names.
func NormalizeProvider(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[n]; ok {
		return canonical
	}
	return n
}

// NewProvider returns the adapter for creds.Provider.
func NewProvider(creds Credentials, httpClient *http.Client) (Provider, error) {
	name := NormalizeProvider(creds.Provider)
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, creds.Provider)
	}
	return ctor(creds, httpClient), nil
}

// NewFactory binds NewProvider to a shared HTTP client.
func NewFactory(httpClient *http.Client) Factory {
	return func(c Credentials) (Provider, error) {
		return NewProvider(c, httpClient)
	}
}

// Templates returns the template sender of p when it can actually relay
// approved templates. Z-PRO only can in WABA mode.
func Templates(p Provider) (TemplateSender, bool) {
	ts, ok := p.(TemplateSender)
	if !ok {
		return nil, false
	}
	if z, ok := p.(*ZProProvider); ok && !z.WABA() {
		return nil, false
	}
	return ts, true
}

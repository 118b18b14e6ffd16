package whatsapp

import (
	"context"
	"net/http"
	"strings"
)

// DefaultZAPIURL is used when a Z-API config leaves api_url empty.
const DefaultZAPIURL = "https://api.z-api.io"

// ZAPIProvider posts to /instances/{id}/token/{key}/send-*.
type ZAPIProvider struct {
	client   *Client
	endpoint string
}

func NewZAPIProvider(creds Credentials, httpClient *http.Client) *ZAPIProvider {
	base := strings.TrimRight(creds.APIURL, "/")
	if base == "" {
		base = DefaultZAPIURL
	}
	return &ZAPIProvider{
		client:   newClient(httpClient, nil),
		endpoint: base + "/instances/" + creds.InstanceID + "/token/" + creds.APIKey,
	}
}

func (p *ZAPIProvider) Name() string { return ProviderZAPI }

func (p *ZAPIProvider) SendText(ctx context.Context, phone, body string) Result {
	return p.client.call(ctx, http.MethodPost, p.endpoint+"/send-text", map[string]interface{}{
		"phone":   FormatPhoneForWaba(phone),
		"message": body,
	}, zapiMessageID)
}

func (p *ZAPIProvider) SendImage(ctx context.Context, phone, imageURL, caption string) Result {
	return p.client.call(ctx, http.MethodPost, p.endpoint+"/send-image", map[string]interface{}{
		"phone":   FormatPhoneForWaba(phone),
		"image":   imageURL,
		"caption": caption,
	}, zapiMessageID)
}

func zapiMessageID(payload any) string {
	return firstString(payload, "messageId", "zaapId", "id")
}

// EvolutionProvider posts to /message/send*/{instance} with the apikey header.
type EvolutionProvider struct {
	client   *Client
	baseURL  string
	instance string
}

func NewEvolutionProvider(creds Credentials, httpClient *http.Client) *EvolutionProvider {
	return &EvolutionProvider{
		client:   newClient(httpClient, map[string]string{"apikey": creds.APIKey}),
		baseURL:  strings.TrimRight(creds.APIURL, "/"),
		instance: creds.InstanceID,
	}
}

func (p *EvolutionProvider) Name() string { return ProviderEvolution }

func (p *EvolutionProvider) SendText(ctx context.Context, phone, body string) Result {
	return p.client.call(ctx, http.MethodPost, p.baseURL+"/message/sendText/"+p.instance, map[string]interface{}{
		"number": FormatPhoneForWaba(phone),
		"text":   body,
	}, evolutionMessageID)
}

func (p *EvolutionProvider) SendImage(ctx context.Context, phone, imageURL, caption string) Result {
	return p.client.call(ctx, http.MethodPost, p.baseURL+"/message/sendMedia/"+p.instance, map[string]interface{}{
		"number":    FormatPhoneForWaba(phone),
		"mediatype": "image",
		"media":     imageURL,
		"caption":   caption,
	}, evolutionMessageID)
}

func evolutionMessageID(payload any) string {
	return firstString(payload, "key.id", "data.key.id", "messageId")
}

// WPPConnectProvider posts to /api/{session}/send-* with a bearer token.
type WPPConnectProvider struct {
	client  *Client
	baseURL string
	session string
}

func NewWPPConnectProvider(creds Credentials, httpClient *http.Client) *WPPConnectProvider {
	return &WPPConnectProvider{
		client:  newClient(httpClient, map[string]string{"Authorization": "Bearer " + creds.APIKey}),
		baseURL: strings.TrimRight(creds.APIURL, "/"),
		session: creds.InstanceID,
	}
}

func (p *WPPConnectProvider) Name() string { return ProviderWPPConnect }

func (p *WPPConnectProvider) SendText(ctx context.Context, phone, body string) Result {
	return p.client.call(ctx, http.MethodPost, p.baseURL+"/api/"+p.session+"/send-message", map[string]interface{}{
		"phone":   FormatPhoneForWaba(phone),
		"message": body,
		"isGroup": false,
	}, wppMessageID)
}

func (p *WPPConnectProvider) SendImage(ctx context.Context, phone, imageURL, caption string) Result {
	return p.client.call(ctx, http.MethodPost, p.baseURL+"/api/"+p.session+"/send-image", map[string]interface{}{
		"phone":   FormatPhoneForWaba(phone),
		"path":    imageURL,
		"caption": caption,
		"isGroup": false,
	}, wppMessageID)
}

func wppMessageID(payload any) string {
	return firstString(payload, "response.0.id", "response.id", "id")
}

package whatsapp

import (
	"context"
	"encoding/base64"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ZProProvider covers both Z-PRO (AtenderChat) modes. Legacy mode sends text
// through a GET with query parameters; WABA mode posts JSON with a bearer
// token and can relay approved templates.
type ZProProvider struct {
	client  *Client
	baseURL string
	token   string
	waba    bool
}

func NewZProProvider(creds Credentials, httpClient *http.Client) *ZProProvider {
	p := &ZProProvider{
		baseURL: strings.TrimRight(creds.APIURL, "/"),
		token:   creds.APIKey,
		waba:    creds.UseOfficialAPI,
	}
	headers := map[string]string{}
	if p.waba {
		headers["Authorization"] = "Bearer " + creds.APIKey
	}
	p.client = newClient(httpClient, headers)
	return p
}

func (p *ZProProvider) Name() string { return ProviderZPro }

// WABA reports whether the provider runs in WABA mode.
func (p *ZProProvider) WABA() bool { return p.waba }

func (p *ZProProvider) SendText(ctx context.Context, phone, body string) Result {
	number := FormatPhoneForWaba(phone)
	if p.waba {
		return p.client.call(ctx, http.MethodPost, p.baseURL+"/SendMessageAPIText", map[string]interface{}{
			"number":      number,
			"body":        body,
			"externalKey": uuid.NewString(),
			"isClosed":    false,
		}, zproMessageID)
	}

	q := url.Values{}
	q.Set("body", body)
	q.Set("number", number)
	q.Set("externalKey", uuid.NewString())
	q.Set("bearertoken", p.token)
	q.Set("isClosed", "false")
	return p.client.call(ctx, http.MethodGet, p.baseURL+"/params/?"+q.Encode(), nil, zproMessageID)
}

// SendImage in WABA mode downloads the image and posts it as base64. Legacy
// mode has no media endpoint, so the link is appended to the caption.
func (p *ZProProvider) SendImage(ctx context.Context, phone, imageURL, caption string) Result {
	if !p.waba {
		body := strings.TrimSpace(caption + "\n" + imageURL)
		return p.SendText(ctx, phone, body)
	}

	data, contentType, err := p.client.fetch(ctx, imageURL)
	if err != nil {
		return networkFailure(err)
	}
	mimeType, _, _ := mime.ParseMediaType(contentType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	fileName := path.Base(strings.SplitN(imageURL, "?", 2)[0])
	if fileName == "" || fileName == "/" || fileName == "." {
		fileName = "image.jpg"
	}

	return p.client.call(ctx, http.MethodPost, p.baseURL+"/SendMediaAPIBase64", map[string]interface{}{
		"number":      FormatPhoneForWaba(phone),
		"base64":      base64.StdEncoding.EncodeToString(data),
		"fileName":    fileName,
		"mimeType":    mimeType,
		"caption":     caption,
		"externalKey": uuid.NewString(),
		"isClosed":    false,
	}, zproMessageID)
}

func (p *ZProProvider) SendTemplate(ctx context.Context, phone string, tpl TemplateMessage) Result {
	if !p.waba {
		return notSupported("z-pro legacy", "templates")
	}
	number := FormatPhoneForWaba(phone)
	return sendTemplateWithRetry(tpl, func(components []ComponentObj) Result {
		return p.client.call(ctx, http.MethodPost, p.baseURL+"/templateBody", map[string]interface{}{
			"number":       number,
			"externalKey":  uuid.NewString(),
			"isClosed":     false,
			"templateName": tpl.Name,
			"languageCode": tpl.languageCode(),
			"components":   components,
		}, zproMessageID)
	})
}

func zproMessageID(payload any) string {
	return firstString(payload, "messageId", "data.messageId", "data.id", "message.id", "key.id", "id")
}

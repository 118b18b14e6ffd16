package whatsapp

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// DefaultGraphURL is the Meta Cloud API base used when no api_url is configured.
const DefaultGraphURL = "https://graph.facebook.com/v20.0"

// --- Message Structures ---

type GenericMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	RecipientType    string       `json:"recipient_type,omitempty"`
	Text             *TextObj     `json:"text,omitempty"`
	Image            *MediaObj    `json:"image,omitempty"`
	Template         *TemplateObj `json:"template,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewUrl bool   `json:"preview_url,omitempty"`
}

type MediaObj struct {
	ID      string `json:"id,omitempty"`
	Link    string `json:"link,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type TemplateObj struct {
	Name       string         `json:"name"`
	Language   LanguageObj    `json:"language"`
	Components []ComponentObj `json:"components,omitempty"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

type ComponentObj struct {
	Type       string         `json:"type"`
	SubType    string         `json:"sub_type,omitempty"`
	Parameters []ParameterObj `json:"parameters"`
	Index      string         `json:"index,omitempty"` // For buttons
}

type ParameterObj struct {
	Type          string    `json:"type"`
	ParameterName string    `json:"parameter_name,omitempty"`
	Text          string    `json:"text,omitempty"`
	Payload       string    `json:"payload,omitempty"`
	Image         *MediaObj `json:"image,omitempty"`
}

// TemplateMessage describes one send of an approved template. Params are
// positional; ParamNames, when set, echoes each name for templates created
// with named parameters.
type TemplateMessage struct {
	Name           string
	Language       string
	Params         []string
	ParamNames     []string
	HeaderImageURL string
	Buttons        []TemplateButton
}

// TemplateButton fills the dynamic part of a URL or quick reply button.
type TemplateButton struct {
	SubType string `json:"sub_type"`
	Index   int    `json:"index"`
	Param   string `json:"param"`
}

// Components renders the template components. withHeader=false drops the
// header image, used by the single retry after an embedded 400.
func (t TemplateMessage) Components(withHeader bool) []ComponentObj {
	var out []ComponentObj
	if withHeader && t.HeaderImageURL != "" {
		out = append(out, ComponentObj{
			Type:       "header",
			Parameters: []ParameterObj{{Type: "image", Image: &MediaObj{Link: t.HeaderImageURL}}},
		})
	}
	if len(t.Params) > 0 {
		params := make([]ParameterObj, len(t.Params))
		for i, v := range t.Params {
			params[i] = ParameterObj{Type: "text", Text: v}
			if i < len(t.ParamNames) {
				params[i].ParameterName = t.ParamNames[i]
			}
		}
		out = append(out, ComponentObj{Type: "body", Parameters: params})
	}
	for _, b := range t.Buttons {
		sub := strings.ToLower(b.SubType)
		if sub == "" {
			sub = "url"
		}
		p := ParameterObj{Type: "text", Text: b.Param}
		if sub == "quick_reply" {
			p = ParameterObj{Type: "payload", Payload: b.Param}
		}
		out = append(out, ComponentObj{
			Type:       "button",
			SubType:    sub,
			Index:      strconv.Itoa(b.Index),
			Parameters: []ParameterObj{p},
		})
	}
	return out
}

func (t TemplateMessage) languageCode() string {
	if t.Language == "" {
		return "pt_BR"
	}
	return t.Language
}

// sendTemplateWithRetry posts the template and, on the embedded 400 quirk,
// retries exactly once without the header image.
func sendTemplateWithRetry(tpl TemplateMessage, post func(components []ComponentObj) Result) Result {
	res := post(tpl.Components(true))
	if tpl.HeaderImageURL != "" && isEmbedded400(res) {
		res = post(tpl.Components(false))
	}
	return res
}

// MetaProvider talks to the official Cloud API.
type MetaProvider struct {
	client        *Client
	baseURL       string
	phoneNumberID string
}

func NewMetaProvider(creds Credentials, httpClient *http.Client) *MetaProvider {
	base := strings.TrimRight(creds.APIURL, "/")
	if base == "" {
		base = DefaultGraphURL
	}
	return &MetaProvider{
		client:        newClient(httpClient, map[string]string{"Authorization": "Bearer " + creds.APIKey}),
		baseURL:       base,
		phoneNumberID: creds.InstanceID,
	}
}

func (p *MetaProvider) Name() string { return ProviderMeta }

func (p *MetaProvider) SendText(ctx context.Context, phone, body string) Result {
	return p.send(ctx, GenericMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               FormatPhoneForMeta(phone),
		Type:             "text",
		Text:             &TextObj{Body: body},
	})
}

func (p *MetaProvider) SendImage(ctx context.Context, phone, imageURL, caption string) Result {
	return p.send(ctx, GenericMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               FormatPhoneForMeta(phone),
		Type:             "image",
		Image:            &MediaObj{Link: imageURL, Caption: caption},
	})
}

func (p *MetaProvider) SendTemplate(ctx context.Context, phone string, tpl TemplateMessage) Result {
	to := FormatPhoneForMeta(phone)
	return sendTemplateWithRetry(tpl, func(components []ComponentObj) Result {
		return p.send(ctx, GenericMessage{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               to,
			Type:             "template",
			Template: &TemplateObj{
				Name:       tpl.Name,
				Language:   LanguageObj{Code: tpl.languageCode()},
				Components: components,
			},
		})
	})
}

func (p *MetaProvider) send(ctx context.Context, msg GenericMessage) Result {
	url := p.baseURL + "/" + p.phoneNumberID + "/messages"
	return p.client.call(ctx, http.MethodPost, url, msg, metaMessageID)
}

func metaMessageID(payload any) string {
	return firstString(payload, "messages.0.id")
}

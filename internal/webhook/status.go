// Package webhook receives delivery status callbacks from every supported
// gateway and stamps them onto the notification logs.
package webhook

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"condo-whatsapp/internal/models"
	dto "condo-whatsapp/pkg/models"
)

var errUnrecognized = errors.New("unrecognized webhook payload")

// Parse extracts the status updates carried by a webhook body. The shape is
// recognised by its distinguishing fields: Meta entry[], WPPConnect ack,
// Evolution key.id, Z-PRO messageId and Z-API id/ids.
func Parse(body []byte) ([]dto.StatusUpdate, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	if _, ok := payload["entry"]; ok {
		return parseMeta(body)
	}

	// Evolution wraps the event in data, sometimes as a list.
	if data, ok := payload["data"]; ok {
		switch d := data.(type) {
		case []interface{}:
			var out []dto.StatusUpdate
			for _, item := range d {
				if m, ok := item.(map[string]interface{}); ok {
					if u, ok := parseFlat(m); ok {
						out = append(out, u...)
					}
				}
			}
			if len(out) > 0 {
				return out, nil
			}
		case map[string]interface{}:
			if u, ok := parseFlat(d); ok {
				return u, nil
			}
		}
	}

	if u, ok := parseFlat(payload); ok {
		return u, nil
	}
	return nil, errUnrecognized
}

func parseFlat(m map[string]interface{}) ([]dto.StatusUpdate, bool) {
	if ack, ok := m["ack"]; ok {
		id := idString(m["id"])
		if id == "" {
			id = idString(m["messageId"])
		}
		if id == "" {
			return nil, false
		}
		raw := rawStatus(ack)
		return []dto.StatusUpdate{{
			Provider:  models.ProviderWPPConnect,
			MessageID: id,
			RawStatus: raw,
			Status:    NormalizeAck(ack),
		}}, true
	}

	if key, ok := m["key"].(map[string]interface{}); ok {
		id := idString(key["id"])
		if id == "" {
			return nil, false
		}
		raw := ""
		if upd, ok := m["update"].(map[string]interface{}); ok {
			raw = rawStatus(upd["status"])
		}
		if raw == "" {
			raw = rawStatus(m["status"])
		}
		return []dto.StatusUpdate{update(models.ProviderEvolution, id, raw)}, true
	}

	if id := idString(m["messageId"]); id != "" {
		return []dto.StatusUpdate{update(models.ProviderZPro, id, rawStatus(m["status"]))}, true
	}

	if ids, ok := m["ids"].([]interface{}); ok && len(ids) > 0 {
		raw := rawStatus(m["status"])
		out := make([]dto.StatusUpdate, 0, len(ids))
		for _, v := range ids {
			if id := idString(v); id != "" {
				out = append(out, update(models.ProviderZAPI, id, raw))
			}
		}
		return out, len(out) > 0
	}

	if id := idString(m["id"]); id != "" {
		if _, ok := m["status"]; ok {
			return []dto.StatusUpdate{update(models.ProviderZAPI, id, rawStatus(m["status"]))}, true
		}
	}
	return nil, false
}

func parseMeta(body []byte) ([]dto.StatusUpdate, error) {
	var p dto.MetaWebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, err
	}
	var out []dto.StatusUpdate
	for _, e := range p.Entry {
		for _, ch := range e.Changes {
			for _, st := range ch.Value.Statuses {
				if st.ID != "" {
					out = append(out, update(models.ProviderMeta, st.ID, st.Status))
				}
			}
		}
	}
	return out, nil
}

func update(provider, id, raw string) dto.StatusUpdate {
	return dto.StatusUpdate{Provider: provider, MessageID: id, RawStatus: raw, Status: Normalize(raw)}
}

var statusAliases = map[string]string{
	"sent":         models.StatusSent,
	"server_ack":   models.StatusSent,
	"serverack":    models.StatusSent,
	"enviado":      models.StatusSent,
	"enviada":      models.StatusSent,
	"delivered":    models.StatusDelivered,
	"delivery_ack": models.StatusDelivered,
	"deliveryack":  models.StatusDelivered,
	"received":     models.StatusDelivered,
	"entregue":     models.StatusDelivered,
	"read":         models.StatusRead,
	"read_ack":     models.StatusRead,
	"readack":      models.StatusRead,
	"viewed":       models.StatusRead,
	"played":       models.StatusRead,
	"lido":         models.StatusRead,
	"lida":         models.StatusRead,
	"failed":       models.StatusFailed,
	"error":        models.StatusFailed,
	"undelivered":  models.StatusFailed,
	"falha":        models.StatusFailed,
	"pending":      models.StatusPending,
	"queued":       models.StatusPending,
	"pendente":     models.StatusPending,
}

// Normalize maps a vendor status word, or a numeric ack, to one of the
// stored statuses.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if st, ok := statusAliases[s]; ok {
		return st
	}
	if n, err := strconv.Atoi(s); err == nil {
		return ackStatus(n)
	}
	return models.StatusUnknown
}

// NormalizeAck maps a WPPConnect ack (number or string).
func NormalizeAck(ack interface{}) string {
	switch v := ack.(type) {
	case float64:
		return ackStatus(int(v))
	case string:
		return Normalize(v)
	}
	return models.StatusUnknown
}

func ackStatus(n int) string {
	switch {
	case n < 0:
		return models.StatusFailed
	case n == 0:
		return models.StatusPending
	case n == 1:
		return models.StatusSent
	case n == 2:
		return models.StatusDelivered
	default:
		return models.StatusRead
	}
}

func rawStatus(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.Itoa(int(t))
	}
	return ""
}

// idString accepts a plain id or the {_serialized} / {id} objects some
// gateways send.
func idString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		if s := idString(t["_serialized"]); s != "" {
			return s
		}
		return idString(t["id"])
	}
	return ""
}

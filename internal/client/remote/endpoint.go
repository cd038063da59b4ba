package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/nutrisync/internal/client/models"
)

// Item is one entity returned by a list call. OwnerID and CreatedAt are
// empty when the server leaves out userId or createdAt.
type Item[T models.Payload] struct {
	ServerID  string
	OwnerID   string
	CreatedAt time.Time
	Payload   T
}

// itemMeta holds the entity fields that are not part of the payload.
type itemMeta struct {
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
}

// Endpoint is the typed view of one REST resource.
type Endpoint[T models.Payload] struct {
	c        *Client
	resource string
}

// NewEndpoint binds the resource of T's kind to c.
func NewEndpoint[T models.Payload](c *Client) *Endpoint[T] {
	var zero T
	return &Endpoint[T]{c: c, resource: zero.Kind().Resource()}
}

func (e *Endpoint[T]) collection() string { return "/api/" + e.resource }

func (e *Endpoint[T]) member(serverID string) string {
	return e.collection() + "/" + url.PathEscape(serverID)
}

// Create posts p on behalf of ownerID and returns the id the server assigned.
// localID travels as clientId and as the Idempotency-Key header so a retried
// create can be recognised by the server.
func (e *Endpoint[T]) Create(ctx context.Context, ownerID, localID string, p T) (string, error) {
	body, err := requestBody(p, ownerID, localID)
	if err != nil {
		return "", err
	}
	data, err := e.c.do(ctx, http.MethodPost, e.collection(), body, localID)
	if err != nil {
		return "", err
	}
	id, err := entityID(data)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", e.collection(), err)
	}
	return id, nil
}

// Update replaces the server copy identified by serverID.
func (e *Endpoint[T]) Update(ctx context.Context, ownerID, serverID string, p T) error {
	body, err := requestBody(p, ownerID, "")
	if err != nil {
		return err
	}
	_, err = e.c.do(ctx, http.MethodPut, e.member(serverID), body, "")
	return err
}

func (e *Endpoint[T]) Delete(ctx context.Context, serverID string) error {
	_, err := e.c.do(ctx, http.MethodDelete, e.member(serverID), nil, "")
	return err
}

// List fetches every record the server holds for ownerID. Entries without an
// id are skipped.
func (e *Endpoint[T]) List(ctx context.Context, ownerID string) ([]Item[T], error) {
	path := e.collection() + "?" + url.Values{"userId": {ownerID}}.Encode()
	data, err := e.c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrMalformed, e.collection(), err)
	}

	items := make([]Item[T], 0, len(raws))
	for _, raw := range raws {
		id, err := entityID(raw)
		if err != nil {
			continue
		}
		var it Item[T]
		if err := json.Unmarshal(raw, &it.Payload); err != nil {
			return nil, fmt.Errorf("%w: GET %s: %w", ErrMalformed, e.collection(), err)
		}
		var meta itemMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("%w: GET %s: %w", ErrMalformed, e.collection(), err)
		}
		it.ServerID, it.OwnerID = id, meta.UserID
		if meta.CreatedAt != "" {
			created, err := time.Parse(time.RFC3339Nano, meta.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("%w: GET %s: createdAt: %w", ErrMalformed, e.collection(), err)
			}
			it.CreatedAt = created.UTC()
		}
		items = append(items, it)
	}
	return items, nil
}

// requestBody flattens p and adds the owner and client ids.
func requestBody(p any, ownerID, localID string) (map[string]any, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	body := map[string]any{}
	if err := json.Unmarshal(b, &body); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	body["userId"] = ownerID
	if localID != "" {
		body["clientId"] = localID
	}
	return body, nil
}

// entityID pulls "id" (or "_id") out of an entity. Numeric ids are accepted
// and rendered in decimal.
func entityID(data json.RawMessage) (string, error) {
	var fields struct {
		ID    any `json:"id"`
		Mongo any `json:"_id"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	for _, v := range []any{fields.ID, fields.Mongo} {
		switch id := v.(type) {
		case string:
			if id != "" {
				return id, nil
			}
		case float64:
			return strconv.FormatFloat(id, 'f', -1, 64), nil
		}
	}
	return "", fmt.Errorf("%w: entity has no id", ErrMalformed)
}

// Package blob stores idea content payloads and media files by key.
package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
)

// Object is a stored blob with its content type.
type Object struct {
	Body        []byte
	ContentType string
}

// Store is a key-addressed object store. Get returns (nil, nil) for a
// missing key. Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// DataKey is where an idea's content payload lives.
func DataKey(ideaID string) string {
	return path.Join("ideas", ideaID, "data.json")
}

// MediaKey is where one of an idea's media files lives.
func MediaKey(ideaID, mediaID, filename string) string {
	return path.Join("ideas", ideaID, "media", mediaID+"_"+path.Base(filename))
}

// PutJSON serializes v and stores it as application/json.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Put(ctx, key, body, "application/json")
}

// GetJSON loads key into v. It reports false when the key does not exist.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	obj, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if obj == nil {
		return false, nil
	}
	if err := json.Unmarshal(obj.Body, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

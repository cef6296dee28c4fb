package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
	"github.com/systmms/helm-values-manager/pkg/backend"
)

// Value is the single access point for one (path, deployment) pair. It is
// bound to exactly one backend at creation: the deployment's secret backend
// when the owning path is sensitive, the shared simple backend otherwise.
// The binding is a strict function of (sensitivity, deployment backend) and
// cannot be overridden per value.
type Value struct {
	path       string
	deployment string
	sensitive  bool

	// refType is the backend type recorded in reference strings. It is
	// known even when the backend instance itself has not been built yet
	// (values restored from persisted references bind lazily).
	refType string
	backend backend.Backend
}

func newValue(path, deployment string, sensitive bool, b backend.Backend) *Value {
	return &Value{
		path:       path,
		deployment: deployment,
		sensitive:  sensitive,
		refType:    b.Type(),
		backend:    b,
	}
}

// storageKey derives the backend key for a (path, deployment) pair. ':' is
// excluded from both path segments and deployment names, so keys cannot
// collide across the store.
func storageKey(path, deployment string) string {
	return path + ":" + deployment
}

// key returns the value's backend storage key.
func (v *Value) key() string {
	return storageKey(v.path, v.deployment)
}

// Reference returns the persisted form of a sensitive value:
// secret://<backend-type>/<key>. The reference carries no secret content and
// is safe to display.
func (v *Value) Reference() string {
	return fmt.Sprintf("secret://%s/%s", v.refType, v.key())
}

// parseReference splits a secret reference into backend type and key.
func parseReference(ref string) (backendType, key string, err error) {
	rest, ok := strings.CutPrefix(ref, "secret://")
	if !ok {
		return "", "", hvmerrors.ErrInvalidSecretReference
	}
	backendType, key, ok = strings.Cut(rest, "/")
	if !ok || backendType == "" || key == "" {
		return "", "", hvmerrors.ErrInvalidSecretReference
	}
	return backendType, key, nil
}

// Get resolves the value through its backend. For non-sensitive values the
// stored scalar comes back with its JSON type intact; sensitive values
// resolve to the string form the secret backend holds.
func (v *Value) Get(ctx context.Context) (any, error) {
	raw, err := v.backend.GetValue(ctx, v.key())
	if err != nil {
		return nil, err
	}
	if v.sensitive {
		return raw, nil
	}
	return decodeScalar(raw)
}

// Set validates and stores raw through the value's backend.
func (v *Value) Set(ctx context.Context, raw any) error {
	if err := ensureScalar(raw); err != nil {
		return err
	}
	var encoded string
	var err error
	if v.sensitive {
		encoded = scalarString(raw)
	} else {
		encoded, err = encodeScalar(raw)
		if err != nil {
			return err
		}
	}
	return v.backend.SetValue(ctx, v.key(), encoded)
}

// Remove deletes the stored value from the backend.
func (v *Value) Remove(ctx context.Context) error {
	return v.backend.RemoveValue(ctx, v.key())
}

// ensureScalar rejects anything that is not representable as a JSON scalar.
func ensureScalar(raw any) error {
	switch raw.(type) {
	case nil, string, bool, json.Number, float64, float32, int, int32, int64:
		return nil
	}
	return hvmerrors.ErrInvalidValueType
}

// encodeScalar turns a scalar into its JSON encoding for storage. The simple
// backend stores encoded text so numbers and booleans survive round trips
// with their types.
func encodeScalar(raw any) (string, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return "", hvmerrors.ErrInvalidValueType
	}
	return string(data), nil
}

// decodeScalar reverses encodeScalar, keeping numbers as json.Number.
func decodeScalar(encoded string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(encoded))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("stored value is not a JSON scalar: %w", err)
	}
	return out, nil
}

// scalarString renders a scalar in the string form secret backends store.
// Strings pass through untouched; everything else uses its JSON encoding.
func scalarString(raw any) string {
	if s, ok := raw.(string); ok {
		return s
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	return string(data)
}

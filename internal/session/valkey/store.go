package sessionvalkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/valkey-io/valkey-go"
)

// errMiss marks a key that is simply absent, as opposed to a transport
// or decoding failure.
var errMiss = errors.New("key not present")

type store struct {
	valkey valkey.Client
	prefix string
}

func newStore(valkeyClient valkey.Client, prefix string) *store {
	prefix = strings.TrimSuffix(prefix, ":")
	return &store{
		valkey: valkeyClient,
		prefix: prefix,
	}
}

func (s *store) Get(ctx context.Context, objectType, objectID string, decodeInto any) error {
	key := s.key(objectType, objectID)

	bytes, err := s.valkey.Do(ctx, s.valkey.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		valkeyErr, ok := valkey.IsValkeyErr(err)
		if ok && valkeyErr.IsNil() {
			return errMiss
		}

		return fmt.Errorf("executing get command: %w", err)
	}

	// a stored null is an absent value, not a zero one
	if string(bytes) == "null" {
		return errMiss
	}

	if err := json.Unmarshal(bytes, decodeInto); err != nil {
		return fmt.Errorf("decoding stored object: %w", err)
	}

	return nil
}

func (s *store) Set(ctx context.Context, objectType, id string, val any) error {
	key := s.key(objectType, id)
	bytes, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encoding data: %w", err)
	}

	if err := s.valkey.Do(ctx, s.valkey.B().Set().Key(key).Value(valkey.BinaryString(bytes)).Build()).Error(); err != nil {
		return fmt.Errorf("executing set command: %w", err)
	}

	return nil
}

func (s *store) Destroy(ctx context.Context, objectType, id string) error {
	key := s.key(objectType, id)
	if err := s.valkey.Do(ctx, s.valkey.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}

	return nil
}

func (s *store) key(objectType string, objectID string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, objectType, objectID)
}

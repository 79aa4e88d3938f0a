package sortv1

import (
	"encoding/json"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
)

// Codec marshals the plain Go messages of this package as JSON. It takes
// the "json" name so the handler serves application/json and
// application/connect+json.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return errors.Wrap(err, "invalid json message")
	}
	return nil
}

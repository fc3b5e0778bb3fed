package docstore

import (
	"encoding/json"
	"time"

	"diary-backend/application/ports"
	pkgerrors "diary-backend/pkg/errors"
)

// encode turns a JSON-tagged struct into document fields, dropping the id
// attribute since document ids live outside the body.
func encode(v interface{}) (ports.Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode document").WithCause(err)
	}
	var fields ports.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode document").WithCause(err)
	}
	delete(fields, "id")
	return fields, nil
}

// decode fills a JSON-tagged struct from document fields.
func decode(fields ports.Fields, v interface{}) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// jsonValue converts a Go value into its JSON-compatible form.
func jsonValue(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode field").WithCause(err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, pkgerrors.NewInternalError("failed to encode field").WithCause(err)
	}
	return out, nil
}

// timestamp renders t the way encoding/json renders time.Time.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

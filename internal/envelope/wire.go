package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	kerrors "github.com/fieldseal/fieldseal/internal/errors"
)

// wireRecord is the stable, versionless storage encoding of an envelope.
// The persistence layer stores and returns it verbatim; it never inspects,
// indexes, or partially updates the fields.
type wireRecord struct {
	Ciphertext  string    `json:"ciphertext"`
	IV          string    `json:"iv"`
	WrappedKeys []wireKey `json:"wrapped_keys"`
}

type wireKey struct {
	Recipient string `json:"recipient"`
	Key       string `json:"key"`
}

// MarshalWire encodes the envelope as its JSON wire record.
func (e *EncryptedField) MarshalWire() ([]byte, error) {
	rec := wireRecord{
		Ciphertext:  base64.StdEncoding.EncodeToString(e.Ciphertext),
		IV:          base64.StdEncoding.EncodeToString(e.IV),
		WrappedKeys: make([]wireKey, len(e.WrappedKeys)),
	}
	for i, wk := range e.WrappedKeys {
		rec.WrappedKeys[i] = wireKey{
			Recipient: wk.Recipient,
			Key:       base64.StdEncoding.EncodeToString(wk.Key),
		}
	}
	return json.MarshalIndent(rec, "", "  ")
}

// UnmarshalWire decodes a JSON wire record back into an envelope. Any
// structural defect fails with ErrEnvelopeMalformed.
func UnmarshalWire(data []byte) (*EncryptedField, error) {
	var rec wireRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrEnvelopeMalformed, err)
	}
	if rec.Ciphertext == "" || rec.IV == "" {
		return nil, fmt.Errorf("%w: missing ciphertext or iv", kerrors.ErrEnvelopeMalformed)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(rec.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext is not valid base64", kerrors.ErrEnvelopeMalformed)
	}
	iv, err := base64.StdEncoding.DecodeString(rec.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: iv is not valid base64", kerrors.ErrEnvelopeMalformed)
	}

	env := &EncryptedField{
		Ciphertext:  ciphertext,
		IV:          iv,
		WrappedKeys: make([]WrappedKey, len(rec.WrappedKeys)),
	}
	for i, wk := range rec.WrappedKeys {
		if wk.Recipient == "" {
			return nil, fmt.Errorf("%w: wrapped key with empty recipient", kerrors.ErrEnvelopeMalformed)
		}
		key, err := base64.StdEncoding.DecodeString(wk.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: wrapped key for %s is not valid base64", kerrors.ErrEnvelopeMalformed, wk.Recipient)
		}
		env.WrappedKeys[i] = WrappedKey{Recipient: wk.Recipient, Key: key}
	}
	return env, nil
}

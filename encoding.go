package mailbox

import (
	"bytes"
	"fmt"
	"io"

	"github.com/emersion/go-message"
)

type decodeFunc func(data []byte) ([]byte, error)

// decoders maps every supported transfer encoding to its decoder.
// EncOther has no entry.
var decoders = map[Encoding]decodeFunc{
	Enc7Bit:            passthrough,
	Enc8Bit:            passthrough,
	EncBinary:          passthrough,
	EncBase64:          transferDecoder("base64"),
	EncQuotedPrintable: transferDecoder("quoted-printable"),
}

// Decode reverses the transfer encoding enc. Encodings without a decoder
// return ErrUnsupportedEncoding.
func Decode(enc Encoding, data []byte) ([]byte, error) {
	decode, ok := decoders[enc]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
	return decode(data)
}

// CanDecode reports whether Decode supports enc.
func CanDecode(enc Encoding) bool {
	_, ok := decoders[enc]
	return ok
}

// 7bit, 8bit and binary content is already in its final byte form.
func passthrough(data []byte) ([]byte, error) {
	return data, nil
}

// transferDecoder decodes through go-message, which applies the
// Content-Transfer-Encoding of an entity while reading its body.
func transferDecoder(cte string) decodeFunc {
	return func(data []byte) ([]byte, error) {
		h := message.Header{}
		h.Set("Content-Transfer-Encoding", cte)
		e, err := message.New(h, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", cte, err)
		}
		out, err := io.ReadAll(e.Body)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", cte, err)
		}
		return out, nil
	}
}

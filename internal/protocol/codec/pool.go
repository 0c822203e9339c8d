// Package codec encodes outbound envelopes with pooled buffers. Broadcasts encode
// once per packet and fan the bytes out, so the buffer is the only hot allocation.
package codec

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/palemoky/wolfpath/internal/protocol"
)

var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves a bytes.Buffer from the pool
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer returns a bytes.Buffer to the pool
// The buffer is reset but capacity is preserved
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// Marshal encodes msg into a fresh slice. HTML characters are left unescaped so
// chat text reaches clients as typed.
func Marshal(msg *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}

	// Encoder terminates with a newline.
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return bytes.Clone(out), nil
}

package codec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/wolfpath/internal/protocol"
)

func TestBufferPool_GetPut(t *testing.T) {
	t.Parallel()

	buf := GetBuffer()
	assert.NotNil(t, buf)
	buf.WriteString("test data")
	assert.Equal(t, 9, buf.Len())

	PutBuffer(buf)

	buf2 := GetBuffer()
	assert.NotNil(t, buf2)
	assert.Equal(t, 0, buf2.Len())
}

func TestBufferPool_PutNil(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		PutBuffer(nil)
	})
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	data, err := Marshal(protocol.NewChatMessage("💬 Lobo: <b>&</b>"))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"CHAT","message":"💬 Lobo: <b>&</b>"}`, string(data))

	back, err := protocol.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgChat, back.Type)
}

func TestMarshal_MatchesEncode(t *testing.T) {
	t.Parallel()

	msg := protocol.MustNewMessage(protocol.MsgLeaderboard, []protocol.LeaderboardEntry{
		{ID: "p1", Nickname: "Lobo", NetWorth: "10.00"},
	})
	want, err := msg.Encode()
	require.NoError(t, err)

	got, err := Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestMarshal_ResultNotAliased(t *testing.T) {
	t.Parallel()

	first, err := Marshal(protocol.NewSystemMessage("first"))
	require.NoError(t, err)
	_, err = Marshal(protocol.NewSystemMessage("second message overwrites the buffer"))
	require.NoError(t, err)

	assert.Equal(t, `{"type":"SYSTEM","message":"first"}`, string(first))
}

func TestMarshal_Concurrency(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			data, err := Marshal(protocol.NewSystemMessage("concurrent"))
			assert.NoError(t, err)
			assert.Equal(t, `{"type":"SYSTEM","message":"concurrent"}`, string(data))
		})
	}
	wg.Wait()
}

func BenchmarkMarshal(b *testing.B) {
	msg := protocol.NewChatMessage("💬 Lobo: hola")
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = Marshal(msg)
		}
	})
}

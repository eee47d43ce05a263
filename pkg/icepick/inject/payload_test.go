package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePayload64(t *testing.T) {
	buf, err := EncodePayload(0x00007FF6_12345678, true, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x78, 0x56, 0x34, 0x12, 0xF6, 0x7F, 0x00, 0x00, // basePath
		0x01,                                     // developerMode
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // padding
	}, buf)
	assert.Equal(t, 16, PayloadSize(8))
}

func TestEncodePayload32(t *testing.T) {
	buf, err := EncodePayload(0x00401000, false, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x10, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00}, buf)

	_, err = EncodePayload(0x1_0000_0000, false, 4)
	assert.Error(t, err)
}

func TestEncodePayloadBadPointerSize(t *testing.T) {
	_, err := EncodePayload(0, false, 2)
	assert.Error(t, err)
}

func TestEncodeString(t *testing.T) {
	assert.Equal(t, []byte("C:\\Games\\data\\\x00"), EncodeString(`C:\Games\data\`))
	assert.Equal(t, []byte{0}, EncodeString(""))
}

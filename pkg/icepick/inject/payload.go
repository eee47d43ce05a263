package inject

import (
	"encoding/binary"
	"fmt"
)

// PayloadVersion identifies the settings layout below. The SDK module reads
// the struct with its own compiler's rules, so any change here is a break
// with every shipped TTF2SDK.dll.
//
// Layout, little-endian, pointer-size aligned:
//
//	struct SDKSettings {
//	    const char* basePath;   // offset 0
//	    bool        developerMode; // offset ptrSize, then padding
//	};
//
// 64-bit targets: 16 bytes. 32-bit targets: 8 bytes.
const PayloadVersion = 1

// PayloadSize is the encoded size for a target with the given pointer size.
func PayloadSize(ptrSize int) int {
	return 2 * ptrSize
}

// EncodePayload builds the settings struct. basePathAddr is the address of
// the null-terminated path string inside the target process.
func EncodePayload(basePathAddr uint64, developerMode bool, ptrSize int) ([]byte, error) {
	buf := make([]byte, PayloadSize(ptrSize))
	switch ptrSize {
	case 8:
		binary.LittleEndian.PutUint64(buf, basePathAddr)
	case 4:
		if basePathAddr > 0xFFFFFFFF {
			return nil, fmt.Errorf("address %#x does not fit a 32-bit pointer", basePathAddr)
		}
		binary.LittleEndian.PutUint32(buf, uint32(basePathAddr))
	default:
		return nil, fmt.Errorf("unsupported pointer size %d", ptrSize)
	}
	if developerMode {
		buf[ptrSize] = 1
	}
	return buf, nil
}

// EncodeString returns s as a null-terminated narrow string.
func EncodeString(s string) []byte {
	out := make([]byte, len(s)+1)
	copy(out, s)
	return out
}

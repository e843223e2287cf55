package vision

import "fmt"

// COBSEncode applies Consistent Overhead Byte Stuffing to data, producing a
// frame with no internal zero bytes, suitable for delimiting with a trailing
// 0x00. This mirrors the cobs.encode call in the reference serial writer.
func COBSEncode(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/254+1)
	codeIdx := len(out)
	out = append(out, 0) // placeholder code byte
	code := byte(1)

	for _, b := range data {
		if b == 0 {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return out
}

// COBSDecode reverses COBSEncode. It returns an error if frame is malformed
// (a code byte pointing past the end of the frame).
func COBSDecode(frame []byte) ([]byte, error) {
	out := make([]byte, 0, len(frame))
	i := 0
	for i < len(frame) {
		code := int(frame[i])
		if code == 0 {
			return nil, fmt.Errorf("vision: cobs decode: unexpected zero code byte at %d", i)
		}
		i++
		if i+code-1 > len(frame) {
			return nil, fmt.Errorf("vision: cobs decode: code byte %d overruns frame at %d", code, i-1)
		}
		out = append(out, frame[i:i+code-1]...)
		i += code - 1
		if code != 0xFF && i < len(frame) {
			out = append(out, 0)
		}
	}
	return out, nil
}

package cryptox

import "fmt"

// Framed buffer serialization: standard base64 alphabet with explicit
// begin/end markers, so serialized binary material is distinguishable from
// arbitrary text inside JSON payloads. The framing constants are part of
// the wire format and must not change.
const (
	bufferPrefix = "notaserbufbeg:"
	bufferSuffix = ":notaserbufend."
)

const encodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var decodeLookup = func() [256]int16 {
	var lookup [256]int16
	for i := range lookup {
		lookup[i] = -1
	}
	for i := 0; i < len(encodeChars); i++ {
		lookup[encodeChars[i]] = int16(i)
	}
	return lookup
}()

// SerializeBuffer encodes bytes into the framed textual form. Input is
// processed in 3-byte groups producing 4 output characters; a final partial
// group is padded with '='.
func SerializeBuffer(bytes []byte) string {
	n := len(bytes)
	out := make([]byte, 0, len(bufferPrefix)+((n+2)/3)*4+len(bufferSuffix))
	out = append(out, bufferPrefix...)

	for i := 0; i+3 <= n; i += 3 {
		out = append(out,
			encodeChars[bytes[i]>>2],
			encodeChars[(bytes[i]&3)<<4|bytes[i+1]>>4],
			encodeChars[(bytes[i+1]&15)<<2|bytes[i+2]>>6],
			encodeChars[bytes[i+2]&63],
		)
	}

	switch n % 3 {
	case 1:
		b0 := bytes[n-1]
		out = append(out, encodeChars[b0>>2], encodeChars[(b0&3)<<4], '=', '=')
	case 2:
		b0, b1 := bytes[n-2], bytes[n-1]
		out = append(out, encodeChars[b0>>2], encodeChars[(b0&3)<<4|b1>>4], encodeChars[(b1&15)<<2], '=')
	}

	out = append(out, bufferSuffix...)
	return string(out)
}

// DeserializeBuffer decodes a framed buffer string. It rejects input missing
// either framing marker, of non-multiple-of-4 payload length, containing
// characters outside the alphabet, or with misplaced/non-canonical padding.
func DeserializeBuffer(serialized string) ([]byte, error) {
	if len(serialized) < len(bufferPrefix)+len(bufferSuffix) ||
		serialized[:len(bufferPrefix)] != bufferPrefix {
		return nil, fmt.Errorf("%w: missing prefix marker", ErrDeserializationFailed)
	}
	if serialized[len(serialized)-len(bufferSuffix):] != bufferSuffix {
		return nil, fmt.Errorf("%w: missing suffix marker", ErrDeserializationFailed)
	}

	stripped := serialized[len(bufferPrefix) : len(serialized)-len(bufferSuffix)]
	if len(stripped)%4 != 0 {
		return nil, fmt.Errorf("%w: payload length %d is not a multiple of 4", ErrDeserializationFailed, len(stripped))
	}
	if stripped == "" {
		return []byte{}, nil
	}

	pad := 0
	if stripped[len(stripped)-1] == '=' {
		pad++
		if stripped[len(stripped)-2] == '=' {
			pad++
		}
	}

	out := make([]byte, 0, len(stripped)/4*3)

	for i := 0; i < len(stripped); i += 4 {
		var vals [4]int16
		for j := 0; j < 4; j++ {
			c := stripped[i+j]
			if c == '=' {
				// Padding may only occupy the final one or two positions.
				if i+j < len(stripped)-pad {
					return nil, fmt.Errorf("%w: misplaced padding character", ErrDeserializationFailed)
				}
				vals[j] = 0
				continue
			}
			v := decodeLookup[c]
			if v < 0 {
				return nil, fmt.Errorf("%w: invalid character %q", ErrDeserializationFailed, c)
			}
			vals[j] = v
		}

		out = append(out,
			byte(vals[0]<<2|vals[1]>>4),
			byte((vals[1]&15)<<4|vals[2]>>2),
			byte((vals[2]&3)<<6|vals[3]),
		)
	}

	return out[:len(out)-pad], nil
}

package irproto

import (
	"encoding/binary"
	"math"

	"kvirsearch/internal/value"
)

// Value tag bytes, one per value.Kind.
const (
	valueTagInt byte = iota
	valueTagFloat
	valueTagBool
	valueTagNull
	valueTagShortString
	valueTagClpEncodedString
	valueTagUnstructuredArray
)

func readUint16(r Reader) (uint16, error) {
	b, err := r.TryReadExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func readInt64(r Reader) (int64, error) {
	b, err := r.TryReadExact(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func readFloat64(r Reader) (float64, error) {
	b, err := r.TryReadExact(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func readShortString(r Reader) (string, error) {
	n, err := readUint16(r)
	if err != nil {
		return "", err
	}
	b, err := r.TryReadExact(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeValue reads one tagged value, per the Value tag byte layout
// above.
func decodeValue(r Reader) (value.Value, error) {
	tagBuf, err := r.TryReadExact(1)
	if err != nil {
		return value.Value{}, err
	}
	switch tagBuf[0] {
	case valueTagInt:
		v, err := readInt64(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(v), nil

	case valueTagFloat:
		v, err := readFloat64(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.Float(v), nil

	case valueTagBool:
		b, err := r.TryReadExact(1)
		if err != nil {
			return value.Value{}, err
		}
		switch b[0] {
		case 0:
			return value.Bool(false), nil
		case 1:
			return value.Bool(true), nil
		default:
			return value.Value{}, ErrCorrupt
		}

	case valueTagNull:
		return value.Null(), nil

	case valueTagShortString:
		s, err := readShortString(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.ShortString(s), nil

	case valueTagClpEncodedString:
		return decodeClpEncodedString(r)

	case valueTagUnstructuredArray:
		lenBuf, err := r.TryReadExact(4)
		if err != nil {
			return value.Value{}, err
		}
		n := binary.LittleEndian.Uint32(lenBuf)
		body, err := r.TryReadExact(int(n))
		if err != nil {
			return value.Value{}, err
		}
		return value.Array(string(body)), nil

	default:
		return value.Value{}, ErrCorrupt
	}
}

func decodeClpEncodedString(r Reader) (value.Value, error) {
	logtype, err := readShortString(r)
	if err != nil {
		return value.Value{}, err
	}

	dictCount, err := readUint16(r)
	if err != nil {
		return value.Value{}, err
	}
	dictVars := make([]string, dictCount)
	for i := range dictVars {
		s, err := readShortString(r)
		if err != nil {
			return value.Value{}, err
		}
		dictVars[i] = s
	}

	intCount, err := readUint16(r)
	if err != nil {
		return value.Value{}, err
	}
	encodedInts := make([]int64, intCount)
	for i := range encodedInts {
		v, err := readInt64(r)
		if err != nil {
			return value.Value{}, err
		}
		encodedInts[i] = v
	}

	floatCount, err := readUint16(r)
	if err != nil {
		return value.Value{}, err
	}
	encodedFloats := make([]float64, floatCount)
	for i := range encodedFloats {
		v, err := readFloat64(r)
		if err != nil {
			return value.Value{}, err
		}
		encodedFloats[i] = v
	}

	return value.ClpString(value.ClpEncodedString{
		Logtype:       logtype,
		DictVars:      dictVars,
		EncodedInts:   encodedInts,
		EncodedFloats: encodedFloats,
	}), nil
}

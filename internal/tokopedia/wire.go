package tokopedia

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The gateway is inconsistent about scalar types across API versions:
// ids arrive as numbers or strings, ratings as floats or formatted
// strings. These wrappers decode either form so strategies share one
// tolerant boundary and everything past it is typed.

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

func (f flexString) String() string { return string(f) }

// Int64 parses the value as an integer, 0 when empty or non-numeric.
func (f flexString) Int64() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(string(f)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// flexFloat decodes a JSON number or numeric string into a float64.
// Unparseable values decode to 0 rather than failing the record.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

func (f flexFloat) Float64() float64 { return float64(f) }
func (f flexFloat) Int() int         { return int(float64(f)) }

package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Decimal is a threshold value. Clients may send it as a JSON number or a
// numeric string; it is always written back as a string so that large values
// keep their digits.
type Decimal float64

func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d), 'f', -1, 64)
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid decimal %q", s)
	}
	*d = Decimal(f)
	return nil
}

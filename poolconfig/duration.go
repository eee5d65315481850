package poolconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/yuku/sessionpool"
)

// Duration is a timeout written as a Go duration string ("30s", "1m30s") or
// "none" for no bound. Both YAML and TOML decode it through UnmarshalText.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if strings.EqualFold(s, "none") {
		*d = Duration(sessionpool.NoTimeout)
		return nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	if d < 0 {
		return []byte("none"), nil
	}
	return []byte(time.Duration(d).String()), nil
}

// String returns the text form of d.
func (d Duration) String() string {
	text, _ := d.MarshalText()
	return string(text)
}

package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const DefaultOrderPrefix = "JSM"

var prefixPattern = regexp.MustCompile(`^[A-Z]+$`)

// OrderNumberGenerator produces PREFIX-YYYYMMDD-XXXXXX identifiers.
type OrderNumberGenerator struct {
	prefix string
	now    func() time.Time
}

func NewOrderNumberGenerator(prefix string) (*OrderNumberGenerator, error) {
	if prefix == "" {
		prefix = DefaultOrderPrefix
	}
	prefix = strings.ToUpper(prefix)
	if !prefixPattern.MatchString(prefix) {
		return nil, fmt.Errorf("%w: order id prefix must be letters only, got %q", ErrInvalidInput, prefix)
	}
	return &OrderNumberGenerator{prefix: prefix, now: time.Now}, nil
}

func (g *OrderNumberGenerator) Next() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	date := g.now().UTC().Format("20060102")
	return fmt.Sprintf("%s-%s-%s", g.prefix, date, strings.ToUpper(hex.EncodeToString(buf))), nil
}

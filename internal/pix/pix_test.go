package pix_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixcards/internal/domain"
	"pixcards/internal/pix"
)

func TestBuildPayload_KnownVectors(t *testing.T) {
	cases := []struct {
		key, amount, name, city, want string
	}{
		{
			"test@example.com", "10.00", "LOJA TESTE", "SAO PAULO",
			"00020126380014br.gov.bcb.pix0116test@example.com520400005303986540510.005802BR5910LOJA TESTE6009SAO PAULO62070503***630497E7",
		},
		{
			"4a2a70fd-48f0-4a15-9419-1c16fa5703c3", "150.50", "ESPACO SETE STORE", "SAO PAULO",
			"00020126580014br.gov.bcb.pix01364a2a70fd-48f0-4a15-9419-1c16fa5703c35204000053039865406150.505802BR5917ESPACO SETE STORE6009SAO PAULO62070503***63045ABD",
		},
		{
			"k", "0", "A VERY LONG MERCHANT NAME THAT EXCEEDS", "SAO JOSE DOS CAMPOS",
			"00020126230014br.gov.bcb.pix0101k52040000530398654040.005802BR5925A VERY LONG MERCHANT NAME6015SAO JOSE DOS CA62070503***6304CD4B",
		},
	}
	for _, tc := range cases {
		got, err := pix.BuildPayload(tc.key, decimal.RequireFromString(tc.amount), tc.name, tc.city)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestCRC16_CheckValue(t *testing.T) {
	assert.Equal(t, uint16(0x29B1), pix.CRC16("123456789"))
}

func TestBuildPayload_FoldsDiacritics(t *testing.T) {
	got, err := pix.BuildPayload("key", decimal.RequireFromString("1.5"), "  Espaço Sete  ", "São Paulo")
	require.NoError(t, err)
	assert.Contains(t, got, "5911Espaco Sete")
	assert.Contains(t, got, "6009Sao Paulo")
	assert.Contains(t, got, "54041.50")
	assert.NoError(t, pix.Verify(got))
}

func TestBuildPayload_Errors(t *testing.T) {
	one := decimal.NewFromInt(1)
	cases := map[string]func() (string, error){
		"empty key": func() (string, error) { return pix.BuildPayload(" ", one, "A", "B") },
		"negative":  func() (string, error) { return pix.BuildPayload("k", decimal.NewFromInt(-1), "A", "B") },
		"precision": func() (string, error) {
			return pix.BuildPayload("k", decimal.RequireFromString("1.005"), "A", "B")
		},
		"long key":   func() (string, error) { return pix.BuildPayload(strings.Repeat("x", 90), one, "A", "B") },
		"empty name": func() (string, error) { return pix.BuildPayload("k", one, "   ", "B") },
		"empty city": func() (string, error) { return pix.BuildPayload("k", one, "A", "\t") },
	}
	for name, fn := range cases {
		_, err := fn()
		assert.ErrorIs(t, err, domain.ErrValidation, name)
	}
}

func TestBuildPayload_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	letters := "ABCDEFGHIJKLMNOPQRSTUVWXYZ abcdefghijklmnopqrstuvwxyz0123456789@.-áéíõç"
	word := func(n int) string {
		src := []rune(letters)
		out := make([]rune, 1+r.Intn(n))
		for i := range out {
			out[i] = src[r.Intn(len(src))]
		}
		return "X" + string(out)
	}
	for i := 0; i < 500; i++ {
		key := fmt.Sprintf("key-%d@%s.com", i, strings.ReplaceAll(word(20), " ", ""))
		amount := decimal.New(r.Int63n(10_000_000), -2)
		name, city := word(40), word(30)

		payload, err := pix.BuildPayload(key, amount, name, city)
		require.NoError(t, err)
		require.NoError(t, pix.Verify(payload))

		fields, err := pix.Decode(payload)
		require.NoError(t, err)
		assert.Equal(t, amount.StringFixed(2), fields["54"])
		assert.LessOrEqual(t, len(fields["59"]), 25)
		assert.LessOrEqual(t, len(fields["60"]), 15)
		assert.Equal(t, "986", fields["53"])

		account, err := pix.Decode(fields["26"])
		require.NoError(t, err)
		assert.Equal(t, "br.gov.bcb.pix", account["00"])
		assert.Equal(t, key, account["01"])

		tampered := []byte(payload)
		tampered[20] ^= 0x01
		assert.Error(t, pix.Verify(string(tampered)))
	}
}

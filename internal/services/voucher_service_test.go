package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixcards/internal/domain"
	"pixcards/internal/events"
	"pixcards/internal/validate"
)

func TestVouchers_GenerateValidates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.vouchers.Generate(ctx, 0, 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = e.vouchers.Generate(ctx, 100, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = e.vouchers.Generate(ctx, 100, 501)
	assert.ErrorIs(t, err, domain.ErrValidation)

	codes, err := e.vouchers.Generate(ctx, 2500, 50)
	require.NoError(t, err)
	require.Len(t, codes, 50)
	seen := map[string]bool{}
	for _, c := range codes {
		canon, ok := validate.VoucherCode(c)
		require.True(t, ok, c)
		assert.Equal(t, c, canon)
		assert.False(t, seen[c])
		seen[c] = true
	}

	list, err := e.vouchers.List(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}

func TestVouchers_RedeemOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	codes, err := e.vouchers.Generate(ctx, 2500, 1)
	require.NoError(t, err)
	e.credit(t, "u1", 100)

	// Lower case without dashes is accepted.
	res, err := e.vouchers.Redeem(ctx, "  "+lower(codes[0][:4])+codes[0][5:], "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.RedeemResult{ValueCredited: 2500, NewBalance: 2600}, res)

	_, err = e.vouchers.Redeem(ctx, codes[0], "u2")
	assert.ErrorIs(t, err, domain.ErrAlreadyRedeemed)
	assert.Equal(t, domain.Cents(0), e.balance(t, "u2"))

	_, err = e.vouchers.Redeem(ctx, "AAAA-BBBB-CCCC-DDDD", "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = e.vouchers.Redeem(ctx, "not a code", "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := e.vouchers.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Redeemed)
	assert.Equal(t, "User One", list[0].RedeemedByName)

	evs, err := e.outbox.ByKey(ctx, codes[0])
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeVoucherRedeemed, evs[0].EventType)
}

func TestVouchers_ConcurrentRedeemCreditsOnce(t *testing.T) {
	e := newEnv(t)
	codes, err := e.vouchers.Generate(context.Background(), 5000, 1)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, uid := range []string{"u1", "u2", "u1", "u2", "u1", "u2"} {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			_, err := e.vouchers.Redeem(context.Background(), codes[0], uid)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			assert.ErrorIs(t, err, domain.ErrAlreadyRedeemed)
		}(uid)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, domain.Cents(5000), e.balance(t, "u1")+e.balance(t, "u2"))
}

func lower(s string) string {
	out := []byte(s)
	for i, b := range out {
		if b >= 'A' && b <= 'Z' {
			out[i] = b + 32
		}
	}
	return string(out)
}

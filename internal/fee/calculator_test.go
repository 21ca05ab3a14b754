package fee

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		gross     string
		platform  string
		processor string
		payout    string
	}{
		{name: "lowest tier", gross: "300", platform: "45.00", processor: "9.00", payout: "246.00"},
		{name: "middle tier", gross: "1500", platform: "180.00", processor: "43.80", payout: "1276.20"},
		{name: "top tier", gross: "3000", platform: "300.00", processor: "87.30", payout: "2612.70"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Compute(MustParse(tt.gross), CurrentVersion)
			require.NoError(t, err)
			assert.Equal(t, MustParse(tt.platform), b.PlatformFee)
			assert.Equal(t, MustParse(tt.processor), b.ProcessorFee)
			assert.Equal(t, MustParse(tt.payout), b.Payout)
			assert.Equal(t, CurrentVersion, b.ScheduleVersion)
			assert.True(t, b.Balanced())
		})
	}
}

func TestCompute_TierBoundary(t *testing.T) {
	at, err := Compute(MustParse("500.00"), CurrentVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), at.PlatformRateBps)
	assert.Equal(t, MustParse("75.00"), at.PlatformFee)

	above, err := Compute(MustParse("500.01"), CurrentVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), above.PlatformRateBps)
	assert.Equal(t, MustParse("60.00"), above.PlatformFee)

	top, err := Compute(MustParse("2000.01"), CurrentVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), top.PlatformRateBps)
}

func TestCompute_PartsAlwaysSumToGross(t *testing.T) {
	check := func(g Money) {
		b, err := Compute(g, CurrentVersion)
		if err != nil {
			if !assert.ErrorIs(t, err, ErrAmountTooSmall, "gross %s", g) {
				t.FailNow()
			}
			return
		}
		if b.PlatformFee+b.ProcessorFee+b.Payout != g || b.Payout < 0 {
			t.Fatalf("gross %s: %s + %s + %s", g, b.PlatformFee, b.ProcessorFee, b.Payout)
		}
	}

	// every cent up to $2,500 covers all three tiers and both boundaries
	for g := Money(1); g <= 250000; g++ {
		check(g)
	}
	for g := Money(250000); g <= 100_000_000; g += 997 {
		check(g)
	}
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 100000; i++ {
		check(Money(r.Int63n(100_000_000) + 1))
	}
	check(100_000_000)
}

func TestCompute_Errors(t *testing.T) {
	_, err := Compute(0, CurrentVersion)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Compute(-100, CurrentVersion)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Compute(MaxAmount+1, CurrentVersion)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Compute(MustParse("0.01"), CurrentVersion)
	assert.ErrorIs(t, err, ErrAmountTooSmall)

	_, err = Compute(MustParse("100"), 99)
	assert.ErrorIs(t, err, ErrUnknownScheduleVersion)
}

func TestCompute_SmallestPayableAmount(t *testing.T) {
	_, err := Compute(35, CurrentVersion)
	assert.ErrorIs(t, err, ErrAmountTooSmall)

	b, err := Compute(36, CurrentVersion)
	require.NoError(t, err)
	assert.Equal(t, Money(0), b.Payout)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	s, err := Lookup(CurrentVersion)
	require.NoError(t, err)
	s.Tiers[0].RateBps = 1

	again, err := Lookup(CurrentVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), again.Tiers[0].RateBps)
}

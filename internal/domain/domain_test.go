package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/Skotchmaster/ozonilberries/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEffectivePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		price    string
		discount int
		want     string
	}{
		{name: "ten percent", price: "100.00", discount: 10, want: "90.00"},
		{name: "no sale", price: "100.00", discount: 0, want: "100.00"},
		{name: "full discount", price: "59.99", discount: 100, want: "0"},
		{name: "rounds half to even", price: "0.25", discount: 10, want: "0.22"},
		{name: "odd cents", price: "19.99", discount: 15, want: "16.99"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := EffectivePrice(dec(tt.price), tt.discount)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestBasketTotal(t *testing.T) {
	t.Parallel()

	total := BasketTotal([]PricedLine{
		{UnitPrice: dec("90.00"), Count: 2},
		{UnitPrice: dec("10.50"), Count: 1},
	})
	assert.True(t, total.Equal(dec("190.50")), total.String())
	assert.True(t, BasketTotal(nil).IsZero())
}

func TestApplyDelivery(t *testing.T) {
	t.Parallel()

	cfg := DeliveryConfig{
		DeliveryPrice:        dec("50"),
		ExpressDeliveryPrice: dec("200"),
		FreeDeliveryBorder:   dec("100"),
	}

	tests := []struct {
		name     string
		subtotal string
		typ      DeliveryType
		want     string
	}{
		{name: "below border", subtotal: "50", typ: DeliveryStandard, want: "100"},
		{name: "above border", subtotal: "150", typ: DeliveryStandard, want: "150"},
		{name: "equal to border is free", subtotal: "100", typ: DeliveryStandard, want: "100"},
		{name: "express above border", subtotal: "150", typ: DeliveryExpress, want: "350"},
		{name: "express below border pays both", subtotal: "50", typ: DeliveryExpress, want: "300"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ApplyDelivery(dec(tt.subtotal), tt.typ, cfg)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestActiveDeliveryConfig(t *testing.T) {
	t.Parallel()

	_, err := ActiveDeliveryConfig(nil)
	var cfgErr *DeliveryConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, 0, cfgErr.Active)
	assert.Contains(t, err.Error(), "administrator")

	_, err = ActiveDeliveryConfig(make([]DeliveryConfig, 2))
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, 2, cfgErr.Active)

	one := DeliveryConfig{DeliveryPrice: dec("1")}
	got, err := ActiveDeliveryConfig([]DeliveryConfig{one})
	require.NoError(t, err)
	assert.Equal(t, one, got)
}

func TestParseTypes(t *testing.T) {
	t.Parallel()

	d, err := ParseDeliveryType("delivery")
	require.NoError(t, err)
	assert.Equal(t, DeliveryStandard, d)

	d, err = ParseDeliveryType("Express")
	require.NoError(t, err)
	assert.Equal(t, DeliveryExpress, d)

	_, err = ParseDeliveryType("pigeon")
	require.Error(t, err)

	p, err := ParsePaymentType("online_account")
	require.NoError(t, err)
	assert.Equal(t, PaymentAccount, p)

	_, err = ParsePaymentType("cash")
	require.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, CanTransition(models.OrderStatusConfirmRequired, models.OrderStatusConfirmed))
	assert.True(t, CanTransition(models.OrderStatusConfirmed, models.OrderStatusPaid))
	assert.True(t, CanTransition(models.OrderStatusSent, models.OrderStatusDelivered))
	assert.True(t, CanTransition(models.OrderStatusPaid, models.OrderStatusCancel))
	assert.False(t, CanTransition(models.OrderStatusConfirmRequired, models.OrderStatusPaid))
	assert.False(t, CanTransition(models.OrderStatusDelivered, models.OrderStatusCancel))
	assert.False(t, CanTransition(models.OrderStatusCancel, models.OrderStatusConfirmed))
	assert.False(t, CanTransition("bogus", models.OrderStatusConfirmed))
}

func TestSimulateCharge(t *testing.T) {
	t.Parallel()

	ok, msg := SimulateCharge("1234")
	assert.True(t, ok)
	assert.Empty(t, msg)

	ok, msg = SimulateCharge("1230")
	assert.False(t, ok)
	assert.Equal(t, MsgEndsWithZero, msg)

	ok, msg = SimulateCharge("1235")
	assert.False(t, ok)
	assert.Equal(t, MsgOddNumber, msg)
}

func TestValidateCard(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.May, 20, 12, 0, 0, 0, time.UTC)
	valid := Card{Name: "IVAN IVANOV", Number: "1234", Month: "05", Year: "2026", Code: "123"}

	got, err := ValidateCard(valid, now)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Month)
	assert.Equal(t, 2026, got.Year)

	tests := []struct {
		name   string
		mutate func(c *Card)
	}{
		{name: "empty name", mutate: func(c *Card) { c.Name = " " }},
		{name: "number too long", mutate: func(c *Card) { c.Number = "123456789" }},
		{name: "number not digits", mutate: func(c *Card) { c.Number = "12a4" }},
		{name: "short code", mutate: func(c *Card) { c.Code = "12" }},
		{name: "month 13", mutate: func(c *Card) { c.Month = "13" }},
		{name: "month 0", mutate: func(c *Card) { c.Month = "0" }},
		{name: "two digit year", mutate: func(c *Card) { c.Year = "26" }},
		{name: "past year", mutate: func(c *Card) { c.Year = "2025" }},
		{name: "expired this year", mutate: func(c *Card) { c.Month = "4" }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := valid
			tt.mutate(&c)
			_, err := ValidateCard(c, now)
			require.Error(t, err)
		})
	}
}

func TestMaskCardNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1234", MaskCardNumber("1234"))
	assert.Equal(t, "****5678", MaskCardNumber("12345678"))
}

func TestSplitFullName(t *testing.T) {
	t.Parallel()

	n, err := SplitFullName("  Ivanov   Ivan Ivanovich ")
	require.NoError(t, err)
	assert.Equal(t, FullName{Last: "Ivanov", First: "Ivan", Middle: "Ivanovich"}, n)

	_, err = SplitFullName("Ivanov Ivan")
	require.ErrorIs(t, err, ErrFullName)

	_, err = SplitFullName("a b c d")
	require.ErrorIs(t, err, ErrFullName)
}

func TestValidatePhoneAndPassword(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePhone("89991234567"))
	assert.ErrorIs(t, ValidatePhone("+79991234567"), ErrPhone)
	assert.ErrorIs(t, ValidatePhone("8999123456"), ErrPhone)

	assert.NoError(t, ValidatePassword("s3cret-pass"))
	assert.ErrorIs(t, ValidatePassword("short1"), ErrPassword)
	assert.ErrorIs(t, ValidatePassword("12345678"), ErrPassword)
}

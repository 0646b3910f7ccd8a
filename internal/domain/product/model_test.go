package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librepos/internal/core/apperror"
	"librepos/internal/core/id"
	"librepos/internal/core/types"
)

func TestNew(t *testing.T) {
	p := New("P000001", "Cien anos de soledad", "Novela", types.MustMoney("25.50"), 40)

	assert.False(t, id.IsNil(p.ID))
	assert.Equal(t, "P000001", p.Code)
	assert.Equal(t, 40, p.Stock)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		mutate    func(*Product)
		wantField string
	}{
		{"missing name", func(p *Product) { p.Name = "  " }, "name"},
		{"missing category", func(p *Product) { p.Category = "" }, "category"},
		{"zero price", func(p *Product) { p.Price = types.ZeroMoney() }, "price"},
		{"negative price", func(p *Product) { p.Price = types.MustMoney("-1") }, "price"},
		{"negative stock", func(p *Product) { p.Stock = -1 }, "stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New("P000001", "Libro", "Novela", types.MustMoney("10.00"), 5)
			tt.mutate(p)

			err := p.Validate(ctx)
			require.Error(t, err)

			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantField, appErr.Details["field"])
		})
	}

	valid := New("P000001", "Libro", "Novela", types.MustMoney("10.00"), 0)
	assert.NoError(t, valid.Validate(ctx))
}

func TestTouch(t *testing.T) {
	p := New("P000001", "Libro", "Novela", types.MustMoney("10.00"), 5)
	created := p.UpdatedAt

	time.Sleep(time.Millisecond)
	p.Touch()

	assert.True(t, p.UpdatedAt.After(created))
	assert.Equal(t, created, p.CreatedAt)
}

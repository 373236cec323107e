package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

type fakeTx struct{ pgx.Tx }

func TestInTx(t *testing.T) {
	ctx := context.Background()
	assert.False(t, InTx(ctx))

	var nilTx pgx.Tx
	assert.False(t, InTx(context.WithValue(ctx, txKey{}, nilTx)))

	txCtx := context.WithValue(ctx, txKey{}, fakeTx{})
	assert.True(t, InTx(txCtx))
	assert.Equal(t, fakeTx{}, Conn(txCtx, nil))
}

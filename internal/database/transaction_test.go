package database

import (
	"context"
	"testing"
)

func TestTxFromContext_NoTx(t *testing.T) {
	ctx := context.Background()
	tx := TxFromContext(ctx)
	if tx != nil {
		t.Error("expected nil tx from context without transaction")
	}
}

func TestContextWithTx_Nil(t *testing.T) {
	ctx := context.Background()

	txCtx := ContextWithTx(ctx, nil)
	if TxFromContext(txCtx) != nil {
		t.Error("expected nil tx from context with nil transaction")
	}
}

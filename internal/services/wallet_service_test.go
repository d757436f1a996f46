package services

import (
	"testing"

	"github.com/orangecat-platform/backend/internal/models"
)

func TestRecomputeBalance(t *testing.T) {
	in := func(sats int64) models.WalletTransaction {
		return models.WalletTransaction{Direction: models.TxIncoming, AmountSats: sats}
	}
	out := func(sats int64) models.WalletTransaction {
		return models.WalletTransaction{Direction: models.TxOutgoing, AmountSats: sats}
	}

	cases := []struct {
		name string
		txs  []models.WalletTransaction
		want int64
	}{
		{"empty history", nil, 0},
		{"incoming only", []models.WalletTransaction{in(1000), in(250)}, 1250},
		{"mixed directions", []models.WalletTransaction{in(1000), out(400), in(50), out(150)}, 500},
		{"fully spent", []models.WalletTransaction{in(700), out(700)}, 0},
	}

	// Duplicate txids never reach the fold: AddTransaction drops replays on
	// (wallet_id, txid), so each fact row counts exactly once.
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := RecomputeBalance(c.txs); got != c.want {
				t.Errorf("RecomputeBalance = %d, want %d", got, c.want)
			}
		})
	}
}

package models

import "testing"

func TestSignedAmount(t *testing.T) {
	cases := []struct {
		direction string
		amount    int64
		want      int64
	}{
		{TxIncoming, 500, 500},
		{TxOutgoing, 500, -500},
		{TxIncoming, 0, 0},
	}

	for _, c := range cases {
		tx := WalletTransaction{Direction: c.direction, AmountSats: c.amount}
		if got := tx.SignedAmount(); got != c.want {
			t.Errorf("SignedAmount(%s, %d) = %d, want %d", c.direction, c.amount, got, c.want)
		}
	}
}

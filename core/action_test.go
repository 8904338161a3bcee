package core

import (
	"testing"

	"github.com/plurality-game/plurality/crypto"
)

func TestActionSignVerify(t *testing.T) {
	priv, pub, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	act, err := NewAction("plurality-test", ActionStake, pub.Hex(), 0, StakePayload{
		Side:   SideWorld,
		Amount: 50,
	})
	if err != nil {
		t.Fatal(err)
	}
	act.Sign(priv)

	if act.ID == "" {
		t.Error("Sign should set the action ID")
	}
	if err := act.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestActionTamperDetection(t *testing.T) {
	priv, pub, _ := crypto.GenerateKeyPair()

	act, _ := NewAction("plurality-test", ActionTransfer, pub.Hex(), 3, TransferPayload{
		To:     "aabb",
		Amount: 100,
	})
	act.Sign(priv)

	act.Nonce = 4
	if err := act.Verify(); err == nil {
		t.Error("tampered nonce should fail verification")
	}
	act.Nonce = 3

	act.Network = "other-net"
	if err := act.Verify(); err == nil {
		t.Error("tampered network should fail verification")
	}
	act.Network = "plurality-test"

	if err := act.Verify(); err != nil {
		t.Errorf("restored action should verify: %v", err)
	}
}

func TestActionVerifyRejectsBadFrom(t *testing.T) {
	act, _ := NewAction("plurality-test", ActionTransfer, "not-a-pubkey", 0, TransferPayload{To: "x", Amount: 1})
	if err := act.Verify(); err == nil {
		t.Error("invalid from pubkey should fail verification")
	}

	act.From = ""
	if err := act.Verify(); err == nil {
		t.Error("empty from should fail verification")
	}
}

package cardano

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/escrowd/coordinator/ledger"
)

// newPaymentKeyPair generates a fresh Ed25519 payment keypair and derives
// a bech32-free placeholder address from its public key. No third-party
// Cardano address-encoding library is available in the reference corpus
// (see DESIGN.md); the public key itself (not a hash of it) is hex-encoded
// rather than bech32-encoded, which is sufficient for this coordinator's own
// bookkeeping since it never needs to present the address to a human.
func newPaymentKeyPair() (string, []byte, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return "", nil, err
	}
	address := "addr_" + hex.EncodeToString(pub)
	return address, priv, nil
}

// buildAndSignTransfer constructs a single-output transfer and signs it
// with the Ed25519 key in secret, returning base64 of the text body
// followed by its signature; the payload is not CBOR-encoded. Real UTXO
// selection and fee computation
// are intentionally out of scope for this reference adapter (no worked
// example exists in the pack); the payload shape is a placeholder that
// documents the signing step's position in the pipeline.
func buildAndSignTransfer(secret []byte, from, to string, asset ledger.Asset, amount *big.Int) (string, error) {
	if len(secret) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("cardano: signing key has unexpected length %d", len(secret))
	}

	body := []byte(fmt.Sprintf("%s:%s:%s:%s", from, to, asset, amount.String()))
	sig := ed25519.Sign(ed25519.PrivateKey(secret), body)

	payload := append(append([]byte{}, body...), sig...)
	return base64.StdEncoding.EncodeToString(payload), nil
}

// waitForConfirmation polls ResolveTx until the transaction reaches
// validated inclusion or the context is done.
func waitForConfirmation(ctx context.Context, a *Adapter, txHash string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tx, err := a.ResolveTx(ctx, txHash)
			if err != nil {
				continue
			}
			if tx.Validated {
				return nil
			}
		}
	}
}

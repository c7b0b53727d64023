package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/playperu/geoparty/internal/kv"
)

// idAlphabet omits characters that are easily confused when read aloud
// or copied by hand (0/O, 1/I/L).
const (
	idAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	idLength   = 6
	idAttempts = 5
)

func randomID() (string, error) {
	limit := big.NewInt(int64(len(idAlphabet)))
	b := make([]byte, idLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return string(b), nil
}

// newID returns an ID not currently present in the store.
func (c *Coordinator) newID(ctx context.Context) (string, error) {
	for range idAttempts {
		id, err := c.genID()
		if err != nil {
			return "", fmt.Errorf("generating id: %w", err)
		}
		_, err = c.store.Get(ctx, id)
		if errors.Is(err, kv.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking id %s: %w", id, err)
		}
	}
	return "", fmt.Errorf("no free session id after %d attempts", idAttempts)
}

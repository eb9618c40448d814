// Package docnumber genera números legibles de pedidos y compras: PREFIJO-YYYYMMDD-XXXXX.
package docnumber

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/jhoicas/comic-store-api/internal/domain"
)

const (
	suffixLen = 5
	alphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ExistsFunc consulta si un número ya está en uso.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// Generator produce números con sufijo aleatorio y reintenta ante colisión.
// La restricción UNIQUE en almacenamiento sigue siendo la garantía definitiva.
type Generator struct {
	Prefix      string
	MaxAttempts int
	Now         func() time.Time
	Random      func(n int) string
}

// New construye un generador con reloj y aleatoriedad por defecto.
func New(prefix string, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &Generator{Prefix: prefix, MaxAttempts: maxAttempts, Now: time.Now, Random: randomSuffix}
}

// Format arma el número para una fecha y sufijo dados.
func Format(prefix string, date time.Time, suffix string) string {
	return prefix + "-" + date.Format("20060102") + "-" + suffix
}

// Next devuelve un número libre según exists. Tras MaxAttempts colisiones devuelve
// domain.ErrDocumentNumberExhausted.
func (g *Generator) Next(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < g.MaxAttempts; i++ {
		number := Format(g.Prefix, g.Now(), g.Random(suffixLen))
		taken, err := exists(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
	return "", domain.ErrDocumentNumberExhausted
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	limit := big.NewInt(int64(len(alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand no falla en plataformas soportadas
			panic(err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b)
}

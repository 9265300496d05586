// utilitários pequenos para formatar valores numéricos em headers de forma consistente.

package ratelimit

import (
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

// formatSeconds arredonda para cima: Retry-After de 0.2s vira "1", nunca "0".
func formatSeconds(d time.Duration) string {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func formatUnix(t time.Time) string { return strconv.FormatInt(t.Unix(), 10) }

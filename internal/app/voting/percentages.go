package voting

import "math"

// Percentages arredonda cada lado e corrige o resíduo no lado com mais votos (chad no empate),
// de modo que a soma seja sempre 100. Sem votos o resultado é 50/50.
func Percentages(chad, jeet int64) (int, int) {
	total := chad + jeet
	if total <= 0 {
		return 50, 50
	}

	c := int(math.Round(100 * float64(chad) / float64(total)))
	j := int(math.Round(100 * float64(jeet) / float64(total)))
	if c+j != 100 {
		if jeet > chad {
			j = 100 - c
		} else {
			c = 100 - j
		}
	}
	return c, j
}

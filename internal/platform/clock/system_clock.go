package clock

import "time"

// SystemClock trunca para milissegundos: é a precisão que Postgres, Mongo e Redis guardam.
type SystemClock struct{}

func NewSystemClock() SystemClock {
	return SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

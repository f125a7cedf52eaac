package commands

import (
	"strconv"
	"time"

	"github.com/activecm/rita-flow/util"
)

// helper functions for formatting floats, integers and instants
func f(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
func i(i int64) string {
	return strconv.FormatInt(i, 10)
}
func ts(t time.Time) string {
	return t.UTC().Format(util.TimeFormat)
}

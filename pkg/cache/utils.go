package cache

import (
	"fmt"
	"strings"
)

// Key joins a prefix and parts with ':'.
func Key(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}

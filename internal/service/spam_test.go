package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpamFilter(t *testing.T) {
	f := DefaultSpamFilter()
	cases := []struct {
		msg  string
		spam bool
	}{
		{"We would like a quote for a steel frame extension.", false},
		{"Drawings at https://example.com/a and http://example.com/b", false},
		{"https://a.example https://b.example https://c.example", true},
		{"HTTP://A.EXAMPLE hTtPs://b.example http://c.example", true},
		{"Click Here to claim", true},
		{"BUY NOW", true},
		{"please click the button here", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.spam, f.IsSpam(tc.msg), tc.msg)
	}
}

func TestHoneypotTripped(t *testing.T) {
	assert.False(t, HoneypotTripped(""))
	assert.True(t, HoneypotTripped(" "))
	assert.True(t, HoneypotTripped("https://bot.example"))
}

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_NormalizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DEVEUI", "AT+DEVEUI=?"},
		{" AT+VER=? ", "AT+VER=?"},
		{"AT+APPKEY", "AT+APPKEY=?"},
		{"AT+BAND=4", "AT+BAND=4"},
		{"AT", "AT"},
		{"at+ver=?", "at+ver=?"},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			assert.Equal(t, test.want, normalizeCommand(test.in))
		})
	}
}

func Test_DefaultPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AT+DEVEUI=?", "AT+DEVEUI="},
		{"AT+BAND=4", "AT+BAND="},
		{"AT", "AT"},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			assert.Equal(t, test.want, defaultPrefix(test.in))
		})
	}
}

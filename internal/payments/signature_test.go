package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	const secret = "099eb0cd-02cf-4e2a-8aca-3e6c6aff0399"

	tests := []struct {
		name     string
		payload  string
		path     string
		keyIndex string
		want     string
	}{
		{
			name:     "pay request",
			payload:  "eyJtZXJjaGFudElkIjoiTUVSQ0hBTlQifQ==",
			path:     "/pg/v1/pay",
			keyIndex: "1",
			want:     "45e894765d32b12ca7c2a9362c36a56c38de95d65fe7af0752f5ca3075359dd8###1",
		},
		{
			name:     "status request",
			payload:  "",
			path:     "/pg/v1/status/MERCHANT/TXN123",
			keyIndex: "2",
			want:     "8b46f7140ecc735418c485172c89b5ca07c30b9d5c4832228b4689c5f34f6866###2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sign(tt.payload, tt.path, secret, tt.keyIndex))
		})
	}
}

func TestFormatMajor(t *testing.T) {
	tests := []struct {
		minor int64
		want  string
	}{
		{minor: 0, want: "0.00"},
		{minor: 5, want: "0.05"},
		{minor: 500, want: "5.00"},
		{minor: 12345, want: "123.45"},
		{minor: -150, want: "-1.50"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMajor(tt.minor))
	}
}

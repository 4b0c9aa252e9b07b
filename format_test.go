package main

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFormatNationalID(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "12.345.678-5", want: "12.345.678-5"},
		{raw: "123456785", want: "12.345.678-5"},
		{raw: " 12345678-5 ", want: "12.345.678-5"},
		{raw: "012.345.678-5", want: "12.345.678-5"},
		{raw: "7654321-6", want: "7.654.321-6"},
		{raw: "10000013-k", want: "10.000.013-K"},
		{raw: "10000004-0", want: "10.000.004-0"},
		{raw: "6-K", want: "6-K"},
		{raw: "12.345.678-4", wantErr: true},
		{raw: "1K.345.678-5", wantErr: true},
		{raw: "K", wantErr: true},
		{raw: "0-0", wantErr: true},
		{raw: "", wantErr: true},
		{raw: "123456789012", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := FormatNationalID(tt.raw)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidNationalID))
				assert.False(t, ValidNationalID(tt.raw))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, ValidNationalID(tt.raw))
		})
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "912345678", want: "+56 9 1234 5678"},
		{raw: "+56 9 1234 5678", want: "+56 9 1234 5678"},
		{raw: "56912345678", want: "+56 9 1234 5678"},
		{raw: "+56-9-1234-5678", want: "+56 9 1234 5678"},
		{raw: "(2) 2234-5678", want: "+56 2 2234 5678"},
		{raw: "12345", wantErr: true},
		{raw: "091234567", wantErr: true},
		{raw: "+56 9 1234 567a", wantErr: true},
		{raw: "9+12345678", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := FormatPhone(tt.raw)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidPhone))
				assert.False(t, ValidPhone(tt.raw))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, ValidPhone(tt.raw))
		})
	}
}

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0412 345 678", "+61412345678"},
		{"61412345678", "+61412345678"},
		{"(08) 9335 1234", "+61893351234"},
		{"+61 8 9335 1234", "+61893351234"},
		{"1300 655 506", "+611300655506"},
		{"", ""},
		{"abc", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Phone(tt.in), "input %q", tt.in)
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.apexplumbing.com.au/contact", "apexplumbing.com.au"},
		{"http://apexplumbing.com.au", "apexplumbing.com.au"},
		{"apexplumbing.com.au/about", "apexplumbing.com.au"},
		{"https://Apexplumbing.COM.AU:8080", "apexplumbing.com.au"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Domain(tt.in), "input %q", tt.in)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Apex Plumbing Pty Ltd", "APEX PLUMBING"},
		{"O'Brien & Sons Plumbing", "OBRIEN AND SONS PLUMBING"},
		{"  José's   Gas-Fitting  ", "JOSES GAS FITTING"},
		{"Reliable Plumbing Co.", "RELIABLE PLUMBING"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Name(tt.in), "input %q", tt.in)
	}
}

func TestPayloadHash_KeyOrderIndependent(t *testing.T) {
	a, err := PayloadHash([]byte(`{"name":"Apex","phone":"0412 345 678"}`))
	assert.NoError(t, err)
	b, err := PayloadHash([]byte(`{ "phone": "0412 345 678", "name": "Apex" }`))
	assert.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPayloadHash_DistinctPayloads(t *testing.T) {
	a, err := PayloadHash([]byte(`{"name":"Apex"}`))
	assert.NoError(t, err)
	b, err := PayloadHash([]byte(`{"name":"Zenith"}`))
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPayloadHash_InvalidJSON(t *testing.T) {
	_, err := PayloadHash([]byte(`{not json`))
	assert.Error(t, err)
}

func TestPayloadHash_Empty(t *testing.T) {
	h, err := PayloadHash(nil)
	assert.NoError(t, err)
	assert.Len(t, h, 64)
}

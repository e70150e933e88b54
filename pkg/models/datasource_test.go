package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/ekaya-export/pkg/apperrors"
)

func TestCredentials_Validate(t *testing.T) {
	tests := []struct {
		name    string
		creds   Credentials
		wantErr bool
	}{
		{name: "integrated", creds: Integrated()},
		{name: "zero value is integrated", creds: Credentials{}},
		{name: "explicit", creds: Explicit("reader", "secret")},
		{name: "missing user", creds: Explicit("  ", "secret"), wantErr: true},
		{name: "missing password", creds: Explicit("reader", ""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCredentials_Mode(t *testing.T) {
	assert.Equal(t, AuthIntegrated, Credentials{}.Mode())
	assert.True(t, Integrated().IsIntegrated())
	assert.Empty(t, Integrated().Username())

	c := Explicit("reader", "secret")
	assert.Equal(t, AuthExplicit, c.Mode())
	assert.Equal(t, "reader", c.Username())
	assert.Equal(t, "secret", c.Password())
}

func TestCredentials_StringHidesPassword(t *testing.T) {
	c := Explicit("reader", "s3cret")
	assert.Equal(t, "explicit(reader)", c.String())
	assert.NotContains(t, c.String(), "s3cret")
	assert.Equal(t, "integrated", Integrated().String())
}

func TestEndpoint_Equal(t *testing.T) {
	assert.True(t, Endpoint(`dbhost\sqlexpress`).Equal(`DBHOST\SQLEXPRESS`))
	assert.True(t, Endpoint(" DBHOST ").Equal("dbhost"))
	assert.False(t, Endpoint("DBHOST").Equal(`DBHOST\SQLEXPRESS`))
}

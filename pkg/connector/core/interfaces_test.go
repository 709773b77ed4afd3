package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

func TestKeyOf(t *testing.T) {
	tests := []struct {
		name    string
		keyer   Keyer
		want    string
		wantErr bool
	}{
		{name: "descriptor", keyer: Describe(KindSQL, SourceBigQuery), want: "SQLBigQuery"},
		{name: "postgres", keyer: Describe(KindSQL, SourcePostgres), want: "SQLPostgreSQL"},
		{name: "nil", keyer: nil, wantErr: true},
		{name: "missing source", keyer: Describe(KindSQL, ""), wantErr: true},
		{name: "missing kind", keyer: Describe("", SourceMySQL), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyOf(tt.keyer)
			if tt.wantErr {
				assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArguments))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyRunOptions(t *testing.T) {
	assert.Equal(t, 1000, ApplyRunOptions(1000).MaxRows)
	assert.Equal(t, 10, ApplyRunOptions(1000, WithMaxRows(10)).MaxRows)
	assert.Equal(t, 1000, ApplyRunOptions(1000, WithMaxRows(0)).MaxRows)
}

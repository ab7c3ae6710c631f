package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnquote(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: `credit_card`, want: `credit_card`},
		{in: `"\d{4}"`, want: `\d{4}`},
		{in: `'\d{4}'`, want: `\d{4}`},
		{in: `""`, want: ``},
		{in: ``, want: ``},
		{in: `\d"`, want: `\d"`},
		{in: `"`, wantErr: true},
		{in: `'`, wantErr: true},
		{in: `"\d{4}`, wantErr: true},
		{in: `"\d{4}'`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Unquote(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

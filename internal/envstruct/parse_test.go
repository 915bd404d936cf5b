package envstruct_test

import (
	"strings"
	"testing"
	"time"

	"github.com/myrjola/mysteries/internal/envstruct"
	"github.com/stretchr/testify/require"
)

func TestPopulate(t *testing.T) {
	type args struct {
		v         any
		lookupEnv func(string) (string, bool)
	}
	unset := func(_ string) (string, bool) { return "", false }
	tests := []struct {
		name    string
		args    args
		want    any
		wantErr error
	}{
		{
			name:    "nil",
			args:    args{v: nil, lookupEnv: unset},
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name:    "not pointer",
			args:    args{v: struct{}{}, lookupEnv: unset},
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "empty struct",
			args: args{v: &struct{}{}, lookupEnv: unset},
			want: &struct{}{},
		},
		{
			name: "empty env",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Addr string `env:"MYSTERIES_ADDR"`
				}{},
				lookupEnv: unset,
			},
			wantErr: envstruct.ErrEnvNotSet,
		},
		{
			name: "picks correct env variable",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Addr       string `env:"MYSTERIES_ADDR"`
					SqliteURL  string `env:"MYSTERIES_SQLITE_URL"`
					OtherValue string
				}{},
				lookupEnv: func(s string) (string, bool) { return strings.ToLower(s), true },
			},
			want: &struct {
				Addr       string
				SqliteURL  string
				OtherValue string
			}{Addr: "mysteries_addr", SqliteURL: "mysteries_sqlite_url", OtherValue: ""},
		},
		{
			name: "handles default values of every supported type",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Model   string        `env:"MODEL" envDefault:"gpt-3.5-turbo"`
					Seed    bool          `env:"SEED" envDefault:"true"`
					Tokens  int           `env:"TOKENS" envDefault:"900"`
					Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
				}{},
				lookupEnv: unset,
			},
			want: &struct {
				Model   string
				Seed    bool
				Tokens  int
				Timeout time.Duration
			}{Model: "gpt-3.5-turbo", Seed: true, Tokens: 900, Timeout: time.Minute},
		},
		{
			name: "environment overrides default",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "250ms", true },
			},
			want: &struct{ Timeout time.Duration }{Timeout: 250 * time.Millisecond},
		},
		{
			name: "invalid duration",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Timeout time.Duration `env:"TIMEOUT"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "soon", true },
			},
			wantErr: envstruct.ErrParse,
		},
		{
			name: "invalid bool",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Seed bool `env:"SEED"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "maybe", true },
			},
			wantErr: envstruct.ErrParse,
		},
		{
			name: "rejects unsupported types",
			args: args{
				v: &struct { //nolint:exhaustruct // populated later
					Ratio float64 `env:"RATIO"`
				}{},
				lookupEnv: func(_ string) (string, bool) { return "0.5", true },
			},
			wantErr: envstruct.ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.args.v
			err := envstruct.Populate(v, tt.args.lookupEnv)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.EqualValues(t, tt.want, v)
		})
	}
}

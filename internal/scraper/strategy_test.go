package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepulse/internal/shared/testutil"
)

func strategy(name string, value string, ok bool, err error, calls *[]string) Strategy[string] {
	return Strategy[string]{
		Name: name,
		Extract: func(context.Context) (string, bool, error) {
			*calls = append(*calls, name)
			return value, ok, err
		},
	}
}

func TestResolve(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		build     func(calls *[]string) []Strategy[string]
		want      string
		wantName  string
		wantCalls []string
		wantErr   error
	}{
		{
			name: "first success wins",
			build: func(c *[]string) []Strategy[string] {
				return []Strategy[string]{
					strategy("a", "A", true, nil, c),
					strategy("b", "B", true, nil, c),
				}
			},
			want:      "A",
			wantName:  "a",
			wantCalls: []string{"a"},
		},
		{
			name: "falls through absent and failing strategies",
			build: func(c *[]string) []Strategy[string] {
				return []Strategy[string]{
					strategy("a", "", false, nil, c),
					strategy("b", "", false, boom, c),
					strategy("c", "C", true, nil, c),
				}
			},
			want:      "C",
			wantName:  "c",
			wantCalls: []string{"a", "b", "c"},
		},
		{
			name: "static default ends the chain",
			build: func(c *[]string) []Strategy[string] {
				return []Strategy[string]{
					strategy("a", "", false, boom, c),
					Static("default", "Chroma 3 Case"),
				}
			},
			want:      "Chroma 3 Case",
			wantName:  "default",
			wantCalls: []string{"a"},
		},
		{
			name: "all fail",
			build: func(c *[]string) []Strategy[string] {
				return []Strategy[string]{
					strategy("a", "", false, boom, c),
					strategy("b", "", false, nil, c),
				}
			},
			wantCalls: []string{"a", "b"},
			wantErr:   boom,
		},
		{
			name:    "empty chain",
			build:   func(*[]string) []Strategy[string] { return nil },
			wantErr: ErrNoStrategy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			var calls []string

			got, name, err := Resolve(context.Background(), logger, tt.build(&calls)...)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrNoStrategy)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls []string
	_, _, err := Resolve(ctx, nil, strategy("a", "A", true, nil, &calls))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}

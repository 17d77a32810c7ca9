package enum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type color string

var (
	red  = New(color("red"))
	blue = New(color("blue"))
)

func Test_enum(t *testing.T) {
	require.Equal(t, "red", ToString(red))
	require.Equal(t, "blue", ToString(blue))
	require.Empty(t, ToString(color("green")))

	value, err := ToEnum[color]("red")
	require.NoError(t, err)
	require.Equal(t, red, value)

	_, err = ToEnum[color]("green")
	require.Error(t, err)
}

package jwt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIssueParseRoundTrip(t *testing.T) {
	token, err := Issue("secret", 42, "admin", 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAuth("Bearer "+token, "secret")
	require.NoError(t, err)

	require.Equal(t, float64(42), claims["sub"])
	require.Equal(t, "admin", claims["role"])
}

func TestParseAuth_BareToken(t *testing.T) {
	token, err := Issue("secret", 7, "reader", 1)
	require.NoError(t, err)

	claims, err := ParseAuth(token, "secret")
	require.NoError(t, err)
	require.Equal(t, "reader", claims["role"])
}

func TestParseAuth_WrongSecret(t *testing.T) {
	token, err := Issue("secret", 1, "reader", 1)
	require.NoError(t, err)

	_, err = ParseAuth("Bearer "+token, "other-secret")
	require.Error(t, err)
}

func TestParseAuth_Expired(t *testing.T) {
	token, err := Issue("secret", 1, "reader", -1)
	require.NoError(t, err)

	_, err = ParseAuth("Bearer "+token, "secret")
	require.Error(t, err)
}

func TestParseAuth_MissingHeader(t *testing.T) {
	_, err := ParseAuth("", "secret")
	require.Error(t, err)

	_, err = ParseAuth("Bearer   ", "secret")
	require.Error(t, err)
}

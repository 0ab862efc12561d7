package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mbellot/parley/internal/domain"
)

func Test_Token_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	u := &domain.User{ID: "u1", Username: "alice"}
	token, err := issuer.Generate(u)
	req.NoError(err)

	claims, err := issuer.Validate(token)
	req.NoError(err)
	req.Equal("u1", claims.UserID)
	req.Equal("alice", claims.Username)
}

func Test_Token_Expired_Rejected(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Generate(&domain.User{ID: "u1", Username: "alice"})
	req.NoError(err)

	_, err = issuer.Validate(token)
	req.Error(err)
}

func Test_Token_Wrong_Secret_Rejected(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	token, err := issuer.Generate(&domain.User{ID: "u1", Username: "alice"})
	req.NoError(err)

	_, err = other.Validate(token)
	req.Error(err)
}

func Test_Token_Garbage_Rejected(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	_, err := issuer.Validate("not.a.token")
	req.Error(err)
}

func Test_Password_Hash_And_Compare(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("correct horse battery staple")
	req.NoError(err)
	req.Contains(hash, "$argon2id$")

	ok, err := ComparePassword("correct horse battery staple", hash)
	req.NoError(err)
	req.True(ok)

	ok, err = ComparePassword("wrong password", hash)
	req.NoError(err)
	req.False(ok)
}

func Test_Password_Hashes_Are_Salted(t *testing.T) {
	req := require.New(t)

	h1, err := HashPassword("same password")
	req.NoError(err)
	h2, err := HashPassword("same password")
	req.NoError(err)
	req.NotEqual(h1, h2)
}

func Test_Password_Bad_Hash_Format(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "not-an-encoded-hash")
	req.ErrorIs(err, ErrInvalidHashFormat)
}

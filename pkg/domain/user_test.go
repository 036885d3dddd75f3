package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserValid(t *testing.T) {
	cases := []struct {
		name string
		u    *User
		want bool
	}{
		{"nil", nil, false},
		{"complete", &User{ID: "u1", Email: "a@b.com", Role: RoleUser}, true},
		{"admin", &User{ID: "u1", Email: "a@b.com", Role: RoleAdmin}, true},
		{"missing id", &User{Email: "a@b.com", Role: RoleUser}, false},
		{"missing email", &User{ID: "u1", Role: RoleUser}, false},
		{"writer is not a role", &User{ID: "u1", Email: "a@b.com", Role: "writer"}, false},
		{"empty role", &User{ID: "u1", Email: "a@b.com"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.u.Valid())
		})
	}
}

func TestUserJSONFieldNames(t *testing.T) {
	var u User
	raw := `{"_id":"u1","email":"a@b.com","role":"user","isWriter":true,"profile":{"avatarUrl":"https://x/y.png"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.IsWriter)
	assert.Equal(t, "https://x/y.png", u.Profile.AvatarURL)
	assert.True(t, u.Valid())
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "a@b.com", (&User{Email: "a@b.com"}).FullName())
}

package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw     string
		want    Level
		wantErr bool
	}{
		{raw: "read", want: LevelRead},
		{raw: "EDIT", want: LevelEdit},
		{raw: " owner ", want: LevelOwner},
		{raw: "admin", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tc := range cases {
		level, err := ParseLevel(tc.raw)
		if tc.wantErr {
			require.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, level)
	}
}

func TestLevelOrdering(t *testing.T) {
	require.True(t, LevelOwner.AtLeast(LevelEdit))
	require.True(t, LevelOwner.AtLeast(LevelOwner))
	require.True(t, LevelEdit.AtLeast(LevelRead))
	require.False(t, LevelRead.AtLeast(LevelEdit))
	require.False(t, LevelEdit.AtLeast(LevelOwner))
}

func TestUnknownLevelNeverSatisfiesACheck(t *testing.T) {
	unknown := Level("superuser")

	require.False(t, unknown.Valid())
	require.False(t, unknown.AtLeast(LevelRead))
	// Known levels must not treat an unknown level as a floor either.
	require.False(t, LevelOwner.AtLeast(unknown))
}

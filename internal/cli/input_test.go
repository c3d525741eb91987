package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(in, "Again?", &out)
	require.Error(t, err)
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
	assert.Contains(t, out.String(), "Vault passphrase: ")

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetPassword(&out)
	require.Error(t, err)
}

func TestParseYesNo(t *testing.T) {
	for _, s := range []string{"y", "Yes", " YES "} {
		ok, err := ParseYesNo(s)
		require.NoError(t, err)
		assert.True(t, ok, s)
	}
	for _, s := range []string{"n", "No"} {
		ok, err := ParseYesNo(s)
		require.NoError(t, err)
		assert.False(t, ok, s)
	}
	_, err := ParseYesNo("maybe")
	require.Error(t, err)
}

func TestParseAssignments(t *testing.T) {
	f, err := ParseAssignments([]string{"user=hero", "PASSWORD=a=b", "lv=3", "xp=120", "xpMax=900"})
	require.NoError(t, err)

	require.NotNil(t, f.Username)
	assert.Equal(t, "hero", *f.Username)
	require.NotNil(t, f.Password)
	assert.Equal(t, "a=b", *f.Password)
	assert.Equal(t, 3, *f.Level)
	assert.Equal(t, 120, *f.XP)
	assert.Equal(t, 900, *f.XPMax)
}

func TestParseAssignments_EmptyValueClearsText(t *testing.T) {
	f, err := ParseAssignments([]string{"username="})
	require.NoError(t, err)
	require.NotNil(t, f.Username)
	assert.Equal(t, "", *f.Username)
	assert.Nil(t, f.Level)
}

func TestParseAssignments_Errors(t *testing.T) {
	tests := map[string][]string{
		"missing equals": {"hero"},
		"unknown field":  {"color=red"},
		"bad number":     {"level=high"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAssignments(args)
			require.Error(t, err)
		})
	}

	_, err := ParseAssignments([]string{"hero"})
	require.ErrorIs(t, err, ErrBadAssignment)
}

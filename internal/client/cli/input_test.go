package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("  upload docs \nlastline"))

	got, err := readLine(in)
	if err != nil || got != "upload docs" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	got, err = readLine(in)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if _, err = readLine(in); err == nil {
		t.Fatal("expected EOF after the last line")
	}
}

func TestGetSecret(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()

	readPassword = func(int) ([]byte, error) { return []byte("abandon about"), nil }
	var out bytes.Buffer
	got, err := GetSecret(&out, "Mnemonic: ")
	require.NoError(t, err)
	require.Equal(t, "abandon about", string(got))
	require.Equal(t, "Mnemonic: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetSecret(&out, "Mnemonic: ")
	if err == nil {
		t.Fatal("expected error")
	}
}

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetMetadata(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Unix newlines, stop on empty line",
			input:    "a=1\nb=2\n\n",
			expected: []string{"a=1", "b=2"},
		},
		{
			name:     "Windows CRLF, stop on empty line",
			input:    "a=1\r\nb=2\r\n\r\n",
			expected: []string{"a=1", "b=2"},
		},
		{
			name:     "Immediate blank line gives empty slice",
			input:    "\n",
			expected: []string{},
		},
		{
			name:     "EOF without trailing blank line",
			input:    "a=1\nb=2",
			expected: []string{"a=1", "b=2"},
		},
		{
			name:     "Spaces are preserved (no trimming except CR/LF)",
			input:    " name = value \n\n",
			expected: []string{" name = value "},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetMetadata(rdr(tc.input), &out)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

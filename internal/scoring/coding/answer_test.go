package coding

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, "go", LanguageFor("main.go"))
	assert.Equal(t, "c++", LanguageFor("/tmp/sol.CPP"))
	assert.Equal(t, DefaultLanguage, LanguageFor("solution"))
}

func TestEncodeAnswerRoundTripsThroughParse(t *testing.T) {
	in := Answer{Language: "go", Code: "package main\n\nfunc main() {\"x\"}\n"}
	assert.Equal(t, in, ParseAnswer(EncodeAnswer(in)))
}

func TestReadAnswerFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sum.js")
	require.NoError(t, os.WriteFile(path, []byte("console.log(1)\n"), 0o644))

	raw, err := ReadAnswerFile(path)
	require.NoError(t, err)
	a := ParseAnswer(raw)
	assert.Equal(t, "javascript", a.Language)
	assert.Equal(t, "console.log(1)\n", a.Code)

	empty := filepath.Join(dir, "empty.py")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))
	_, err = ReadAnswerFile(empty)
	assert.Error(t, err)

	_, err = ReadAnswerFile(filepath.Join(dir, "missing.py"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

package redirect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SimpleOutput(t *testing.T) {
	clean, redirs := Extract("echo hi > out.txt")
	assert.Equal(t, "echo hi", clean)
	require.Len(t, redirs, 1)
	assert.Equal(t, KindFile, redirs[0].Kind)
	assert.Equal(t, DirOutput, redirs[0].Direction)
	assert.Equal(t, "out.txt", redirs[0].Target)
}

func TestExtract_Append(t *testing.T) {
	clean, redirs := Extract("printf hi >> out.log")
	assert.Equal(t, "printf hi", clean)
	require.Len(t, redirs, 1)
	assert.Equal(t, DirAppend, redirs[0].Direction)
}

func TestExtract_BothAppend(t *testing.T) {
	clean, redirs := Extract("printf hi &>> out.log")
	assert.Equal(t, "printf hi", clean)
	require.Len(t, redirs, 1)
	assert.Equal(t, DirBoth, redirs[0].Direction)
	assert.Equal(t, "APPEND::out.log", redirs[0].Target)
}

func TestExtract_HereDoc(t *testing.T) {
	clean, redirs := Extract("cat << EOF")
	assert.Equal(t, "cat", clean)
	require.Len(t, redirs, 1)
	assert.Equal(t, KindHereDoc, redirs[0].Kind)
	assert.Equal(t, "EOF", redirs[0].Target)
	assert.False(t, redirs[0].StripTabs)
}

func TestExtract_HereDocStripTabs(t *testing.T) {
	_, redirs := Extract("cat <<- EOF")
	require.Len(t, redirs, 1)
	assert.True(t, redirs[0].StripTabs)
}

func TestExtract_HereString(t *testing.T) {
	clean, redirs := Extract("grep foo <<< bar")
	assert.Equal(t, "grep foo", clean)
	require.Len(t, redirs, 1)
	assert.Equal(t, KindHereString, redirs[0].Kind)
	assert.Equal(t, "bar", redirs[0].Target)
}

func TestExtract_FDDuplication(t *testing.T) {
	clean, redirs := Extract("cmd 2>&1")
	assert.Equal(t, "cmd", clean)
	require.Len(t, redirs, 1)
	assert.Equal(t, KindFD, redirs[0].Kind)
	assert.Equal(t, 2, redirs[0].FD)
	assert.Equal(t, 1, redirs[0].DupFD)
}

func TestExtract_FDClose(t *testing.T) {
	_, redirs := Extract("cmd 3>&-")
	require.Len(t, redirs, 1)
	assert.Equal(t, -1, redirs[0].DupFD)
}

func TestExtract_IgnoresOperatorsInsideQuotes(t *testing.T) {
	clean, redirs := Extract(`echo "a > b"`)
	assert.Equal(t, `echo "a > b"`, clean)
	assert.Empty(t, redirs)
}

func TestExtract_MultipleRedirectionsPreserveOrder(t *testing.T) {
	clean, redirs := Extract("cmd < in.txt > out.txt 2> err.txt")
	assert.Equal(t, "cmd", clean)
	require.Len(t, redirs, 3)
	assert.Equal(t, "in.txt", redirs[0].Target)
	assert.Equal(t, "out.txt", redirs[1].Target)
	assert.Equal(t, DirError, redirs[2].Direction)
	assert.Equal(t, "err.txt", redirs[2].Target)
}

func TestExtract_StderrRedirection(t *testing.T) {
	_, redirs := Extract("cmd 2>> err.log")
	require.Len(t, redirs, 1)
	assert.Equal(t, DirErrorAppend, redirs[0].Direction)
}

package checker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultOrdering(t *testing.T) {
	p := testContext(t, "sample")
	r := NewResult(p)

	r.AddMessage(false, "late column", MessageOptions{File: "b.php", Line: 3, Column: 9})
	r.AddMessage(true, "early line", MessageOptions{File: "b.php", Line: 1, Column: 1})
	r.AddMessage(true, "first file", MessageOptions{File: "a.php", Line: 10})
	r.AddMessage(false, "same spot 1", MessageOptions{File: "b.php", Line: 3, Column: 2})
	r.AddMessage(true, "same spot 2", MessageOptions{File: "b.php", Line: 3, Column: 2})

	require.Equal(t, []string{"b.php", "a.php"}, r.Files())

	var texts []string
	for _, m := range r.Messages() {
		texts = append(texts, m.Text)
	}
	require.Equal(t, []string{"early line", "same spot 1", "same spot 2", "late column", "first file"}, texts)

	require.Equal(t, 3, r.ErrorCount())
	require.Equal(t, 2, r.WarningCount())
	require.Len(t, r.Errors(), 3)
	require.Len(t, r.Warnings(), 2)
	require.Len(t, r.FileMessages("b.php"), 4)
	require.Empty(t, r.FileMessages("missing.php"))
}

func TestResultRelativizesPluginPaths(t *testing.T) {
	p := testContext(t, "sample")
	r := NewResult(p)

	r.AddMessage(true, "x", MessageOptions{File: p.Path("includes/file.php")})

	msgs := r.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "includes/file.php", msgs[0].File)
	require.Equal(t, "ERROR", msgs[0].Type())
}

func TestResultAttributesCurrentCheck(t *testing.T) {
	r := NewResult(testContext(t, "sample"))

	r.setCurrentCheck("first")
	r.AddMessage(false, "a", MessageOptions{})
	r.setCurrentCheck("second")
	r.AddMessage(false, "b", MessageOptions{})

	msgs := r.Messages()
	require.Equal(t, "first", msgs[0].Check)
	require.Equal(t, "second", msgs[1].Check)
	require.Equal(t, "WARNING", msgs[1].Type())
}

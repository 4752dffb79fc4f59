package impsort

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sumatoshi-tech/impsort/pkg/javasyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sortedBasic = `package com.example.app;

import java.util.List;
import java.util.Map;

import com.example.util.Helper;

public class App {
    private List<String> names;
    private Map<String, Helper> helpers;
}
`

const shuffledBasic = `package com.example.app;

import com.example.util.Helper;
import java.util.Map;
import java.util.List;

public class App {
    private List<String> names;
    private Map<String, Helper> helpers;
}
`

const commentedShuffled = `package com.example;

// helper utilities
import com.example.util.Helper; // keep close
import java.util.List;

public class App {
    private List<Helper> helpers;
}
`

const commentedSorted = `package com.example;

import java.util.List;

// helper utilities
import com.example.util.Helper; // keep close

public class App {
    private List<Helper> helpers;
}
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()

	parser, err := javasyntax.NewParser()
	require.NoError(t, err)

	engine, err := New(cfg, parser, discardLogger())
	require.NoError(t, err)

	return engine
}

func mustSort(t *testing.T, engine *Engine, content string) *Result {
	t.Helper()

	res, err := engine.Sort(context.Background(), "Test.java", []byte(content))
	require.NoError(t, err)

	return res
}

func importPaths(res *Result) []string {
	paths := make([]string, 0, len(res.Imports()))
	for _, rec := range res.Imports() {
		paths = append(paths, rec.Import())
	}

	return paths
}

func TestNew_NilParser(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil, nil)
	assert.ErrorIs(t, err, ErrNilParser)
}

func TestNew_UnsupportedEncoding(t *testing.T) {
	t.Parallel()

	parser, err := javasyntax.NewParser()
	require.NoError(t, err)

	_, err = New(Config{Encoding: "utf-16"}, parser, nil)
	require.ErrorIs(t, err, ErrUnsupportedEncoding)
	assert.Contains(t, err.Error(), "utf-16")
}

func TestNew_EncodingCaseInsensitive(t *testing.T) {
	t.Parallel()

	parser, err := javasyntax.NewParser()
	require.NoError(t, err)

	for _, encoding := range []string{"", "UTF-8", "utf8", "ISO-8859-1", "US-ASCII"} {
		_, err := New(Config{Encoding: encoding}, parser, nil)
		assert.NoError(t, err, "encoding %q", encoding)
	}
}

func TestSort_EmptyContentReturnsEmptyFile(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res, err := engine.Sort(context.Background(), "Empty.java", nil)
	require.NoError(t, err)

	assert.Same(t, EmptyFile, res)
	assert.True(t, res.IsSorted())
	assert.Empty(t, res.Imports())
	assert.Nil(t, res.Rewritten())
}

func TestSort_AlreadySortedIsFixedPoint(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res := mustSort(t, engine, sortedBasic)

	assert.True(t, res.IsSorted())
	assert.Equal(t, sortedBasic, string(res.Rewritten()))
	assert.Equal(t,
		[]string{"java.util.List", "java.util.Map", "com.example.util.Helper"},
		importPaths(res))
}

func TestSort_ReordersShuffledImports(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res := mustSort(t, engine, shuffledBasic)

	require.False(t, res.IsSorted())
	assert.Equal(t, sortedBasic, string(res.Rewritten()))

	assert.Equal(t,
		[]string{"com.example.util.Helper", "java.util.Map", "java.util.List"},
		importPaths(res))

	again := mustSort(t, engine, string(res.Rewritten()))
	assert.True(t, again.IsSorted())
	assert.Equal(t, res.Rewritten(), again.Rewritten())
}

func TestSort_CommentsTravelWithTheirImport(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res := mustSort(t, engine, commentedShuffled)

	require.False(t, res.IsSorted())
	assert.Equal(t, commentedSorted, string(res.Rewritten()))

	records := res.Imports()
	require.Len(t, records, 2)
	assert.Equal(t, "// helper utilities\n", records[0].Prefix())
	assert.Equal(t, " // keep close", records[0].Suffix())
	assert.Empty(t, records[1].Prefix())
	assert.Empty(t, records[1].Suffix())

	again := mustSort(t, engine, commentedSorted)
	assert.True(t, again.IsSorted())
}

func TestSort_NormalizesStrayBlankLines(t *testing.T) {
	t.Parallel()

	content := "package com.example;\n\n" +
		"import java.util.List;\n\n\n" +
		"import java.util.Map;\n\n" +
		"public class App {\n    private List<String> names;\n    private Map<String, String> tags;\n}\n"
	expected := "package com.example;\n\n" +
		"import java.util.List;\nimport java.util.Map;\n\n" +
		"public class App {\n    private List<String> names;\n    private Map<String, String> tags;\n}\n"

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res := mustSort(t, engine, content)
	require.False(t, res.IsSorted())
	assert.Equal(t, expected, string(res.Rewritten()))

	again := mustSort(t, engine, expected)
	assert.True(t, again.IsSorted())
}

func TestSort_StaticImportsFirstByDefault(t *testing.T) {
	t.Parallel()

	content := `package com.example;

import static org.junit.Assert.assertEquals;
import static org.junit.Assert.assertTrue;

import java.util.List;

public class AppTest {
    void check() {
        assertEquals(1, 1);
        assertTrue(true);
        List<Integer> sizes;
    }
}
`

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res := mustSort(t, engine, content)
	assert.True(t, res.IsSorted())

	records := res.Imports()
	require.Len(t, records, 3)
	assert.True(t, records[0].IsStatic())
	assert.True(t, records[1].IsStatic())
	assert.False(t, records[2].IsStatic())
}

func TestSort_StaticAfterMovesSectionDown(t *testing.T) {
	t.Parallel()

	content := `package com.example;

import static org.junit.Assert.assertEquals;

import java.util.List;

public class AppTest {
    void check() {
        assertEquals(1, 1);
        List<Integer> sizes;
    }
}
`
	expected := `package com.example;

import java.util.List;

import static org.junit.Assert.assertEquals;

public class AppTest {
    void check() {
        assertEquals(1, 1);
        List<Integer> sizes;
    }
}
`

	grouping := DefaultGrouping()
	grouping.StaticAfter = true
	engine := newTestEngine(t, Config{Grouping: grouping})

	res := mustSort(t, engine, content)
	require.False(t, res.IsSorted())
	assert.Equal(t, expected, string(res.Rewritten()))

	again := mustSort(t, engine, expected)
	assert.True(t, again.IsSorted())
}

func TestSort_JoinedStaticsShareTheSequence(t *testing.T) {
	t.Parallel()

	content := `package com.example;

import static java.util.Collections.emptyList;
import java.util.List;

public class App {
    private List<String> names = emptyList();
}
`

	grouping := DefaultGrouping()
	grouping.JoinStaticWithNonStatic = true
	engine := newTestEngine(t, Config{Grouping: grouping})

	res := mustSort(t, engine, content)
	assert.True(t, res.IsSorted())
}

func TestSort_KeepPolicyPreservesCRLF(t *testing.T) {
	t.Parallel()

	content := strings.ReplaceAll(sortedBasic, "\n", "\r\n")

	engine := newTestEngine(t, Config{
		Grouping:   DefaultGrouping(),
		LineEnding: LineEndingKeep,
	})

	res := mustSort(t, engine, content)
	assert.True(t, res.IsSorted())
	assert.Equal(t, content, string(res.Rewritten()))
}

func TestSort_ForcedLFRewritesImportBlockOnly(t *testing.T) {
	t.Parallel()

	content := strings.ReplaceAll(shuffledBasic, "\n", "\r\n")
	expected := "package com.example.app;\r\n\r\n" +
		"import java.util.List;\nimport java.util.Map;\n\nimport com.example.util.Helper;\n" +
		"\r\npublic class App {\r\n" +
		"    private List<String> names;\r\n" +
		"    private Map<String, Helper> helpers;\r\n}\r\n"

	engine := newTestEngine(t, Config{
		Grouping:   DefaultGrouping(),
		LineEnding: LineEndingLF,
	})

	res := mustSort(t, engine, content)
	require.False(t, res.IsSorted())
	assert.Equal(t, expected, string(res.Rewritten()))

	again := mustSort(t, engine, expected)
	assert.True(t, again.IsSorted())
}

func TestSort_KeepPolicyWithoutLineEnding(t *testing.T) {
	t.Parallel()

	content := `import java.lang.System;public class Abc{public static void main(String[] args){System.out.println("Hello");}}`

	engine := newTestEngine(t, Config{
		Grouping:   DefaultGrouping(),
		LineEnding: LineEndingKeep,
	})

	_, err := engine.Sort(context.Background(), "One.java", []byte(content))
	require.Error(t, err)
	assert.EqualError(t, err, "file: One.java; reason: unknown line ending")

	var classified *Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, "One.java", classified.Path)
	assert.Equal(t, ReasonUnknownLineEnding, classified.Reason)
	assert.Nil(t, classified.Diag)
}

func TestSort_AutoPolicyWithoutLineEnding(t *testing.T) {
	t.Parallel()

	content := `import java.lang.System;public class Abc{public static void main(String[] args){System.out.println("Hello");}}`

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res := mustSort(t, engine, content)

	records := res.Imports()
	require.Len(t, records, 1)
	assert.Equal(t, "java.lang.System", records[0].Import())
	assert.False(t, records[0].IsStatic())
	assert.Empty(t, records[0].Prefix())
	assert.Empty(t, records[0].Suffix())

	assert.False(t, res.IsSorted())
	assert.True(t, strings.HasPrefix(
		string(res.Rewritten()),
		"import java.lang.System;"+platformLineEnding))
}

func TestSort_PartialParseIsRefused(t *testing.T) {
	t.Parallel()

	content := `package com.example;

import java.util.List;

public class Broken {
    void wat() { int x = }
}
`

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	_, err := engine.Sort(context.Background(), "Broken.java", []byte(content))
	require.Error(t, err)

	var classified *Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, ReasonPartialParse, classified.Reason)
	require.NotNil(t, classified.Diag)
	assert.Positive(t, classified.Diag.Line)
	assert.Positive(t, classified.Diag.Col)

	msg := err.Error()
	assert.Contains(t, msg, "file: Broken.java; reason: the file contained parse errors")
	assert.Contains(t, msg, "\nerrorMessage: (line ")
}

func TestSort_GarbageContentIsFatal(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	_, err := engine.Sort(context.Background(), "Garbage.java", []byte{0x00, '\n', '\n'})
	require.Error(t, err)

	var classified *Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, ReasonUnableToParse, classified.Reason)
	assert.Contains(t, err.Error(), "reason: unable to successfully parse the file")
	assert.Contains(t, err.Error(), "(line 1,col 1)")
}

func TestSort_RemoveUnusedDropsIdleImports(t *testing.T) {
	t.Parallel()

	content := `package com.example;

import java.util.List;
import java.util.Map;

public class App {
    private List<String> names;
}
`
	expected := `package com.example;

import java.util.List;

public class App {
    private List<String> names;
}
`

	engine := newTestEngine(t, Config{
		Grouping:     DefaultGrouping(),
		RemoveUnused: true,
	})

	res := mustSort(t, engine, content)
	require.False(t, res.IsSorted())
	assert.Equal(t, expected, string(res.Rewritten()))

	assert.Equal(t, []string{"java.util.List", "java.util.Map"}, importPaths(res))
	assert.Equal(t, 1, res.Removed())

	again := mustSort(t, engine, expected)
	assert.True(t, again.IsSorted())
	assert.Equal(t, 0, again.Removed())
}

func TestSort_SamePackageImportIsRemovable(t *testing.T) {
	t.Parallel()

	content := `package com.example;

import com.example.Helper;
import java.util.List;

public class App {
    private Helper helper;
    private List<String> names;
}
`
	expected := `package com.example;

import java.util.List;

public class App {
    private Helper helper;
    private List<String> names;
}
`

	engine := newTestEngine(t, Config{
		Grouping:                 DefaultGrouping(),
		RemoveUnused:             true,
		TreatSamePackageAsUnused: true,
	})

	res := mustSort(t, engine, content)
	require.False(t, res.IsSorted())
	assert.Equal(t, expected, string(res.Rewritten()))
}

func TestSort_WildcardImportIsNeverRemoved(t *testing.T) {
	t.Parallel()

	content := `package com.example;

import java.util.*;

public class App {
    private int size;
}
`

	engine := newTestEngine(t, Config{
		Grouping:     DefaultGrouping(),
		RemoveUnused: true,
	})

	res := mustSort(t, engine, content)
	assert.True(t, res.IsSorted())
	assert.Equal(t, content, string(res.Rewritten()))
}

func TestSort_FileWithoutImports(t *testing.T) {
	t.Parallel()

	content := `package com.example;

public class App {
    private int size;
}
`

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res := mustSort(t, engine, content)
	assert.True(t, res.IsSorted())
	assert.Empty(t, res.Imports())
	assert.Equal(t, content, string(res.Rewritten()))

	start, end := res.Region()
	assert.Zero(t, start)
	assert.Zero(t, end)
}

func TestSort_RegionCoversImportBlock(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res := mustSort(t, engine, sortedBasic)

	start, end := res.Region()
	assert.Equal(t,
		"import java.util.List;\nimport java.util.Map;\n\nimport com.example.util.Helper;\n",
		sortedBasic[start:end])
}

func TestSort_Deterministic(t *testing.T) {
	t.Parallel()

	first := mustSort(t, newTestEngine(t, Config{Grouping: DefaultGrouping()}), shuffledBasic)
	second := mustSort(t, newTestEngine(t, Config{Grouping: DefaultGrouping()}), shuffledBasic)

	assert.Equal(t, first.IsSorted(), second.IsSorted())
	assert.Equal(t, first.Rewritten(), second.Rewritten())
	assert.Equal(t, importPaths(first), importPaths(second))
}

func TestSort_RewrittenOutputIsAFixedPoint(t *testing.T) {
	t.Parallel()

	fixtures := map[string]string{
		"shuffled":        shuffledBasic,
		"comments":        commentedShuffled,
		"crlf_shuffled":   strings.ReplaceAll(shuffledBasic, "\n", "\r\n"),
		"two_on_one_line": "package p;\nimport b.B;import a.A;\nclass X {}\n",
		"trailing_spaces": "package p;\nimport a.A;   \nclass X {}\n",
		"glued_class":     "import b.B;\nimport a.A;\npublic class X {}\n",
	}

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	for name, content := range fixtures {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			first := mustSort(t, engine, content)
			if first.IsSorted() {
				assert.Equal(t, content, string(first.Rewritten()))

				return
			}

			second := mustSort(t, engine, string(first.Rewritten()))
			assert.True(t, second.IsSorted())
			assert.Equal(t, first.Rewritten(), second.Rewritten())
		})
	}
}

type failingParser struct{ err error }

func (p failingParser) Parse(context.Context, []byte) (*javasyntax.ParseResult, error) {
	return nil, p.err
}

func TestSort_ParserInfrastructureErrorIsNotClassified(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("parser pool exhausted")

	engine, err := New(Config{}, failingParser{err: errBoom}, discardLogger())
	require.NoError(t, err)

	_, err = engine.Sort(context.Background(), "Infra.java", []byte("class A {}\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "Infra.java")

	var classified *Error
	assert.False(t, errors.As(err, &classified))
}

func TestParseFile_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Empty.java")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res, err := engine.ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, EmptyFile, res)
}

func TestParseFile_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "Nope.java")

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	_, err := engine.ParseFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var pathErr *fs.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, path, pathErr.Path)

	var classified *Error
	assert.False(t, errors.As(err, &classified))
}

func TestParseFile_SortsOnDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "App.java")
	require.NoError(t, os.WriteFile(path, []byte(shuffledBasic), 0o644))

	engine := newTestEngine(t, Config{Grouping: DefaultGrouping()})

	res, err := engine.ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, res.IsSorted())
	assert.Equal(t, sortedBasic, string(res.Rewritten()))
}

package litweave

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanParseLiterateDoc(t *testing.T) {
	parser := NewParser()

	f, err := os.Open("testdata/parser/basic_valid.lit.md")
	require.NoError(t, err)
	defer f.Close()

	d, err := parser.ParseDoc(f, MetaData{Source: "testdata/parser/basic_valid.lit.md"})
	require.NoError(t, err)

	require.Equal(t, Pragma{Output: "init.lua", Annotate: true}, d.Pragmas)

	macros := d.Macros()
	require.Len(t, macros, 2)

	require.Equal(t, "*", macros[0].Name)
	require.Equal(t, 9, macros[0].Position.StartLine)
	require.Equal(t, 10, macros[0].Position.EndLine)
	require.Equal(t, []Part{
		Literal{Text: "require(\"opts\")\n"},
		Ref{Name: "window options", Indent: ""},
	}, macros[0].Parts)

	require.Equal(t, "window options", macros[1].Name)
	require.Equal(t, 16, macros[1].Position.StartLine)
	require.Equal(t, []Part{
		Literal{Text: "vim.wo.number = true\n"},
	}, macros[1].Parts)
}

func TestParserInterleavesProseAndMacros(t *testing.T) {
	parser := NewParser()

	f, err := os.Open("testdata/parser/basic_valid.lit.md")
	require.NoError(t, err)
	defer f.Close()

	d, err := parser.ParseDoc(f, MetaData{Source: "testdata/parser/basic_valid.lit.md"})
	require.NoError(t, err)

	require.Len(t, d.Chunks, 4)

	first, ok := d.Chunks[0].(Prose)
	require.True(t, ok)
	require.Contains(t, first.Text, "# My config")
	require.Contains(t, first.Text, "Some prose.")

	_, ok = d.Chunks[1].(Macro)
	require.True(t, ok)

	mid, ok := d.Chunks[2].(Prose)
	require.True(t, ok)
	require.Contains(t, mid.Text, "More prose.")

	_, ok = d.Chunks[3].(Macro)
	require.True(t, ok)
}

func TestParserIgnoresPragmasAfterContent(t *testing.T) {
	parser := NewParser()

	f, err := os.Open("testdata/parser/basic_invalid.lit.md")
	require.NoError(t, err)
	defer f.Close()

	d, err := parser.ParseDoc(f, MetaData{Source: "testdata/parser/basic_invalid.lit.md"})
	require.NoError(t, err)

	require.Equal(t, Pragma{}, d.Pragmas)
	require.Len(t, d.Macros(), 1)
}

func TestParserProseOnlyDoc(t *testing.T) {
	parser := NewParser()

	f, err := os.Open("testdata/parser/no_macros.lit.md")
	require.NoError(t, err)
	defer f.Close()

	d, err := parser.ParseDoc(f, MetaData{Source: "testdata/parser/no_macros.lit.md"})
	require.NoError(t, err)

	require.Empty(t, d.Macros())
	require.Len(t, d.Chunks, 1)
}

func TestParseParts(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []Part
	}{
		{
			name: "plain code lines",
			code: "a = 1\nb = 2\n",
			want: []Part{Literal{Text: "a = 1\n"}, Literal{Text: "b = 2\n"}},
		},
		{
			name: "reference line with indent",
			code: "if ok then\n  <<handle ok>>\nend\n",
			want: []Part{
				Literal{Text: "if ok then\n"},
				Ref{Name: "handle ok", Indent: "  "},
				Literal{Text: "end\n"},
			},
		},
		{
			name: "tab indent preserved exactly",
			code: "\t<<body>>\n",
			want: []Part{Ref{Name: "body", Indent: "\t"}},
		},
		{
			name: "reference must fill the line",
			code: "x = <<not a ref>>\n",
			want: []Part{Literal{Text: "x = <<not a ref>>\n"}},
		},
		{
			name: "final line without newline",
			code: "last",
			want: []Part{Literal{Text: "last"}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, parseParts(tc.code))
		})
	}
}

func TestCanExtractPragmaFromLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Pragma
		wantErr  bool
	}{
		{
			name:     "test basic output pragma",
			line:     "<!-- @pragma output: init.lua -->",
			expected: Pragma{Output: "init.lua"},
		},
		{
			name:     "test annotate pragma",
			line:     "<!-- @pragma annotate: true -->",
			expected: Pragma{Annotate: true},
		},
		{
			name:     "test ignores invalid pragma",
			line:     "<!-- @pragma invalid: something -->",
			expected: Pragma{},
		},
		{
			name:     "test ignores malformed comment",
			line:     "@pragma output: init.lua",
			expected: Pragma{},
		},
		{
			name:     "test ignores malformed comment end",
			line:     "<!-- @pragma output: init.lua",
			expected: Pragma{},
		},
		{
			name:    "test error when invalid annotate value",
			line:    "<!-- @pragma annotate: invalid -->",
			wantErr: true,
		},
	}

	parser := NewParser()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got Pragma
			e := parser.extractPragmaFromLine(&got, tc.line)
			if tc.wantErr {
				require.Error(t, e)
				return
			}
			require.Equal(t, tc.expected, got)
		})
	}
}

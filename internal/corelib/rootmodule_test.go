package corelib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatchRootModule(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		libs      LibrarySet
		want      string
		wantFound bool
	}{
		{
			name:      "replaces stale suffix",
			content:   "mod core;\n// TEMPFIX\nmod stale;\n",
			libs:      LibrarySet{"oz", "anotherlib"},
			want:      "mod core;\n// TEMPFIX\nmod oz;\nmod anotherlib;",
			wantFound: true,
		},
		{
			name:      "declaration order follows library set",
			content:   "// TEMPFIX",
			libs:      LibrarySet{"b", "a", "c"},
			want:      "// TEMPFIX\nmod b;\nmod a;\nmod c;",
			wantFound: true,
		},
		{
			name:      "empty library set keeps only the marker",
			content:   "mod core;\n// TEMPFIX\nmod oz;",
			libs:      nil,
			want:      "mod core;\n// TEMPFIX",
			wantFound: true,
		},
		{
			name:      "splits on first marker only",
			content:   "a\n// TEMPFIX\nb\n// TEMPFIX\nc",
			libs:      LibrarySet{"oz"},
			want:      "a\n// TEMPFIX\nmod oz;",
			wantFound: true,
		},
		{
			name:      "missing marker appends generated section",
			content:   "mod core;\n",
			libs:      LibrarySet{"oz"},
			want:      "mod core;\n// TEMPFIX\nmod oz;",
			wantFound: false,
		},
		{
			name:      "empty file",
			content:   "",
			libs:      LibrarySet{"oz"},
			want:      "// TEMPFIX\nmod oz;",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := PatchRootModule(tt.content, "// TEMPFIX", tt.libs)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestPatchRootModule_Idempotent(t *testing.T) {
	libs := LibrarySet{"oz", "anotherlib"}
	first, _ := PatchRootModule("mod core;\n// TEMPFIX\nmod stale;\n", "// TEMPFIX", libs)
	second, found := PatchRootModule(first, "// TEMPFIX", libs)

	assert.True(t, found)
	assert.Equal(t, first, second)
}

func TestPreservedPrefix(t *testing.T) {
	prefix, found := PreservedPrefix("use a;\nuse b;\n// TEMPFIX\nmod x;", "// TEMPFIX")
	assert.True(t, found)
	assert.Equal(t, "use a;\nuse b;\n", prefix)
}

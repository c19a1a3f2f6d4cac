package litweave

import (
	"path/filepath"
	"testing"
)

func TestResolveOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		docPath string
		pragma  Pragma
		want    string
		wantErr bool
	}{
		{
			name:    "no_pragma_simple",
			docPath: "config.lit.md",
			pragma:  Pragma{},
			want:    "config.lua",
		},
		{
			name:    "no_pragma_with_path",
			docPath: "/home/user/nvim/config.lit.md",
			pragma:  Pragma{},
			want:    "/home/user/nvim/config.lua",
		},
		{
			name:    "with_pragma_relative",
			docPath: "config.lit.md",
			pragma: Pragma{
				Output: "init.lua",
			},
			want: "init.lua",
		},
		{
			name:    "with_pragma_and_path",
			docPath: "/home/user/nvim/config.lit.md",
			pragma: Pragma{
				Output: "init.lua",
			},
			want: "/home/user/nvim/init.lua",
		},
		{
			name:    "pragma_with_other_extension",
			docPath: "scripts/deploy.lit.md",
			pragma: Pragma{
				Output: "deploy.sh",
			},
			want: "scripts/deploy.sh",
		},
		{
			name:    "plain_markdown_extension",
			docPath: "config.md",
			pragma:  Pragma{},
			want:    "config.lua",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveOutputPath(tt.docPath, tt.pragma)
			if (err != nil) != tt.wantErr {
				t.Errorf("ResolveOutputPath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			// Use filepath.Clean to normalize paths for comparison
			if filepath.Clean(got) != filepath.Clean(tt.want) {
				t.Errorf("ResolveOutputPath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveWeavePath(t *testing.T) {
	tests := []struct {
		docPath string
		want    string
	}{
		{"config.lit.md", "config.html"},
		{"docs/guide.lit.md", "docs/guide.html"},
		{"plain.md", "plain.html"},
	}

	for _, tt := range tests {
		t.Run(tt.docPath, func(t *testing.T) {
			if got := ResolveWeavePath(tt.docPath); got != tt.want {
				t.Errorf("ResolveWeavePath() = %v, want %v", got, tt.want)
			}
		})
	}
}

package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProjectFilter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		include []string
		exclude []string
		wantErr string
	}{
		{name: "empty include", include: []string{"docs", " "}, wantErr: "include[1]: pattern is empty"},
		{name: "malformed include", include: []string{"[docs"}, wantErr: `include[0]: invalid pattern "[docs"`},
		{name: "malformed exclude", exclude: []string{"*", "site-["}, wantErr: `exclude[1]: invalid pattern "site-["`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewProjectFilter(tt.include, tt.exclude)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProjectFilter_Allows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		include    []string
		exclude    []string
		project    string
		want       bool
		wantReason string
	}{
		{name: "no patterns", project: "docs", want: true, wantReason: "no project patterns"},
		{name: "include match", include: []string{"docs-*"}, project: "docs-v2", want: true, wantReason: `included by "docs-*"`},
		{name: "include miss", include: []string{"docs-*"}, project: "blog", want: false, wantReason: "matches no include pattern"},
		{name: "alternatives", include: []string{"{blog,shop}"}, project: "shop", want: true},
		{name: "exclude match", exclude: []string{"*-preview"}, project: "docs-preview", want: false, wantReason: `excluded by "*-preview"`},
		{name: "exclude miss", exclude: []string{"*-preview"}, project: "docs", want: true, wantReason: "not excluded"},
		{
			name:       "exclude wins over include",
			include:    []string{"docs*"},
			exclude:    []string{"docs-sandbox"},
			project:    "docs-sandbox",
			want:       false,
			wantReason: `excluded by "docs-sandbox"`,
		},
		{name: "single character wildcard", include: []string{"site-?"}, project: "site-10", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := NewProjectFilter(tt.include, tt.exclude)
			require.NoError(t, err)

			got, reason := f.Allows(tt.project)
			assert.Equal(t, tt.want, got)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, reason)
			}
		})
	}
}

func TestProjectFilter_Nil(t *testing.T) {
	t.Parallel()

	var f *ProjectFilter
	assert.True(t, f.IsEmpty())
	ok, _ := f.Allows("anything")
	assert.True(t, ok)

	empty, err := NewProjectFilter(nil, nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}

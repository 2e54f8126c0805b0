package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplates(t *testing.T) {
	r := NewTemplateRegistryAt(t.TempDir())
	require.NoError(t, r.CreateDefaultTemplates())

	names, err := r.ListTemplates()
	require.NoError(t, err)
	assert.Len(t, names, len(DefaultTemplates()))
	assert.IsNonDecreasing(t, names)

	tpl, err := r.GetTemplate("scholar")
	require.NoError(t, err)
	profile := tpl.ToProfile()
	assert.Equal(t, "Scholar", profile.Name)
	assert.Contains(t, profile.Skills, "tutoring")
}

func TestDefaultsDoNotOverwrite(t *testing.T) {
	r := NewTemplateRegistryAt(t.TempDir())
	require.NoError(t, r.SaveTemplate("mine", &AgentTemplate{Name: "Mine", Personality: "shy"}))
	require.NoError(t, r.CreateDefaultTemplates())

	names, err := r.ListTemplates()
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, names)
}

func TestTemplateNames(t *testing.T) {
	r := NewTemplateRegistryAt(t.TempDir())
	for _, bad := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, r.SaveTemplate(bad, &AgentTemplate{}), bad)
		_, err := r.GetTemplate(bad)
		assert.Error(t, err, bad)
	}

	_, err := r.GetTemplate("missing")
	assert.Error(t, err)
}

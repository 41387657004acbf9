package summarizer

import (
	"strings"
	"testing"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildPromptGeneral(t *testing.T) {
	prompt := BuildPrompt(DefaultProfile(), Request{Text: "  article body  "})

	assert.Contains(t, prompt, "World of Warcraft")
	assert.Contains(t, prompt, "The War Within")
	assert.Contains(t, prompt, "strictly under 100 words")
	assert.Contains(t, prompt, "Season of Discovery")
	assert.Contains(t, prompt, "<strong>highlight sentence</strong>")
	assert.Contains(t, prompt, "\"\"\"\narticle body\n\"\"\"")
	assert.NotContains(t, prompt, domain.FallbackSummary)
}

func TestBuildPromptClassFacet(t *testing.T) {
	f := domain.ClassFacet(domain.ClassDeathKnight)
	prompt := BuildPrompt(DefaultProfile(), Request{Text: "body", Facet: &f})

	assert.Contains(t, prompt, `relevant to the class: "Death Knight"`)
	assert.Contains(t, prompt, `return exactly:`+"\n"+`"Please refer to the general summary."`)
	assert.Contains(t, prompt, "Midnight")
	assert.Contains(t, prompt, "<strong>, <em>, <ul>, <li>, <br>")
	assert.Contains(t, prompt, "~150 words")
}

func TestBuildPromptContentTypeFacetRules(t *testing.T) {
	f := domain.ContentTypeFacet(domain.ContentMythicKey)
	prompt := BuildPrompt(DefaultProfile(), Request{Text: "body", Facet: &f})

	assert.Contains(t, prompt, `relevant to the content type: "M+"`)
	assert.Contains(t, prompt, "Mythic+ dungeon content, not raids")
	assert.Contains(t, prompt, "excludes Mythic+")
	for _, ct := range domain.ContentTypes {
		assert.Contains(t, prompt, contentTypeRules[ct])
	}
}

func TestBuildPromptProfileOverrides(t *testing.T) {
	p := Profile{
		Product:          "Diablo IV",
		CurrentEdition:   "Season 9",
		FutureEditions:   []string{},
		ExcludedVersions: []string{},
		GeneralWordLimit: 60,
	}
	prompt := BuildPrompt(p, Request{Text: "body"})

	assert.Contains(t, prompt, "Diablo IV")
	assert.Contains(t, prompt, "strictly under 60 words")
	assert.False(t, strings.Contains(prompt, "Do not include"), "no exclusion line without excluded versions")
}

// Package profile turns raw upstream profile and post records into the
// sectioned text document handed to callers.
package profile

import (
	"time"

	"linkedin-ingest/internal/models"
)

// Builder renders ProfileDocuments. The clock decides Current/Previous tags.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder. A nil now uses time.Now.
func NewBuilder(now func() time.Time) *Builder {
	return &Builder{now: clock(now)}
}

// BuildProfile renders every section except posts. Any malformed record
// fails the whole document with a profile-stage ParseError.
func (b *Builder) BuildProfile(raw models.RawProfile) (models.ProfileDocument, error) {
	var doc models.ProfileDocument

	fullName, err := FullName(raw)
	if err != nil {
		return doc, models.NewParseError(models.StageProfile, err)
	}
	doc.FullName = fullName
	doc.Summary = Summary(raw, fullName)

	rendered := make(map[string]string, len(sectionBuilders))
	for _, s := range sectionBuilders {
		out, err := b.build(raw, s, fullName)
		if err != nil {
			return models.ProfileDocument{}, models.NewParseError(models.StageProfile, err)
		}
		rendered[s.key] = out
	}
	doc.Experience = rendered["experience"]
	doc.Education = rendered["education"]
	doc.Projects = rendered["projects"]
	doc.Honors = rendered["honors"]
	doc.Certifications = rendered["certifications"]
	doc.Publications = rendered["publications"]
	doc.Volunteer = rendered["volunteer"]

	if doc.Skills, err = Skills(raw); err != nil {
		return models.ProfileDocument{}, models.NewParseError(models.StageProfile, err)
	}
	if doc.Languages, err = Languages(raw); err != nil {
		return models.ProfileDocument{}, models.NewParseError(models.StageProfile, err)
	}
	return doc, nil
}

// BuildPosts renders the posts section. Failures are posts-stage ParseErrors.
func (b *Builder) BuildPosts(raw models.RawProfile, posts []models.RawPost) (string, error) {
	out, err := Posts(raw, posts)
	if err != nil {
		return "", models.NewParseError(models.StagePosts, err)
	}
	return out, nil
}

// Build renders the complete document.
func (b *Builder) Build(raw models.RawProfile, posts []models.RawPost) (models.ProfileDocument, error) {
	doc, err := b.BuildProfile(raw)
	if err != nil {
		return doc, err
	}
	if doc.Posts, err = b.BuildPosts(raw, posts); err != nil {
		return models.ProfileDocument{}, err
	}
	return doc, nil
}

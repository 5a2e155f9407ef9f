package profile

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"linkedin-ingest/internal/models"
)

// PostType distinguishes how a feed entry relates to the profile owner.
type PostType string

const (
	// PostTypePost is content the owner wrote.
	PostTypePost PostType = "post"
	// PostTypeRepost is someone else's content redistributed without commentary.
	PostTypeRepost PostType = "repost"
	// PostTypeReshare is someone else's content with the owner's commentary.
	PostTypeReshare PostType = "reshare"
)

// Reaction is one entry of a post's reaction breakdown.
type Reaction struct {
	Type  string
	Count int64
}

// ClassifiedPost is a feed entry with its type resolved and the fields the
// renderer needs extracted.
type ClassifiedPost struct {
	Type           PostType
	AuthorName     string // original author, repost and reshare only
	AuthorHeadline string
	// OriginalContent is the reshared post's text; reshare only.
	OriginalContent string
	Content         string
	Reactions       []Reaction
	NumComments     int64
	NumShares       int64
}

const miniProfilePath = "actor.image.attributes.0.miniProfile"

// ClassifyPost resolves the type of post relative to the owner's member urn.
// An actor other than the owner is a repost; otherwise a resharedUpdate makes
// it a reshare.
func ClassifyPost(ownerURN string, post models.RawPost) (ClassifiedPost, error) {
	doc := post.Root()
	cp := ClassifiedPost{Type: PostTypePost}

	actorURN, err := requireString(doc, "actor.urn")
	if err != nil {
		return cp, err
	}

	switch {
	case actorURN != ownerURN:
		cp.Type = PostTypeRepost
		if cp.AuthorName, cp.AuthorHeadline, err = originalAuthor(doc); err != nil {
			return cp, err
		}
	case present(doc.Get("resharedUpdate")):
		cp.Type = PostTypeReshare
		reshared := doc.Get("resharedUpdate")
		if cp.OriginalContent, err = requireString(reshared, "commentary.text.text"); err != nil {
			return cp, fmt.Errorf("resharedUpdate: %w", err)
		}
		if cp.AuthorName, cp.AuthorHeadline, err = originalAuthor(reshared); err != nil {
			return cp, fmt.Errorf("resharedUpdate: %w", err)
		}
	}

	counts := doc.Get("socialDetail.totalSocialActivityCounts")
	if !counts.IsObject() {
		return cp, fmt.Errorf("missing required field %q", "socialDetail.totalSocialActivityCounts")
	}
	if cp.NumComments, err = requireInt(counts, "numComments"); err != nil {
		return cp, err
	}
	if cp.NumShares, err = requireInt(counts, "numShares"); err != nil {
		return cp, err
	}
	reactions := counts.Get("reactionTypeCounts")
	if !reactions.IsArray() {
		return cp, fmt.Errorf("missing required field %q", "reactionTypeCounts")
	}
	for i, r := range reactions.Array() {
		kind, err := requireString(r, "reactionType")
		if err != nil {
			return cp, fmt.Errorf("reactionTypeCounts[%d]: %w", i, err)
		}
		count, err := requireInt(r, "count")
		if err != nil {
			return cp, fmt.Errorf("reactionTypeCounts[%d]: %w", i, err)
		}
		cp.Reactions = append(cp.Reactions, Reaction{Type: kind, Count: count})
	}

	if cp.Content, err = requireString(doc, "commentary.text.text"); err != nil {
		return cp, err
	}
	return cp, nil
}

func originalAuthor(update gjson.Result) (name, headline string, err error) {
	mini := update.Get(miniProfilePath)
	if !mini.IsObject() {
		return "", "", fmt.Errorf("missing required field %q", miniProfilePath)
	}
	first, err := requireString(mini, "firstName")
	if err != nil {
		return "", "", fmt.Errorf("miniProfile: %w", err)
	}
	last, err := requireString(mini, "lastName")
	if err != nil {
		return "", "", fmt.Errorf("miniProfile: %w", err)
	}
	headline, _ = optionalString(mini, "occupation")
	return first + " " + last, headline, nil
}

func requireInt(item gjson.Result, field string) (int64, error) {
	v := item.Get(field)
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("missing required field %q", field)
	}
	return v.Int(), nil
}

// Render formats one classified post as an item block ending in a newline.
func (cp ClassifiedPost) Render() string {
	var sb strings.Builder
	switch cp.Type {
	case PostTypePost:
		sb.WriteString("[Posted]\n")
	case PostTypeReshare:
		sb.WriteString("[Reshared a post]\n")
		sb.WriteString(cp.origin("RESHARED FROM"))
	case PostTypeRepost:
		sb.WriteString("[Reposted a post]\n")
		sb.WriteString(cp.origin("REPOSTED FROM"))
	}

	reactions := make([]string, 0, len(cp.Reactions))
	for _, r := range cp.Reactions {
		reactions = append(reactions, fmt.Sprintf("%d (%s)", r.Count, r.Type))
	}
	sb.WriteString("REACTIONS: " + strings.Join(reactions, ", ") + "\n")
	sb.WriteString(fmt.Sprintf("COMMENTS: %d\n", cp.NumComments))
	sb.WriteString(fmt.Sprintf("SHARES: %d\n", cp.NumShares))

	switch cp.Type {
	case PostTypePost:
		sb.WriteString(fenced("CONTENT", cp.Content))
	case PostTypeRepost:
		sb.WriteString(fenced("ORIGINAL CONTENT", cp.Content))
	case PostTypeReshare:
		sb.WriteString(fenced("ORIGINAL CONTENT", cp.OriginalContent))
		sb.WriteString(fenced("RESHARE COMMENTARY", cp.Content))
	}
	return sb.String()
}

func (cp ClassifiedPost) origin(label string) string {
	s := label + ":\n- NAME: " + cp.AuthorName + "\n"
	if cp.AuthorHeadline != "" {
		s += "- HEADLINE: " + cp.AuthorHeadline + "\n"
	}
	return s
}

// Posts renders the posts section for the owner of raw.
func Posts(raw models.RawProfile, posts []models.RawPost) (string, error) {
	if len(posts) == 0 {
		return "", nil
	}
	owner, err := requireString(raw.Root(), "member_urn")
	if err != nil {
		return "", err
	}
	blocks := make([]string, 0, len(posts))
	for i, post := range posts {
		cp, err := ClassifyPost(owner, post)
		if err != nil {
			return "", fmt.Errorf("posts[%d]: %w", i, err)
		}
		blocks = append(blocks, cp.Render())
	}
	return section("# POSTS", blocks), nil
}

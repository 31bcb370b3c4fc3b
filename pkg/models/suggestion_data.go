package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TargetType is the category of entity a suggestion applies to.
type TargetType string

const (
	TargetTypeArticle     TargetType = "article"
	TargetTypeHeroSection TargetType = "hero_section"
	TargetTypeSEO         TargetType = "seo"
	TargetTypeContentGap  TargetType = "content_gap"
)

var (
	// ErrUnknownTargetType is returned when a payload names a target type without a variant.
	ErrUnknownTargetType = errors.New("unknown target type")

	// ErrTargetTypeMismatch is returned when a payload variant does not match the declared target type.
	ErrTargetTypeMismatch = errors.New("suggestion data does not match target type")

	// ErrEmptySuggestionData is returned when a payload carries no change at all.
	ErrEmptySuggestionData = errors.New("suggestion data is empty")
)

// TargetTypes lists every target type with a payload variant.
func TargetTypes() []TargetType {
	return []TargetType{TargetTypeArticle, TargetTypeHeroSection, TargetTypeSEO, TargetTypeContentGap}
}

// SuggestionData is the payload of a suggestion. Each target type has exactly one variant.
type SuggestionData interface {
	TargetType() TargetType
}

// ArticleImprovement proposes field changes on an existing article.
type ArticleImprovement struct {
	Title         *string `json:"title,omitempty"`
	Excerpt       *string `json:"excerpt,omitempty"`
	Category      *string `json:"category,omitempty"`
	ContentAppend *string `json:"content_append,omitempty"`
}

func (ArticleImprovement) TargetType() TargetType { return TargetTypeArticle }

// SEOImprovement proposes new metadata, stored on the article's title and excerpt.
type SEOImprovement struct {
	MetaTitle       *string `json:"meta_title,omitempty"`
	MetaDescription *string `json:"meta_description,omitempty"`
}

func (SEOImprovement) TargetType() TargetType { return TargetTypeSEO }

// ContentGap proposes a new article covering an uncovered topic.
type ContentGap struct {
	SuggestedTitle string `json:"suggested_title"`
	ContentOutline string `json:"content_outline,omitempty"`
	Excerpt        string `json:"excerpt,omitempty"`
	Category       string `json:"category,omitempty"`
}

func (ContentGap) TargetType() TargetType { return TargetTypeContentGap }

// HeroFeature proposes featuring an article in the hero section.
type HeroFeature struct {
	ArticleID   string `json:"article_id"`
	Headline    string `json:"headline"`
	Subheadline string `json:"subheadline,omitempty"`
}

func (HeroFeature) TargetType() TargetType { return TargetTypeHeroSection }

// DecodeSuggestionData decodes a raw payload into the variant for the target type.
func DecodeSuggestionData(targetType TargetType, raw json.RawMessage) (SuggestionData, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}

	var (
		data SuggestionData
		err  error
	)

	switch targetType {
	case TargetTypeArticle:
		var v ArticleImprovement
		err = json.Unmarshal(raw, &v)
		data = &v
	case TargetTypeSEO:
		var v SEOImprovement
		err = json.Unmarshal(raw, &v)
		data = &v
	case TargetTypeContentGap:
		var v ContentGap
		err = json.Unmarshal(raw, &v)
		data = &v
	case TargetTypeHeroSection:
		var v HeroFeature
		err = json.Unmarshal(raw, &v)
		data = &v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTargetType, targetType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s suggestion data: %w", targetType, err)
	}

	return data, nil
}

// EncodeSuggestionData encodes a payload variant. A nil payload encodes as an empty object.
func EncodeSuggestionData(data SuggestionData) (json.RawMessage, error) {
	if data == nil {
		return json.RawMessage(`{}`), nil
	}

	return json.Marshal(data)
}

// ValidateSuggestionData checks that the payload matches the target type and carries a change.
func ValidateSuggestionData(targetType TargetType, data SuggestionData) error {
	if data == nil {
		return ErrEmptySuggestionData
	}

	if data.TargetType() != targetType {
		return fmt.Errorf("%w: %s payload for %s target", ErrTargetTypeMismatch, data.TargetType(), targetType)
	}

	switch v := data.(type) {
	case *ArticleImprovement:
		if v.Title == nil && v.Excerpt == nil && v.Category == nil && v.ContentAppend == nil {
			return ErrEmptySuggestionData
		}
	case *SEOImprovement:
		if v.MetaTitle == nil && v.MetaDescription == nil {
			return ErrEmptySuggestionData
		}
	case *ContentGap:
		if strings.TrimSpace(v.SuggestedTitle) == "" {
			return fmt.Errorf("%w: suggested_title is required", ErrEmptySuggestionData)
		}
	case *HeroFeature:
		if v.ArticleID == "" || strings.TrimSpace(v.Headline) == "" {
			return fmt.Errorf("%w: article_id and headline are required", ErrEmptySuggestionData)
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownTargetType, data)
	}

	return nil
}

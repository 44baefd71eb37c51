// Package config loads site profiles describing how a novel site lays out
// its chapter pages.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors returned by LoadProfile and Profile.Validate.
var (
	// ErrProfileNotFound is returned when the profile file does not exist.
	ErrProfileNotFound = errors.New("site profile not found")
	// ErrNoContentSelector is returned when a profile names no content selector.
	ErrNoContentSelector = errors.New("profile needs at least one content selector")
	// ErrInvalidPageParam is returned for an empty or malformed page parameter.
	ErrInvalidPageParam = errors.New("invalid page parameter")
	// ErrInvalidTitleSuffix is returned when the title suffix is not a valid regexp.
	ErrInvalidTitleSuffix = errors.New("invalid title suffix pattern")
	// ErrUnknownFallback is returned for a fallback locator that does not exist.
	ErrUnknownFallback = errors.New("unknown fallback locator")
)

// Fallback locator names.
const (
	FallbackReadability = "readability"
	FallbackTrafilatura = "trafilatura"
)

var knownFallbacks = []string{FallbackReadability, FallbackTrafilatura}

// Profile describes the markup of one site template.
type Profile struct {
	// Name identifies the profile in logs.
	Name string `yaml:"name,omitempty"`

	// PageParam is the query parameter carrying the sub-page number.
	PageParam string `yaml:"pageParam,omitempty"`

	// ContentSelectors are tried in order to find the chapter body.
	ContentSelectors []string `yaml:"contentSelectors,omitempty"`

	// PageCountSelector matches the <option>s of the page-count control.
	PageCountSelector string `yaml:"pageCountSelector,omitempty"`

	// AuthorSelector matches the element holding the author's name.
	AuthorSelector string `yaml:"authorSelector,omitempty"`

	// ChapterSelector matches the links of the chapter list.
	ChapterSelector string `yaml:"chapterSelector,omitempty"`

	// TitleSuffix is a regexp removed from the page title.
	TitleSuffix string `yaml:"titleSuffix,omitempty"`

	// DefaultAuthor is used when the page names no author.
	DefaultAuthor string `yaml:"defaultAuthor,omitempty"`

	// Fallback lists locators tried when no content selector matches.
	Fallback []string `yaml:"fallback,omitempty"`
}

// DefaultProfile returns the built-in profile for the hlib site template.
func DefaultProfile() Profile {
	return Profile{
		Name:              "hlib",
		PageParam:         "p",
		ContentSelectors:  []string{"#content"},
		PageCountSelector: "select.form-select option",
		AuthorSelector:    `.list-group-item a[href^="/u/"] span`,
		ChapterSelector:   "#s-pages a",
		TitleSuffix:       `\s*-\s*\d+\s*$`,
		DefaultAuthor:     "未知作者",
	}
}

// LoadProfile reads a YAML profile from path. Keys the file leaves out
// keep their DefaultProfile values. Unknown keys are an error.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile and validates it.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing site profile: %w", err)
	}

	merged := DefaultProfile().Merge(p)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Merge returns p with every non-empty field of override applied.
func (p Profile) Merge(override Profile) Profile {
	if override.Name != "" {
		p.Name = override.Name
	}
	if override.PageParam != "" {
		p.PageParam = override.PageParam
	}
	if len(override.ContentSelectors) > 0 {
		p.ContentSelectors = override.ContentSelectors
	}
	if override.PageCountSelector != "" {
		p.PageCountSelector = override.PageCountSelector
	}
	if override.AuthorSelector != "" {
		p.AuthorSelector = override.AuthorSelector
	}
	if override.ChapterSelector != "" {
		p.ChapterSelector = override.ChapterSelector
	}
	if override.TitleSuffix != "" {
		p.TitleSuffix = override.TitleSuffix
	}
	if override.DefaultAuthor != "" {
		p.DefaultAuthor = override.DefaultAuthor
	}
	if len(override.Fallback) > 0 {
		p.Fallback = override.Fallback
	}
	return p
}

// Validate reports the first problem with the profile.
func (p Profile) Validate() error {
	if len(p.ContentSelectors) == 0 || slices.Contains(p.ContentSelectors, "") {
		return ErrNoContentSelector
	}
	if p.PageParam == "" || strings.ContainsAny(p.PageParam, "&=?# ") {
		return fmt.Errorf("%w: %q", ErrInvalidPageParam, p.PageParam)
	}
	if _, err := p.TitleSuffixPattern(); err != nil {
		return err
	}
	for _, name := range p.Fallback {
		if !slices.Contains(knownFallbacks, name) {
			return fmt.Errorf("%w: %q", ErrUnknownFallback, name)
		}
	}
	return nil
}

// TitleSuffixPattern compiles TitleSuffix. An empty suffix yields nil.
func (p Profile) TitleSuffixPattern() (*regexp.Regexp, error) {
	if p.TitleSuffix == "" {
		return nil, nil
	}
	re, err := regexp.Compile(p.TitleSuffix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTitleSuffix, err)
	}
	return re, nil
}

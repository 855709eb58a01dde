package domain

import (
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// SoftwareVersion names a released version and the versions it covers.
type SoftwareVersion struct {
	VersionName      string   `json:"versionName,omitempty" yaml:"versionName,omitempty"`
	IncludedVersions []string `json:"includedVersions,omitempty" yaml:"includedVersions,omitempty"`
}

// UnmarshalYAML accepts a bare scalar as the version name.
func (v *SoftwareVersion) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Tag == "!!null" {
			*v = SoftwareVersion{}
			return nil
		}
		*v = SoftwareVersion{VersionName: node.Value}
		return nil
	}
	type plain SoftwareVersion
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = SoftwareVersion(raw)
	return nil
}

type CodeRepository struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	URL  string `json:"URL,omitempty" yaml:"URL,omitempty"`
}

type WebSite struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	URL         string `json:"URL,omitempty" yaml:"URL,omitempty"`
}

type Publication struct {
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Headline   string `json:"headline,omitempty" yaml:"headline,omitempty"`
}

type Person struct {
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Email      string `json:"email,omitempty" yaml:"email,omitempty"`
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
}

// KeywordCategory is the EDAM branch a keyword belongs to.
type KeywordCategory string

const (
	KeywordTopic     KeywordCategory = "topic"
	KeywordOperation KeywordCategory = "operation"
)

// Keyword is either an ontology uri or a name with a category.
type Keyword struct {
	Name     string          `json:"name,omitempty" yaml:"name,omitempty"`
	Category KeywordCategory `json:"category,omitempty" yaml:"category,omitempty"`
	URI      string          `json:"uri,omitempty" yaml:"uri,omitempty"`
}

// UnmarshalYAML accepts a bare string as the keyword uri.
func (k *Keyword) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Tag == "!!null" {
			*k = Keyword{}
			return nil
		}
		*k = Keyword{URI: node.Value}
		return nil
	}
	type plain Keyword
	var raw plain
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*k = Keyword(raw)
	return nil
}

// MarshalYAML writes a uri keyword as the bare uri.
func (k Keyword) MarshalYAML() (any, error) {
	if k.URI != "" {
		return k.URI, nil
	}
	type plain Keyword
	return plain(k), nil
}

type ParentScript struct {
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
}

type Tool struct {
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	AlternateName string `json:"alternateName,omitempty" yaml:"alternateName,omitempty"`
	Version       string `json:"version,omitempty" yaml:"version,omitempty"`
	Identifier    string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
}

// CallMap links a workflow step id to the identifier it calls.
type CallMap struct {
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
}

type IOObject struct {
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	URI        string `json:"uri,omitempty" yaml:"uri,omitempty"`
}

// IOItem binds one instance input or output. A single object is inlined;
// an array of objects is listed under objects.
type IOItem struct {
	ID       string     `json:"id,omitempty" yaml:"id,omitempty"`
	IOObject `json:",inline" yaml:",inline"`
	Objects  []IOObject `json:"objects,omitempty" yaml:"objects,omitempty"`
}

var (
	codeRepositorySchemes = []string{"https", "http", "git"}
	webSiteSchemes        = []string{"https", "http"}
)

func validateURL(field, raw string, schemes []string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return &ConstraintViolationError{Field: field, Message: fmt.Sprintf("invalid URL %q", raw)}
	}
	for _, scheme := range schemes {
		if strings.EqualFold(parsed.Scheme, scheme) {
			return nil
		}
	}
	return &ConstraintViolationError{
		Field:   field,
		Message: fmt.Sprintf("URL %q must use one of %s", raw, strings.Join(schemes, ", ")),
	}
}

func (c CodeRepository) validate() error {
	return validateURL("codeRepository.URL", c.URL, codeRepositorySchemes)
}

func validateWebSites(sites []WebSite) []error {
	var errs []error
	for i, site := range sites {
		if err := validateURL(fmt.Sprintf("WebSite[%d].URL", i), site.URL, webSiteSchemes); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateKeywords(keywords []Keyword) []error {
	var errs []error
	for i, keyword := range keywords {
		switch keyword.Category {
		case "", KeywordTopic, KeywordOperation:
		default:
			errs = append(errs, &ConstraintViolationError{
				Field:   fmt.Sprintf("keywords[%d].category", i),
				Message: fmt.Sprintf("category %q must be topic or operation", keyword.Category),
			})
		}
	}
	return errs
}
